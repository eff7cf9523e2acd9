//go:build !windows

package overlay

import (
	"context"
	"fmt"

	"mekicopy/src/screenshot"
)

type stubSelector struct{}

func newPlatformSelector() Selector { return &stubSelector{} }

func (s *stubSelector) Select(ctx context.Context, opts Options) (screenshot.Region, bool, error) {
	return screenshot.Region{}, false, fmt.Errorf("interactive region selection is not supported on this platform")
}
