package screenshot

import (
	"image"
	"testing"
)

func TestCaptureRegionRejectsDegenerateDimensions(t *testing.T) {
	tests := []struct {
		name   string
		region Region
	}{
		{"zero width", Region{X: 0, Y: 0, Width: 0, Height: 50}},
		{"zero height", Region{X: 0, Y: 0, Width: 50, Height: 0}},
		{"negative width", Region{X: 10, Y: 10, Width: -5, Height: 50}},
		{"negative height", Region{X: 10, Y: 10, Width: 50, Height: -5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := CaptureRegion(tt.region); err == nil {
				t.Errorf("CaptureRegion(%+v) succeeded, expected dimension error", tt.region)
			}
		})
	}
}

func TestRegionBoundsRoundTrip(t *testing.T) {
	tests := []Region{
		{X: 0, Y: 0, Width: 100, Height: 80},
		{X: -1920, Y: -200, Width: 640, Height: 480},
		{X: 42, Y: 7, Width: 1, Height: 1},
	}
	for _, r := range tests {
		if got := RegionFromBounds(r.Bounds()); got != r {
			t.Errorf("RegionFromBounds(Bounds(%+v)) = %+v", r, got)
		}
	}
}

func TestRegionFromBoundsCanonicalizes(t *testing.T) {
	// An inverted rectangle still yields non-negative dimensions.
	b := image.Rect(100, 80, 0, 0)
	r := RegionFromBounds(b)
	if r.Width < 0 || r.Height < 0 {
		t.Fatalf("RegionFromBounds produced negative dimensions: %+v", r)
	}
	if r != (Region{X: 0, Y: 0, Width: 100, Height: 80}) {
		t.Errorf("RegionFromBounds(%v) = %+v", b, r)
	}
}
