package geometry

// Rect is a rectangle expressed as four edges in a single coordinate space.
// Edges may cross while the user drags one past its opposite; Normalized
// resolves the crossing. Width and Height are only meaningful on a
// normalized rectangle.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Normalized returns the rectangle with left<=right and top<=bottom.
// Normalizing an already-normalized rectangle is a no-op.
func (r Rect) Normalized() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

func (r Rect) Width() int  { return r.Right - r.Left }
func (r Rect) Height() int { return r.Bottom - r.Top }

// Contains reports whether the point lies inside the rectangle, edges included.
func (r Rect) Contains(x, y int) bool {
	return r.Left <= x && x <= r.Right && r.Top <= y && y <= r.Bottom
}

// Edge identifies what part of a rectangle a pointer position maps to.
type Edge int

const (
	EdgeNone Edge = iota
	EdgeLeft
	EdgeRight
	EdgeTop
	EdgeBottom
	EdgeMove
)

func (e Edge) String() string {
	switch e {
	case EdgeLeft:
		return "left"
	case EdgeRight:
		return "right"
	case EdgeTop:
		return "top"
	case EdgeBottom:
		return "bottom"
	case EdgeMove:
		return "move"
	}
	return "none"
}

// HitTest classifies a point against the rectangle for resize/move purposes.
// A point counts as an edge hit when it is within margin pixels of the edge
// AND inside that edge's perpendicular span; vertical edges are checked
// before horizontal ones, so near a corner the left/right hit wins. Points
// inside the rectangle but clear of every edge band map to EdgeMove, points
// outside to EdgeNone. The rectangle is normalized before testing.
func HitTest(r Rect, x, y, margin int) Edge {
	r = r.Normalized()
	if abs(x-r.Left) <= margin && r.Top <= y && y <= r.Bottom {
		return EdgeLeft
	}
	if abs(x-r.Right) <= margin && r.Top <= y && y <= r.Bottom {
		return EdgeRight
	}
	if abs(y-r.Top) <= margin && r.Left <= x && x <= r.Right {
		return EdgeTop
	}
	if abs(y-r.Bottom) <= margin && r.Left <= x && x <= r.Right {
		return EdgeBottom
	}
	if r.Contains(x, y) {
		return EdgeMove
	}
	return EdgeNone
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
