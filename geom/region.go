// Package geom provides the integer cell geometry shared by layout and compositor.
//
// All coordinates are absolute terminal cells with the origin at the top-left corner.
// Regions are small value types; every operation returns a new value.
package geom

// Offset is a position or displacement in cells
type Offset struct {
	X, Y int
}

// Add returns the component-wise sum
func (o Offset) Add(other Offset) Offset {
	return Offset{X: o.X + other.X, Y: o.Y + other.Y}
}

// Neg returns the inverse displacement
func (o Offset) Neg() Offset {
	return Offset{X: -o.X, Y: -o.Y}
}

// Size is a width/height pair in cells
type Size struct {
	W, H int
}

// Area returns W*H, zero for degenerate sizes
func (s Size) Area() int {
	if s.W <= 0 || s.H <= 0 {
		return 0
	}
	return s.W * s.H
}

// Clamp returns the size with negative dimensions raised to zero
func (s Size) Clamp() Size {
	return Size{W: max(s.W, 0), H: max(s.H, 0)}
}

// Region is an axis-aligned rectangle in absolute cell coordinates
type Region struct {
	X, Y int // Top-left corner
	W, H int // Dimensions, never negative after construction through this package
}

// NewRegion creates a region, clamping negative dimensions to zero
func NewRegion(x, y, w, h int) Region {
	return Region{X: x, Y: y, W: max(w, 0), H: max(h, 0)}
}

// FromSize returns a region at the origin covering size
func FromSize(s Size) Region {
	return NewRegion(0, 0, s.W, s.H)
}

// Right returns the exclusive right edge
func (r Region) Right() int {
	return r.X + r.W
}

// Bottom returns the exclusive bottom edge
func (r Region) Bottom() int {
	return r.Y + r.H
}

// Origin returns the top-left corner
func (r Region) Origin() Offset {
	return Offset{X: r.X, Y: r.Y}
}

// Size returns the region dimensions
func (r Region) Size() Size {
	return Size{W: r.W, H: r.H}
}

// Empty reports whether the region covers no cells
func (r Region) Empty() bool {
	return r.W <= 0 || r.H <= 0
}

// Contains reports whether the cell (x, y) lies inside the region
func (r Region) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// ContainsRegion reports whether other lies entirely inside r
// Empty regions are contained anywhere
func (r Region) ContainsRegion(other Region) bool {
	if other.Empty() {
		return true
	}
	return other.X >= r.X && other.Y >= r.Y && other.Right() <= r.Right() && other.Bottom() <= r.Bottom()
}

// Intersect returns the overlapping area, zero-sized when disjoint
func (r Region) Intersect(other Region) Region {
	x1 := max(r.X, other.X)
	y1 := max(r.Y, other.Y)
	x2 := min(r.Right(), other.Right())
	y2 := min(r.Bottom(), other.Bottom())
	if x2 <= x1 || y2 <= y1 {
		return Region{X: x1, Y: y1}
	}
	return Region{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Union returns the smallest region covering both, ignoring empty operands
func (r Region) Union(other Region) Region {
	if r.Empty() {
		return other
	}
	if other.Empty() {
		return r
	}
	x1 := min(r.X, other.X)
	y1 := min(r.Y, other.Y)
	x2 := max(r.Right(), other.Right())
	y2 := max(r.Bottom(), other.Bottom())
	return Region{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Translate moves the region by offset
func (r Region) Translate(o Offset) Region {
	return Region{X: r.X + o.X, Y: r.Y + o.Y, W: r.W, H: r.H}
}

// Shrink returns the region inset by spacing, clamped to zero size
func (r Region) Shrink(s Spacing) Region {
	return NewRegion(r.X+s.Left, r.Y+s.Top, r.W-s.Width(), r.H-s.Height())
}

// Grow returns the region outset by spacing
func (r Region) Grow(s Spacing) Region {
	return NewRegion(r.X-s.Left, r.Y-s.Top, r.W+s.Width(), r.H+s.Height())
}

// Sub returns a nested region with coordinates relative to r, clipped to r
func (r Region) Sub(x, y, w, h int) Region {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	if x+w > r.W {
		w = r.W - x
	}
	if y+h > r.H {
		h = r.H - y
	}
	return NewRegion(r.X+x, r.Y+y, w, h)
}

// SplitTop cuts h rows from the top, returning the cut and the remainder
// h is clamped to the region height
func (r Region) SplitTop(h int) (top, rest Region) {
	h = clampInt(h, 0, r.H)
	return NewRegion(r.X, r.Y, r.W, h), NewRegion(r.X, r.Y+h, r.W, r.H-h)
}

// SplitBottom cuts h rows from the bottom
func (r Region) SplitBottom(h int) (bottom, rest Region) {
	h = clampInt(h, 0, r.H)
	return NewRegion(r.X, r.Bottom()-h, r.W, h), NewRegion(r.X, r.Y, r.W, r.H-h)
}

// SplitLeft cuts w columns from the left
func (r Region) SplitLeft(w int) (left, rest Region) {
	w = clampInt(w, 0, r.W)
	return NewRegion(r.X, r.Y, w, r.H), NewRegion(r.X+w, r.Y, r.W-w, r.H)
}

// SplitRight cuts w columns from the right
func (r Region) SplitRight(w int) (right, rest Region) {
	w = clampInt(w, 0, r.W)
	return NewRegion(r.Right()-w, r.Y, w, r.H), NewRegion(r.X, r.Y, r.W-w, r.H)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
