package geom

// Spacing holds per-edge cell counts for margin, border and padding
type Spacing struct {
	Top, Right, Bottom, Left int
}

// Uniform returns equal spacing on all edges
func Uniform(n int) Spacing {
	return Spacing{Top: n, Right: n, Bottom: n, Left: n}
}

// Width returns the horizontal total (left + right)
func (s Spacing) Width() int {
	return s.Left + s.Right
}

// Height returns the vertical total (top + bottom)
func (s Spacing) Height() int {
	return s.Top + s.Bottom
}

// Totals returns the combined spacing as a size
func (s Spacing) Totals() Size {
	return Size{W: s.Width(), H: s.Height()}
}

// Add returns the per-edge sum
func (s Spacing) Add(o Spacing) Spacing {
	return Spacing{
		Top:    s.Top + o.Top,
		Right:  s.Right + o.Right,
		Bottom: s.Bottom + o.Bottom,
		Left:   s.Left + o.Left,
	}
}

// IsZero reports whether all edges are zero
func (s Spacing) IsZero() bool {
	return s == Spacing{}
}
