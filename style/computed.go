package style

import (
	"reflect"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/terminal"
)

// Border is a line style and color shared by all four edges
type Border struct {
	Type  BorderType
	Color Color
}

// Width returns the cells one edge occupies
func (b Border) Width() int {
	if b.Type == BorderNone {
		return 0
	}
	return 1
}

// Spacing returns the border thickness as per-edge spacing
func (b Border) Spacing() geom.Spacing {
	return geom.Uniform(b.Width())
}

// Computed is the resolved style of one node
// Values are final except scalars, which layout resolves against the container
type Computed struct {
	Layout     Layout
	Dock       Dock
	Position   Position
	OffsetX    Scalar
	OffsetY    Scalar
	Layer      string
	Layers     []string
	Display    Display
	Visibility Visibility

	Width     Scalar
	Height    Scalar
	MinWidth  Scalar
	MaxWidth  Scalar
	MinHeight Scalar
	MaxHeight Scalar

	Margin  geom.Spacing
	Padding geom.Spacing

	Border           Border
	BorderTitleAlign HAlign

	Color      Color
	Background Color
	TextStyle  terminal.Attr
	TextAlign  HAlign

	ContentAlignH HAlign
	ContentAlignV VAlign
	AlignH        HAlign
	AlignV        VAlign

	OverflowX Overflow
	OverflowY Overflow

	ScrollbarSizeH      int // height of the horizontal bar
	ScrollbarSizeV      int // width of the vertical bar
	ScrollbarColor      Color
	ScrollbarBackground Color

	GridColumnsCount int // grid-size columns
	GridRowsCount    int // grid-size rows, 0 grows with content
	GridColumns      []Scalar
	GridRows         []Scalar
	GridGutterH      int // between columns
	GridGutterV      int // between rows
	ColumnSpan       int
	RowSpan          int
	GridColumn       int // explicit 1-based column, 0 auto-placed
	GridRow          int // explicit 1-based row, 0 auto-placed
}

// Default returns the built-in value of every property
func Default() *Computed {
	return &Computed{
		Background:          Transparent,
		ScrollbarSizeH:      1,
		ScrollbarSizeV:      1,
		ScrollbarColor:      Solid(0x80, 0x80, 0x80),
		ScrollbarBackground: Solid(0x30, 0x30, 0x30),
		GridColumnsCount:    1,
		ColumnSpan:          1,
		RowSpan:             1,
	}
}

// inherit copies the inherited properties from parent
func (c *Computed) inherit(parent *Computed) {
	if parent == nil {
		return
	}
	c.Color = parent.Color
	c.TextStyle = parent.TextStyle
	c.TextAlign = parent.TextAlign
	c.Visibility = parent.Visibility
}

// Displayed reports whether the node takes part in layout
func (c *Computed) Displayed() bool {
	return c.Display != DisplayNone
}

// Scrollable reports whether either axis scrolls
func (c *Computed) Scrollable() bool {
	return c.OverflowX != OverflowHidden || c.OverflowY != OverflowHidden
}

// Gutter returns margin + border + padding per edge
func (c *Computed) Gutter() geom.Spacing {
	return c.Margin.Add(c.Border.Spacing()).Add(c.Padding)
}

// Equal reports whether two computed styles would lay out and paint identically
func (c *Computed) Equal(o *Computed) bool {
	if c == nil || o == nil {
		return c == o
	}
	return reflect.DeepEqual(c, o)
}

// LayoutEqual reports whether only paint-affecting properties differ
func (c *Computed) LayoutEqual(o *Computed) bool {
	if c == nil || o == nil {
		return c == o
	}
	a, b := *c, *o
	for _, s := range []*Computed{&a, &b} {
		s.Color, s.Background, s.TextStyle, s.TextAlign = Color{}, Color{}, 0, 0
		s.ContentAlignH, s.ContentAlignV = 0, 0
		s.Border.Color = Color{}
		s.BorderTitleAlign = 0
		s.ScrollbarColor, s.ScrollbarBackground = Color{}, Color{}
		s.Visibility = 0
	}
	return a.Equal(&b)
}
