package compositor

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/tree"
)

// Buffer is a frame of cells with the node that painted each one
// A composed buffer is never written again, so frames can be handed to the presenter
type Buffer struct {
	cells  []terminal.Cell
	owners []tree.NodeID
	width  int
	height int
}

// NewBuffer creates a buffer filled with base
func NewBuffer(width, height int, base terminal.Cell) *Buffer {
	width, height = max(width, 0), max(height, 0)
	b := &Buffer{
		cells:  make([]terminal.Cell, width*height),
		owners: make([]tree.NodeID, width*height),
		width:  width,
		height: height,
	}
	b.Clear(base)
	return b
}

// Size returns the buffer dimensions
func (b *Buffer) Size() geom.Size {
	return geom.Size{W: b.width, H: b.height}
}

// Clear resets all cells to base and drops ownership using exponential copy
func (b *Buffer) Clear(base terminal.Cell) {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = base
	b.owners[0] = tree.NodeID{}
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
		copy(b.owners[filled:], b.owners[:filled])
	}
}

// inBounds returns true if in buffer bounds
func (b *Buffer) inBounds(x, y int) bool {
	return x >= 0 && x < b.width && y >= 0 && y < b.height
}

// Cell returns the cell at (x, y), zero outside the buffer
func (b *Buffer) Cell(x, y int) terminal.Cell {
	if !b.inBounds(x, y) {
		return terminal.Cell{}
	}
	return b.cells[y*b.width+x]
}

// Owner returns the node that last painted (x, y)
func (b *Buffer) Owner(x, y int) tree.NodeID {
	if !b.inBounds(x, y) {
		return tree.NodeID{}
	}
	return b.owners[y*b.width+x]
}

// Row returns row y without copying
func (b *Buffer) Row(y int) []terminal.Cell {
	if y < 0 || y >= b.height {
		return nil
	}
	return b.cells[y*b.width : (y+1)*b.width]
}

// String returns the runes of the buffer, one line per row; wide tails are omitted
func (b *Buffer) String() string {
	out := make([]rune, 0, (b.width+1)*b.height)
	for y := 0; y < b.height; y++ {
		for _, c := range b.Row(y) {
			switch {
			case c.Attrs&terminal.AttrWideTail != 0:
			case c.Rune == 0:
				out = append(out, ' ')
			default:
				out = append(out, c.Rune)
			}
		}
		out = append(out, '\n')
	}
	return string(out)
}

// Set writes a single-width cell, breaking any wide glyph it overlaps
func (b *Buffer) Set(x, y int, c terminal.Cell) {
	if !b.inBounds(x, y) {
		return
	}
	b.breakWide(x, y)
	c.Attrs &^= terminal.AttrWideTail
	b.cells[y*b.width+x] = c
}

// pen is the style a glyph is written with
type pen struct {
	fg     terminal.RGB
	bg     terminal.RGB
	opaque bool // bg replaces the existing background
	attrs  terminal.Attr
}

// put writes a glyph of width w at (x, y) when inside clip
// A wide glyph whose right half falls outside clip is written as a space
func (b *Buffer) put(x, y int, r rune, w int, p pen, clip geom.Region) {
	if w <= 0 || !clip.Contains(x, y) || !b.inBounds(x, y) {
		return
	}
	if w == 2 && (!clip.Contains(x+1, y) || !b.inBounds(x+1, y)) {
		r, w = ' ', 1
	}
	b.breakWide(x, y)
	if w == 2 {
		b.breakWide(x+1, y)
	}

	i := y*b.width + x
	c := &b.cells[i]
	c.Rune = r
	c.Fg = p.fg
	c.Attrs = p.attrs &^ terminal.AttrWideTail
	if p.opaque {
		c.Bg = p.bg
	}
	if w == 2 {
		tail := &b.cells[i+1]
		tail.Rune = 0
		tail.Fg = p.fg
		tail.Bg = c.Bg
		tail.Attrs = c.Attrs | terminal.AttrWideTail
	}
}

// breakWide turns the other half of a wide glyph overlapping (x, y) into a space
func (b *Buffer) breakWide(x, y int) {
	i := y*b.width + x
	switch {
	case b.cells[i].Attrs&terminal.AttrWideTail != 0:
		b.cells[i].Attrs &^= terminal.AttrWideTail
		b.cells[i].Rune = ' '
		if x > 0 {
			b.cells[i-1].Rune = ' '
		}
	case x+1 < b.width && b.cells[i+1].Attrs&terminal.AttrWideTail != 0:
		b.cells[i+1].Attrs &^= terminal.AttrWideTail
		b.cells[i+1].Rune = ' '
	}
}

// fill writes r over every cell of region inside clip
func (b *Buffer) fill(region, clip geom.Region, r rune, p pen) {
	area := region.Intersect(clip)
	for y := area.Y; y < area.Bottom(); y++ {
		for x := area.X; x < area.Right(); x++ {
			b.put(x, y, r, 1, p, clip)
		}
	}
}

// claim records id as the owner of region for hit testing
func (b *Buffer) claim(region geom.Region, id tree.NodeID) {
	area := region.Intersect(geom.NewRegion(0, 0, b.width, b.height))
	for y := area.Y; y < area.Bottom(); y++ {
		row := b.owners[y*b.width : (y+1)*b.width]
		for x := area.X; x < area.Right(); x++ {
			row[x] = id
		}
	}
}
