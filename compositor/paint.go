package compositor

import (
	"fmt"
	"runtime/debug"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/tree"
)

// boxChars contains box drawing character sets indexed by style.BorderType
var boxChars = [...][6]rune{
	style.BorderNone:   {' ', ' ', ' ', ' ', ' ', ' '},
	style.BorderBlank:  {' ', ' ', ' ', ' ', ' ', ' '},
	style.BorderSolid:  {'┌', '─', '┐', '│', '└', '┘'},
	style.BorderDouble: {'╔', '═', '╗', '║', '╚', '╝'},
	style.BorderRound:  {'╭', '─', '╮', '│', '╰', '╯'},
	style.BorderHeavy:  {'┏', '━', '┓', '┃', '┗', '┛'},
	style.BorderASCII:  {'+', '-', '+', '|', '+', '+'},
}

const (
	boxTL = 0 // top-left
	boxH  = 1 // horizontal
	boxTR = 2 // top-right
	boxV  = 3 // vertical
	boxBL = 4 // bottom-left
	boxBR = 5 // bottom-right
)

var (
	placeholderFg = terminal.RGB{R: 0xff, G: 0x55, B: 0x55}
	placeholderBg = terminal.RGB{R: 0x3a, G: 0x00, B: 0x00}
)

var defaultStyle = style.Default()

// paint draws one node: background, border, content, scrollbars
func (c *Compositor) paint(buf *Buffer, n *tree.Node) error {
	st := n.Style
	if st == nil {
		st = defaultStyle
	}
	g := n.Geometry
	buf.claim(g.Clip, n.ID())

	fg := c.color(st.Color, c.base.Fg)
	if st.Background.IsSolid() {
		buf.fill(g.Region, g.Clip, ' ', pen{fg: fg, bg: st.Background.RGB, opaque: true})
	}
	if st.Border.Type != style.BorderNone {
		c.border(buf, n, st, fg)
	}

	size, origin, clip := contentBox(n, st)
	lines, err := c.render(n, st, size)
	if err != nil {
		c.placeholder(buf, n, err)
		return err
	}
	c.content(buf, st, lines, size, origin, clip, fg)

	if st.Scrollable() {
		c.scrollbars(buf, n, st)
	}
	return nil
}

// contentBox returns the size widgets render at, where that content starts, and the
// visible part of it; scrolling content is shifted by the offset and clipped to the viewport
func contentBox(n *tree.Node, st *style.Computed) (geom.Size, geom.Offset, geom.Region) {
	g := n.Geometry
	if !st.Scrollable() {
		return g.Content.Size(), g.Content.Origin(), g.Clip.Intersect(g.Content)
	}
	sc := n.Scroll
	viewport := geom.NewRegion(g.Content.X, g.Content.Y, sc.Viewport.W, sc.Viewport.H)
	size := geom.Size{W: max(sc.Virtual.W, sc.Viewport.W), H: max(sc.Virtual.H, sc.Viewport.H)}
	return size, g.Content.Origin().Add(sc.Offset.Neg()), g.Clip.Intersect(viewport)
}

// render returns the node's lines, reusing the cached render while the node is not
// paint-dirty and its size and style are unchanged; a panic becomes a PaintError
func (c *Compositor) render(n *tree.Node, st *style.Computed, size geom.Size) (lines []strip.Strip, err error) {
	id := n.ID()
	if e, ok := c.cache[id]; ok && n.Dirty()&tree.DirtyPaint == 0 && e.size == size && e.style == st {
		return e.lines, nil
	}

	w := n.Widget()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Printf("compositor: %s %v render panic: %v\n%s", w.TypeName(), id, r, debug.Stack())
			delete(c.cache, id)
			lines = nil
			err = &PaintError{Node: id, Type: w.TypeName(), Err: fmt.Errorf("%v", r), Panic: true}
		}
	}()

	lines, err = w.Render(size, st)
	if err != nil {
		delete(c.cache, id)
		return nil, &PaintError{Node: id, Type: w.TypeName(), Err: err}
	}
	c.cache[id] = &cached{size: size, style: st, lines: lines}
	return lines, nil
}

// content draws lines as a block positioned by content-align
func (c *Compositor) content(buf *Buffer, st *style.Computed, lines []strip.Strip, size geom.Size, origin geom.Offset, clip geom.Region, fg terminal.RGB) {
	if len(lines) == 0 || clip.Empty() {
		return
	}
	blockW := 0
	for _, l := range lines {
		blockW = max(blockW, l.Width())
	}
	dx := alignH(size.W-blockW, st.ContentAlignH)
	dy := alignV(size.H-len(lines), st.ContentAlignV)

	for i, line := range lines {
		y := origin.Y + dy + i
		if y < clip.Y {
			continue
		}
		if y >= clip.Bottom() {
			break
		}
		c.line(buf, line, origin.X+dx, y, clip, fg, st.TextStyle)
	}
}

// line draws one strip starting at (x, y); unset segment colors take fg and the
// existing background
func (c *Compositor) line(buf *Buffer, line strip.Strip, x, y int, clip geom.Region, fg terminal.RGB, attrs terminal.Attr) {
	line.Each(func(cl strip.Cluster) bool {
		cx := x + cl.X
		if cx >= clip.Right() {
			return false
		}
		p := pen{fg: c.color(cl.Seg.Fg, fg), attrs: attrs | cl.Seg.Attrs}
		if cl.Seg.Bg.IsSolid() {
			p.bg, p.opaque = cl.Seg.Bg.RGB, true
		}
		buf.put(cx, y, cl.Rune, cl.Width, p, clip)
		return true
	})
}

// border draws the glyph frame around the border box and the optional title
func (c *Compositor) border(buf *Buffer, n *tree.Node, st *style.Computed, fg terminal.RGB) {
	r := n.Geometry.Region
	clip := n.Geometry.Clip
	if r.W < 2 || r.H < 2 {
		return
	}
	bt := st.Border.Type
	if int(bt) >= len(boxChars) {
		bt = style.BorderSolid
	}
	chars := boxChars[bt]
	p := pen{fg: c.color(st.Border.Color, fg)}

	buf.put(r.X, r.Y, chars[boxTL], 1, p, clip)
	buf.put(r.Right()-1, r.Y, chars[boxTR], 1, p, clip)
	buf.put(r.X, r.Bottom()-1, chars[boxBL], 1, p, clip)
	buf.put(r.Right()-1, r.Bottom()-1, chars[boxBR], 1, p, clip)
	for x := r.X + 1; x < r.Right()-1; x++ {
		buf.put(x, r.Y, chars[boxH], 1, p, clip)
		buf.put(x, r.Bottom()-1, chars[boxH], 1, p, clip)
	}
	for y := r.Y + 1; y < r.Bottom()-1; y++ {
		buf.put(r.X, y, chars[boxV], 1, p, clip)
		buf.put(r.Right()-1, y, chars[boxV], 1, p, clip)
	}

	tw, ok := n.Widget().(Titled)
	if !ok || r.W < 5 {
		return
	}
	title := tw.BorderTitle()
	if title == "" {
		return
	}
	s := strip.Plain(" " + title + " ").Crop(0, r.W-2)
	x := r.X + 1 + alignH(r.W-2-s.Width(), st.BorderTitleAlign)
	c.line(buf, s, x, r.Y, clip.Intersect(geom.NewRegion(r.X+1, r.Y, r.W-2, 1)), p.fg, st.TextStyle)
}

// scrollbars draws the track and thumb of each visible bar
func (c *Compositor) scrollbars(buf *Buffer, n *tree.Node, st *style.Computed) {
	g := n.Geometry
	sc := n.Scroll
	track := pen{fg: c.base.Fg, bg: c.color(st.ScrollbarBackground, c.base.Bg), opaque: true}
	thumbPen := pen{fg: c.base.Fg, bg: c.color(st.ScrollbarColor, c.base.Fg), opaque: true}

	if sc.VerticalBar {
		bar := geom.NewRegion(g.Content.X+sc.Viewport.W, g.Content.Y, st.ScrollbarSizeV, sc.Viewport.H)
		start, length := thumb(bar.H, sc.Viewport.H, sc.Virtual.H, sc.Offset.Y)
		for y := 0; y < bar.H; y++ {
			p := track
			if y >= start && y < start+length {
				p = thumbPen
			}
			buf.fill(geom.NewRegion(bar.X, bar.Y+y, bar.W, 1), g.Clip, ' ', p)
		}
	}
	if sc.HorizontalBar {
		bar := geom.NewRegion(g.Content.X, g.Content.Y+sc.Viewport.H, sc.Viewport.W, st.ScrollbarSizeH)
		start, length := thumb(bar.W, sc.Viewport.W, sc.Virtual.W, sc.Offset.X)
		for x := 0; x < bar.W; x++ {
			p := track
			if x >= start && x < start+length {
				p = thumbPen
			}
			buf.fill(geom.NewRegion(bar.X+x, bar.Y, 1, bar.H), g.Clip, ' ', p)
		}
	}
}

// thumb returns the position and length of a scrollbar thumb on a track of length track
func thumb(track, visible, total, offset int) (start, length int) {
	if track <= 0 {
		return 0, 0
	}
	if total <= visible {
		return 0, track
	}
	length = min(max(visible*track/total, 1), track)
	start = offset * (track - length) / (total - visible)
	return min(max(start, 0), track-length), length
}

// placeholder replaces a failed widget's region with a hatched fill and the error
func (c *Compositor) placeholder(buf *Buffer, n *tree.Node, err error) {
	g := n.Geometry
	p := pen{fg: placeholderFg, bg: placeholderBg, opaque: true}
	buf.fill(g.Region, g.Clip, '╱', p)

	msg := strip.Plain(" " + err.Error() + " ").Crop(0, g.Region.W)
	y := g.Region.Y + g.Region.H/2
	c.line(buf, msg, g.Region.X, y, g.Clip, placeholderFg, terminal.AttrBold)
}

// color returns the RGB of a solid color, fallback otherwise
func (c *Compositor) color(col style.Color, fallback terminal.RGB) terminal.RGB {
	if col.IsSolid() {
		return col.RGB
	}
	return fallback
}

func alignH(free int, a style.HAlign) int {
	if free <= 0 {
		return 0
	}
	switch a {
	case style.AlignCenter:
		return free / 2
	case style.AlignRight:
		return free
	}
	return 0
}

func alignV(free int, a style.VAlign) int {
	if free <= 0 {
		return 0
	}
	switch a {
	case style.AlignMiddle:
		return free / 2
	case style.AlignBottom:
		return free
	}
	return 0
}
