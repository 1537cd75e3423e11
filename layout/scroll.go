package layout

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// maxScrollPasses bounds re-arrangement while scrollbars appear and the offset settles
const maxScrollPasses = 4

// scroll arranges the children of a scrolling container
// Children are laid out in the viewport shifted by the scroll offset and clipped to it;
// the offset is clamped to [0, virtual-viewport] on each axis
func (r *Resolver) scroll(n *tree.Node, kids []*tree.Node) {
	st := styleOf(n)
	g := n.Geometry
	sc := n.Scroll
	sc.VerticalBar = st.OverflowY == style.OverflowScroll && st.ScrollbarSizeV > 0
	sc.HorizontalBar = st.OverflowX == style.OverflowScroll && st.ScrollbarSizeH > 0

	for pass := 1; ; pass++ {
		viewport := g.Content
		if sc.VerticalBar {
			viewport.W = max(viewport.W-st.ScrollbarSizeV, 0)
		}
		if sc.HorizontalBar {
			viewport.H = max(viewport.H-st.ScrollbarSizeH, 0)
		}

		area := viewport.Translate(sc.Offset.Neg())
		extent := r.arrangeIn(n, kids, area, viewport.Size(), g.Clip.Intersect(viewport))

		virtual := n.Measure(viewport.W)
		if !extent.Empty() {
			virtual.W = max(virtual.W, extent.Right()-area.X)
			virtual.H = max(virtual.H, extent.Bottom()-area.Y)
		}
		sc.Virtual = virtual
		sc.Viewport = viewport.Size()

		needV := wantsBar(st.OverflowY, virtual.H, viewport.H) && st.ScrollbarSizeV > 0
		needH := wantsBar(st.OverflowX, virtual.W, viewport.W) && st.ScrollbarSizeH > 0
		if pass >= maxScrollPasses {
			// bars stop toggling; one more pass settles the offset
			needV, needH = sc.VerticalBar, sc.HorizontalBar
		}
		offset := clampOffset(sc, st)
		if needV == sc.VerticalBar && needH == sc.HorizontalBar && offset == sc.Offset {
			break
		}
		sc.VerticalBar, sc.HorizontalBar, sc.Offset = needV, needH, offset
	}
	n.Scroll = sc
}

func wantsBar(o style.Overflow, virtual, viewport int) bool {
	switch o {
	case style.OverflowScroll:
		return true
	case style.OverflowAuto:
		return virtual > viewport
	}
	return false
}

// clampOffset keeps the offset inside the scrollable range; hidden axes never scroll
func clampOffset(sc tree.ScrollState, st *style.Computed) geom.Offset {
	m := sc.MaxOffset()
	off := geom.Offset{
		X: min(max(sc.Offset.X, 0), m.X),
		Y: min(max(sc.Offset.Y, 0), m.Y),
	}
	if st.OverflowX == style.OverflowHidden {
		off.X = 0
	}
	if st.OverflowY == style.OverflowHidden {
		off.Y = 0
	}
	return off
}
