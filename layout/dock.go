package layout

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// dock cuts the outer box of n from an edge of rest
// remaining is rest shrunk by exactly the docked outer size, clamped to what rest had
func (r *Resolver) dock(n *tree.Node, rest geom.Region, container geom.Size, clip geom.Region, layer int) (outer, remaining geom.Region) {
	st := styleOf(n)
	m := st.Margin

	var w, h int
	switch st.Dock {
	case style.DockTop, style.DockBottom:
		w = r.width(n, rest.W-m.Width(), container, true)
		h = r.height(n, w, rest.H-m.Height(), container, false)
		if need := h + m.Height(); need > rest.H {
			r.constraint(n, "height", need, rest.H)
		}
		if st.Dock == style.DockTop {
			outer, remaining = rest.SplitTop(h + m.Height())
		} else {
			outer, remaining = rest.SplitBottom(h + m.Height())
		}
	default:
		w = r.width(n, rest.W-m.Width(), container, false)
		h = r.height(n, w, rest.H-m.Height(), container, true)
		if need := w + m.Width(); need > rest.W {
			r.constraint(n, "width", need, rest.W)
		}
		if st.Dock == style.DockLeft {
			outer, remaining = rest.SplitLeft(w + m.Width())
		} else {
			outer, remaining = rest.SplitRight(w + m.Width())
		}
	}

	inner := outer.Shrink(m)
	box := geom.NewRegion(inner.X, inner.Y, min(w, inner.W), min(h, inner.H))
	r.place(n, box, clip, layer)
	return outer, remaining
}
