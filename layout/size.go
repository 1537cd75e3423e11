package layout

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// width resolves the border-box width of n given avail cells
// fill selects the behavior of unset and fr widths: fill avail, or fall back to natural
func (r *Resolver) width(n *tree.Node, avail int, container geom.Size, fill bool) int {
	st := styleOf(n)
	avail = max(avail, 0)
	var w int
	switch s := st.Width; {
	case s.IsFixed():
		w = s.Resolve(container, r.screen, true)
	case fill && (!s.IsSet() || s.IsFraction()):
		w = avail
	default:
		w = r.natural(n, avail, container).W
	}
	return r.clamp(w, st.MinWidth, st.MaxWidth, container, true)
}

// height resolves the border-box height of n once its width is known
func (r *Resolver) height(n *tree.Node, width, avail int, container geom.Size, fill bool) int {
	st := styleOf(n)
	avail = max(avail, 0)
	var h int
	switch s := st.Height; {
	case s.IsFixed():
		h = s.Resolve(container, r.screen, false)
	case fill && (!s.IsSet() || s.IsFraction()):
		h = avail
	default:
		h = r.natural(n, width, container).H
	}
	return r.clamp(h, st.MinHeight, st.MaxHeight, container, false)
}

// clamp applies min and max; min wins when they conflict
func (r *Resolver) clamp(v int, lo, hi style.Scalar, container geom.Size, horizontal bool) int {
	if hi.IsFixed() {
		v = min(v, hi.Resolve(container, r.screen, horizontal))
	}
	if lo.IsFixed() {
		v = max(v, lo.Resolve(container, r.screen, horizontal))
	}
	return max(v, 0)
}

// limits resolves min and max along one axis for fr distribution; max < 0 is unbounded
func (r *Resolver) limits(lo, hi style.Scalar, container geom.Size, horizontal bool) (int, int) {
	minV, maxV := 0, -1
	if lo.IsFixed() {
		minV = lo.Resolve(container, r.screen, horizontal)
	}
	if hi.IsFixed() {
		maxV = hi.Resolve(container, r.screen, horizontal)
	}
	return minV, maxV
}

// natural returns the border-box size n wants when no wider than maxWidth
// Containers measure their children provisionally under the same constraint
func (r *Resolver) natural(n *tree.Node, maxWidth int, container geom.Size) geom.Size {
	st := styleOf(n)
	if n.State() < tree.StateMeasured {
		n.SetState(tree.StateMeasured)
	}

	box := st.Border.Spacing().Add(st.Padding)
	fixedW := st.Width.IsFixed()
	if fixedW {
		maxWidth = r.clamp(st.Width.Resolve(container, r.screen, true), st.MinWidth, st.MaxWidth, container, true)
	}
	inner := max(maxWidth-box.Width(), 0)

	content := n.Measure(inner)
	if kids := r.children(n); len(kids) > 0 {
		c := r.naturalChildren(n, kids, geom.Size{W: inner, H: container.H})
		content.W = max(content.W, c.W)
		content.H = max(content.H, c.H)
	}

	size := geom.Size{W: content.W + box.Width(), H: content.H + box.Height()}
	if fixedW {
		size.W = maxWidth
	} else {
		size.W = r.clamp(size.W, st.MinWidth, st.MaxWidth, container, true)
	}
	if st.Height.IsFixed() {
		size.H = st.Height.Resolve(container, r.screen, false)
	}
	size.H = r.clamp(size.H, st.MinHeight, st.MaxHeight, container, false)
	return size
}

// naturalChildren sums the outer natural sizes of kids the way parent arranges them
func (r *Resolver) naturalChildren(parent *tree.Node, kids []*tree.Node, container geom.Size) geom.Size {
	pst := styleOf(parent)
	var flow, stacked, side geom.Size
	var cells []geom.Size
	for _, k := range kids {
		st := styleOf(k)
		if st.Position == style.PositionAbsolute {
			continue
		}
		m := st.Margin
		s := r.natural(k, max(container.W-m.Width(), 0), container)
		s.W += m.Width()
		s.H += m.Height()

		switch {
		case st.Dock == style.DockTop || st.Dock == style.DockBottom:
			stacked.W = max(stacked.W, s.W)
			stacked.H += s.H
		case st.Dock == style.DockLeft || st.Dock == style.DockRight:
			side.W += s.W
			side.H = max(side.H, s.H)
		case pst.Layout == style.LayoutGrid:
			cells = append(cells, s)
		case pst.Layout == style.LayoutHorizontal:
			flow.W += s.W
			flow.H = max(flow.H, s.H)
		default:
			flow.W = max(flow.W, s.W)
			flow.H += s.H
		}
	}
	if len(cells) > 0 {
		flow = gridNatural(pst, cells)
	}
	return geom.Size{
		W: max(stacked.W, side.W+flow.W),
		H: stacked.H + max(side.H, flow.H),
	}
}

// gridNatural sizes a grid whose columns share the widest cell and whose rows fit their tallest
func gridNatural(st *style.Computed, cells []geom.Size) geom.Size {
	cols := min(max(st.GridColumnsCount, 1), maxGridTracks)
	rows := (len(cells) + cols - 1) / cols
	colW := 0
	rowH := make([]int, rows)
	for i, c := range cells {
		colW = max(colW, c.W)
		rowH[i/cols] = max(rowH[i/cols], c.H)
	}
	h := st.GridGutterV * (rows - 1)
	for _, rh := range rowH {
		h += rh
	}
	return geom.Size{W: cols*colW + st.GridGutterH*(cols-1), H: h}
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
