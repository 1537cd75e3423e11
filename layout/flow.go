package layout

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// flowItem is a child being stacked along the main axis
type flowItem struct {
	node  *tree.Node
	st    *style.Computed
	main  int // border-box size along the main axis
	cross int
	fr    bool
}

// flow stacks kids top to bottom, or left to right when horizontal
// Fixed and natural sizes are taken first; fr children share what is left
func (r *Resolver) flow(parent *tree.Node, kids []*tree.Node, area geom.Region, container geom.Size, clip geom.Region, layer int, horizontal bool) geom.Region {
	pst := styleOf(parent)
	mainAvail, crossAvail := area.H, area.W
	if horizontal {
		mainAvail, crossAvail = area.W, area.H
	}

	items := make([]flowItem, len(kids))
	var shares []share
	var frIdx []int
	used := 0
	for i, k := range kids {
		st := styleOf(k)
		mMain, mCross := st.Margin.Height(), st.Margin.Width()
		if horizontal {
			mMain, mCross = mCross, mMain
		}
		it := flowItem{node: k, st: st}

		if horizontal {
			if st.Width.IsFraction() {
				lo, hi := r.limits(st.MinWidth, st.MaxWidth, container, true)
				shares = append(shares, share{weight: st.Width.FractionMilli(), min: lo, max: hi})
				frIdx = append(frIdx, i)
				it.fr = true
			} else {
				it.main = r.width(k, mainAvail-mMain, container, false)
			}
		} else {
			it.cross = r.width(k, crossAvail-mCross, container, true)
			if st.Height.IsFraction() {
				lo, hi := r.limits(st.MinHeight, st.MaxHeight, container, false)
				shares = append(shares, share{weight: st.Height.FractionMilli(), min: lo, max: hi})
				frIdx = append(frIdx, i)
				it.fr = true
			} else {
				it.main = r.height(k, it.cross, mainAvail-mMain, container, false)
			}
		}

		used += mMain
		if !it.fr {
			used += it.main
		}
		items[i] = it
	}

	pool := mainAvail - used
	if pool < 0 && len(shares) > 0 {
		axis := "height"
		if horizontal {
			axis = "width"
		}
		r.constraint(parent, axis, used, mainAvail)
		pool = 0
	}
	for j, size := range distribute(pool, shares) {
		items[frIdx[j]].main = size
	}

	if horizontal {
		for i := range items {
			it := &items[i]
			it.cross = r.height(it.node, it.main, crossAvail-it.st.Margin.Height(), container, true)
		}
	}

	total := 0
	for _, it := range items {
		if horizontal {
			total += it.main + it.st.Margin.Width()
		} else {
			total += it.main + it.st.Margin.Height()
		}
	}

	var extent geom.Region
	if horizontal {
		x := area.X + alignH(mainAvail-total, pst.AlignH)
		for _, it := range items {
			m := it.st.Margin
			y := area.Y + m.Top + alignV(crossAvail-m.Height()-it.cross, pst.AlignV)
			box := geom.NewRegion(x+m.Left, y, it.main, it.cross)
			r.place(it.node, box, clip, layer)
			extent = extent.Union(box.Grow(m))
			x += it.main + m.Width()
		}
		return extent
	}

	y := area.Y + alignV(mainAvail-total, pst.AlignV)
	for _, it := range items {
		m := it.st.Margin
		x := area.X + m.Left + alignH(crossAvail-m.Width()-it.cross, pst.AlignH)
		box := geom.NewRegion(x, y+m.Top, it.cross, it.main)
		r.place(it.node, box, clip, layer)
		extent = extent.Union(box.Grow(m))
		y += it.main + m.Height()
	}
	return extent
}
