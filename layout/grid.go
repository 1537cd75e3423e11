package layout

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// maxGridTracks bounds columns, rows and spans; larger values are clamped
const maxGridTracks = 256

// cell is a child's placement in grid tracks, 0-based
type cell struct {
	col, row   int
	cols, rows int
}

// occupancy tracks filled grid cells; rows grow on demand
type occupancy struct {
	cols  int
	taken map[[2]int]bool
}

func (o *occupancy) fits(c cell) bool {
	if c.col < 0 || c.col+c.cols > o.cols {
		return false
	}
	for y := c.row; y < c.row+c.rows; y++ {
		for x := c.col; x < c.col+c.cols; x++ {
			if o.taken[[2]int{x, y}] {
				return false
			}
		}
	}
	return true
}

func (o *occupancy) take(c cell) {
	for y := c.row; y < c.row+c.rows; y++ {
		for x := c.col; x < c.col+c.cols; x++ {
			o.taken[[2]int{x, y}] = true
		}
	}
}

// find returns the first free position in row-major order honoring a fixed column or
// row; negative means free. A fully fixed cell is returned even when it overlaps
func (o *occupancy) find(cols, rows, fixedCol, fixedRow int) cell {
	if fixedCol >= 0 && fixedRow >= 0 {
		return cell{col: fixedCol, row: fixedRow, cols: cols, rows: rows}
	}
	for i := 0; ; i++ {
		c := cell{col: i % o.cols, row: i / o.cols, cols: cols, rows: rows}
		if fixedCol >= 0 {
			c.col, c.row = fixedCol, i
		}
		if fixedRow >= 0 && c.row != fixedRow {
			if c.row > fixedRow {
				// row full
				return cell{col: 0, row: fixedRow, cols: cols, rows: rows}
			}
			continue
		}
		if o.fits(c) {
			return c
		}
	}
}

// place assigns grid cells: explicitly positioned children first, then the rest in
// declaration order filling the first free cells
func (o *occupancy) place(kids []*tree.Node) []cell {
	cells := make([]cell, len(kids))
	done := make([]bool, len(kids))
	for pass := 0; pass < 2; pass++ {
		for i, k := range kids {
			st := styleOf(k)
			explicit := st.GridColumn > 0 || st.GridRow > 0
			if done[i] || explicit != (pass == 0) {
				continue
			}
			cols := min(max(st.ColumnSpan, 1), o.cols)
			rows := min(max(st.RowSpan, 1), maxGridTracks)
			fixedCol := min(st.GridColumn-1, o.cols-cols)
			if st.GridColumn == 0 {
				fixedCol = -1
			}
			fixedRow := min(st.GridRow-1, maxGridTracks-rows)
			if st.GridRow == 0 {
				fixedRow = -1
			}
			c := o.find(cols, rows, fixedCol, fixedRow)
			o.take(c)
			cells[i] = c
			done[i] = true
		}
	}
	return cells
}

// grid arranges kids in columns of grid-size, tracks sized by grid-columns and grid-rows
func (r *Resolver) grid(parent *tree.Node, kids []*tree.Node, area geom.Region, container geom.Size, clip geom.Region, layer int) geom.Region {
	pst := styleOf(parent)
	occ := &occupancy{cols: min(max(pst.GridColumnsCount, 1), maxGridTracks), taken: make(map[[2]int]bool)}
	cells := occ.place(kids)

	rows := min(pst.GridRowsCount, maxGridTracks)
	for _, c := range cells {
		rows = max(rows, c.row+c.rows)
	}
	// Auto placement past the cap lands in zero-height rows at the end
	rows = min(rows, maxGridTracks)

	colW := r.tracks(parent, pst.GridColumns, occ.cols, area.W, pst.GridGutterH, container, true, func(i int) int {
		w := 0
		for j, c := range cells {
			if c.col == i && c.cols == 1 {
				w = max(w, r.natural(kids[j], area.W, container).W+styleOf(kids[j]).Margin.Width())
			}
		}
		return w
	})

	rowTemplate := pst.GridRows
	if len(rowTemplate) == 0 && pst.GridRowsCount == 0 {
		rowTemplate = []style.Scalar{style.Auto}
	}
	rowH := r.tracks(parent, rowTemplate, rows, area.H, pst.GridGutterV, container, false, func(i int) int {
		h := 0
		for j, c := range cells {
			if c.row == i && c.rows == 1 {
				w := span(colW, c.col, c.cols, pst.GridGutterH) - styleOf(kids[j]).Margin.Width()
				h = max(h, r.natural(kids[j], w, container).H+styleOf(kids[j]).Margin.Height())
			}
		}
		return h
	})

	var extent geom.Region
	for j, k := range kids {
		c := cells[j]
		outer := geom.NewRegion(
			area.X+trackStart(colW, c.col, pst.GridGutterH),
			area.Y+trackStart(rowH, c.row, pst.GridGutterV),
			span(colW, c.col, c.cols, pst.GridGutterH),
			span(rowH, c.row, c.rows, pst.GridGutterV),
		)
		st := styleOf(k)
		inner := outer.Shrink(st.Margin)
		w := r.width(k, inner.W, inner.Size(), true)
		h := r.height(k, w, inner.H, inner.Size(), true)
		box := geom.NewRegion(inner.X, inner.Y, min(w, inner.W), min(h, inner.H))
		r.place(k, box, clip, layer)
		extent = extent.Union(outer)
	}
	return extent
}

// tracks sizes count grid tracks from a cycled template; an empty template means 1fr
// natural reports the content size of track i for auto tracks
func (r *Resolver) tracks(parent *tree.Node, template []style.Scalar, count, avail, gutter int, container geom.Size, horizontal bool, natural func(i int) int) []int {
	sizes := make([]int, count)
	if count == 0 {
		return sizes
	}
	var shares []share
	var frIdx []int
	used := gutter * (count - 1)
	for i := range sizes {
		s := style.Fraction(1)
		if len(template) > 0 {
			s = template[i%len(template)]
		}
		switch {
		case s.IsFraction():
			shares = append(shares, share{weight: s.FractionMilli(), max: -1})
			frIdx = append(frIdx, i)
			continue
		case s.IsFixed():
			sizes[i] = s.Resolve(container, r.screen, horizontal)
		default:
			sizes[i] = natural(i)
		}
		used += sizes[i]
	}

	pool := avail - used
	if pool < 0 && len(shares) > 0 {
		axis := "height"
		if horizontal {
			axis = "width"
		}
		r.constraint(parent, axis, used, avail)
	}
	for j, size := range distribute(pool, shares) {
		sizes[frIdx[j]] = size
	}
	return sizes
}

// span returns the extent of n tracks from first, including the gutters between them
func span(sizes []int, first, n, gutter int) int {
	total := 0
	for i := first; i < first+n && i < len(sizes); i++ {
		total += sizes[i]
	}
	if n > 1 {
		total += gutter * (n - 1)
	}
	return total
}

// trackStart returns the offset of track index from the first track
func trackStart(sizes []int, index, gutter int) int {
	return span(sizes, 0, index, gutter) + min(index, 1)*gutter
}
