package layout

import (
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// ConstraintError reports space requests the container could not satisfy
// Layout continues with the shortfall clamped to zero
type ConstraintError struct {
	Node tree.NodeID
	Axis string // "width" or "height"
	Need int
	Have int
}

func (e *ConstraintError) Error() string {
	return fmt.Sprintf("layout: %v children need %d cells of %s, %d available", e.Node, e.Need, e.Axis, e.Have)
}

// Stats reports what one Resolve call did
type Stats struct {
	Full     bool    // arranged from the root
	Roots    int     // subtrees arranged
	Arranged int     // nodes placed
	Errors   []error // constraint violations, already logged
}

// Resolver assigns geometry to the nodes of a tree
// One resolver serves one tree; it keeps the last screen size to detect resizes
type Resolver struct {
	logger *log.Logger
	screen geom.Size

	t     *tree.Tree
	stats Stats
}

// New creates a resolver logging constraint violations to logger, nil discards
func New(logger *log.Logger) *Resolver {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Resolver{logger: logger}
}

var defaultStyle = style.Default()

func styleOf(n *tree.Node) *style.Computed {
	if n.Style == nil {
		return defaultStyle
	}
	return n.Style
}

// Resolve assigns geometry to every displayed node
// A changed screen size or a layout-dirty root arranges the whole tree; otherwise only the
// subtrees under the nearest layout boundary of each dirty node are arranged again
func (r *Resolver) Resolve(t *tree.Tree, screen geom.Size) Stats {
	r.t = t
	r.stats = Stats{}
	defer func() { r.t = nil }()

	screen = screen.Clamp()
	root := t.MustGet(t.Root())
	if screen != r.screen || root.Dirty()&tree.DirtyLayout != 0 {
		r.screen = screen
		r.full(root)
		return r.stats
	}

	roots, full := r.boundaries()
	if full {
		r.full(root)
		return r.stats
	}
	for _, b := range roots {
		r.stats.Roots++
		r.arrangeChildren(b)
	}
	return r.stats
}

// Measure returns the natural outer size of id laid out no wider than maxWidth
func (r *Resolver) Measure(t *tree.Tree, id tree.NodeID, maxWidth int) geom.Size {
	n, ok := t.Get(id)
	if !ok {
		return geom.Size{}
	}
	r.t = t
	defer func() { r.t = nil }()

	m := styleOf(n).Margin
	s := r.natural(n, max(maxWidth-m.Width(), 0), r.screen)
	return geom.Size{W: s.W + m.Width(), H: s.H + m.Height()}
}

func (r *Resolver) full(root *tree.Node) {
	r.stats.Full = true
	r.stats.Roots = 1
	screen := geom.FromSize(r.screen)
	r.place(root, screen.Shrink(styleOf(root).Margin), screen, 0)
}

// boundaries collects the subtrees a partial pass must arrange
// full is set when some dirty node has no boundary below the root
func (r *Resolver) boundaries() (roots []*tree.Node, full bool) {
	var dirty []*tree.Node
	r.t.Walk(func(n *tree.Node) bool {
		if n.Dirty()&tree.DirtyLayout != 0 || n.State() < tree.StateArranged {
			dirty = append(dirty, n)
			return false
		}
		return true
	})

	seen := make(map[tree.NodeID]bool)
	for _, n := range dirty {
		b := r.boundary(n)
		if b == nil {
			return nil, true
		}
		if !seen[b.ID()] {
			seen[b.ID()] = true
			roots = append(roots, b)
		}
	}
	// Nested boundaries are covered by their outermost one
	roots = slices.DeleteFunc(roots, func(b *tree.Node) bool {
		for _, a := range r.t.Ancestors(b.ID()) {
			if seen[a] {
				return true
			}
		}
		return false
	})
	return roots, false
}

// boundary returns the nearest node at or above n whose box does not depend on its content
// Changes to a node's own box arrive with its parent marked, so n itself qualifies
func (r *Resolver) boundary(n *tree.Node) *tree.Node {
	for {
		if n.ID() == r.t.Root() {
			return nil
		}
		st := styleOf(n)
		if n.Displayed() && st.Width.IsFixed() && st.Height.IsFixed() {
			return n
		}
		p, ok := r.t.Get(n.Parent())
		if !ok {
			return nil
		}
		n = p
	}
}

// place assigns the border box of n and arranges its children
func (r *Resolver) place(n *tree.Node, box, clip geom.Region, layer int) {
	st := styleOf(n)
	g := &n.Geometry
	g.Region = box
	g.Content = box.Shrink(st.Border.Spacing().Add(st.Padding))
	g.Clip = clip.Intersect(box)
	g.Layer = layer
	g.Visible = st.Visibility == style.Visible && !g.Clip.Empty()

	n.SetState(tree.StateArranged)
	n.ClearDirty(tree.DirtyLayout)
	r.stats.Arranged++
	r.arrangeChildren(n)
}

// hide clears the geometry of an undisplayed subtree
func (r *Resolver) hide(n *tree.Node) {
	r.t.WalkFrom(n.ID(), func(d *tree.Node) bool {
		d.Geometry = tree.Geometry{}
		d.SetState(tree.StateArranged)
		d.ClearDirty(tree.DirtyLayout)
		return true
	})
}

// children returns the displayed children of n in document order
func (r *Resolver) children(n *tree.Node) []*tree.Node {
	ids := n.Children()
	out := make([]*tree.Node, 0, len(ids))
	for _, id := range ids {
		if k, ok := r.t.Get(id); ok && k.Displayed() {
			out = append(out, k)
		}
	}
	return out
}

func (r *Resolver) arrangeChildren(n *tree.Node) {
	for _, id := range n.Children() {
		if k, ok := r.t.Get(id); ok && !k.Displayed() {
			r.hide(k)
		}
	}
	kids := r.children(n)

	st := styleOf(n)
	if st.Scrollable() {
		r.scroll(n, kids)
		return
	}
	n.Scroll = tree.ScrollState{}
	g := n.Geometry
	r.arrangeIn(n, kids, g.Content, g.Content.Size(), g.Clip.Intersect(g.Content))
}

type group struct {
	name  string
	layer int
	kids  []*tree.Node
}

// arrangeIn lays out kids inside area, one independent arrangement per layer
// Returns the bounding box of the in-flow outer boxes
func (r *Resolver) arrangeIn(parent *tree.Node, kids []*tree.Node, area geom.Region, container geom.Size, clip geom.Region) geom.Region {
	var groups []group
	for _, k := range kids {
		name := styleOf(k).Layer
		i := slices.IndexFunc(groups, func(g group) bool { return g.name == name })
		if i < 0 {
			groups = append(groups, group{name: name, layer: r.layerIndex(parent, name)})
			i = len(groups) - 1
		}
		groups[i].kids = append(groups[i].kids, k)
	}

	var extent geom.Region
	for _, g := range groups {
		extent = extent.Union(r.arrangeGroup(parent, g.kids, area, container, clip, g.layer))
	}
	return extent
}

func (r *Resolver) arrangeGroup(parent *tree.Node, kids []*tree.Node, area geom.Region, container geom.Size, clip geom.Region, layer int) geom.Region {
	var extent geom.Region
	var flow, abs []*tree.Node
	rest := area
	for _, k := range kids {
		st := styleOf(k)
		switch {
		case st.Position == style.PositionAbsolute:
			abs = append(abs, k)
		case st.Dock != style.DockNone:
			var outer geom.Region
			outer, rest = r.dock(k, rest, container, clip, layer)
			extent = extent.Union(outer)
		default:
			flow = append(flow, k)
		}
	}

	if len(flow) > 0 {
		switch styleOf(parent).Layout {
		case style.LayoutHorizontal:
			extent = extent.Union(r.flow(parent, flow, rest, container, clip, layer, true))
		case style.LayoutGrid:
			extent = extent.Union(r.grid(parent, flow, rest, container, clip, layer))
		default:
			extent = extent.Union(r.flow(parent, flow, rest, container, clip, layer, false))
		}
	}

	for _, k := range abs {
		r.absolute(k, area, container, layer)
	}
	return extent
}

// layerIndex looks name up in the layers of parent and its ancestors
// Unnamed and unknown layers stay on the parent's layer
func (r *Resolver) layerIndex(parent *tree.Node, name string) int {
	if name == "" {
		return parent.Geometry.Layer
	}
	for p, ok := parent, true; ok; p, ok = r.t.Get(p.Parent()) {
		if i := slices.Index(styleOf(p).Layers, name); i >= 0 {
			return i
		}
	}
	r.logger.Printf("layout: %v: unknown layer %q", parent.ID(), name)
	return parent.Geometry.Layer
}

// absolute places an out-of-flow child at its offset from the container origin
// Absolute boxes clip to the screen, not to their parent
func (r *Resolver) absolute(n *tree.Node, area geom.Region, container geom.Size, layer int) {
	st := styleOf(n)
	m := st.Margin
	w := r.width(n, area.W-m.Width(), container, false)
	h := r.height(n, w, area.H-m.Height(), container, false)
	x := area.X + st.OffsetX.Resolve(container, r.screen, true)
	y := area.Y + st.OffsetY.Resolve(container, r.screen, false)
	r.place(n, geom.NewRegion(x+m.Left, y+m.Top, w, h), geom.FromSize(r.screen), layer)
}

func (r *Resolver) constraint(n *tree.Node, axis string, need, have int) {
	err := &ConstraintError{Node: n.ID(), Axis: axis, Need: need, Have: have}
	r.logger.Printf("%v", err)
	r.stats.Errors = append(r.stats.Errors, err)
}
