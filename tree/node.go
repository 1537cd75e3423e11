package tree

import (
	"fmt"
	"slices"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
)

// NodeID is a generation-checked handle into the tree arena
// The zero value never refers to a node
type NodeID struct {
	index uint32
	gen   uint32
}

// IsZero reports whether the handle is unset
func (id NodeID) IsZero() bool {
	return id.gen == 0
}

func (id NodeID) String() string {
	if id.IsZero() {
		return "node(-)"
	}
	return fmt.Sprintf("node(%d.%d)", id.index, id.gen)
}

// Widget is the capability a node's owner provides
// Layout and compositor call these synchronously during a pass; they must not mutate the tree
type Widget interface {
	// TypeName is matched by type selectors
	TypeName() string
	// DefaultCSS is a stylesheet fragment applied before user rules, once per type
	DefaultCSS() string
	// Measure returns the natural content size when laid out no wider than maxWidth
	Measure(maxWidth int) geom.Size
	// Render returns the content lines for a content box of size
	Render(size geom.Size, st *style.Computed) ([]strip.Strip, error)
}

// Pseudo is a bitmask of live widget state matched by pseudo-classes
type Pseudo uint8

const (
	PseudoFocus Pseudo = 1 << iota
	PseudoHover
	PseudoDisabled
	PseudoActive
)

// Name returns the pseudo-class spelling
func (p Pseudo) Name() string {
	switch p {
	case PseudoFocus:
		return "focus"
	case PseudoHover:
		return "hover"
	case PseudoDisabled:
		return "disabled"
	case PseudoActive:
		return "active"
	}
	return ""
}

// Dirty flags select the work a node needs on the next pass
type Dirty uint8

const (
	DirtyStyle Dirty = 1 << iota
	DirtyLayout
	DirtyPaint

	DirtyAll = DirtyStyle | DirtyLayout | DirtyPaint
)

// State is the per-pass lifecycle of a node
type State uint8

const (
	StateUnmeasured State = iota
	StateMeasured
	StateArranged
	StatePainted
	StateComposited
)

func (s State) String() string {
	switch s {
	case StateMeasured:
		return "measured"
	case StateArranged:
		return "arranged"
	case StatePainted:
		return "painted"
	case StateComposited:
		return "composited"
	}
	return "unmeasured"
}

// Geometry is a node's placement after layout
type Geometry struct {
	Region  geom.Region // border box, absolute cells
	Content geom.Region // region inside border and padding
	Clip    geom.Region // visible area, Region intersected with every ancestor's clip
	Layer   int         // paint layer, higher paints later
	Visible bool        // displayed and visible with a non-empty clip
}

// ScrollState is the scroll position and extent of a scrolling container
type ScrollState struct {
	Offset   geom.Offset
	Virtual  geom.Size // size of the content
	Viewport geom.Size // content box minus scrollbar gutters

	VerticalBar   bool
	HorizontalBar bool
}

// MaxOffset returns the largest valid offset
func (s ScrollState) MaxOffset() geom.Offset {
	return geom.Offset{
		X: max(s.Virtual.W-s.Viewport.W, 0),
		Y: max(s.Virtual.H-s.Viewport.H, 0),
	}
}

// Node is one widget in the tree
type Node struct {
	id       NodeID
	widget   Widget
	name     string
	classes  []string
	pseudo   Pseudo
	parent   NodeID
	children []NodeID

	dirty Dirty
	state State

	// natural size cache keyed by the width constraint
	naturalFor   int
	natural      geom.Size
	naturalValid bool

	// Style is the computed style, nil until the first cascade
	Style *style.Computed
	// Geometry is assigned by layout
	Geometry Geometry
	// Scroll is maintained by layout for scrolling containers
	Scroll ScrollState
}

func (n *Node) ID() NodeID           { return n.id }
func (n *Node) Widget() Widget       { return n.widget }
func (n *Node) Name() string         { return n.name }
func (n *Node) Parent() NodeID       { return n.parent }
func (n *Node) Dirty() Dirty         { return n.dirty }
func (n *Node) State() State         { return n.state }
func (n *Node) Pseudo(p Pseudo) bool { return n.pseudo&p != 0 }

// Children returns the child handles in document order
func (n *Node) Children() []NodeID {
	return n.children
}

// Classes returns the class list
func (n *Node) Classes() []string {
	return n.classes
}

// HasClass reports class membership
func (n *Node) HasClass(name string) bool {
	return slices.Contains(n.classes, name)
}

// Measure returns the widget's natural content size, cached until the node is refreshed
func (n *Node) Measure(maxWidth int) geom.Size {
	if n.naturalValid && n.naturalFor == maxWidth {
		return n.natural
	}
	n.natural = n.widget.Measure(maxWidth).Clamp()
	n.naturalFor = maxWidth
	n.naturalValid = true
	return n.natural
}

// SetState advances or rewinds the lifecycle state
func (n *Node) SetState(s State) {
	n.state = s
}

// mark sets dirty flags and rewinds the lifecycle to where the work restarts
func (n *Node) mark(d Dirty) {
	n.dirty |= d
	switch {
	case d&(DirtyStyle|DirtyLayout) != 0:
		n.state = StateUnmeasured
	case d&DirtyPaint != 0 && n.state > StateArranged:
		n.state = StateArranged
	}
}

// ClearDirty drops the given flags after the pass consumed them
func (n *Node) ClearDirty(d Dirty) {
	n.dirty &^= d
}

// Displayed reports whether the node takes part in layout
func (n *Node) Displayed() bool {
	return n.Style == nil || n.Style.Displayed()
}
