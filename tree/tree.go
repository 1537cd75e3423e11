package tree

import (
	"errors"
	"fmt"
	"slices"
)

// ErrStaleNode is returned for handles whose node was unmounted
var ErrStaleNode = errors.New("stale node handle")

type slot struct {
	node *Node
	gen  uint32
}

// Tree is an arena of nodes addressed by NodeID
// Not safe for concurrent use; the run loop owns it
type Tree struct {
	slots   []slot
	free    []uint32
	root    NodeID
	focused NodeID

	pending Dirty
	removed []NodeID

	// PseudoRelevant filters pseudo-state changes that need a restyle; nil restyles on every change
	PseudoRelevant func(p Pseudo) bool
}

// Option configures a node at mount time
type Option func(n *Node)

// WithName sets the node id matched by #name selectors
func WithName(name string) Option {
	return func(n *Node) { n.name = name }
}

// WithClasses adds classes
func WithClasses(classes ...string) Option {
	return func(n *Node) {
		for _, c := range classes {
			if !slices.Contains(n.classes, c) {
				n.classes = append(n.classes, c)
			}
		}
	}
}

// New creates a tree with root as its single node
func New(root Widget, opts ...Option) *Tree {
	t := &Tree{}
	t.root = t.alloc(root, NodeID{}, opts)
	return t
}

// Root returns the root handle
func (t *Tree) Root() NodeID {
	return t.root
}

// Get resolves a handle, failing for unmounted nodes
func (t *Tree) Get(id NodeID) (*Node, bool) {
	if id.IsZero() || int(id.index) >= len(t.slots) {
		return nil, false
	}
	s := t.slots[id.index]
	if s.gen != id.gen || s.node == nil {
		return nil, false
	}
	return s.node, true
}

// MustGet resolves a handle known to be live
func (t *Tree) MustGet(id NodeID) *Node {
	n, ok := t.Get(id)
	if !ok {
		panic(fmt.Sprintf("tree: %v: %v", id, ErrStaleNode))
	}
	return n
}

// Len returns the number of mounted nodes
func (t *Tree) Len() int {
	return len(t.slots) - len(t.free)
}

func (t *Tree) alloc(w Widget, parent NodeID, opts []Option) NodeID {
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot{})
	}
	s := &t.slots[idx]
	s.gen++
	id := NodeID{index: idx, gen: s.gen}

	n := &Node{id: id, widget: w, parent: parent, dirty: DirtyAll}
	for _, opt := range opts {
		opt(n)
	}
	s.node = n
	t.pending |= DirtyAll
	return id
}

// Mount appends a new child under parent
func (t *Tree) Mount(parent NodeID, w Widget, opts ...Option) (NodeID, error) {
	return t.MountAt(parent, -1, w, opts...)
}

// MountAt inserts a new child at index; a negative or out-of-range index appends
func (t *Tree) MountAt(parent NodeID, index int, w Widget, opts ...Option) (NodeID, error) {
	if w == nil {
		return NodeID{}, fmt.Errorf("mount: nil widget")
	}
	p, ok := t.Get(parent)
	if !ok {
		return NodeID{}, fmt.Errorf("mount under %v: %w", parent, ErrStaleNode)
	}
	id := t.alloc(w, parent, opts)
	// alloc may grow the arena; p stays valid because slots hold pointers
	if index < 0 || index > len(p.children) {
		p.children = append(p.children, id)
	} else {
		p.children = slices.Insert(p.children, index, id)
	}

	// Sibling positions shift, so structural pseudo-classes may change
	for _, c := range p.children {
		t.markSubtree(c, DirtyStyle)
	}
	t.Mark(parent, DirtyLayout)
	return id, nil
}

// Unmount removes the node and its subtree, invalidating their handles
// The root cannot be unmounted
func (t *Tree) Unmount(id NodeID) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("unmount %v: %w", id, ErrStaleNode)
	}
	if id == t.root {
		return fmt.Errorf("unmount %v: cannot remove root", id)
	}

	if p, ok := t.Get(n.parent); ok {
		if i := slices.Index(p.children, id); i >= 0 {
			p.children = slices.Delete(p.children, i, i+1)
		}
		for _, c := range p.children {
			t.markSubtree(c, DirtyStyle)
		}
		t.Mark(n.parent, DirtyLayout|DirtyPaint)
	}

	t.release(id)
	return nil
}

// release frees the subtree's slots depth-first, recording every removed handle
func (t *Tree) release(id NodeID) {
	n, ok := t.Get(id)
	if !ok {
		return
	}
	for _, c := range n.children {
		t.release(c)
	}
	if t.focused == id {
		t.focused = NodeID{}
	}
	t.slots[id.index].node = nil
	t.free = append(t.free, id.index)
	t.removed = append(t.removed, id)
}

// TakeRemoved returns and clears the handles unmounted since the last call
func (t *Tree) TakeRemoved() []NodeID {
	r := t.removed
	t.removed = nil
	return r
}

// Walk visits displayed and hidden nodes in document order (pre-order)
// fn returning false skips the node's subtree
func (t *Tree) Walk(fn func(n *Node) bool) {
	t.walk(t.root, fn)
}

// WalkFrom visits the subtree rooted at id
func (t *Tree) WalkFrom(id NodeID, fn func(n *Node) bool) {
	t.walk(id, fn)
}

func (t *Tree) walk(id NodeID, fn func(n *Node) bool) {
	n, ok := t.Get(id)
	if !ok {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.children {
		t.walk(c, fn)
	}
}

// Mark sets dirty flags on one node
func (t *Tree) Mark(id NodeID, d Dirty) {
	if n, ok := t.Get(id); ok {
		n.mark(d)
		t.pending |= d
	}
}

// markSubtree sets dirty flags on a node and all its descendants
func (t *Tree) markSubtree(id NodeID, d Dirty) {
	t.walk(id, func(n *Node) bool {
		n.mark(d)
		return true
	})
	t.pending |= d
}

// MarkAll rewinds every node, used on resize and stylesheet changes
func (t *Tree) MarkAll(d Dirty) {
	t.markSubtree(t.root, d)
}

// Pending returns the union of dirty flags set since the last ClearPending
func (t *Tree) Pending() Dirty {
	return t.pending
}

// ClearPending resets the aggregate after a completed pass
func (t *Tree) ClearPending() {
	t.pending = 0
}

// Refresh tells the tree a widget's content changed
// resize selects whether the natural size may have changed too; layout walks up
// from the node to the nearest ancestor whose size does not depend on content
func (t *Tree) Refresh(id NodeID, resize bool) {
	n, ok := t.Get(id)
	if !ok {
		return
	}
	n.naturalValid = false
	if resize {
		t.Mark(id, DirtyLayout|DirtyPaint)
		return
	}
	t.Mark(id, DirtyPaint)
}

// SetClasses replaces the class list
func (t *Tree) SetClasses(id NodeID, classes ...string) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("set classes on %v: %w", id, ErrStaleNode)
	}
	n.classes = n.classes[:0]
	WithClasses(classes...)(n)
	t.markSubtree(id, DirtyStyle)
	return nil
}

// AddClass adds a class if absent
func (t *Tree) AddClass(id NodeID, class string) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("add class to %v: %w", id, ErrStaleNode)
	}
	if n.HasClass(class) {
		return nil
	}
	n.classes = append(n.classes, class)
	t.markSubtree(id, DirtyStyle)
	return nil
}

// RemoveClass removes a class if present
func (t *Tree) RemoveClass(id NodeID, class string) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("remove class from %v: %w", id, ErrStaleNode)
	}
	i := slices.Index(n.classes, class)
	if i < 0 {
		return nil
	}
	n.classes = slices.Delete(n.classes, i, i+1)
	t.markSubtree(id, DirtyStyle)
	return nil
}

// SetName changes the #id name
func (t *Tree) SetName(id NodeID, name string) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("set name on %v: %w", id, ErrStaleNode)
	}
	if n.name == name {
		return nil
	}
	n.name = name
	t.markSubtree(id, DirtyStyle)
	return nil
}

// SetPseudo toggles live state; returns whether it changed
// Restyles the subtree only when some rule selects on the state
func (t *Tree) SetPseudo(id NodeID, p Pseudo, on bool) (bool, error) {
	n, ok := t.Get(id)
	if !ok {
		return false, fmt.Errorf("set pseudo on %v: %w", id, ErrStaleNode)
	}
	if n.Pseudo(p) == on {
		return false, nil
	}
	if on {
		n.pseudo |= p
	} else {
		n.pseudo &^= p
	}
	if t.PseudoRelevant == nil || t.PseudoRelevant(p) {
		t.markSubtree(id, DirtyStyle)
		if p == PseudoFocus {
			// focus-within on ancestors
			for a := n.parent; !a.IsZero(); {
				an, ok := t.Get(a)
				if !ok {
					break
				}
				t.Mark(a, DirtyStyle)
				a = an.parent
			}
		}
	}
	return true, nil
}

// Focus moves focus to id, clearing it from the previous holder
func (t *Tree) Focus(id NodeID) error {
	if _, ok := t.Get(id); !ok {
		return fmt.Errorf("focus %v: %w", id, ErrStaleNode)
	}
	if t.focused == id {
		return nil
	}
	if !t.focused.IsZero() {
		t.SetPseudo(t.focused, PseudoFocus, false)
	}
	t.focused = id
	_, err := t.SetPseudo(id, PseudoFocus, true)
	return err
}

// Focused returns the focused node, zero when none
func (t *Tree) Focused() NodeID {
	return t.focused
}

// ScrollTo requests a scroll offset; layout clamps it to the valid range
func (t *Tree) ScrollTo(id NodeID, x, y int) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("scroll %v: %w", id, ErrStaleNode)
	}
	if n.Scroll.Offset.X == x && n.Scroll.Offset.Y == y {
		return nil
	}
	n.Scroll.Offset.X = x
	n.Scroll.Offset.Y = y
	t.Mark(id, DirtyLayout|DirtyPaint)
	return nil
}

// ScrollBy moves the scroll offset relative to its current value
func (t *Tree) ScrollBy(id NodeID, dx, dy int) error {
	n, ok := t.Get(id)
	if !ok {
		return fmt.Errorf("scroll %v: %w", id, ErrStaleNode)
	}
	return t.ScrollTo(id, n.Scroll.Offset.X+dx, n.Scroll.Offset.Y+dy)
}

// Ancestors returns the chain from id's parent up to the root
func (t *Tree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	n, ok := t.Get(id)
	for ok && !n.parent.IsZero() {
		out = append(out, n.parent)
		n, ok = t.Get(n.parent)
	}
	return out
}
