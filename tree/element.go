package tree

import (
	"slices"

	"github.com/lixenwraith/trellis/style"
)

// element adapts a node to style.Element
type element struct {
	t *Tree
	n *Node
}

// Element returns the selector-matching view of id, nil for stale handles
func (t *Tree) Element(id NodeID) style.Element {
	n, ok := t.Get(id)
	if !ok {
		return nil
	}
	return element{t: t, n: n}
}

func (e element) TypeName() string          { return e.n.widget.TypeName() }
func (e element) ID() string                { return e.n.name }
func (e element) HasClass(name string) bool { return e.n.HasClass(name) }

func (e element) PseudoState(name string) bool {
	switch name {
	case "focus":
		return e.n.Pseudo(PseudoFocus)
	case "hover":
		return e.n.Pseudo(PseudoHover)
	case "disabled":
		// Disabled containers disable their subtree
		for n := e.n; n != nil; {
			if n.Pseudo(PseudoDisabled) {
				return true
			}
			p, ok := e.t.Get(n.parent)
			if !ok {
				break
			}
			n = p
		}
		return false
	case "active":
		return e.n.Pseudo(PseudoActive)
	case "focus-within":
		if e.t.focused.IsZero() {
			return false
		}
		return e.t.focused == e.n.id || slices.Contains(e.t.Ancestors(e.t.focused), e.n.id)
	}
	return false
}

func (e element) SiblingPosition() (int, int) {
	p, ok := e.t.Get(e.n.parent)
	if !ok {
		return 0, 1
	}
	return slices.Index(p.children, e.n.id), len(p.children)
}

func (e element) ParentElement() style.Element {
	p, ok := e.t.Get(e.n.parent)
	if !ok {
		return nil
	}
	return element{t: e.t, n: p}
}
