package style

import (
	"strings"
)

// Element is the view of a widget node the cascade matches selectors against
type Element interface {
	TypeName() string
	ID() string
	HasClass(name string) bool
	// PseudoState reports live state: focus, hover, disabled, active, focus-within
	PseudoState(name string) bool
	// SiblingPosition returns the zero-based index among displayed siblings and their count
	SiblingPosition() (index, count int)
	// ParentElement returns nil at the root
	ParentElement() Element
}

// Combinator joins two compound selectors
type Combinator uint8

const (
	CombinatorDescendant Combinator = iota // whitespace
	CombinatorChild                        // >
)

// Compound is a sequence of simple selectors that must all match one element
type Compound struct {
	Type    string // empty or "*" matches any type
	ID      string
	Classes []string
	Pseudos []string
}

// Selector is a chain of compounds; Combinators[i] joins Parts[i] and Parts[i+1]
type Selector struct {
	Parts       []Compound
	Combinators []Combinator
}

// Specificity orders selectors: ids, then classes and pseudo-classes, then types
type Specificity struct {
	IDs     int
	Classes int
	Types   int
}

// Less reports whether s sorts before o
func (s Specificity) Less(o Specificity) bool {
	if s.IDs != o.IDs {
		return s.IDs < o.IDs
	}
	if s.Classes != o.Classes {
		return s.Classes < o.Classes
	}
	return s.Types < o.Types
}

// knownPseudo lists accepted pseudo-classes
var knownPseudo = map[string]bool{
	"focus":        true,
	"hover":        true,
	"disabled":     true,
	"enabled":      true,
	"active":       true,
	"focus-within": true,
	"first-child":  true,
	"last-child":   true,
	"even":         true,
	"odd":          true,
}

// Specificity computes the selector's weight from its shape
func (s *Selector) Specificity() Specificity {
	var sp Specificity
	for _, p := range s.Parts {
		if p.ID != "" {
			sp.IDs++
		}
		sp.Classes += len(p.Classes) + len(p.Pseudos)
		if p.Type != "" && p.Type != "*" {
			sp.Types++
		}
	}
	return sp
}

// Match reports whether the selector matches el given its ancestry
func (s *Selector) Match(el Element) bool {
	if len(s.Parts) == 0 || el == nil {
		return false
	}
	return s.matchFrom(len(s.Parts)-1, el)
}

// matchFrom matches Parts[i] against el, then walks ancestors for the preceding parts
func (s *Selector) matchFrom(i int, el Element) bool {
	if !s.Parts[i].matches(el) {
		return false
	}
	if i == 0 {
		return true
	}
	switch s.Combinators[i-1] {
	case CombinatorChild:
		parent := el.ParentElement()
		return parent != nil && s.matchFrom(i-1, parent)
	default:
		for anc := el.ParentElement(); anc != nil; anc = anc.ParentElement() {
			if s.matchFrom(i-1, anc) {
				return true
			}
		}
		return false
	}
}

func (c *Compound) matches(el Element) bool {
	if c.Type != "" && c.Type != "*" && c.Type != el.TypeName() {
		return false
	}
	if c.ID != "" && c.ID != el.ID() {
		return false
	}
	for _, cls := range c.Classes {
		if !el.HasClass(cls) {
			return false
		}
	}
	for _, p := range c.Pseudos {
		if !matchPseudo(p, el) {
			return false
		}
	}
	return true
}

func matchPseudo(name string, el Element) bool {
	switch name {
	case "enabled":
		return !el.PseudoState("disabled")
	case "first-child":
		idx, _ := el.SiblingPosition()
		return idx == 0
	case "last-child":
		idx, n := el.SiblingPosition()
		return idx == n-1
	case "even":
		// One-based like nth-child(even)
		idx, _ := el.SiblingPosition()
		return (idx+1)%2 == 0
	case "odd":
		idx, _ := el.SiblingPosition()
		return (idx+1)%2 == 1
	default:
		return el.PseudoState(name)
	}
}

// String renders the selector in stylesheet syntax
func (s *Selector) String() string {
	var b strings.Builder
	for i, p := range s.Parts {
		if i > 0 {
			if s.Combinators[i-1] == CombinatorChild {
				b.WriteString(" > ")
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(p.Type)
		if p.ID != "" {
			b.WriteByte('#')
			b.WriteString(p.ID)
		}
		for _, c := range p.Classes {
			b.WriteByte('.')
			b.WriteString(c)
		}
		for _, ps := range p.Pseudos {
			b.WriteByte(':')
			b.WriteString(ps)
		}
	}
	return b.String()
}
