package style

import (
	"fmt"
	"sort"
)

// maxVariableDepth bounds nested variable references
const maxVariableDepth = 16

// Cascade resolves computed styles from a stylesheet
// Compute is pure for a given sheet, element state and parent style
type Cascade struct {
	sheet *Stylesheet

	// deferred caches compiled variable-bearing declarations by position
	deferred map[*Declaration]deferredResult
}

type deferredResult struct {
	apply applyFunc
	err   error
}

// NewCascade prepares a cascade over sheet
func NewCascade(sheet *Stylesheet) *Cascade {
	if sheet == nil {
		sheet = NewStylesheet()
	}
	return &Cascade{
		sheet:    sheet,
		deferred: make(map[*Declaration]deferredResult),
	}
}

// Sheet returns the stylesheet in effect
func (c *Cascade) Sheet() *Stylesheet {
	return c.sheet
}

// matched is one declaration selected for an element, with its sort key
type matched struct {
	decl *Declaration
	rule *Rule
	idx  int
}

// Compute resolves the style of el over its parent's computed style
// Variable substitution failures are returned as *ValueError; the declaration is skipped
func (c *Cascade) Compute(el Element, parent *Computed) (*Computed, []error) {
	var list []matched
	for _, r := range c.sheet.rules {
		if !r.Selector.Match(el) {
			continue
		}
		for i := range r.Declarations {
			list = append(list, matched{decl: &r.Declarations[i], rule: r, idx: i})
		}
	}

	// Importance, then specificity, then rule order, then position within the rule
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if a.decl.Important != b.decl.Important {
			return !a.decl.Important
		}
		if a.rule.Specificity != b.rule.Specificity {
			return a.rule.Specificity.Less(b.rule.Specificity)
		}
		if a.rule.Order != b.rule.Order {
			return a.rule.Order < b.rule.Order
		}
		return a.idx < b.idx
	})

	out := Default()
	out.inherit(parent)

	var errs []error
	for _, m := range list {
		apply := m.decl.apply
		if apply == nil {
			res := c.resolveDeferred(m.decl, m.rule)
			if res.err != nil {
				errs = append(errs, res.err)
				continue
			}
			apply = res.apply
		}
		apply(out)
	}
	return out, errs
}

// resolveDeferred substitutes variables and compiles, caching the outcome
func (c *Cascade) resolveDeferred(d *Declaration, r *Rule) deferredResult {
	if res, ok := c.deferred[d]; ok {
		return res
	}
	var res deferredResult
	value, err := c.substitute(d.Value, 0)
	if err == nil {
		res.apply, err = compile(d.Property, value)
	}
	if err != nil {
		res.err = &ValueError{
			Source:   r.Source,
			Line:     d.Line,
			Col:      d.Col,
			Property: d.Property,
			Value:    joinTokens(d.Value),
			Err:      err,
		}
	}
	c.deferred[d] = res
	return res
}

// substitute expands $name references recursively
func (c *Cascade) substitute(tokens []Token, depth int) ([]Token, error) {
	if depth > maxVariableDepth {
		return nil, fmt.Errorf("variable nesting too deep")
	}
	out := make([]Token, 0, len(tokens))
	for _, t := range tokens {
		if t.Type != TokenVariable {
			out = append(out, t)
			continue
		}
		def, ok := c.sheet.variables[t.Literal]
		if !ok {
			return nil, fmt.Errorf("undefined variable $%s", t.Literal)
		}
		exp, err := c.substitute(def, depth+1)
		if err != nil {
			return nil, err
		}
		for i, e := range exp {
			if i == 0 {
				e.SpaceBefore = t.SpaceBefore
			}
			out = append(out, e)
		}
	}
	return out, nil
}
