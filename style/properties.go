package style

import (
	"fmt"
	"sort"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/terminal"
)

// applyFunc writes one validated declaration into a computed style
type applyFunc func(c *Computed)

// propertyFunc validates a value and returns its setter
type propertyFunc func(terms [][]Token) (applyFunc, error)

// properties is the registry of supported properties
var properties map[string]propertyFunc

func init() {
	properties = map[string]propertyFunc{
		"layout":     keywordProp(layoutNames, func(c *Computed, v Layout) { c.Layout = v }),
		"dock":       keywordProp(dockNames, func(c *Computed, v Dock) { c.Dock = v }),
		"position":   keywordProp(positionNames, func(c *Computed, v Position) { c.Position = v }),
		"display":    keywordProp(displayNames, func(c *Computed, v Display) { c.Display = v }),
		"visibility": keywordProp(visibilityNames, func(c *Computed, v Visibility) { c.Visibility = v }),
		"offset":     parseOffset,
		"offset-x":   scalarProp(false, func(c *Computed, s Scalar) { c.OffsetX = s }),
		"offset-y":   scalarProp(false, func(c *Computed, s Scalar) { c.OffsetY = s }),
		"layer":      parseLayer,
		"layers":     parseLayers,

		"width":      scalarProp(true, func(c *Computed, s Scalar) { c.Width = s }),
		"height":     scalarProp(true, func(c *Computed, s Scalar) { c.Height = s }),
		"min-width":  scalarProp(true, func(c *Computed, s Scalar) { c.MinWidth = s }),
		"max-width":  scalarProp(true, func(c *Computed, s Scalar) { c.MaxWidth = s }),
		"min-height": scalarProp(true, func(c *Computed, s Scalar) { c.MinHeight = s }),
		"max-height": scalarProp(true, func(c *Computed, s Scalar) { c.MaxHeight = s }),

		"margin":         spacingProp(func(c *Computed) *geom.Spacing { return &c.Margin }),
		"margin-top":     edgeProp(func(c *Computed) *int { return &c.Margin.Top }),
		"margin-right":   edgeProp(func(c *Computed) *int { return &c.Margin.Right }),
		"margin-bottom":  edgeProp(func(c *Computed) *int { return &c.Margin.Bottom }),
		"margin-left":    edgeProp(func(c *Computed) *int { return &c.Margin.Left }),
		"padding":        spacingProp(func(c *Computed) *geom.Spacing { return &c.Padding }),
		"padding-top":    edgeProp(func(c *Computed) *int { return &c.Padding.Top }),
		"padding-right":  edgeProp(func(c *Computed) *int { return &c.Padding.Right }),
		"padding-bottom": edgeProp(func(c *Computed) *int { return &c.Padding.Bottom }),
		"padding-left":   edgeProp(func(c *Computed) *int { return &c.Padding.Left }),

		"border":             parseBorder,
		"border-title-align": keywordProp(hAlignNames, func(c *Computed, v HAlign) { c.BorderTitleAlign = v }),

		"color":                colorProp(func(c *Computed, v Color) { c.Color = v }),
		"background":           colorProp(func(c *Computed, v Color) { c.Background = v }),
		"scrollbar-color":      colorProp(func(c *Computed, v Color) { c.ScrollbarColor = v }),
		"scrollbar-background": colorProp(func(c *Computed, v Color) { c.ScrollbarBackground = v }),
		"text-style":           parseTextStyle,
		"text-align":           keywordProp(hAlignNames, func(c *Computed, v HAlign) { c.TextAlign = v }),

		"content-align": alignProp(func(c *Computed, h HAlign, v VAlign) { c.ContentAlignH, c.ContentAlignV = h, v }),
		"align":         alignProp(func(c *Computed, h HAlign, v VAlign) { c.AlignH, c.AlignV = h, v }),

		"overflow":   parseOverflow,
		"overflow-x": keywordProp(overflowNames, func(c *Computed, v Overflow) { c.OverflowX = v }),
		"overflow-y": keywordProp(overflowNames, func(c *Computed, v Overflow) { c.OverflowY = v }),

		"scrollbar-size": intPairProp(0, func(c *Computed, h, v int) { c.ScrollbarSizeH, c.ScrollbarSizeV = h, v }),
		"grid-size":      parseGridSize,
		"grid-columns":   scalarListProp(func(c *Computed, s []Scalar) { c.GridColumns = s }),
		"grid-rows":      scalarListProp(func(c *Computed, s []Scalar) { c.GridRows = s }),
		"grid-gutter":    intPairProp(0, func(c *Computed, rows, cols int) { c.GridGutterV, c.GridGutterH = rows, cols }),
		"column-span":    intProp(1, func(c *Computed, n int) { c.ColumnSpan = n }),
		"row-span":       intProp(1, func(c *Computed, n int) { c.RowSpan = n }),
		"grid-column":    intProp(1, func(c *Computed, n int) { c.GridColumn = n }),
		"grid-row":       intProp(1, func(c *Computed, n int) { c.GridRow = n }),
	}
}

// Properties returns the sorted names of all supported properties
func Properties() []string {
	names := make([]string, 0, len(properties))
	for name := range properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// compile validates a declaration value against its property
func compile(property string, value []Token) (applyFunc, error) {
	fn, ok := properties[property]
	if !ok {
		return nil, fmt.Errorf("unknown property")
	}
	if len(value) == 0 {
		return nil, fmt.Errorf("empty value")
	}
	terms, err := splitTerms(value)
	if err != nil {
		return nil, err
	}
	return fn(terms)
}

// splitTerms groups value tokens into terms; a function call name(...) is one term
func splitTerms(tokens []Token) ([][]Token, error) {
	var terms [][]Token
	for i := 0; i < len(tokens); i++ {
		t := tokens[i]
		if t.Type == TokenComma {
			continue
		}
		if t.Type == TokenIdent && i+1 < len(tokens) && tokens[i+1].Type == TokenLParen && !tokens[i+1].SpaceBefore {
			end := i + 1
			for end < len(tokens) && tokens[end].Type != TokenRParen {
				end++
			}
			if end == len(tokens) {
				return nil, fmt.Errorf("unclosed parenthesis after %s", t.Literal)
			}
			terms = append(terms, tokens[i:end+1])
			i = end
			continue
		}
		if t.Type == TokenLParen || t.Type == TokenRParen {
			return nil, fmt.Errorf("unexpected %s", t)
		}
		terms = append(terms, tokens[i:i+1])
	}
	return terms, nil
}

func wantTerms(terms [][]Token, lo, hi int) error {
	if len(terms) < lo || len(terms) > hi {
		if lo == hi {
			return fmt.Errorf("expected %d value(s), got %d", lo, len(terms))
		}
		return fmt.Errorf("expected %d to %d values, got %d", lo, hi, len(terms))
	}
	return nil
}

// single returns the lone token of a one-token term
func single(term []Token) (Token, error) {
	if len(term) != 1 {
		return Token{}, fmt.Errorf("unexpected %s", joinTokens(term))
	}
	return term[0], nil
}

func keywordProp[T any](table map[string]T, set func(*Computed, T)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		if err := wantTerms(terms, 1, 1); err != nil {
			return nil, err
		}
		tok, err := single(terms[0])
		if err != nil {
			return nil, err
		}
		v, err := keyword(table, tok)
		if err != nil {
			return nil, err
		}
		return func(c *Computed) { set(c, v) }, nil
	}
}

func scalarProp(nonNegative bool, set func(*Computed, Scalar)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		if err := wantTerms(terms, 1, 1); err != nil {
			return nil, err
		}
		s, err := termScalar(terms[0], nonNegative)
		if err != nil {
			return nil, err
		}
		return func(c *Computed) { set(c, s) }, nil
	}
}

func termScalar(term []Token, nonNegative bool) (Scalar, error) {
	tok, err := single(term)
	if err != nil {
		return Scalar{}, err
	}
	s, err := parseScalar(tok)
	if err != nil {
		return Scalar{}, err
	}
	if nonNegative && s.Value < 0 {
		return Scalar{}, fmt.Errorf("negative length %s", tok.Literal)
	}
	return s, nil
}

func termInt(term []Token, lo int) (int, error) {
	tok, err := single(term)
	if err != nil {
		return 0, err
	}
	n, err := parseInt(tok)
	if err != nil {
		return 0, err
	}
	if n < lo {
		return 0, fmt.Errorf("value %d below minimum %d", n, lo)
	}
	return n, nil
}

func intProp(lo int, set func(*Computed, int)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		if err := wantTerms(terms, 1, 1); err != nil {
			return nil, err
		}
		n, err := termInt(terms[0], lo)
		if err != nil {
			return nil, err
		}
		return func(c *Computed) { set(c, n) }, nil
	}
}

// intPairProp accepts one value for both or two values in order
func intPairProp(lo int, set func(*Computed, int, int)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		if err := wantTerms(terms, 1, 2); err != nil {
			return nil, err
		}
		a, err := termInt(terms[0], lo)
		if err != nil {
			return nil, err
		}
		b := a
		if len(terms) == 2 {
			if b, err = termInt(terms[1], lo); err != nil {
				return nil, err
			}
		}
		return func(c *Computed) { set(c, a, b) }, nil
	}
}

// spacingProp parses 1, 2 or 4 values: all, vertical horizontal, top right bottom left
func spacingProp(field func(*Computed) *geom.Spacing) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		var v [4]int
		for i, term := range terms {
			if i >= 4 {
				return nil, fmt.Errorf("expected 1, 2 or 4 values, got %d", len(terms))
			}
			n, err := termInt(term, 0)
			if err != nil {
				return nil, err
			}
			v[i] = n
		}
		var s geom.Spacing
		switch len(terms) {
		case 1:
			s = geom.Uniform(v[0])
		case 2:
			s = geom.Spacing{Top: v[0], Right: v[1], Bottom: v[0], Left: v[1]}
		case 4:
			s = geom.Spacing{Top: v[0], Right: v[1], Bottom: v[2], Left: v[3]}
		default:
			return nil, fmt.Errorf("expected 1, 2 or 4 values, got %d", len(terms))
		}
		return func(c *Computed) { *field(c) = s }, nil
	}
}

func edgeProp(field func(*Computed) *int) propertyFunc {
	return intProp(0, func(c *Computed, n int) { *field(c) = n })
}

func colorProp(set func(*Computed, Color)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		if err := wantTerms(terms, 1, 1); err != nil {
			return nil, err
		}
		col, err := parseColor(terms[0])
		if err != nil {
			return nil, err
		}
		return func(c *Computed) { set(c, col) }, nil
	}
}

// alignProp parses "horizontal vertical"
func alignProp(set func(*Computed, HAlign, VAlign)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		if err := wantTerms(terms, 2, 2); err != nil {
			return nil, err
		}
		ht, err := single(terms[0])
		if err != nil {
			return nil, err
		}
		vt, err := single(terms[1])
		if err != nil {
			return nil, err
		}
		h, err := keyword(hAlignNames, ht)
		if err != nil {
			return nil, err
		}
		v, err := keyword(vAlignNames, vt)
		if err != nil {
			return nil, err
		}
		return func(c *Computed) { set(c, h, v) }, nil
	}
}

func scalarListProp(set func(*Computed, []Scalar)) propertyFunc {
	return func(terms [][]Token) (applyFunc, error) {
		list := make([]Scalar, 0, len(terms))
		for _, term := range terms {
			s, err := termScalar(term, true)
			if err != nil {
				return nil, err
			}
			list = append(list, s)
		}
		return func(c *Computed) { set(c, list) }, nil
	}
}

func parseOffset(terms [][]Token) (applyFunc, error) {
	if err := wantTerms(terms, 2, 2); err != nil {
		return nil, err
	}
	x, err := termScalar(terms[0], false)
	if err != nil {
		return nil, err
	}
	y, err := termScalar(terms[1], false)
	if err != nil {
		return nil, err
	}
	return func(c *Computed) { c.OffsetX, c.OffsetY = x, y }, nil
}

func parseLayer(terms [][]Token) (applyFunc, error) {
	if err := wantTerms(terms, 1, 1); err != nil {
		return nil, err
	}
	tok, err := single(terms[0])
	if err != nil {
		return nil, err
	}
	if tok.Type != TokenIdent {
		return nil, fmt.Errorf("expected layer name, got %s", tok)
	}
	name := tok.Literal
	return func(c *Computed) { c.Layer = name }, nil
}

func parseLayers(terms [][]Token) (applyFunc, error) {
	names := make([]string, 0, len(terms))
	for _, term := range terms {
		tok, err := single(term)
		if err != nil {
			return nil, err
		}
		if tok.Type != TokenIdent {
			return nil, fmt.Errorf("expected layer name, got %s", tok)
		}
		names = append(names, tok.Literal)
	}
	return func(c *Computed) { c.Layers = names }, nil
}

// parseBorder accepts "none", "<type>", or "<type> <color>"
func parseBorder(terms [][]Token) (applyFunc, error) {
	if err := wantTerms(terms, 1, 2); err != nil {
		return nil, err
	}
	tok, err := single(terms[0])
	if err != nil {
		return nil, err
	}
	typ, err := keyword(borderNames, tok)
	if err != nil {
		return nil, err
	}
	var col Color
	if len(terms) == 2 {
		if col, err = parseColor(terms[1]); err != nil {
			return nil, err
		}
	}
	return func(c *Computed) { c.Border = Border{Type: typ, Color: col} }, nil
}

func parseTextStyle(terms [][]Token) (applyFunc, error) {
	var attrs terminal.Attr
	for _, term := range terms {
		tok, err := single(term)
		if err != nil {
			return nil, err
		}
		a, err := keyword(textStyleNames, tok)
		if err != nil {
			return nil, err
		}
		attrs |= a
	}
	return func(c *Computed) { c.TextStyle = attrs }, nil
}

func parseOverflow(terms [][]Token) (applyFunc, error) {
	if err := wantTerms(terms, 1, 2); err != nil {
		return nil, err
	}
	var v [2]Overflow
	for i, term := range terms {
		tok, err := single(term)
		if err != nil {
			return nil, err
		}
		if v[i], err = keyword(overflowNames, tok); err != nil {
			return nil, err
		}
	}
	if len(terms) == 1 {
		v[1] = v[0]
	}
	return func(c *Computed) { c.OverflowX, c.OverflowY = v[0], v[1] }, nil
}

// parseGridSize accepts "columns [rows]"
func parseGridSize(terms [][]Token) (applyFunc, error) {
	if err := wantTerms(terms, 1, 2); err != nil {
		return nil, err
	}
	cols, err := termInt(terms[0], 1)
	if err != nil {
		return nil, err
	}
	rows := 0
	if len(terms) == 2 {
		if rows, err = termInt(terms[1], 1); err != nil {
			return nil, err
		}
	}
	return func(c *Computed) { c.GridColumnsCount, c.GridRowsCount = cols, rows }, nil
}
