package style

import (
	"errors"
	"testing"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/terminal"
)

// fakeElement is a minimal Element for matching tests
type fakeElement struct {
	typ     string
	id      string
	classes map[string]bool
	pseudo  map[string]bool
	index   int
	count   int
	parent  *fakeElement
}

func el(typ string, parent *fakeElement, classes ...string) *fakeElement {
	e := &fakeElement{typ: typ, parent: parent, classes: map[string]bool{}, pseudo: map[string]bool{}, count: 1}
	for _, c := range classes {
		e.classes[c] = true
	}
	return e
}

func (e *fakeElement) TypeName() string             { return e.typ }
func (e *fakeElement) ID() string                   { return e.id }
func (e *fakeElement) HasClass(name string) bool    { return e.classes[name] }
func (e *fakeElement) PseudoState(name string) bool { return e.pseudo[name] }
func (e *fakeElement) SiblingPosition() (int, int)  { return e.index, e.count }
func (e *fakeElement) ParentElement() Element {
	if e.parent == nil {
		return nil
	}
	return e.parent
}

func mustParse(t *testing.T, text string) *Stylesheet {
	t.Helper()
	sheet, errs := Parse("test.tcss", text, OriginUser, nil)
	if len(errs) > 0 {
		t.Fatalf("Unexpected parse errors: %v", errs)
	}
	return sheet
}

func compute(t *testing.T, sheet *Stylesheet, e Element, parent *Computed) *Computed {
	t.Helper()
	c, errs := NewCascade(sheet).Compute(e, parent)
	if len(errs) > 0 {
		t.Fatalf("Unexpected cascade errors: %v", errs)
	}
	return c
}

func TestLexerTokens(t *testing.T) {
	l := NewLexer([]byte("Static.title > #main:focus { width: 1.5fr; } /* c */ $x"))
	want := []struct {
		typ   TokenType
		lit   string
		space bool
	}{
		{TokenIdent, "Static", false},
		{TokenDot, ".", false},
		{TokenIdent, "title", false},
		{TokenGreater, ">", true},
		{TokenHash, "main", true},
		{TokenColon, ":", false},
		{TokenIdent, "focus", false},
		{TokenLBrace, "{", true},
		{TokenIdent, "width", true},
		{TokenColon, ":", false},
		{TokenNumber, "1.5fr", true},
		{TokenSemicolon, ";", false},
		{TokenRBrace, "}", true},
		{TokenVariable, "x", true},
		{TokenEOF, "", false},
	}
	for i, w := range want {
		got := l.NextToken()
		if got.Type != w.typ || got.Literal != w.lit || got.SpaceBefore != w.space {
			t.Fatalf("token %d: got %v (%q, space=%v), want %q space=%v", i, got.Type, got.Literal, got.SpaceBefore, w.lit, w.space)
		}
	}
}

func TestParseSelectors(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   []string
		weight []Specificity
	}{
		{"type", "Static {}", []string{"Static"}, []Specificity{{0, 0, 1}}},
		{"compound", "Static.a.b:focus {}", []string{"Static.a.b:focus"}, []Specificity{{0, 3, 1}}},
		{"descendant and child", "Container Static > #x {}", []string{"Container Static > #x"}, []Specificity{{1, 0, 2}}},
		{"union", "A, .b {}", []string{"A", ".b"}, []Specificity{{0, 0, 1}, {0, 1, 0}}},
		{"universal", "* {}", []string{"*"}, []Specificity{{0, 0, 0}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := mustParse(t, tt.input)
			rules := sheet.Rules()
			if len(rules) != len(tt.want) {
				t.Fatalf("got %d rules, want %d", len(rules), len(tt.want))
			}
			for i, r := range rules {
				if got := r.Selector.String(); got != tt.want[i] {
					t.Errorf("selector %d = %q, want %q", i, got, tt.want[i])
				}
				if r.Specificity != tt.weight[i] {
					t.Errorf("specificity %d = %+v, want %+v", i, r.Specificity, tt.weight[i])
				}
			}
		})
	}
}

func TestMalformedDeclarationDoesNotBlockRest(t *testing.T) {
	sheet, errs := Parse("app.tcss", `
Static {
    width: banana;
    height: 3;
    color: red;
}
Other { width: 5; }
`, OriginUser, nil)

	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %d: %v", len(errs), errs)
	}
	var ve *ValueError
	if !errors.As(errs[0], &ve) {
		t.Fatalf("Expected *ValueError, got %T", errs[0])
	}
	if ve.Property != "width" || ve.Line != 3 || ve.Source != "app.tcss" {
		t.Errorf("ValueError = %+v", ve)
	}

	c := compute(t, sheet, el("Static", nil), nil)
	if c.Height != Cells(3) {
		t.Errorf("Height = %v, want 3", c.Height)
	}
	if c.Width.IsSet() {
		t.Errorf("Width should fall back to default, got %v", c.Width)
	}
	if c.Color != Solid(0xff, 0, 0) {
		t.Errorf("Color = %v, want #ff0000", c.Color)
	}
	if len(sheet.Rules()) != 2 {
		t.Errorf("Expected both rules kept, got %d", len(sheet.Rules()))
	}
}

func TestParseErrorDropsOnlyThatRule(t *testing.T) {
	sheet, errs := Parse("app.tcss", `
Static:nosuch { width: 1; }
Static { height: 2; }
`, OriginUser, nil)

	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	var pe *ParseError
	if !errors.As(errs[0], &pe) {
		t.Fatalf("Expected *ParseError, got %T", errs[0])
	}
	if pe.Line != 2 {
		t.Errorf("ParseError line = %d, want 2", pe.Line)
	}
	if len(sheet.Rules()) != 1 {
		t.Fatalf("Expected 1 surviving rule, got %d", len(sheet.Rules()))
	}
	c := compute(t, sheet, el("Static", nil), nil)
	if c.Height != Cells(2) || c.Width.IsSet() {
		t.Errorf("Width/Height = %v/%v", c.Width, c.Height)
	}
}

func TestMissingColonRecoversWithinBlock(t *testing.T) {
	sheet, errs := Parse("x", "Static { width 3; height: 4 }", OriginUser, nil)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error, got %v", errs)
	}
	c := compute(t, sheet, el("Static", nil), nil)
	if c.Height != Cells(4) {
		t.Errorf("Height = %v, want 4", c.Height)
	}
}

func TestSpecificityAndOrder(t *testing.T) {
	sheet := mustParse(t, `
#main { width: 10; }
Static.wide { width: 20; }
Static { width: 30; height: 1; }
Static { height: 2; }
.wide { color: blue; }
Static { color: green !important; }
`)
	e := el("Static", nil, "wide")
	e.id = "main"
	c := compute(t, sheet, e, nil)

	if c.Width != Cells(10) {
		t.Errorf("id should beat class+type: width = %v", c.Width)
	}
	if c.Height != Cells(2) {
		t.Errorf("later rule should win tie: height = %v", c.Height)
	}
	green, _ := parseColor([]Token{{Type: TokenIdent, Literal: "green"}})
	if c.Color != green {
		t.Errorf("!important should beat higher specificity: color = %v", c.Color)
	}
}

func TestCascadeDeterministic(t *testing.T) {
	sheet := mustParse(t, `
* { padding: 1; }
Container Static { margin: 1 2; }
Static:focus { border: round red; }
.a { text-style: bold italic; }
`)
	parent := el("Container", nil)
	e := el("Static", parent, "a")
	e.pseudo["focus"] = true

	first := compute(t, sheet, e, nil)
	for i := 0; i < 20; i++ {
		again := compute(t, sheet, e, nil)
		if !first.Equal(again) {
			t.Fatalf("Computation %d differs: %+v vs %+v", i, first, again)
		}
	}
	if first.Margin != (geom.Spacing{Top: 1, Right: 2, Bottom: 1, Left: 2}) {
		t.Errorf("Margin = %+v", first.Margin)
	}
	if first.Border.Type != BorderRound {
		t.Errorf("Border = %+v", first.Border)
	}
	if first.TextStyle != terminal.AttrBold|terminal.AttrItalic {
		t.Errorf("TextStyle = %v", first.TextStyle)
	}
}

func TestInheritance(t *testing.T) {
	sheet := mustParse(t, `
Container { color: #102030; text-align: center; padding: 2; background: white; }
`)
	root := el("Container", nil)
	child := el("Static", root)

	rootStyle := compute(t, sheet, root, nil)
	childStyle := compute(t, sheet, child, rootStyle)

	if childStyle.Color != Solid(0x10, 0x20, 0x30) {
		t.Errorf("color should inherit: %v", childStyle.Color)
	}
	if childStyle.TextAlign != AlignCenter {
		t.Errorf("text-align should inherit: %v", childStyle.TextAlign)
	}
	if !childStyle.Padding.IsZero() {
		t.Errorf("padding must not inherit: %+v", childStyle.Padding)
	}
	if childStyle.Background != Transparent {
		t.Errorf("background must not inherit: %v", childStyle.Background)
	}
}

func TestCombinators(t *testing.T) {
	sheet := mustParse(t, `
Screen > Static { width: 1; }
Screen Static { height: 1; }
`)
	screen := el("Screen", nil)
	mid := el("Container", screen)
	direct := el("Static", screen)
	nested := el("Static", mid)

	d := compute(t, sheet, direct, nil)
	if d.Width != Cells(1) || d.Height != Cells(1) {
		t.Errorf("direct child: width=%v height=%v", d.Width, d.Height)
	}
	n := compute(t, sheet, nested, nil)
	if n.Width.IsSet() {
		t.Errorf("child combinator matched grandchild")
	}
	if n.Height != Cells(1) {
		t.Errorf("descendant combinator missed grandchild")
	}
}

func TestStructuralPseudo(t *testing.T) {
	sheet := mustParse(t, `
Row:first-child { height: 1; }
Row:last-child { height: 3; }
Row:even { width: 2; }
Row:disabled { width: 9; }
Row:enabled { color: red; }
`)
	tests := []struct {
		name     string
		index    int
		disabled bool
		width    Scalar
		height   Scalar
		enabled  bool
	}{
		{"first", 0, false, Scalar{}, Cells(1), true},
		{"second even", 1, false, Cells(2), Scalar{}, true},
		{"last odd disabled", 2, true, Cells(9), Cells(3), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := el("Row", nil)
			e.index, e.count = tt.index, 3
			e.pseudo["disabled"] = tt.disabled
			c := compute(t, sheet, e, nil)
			if c.Width != tt.width || c.Height != tt.height {
				t.Errorf("width=%v height=%v, want %v %v", c.Width, c.Height, tt.width, tt.height)
			}
			if c.Color.IsSolid() != tt.enabled {
				t.Errorf(":enabled match = %v, want %v", c.Color.IsSolid(), tt.enabled)
			}
		})
	}
}

func TestVariables(t *testing.T) {
	sheet := mustParse(t, `
$accent: rgb(10, 20, 30);
$edge: heavy $accent;
Static { color: $accent; border: $edge; }
Bad { color: $missing; width: 3; }
`)
	c := compute(t, sheet, el("Static", nil), nil)
	if c.Color != Solid(10, 20, 30) {
		t.Errorf("Color = %v", c.Color)
	}
	if c.Border.Type != BorderHeavy || c.Border.Color != Solid(10, 20, 30) {
		t.Errorf("Border = %+v", c.Border)
	}

	bad, errs := NewCascade(sheet).Compute(el("Bad", nil), nil)
	if len(errs) != 1 {
		t.Fatalf("Expected 1 error for undefined variable, got %v", errs)
	}
	var ve *ValueError
	if !errors.As(errs[0], &ve) || ve.Property != "color" {
		t.Errorf("Expected color ValueError, got %v", errs[0])
	}
	if bad.Width != Cells(3) {
		t.Errorf("Other declarations should apply: width = %v", bad.Width)
	}
}

func TestThemeVariableOverride(t *testing.T) {
	sheet := mustParse(t, "$bg: black; Screen { background: $bg; }")
	if err := sheet.SetVariable("bg", "#ffffff"); err != nil {
		t.Fatalf("SetVariable: %v", err)
	}
	c := compute(t, sheet, el("Screen", nil), nil)
	if c.Background != Solid(0xff, 0xff, 0xff) {
		t.Errorf("Background = %v", c.Background)
	}
}

func TestParseValues(t *testing.T) {
	tests := []struct {
		name  string
		decl  string
		check func(*Computed) bool
	}{
		{"fr", "width: 2fr", func(c *Computed) bool { return c.Width == Fraction(2) }},
		{"percent", "height: 50%", func(c *Computed) bool { return c.Height == Percent(50) }},
		{"viewport", "width: 25vw", func(c *Computed) bool { return c.Width == Scalar{25, UnitViewWidth} }},
		{"auto", "height: auto", func(c *Computed) bool { return c.Height.IsAuto() }},
		{"padding 4", "padding: 1 2 3 4", func(c *Computed) bool {
			return c.Padding == geom.Spacing{Top: 1, Right: 2, Bottom: 3, Left: 4}
		}},
		{"short hex", "color: #f00", func(c *Computed) bool { return c.Color == Solid(0xff, 0, 0) }},
		{"hsl", "color: hsl(0, 100%, 50%)", func(c *Computed) bool { return c.Color == Solid(0xff, 0, 0) }},
		{"transparent", "background: transparent", func(c *Computed) bool { return c.Background == Transparent }},
		{"content-align", "content-align: center middle", func(c *Computed) bool {
			return c.ContentAlignH == AlignCenter && c.ContentAlignV == AlignMiddle
		}},
		{"overflow pair", "overflow: hidden auto", func(c *Computed) bool {
			return c.OverflowX == OverflowHidden && c.OverflowY == OverflowAuto
		}},
		{"grid", "grid-size: 3 2", func(c *Computed) bool { return c.GridColumnsCount == 3 && c.GridRowsCount == 2 }},
		{"grid-columns", "grid-columns: 10 1fr 2fr", func(c *Computed) bool {
			return len(c.GridColumns) == 3 && c.GridColumns[2] == Fraction(2)
		}},
		{"layers", "layers: base overlay", func(c *Computed) bool {
			return len(c.Layers) == 2 && c.Layers[1] == "overlay"
		}},
		{"offset", "offset: 2 -1", func(c *Computed) bool { return c.OffsetX == Cells(2) && c.OffsetY == Cells(-1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet := mustParse(t, "X { "+tt.decl+"; }")
			c := compute(t, sheet, el("X", nil), nil)
			if !tt.check(c) {
				t.Errorf("%s produced %+v", tt.decl, c)
			}
		})
	}
}

func TestParseInvalidValues(t *testing.T) {
	tests := []string{
		"width: -3",
		"color: notacolor",
		"layout: sideways",
		"padding: 1 2 3",
		"rgb: 1",
		"color: rgb(300, 0, 0)",
		"column-span: 0",
		"content-align: middle center",
	}
	for _, decl := range tests {
		t.Run(decl, func(t *testing.T) {
			_, errs := Parse("x", "X { "+decl+"; }", OriginUser, nil)
			if len(errs) != 1 {
				t.Fatalf("Expected exactly one error, got %v", errs)
			}
			var ve *ValueError
			if !errors.As(errs[0], &ve) {
				t.Errorf("Expected *ValueError, got %T: %v", errs[0], errs[0])
			}
		})
	}
}

func TestUsesPseudo(t *testing.T) {
	sheet := mustParse(t, "A:hover {} B:focus-within {}")
	if !sheet.UsesPseudo("hover") {
		t.Error("hover should be used")
	}
	if !sheet.UsesPseudo("focus") {
		t.Error("focus-within implies focus changes matter")
	}
	if sheet.UsesPseudo("active") {
		t.Error("active is not referenced")
	}
}

func TestSharedOrderAcrossSheets(t *testing.T) {
	order := 0
	defaults, _ := Parse("default", "Static { width: 1; }", OriginDefault, &order)
	user, _ := Parse("user", "Static { width: 2; }", OriginUser, &order)

	combined := NewStylesheet()
	combined.Add(defaults)
	combined.Add(user)

	c := compute(t, combined, el("Static", nil), nil)
	if c.Width != Cells(2) {
		t.Errorf("user rule should follow defaults: width = %v", c.Width)
	}
}

func TestScalarResolve(t *testing.T) {
	container := geom.Size{W: 80, H: 24}
	viewport := geom.Size{W: 100, H: 30}
	tests := []struct {
		s          Scalar
		horizontal bool
		want       int
	}{
		{Cells(7), true, 7},
		{Percent(50), true, 40},
		{Percent(50), false, 12},
		{Scalar{25, UnitHeight}, true, 6},
		{Scalar{10, UnitViewWidth}, false, 10},
		{Fraction(1), true, 0},
		{Auto, true, 0},
	}
	for _, tt := range tests {
		if got := tt.s.Resolve(container, viewport, tt.horizontal); got != tt.want {
			t.Errorf("%v.Resolve(horizontal=%v) = %d, want %d", tt.s, tt.horizontal, got, tt.want)
		}
	}
}
