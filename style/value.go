package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/terminal"
)

// Unit is the dimension of a Scalar
type Unit uint8

const (
	UnitUnset      Unit = iota
	UnitCells           // 12
	UnitPercent         // 50%, of the container along the property's axis
	UnitFraction        // 1fr, share of leftover space
	UnitWidth           // 50w, of the container width
	UnitHeight          // 50h, of the container height
	UnitViewWidth       // 50vw
	UnitViewHeight      // 50vh
	UnitAuto            // auto, natural size
)

var unitSuffix = map[string]Unit{
	"":   UnitCells,
	"%":  UnitPercent,
	"fr": UnitFraction,
	"w":  UnitWidth,
	"h":  UnitHeight,
	"vw": UnitViewWidth,
	"vh": UnitViewHeight,
}

// Scalar is a length in one of the supported units
type Scalar struct {
	Value float64
	Unit  Unit
}

// Cells returns a fixed-size scalar
func Cells(n int) Scalar {
	return Scalar{Value: float64(n), Unit: UnitCells}
}

// Fraction returns an fr scalar
func Fraction(v float64) Scalar {
	return Scalar{Value: v, Unit: UnitFraction}
}

// Percent returns a container-relative scalar
func Percent(v float64) Scalar {
	return Scalar{Value: v, Unit: UnitPercent}
}

// Auto is the natural-size scalar
var Auto = Scalar{Unit: UnitAuto}

func (s Scalar) IsSet() bool      { return s.Unit != UnitUnset }
func (s Scalar) IsAuto() bool     { return s.Unit == UnitAuto }
func (s Scalar) IsFraction() bool { return s.Unit == UnitFraction }

// IsFixed reports whether the scalar resolves without knowing content or siblings
func (s Scalar) IsFixed() bool {
	return s.Unit != UnitUnset && s.Unit != UnitAuto && s.Unit != UnitFraction
}

// FractionMilli returns the fr weight in thousandths
func (s Scalar) FractionMilli() int {
	if s.Unit != UnitFraction || s.Value <= 0 {
		return 0
	}
	return int(math.Round(s.Value * 1000))
}

// Resolve converts the scalar to cells; horizontal selects the axis for '%'
// Fractions, auto and unset resolve to 0; callers handle them separately
func (s Scalar) Resolve(container, viewport geom.Size, horizontal bool) int {
	var v float64
	switch s.Unit {
	case UnitCells:
		v = s.Value
	case UnitPercent:
		if horizontal {
			v = s.Value * float64(container.W) / 100
		} else {
			v = s.Value * float64(container.H) / 100
		}
	case UnitWidth:
		v = s.Value * float64(container.W) / 100
	case UnitHeight:
		v = s.Value * float64(container.H) / 100
	case UnitViewWidth:
		v = s.Value * float64(viewport.W) / 100
	case UnitViewHeight:
		v = s.Value * float64(viewport.H) / 100
	default:
		return 0
	}
	return int(math.Floor(v + 1e-9))
}

func (s Scalar) String() string {
	switch s.Unit {
	case UnitUnset:
		return "unset"
	case UnitAuto:
		return "auto"
	}
	num := strconv.FormatFloat(s.Value, 'f', -1, 64)
	for suffix, u := range unitSuffix {
		if u == s.Unit {
			return num + suffix
		}
	}
	return num
}

// parseScalar parses a single number-with-unit or the keyword auto
func parseScalar(tok Token) (Scalar, error) {
	if tok.Type == TokenIdent && tok.Literal == "auto" {
		return Auto, nil
	}
	if tok.Type != TokenNumber {
		return Scalar{}, fmt.Errorf("expected length, got %s", tok)
	}
	lit := tok.Literal
	i := len(lit)
	for i > 0 && (lit[i-1] == '%' || isAlpha(rune(lit[i-1]))) {
		i--
	}
	unit, ok := unitSuffix[lit[i:]]
	if !ok {
		return Scalar{}, fmt.Errorf("unknown unit %q", lit[i:])
	}
	v, err := strconv.ParseFloat(lit[:i], 64)
	if err != nil {
		return Scalar{}, fmt.Errorf("bad number %q", lit[:i])
	}
	return Scalar{Value: v, Unit: unit}, nil
}

// parseInt parses a plain integer token
func parseInt(tok Token) (int, error) {
	if tok.Type != TokenNumber {
		return 0, fmt.Errorf("expected integer, got %s", tok)
	}
	n, err := strconv.Atoi(tok.Literal)
	if err != nil {
		return 0, fmt.Errorf("expected integer, got %q", tok.Literal)
	}
	return n, nil
}

// ColorKind distinguishes unset, solid and transparent colors
type ColorKind uint8

const (
	ColorUnset ColorKind = iota
	ColorSolid
	ColorTransparent
)

// Color is a resolved style color
type Color struct {
	Kind ColorKind
	RGB  terminal.RGB
}

// Solid returns an opaque color
func Solid(r, g, b uint8) Color {
	return Color{Kind: ColorSolid, RGB: terminal.RGB{R: r, G: g, B: b}}
}

// Transparent paints nothing, leaving what lies beneath
var Transparent = Color{Kind: ColorTransparent}

func (c Color) IsSolid() bool { return c.Kind == ColorSolid }

func (c Color) String() string {
	switch c.Kind {
	case ColorSolid:
		return fmt.Sprintf("#%02x%02x%02x", c.RGB.R, c.RGB.G, c.RGB.B)
	case ColorTransparent:
		return "transparent"
	}
	return "unset"
}

// parseColor parses one color term: name, #hex, rgb(), hsl() or transparent
func parseColor(term []Token) (Color, error) {
	if len(term) == 0 {
		return Color{}, fmt.Errorf("expected color")
	}
	head := term[0]
	switch head.Type {
	case TokenHash:
		return parseHexColor(head.Literal)
	case TokenIdent:
		if len(term) > 1 {
			return parseColorFunc(head.Literal, term)
		}
		name := strings.ToLower(head.Literal)
		if name == "transparent" {
			return Transparent, nil
		}
		c := tcell.GetColor(name)
		if c == tcell.ColorDefault {
			return Color{}, fmt.Errorf("unknown color %q", head.Literal)
		}
		return fromTcell(c)
	}
	return Color{}, fmt.Errorf("expected color, got %s", head)
}

func parseHexColor(hex string) (Color, error) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("bad hex color #%s", hex)
	}
	if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
		return Color{}, fmt.Errorf("bad hex color #%s", hex)
	}
	return fromTcell(tcell.GetColor("#" + strings.ToLower(hex)))
}

func fromTcell(c tcell.Color) (Color, error) {
	r, g, b := c.RGB()
	if r < 0 || g < 0 || b < 0 {
		return Color{}, fmt.Errorf("color %v has no RGB value", c)
	}
	return Solid(uint8(r), uint8(g), uint8(b)), nil
}

// parseColorFunc handles rgb(r, g, b) and hsl(h, s%, l%)
func parseColorFunc(name string, term []Token) (Color, error) {
	args, err := funcArgs(term)
	if err != nil {
		return Color{}, err
	}
	if len(args) != 3 {
		return Color{}, fmt.Errorf("%s() takes 3 arguments, got %d", name, len(args))
	}

	switch strings.ToLower(name) {
	case "rgb":
		var ch [3]uint8
		for i, a := range args {
			n, err := parseInt(a)
			if err != nil || n < 0 || n > 255 {
				return Color{}, fmt.Errorf("rgb() channel out of range: %s", a)
			}
			ch[i] = uint8(n)
		}
		return Solid(ch[0], ch[1], ch[2]), nil
	case "hsl":
		var v [3]float64
		for i, a := range args {
			if a.Type != TokenNumber {
				return Color{}, fmt.Errorf("hsl() expects numbers, got %s", a)
			}
			f, err := strconv.ParseFloat(strings.TrimSuffix(a.Literal, "%"), 64)
			if err != nil {
				return Color{}, fmt.Errorf("hsl() bad number %q", a.Literal)
			}
			v[i] = f
		}
		h := math.Mod(v[0], 360)
		if h < 0 {
			h += 360
		}
		c := colorful.Hsl(h, clampUnit(v[1]/100), clampUnit(v[2]/100)).Clamped()
		r, g, b := c.RGB255()
		return Solid(r, g, b), nil
	}
	return Color{}, fmt.Errorf("unknown color function %s()", name)
}

// funcArgs extracts comma-separated single-token arguments from name ( a, b, c )
func funcArgs(term []Token) ([]Token, error) {
	if len(term) < 3 || term[1].Type != TokenLParen || term[len(term)-1].Type != TokenRParen {
		return nil, fmt.Errorf("malformed function %s", joinTokens(term))
	}
	var args []Token
	expectArg := true
	for _, t := range term[2 : len(term)-1] {
		if t.Type == TokenComma {
			if expectArg {
				return nil, fmt.Errorf("empty argument in %s", joinTokens(term))
			}
			expectArg = true
			continue
		}
		if !expectArg {
			return nil, fmt.Errorf("missing comma in %s", joinTokens(term))
		}
		args = append(args, t)
		expectArg = false
	}
	return args, nil
}

func clampUnit(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// Keyword enums

type Layout uint8

const (
	LayoutVertical Layout = iota
	LayoutHorizontal
	LayoutGrid
)

type Dock uint8

const (
	DockNone Dock = iota
	DockTop
	DockRight
	DockBottom
	DockLeft
)

type Position uint8

const (
	PositionRelative Position = iota
	PositionAbsolute
)

type Display uint8

const (
	DisplayBlock Display = iota
	DisplayNone
)

type Visibility uint8

const (
	Visible Visibility = iota
	Hidden
)

type HAlign uint8

const (
	AlignLeft HAlign = iota
	AlignCenter
	AlignRight
)

type VAlign uint8

const (
	AlignTop VAlign = iota
	AlignMiddle
	AlignBottom
)

type Overflow uint8

const (
	OverflowHidden Overflow = iota
	OverflowAuto
	OverflowScroll
)

// BorderType selects the glyph set drawn around a widget
type BorderType uint8

const (
	BorderNone   BorderType = iota
	BorderBlank             // occupies space, draws spaces
	BorderSolid             // ┌─┐
	BorderDouble            // ╔═╗
	BorderRound             // ╭─╮
	BorderHeavy             // ┏━┓
	BorderASCII             // +-+
)

var (
	layoutNames     = map[string]Layout{"vertical": LayoutVertical, "horizontal": LayoutHorizontal, "grid": LayoutGrid}
	dockNames       = map[string]Dock{"none": DockNone, "top": DockTop, "right": DockRight, "bottom": DockBottom, "left": DockLeft}
	positionNames   = map[string]Position{"relative": PositionRelative, "absolute": PositionAbsolute}
	displayNames    = map[string]Display{"block": DisplayBlock, "none": DisplayNone}
	visibilityNames = map[string]Visibility{"visible": Visible, "hidden": Hidden}
	hAlignNames     = map[string]HAlign{"left": AlignLeft, "center": AlignCenter, "right": AlignRight}
	vAlignNames     = map[string]VAlign{"top": AlignTop, "middle": AlignMiddle, "bottom": AlignBottom}
	overflowNames   = map[string]Overflow{"hidden": OverflowHidden, "auto": OverflowAuto, "scroll": OverflowScroll}
	borderNames     = map[string]BorderType{
		"none": BorderNone, "hidden": BorderNone, "blank": BorderBlank, "solid": BorderSolid,
		"double": BorderDouble, "round": BorderRound, "heavy": BorderHeavy, "ascii": BorderASCII,
	}
	textStyleNames = map[string]terminal.Attr{
		"none": terminal.AttrNone, "bold": terminal.AttrBold, "dim": terminal.AttrDim,
		"italic": terminal.AttrItalic, "underline": terminal.AttrUnderline, "blink": terminal.AttrBlink,
		"reverse": terminal.AttrReverse, "strike": terminal.AttrStrike,
	}
)

// keyword looks up an identifier token in a keyword table
func keyword[T any](table map[string]T, tok Token) (T, error) {
	var zero T
	if tok.Type != TokenIdent {
		return zero, fmt.Errorf("expected keyword, got %s", tok)
	}
	v, ok := table[strings.ToLower(tok.Literal)]
	if !ok {
		return zero, fmt.Errorf("unknown keyword %q", tok.Literal)
	}
	return v, nil
}
