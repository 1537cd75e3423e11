package widget

import (
	"strings"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
)

// Static displays text wrapped to its width and aligned by text-align
// After SetText the owner must refresh the node with resize set
type Static struct {
	text string
	seg  strip.Segment // style template; Text is ignored
}

// NewStatic creates a text widget
func NewStatic(text string) *Static {
	return &Static{text: text}
}

// NewStyled creates a text widget whose text carries seg's colors and attributes over the computed style
func NewStyled(text string, seg strip.Segment) *Static {
	return &Static{text: text, seg: seg}
}

func (s *Static) TypeName() string   { return "Static" }
func (s *Static) DefaultCSS() string { return "" }
func (s *Static) Text() string       { return s.text }

// SetText replaces the text and reports whether it changed
func (s *Static) SetText(text string) bool {
	if text == s.text {
		return false
	}
	s.text = text
	return true
}

// lines returns the text broken for width; width <= 0 breaks on newlines only
func (s *Static) lines(width int) []string {
	if width <= 0 {
		return strings.Split(s.text, "\n")
	}
	return strip.Wrap(s.text, width)
}

func (s *Static) Measure(maxWidth int) geom.Size {
	if s.text == "" {
		return geom.Size{}
	}
	lines := s.lines(maxWidth)
	return geom.Size{W: strip.MaxWidth(lines), H: len(lines)}
}

func (s *Static) Render(size geom.Size, st *style.Computed) ([]strip.Strip, error) {
	lines := s.lines(size.W)
	out := make([]strip.Strip, 0, min(len(lines), size.H))
	for _, l := range lines {
		if len(out) == size.H {
			break
		}
		seg := s.seg
		seg.Text = l
		out = append(out, strip.New(seg).Align(size.W, st.TextAlign))
	}
	return out, nil
}
