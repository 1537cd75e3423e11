// Package strip holds styled single-line content produced by widgets.
//
// Widths are terminal cell counts: a strip of "日本" is 4 cells wide. Text is walked by
// grapheme cluster so combining marks stay with their base character.
package strip

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/terminal"
)

// Segment is a run of text sharing one style
// Unset colors take the widget's computed color and background at paint time
type Segment struct {
	Text  string
	Fg    style.Color
	Bg    style.Color
	Attrs terminal.Attr
}

// Strip is one line of segments
type Strip struct {
	segs  []Segment
	width int
}

// New builds a strip from segments, dropping empty ones
func New(segs ...Segment) Strip {
	s := Strip{segs: make([]Segment, 0, len(segs))}
	for _, seg := range segs {
		if seg.Text == "" {
			continue
		}
		s.segs = append(s.segs, seg)
		s.width += Width(seg.Text)
	}
	return s
}

// Plain returns an unstyled strip
func Plain(text string) Strip {
	return New(Segment{Text: text})
}

// Width returns the cell width of s
func Width(s string) int {
	return runewidth.StringWidth(s)
}

// Width returns the strip's cell width
func (s Strip) Width() int {
	return s.width
}

// Segments returns the strip's segments
func (s Strip) Segments() []Segment {
	return s.segs
}

// Text returns the concatenated text
func (s Strip) Text() string {
	var b strings.Builder
	for _, seg := range s.segs {
		b.WriteString(seg.Text)
	}
	return b.String()
}

// Cluster is one grapheme cluster positioned in a strip
type Cluster struct {
	X     int    // cell offset from the strip start
	Text  string // the cluster, possibly several runes
	Rune  rune   // first rune, what a single terminal cell can hold
	Width int    // 0, 1 or 2 cells
	Seg   *Segment
}

// Each calls fn for every grapheme cluster in order; fn returning false stops iteration
func (s Strip) Each(fn func(c Cluster) bool) {
	x := 0
	for i := range s.segs {
		seg := &s.segs[i]
		rest := seg.Text
		state := -1
		for rest != "" {
			var cluster string
			cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
			r := []rune(cluster)[0]
			w := runewidth.StringWidth(cluster)
			if !fn(Cluster{X: x, Text: cluster, Rune: r, Width: w, Seg: seg}) {
				return
			}
			x += w
		}
	}
}

// Crop returns the cells in [start, end); a wide cluster straddling an edge becomes a space
func (s Strip) Crop(start, end int) Strip {
	if start < 0 {
		start = 0
	}
	if end > s.width {
		end = s.width
	}
	if start == 0 && end == s.width {
		return s
	}
	if end <= start {
		return Strip{}
	}

	var out []Segment
	var cur *Segment
	var b strings.Builder
	flush := func() {
		if cur != nil && b.Len() > 0 {
			seg := *cur
			seg.Text = b.String()
			out = append(out, seg)
		}
		b.Reset()
	}

	s.Each(func(c Cluster) bool {
		if c.X >= end {
			return false
		}
		if c.X+c.Width <= start {
			return true
		}
		if c.Seg != cur {
			flush()
			cur = c.Seg
		}
		// Split wide cluster: keep the visible half as padding
		if c.X < start || c.X+c.Width > end {
			visible := min(c.X+c.Width, end) - max(c.X, start)
			b.WriteString(strings.Repeat(" ", visible))
			return true
		}
		b.WriteString(c.Text)
		return true
	})
	flush()
	return New(out...)
}

// Align pads the strip to width using align, cropping when it is wider
func (s Strip) Align(width int, align style.HAlign) Strip {
	if s.width >= width {
		return s.Crop(0, width)
	}
	gap := width - s.width
	var left int
	switch align {
	case style.AlignCenter:
		left = gap / 2
	case style.AlignRight:
		left = gap
	}
	segs := make([]Segment, 0, len(s.segs)+2)
	if left > 0 {
		segs = append(segs, Segment{Text: strings.Repeat(" ", left)})
	}
	segs = append(segs, s.segs...)
	if right := gap - left; right > 0 {
		segs = append(segs, Segment{Text: strings.Repeat(" ", right)})
	}
	return New(segs...)
}
