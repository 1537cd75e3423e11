package strip

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Wrap breaks text into lines no wider than width, on spaces where possible
// Explicit newlines always break; words wider than width are split at cluster boundaries
func Wrap(text string, width int) []string {
	if width <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(text, "\n") {
		lines = append(lines, wrapParagraph(para, width)...)
	}
	return lines
}

func wrapParagraph(para string, width int) []string {
	words := strings.Fields(para)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var line strings.Builder
	lineW := 0
	for _, word := range words {
		ww := Width(word)
		if lineW > 0 && lineW+1+ww <= width {
			line.WriteByte(' ')
			line.WriteString(word)
			lineW += 1 + ww
			continue
		}
		if lineW > 0 {
			lines = append(lines, line.String())
			line.Reset()
			lineW = 0
		}
		for ww > width {
			head, tail := splitAt(word, width)
			lines = append(lines, head)
			word = tail
			ww = Width(word)
		}
		line.WriteString(word)
		lineW = ww
	}
	if lineW > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// splitAt cuts s after at most width cells, always taking at least one cluster
func splitAt(s string, width int) (string, string) {
	rest := s
	state := -1
	used := 0
	cut := 0
	for rest != "" {
		var cluster string
		cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
		w := Width(cluster)
		if used+w > width && cut > 0 {
			break
		}
		used += w
		cut += len(cluster)
	}
	return s[:cut], s[cut:]
}

// MaxWidth returns the widest line's cell width
func MaxWidth(lines []string) int {
	w := 0
	for _, l := range lines {
		w = max(w, Width(l))
	}
	return w
}
