package compositor

import (
	"slices"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/terminal"
)

// Run is a horizontal span of changed cells
type Run = terminal.Span

// Update is what the terminal must do to show a frame
type Update struct {
	Full       bool         // clear to Background before applying Runs
	Size       geom.Size    // frame size
	Background terminal.RGB // clear color for full updates
	Runs       []Run
}

// Empty reports whether applying the update changes nothing
func (u *Update) Empty() bool {
	return !u.Full && len(u.Runs) == 0
}

// Diff returns the runs of next that differ from prev, row by row
// Adjacent changed cells coalesce into one run; both halves of a changed wide glyph are
// included. A nil prev or a size change yields every row of next
func Diff(prev, next *Buffer) []Run {
	if prev == nil || prev.width != next.width || prev.height != next.height {
		return fullRuns(next)
	}

	var runs []Run
	for y := 0; y < next.height; y++ {
		pr, nr := prev.Row(y), next.Row(y)
		last := 0
		for x := 0; x < next.width; {
			if pr[x] == nr[x] {
				x++
				continue
			}
			start := x
			if start > last && nr[start].Attrs&terminal.AttrWideTail != 0 {
				start--
			}
			end := x + 1
			for end < next.width && pr[end] != nr[end] {
				end++
			}
			if end < next.width && nr[end].Attrs&terminal.AttrWideTail != 0 {
				end++
			}
			runs = append(runs, Run{X: start, Y: y, Cells: slices.Clone(nr[start:end])})
			last = end
			x = end
		}
	}
	return runs
}

func fullRuns(b *Buffer) []Run {
	runs := make([]Run, 0, b.height)
	for y := 0; y < b.height; y++ {
		if b.width > 0 {
			runs = append(runs, Run{X: 0, Y: y, Cells: slices.Clone(b.Row(y))})
		}
	}
	return runs
}
