package compositor

import (
	"fmt"
	"io"
	"log"
	"slices"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/tree"
)

// PaintError reports a widget whose Render failed or panicked
// The widget's region shows a placeholder; the rest of the frame is unaffected
type PaintError struct {
	Node  tree.NodeID
	Type  string
	Err   error
	Panic bool
}

func (e *PaintError) Error() string {
	if e.Panic {
		return fmt.Sprintf("paint %s %v: panic: %v", e.Type, e.Node, e.Err)
	}
	return fmt.Sprintf("paint %s %v: %v", e.Type, e.Node, e.Err)
}

func (e *PaintError) Unwrap() error {
	return e.Err
}

// Titled widgets draw a title into the top border
type Titled interface {
	BorderTitle() string
}

// Frame is one composed screen
type Frame struct {
	Buffer  *Buffer
	Update  Update        // against Base, or full
	Base    *Buffer       // frame Update was diffed against, nil when full
	Painted []tree.NodeID // nodes painted, in paint order
	Errors  []error       // one PaintError per failed widget
}

// cached is the last render of a node
type cached struct {
	size  geom.Size
	style *style.Computed
	lines []strip.Strip
}

// Compositor paints a laid-out tree into cell buffers and diffs successive frames
// Owned by the run loop; it reads nodes and never modifies them
type Compositor struct {
	logger *log.Logger
	base   terminal.Cell

	prev  *Buffer
	cache map[tree.NodeID]*cached
}

// New creates a compositor; base is the cell every frame starts from
func New(logger *log.Logger, base terminal.Cell) *Compositor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if base.Rune == 0 {
		base.Rune = ' '
	}
	return &Compositor{
		logger: logger,
		base:   base,
		cache:  make(map[tree.NodeID]*cached),
	}
}

// Compose paints every visible node in (layer, document order) into a fresh buffer
// The update is full on the first frame, after Invalidate, and when the size changed
func (c *Compositor) Compose(t *tree.Tree, screen geom.Size) *Frame {
	screen = screen.Clamp()
	next := NewBuffer(screen.W, screen.H, c.base)
	frame := &Frame{Buffer: next}

	for _, n := range paintOrder(t) {
		if err := c.paint(next, n); err != nil {
			c.logger.Printf("compositor: %v", err)
			frame.Errors = append(frame.Errors, err)
		}
		frame.Painted = append(frame.Painted, n.ID())
	}

	frame.Update = Update{Size: screen, Background: c.base.Bg}
	if c.prev == nil || c.prev.Size() != screen {
		frame.Update.Full = true
	}
	if frame.Update.Full {
		frame.Update.Runs = Diff(nil, next)
	} else {
		frame.Base = c.prev
		frame.Update.Runs = Diff(c.prev, next)
	}
	c.prev = next
	return frame
}

// paintOrder returns the visible nodes sorted by layer, document order within a layer
func paintOrder(t *tree.Tree) []*tree.Node {
	var nodes []*tree.Node
	t.Walk(func(n *tree.Node) bool {
		if !n.Displayed() {
			return false
		}
		if n.Geometry.Visible {
			nodes = append(nodes, n)
		}
		return true
	})
	slices.SortStableFunc(nodes, func(a, b *tree.Node) int {
		return a.Geometry.Layer - b.Geometry.Layer
	})
	return nodes
}

// HitTest returns the topmost node painted at (x, y) in the last frame
func (c *Compositor) HitTest(x, y int) (tree.NodeID, bool) {
	if c.prev == nil {
		return tree.NodeID{}, false
	}
	id := c.prev.Owner(x, y)
	return id, !id.IsZero()
}

// Invalidate forgets the previous frame so the next update is full
func (c *Compositor) Invalidate() {
	c.prev = nil
}

// Forget drops the paint cache of an unmounted node
func (c *Compositor) Forget(id tree.NodeID) {
	delete(c.cache, id)
}

// Previous returns the last composed buffer, nil before the first frame
func (c *Compositor) Previous() *Buffer {
	return c.prev
}
