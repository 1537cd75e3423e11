package engine

import (
	"github.com/lixenwraith/trellis/compositor"
	"github.com/lixenwraith/trellis/terminal"
)

// Screen is the output device a session presents frames to
// Apply is called from the presenter goroutine only; Size may be called from any goroutine
type Screen interface {
	Size() (width, height int)
	ResizeChan() <-chan terminal.ResizeEvent
	Apply(u *compositor.Update) error
}

// InputSource is implemented by screens that deliver raw input bytes
type InputSource interface {
	Input() <-chan []byte
}

// TerminalScreen presents frames on a terminal.Terminal
type TerminalScreen struct {
	terminal.Terminal
}

// NewTerminalScreen wraps an initialized terminal
func NewTerminalScreen(t terminal.Terminal) *TerminalScreen {
	return &TerminalScreen{Terminal: t}
}

// Apply writes the update's runs, clearing first when the update is full
func (s *TerminalScreen) Apply(u *compositor.Update) error {
	return s.WriteSpans(u.Runs, u.Full, u.Background)
}
