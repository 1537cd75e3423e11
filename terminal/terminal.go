package terminal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// Attr represents text attributes (bitmask)
type Attr uint16

const (
	AttrNone      Attr = 0
	AttrBold      Attr = 1 << 0
	AttrDim       Attr = 1 << 1
	AttrItalic    Attr = 1 << 2
	AttrUnderline Attr = 1 << 3
	AttrBlink     Attr = 1 << 4
	AttrReverse   Attr = 1 << 5
	AttrFg256     Attr = 1 << 6 // Fg.R is 256-color palette index
	AttrBg256     Attr = 1 << 7 // Bg.R is 256-color palette index
	AttrStrike    Attr = 1 << 8
	AttrWideTail  Attr = 1 << 9 // Right half of a double-width rune, never written
)

// AttrStyle masks only the style bits (excludes color mode and layout flags)
const AttrStyle Attr = AttrBold | AttrDim | AttrItalic | AttrUnderline | AttrBlink | AttrReverse | AttrStrike

// Cell represents a single terminal cell
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// Span is a horizontal run of cells to be written starting at (X, Y)
type Span struct {
	X, Y  int
	Cells []Cell
}

// IOError reports a failure of the output channel; it is fatal to the session
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("terminal %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Terminal provides low-level terminal access
type Terminal interface {
	// Init enters raw mode, alternate screen buffer, hides cursor
	Init() error

	// Fini restores terminal state. Safe to call multiple times
	Fini()

	// Size returns current terminal dimensions
	Size() (width, height int)

	// ResizeChan returns channel that receives resize events, latest size wins
	ResizeChan() <-chan ResizeEvent

	// Input returns raw input bytes; closed when the reader stops
	Input() <-chan []byte

	// ColorMode returns detected color capability
	ColorMode() ColorMode

	// WriteSpans writes changed runs; full clears the screen to bg first
	WriteSpans(spans []Span, full bool, bg RGB) error

	// SetCursorVisible shows/hides cursor
	SetCursorVisible(visible bool) error
}

// ResizeEvent represents a terminal resize
type ResizeEvent struct {
	Width  int
	Height int
}

// termImpl implements Terminal using the Backend interface
type termImpl struct {
	backend Backend

	output   *outputBuffer
	resizeCh chan ResizeEvent
	inputCh  chan []byte
	stopCh   chan struct{}
	doneCh   chan struct{}

	cursorVisible atomic.Bool

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// New creates a Terminal over stdin/stdout
// colorMode is optional, defaulting to environment detection
func New(colorMode ...ColorMode) Terminal {
	c := DetectColorMode()
	if len(colorMode) > 0 {
		c = colorMode[0]
	}
	return NewWithBackend(newBackend(), c)
}

// NewWithBackend creates a Terminal over an explicit backend
func NewWithBackend(b Backend, colorMode ColorMode) Terminal {
	return &termImpl{
		backend:  b,
		output:   newOutputBuffer(backendWriter{b}, colorMode),
		resizeCh: make(chan ResizeEvent, 1),
		inputCh:  make(chan []byte, 16),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Init enters raw mode and sets up terminal
func (t *termImpl) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}

	if err := t.backend.Init(); err != nil {
		return err
	}

	t.backend.SetResizeHandler(t.postResize)

	// Alternate screen, hidden cursor, no auto-wrap (bottom-right writes must not scroll)
	if err := t.output.raw(csiAltScreenEnter, csiCursorHide, csiAutoWrapOff); err != nil {
		t.backend.Fini()
		return err
	}
	t.cursorVisible.Store(false)

	go t.readLoop()

	t.initialized = true
	return nil
}

// postResize delivers the newest size, replacing any undelivered one
func (t *termImpl) postResize(w, h int) {
	ev := ResizeEvent{Width: w, Height: h}
	select {
	case t.resizeCh <- ev:
	default:
		select {
		case <-t.resizeCh:
		default:
		}
		select {
		case t.resizeCh <- ev:
		default:
		}
	}
}

// readLoop pumps raw input bytes until Fini or read error
func (t *termImpl) readLoop() {
	defer close(t.doneCh)
	defer close(t.inputCh)

	for {
		data, err := t.backend.Read(t.stopCh)
		if err != nil || data == nil {
			return
		}
		select {
		case t.inputCh <- data:
		case <-t.stopCh:
			return
		}
	}
}

// Fini restores terminal state
func (t *termImpl) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}

	close(t.stopCh)
	<-t.doneCh

	// Re-enable auto-wrap after leaving the alt screen so the main buffer wraps again
	t.output.raw(csiCursorShow, csiAltScreenExit, csiAutoWrapOn, csiSGR0)

	t.backend.Fini()
	t.finalized = true
}

// Size returns current terminal dimensions
func (t *termImpl) Size() (int, int) {
	return t.backend.Size()
}

// ResizeChan returns the resize event channel
func (t *termImpl) ResizeChan() <-chan ResizeEvent {
	return t.resizeCh
}

// Input returns the raw input channel
func (t *termImpl) Input() <-chan []byte {
	return t.inputCh
}

// ColorMode returns detected color capability
func (t *termImpl) ColorMode() ColorMode {
	return t.output.colorMode
}

// WriteSpans writes the runs of one frame
// Holds lock for entire operation so cursor state stays consistent
func (t *termImpl) WriteSpans(spans []Span, full bool, bg RGB) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return nil
	}

	if full {
		t.output.clear(bg)
	}
	return t.output.writeSpans(spans)
}

// SetCursorVisible shows/hides cursor
func (t *termImpl) SetCursorVisible(visible bool) error {
	if t.cursorVisible.Swap(visible) == visible {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return nil
	}

	if visible {
		return t.output.raw(csiCursorShow)
	}
	return t.output.raw(csiCursorHide)
}

// backendWriter adapts Backend.Write to io.Writer for buffered output
type backendWriter struct {
	b Backend
}

func (w backendWriter) Write(p []byte) (int, error) {
	if err := w.b.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Fini() cannot be called normally
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
