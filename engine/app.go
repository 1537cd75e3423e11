package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lixenwraith/trellis/compositor"
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/layout"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/tree"
)

var (
	// ErrSuperseded reports a pass abandoned because a newer resize arrived
	ErrSuperseded = errors.New("pass superseded by resize")
	// ErrRunning is returned by a second concurrent Run
	ErrRunning = errors.New("app already running")
)

const (
	DefaultMaxFPS    = 60
	DefaultQueueSize = 1024

	// maxAttempts bounds back-to-back superseded passes within one tick
	maxAttempts = 8
)

// Message is work executed on the run loop with the session
type Message func(s *Session)

// Options configures an App; zero fields take defaults
type Options struct {
	MaxFPS    int
	QueueSize int
	Base      terminal.Cell // cell every frame starts from
	Logger    *log.Logger

	// OnInput receives raw input from screens implementing InputSource
	OnInput func(s *Session, data []byte)
	// OnCrash handles a recovered panic; HandleCrash by default
	OnCrash func(r any)
}

// Stats counts run loop activity; safe to read from any goroutine
type Stats struct {
	Passes          uint64 // passes started
	Superseded      uint64 // passes abandoned for a newer resize
	Frames          uint64 // frames handed to the presenter
	Written         uint64 // updates applied to the screen
	FramesDropped   uint64 // frames replaced before the presenter reached them
	MessagesDropped uint64 // messages overwritten in a full queue
	PaintErrors     uint64
}

// App runs one session: a single loop goroutine owns the tree, cascade, layout and
// compositor, and a presenter goroutine writes finished frames to the screen
type App struct {
	opts   Options
	logger *log.Logger
	screen Screen

	queue    *Queue[Message]
	wake     chan struct{}
	session  *Session
	resolver *layout.Resolver
	comp     *compositor.Compositor
	pres     *presenter

	ctx    context.Context // canceled when Run returns
	cancel context.CancelFunc

	// Resize notifications arrive on another goroutine; the loop compares generations
	resizeGen  atomic.Uint64
	latest     atomic.Pointer[geom.Size]
	appliedGen uint64

	size geom.Size
	full bool // next frame must clear the screen
	quit bool

	running atomic.Bool
	wg      sync.WaitGroup

	passes      atomic.Uint64
	superseded  atomic.Uint64
	frames      atomic.Uint64
	paintErrors atomic.Uint64
}

// New creates an app presenting to screen with root as the tree root
func New(screen Screen, root tree.Widget, opts Options) *App {
	if opts.MaxFPS <= 0 {
		opts.MaxFPS = DefaultMaxFPS
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.OnCrash == nil {
		opts.OnCrash = HandleCrash
	}
	if opts.Base.Rune == 0 {
		opts.Base.Rune = ' '
	}

	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		opts:     opts,
		logger:   opts.Logger,
		screen:   screen,
		queue:    NewQueue[Message](opts.QueueSize),
		wake:     make(chan struct{}, 1),
		resolver: layout.New(opts.Logger),
		comp:     compositor.New(opts.Logger, opts.Base),
		pres:     newPresenter(screen, opts.Base.Bg),
		ctx:      ctx,
		cancel:   cancel,
		full:     true,
	}
	a.session = newSession(a, root, opts.Logger)
	return a
}

// Session returns the session; use it before Run or from messages only
func (a *App) Session() *Session {
	return a.session
}

// Post queues msg for the run loop; safe from any goroutine
func (a *App) Post(msg Message) {
	if msg == nil {
		return
	}
	a.queue.Push(msg)
	a.signal()
}

// Go runs work on a new goroutine and posts the message it returns, if any
// work's context is canceled when Run returns
func (a *App) Go(work func(ctx context.Context) Message) {
	go func() {
		defer a.handlePanic()
		if msg := work(a.ctx); msg != nil {
			a.Post(msg)
		}
	}()
}

// After posts msg once d has elapsed; stop cancels it
func (a *App) After(d time.Duration, msg Message) (stop func() bool) {
	t := time.AfterFunc(d, func() {
		if a.ctx.Err() == nil {
			a.Post(msg)
		}
	})
	return t.Stop
}

// Quit ends Run; safe from any goroutine
func (a *App) Quit() {
	a.Post(func(s *Session) { s.Quit() })
}

// Stats returns a snapshot of the loop counters
func (a *App) Stats() Stats {
	return Stats{
		Passes:          a.passes.Load(),
		Superseded:      a.superseded.Load(),
		Frames:          a.frames.Load(),
		Written:         a.pres.written.Load(),
		FramesDropped:   a.pres.dropped.Load(),
		MessagesDropped: a.queue.Dropped(),
		PaintErrors:     a.paintErrors.Load(),
	}
}

func (a *App) signal() {
	select {
	case a.wake <- struct{}{}:
	default:
	}
}

// Run processes messages and renders frames until Quit, ctx cancellation, or a screen write error
// A write error is fatal and returned; cancellation returns ctx's error. Run may be called once
func (a *App) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer a.handlePanic()

	stop := context.AfterFunc(ctx, a.cancel)
	defer stop()

	w, h := a.screen.Size()
	a.resized(geom.Size{W: w, H: h})

	errc := make(chan error, 1)
	a.spawn(func() {
		if err := a.pres.run(a.ctx); err != nil {
			errc <- err
		}
	})
	a.spawn(a.watchResize)
	if in, ok := a.screen.(InputSource); ok && a.opts.OnInput != nil {
		a.spawn(func() { a.forwardInput(in.Input()) })
	}

	ticker := time.NewTicker(time.Second / time.Duration(a.opts.MaxFPS))
	err := a.loop(ticker.C, errc)
	ticker.Stop()

	a.cancel()
	a.wg.Wait()
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return err
}

func (a *App) loop(tick <-chan time.Time, errc <-chan error) error {
	a.drain()
	for !a.quit {
		select {
		case <-a.ctx.Done():
			return nil
		case err := <-errc:
			return fmt.Errorf("present: %w", err)
		case <-a.wake:
			a.drain()
		case <-tick:
			a.drain()
			if !a.quit && a.needsPass() {
				a.frame()
			}
		}
	}
	return nil
}

// drain runs every queued message in FIFO order
func (a *App) drain() {
	for _, msg := range a.queue.Consume() {
		msg(a.session)
	}
}

// needsPass reports whether anything changed since the last frame
func (a *App) needsPass() bool {
	return a.resizeGen.Load() != a.appliedGen || a.session.tree.Pending() != 0 || a.session.stale
}

// frame runs passes until one completes or the attempt budget is spent
// Whatever a superseded pass produced is discarded and the next pass starts from Unmeasured
func (a *App) frame() {
	for range maxAttempts {
		err := a.pass()
		if err == nil {
			return
		}
		if !errors.Is(err, ErrSuperseded) {
			a.logger.Printf("engine: pass: %v", err)
			return
		}
		a.superseded.Add(1)
		a.logger.Printf("engine: %v", err)
		a.session.tree.MarkAll(tree.DirtyLayout | tree.DirtyPaint)
		a.comp.Invalidate()
		a.full = true
	}
}

// pass restyles, lays out and composes once, checking for a newer resize between stages
func (a *App) pass() error {
	a.passes.Add(1)
	gen := a.applyResize()
	s := a.session

	if _, err := s.restyle(); err != nil {
		return err
	}
	if a.resizeGen.Load() != gen {
		return ErrSuperseded
	}

	a.resolver.Resolve(s.tree, a.size)
	if a.resizeGen.Load() != gen {
		return ErrSuperseded
	}

	f := a.comp.Compose(s.tree, a.size)
	if a.resizeGen.Load() != gen {
		return ErrSuperseded
	}

	a.commit(f)
	a.frames.Add(1)
	a.pres.submit(job{buf: f.Buffer, full: a.full, update: &f.Update, base: f.Base})
	a.full = false
	return nil
}

// applyResize adopts the newest screen size; a real change rewinds every node
func (a *App) applyResize() uint64 {
	gen := a.resizeGen.Load()
	if gen == a.appliedGen {
		return gen
	}
	a.appliedGen = gen
	size := a.latest.Load().Clamp()
	if size == a.size {
		return gen
	}
	a.logger.Printf("engine: resize %dx%d -> %dx%d", a.size.W, a.size.H, size.W, size.H)
	a.size = size
	a.session.screen = size
	a.session.tree.MarkAll(tree.DirtyLayout | tree.DirtyPaint)
	a.comp.Invalidate()
	a.full = true
	return gen
}

// commit records a finished frame on the tree: painted nodes are composited and
// every dirty flag is consumed
func (a *App) commit(f *compositor.Frame) {
	t := a.session.tree
	t.Walk(func(n *tree.Node) bool {
		n.ClearDirty(tree.DirtyAll)
		return true
	})
	for _, id := range f.Painted {
		if n, ok := t.Get(id); ok {
			n.SetState(tree.StateComposited)
		}
	}
	t.ClearPending()
	for _, id := range t.TakeRemoved() {
		a.comp.Forget(id)
	}
	a.paintErrors.Add(uint64(len(f.Errors)))
}

// resized records a new screen size; the loop picks it up between pass stages
func (a *App) resized(size geom.Size) {
	a.latest.Store(&size)
	a.resizeGen.Add(1)
	a.signal()
}

func (a *App) watchResize() {
	ch := a.screen.ResizeChan()
	for {
		select {
		case <-a.ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			a.resized(geom.Size{W: ev.Width, H: ev.Height})
		}
	}
}

func (a *App) forwardInput(in <-chan []byte) {
	for {
		select {
		case <-a.ctx.Done():
			return
		case data, ok := <-in:
			if !ok {
				return
			}
			a.Post(func(s *Session) { a.opts.OnInput(s, data) })
		}
	}
}
