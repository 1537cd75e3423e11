package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lixenwraith/trellis/compositor"
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/tree"
)

const waitTimeout = 2 * time.Second

// fakeScreen records applied updates in memory
type fakeScreen struct {
	size    atomic.Pointer[geom.Size]
	resize  chan terminal.ResizeEvent
	updates chan compositor.Update
	err     error
	entered chan struct{} // Apply announces itself when set
	release chan struct{} // Apply waits for it when set
}

func newFakeScreen(w, h int) *fakeScreen {
	s := &fakeScreen{
		resize:  make(chan terminal.ResizeEvent, 4),
		updates: make(chan compositor.Update, 64),
	}
	s.size.Store(&geom.Size{W: w, H: h})
	return s
}

func (s *fakeScreen) Size() (int, int) {
	sz := s.size.Load()
	return sz.W, sz.H
}

func (s *fakeScreen) ResizeChan() <-chan terminal.ResizeEvent { return s.resize }

func (s *fakeScreen) Apply(u *compositor.Update) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.release != nil {
		<-s.release
	}
	if s.err != nil {
		return s.err
	}
	s.updates <- *u
	return nil
}

func (s *fakeScreen) setSize(w, h int) {
	s.size.Store(&geom.Size{W: w, H: h})
	s.resize <- terminal.ResizeEvent{Width: w, Height: h}
}

func (s *fakeScreen) next(t *testing.T) compositor.Update {
	t.Helper()
	select {
	case u := <-s.updates:
		return u
	case <-time.After(waitTimeout):
		t.Fatal("no update applied")
		return compositor.Update{}
	}
}

// label is a one-line widget
type label struct {
	typ       string
	text      string
	css       string
	cssCalls  *int
	renders   atomic.Int32
	onMeasure func()
}

func (l *label) TypeName() string {
	if l.typ == "" {
		return "Label"
	}
	return l.typ
}

func (l *label) DefaultCSS() string {
	if l.cssCalls != nil {
		*l.cssCalls++
	}
	return l.css
}

func (l *label) Measure(maxWidth int) geom.Size {
	if f := l.onMeasure; f != nil {
		l.onMeasure = nil
		f()
	}
	return geom.Size{W: strip.Width(l.text), H: 1}
}

func (l *label) Render(size geom.Size, st *style.Computed) ([]strip.Strip, error) {
	l.renders.Add(1)
	return []strip.Strip{strip.Plain(l.text)}, nil
}

func newApp(t *testing.T, screen Screen) *App {
	return New(screen, &label{typ: "Screen"}, Options{
		MaxFPS:  200,
		OnCrash: func(r any) { t.Errorf("panic: %v", r) },
	})
}

// start runs a in the background; the returned func cancels and waits for Run
func start(t *testing.T, a *App) func() error {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	return func() error {
		cancel()
		select {
		case err := <-done:
			return err
		case <-time.After(waitTimeout):
			t.Fatal("Run did not return")
			return nil
		}
	}
}

func rowText(u compositor.Update, y int) string {
	var b strings.Builder
	for _, r := range u.Runs {
		if r.Y != y {
			continue
		}
		for _, c := range r.Cells {
			if c.Attrs&terminal.AttrWideTail == 0 {
				b.WriteRune(c.Rune)
			}
		}
	}
	return b.String()
}

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](8)
	for i := range 5 {
		q.Push(i)
	}
	if q.Len() != 5 {
		t.Errorf("Len = %d", q.Len())
	}
	got := q.Consume()
	if fmt.Sprint(got) != "[0 1 2 3 4]" {
		t.Errorf("Consume = %v", got)
	}
	if q.Consume() != nil || q.Len() != 0 {
		t.Error("queue should be empty")
	}
}

func TestQueueOverflowDropsOldest(t *testing.T) {
	q := NewQueue[int](4)
	for i := range 6 {
		q.Push(i)
	}
	if got := q.Consume(); fmt.Sprint(got) != "[2 3 4 5]" {
		t.Errorf("Consume = %v", got)
	}
	if q.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", q.Dropped())
	}
}

func TestQueueCapacity(t *testing.T) {
	tests := []struct{ size, want int }{
		{0, 2},
		{2, 2},
		{5, 8},
		{1024, 1024},
	}
	for _, tt := range tests {
		if got := NewQueue[int](tt.size).Cap(); got != tt.want {
			t.Errorf("NewQueue(%d).Cap() = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	q := NewQueue[int](1024)
	const producers, each = 8, 100
	done := make(chan struct{})
	for p := range producers {
		go func() {
			for i := range each {
				q.Push(p*each + i)
			}
			done <- struct{}{}
		}()
	}
	for range producers {
		<-done
	}

	seen := make(map[int]bool)
	for _, v := range q.Consume() {
		seen[v] = true
	}
	if len(seen) != producers*each {
		t.Errorf("consumed %d distinct entries, want %d", len(seen), producers*each)
	}
}

func TestQueueOverflowWhileDraining(t *testing.T) {
	q := NewQueue[int](2)
	const producers, each = 4, 5000

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				q.Push(p*each + i)
			}
		}()
	}
	stop := make(chan struct{})
	go func() {
		wg.Wait()
		close(stop)
	}()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	delivered := 0
	record := func(batch []int) {
		for _, v := range batch {
			p, i := v/each, v%each
			if i <= last[p] {
				t.Fatalf("producer %d: %d after %d", p, i, last[p])
			}
			last[p] = i
			delivered++
		}
	}
	for done := false; !done; {
		select {
		case <-stop:
			done = true
		default:
		}
		record(q.Consume())
	}
	record(q.Consume())

	if got := uint64(delivered) + q.Dropped(); got != producers*each {
		t.Errorf("delivered %d + dropped %d = %d, want %d", delivered, q.Dropped(), got, producers*each)
	}
}

func TestRunFirstFrameIsFull(t *testing.T) {
	screen := newFakeScreen(80, 24)
	a := newApp(t, screen)
	s := a.Session()
	if _, err := s.Mount(s.Root(), &label{text: "hello"}); err != nil {
		t.Fatal(err)
	}
	stop := start(t, a)

	u := screen.next(t)
	if !u.Full || u.Size != (geom.Size{W: 80, H: 24}) || len(u.Runs) != 24 {
		t.Errorf("first update full=%v size=%v runs=%d", u.Full, u.Size, len(u.Runs))
	}
	if got := rowText(u, 0); !strings.HasPrefix(got, "hello") {
		t.Errorf("row 0 = %q", got)
	}
	if err := stop(); !errors.Is(err, context.Canceled) {
		t.Errorf("Run = %v, want context.Canceled", err)
	}
}

func TestResizeProducesFullUpdate(t *testing.T) {
	screen := newFakeScreen(80, 24)
	a := newApp(t, screen)
	s := a.Session()
	s.Mount(s.Root(), &label{text: "hello"})
	stop := start(t, a)
	defer stop()

	screen.next(t)
	screen.setSize(100, 30)

	u := screen.next(t)
	if !u.Full {
		t.Error("update after resize must be full")
	}
	if u.Size != (geom.Size{W: 100, H: 30}) || len(u.Runs) != 30 || len(u.Runs[0].Cells) != 100 {
		t.Errorf("size=%v runs=%d", u.Size, len(u.Runs))
	}
	if got := rowText(u, 0); !strings.HasPrefix(got, "hello") {
		t.Errorf("row 0 = %q", got)
	}
}

func TestResizeSupersedesPass(t *testing.T) {
	screen := newFakeScreen(80, 24)
	a := newApp(t, screen)
	s := a.Session()
	l := &label{text: "x"}
	// A resize lands while the first pass is measuring
	l.onMeasure = func() { a.resized(geom.Size{W: 100, H: 30}) }
	s.Mount(s.Root(), l)
	stop := start(t, a)
	defer stop()

	u := screen.next(t)
	if !u.Full || u.Size != (geom.Size{W: 100, H: 30}) {
		t.Errorf("first update full=%v size=%v, want full 100x30", u.Full, u.Size)
	}
	st := a.Stats()
	if st.Superseded != 1 || st.Frames != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestCoalescedInvalidation(t *testing.T) {
	screen := newFakeScreen(20, 3)
	a := newApp(t, screen)
	s := a.Session()
	l := &label{text: "start"}
	id, _ := s.Mount(s.Root(), l)
	for i := range 50 {
		a.Post(func(s *Session) {
			l.text = fmt.Sprintf("v%d", i)
			s.Refresh(id, true)
		})
	}
	stop := start(t, a)

	u := screen.next(t)
	if got := rowText(u, 0); !strings.HasPrefix(got, "v49 ") {
		t.Errorf("row 0 = %q", got)
	}
	time.Sleep(50 * time.Millisecond)
	stop()

	if p := a.Stats().Passes; p != 1 {
		t.Errorf("passes = %d, want 1", p)
	}
	if r := l.renders.Load(); r != 1 {
		t.Errorf("renders = %d, want 1", r)
	}
}

func TestWriteErrorStopsRun(t *testing.T) {
	screen := newFakeScreen(10, 2)
	screen.err = &terminal.IOError{Op: "write", Err: io.ErrClosedPipe}
	a := newApp(t, screen)

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()

	select {
	case err := <-done:
		var ioErr *terminal.IOError
		if !errors.As(err, &ioErr) || !errors.Is(err, io.ErrClosedPipe) {
			t.Errorf("Run = %v, want terminal.IOError", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Run kept going after a write error")
	}
}

func TestGoAfterQuit(t *testing.T) {
	a := newApp(t, newFakeScreen(10, 2))
	var got atomic.Int32
	a.Go(func(ctx context.Context) Message {
		return func(s *Session) {
			got.Add(1)
			a.After(5*time.Millisecond, func(s *Session) {
				got.Add(10)
				s.Quit()
			})
		}
	})

	done := make(chan error, 1)
	go func() { done <- a.Run(context.Background()) }()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(waitTimeout):
		t.Fatal("Quit did not end Run")
	}
	if got.Load() != 11 {
		t.Errorf("got = %d, want 11", got.Load())
	}
	if err := a.Run(context.Background()); !errors.Is(err, ErrRunning) {
		t.Errorf("second Run = %v", err)
	}
}

func TestPresenterDropsIntermediateFrames(t *testing.T) {
	screen := newFakeScreen(4, 1)
	screen.entered = make(chan struct{})
	screen.release = make(chan struct{})
	p := newPresenter(screen, terminal.RGB{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.run(ctx)

	base := terminal.Cell{Rune: 'a'}
	frame := func(text string) *compositor.Buffer {
		b := compositor.NewBuffer(4, 1, base)
		for x, r := range text {
			b.Set(x, 0, terminal.Cell{Rune: r})
		}
		return b
	}

	p.submit(job{buf: frame("aaaa"), full: true})
	<-screen.entered // presenter is busy writing the first frame
	p.submit(job{buf: frame("abaa")})
	p.submit(job{buf: frame("abca")})
	if d := p.dropped.Load(); d != 1 {
		t.Errorf("dropped = %d, want 1", d)
	}
	screen.release <- struct{}{}
	if u := screen.next(t); !u.Full {
		t.Error("first write should be full")
	}

	<-screen.entered
	screen.release <- struct{}{}
	u := screen.next(t)
	if u.Full || len(u.Runs) != 1 || u.Runs[0].X != 1 || rowText(u, 0) != "bc" {
		t.Errorf("second write = %+v, want run \"bc\" at 1 against the last written frame", u)
	}
}

func TestPresenterReusesComposedUpdate(t *testing.T) {
	screen := newFakeScreen(4, 1)
	p := newPresenter(screen, terminal.RGB{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go p.run(ctx)

	frame := func(text string) *compositor.Buffer {
		b := compositor.NewBuffer(4, 1, terminal.Cell{Rune: 'a'})
		for x, r := range text {
			b.Set(x, 0, terminal.Cell{Rune: r})
		}
		return b
	}
	marked := func(full bool, r rune) *compositor.Update {
		return &compositor.Update{Full: full, Size: geom.Size{W: 4, H: 1}, Runs: []compositor.Run{
			{X: 0, Y: 0, Cells: []terminal.Cell{{Rune: r}}},
		}}
	}

	b1, b2, b3 := frame("aaaa"), frame("abaa"), frame("abca")
	p.submit(job{buf: b1, full: true, update: marked(true, 'x')})
	if u := screen.next(t); rowText(u, 0) != "x" {
		t.Errorf("full composed update not reused: %q", rowText(u, 0))
	}

	p.submit(job{buf: b2, update: marked(false, 'y'), base: b1})
	if u := screen.next(t); rowText(u, 0) != "y" {
		t.Errorf("update based on the written frame not reused: %q", rowText(u, 0))
	}

	// based on a frame that was never written
	p.submit(job{buf: b3, update: marked(false, 'z'), base: b1})
	u := screen.next(t)
	if u.Full || len(u.Runs) != 1 || u.Runs[0].X != 1 || rowText(u, 0) != "bc" {
		t.Errorf("stale base = %+v, want a fresh diff against the written frame", u)
	}
}

func TestSessionHitTestAndMeasure(t *testing.T) {
	screen := newFakeScreen(10, 4)
	a := newApp(t, screen)
	s := a.Session()
	id, err := s.Mount(s.Root(), &label{text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	stop := start(t, a)
	defer stop()
	screen.next(t)

	type result struct {
		top, below     tree.NodeID
		topOK, belowOK bool
		size           geom.Size
	}
	got := make(chan result, 1)
	a.Post(func(s *Session) {
		var r result
		r.top, r.topOK = s.HitTest(1, 0)
		r.below, r.belowOK = s.HitTest(1, 3)
		r.size = s.Measure(id, 80)
		got <- r
	})

	select {
	case r := <-got:
		if !r.topOK || r.top != id {
			t.Errorf("HitTest(1, 0) = %v %v, want label %v", r.top, r.topOK, id)
		}
		if !r.belowOK || r.below != s.Root() {
			t.Errorf("HitTest(1, 3) = %v %v, want root", r.below, r.belowOK)
		}
		if r.size != (geom.Size{W: 2, H: 1}) {
			t.Errorf("Measure = %+v, want 2x1", r.size)
		}
	case <-time.After(waitTimeout):
		t.Fatal("message not run")
	}
}

func TestDefaultCSSOncePerType(t *testing.T) {
	a := newApp(t, newFakeScreen(20, 10))
	s := a.Session()
	if err := s.AddStylesheet("app", "Label { color: #00ff00; }"); err != nil {
		t.Fatal(err)
	}

	calls := 0
	css := "Label { color: #ff0000; height: 2; }"
	var ids []tree.NodeID
	for range 3 {
		id, _ := s.Mount(s.Root(), &label{css: css, cssCalls: &calls})
		ids = append(ids, id)
	}
	if _, err := s.restyle(); err != nil {
		t.Fatal(err)
	}
	s.Mount(s.Root(), &label{css: css, cssCalls: &calls})
	s.restyle()

	if calls != 1 {
		t.Errorf("DefaultCSS called %d times, want 1", calls)
	}
	st := s.Tree().MustGet(ids[0]).Style
	if st.Color != style.Solid(0, 0xff, 0) {
		t.Errorf("color = %+v, application rule should beat the default", st.Color)
	}
	if st.Height != style.Cells(2) {
		t.Errorf("height = %+v, default rule should still apply", st.Height)
	}
}

// settle consumes dirty flags the way a committed frame does
func settle(s *Session) {
	s.tree.Walk(func(n *tree.Node) bool {
		n.ClearDirty(tree.DirtyAll)
		return true
	})
	s.tree.ClearPending()
}

func TestThemeVariableOverride(t *testing.T) {
	a := newApp(t, newFakeScreen(20, 10))
	s := a.Session()
	s.AddStylesheet("app", "$accent: #ff0000; Label { color: $accent; }")
	id, _ := s.Mount(s.Root(), &label{text: "x"})
	s.restyle()
	n := s.Tree().MustGet(id)
	if n.Style.Color != style.Solid(0xff, 0, 0) {
		t.Fatalf("color = %+v", n.Style.Color)
	}
	settle(s)

	if err := s.SetVariable("accent", "#0000ff"); err != nil {
		t.Fatal(err)
	}
	s.restyle()
	if n.Style.Color != style.Solid(0, 0, 0xff) {
		t.Errorf("color after override = %+v", n.Style.Color)
	}
	if n.Dirty() != tree.DirtyPaint {
		t.Errorf("dirty = %v, a color change needs paint only", n.Dirty())
	}
	if got := s.Variables()["accent"]; got != "#0000ff" {
		t.Errorf("Variables = %v", s.Variables())
	}
}

func TestLayoutChangeMarksParent(t *testing.T) {
	a := newApp(t, newFakeScreen(20, 10))
	s := a.Session()
	s.AddStylesheet("app", ".tall { height: 5; }")
	box, _ := s.Mount(s.Root(), &label{typ: "Box"})
	leaf, _ := s.Mount(box, &label{text: "x"})
	s.restyle()
	settle(s)

	s.Tree().AddClass(leaf, "tall")
	s.restyle()
	if d := s.Tree().MustGet(leaf).Dirty(); d&tree.DirtyLayout == 0 {
		t.Errorf("leaf dirty = %v, want layout", d)
	}
	if d := s.Tree().MustGet(box).Dirty(); d&tree.DirtyLayout == 0 {
		t.Errorf("parent dirty = %v, want layout", d)
	}
}

func TestMalformedSheetStillApplies(t *testing.T) {
	a := newApp(t, newFakeScreen(20, 10))
	s := a.Session()
	err := s.AddStylesheet("app", "Label { color: ; height: 3; } Label { background: #101010; }")
	if err == nil {
		t.Error("malformed declaration should be reported")
	}
	id, _ := s.Mount(s.Root(), &label{})
	s.restyle()
	st := s.Tree().MustGet(id).Style
	if st.Height != style.Cells(3) || st.Background != style.Solid(0x10, 0x10, 0x10) {
		t.Errorf("height=%+v background=%+v", st.Height, st.Background)
	}
}
