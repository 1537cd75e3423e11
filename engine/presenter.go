package engine

import (
	"context"
	"sync/atomic"

	"github.com/lixenwraith/trellis/compositor"
	"github.com/lixenwraith/trellis/terminal"
)

// job is a composed frame waiting to be written
type job struct {
	buf  *compositor.Buffer
	full bool // screen contents are unknown, clear before writing

	update *compositor.Update // composed diff, reused when written against base
	base   *compositor.Buffer
}

// presenter writes frames on its own goroutine so slow output never blocks the run loop
// The mailbox holds one frame; a newer frame replaces an unwritten one, and the presenter
// diffs its last written frame against whatever is newest
type presenter struct {
	screen Screen
	bg     terminal.RGB

	mailbox chan job
	last    *compositor.Buffer // last frame written, presenter goroutine only

	written atomic.Uint64
	dropped atomic.Uint64
}

func newPresenter(screen Screen, bg terminal.RGB) *presenter {
	return &presenter{
		screen:  screen,
		bg:      bg,
		mailbox: make(chan job, 1),
	}
}

// submit hands a frame to the presenter without blocking
// A frame still in the mailbox is dropped; its full flag carries over
func (p *presenter) submit(j job) {
	for {
		select {
		case p.mailbox <- j:
			return
		default:
		}
		select {
		case old := <-p.mailbox:
			j.full = j.full || old.full
			p.dropped.Add(1)
		default:
		}
	}
}

// run writes frames until ctx is done; the first write error is returned
func (p *presenter) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case j := <-p.mailbox:
			if err := p.flush(j); err != nil {
				return err
			}
		}
	}
}

// flush writes the difference between the last written frame and j
func (p *presenter) flush(j job) error {
	u := p.update(j)
	if !u.Empty() {
		if err := p.screen.Apply(u); err != nil {
			return err
		}
		p.written.Add(1)
	}
	p.last = j.buf
	return nil
}

// update reuses the composed diff when it still applies: it is full, or it was diffed
// against the last written frame and no clear is pending
func (p *presenter) update(j job) *compositor.Update {
	if u := j.update; u != nil && (u.Full || (!j.full && p.last != nil && j.base == p.last)) {
		return u
	}
	u := &compositor.Update{Size: j.buf.Size(), Background: p.bg}
	if j.full || p.last == nil || p.last.Size() != j.buf.Size() {
		u.Full = true
		u.Runs = compositor.Diff(nil, j.buf)
		return u
	}
	u.Runs = compositor.Diff(p.last, j.buf)
	return u
}
