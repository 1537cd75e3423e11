package main

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/lixenwraith/trellis/engine"
	"github.com/lixenwraith/trellis/tree"
	"github.com/lixenwraith/trellis/widget"
)

const demoCSS = `
/* dashboard */
$accent: #64c8dc;
$panel: #1e2230;
$frame: #50648c;

Screen { layers: base overlay; }

#header {
	dock: top;
	height: 1;
	background: $accent;
	color: #000000;
	text-style: bold;
	text-align: center;
}
#footer { dock: bottom; height: 1; background: $panel; color: #808080; }

Sidebar { dock: left; width: 24; border: round $accent; padding: 0 1; }

Stats { layout: grid; grid-size: 3; grid-gutter: 0 1; height: 5; }
.stat { border: solid $frame; content-align: center middle; }
.stat.hot { color: #ffb464; }

#log { border: heavy $frame; overflow-y: auto; }

Toast {
	position: absolute;
	offset: 4 2;
	width: 32;
	height: 3;
	layer: overlay;
	border: double $accent;
	background: $panel;
	display: none;
}
Toast.shown { display: block; }
`

const (
	maxLogLines = 200
	tickEvery   = 500 * time.Millisecond
	toastFor    = 2 * time.Second
)

var accents = [...]string{"#64c8dc", "#dc64a0"}

type action int

const (
	actNone action = iota
	actQuit
	actScrollUp
	actScrollDown
	actTheme
	actToast
)

// decodeKeys maps raw terminal input to demo actions
// Arrow keys arrive as CSI sequences; a lone escape quits
func decodeKeys(data []byte) []action {
	var acts []action
	for i := 0; i < len(data); i++ {
		switch data[i] {
		case 'q', 0x03:
			acts = append(acts, actQuit)
		case 0x1b:
			if i+2 < len(data) && data[i+1] == '[' {
				switch data[i+2] {
				case 'A':
					acts = append(acts, actScrollUp)
				case 'B':
					acts = append(acts, actScrollDown)
				}
				i += 2
				continue
			}
			acts = append(acts, actQuit)
		case 'k':
			acts = append(acts, actScrollUp)
		case 'j':
			acts = append(acts, actScrollDown)
		case 't':
			acts = append(acts, actTheme)
		case 'n':
			acts = append(acts, actToast)
		}
	}
	return acts
}

// demo is the dashboard state; all fields are touched on the run loop only
type demo struct {
	app *engine.App

	header   *widget.Static
	headerID tree.NodeID
	stats    [3]*widget.Static
	statIDs  [3]tree.NodeID
	logText  *widget.Static
	logTxtID tree.NodeID
	logID    tree.NodeID
	toastID  tree.NodeID

	lines  []string
	follow bool
	theme  int
	ticks  int
}

// mounter collects the first mount error so the tree can be built without checks on every line
type mounter struct {
	s   *engine.Session
	err error
}

func (m *mounter) mount(parent tree.NodeID, w tree.Widget, opts ...tree.Option) tree.NodeID {
	if m.err != nil {
		return tree.NodeID{}
	}
	id, err := m.s.Mount(parent, w, opts...)
	if err != nil {
		m.err = fmt.Errorf("mount %s: %w", w.TypeName(), err)
	}
	return id
}

// buildDemo mounts the dashboard under the session root
func buildDemo(app *engine.App, info string) (*demo, error) {
	s := app.Session()
	d := &demo{
		app:     app,
		header:  widget.NewStatic("trellis"),
		logText: widget.NewStatic(""),
		follow:  true,
	}
	m := &mounter{s: s}
	root := s.Root()

	d.headerID = m.mount(root, d.header, tree.WithName("header"))
	m.mount(root, widget.NewStatic("q quit  j/k scroll  t theme  n toast"), tree.WithName("footer"))

	side := m.mount(root, widget.NewTyped("Sidebar", "Session"))
	m.mount(side, widget.NewStatic(info))

	body := m.mount(root, widget.NewContainer(""), tree.WithName("main"))
	grid := m.mount(body, widget.NewTyped("Stats", ""))
	for i, title := range []string{"frames", "dropped", "passes"} {
		d.stats[i] = widget.NewStatic(title + "\n0")
		d.statIDs[i] = m.mount(grid, d.stats[i], tree.WithClasses("stat"))
	}
	d.logID = m.mount(body, widget.NewContainer("Events"), tree.WithName("log"))
	d.logTxtID = m.mount(d.logID, d.logText)

	d.toastID = m.mount(root, widget.NewTyped("Toast", ""))
	m.mount(d.toastID, widget.NewStatic("Toast: overlay layer"))
	if m.err != nil {
		return nil, m.err
	}

	if err := s.AddStylesheet("demo", demoCSS); err != nil {
		return nil, err
	}
	return d, nil
}

// addSheet applies an extra stylesheet; malformed rules are reported but the rest applies
func (d *demo) addSheet(name, text string) error {
	return d.app.Session().AddStylesheet(name, text)
}

// start feeds the dashboard from a background task until Run returns
func (d *demo) start() {
	d.app.Go(func(ctx context.Context) engine.Message {
		t := time.NewTicker(tickEvery)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case now := <-t.C:
				d.app.Post(d.tick(now))
			}
		}
	})
}

func (d *demo) tick(now time.Time) engine.Message {
	return func(s *engine.Session) {
		d.ticks++
		if d.header.SetText("trellis  " + now.Format("15:04:05")) {
			s.Refresh(d.headerID, false)
		}

		st := d.app.Stats()
		values := [3]uint64{st.Frames, st.FramesDropped + st.MessagesDropped, st.Passes}
		for i, v := range values {
			title, _, _ := strings.Cut(d.stats[i].Text(), "\n")
			if d.stats[i].SetText(fmt.Sprintf("%s\n%d", title, v)) {
				s.Refresh(d.statIDs[i], true)
			}
		}
		if st.FramesDropped > 0 {
			s.Tree().AddClass(d.statIDs[1], "hot")
		} else {
			s.Tree().RemoveClass(d.statIDs[1], "hot")
		}

		d.appendLog(s, fmt.Sprintf("%s tick %d", now.Format("15:04:05.000"), d.ticks))
	}
}

func (d *demo) appendLog(s *engine.Session, line string) {
	d.lines = append(d.lines, line)
	if n := len(d.lines); n > maxLogLines {
		d.lines = d.lines[n-maxLogLines:]
	}
	d.logText.SetText(strings.Join(d.lines, "\n"))
	s.Refresh(d.logTxtID, true)
	if d.follow {
		// Layout clamps the offset to the last line
		s.Tree().ScrollTo(d.logID, 0, math.MaxInt32)
	}
}

// handleInput applies decoded keys; installed as engine.Options.OnInput
func (d *demo) handleInput(s *engine.Session, data []byte) {
	for _, act := range decodeKeys(data) {
		if err := d.apply(s, act); err != nil {
			d.appendLog(s, "error: "+err.Error())
		}
	}
}

func (d *demo) apply(s *engine.Session, act action) error {
	t := s.Tree()
	switch act {
	case actQuit:
		s.Quit()
	case actScrollUp:
		d.follow = false
		return t.ScrollBy(d.logID, 0, -1)
	case actScrollDown:
		if err := t.ScrollBy(d.logID, 0, 1); err != nil {
			return err
		}
		n := t.MustGet(d.logID)
		d.follow = n.Scroll.Offset.Y >= n.Scroll.MaxOffset().Y-1
	case actTheme:
		d.theme = (d.theme + 1) % len(accents)
		return s.SetVariable("accent", accents[d.theme])
	case actToast:
		if err := t.AddClass(d.toastID, "shown"); err != nil {
			return err
		}
		d.app.After(toastFor, func(s *engine.Session) {
			if err := s.Tree().RemoveClass(d.toastID, "shown"); err != nil && !errors.Is(err, tree.ErrStaleNode) {
				d.appendLog(s, "error: "+err.Error())
			}
		})
	}
	return nil
}
