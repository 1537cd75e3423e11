package engine

import (
	"errors"
	"fmt"
	"log"
	"maps"
	"slices"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/tree"
)

// source is one stylesheet text kept for rebuilding the combined sheet
type source struct {
	name string
	text string
}

// Session is the context threaded through one running application: the tree, its
// stylesheets and theme variables, and the cascade built from them
// Owned by the run loop; messages receive it and must not retain it
type Session struct {
	app    *App
	logger *log.Logger
	tree   *tree.Tree
	screen geom.Size

	defaults []source        // widget DefaultCSS fragments, one per type, mount order
	user     []source        // application sheets, add order
	vars     map[string]string
	types    map[string]bool // widget types whose defaults are registered

	sheet   *style.Stylesheet
	cascade *style.Cascade
	stale   bool // sheet needs rebuilding before the next restyle
}

func newSession(app *App, root tree.Widget, logger *log.Logger) *Session {
	s := &Session{
		app:    app,
		logger: logger,
		tree:   tree.New(root),
		vars:   make(map[string]string),
		types:  make(map[string]bool),
		stale:  true,
	}
	s.tree.PseudoRelevant = func(p tree.Pseudo) bool {
		return s.sheet == nil || s.stale || s.sheet.UsesPseudo(p.Name())
	}
	return s
}

// Tree returns the widget tree
func (s *Session) Tree() *tree.Tree { return s.tree }

// Root returns the root node handle
func (s *Session) Root() tree.NodeID { return s.tree.Root() }

// Screen returns the size the last pass laid out for
func (s *Session) Screen() geom.Size { return s.screen }

// Mount appends a widget under parent
func (s *Session) Mount(parent tree.NodeID, w tree.Widget, opts ...tree.Option) (tree.NodeID, error) {
	return s.tree.Mount(parent, w, opts...)
}

// Unmount removes a node and its subtree
func (s *Session) Unmount(id tree.NodeID) error {
	return s.tree.Unmount(id)
}

// AddStylesheet parses text and appends it after the existing application sheets
// Malformed rules are reported in the returned error and skipped; the rest still apply
func (s *Session) AddStylesheet(name, text string) error {
	_, errs := style.Parse(name, text, style.OriginUser, nil)
	for _, err := range errs {
		s.logger.Printf("style: %v", err)
	}
	s.user = append(s.user, source{name: name, text: text})
	s.invalidateSheet()
	return errors.Join(errs...)
}

// SetVariable overrides a theme variable for every sheet
func (s *Session) SetVariable(name, value string) error {
	if err := style.NewStylesheet().SetVariable(name, value); err != nil {
		return err
	}
	if s.vars[name] == value {
		return nil
	}
	s.vars[name] = value
	s.invalidateSheet()
	return nil
}

// Variables returns the theme variable overrides
func (s *Session) Variables() map[string]string {
	return maps.Clone(s.vars)
}

// Refresh tells the session a widget's content changed; resize when its natural size may have too
func (s *Session) Refresh(id tree.NodeID, resize bool) {
	s.tree.Refresh(id, resize)
}

// HitTest returns the topmost widget drawn at (x, y) in the last composed frame
// Pointer handlers call it from OnInput or a message
func (s *Session) HitTest(x, y int) (tree.NodeID, bool) {
	return s.app.comp.HitTest(x, y)
}

// Measure returns the natural outer size of id laid out no wider than maxWidth
func (s *Session) Measure(id tree.NodeID, maxWidth int) geom.Size {
	return s.app.resolver.Measure(s.tree, id, maxWidth)
}

// Quit ends Run after the current message batch
func (s *Session) Quit() {
	s.app.quit = true
}

// Post queues a message for a later batch
func (s *Session) Post(msg Message) {
	s.app.Post(msg)
}

func (s *Session) invalidateSheet() {
	s.stale = true
	s.tree.MarkAll(tree.DirtyStyle)
}

// registerDefaults records the DefaultCSS of widget types not seen before
func (s *Session) registerDefaults() {
	s.tree.Walk(func(n *tree.Node) bool {
		w := n.Widget()
		name := w.TypeName()
		if s.types[name] {
			return true
		}
		s.types[name] = true
		if css := w.DefaultCSS(); css != "" {
			if _, errs := style.Parse(name, css, style.OriginDefault, nil); len(errs) > 0 {
				s.logger.Printf("style: default css of %s: %v", name, errors.Join(errs...))
			}
			s.defaults = append(s.defaults, source{name: name, text: css})
			s.invalidateSheet()
		}
		return true
	})
}

// rebuild parses defaults then application sheets into one ordered sheet
// Defaults take the lowest order so any application rule of equal specificity wins
func (s *Session) rebuild() error {
	order := 0
	sheet := style.NewStylesheet()
	for _, src := range s.defaults {
		part, _ := style.Parse(src.name, src.text, style.OriginDefault, &order)
		sheet.Add(part)
	}
	for _, src := range s.user {
		part, _ := style.Parse(src.name, src.text, style.OriginUser, &order)
		sheet.Add(part)
	}
	for _, name := range slices.Sorted(maps.Keys(s.vars)) {
		if err := sheet.SetVariable(name, s.vars[name]); err != nil {
			return fmt.Errorf("theme variable %s: %w", name, err)
		}
	}
	s.sheet = sheet
	s.cascade = style.NewCascade(sheet)
	s.stale = false
	return nil
}

// restyle computes styles for style-dirty nodes in document order
// A changed layout property marks the node and its parent for relayout; any change
// restyles the children so inherited values follow
func (s *Session) restyle() (int, error) {
	s.registerDefaults()
	if s.stale {
		if err := s.rebuild(); err != nil {
			return 0, err
		}
	}

	count := 0
	s.tree.Walk(func(n *tree.Node) bool {
		if n.Dirty()&tree.DirtyStyle == 0 && n.Style != nil {
			return true
		}
		var parent *style.Computed
		if p, ok := s.tree.Get(n.Parent()); ok {
			parent = p.Style
		}

		id := n.ID()
		old := n.Style
		st, errs := s.cascade.Compute(s.tree.Element(id), parent)
		for _, err := range errs {
			s.logger.Printf("style: %s %v: %v", n.Widget().TypeName(), id, err)
		}
		n.ClearDirty(tree.DirtyStyle)
		count++

		switch {
		case old == nil || !old.LayoutEqual(st):
			n.Style = st
			s.tree.Mark(id, tree.DirtyLayout|tree.DirtyPaint)
			if !n.Parent().IsZero() {
				s.tree.Mark(n.Parent(), tree.DirtyLayout)
			}
		case !old.Equal(st):
			n.Style = st
			s.tree.Mark(id, tree.DirtyPaint)
		default:
			// Unchanged: keep the pointer so paint caches stay valid
			return true
		}
		for _, c := range n.Children() {
			s.tree.Mark(c, tree.DirtyStyle)
		}
		return true
	})
	return count, nil
}
