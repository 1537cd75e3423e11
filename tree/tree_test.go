package tree

import (
	"errors"
	"testing"

	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
)

type stubWidget struct {
	typ      string
	size     geom.Size
	measures int
}

func (w *stubWidget) TypeName() string   { return w.typ }
func (w *stubWidget) DefaultCSS() string { return "" }
func (w *stubWidget) Measure(maxWidth int) geom.Size {
	w.measures++
	return w.size
}
func (w *stubWidget) Render(size geom.Size, st *style.Computed) ([]strip.Strip, error) {
	return nil, nil
}

func stub(typ string) *stubWidget {
	return &stubWidget{typ: typ}
}

func TestMountAndGet(t *testing.T) {
	tr := New(stub("Screen"))
	a, err := tr.Mount(tr.Root(), stub("A"), WithName("first"), WithClasses("x", "y", "x"))
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	b, _ := tr.Mount(tr.Root(), stub("B"))
	c, _ := tr.MountAt(tr.Root(), 0, stub("C"))

	root := tr.MustGet(tr.Root())
	want := []NodeID{c, a, b}
	for i, id := range root.Children() {
		if id != want[i] {
			t.Errorf("child %d = %v, want %v", i, id, want[i])
		}
	}

	n := tr.MustGet(a)
	if n.Name() != "first" || len(n.Classes()) != 2 {
		t.Errorf("options not applied: name=%q classes=%v", n.Name(), n.Classes())
	}
	if n.Parent() != tr.Root() {
		t.Errorf("parent = %v", n.Parent())
	}
	if tr.Len() != 4 {
		t.Errorf("Len = %d, want 4", tr.Len())
	}
}

func TestUnmountInvalidatesHandles(t *testing.T) {
	tr := New(stub("Screen"))
	box, _ := tr.Mount(tr.Root(), stub("Box"))
	leaf, _ := tr.Mount(box, stub("Leaf"))

	if err := tr.Unmount(box); err != nil {
		t.Fatalf("Unmount: %v", err)
	}
	if _, ok := tr.Get(box); ok {
		t.Error("unmounted node still resolves")
	}
	if _, ok := tr.Get(leaf); ok {
		t.Error("unmounted descendant still resolves")
	}

	removed := tr.TakeRemoved()
	if len(removed) != 2 {
		t.Errorf("removed = %v, want 2 handles", removed)
	}
	if len(tr.TakeRemoved()) != 0 {
		t.Error("TakeRemoved should drain")
	}

	// Slot reuse must not revive the old handle
	fresh, _ := tr.Mount(tr.Root(), stub("Fresh"))
	if fresh.index != leaf.index && fresh.index != box.index {
		t.Fatalf("expected slot reuse, got %v", fresh)
	}
	if _, ok := tr.Get(box); ok {
		t.Error("stale handle aliases reused slot")
	}
	if _, ok := tr.Get(leaf); ok {
		t.Error("stale handle aliases reused slot")
	}

	if err := tr.Unmount(box); !errors.Is(err, ErrStaleNode) {
		t.Errorf("double unmount err = %v", err)
	}
	if err := tr.Unmount(tr.Root()); err == nil {
		t.Error("root unmount should fail")
	}
}

func TestDirtyFlagsAndState(t *testing.T) {
	tr := New(stub("Screen"))
	a, _ := tr.Mount(tr.Root(), stub("A"))
	tr.Walk(func(n *Node) bool {
		n.ClearDirty(DirtyAll)
		n.SetState(StateComposited)
		return true
	})
	tr.ClearPending()

	tr.Refresh(a, false)
	n := tr.MustGet(a)
	if n.Dirty() != DirtyPaint || n.State() != StateArranged {
		t.Errorf("paint refresh: dirty=%v state=%v", n.Dirty(), n.State())
	}
	if tr.Pending() != DirtyPaint {
		t.Errorf("Pending = %v", tr.Pending())
	}

	tr.Refresh(a, true)
	if n.Dirty()&DirtyLayout == 0 || n.State() != StateUnmeasured {
		t.Errorf("resize refresh: dirty=%v state=%v", n.Dirty(), n.State())
	}
	if tr.MustGet(tr.Root()).Dirty() != 0 {
		t.Error("content resize should leave ancestors to the layout boundary search")
	}
}

func TestMeasureCache(t *testing.T) {
	w := &stubWidget{typ: "A", size: geom.Size{W: 5, H: 1}}
	tr := New(stub("Screen"))
	a, _ := tr.Mount(tr.Root(), w)
	n := tr.MustGet(a)

	n.Measure(10)
	n.Measure(10)
	if w.measures != 1 {
		t.Errorf("Measure called %d times, want 1", w.measures)
	}
	n.Measure(20)
	if w.measures != 2 {
		t.Errorf("different width should re-measure")
	}
	tr.Refresh(a, true)
	n.Measure(20)
	if w.measures != 3 {
		t.Errorf("refresh should drop the cache")
	}
}

func TestPseudoRestyleFilter(t *testing.T) {
	tr := New(stub("Screen"))
	a, _ := tr.Mount(tr.Root(), stub("A"))
	tr.PseudoRelevant = func(p Pseudo) bool { return p == PseudoFocus }

	reset := func() {
		tr.Walk(func(n *Node) bool { n.ClearDirty(DirtyAll); return true })
		tr.ClearPending()
	}
	reset()

	changed, err := tr.SetPseudo(a, PseudoHover, true)
	if err != nil || !changed {
		t.Fatalf("SetPseudo hover: changed=%v err=%v", changed, err)
	}
	if tr.Pending() != 0 {
		t.Errorf("unreferenced pseudo should not restyle, pending=%v", tr.Pending())
	}

	if err := tr.Focus(a); err != nil {
		t.Fatalf("Focus: %v", err)
	}
	if tr.MustGet(a).Dirty()&DirtyStyle == 0 {
		t.Error("focus change should restyle node")
	}
	if tr.MustGet(tr.Root()).Dirty()&DirtyStyle == 0 {
		t.Error("focus change should restyle ancestors for focus-within")
	}

	changed, _ = tr.SetPseudo(a, PseudoHover, true)
	if changed {
		t.Error("repeated state should report no change")
	}
}

func TestElementAdapter(t *testing.T) {
	tr := New(stub("Screen"))
	panel, _ := tr.Mount(tr.Root(), stub("Panel"), WithName("side"))
	a, _ := tr.Mount(panel, stub("Item"), WithClasses("row"))
	b, _ := tr.Mount(panel, stub("Item"))
	tr.SetPseudo(panel, PseudoDisabled, true)
	tr.Focus(b)

	e := tr.Element(a)
	if e.TypeName() != "Item" || !e.HasClass("row") {
		t.Errorf("element basics wrong")
	}
	if idx, n := e.SiblingPosition(); idx != 0 || n != 2 {
		t.Errorf("SiblingPosition = %d/%d", idx, n)
	}
	if !e.PseudoState("disabled") {
		t.Error("disabled should propagate from ancestor")
	}
	parent := e.ParentElement()
	if parent == nil || parent.ID() != "side" {
		t.Fatalf("ParentElement = %v", parent)
	}
	if !parent.PseudoState("focus-within") {
		t.Error("panel contains focus")
	}
	if e.PseudoState("focus-within") {
		t.Error("sibling does not contain focus")
	}
	if tr.Element(tr.Root()).ParentElement() != nil {
		t.Error("root parent should be nil")
	}

	sheet, _ := style.Parse("t", "Panel:focus-within > Item.row { width: 3; }", style.OriginUser, nil)
	sel := sheet.Rules()[0].Selector
	if !sel.Match(e) {
		t.Error("selector should match through the adapter")
	}
}

func TestScrollTo(t *testing.T) {
	tr := New(stub("Screen"))
	tr.Walk(func(n *Node) bool { n.ClearDirty(DirtyAll); return true })
	tr.ClearPending()

	if err := tr.ScrollBy(tr.Root(), 0, 3); err != nil {
		t.Fatalf("ScrollBy: %v", err)
	}
	n := tr.MustGet(tr.Root())
	if n.Scroll.Offset.Y != 3 || n.Dirty()&DirtyLayout == 0 {
		t.Errorf("scroll offset=%v dirty=%v", n.Scroll.Offset, n.Dirty())
	}
}
