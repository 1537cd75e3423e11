package widget

import (
	"strings"
	"testing"

	"github.com/lixenwraith/trellis/compositor"
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/layout"
	"github.com/lixenwraith/trellis/style"
	"github.com/lixenwraith/trellis/terminal"
	"github.com/lixenwraith/trellis/tree"
)

func TestStaticMeasure(t *testing.T) {
	tests := []struct {
		text     string
		maxWidth int
		want     geom.Size
	}{
		{"hello world", 5, geom.Size{W: 5, H: 2}},
		{"hello world", 0, geom.Size{W: 11, H: 1}},
		{"a\nbcd", 0, geom.Size{W: 3, H: 2}},
		{"日本語", 4, geom.Size{W: 4, H: 2}},
		{"", 10, geom.Size{}},
	}
	for _, tt := range tests {
		if got := NewStatic(tt.text).Measure(tt.maxWidth); got != tt.want {
			t.Errorf("Measure(%q, %d) = %+v, want %+v", tt.text, tt.maxWidth, got, tt.want)
		}
	}
}

func TestStaticRender(t *testing.T) {
	st := style.Default()
	st.TextAlign = style.AlignRight

	lines, err := NewStatic("hello world\nx\ny").Render(geom.Size{W: 8, H: 3}, st)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"   hello", "   world", "       x"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %d, want %d (cut to height)", len(lines), len(want))
	}
	for i, l := range lines {
		if l.Text() != want[i] {
			t.Errorf("line %d = %q, want %q", i, l.Text(), want[i])
		}
	}
}

func TestStaticSetText(t *testing.T) {
	s := NewStatic("a")
	if s.SetText("a") {
		t.Error("same text reported as changed")
	}
	if !s.SetText("b") || s.Text() != "b" {
		t.Errorf("SetText did not replace text: %q", s.Text())
	}
}

func TestDefaultCSSParses(t *testing.T) {
	for _, w := range []tree.Widget{Screen{}, NewContainer(""), NewTyped("Sidebar", ""), NewStatic("")} {
		if _, errs := style.Parse(w.TypeName(), w.DefaultCSS(), style.OriginDefault, nil); len(errs) > 0 {
			t.Errorf("%s default css: %v", w.TypeName(), errs)
		}
	}
}

// render styles, lays out and composes a tree the way a session does
func render(t *testing.T, tr *tree.Tree, css string, screen geom.Size) *compositor.Buffer {
	t.Helper()
	order := 0
	sheet := style.NewStylesheet()
	seen := map[string]bool{}
	tr.Walk(func(n *tree.Node) bool {
		w := n.Widget()
		if !seen[w.TypeName()] {
			seen[w.TypeName()] = true
			part, errs := style.Parse(w.TypeName(), w.DefaultCSS(), style.OriginDefault, &order)
			if len(errs) > 0 {
				t.Fatalf("default css: %v", errs)
			}
			sheet.Add(part)
		}
		return true
	})
	part, errs := style.Parse("app", css, style.OriginUser, &order)
	if len(errs) > 0 {
		t.Fatalf("css: %v", errs)
	}
	sheet.Add(part)

	c := style.NewCascade(sheet)
	tr.Walk(func(n *tree.Node) bool {
		var parent *style.Computed
		if p, ok := tr.Get(n.Parent()); ok {
			parent = p.Style
		}
		n.Style, _ = c.Compute(tr.Element(n.ID()), parent)
		return true
	})
	layout.New(nil).Resolve(tr, screen)
	return compositor.New(nil, terminal.Cell{Rune: ' '}).Compose(tr, screen).Buffer
}

func TestContainerWithTitleAndStatic(t *testing.T) {
	tr := tree.New(Screen{})
	box, _ := tr.Mount(tr.Root(), NewContainer("Box"))
	tr.Mount(box, NewStatic("hi"))

	b := render(t, tr, "Container { border: solid; } Static { text-align: center; }", geom.Size{W: 12, H: 4})
	want := []string{
		"┌ Box ─────┐",
		"│    hi    │",
		"│          │",
		"└──────────┘",
	}
	got := strings.Split(strings.TrimSuffix(b.String(), "\n"), "\n")
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestTypedContainerSelector(t *testing.T) {
	tr := tree.New(Screen{})
	side, _ := tr.Mount(tr.Root(), NewTyped("Sidebar", ""))
	render(t, tr, "Sidebar { dock: left; width: 6; }", geom.Size{W: 20, H: 5})

	if got := tr.MustGet(side).Geometry.Region; got != geom.NewRegion(0, 0, 6, 5) {
		t.Errorf("sidebar = %+v", got)
	}
}
