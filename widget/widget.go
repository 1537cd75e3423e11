// Package widget provides the basic widgets: the Screen root, Container, and Static text
package widget

import (
	"github.com/lixenwraith/trellis/geom"
	"github.com/lixenwraith/trellis/strip"
	"github.com/lixenwraith/trellis/style"
)

// Screen is the root widget; it fills the terminal and scrolls when content overflows
type Screen struct{}

func (Screen) TypeName() string               { return "Screen" }
func (Screen) DefaultCSS() string             { return "Screen { layout: vertical; overflow-y: auto; }" }
func (Screen) Measure(maxWidth int) geom.Size { return geom.Size{} }

func (Screen) Render(size geom.Size, st *style.Computed) ([]strip.Strip, error) {
	return nil, nil
}

// Container groups children; its size comes from style and children only
type Container struct {
	typ   string
	Title string // drawn into the top border when the style has one
}

// NewContainer creates a container matched by the "Container" type selector
func NewContainer(title string) *Container {
	return &Container{typ: "Container", Title: title}
}

// NewTyped creates a container with its own type name, for type selectors like "Sidebar"
func NewTyped(typ, title string) *Container {
	return &Container{typ: typ, Title: title}
}

func (c *Container) TypeName() string               { return c.typ }
func (c *Container) Measure(maxWidth int) geom.Size { return geom.Size{} }
func (c *Container) BorderTitle() string            { return c.Title }

func (c *Container) DefaultCSS() string {
	if c.typ != "Container" {
		return ""
	}
	return "Container { width: 1fr; height: 1fr; }"
}

func (c *Container) Render(size geom.Size, st *style.Computed) ([]strip.Strip, error) {
	return nil, nil
}
