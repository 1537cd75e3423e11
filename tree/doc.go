// Package tree holds the widget tree the engine lays out and paints.
//
// Nodes live in an arena and are addressed by NodeID handles. A handle carries the
// generation of its slot, so handles to unmounted nodes fail lookups instead of aliasing
// a node that later reused the slot. Children are owned by their parent; the parent link
// is a handle, never a pointer.
//
// Mutations set dirty flags (style, layout, paint) instead of doing work. The run loop
// reads Pending to decide what a pass must do and clears the flags it consumed.
package tree
