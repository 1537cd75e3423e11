// Package layout turns computed styles into concrete regions.
//
// The box model is margin, border, padding and content; width and height size the border
// box. Children of a container are arranged in three steps: docked children cut their
// outer box from an edge of the remaining area, flow children are stacked vertically,
// horizontally or placed in a grid inside what is left, and absolutely positioned children
// are placed at their offset on top. Children naming a layer are arranged independently
// of the other layers over the same area.
//
// Along the main axis fixed and natural sizes are taken first and fr children share the
// remaining pool by largest remainder, so the shares always sum to the pool.
package layout
