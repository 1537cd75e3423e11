// Package compositor paints a laid-out tree into a cell buffer and diffs frames.
//
// Nodes paint in layer order, document order within a layer, each one overwriting the
// cells of its clip: background, border, content lines, scrollbars. Every frame is a
// new Buffer so a frame handed to the presenter is never modified. Diff compares two
// buffers row by row and returns runs of changed cells for the terminal writer.
//
// A widget whose Render returns an error or panics is painted as a placeholder and
// reported as a PaintError; the rest of the frame is unaffected.
package compositor
