// Package terminal is the I/O boundary of the engine: raw mode, resize notification,
// color capability detection, and ANSI output of diff spans.
//
// Features:
//   - True color (24-bit) and 256-color palette output
//   - Span-based writes: the caller supplies only changed runs, the writer coalesces SGR state
//   - Raw stdin byte pump (no key decoding, that belongs to the input layer)
//   - SIGWINCH resize detection with latest-size-wins delivery
//   - Clean terminal restoration on exit/panic
//
// This package bypasses terminfo/termcap entirely, emitting direct ANSI sequences.
// Target environments: Linux, macOS, BSDs with xterm-compatible terminals.
package terminal
