package terminal

import (
	"bufio"
	"io"
)

// outputBuffer turns spans into ANSI, tracking cursor and SGR state to skip redundant sequences
// The caller owns the previous-frame state; this type only knows what it last emitted
type outputBuffer struct {
	colorMode ColorMode
	writer    *bufio.Writer

	cursorX     int
	cursorY     int
	cursorValid bool

	// Style state for coalescing
	lastFg    RGB
	lastBg    RGB
	lastAttr  Attr
	lastValid bool
}

// newOutputBuffer creates a new output buffer
func newOutputBuffer(w io.Writer, colorMode ColorMode) *outputBuffer {
	return &outputBuffer{
		writer:    bufio.NewWriterSize(w, 131072), // 128KB buffer
		colorMode: colorMode,
	}
}

// raw writes control sequences and flushes
func (o *outputBuffer) raw(seqs ...[]byte) error {
	for _, s := range seqs {
		o.writer.Write(s)
	}
	if err := o.writer.Flush(); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// writeSpans positions the cursor once per span and writes its cells with coalesced styles
func (o *outputBuffer) writeSpans(spans []Span) error {
	w := o.writer
	if len(spans) == 0 {
		// A pending clear still has to reach the terminal
		if err := w.Flush(); err != nil {
			return &IOError{Op: "flush", Err: err}
		}
		return nil
	}

	for _, sp := range spans {
		o.moveTo(w, sp.X, sp.Y)

		for _, c := range sp.Cells {
			if c.Attrs&AttrWideTail != 0 {
				// The preceding wide rune already advanced the cursor
				continue
			}

			o.writeStyleCoalesced(w, c.Fg, c.Bg, c.Attrs)

			r := c.Rune
			if r == 0 {
				r = ' '
			}
			if r < 0x80 {
				w.WriteByte(byte(r))
			} else {
				w.WriteRune(r)
			}
		}
		o.cursorX = sp.X + len(sp.Cells)
	}

	w.Write(csiSGR0)
	o.lastValid = false

	if err := w.Flush(); err != nil {
		o.cursorValid = false
		return &IOError{Op: "flush", Err: err}
	}
	return nil
}

// moveTo emits the cheapest non-destructive cursor movement to (x, y)
func (o *outputBuffer) moveTo(w *bufio.Writer, x, y int) {
	if o.cursorValid && x == o.cursorX && y == o.cursorY {
		return
	}
	if o.cursorValid && y == o.cursorY && x > o.cursorX {
		writeCursorForward(w, x-o.cursorX)
	} else {
		writeCursorPos(w, x, y)
	}
	o.cursorX = x
	o.cursorY = y
	o.cursorValid = true
}

// writeStyleCoalesced emits a single combined SGR sequence when style changes
func (o *outputBuffer) writeStyleCoalesced(w *bufio.Writer, fg, bg RGB, attr Attr) {
	fgChanged := !o.lastValid || fg != o.lastFg || (attr&AttrFg256) != (o.lastAttr&AttrFg256)
	bgChanged := !o.lastValid || bg != o.lastBg || (attr&AttrBg256) != (o.lastAttr&AttrBg256)
	styleAttr := attr & AttrStyle
	attrChanged := !o.lastValid || styleAttr != o.lastAttr&AttrStyle

	if !fgChanged && !bgChanged && !attrChanged {
		return
	}

	// Attribute removal needs a reset, so attribute changes re-emit everything
	if attrChanged {
		w.Write(csi)
		w.WriteByte('0')
		for _, a := range sgrAttrs {
			if styleAttr&a.attr != 0 {
				w.WriteByte(';')
				w.WriteByte(a.param)
			}
		}
		o.writeFgInline(w, fg, attr)
		o.writeBgInline(w, bg, attr)
		w.WriteByte('m')
	} else if fgChanged && bgChanged {
		w.Write(csi)
		w.WriteByte('0')
		o.writeFgInline(w, fg, attr)
		o.writeBgInline(w, bg, attr)
		w.WriteByte('m')
	} else if fgChanged {
		o.writeFgFull(w, fg, attr)
	} else {
		o.writeBgFull(w, bg, attr)
	}

	o.lastFg = fg
	o.lastBg = bg
	o.lastAttr = attr
	o.lastValid = true
}

// writeFgInline writes fg color parameters (no CSI prefix, no 'm' suffix)
func (o *outputBuffer) writeFgInline(w *bufio.Writer, fg RGB, attr Attr) {
	w.WriteByte(';')
	if attr&AttrFg256 != 0 {
		w.WriteString("38;5;")
		writeInt(w, int(fg.R))
	} else if o.colorMode == ColorModeTrueColor {
		w.WriteString("38;2;")
		writeRGBParams(w, fg)
	} else {
		w.WriteString("38;5;")
		writeInt(w, int(RGBTo256(fg)))
	}
}

// writeBgInline writes bg color parameters (no CSI prefix, no 'm' suffix)
func (o *outputBuffer) writeBgInline(w *bufio.Writer, bg RGB, attr Attr) {
	w.WriteByte(';')
	if attr&AttrBg256 != 0 {
		w.WriteString("48;5;")
		writeInt(w, int(bg.R))
	} else if o.colorMode == ColorModeTrueColor {
		w.WriteString("48;2;")
		writeRGBParams(w, bg)
	} else {
		w.WriteString("48;5;")
		writeInt(w, int(RGBTo256(bg)))
	}
}

// writeFgFull writes complete fg color sequence
func (o *outputBuffer) writeFgFull(w *bufio.Writer, fg RGB, attr Attr) {
	if attr&AttrFg256 != 0 {
		w.Write(csiFg256)
		writeInt(w, int(fg.R))
	} else if o.colorMode == ColorModeTrueColor {
		w.Write(csiFgRGB)
		writeRGBParams(w, fg)
	} else {
		w.Write(csiFg256)
		writeInt(w, int(RGBTo256(fg)))
	}
	w.WriteByte('m')
}

// writeBgFull writes complete bg color sequence
func (o *outputBuffer) writeBgFull(w *bufio.Writer, bg RGB, attr Attr) {
	if attr&AttrBg256 != 0 {
		w.Write(csiBg256)
		writeInt(w, int(bg.R))
	} else if o.colorMode == ColorModeTrueColor {
		w.Write(csiBgRGB)
		writeRGBParams(w, bg)
	} else {
		w.Write(csiBg256)
		writeInt(w, int(RGBTo256(bg)))
	}
	w.WriteByte('m')
}

func writeRGBParams(w *bufio.Writer, c RGB) {
	writeInt(w, int(c.R))
	w.WriteByte(';')
	writeInt(w, int(c.G))
	w.WriteByte(';')
	writeInt(w, int(c.B))
}

// clear queues a full-screen clear with the given background; flushed with the next spans
func (o *outputBuffer) clear(bg RGB) {
	w := o.writer
	w.Write(csiSGR0)
	o.writeBgFull(w, bg, 0)
	w.Write(csiClear)

	o.lastValid = false
	o.cursorValid = false
}
