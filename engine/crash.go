package engine

import (
	"fmt"
	"os"
	"runtime/debug"

	"github.com/lixenwraith/trellis/terminal"
)

// HandleCrash is the default panic handler: it resets the terminal, prints the stack trace and exits
func HandleCrash(r any) {
	if r == nil {
		return
	}

	// Restore terminal to sane state immediately
	terminal.EmergencyReset(os.Stdout)
	os.Stdout.Sync()
	os.Stderr.Sync()

	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	os.Exit(1)
}

// spawn runs fn in a new goroutine tracked by the app, with panic recovery
// Use this instead of the 'go' keyword so a crash restores the terminal
func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer a.handlePanic()
		fn()
	}()
}

// handlePanic hands a panic to the crash handler; must be deferred directly
func (a *App) handlePanic() {
	if r := recover(); r != nil {
		a.opts.OnCrash(r)
	}
}
