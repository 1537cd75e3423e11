//go:build !linux

package terminal

// resetTerminalMode is a no-op where TCGETS is unavailable; escape sequences still restore the screen
func resetTerminalMode() {}
