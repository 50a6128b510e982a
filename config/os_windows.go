//go:build windows

package config

import (
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

const (
	forbiddenNameChars = `<>":/\|?*` + string(os.PathListSeparator)
	// explorer silently drops trailing dots and spaces
	trailingNameChars = ". "
)

// EnableColorOutput checks if colorized output is possible and turns on VT
// sequence processing, consoles before Windows 10 do not have it.
func EnableColorOutput(stream *os.File) bool {
	if v := windows.RtlGetVersion(); v == nil || v.MajorVersion < 10 {
		return false
	}
	if !term.IsTerminal(int(stream.Fd())) {
		return false
	}

	h := windows.Handle(stream.Fd())
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		return false
	}
	return windows.SetConsoleMode(h, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING) == nil
}
