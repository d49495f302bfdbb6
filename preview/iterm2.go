// Package preview shows images inline in terminals that speak the iTerm2 image protocol.
package preview

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// Supported reports whether f is an iTerm2 terminal.
func Supported(f *os.File) bool {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return os.Getenv("TERM_PROGRAM") == "iTerm.app"
}

// Image writes data (any format the terminal decodes) as an inline image. widthCells of 0
// lets the terminal pick.
func Image(w io.Writer, data []byte, widthCells int) error {
	header := fmt.Sprintf("\x1b]1337;File=inline=1;size=%d", len(data))
	if widthCells > 0 {
		header += fmt.Sprintf(";width=%d", widthCells)
	}
	if _, err := io.WriteString(w, header+":"); err != nil {
		return err
	}
	enc := base64.NewEncoder(base64.StdEncoding, w)
	if _, err := enc.Write(data); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\x07\n")
	return err
}

// Width returns half the terminal width in cells, or 0 when unknown.
func Width(f *os.File) int {
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil || w <= 0 {
		return 0
	}
	return w / 2
}
