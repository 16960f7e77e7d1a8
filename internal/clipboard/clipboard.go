// Package clipboard writes export output to the system clipboard,
// preferring an HTML-typed payload so paste targets keep formatting.
package clipboard

import (
	"fmt"
	"os/exec"
	"strings"

	sysclip "github.com/atotto/clipboard"
)

// WriteHTML places html on the system clipboard. Platform tools that
// support media types (wl-copy, xclip) receive it as text/html; when
// none is available the content is written as plain text.
func WriteHTML(html string) error {
	if cmd := htmlCommand(); cmd != nil {
		cmd.Stdin = strings.NewReader(html)
		if err := cmd.Run(); err == nil {
			return nil
		}
		// Tool present but failed; fall through to the plain-text path.
	}

	if err := sysclip.WriteAll(html); err != nil {
		return fmt.Errorf("writing clipboard: %w", err)
	}
	return nil
}

// htmlCommand returns the first available clipboard tool that accepts
// an explicit text/html media type, or nil.
func htmlCommand() *exec.Cmd {
	switch {
	case commandExists("wl-copy"):
		return exec.Command("wl-copy", "--type", "text/html")
	case commandExists("xclip"):
		return exec.Command("xclip", "-selection", "clipboard", "-t", "text/html")
	default:
		return nil
	}
}

// commandExists checks if a command is available in PATH.
func commandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
