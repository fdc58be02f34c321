package ui

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm shows prompt on out and reads a yes/no answer from in.
// Anything other than "y" or "yes" (case-insensitive) is a no.
func Confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprint(out, WarningTitleStyle.Render(WarningMarker+" "+prompt)+" [y/N]: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		_, _ = fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
