// Package printer is the command-line client's user-facing output: coloured
// status messages and plain-text tables. Diagnostics go to slog, never here.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// Out and Err are where messages go. Tests point them at buffers.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

// Success prints a green message prefixed with a checkmark.
func Success(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "✓") {
		msg = "✓ " + msg
	}
	green.Fprint(Out, msg)
}

// Info prints a message in the default colour.
func Info(format string, a ...any) {
	fmt.Fprintf(Out, format, a...)
}

// Warning prints a yellow message prefixed with a warning sign.
func Warning(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)
	if !strings.HasPrefix(msg, "⚠️") {
		msg = "⚠️  " + msg
	}
	yellow.Fprint(Out, msg)
}

// Step prints a cyan progress line.
func Step(format string, a ...any) {
	cyan.Fprintf(Out, "→ %s", fmt.Sprintf(format, a...))
}

// Error prints a red title, an explanation and numbered suggestions to Err,
// and returns an error carrying only the title. Commands return it so cobra
// exits non-zero without printing anything itself (SilenceErrors).
func Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(Err, "%s\n\n", title)

	if explanation != "" {
		fmt.Fprintf(Err, "%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(Err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(Err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(Err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}
