// Command taskboard is the command-line client for the task board. It works
// directly against the configured store, so a session started with
// `taskboard login` lasts until `taskboard logout`.
package main

import (
	"os"

	"github.com/sakif/taskboard/cmd/taskboard/commands"
)

// Version information - set during build with -ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	// Errors are printed by the printer package, in colour.
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
