// Package commands holds the taskboard cobra commands. One file per command
// group; each registers itself on the root command.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskboard",
		Short: "Taskboard - a small team task board",
		Long: `Taskboard tracks a team's tasks: who created them, who they are
assigned to, when they are due and how far along they are.

Sign in once with "taskboard login"; the session is kept in the configured
store until "taskboard logout". "taskboard serve" runs the same board as an
HTTP API.`,
		// Show help instead of silently succeeding with no subcommand.
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (YAML); defaults and TASKBOARD_* env vars apply when omitted")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log store activity to stderr")

	cmd.AddCommand(
		newServeCmd(),
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newUsersCmd(),
		newTaskCmd(),
		newNotificationsCmd(),
		newDashboardCmd(),
		newTeamCmd(),
		newCalendarCmd(),
		newConfigCmd(),
	)
	return cmd
}

// Execute runs the root command. It is called once, by main.main.
func Execute() error {
	// Cobra's own error and usage printing is off; commands report failures
	// through the printer package.
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version shown by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
