package commands

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/sakif/taskboard/internal/model"
	"github.com/sakif/taskboard/internal/printer"
)

// now is the CLI's clock. Tests pin it.
var now = time.Now

func newDashboardCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarise your assigned, created and overdue tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.session()
			if err != nil {
				return err
			}
			d := a.reports.Dashboard(p.ID, now())
			if asJSON {
				return printer.FormatJSON(printer.Out, d)
			}
			printer.FormatDashboard(printer.Out, *p, d)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newTeamCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "team",
		Short: "Show each roster member's progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			rows := a.reports.TeamProgress(now())
			if asJSON {
				return printer.FormatJSON(printer.Out, rows)
			}
			printer.FormatTeam(printer.Out, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newCalendarCmd() *cobra.Command {
	var from, to string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Show tasks by due date",
		Long: `Show tasks grouped by due date, with each day's highest priority.
Without --from/--to the current month is shown.`,
		Example: `  taskboard calendar
  taskboard calendar --from 2025-03-01 --to 2025-03-31`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			monthStart, monthEnd := model.MonthRange(now())
			if from == "" {
				from = monthStart
			}
			if to == "" {
				to = monthEnd
			}

			days, err := a.reports.Calendar(from, to)
			if err != nil {
				return fail("Cannot build calendar", err)
			}
			if asJSON {
				return printer.FormatJSON(printer.Out, days)
			}
			printer.FormatCalendar(printer.Out, days)
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
