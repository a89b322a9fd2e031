package commands

import (
	"github.com/spf13/cobra"

	"github.com/sakif/taskboard/internal/printer"
)

func newNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes", "inbox"},
		Short:   "List, read and dismiss assignment notifications",
	}
	cmd.AddCommand(
		newNotificationsListCmd(),
		newNotificationsReadCmd(),
		newNotificationsDismissCmd(),
	)
	return cmd
}

func newNotificationsListCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications (• marks unread)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			notes := a.tasks.Notifications()
			if asJSON {
				return printer.FormatJSON(printer.Out, map[string]any{
					"unread":        a.tasks.UnreadCount(),
					"notifications": notes,
				})
			}
			printer.FormatNotifications(printer.Out, notes)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newNotificationsReadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read NOTIFICATION_ID",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tasks.MarkNotificationRead(ctx, args[0]); err != nil {
				return fail("Cannot mark notification read", err)
			}
			printer.Success("Marked %s as read (%d unread)\n", args[0], a.tasks.UnreadCount())
			return nil
		},
	}
}

func newNotificationsDismissCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss NOTIFICATION_ID",
		Short: "Remove a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.tasks.DismissNotification(ctx, args[0]); err != nil {
				return fail("Cannot dismiss notification", err)
			}
			printer.Success("Dismissed %s\n", args[0])
			return nil
		},
	}
}
