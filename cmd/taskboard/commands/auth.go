package commands

import (
	"github.com/spf13/cobra"

	"github.com/sakif/taskboard/internal/printer"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in as a user on the roster",
		Long: `Sign in as a user on the roster. The session is stored with the board and
lasts until "taskboard logout".

Seeded users (any password of 6+ characters):
  john@example.com   (admin)
  jane@example.com
  bob@example.com
  alice@example.com`,
		Example: `  taskboard login --email jane@example.com --password secret1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.identity.SignIn(ctx, email, password)
			if err != nil {
				return fail("Sign in failed", err)
			}
			printer.Success("Signed in as %s (%s)\n", p.Name, p.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (at least 6 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:     "register",
		Short:   "Add yourself to the roster and sign in",
		Example: `  taskboard register --name "Sam Lee" --email sam@example.com --password secret1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.identity.Register(ctx, name, email, password)
			if err != nil {
				return fail("Registration failed", err)
			}
			printer.Success("Registered and signed in as %s (%s)\n", p.Name, p.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email address")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (at least 6 characters)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.identity.Current(); !ok {
				printer.Warning("Nobody is signed in\n")
				return nil
			}
			if err := a.identity.SignOut(ctx); err != nil {
				return fail("Sign out failed", err)
			}
			printer.Success("Signed out\n")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
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
			if asJSON {
				return printer.FormatJSON(printer.Out, p)
			}
			printer.Info("%s <%s> (%s, id %s)\n", p.Name, p.Email, p.Role, p.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}

func newUsersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List the roster (* marks the signed-in user)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			roster := a.identity.Roster()
			if asJSON {
				return printer.FormatJSON(printer.Out, roster)
			}
			currentID := ""
			if p, ok := a.identity.Current(); ok {
				currentID = p.ID
			}
			printer.FormatPrincipals(printer.Out, roster, currentID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON")
	return cmd
}
