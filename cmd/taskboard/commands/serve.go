package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/taskboard/internal/server"
)

func newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API on the configured port until interrupted (Ctrl+C or
SIGTERM), then shut down gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			logger := cfg.NewLogger(os.Stdout)

			store, err := server.OpenStore(ctx, cfg.Storage)
			if err != nil {
				return fail("Cannot open the task store", err)
			}

			srv, err := server.New(ctx, cfg, store, logger)
			if err != nil {
				store.Close()
				return fail("Cannot start server", err)
			}

			// Start closes the store on shutdown.
			if err := srv.Start(); err != nil {
				return fail("Server stopped with an error", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&port, "port", "P", 8080, "Listen port (overrides server.port)")
	return cmd
}
