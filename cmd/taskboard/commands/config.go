package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/sakif/taskboard/internal/config"
	"github.com/sakif/taskboard/internal/printer"
)

const defaultConfigPath = "taskboard.yaml"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the config file",
	}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the current settings",
		Long: `Write a YAML config file holding the defaults (plus any TASKBOARD_*
environment overrides). The file goes to --config, or taskboard.yaml.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				path = defaultConfigPath
			}

			if _, err := os.Stat(path); err == nil && !force {
				return printer.Error("Config file already exists",
					fmt.Sprintf("%s is already there.", path),
					[]string{"Pass --force to overwrite it"})
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fail("Cannot check config file", err)
			}

			cfg, err := config.Load("")
			if err != nil {
				return fail("Invalid configuration", err)
			}
			if err := config.Save(path, cfg); err != nil {
				return fail("Cannot write config file", err)
			}
			printer.Success("Wrote %s\n", path)
			if cfg.Auth.JWTSecret == "" {
				printer.Warning("auth.jwt_secret is empty; the API will use a random secret per run\n")
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Auth.JWTSecret != "" {
				cfg.Auth.JWTSecret = "********"
			}
			if cfg.Storage.RedisPassword != "" {
				cfg.Storage.RedisPassword = "********"
			}
			return printer.FormatJSON(printer.Out, cfg)
		},
	}
}
