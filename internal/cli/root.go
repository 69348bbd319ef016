// Package cli holds the readbot command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/readbot/internal/app"
	"github.com/MrSnakeDoc/readbot/internal/config"
	"github.com/MrSnakeDoc/readbot/internal/version"
)

const AppName = "readbot"

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	serve := NewServeCmd()

	cmd := &cobra.Command{
		Use:           AppName,
		Short:         "Slack bot that files bookmarked links into Goodreads and Pocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.Version = version.Version
	cmd.SetVersionTemplate(AppName + " version {{.Version}}\n")
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.AddCommand(
		serve,
		NewVersionCmd(),
		NewConfigCmd(),
	)

	return cmd
}

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server for Slack events, slash commands and OAuth callbacks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cmd.Context())
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", AppName, version.String())
			return err
		},
	}
}

// NewConfigCmd creates the config command, which validates the environment
// and prints the resulting configuration with secrets hidden.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Validate the environment and print the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				// config.Load panics on fatal settings
				if r := recover(); r != nil {
					err = fmt.Errorf("%v", r)
				}
			}()
			cfg := config.Load().Redacted()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%+v\n", cfg)
			return err
		},
	}
}
