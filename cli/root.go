// Package cli is the drinkstand command line: serve, seed and
// hash-password.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"go-drink-stand/config"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	EnvFile string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "drinkstand",
		Short: "Drink stand ordering server",
		Long: `Drink stand ordering server.

Customers order from a live catalog and follow their orders' status; staff
work the queue, edit the catalog and manage approved customers.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env", ".env", "path to an optional .env file")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))
	cmd.AddCommand(NewHashPasswordCommand())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(opts *RootOptions) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.EnvFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log := cfg.NewLogger(os.Stderr)
	slog.SetDefault(log)
	return cfg, log, nil
}
