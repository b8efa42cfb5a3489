// internal/cli/root.go
package cli

import (
	"context"
	"fmt"

	"offer-ledger/internal/bootstrap"
	"offer-ledger/internal/common/config"
	"offer-ledger/internal/common/logger"

	"github.com/spf13/cobra"
)

// Opener builds the application graph for one command invocation.
type Opener func(ctx context.Context, opts *RootOptions) (*bootstrap.App, error)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	open Opener
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand creates offerctl. A nil opener loads the configuration and
// connects to the configured backends.
func NewRootCommand(open Opener) *cobra.Command {
	if open == nil {
		open = openFromConfig
	}
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "offerctl",
		Short: "Administer the offer ledger",
		Long:  "Inspect applications, run reconciliation, purge records and moderate users against the shared store and ledger.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: ./configs/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewPurgeCommand(opts))
	cmd.AddCommand(NewReconcileCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewUsersCommand(opts))
	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func openFromConfig(ctx context.Context, opts *RootOptions) (*bootstrap.App, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.ConfigPath != "" {
		cfg, err = config.LoadFromFile(opts.ConfigPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logCfg := cfg.Logging
	logCfg.Output = "stderr"
	if !opts.Verbose {
		logCfg.Level = "warn"
	}
	log, err := logger.NewFromConfig(logCfg)
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(ctx, cfg, log, bootstrap.Options{ServiceName: "offerctl"})
}

// withApp opens the application graph, runs fn and closes it.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, app *bootstrap.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app, err := opts.open(ctx, opts)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open backends", err)
	}
	defer app.Close()
	return fn(ctx, app)
}
