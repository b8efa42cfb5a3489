// internal/cli/applications.go
package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"offer-ledger/internal/bootstrap"
	"offer-ledger/internal/lifecycle"
	"offer-ledger/internal/models"
	"offer-ledger/internal/reconcile"

	"github.com/spf13/cobra"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Owner  string
	Status string
}

func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List applications",
		Long: `List applications with their status and ledger row.

Examples:
  offerctl list
  offerctl list --owner 777 --status agreed
  offerctl list --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Status != "" && !models.Status(opts.Status).Valid() {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown status %q", opts.Status))
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				return runList(ctx, opts, app, printer{opts.Format, cmd.OutOrStdout()})
			})
		},
	}
	cmd.Flags().StringVar(&opts.Owner, "owner", "", "only applications of this owner")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only applications in this status")
	return cmd
}

func runList(ctx context.Context, opts *ListOptions, app *bootstrap.App, p printer) error {
	var (
		apps []*models.Application
		err  error
	)
	if opts.Owner != "" {
		apps, err = app.Engine.ListByOwner(ctx, opts.Owner)
	} else {
		apps, err = app.Engine.All(ctx)
	}
	if err != nil {
		return failed("failed to list applications", err)
	}

	out := make([]*models.Application, 0, len(apps))
	rows := make([][]string, 0, len(apps))
	for _, a := range apps {
		if opts.Status != "" && string(a.Status) != opts.Status {
			continue
		}
		out = append(out, a)
		row := "-"
		if a.HasRow() {
			row = strconv.Itoa(a.Row())
		}
		rows = append(rows, []string{
			a.ID, a.OwnerID, string(a.Status), row, a.Proposal,
			a.Offer.Culture, a.Offer.Quantity, a.UpdatedAt.Format(time.RFC3339),
		})
	}
	return p.table(out, []string{"ID", "OWNER", "STATUS", "ROW", "PROPOSAL", "CULTURE", "QTY", "UPDATED"}, rows)
}

// PurgeOptions holds flags for the purge command.
type PurgeOptions struct {
	*RootOptions
	Force bool
	Actor string
}

func NewPurgeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PurgeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete an application and its ledger row",
		Long: `Permanently delete an application, remove its ledger row and renumber
every record below it. Reconciliation is suspended for the duration and
resumed after the configured settle delay.

Only soft-deleted applications are purged unless --force is given.

Examples:
  offerctl purge 6f1c0d2e-...
  offerctl purge 6f1c0d2e-... --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				res, err := app.Coordinator.Purge(ctx, args[0], opts.Force, opts.Actor)
				if err != nil {
					return failed("purge failed", err)
				}
				p := printer{opts.Format, cmd.OutOrStdout()}
				return p.line(res, fmt.Sprintf("purged %s (row %d, %d rows renumbered)", res.ApplicationID, res.Row, res.Renumbered))
			})
		},
	}
	cmd.Flags().BoolVar(&opts.Force, "force", false, "purge even if the application was not soft-deleted")
	cmd.Flags().StringVar(&opts.Actor, "actor", "offerctl", "actor recorded in the audit trail")
	return cmd
}

type cycleOutput struct {
	Outcome string                 `json:"outcome"`
	Error   string                 `json:"error,omitempty"`
	Result  *lifecycle.CycleResult `json:"result,omitempty"`
}

func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation cycle",
		Long: `Read the manager price column once and fold every change into the
matching applications. The cycle is skipped while a purge holds the loop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				outcome, res, err := app.Loop.RunOnce(ctx)
				out := cycleOutput{Outcome: outcome, Result: res}
				if err != nil {
					out.Error = err.Error()
				}

				p := printer{rootOpts.Format, cmd.OutOrStdout()}
				text := "cycle " + outcome
				if res != nil {
					text += fmt.Sprintf(": rows=%d events=%d saved=%d notified=%d malformed=%d",
						res.Rows, res.Events, res.Saved, res.Notified, res.Malformed)
				}
				if perr := p.line(out, text); perr != nil {
					return perr
				}
				if outcome == reconcile.ResultFailed || err != nil {
					return failed("reconciliation cycle "+outcome, err)
				}
				return nil
			})
		},
	}
}

func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the recorded transitions of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				entries, err := app.Audit.History(ctx, args[0])
				if err != nil {
					return failed("failed to read history", err)
				}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						e.At.Format(time.RFC3339), string(e.From), string(e.To), string(e.Trigger), e.Actor, e.Price,
					})
				}
				p := printer{rootOpts.Format, cmd.OutOrStdout()}
				return p.table(entries, []string{"AT", "FROM", "TO", "TRIGGER", "ACTOR", "PRICE"}, rows)
			})
		},
	}
}
