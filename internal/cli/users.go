// internal/cli/users.go
package cli

import (
	"context"
	"fmt"

	"offer-ledger/internal/bootstrap"
	"offer-ledger/internal/models"

	"github.com/spf13/cobra"
)

func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Moderate users",
	}
	cmd.AddCommand(newUsersListCommand(rootOpts))
	cmd.AddCommand(newUsersRegisterCommand(rootOpts))
	cmd.AddCommand(newMembershipCommand(rootOpts, "approve", "Allow a user to file applications",
		func(ctx context.Context, app *bootstrap.App, id string) (*models.User, error) {
			return app.Users.Approve(ctx, id)
		}))
	cmd.AddCommand(newMembershipCommand(rootOpts, "block", "Block a user",
		func(ctx context.Context, app *bootstrap.App, id string) (*models.User, error) {
			return app.Users.Block(ctx, id)
		}))
	return cmd
}

func newUsersListCommand(rootOpts *RootOptions) *cobra.Command {
	var membership string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := models.Membership(membership)
			if m != "" && !m.Valid() {
				return NewExitError(ExitCommandError, fmt.Sprintf("unknown membership %q", membership))
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				list, err := app.Users.List(ctx, m)
				if err != nil {
					return failed("failed to list users", err)
				}
				rows := make([][]string, 0, len(list))
				for _, u := range list {
					rows = append(rows, []string{u.ID, string(u.Membership), u.FullName, u.Phone})
				}
				p := printer{rootOpts.Format, cmd.OutOrStdout()}
				return p.table(list, []string{"ID", "MEMBERSHIP", "NAME", "PHONE"}, rows)
			})
		},
	}
	cmd.Flags().StringVar(&membership, "membership", "", "pending, approved or blocked")
	return cmd
}

func newUsersRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var name, phone string
	cmd := &cobra.Command{
		Use:   "register <id>",
		Short: "Register a pending user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				u, err := app.Users.Register(ctx, args[0], name, phone)
				if err != nil {
					return failed("register failed", err)
				}
				p := printer{rootOpts.Format, cmd.OutOrStdout()}
				return p.line(u, fmt.Sprintf("user %s is %s", u.ID, u.Membership))
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	return cmd
}

func newMembershipCommand(rootOpts *RootOptions, use, short string, apply func(context.Context, *bootstrap.App, string) (*models.User, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, app *bootstrap.App) error {
				u, err := apply(ctx, app, args[0])
				if err != nil {
					return failed(use+" failed", err)
				}
				p := printer{rootOpts.Format, cmd.OutOrStdout()}
				return p.line(u, fmt.Sprintf("user %s is %s", u.ID, u.Membership))
			})
		},
	}
}
