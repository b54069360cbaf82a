package cli

import (
	"context"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

// NewUsersCommand creates the users command.
func NewUsersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List profiles with their record counts",
		Long: `List every profile in the roster with how many records it holds and
when it was last active. The first profile is the administrator.

Examples:
  freshstart users
  freshstart users --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsers(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runUsers(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	rt, err := opts.open(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	overview, err := rt.exports.Overview(contextOrBackground(ctx))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read profiles", err)
	}

	out := newPrinter(opts.Format, cmd.OutOrStdout())
	if out.json() {
		return out.JSON(overview)
	}

	if len(overview.Users) == 0 {
		out.Warn("No profiles yet.")
		return nil
	}

	out.Heading("Profiles (%d)", overview.Totals.Users)
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	out.w = tw
	out.Line("  ID\tNAME\tSMOKING\tTRIGGERS\tFEEDBACK\tLAST ACTIVITY\t")
	for i, s := range overview.Users {
		name := s.Name
		if i == 0 {
			name += " (admin)"
		}
		out.Line("  %s\t%s\t%d\t%d\t%d\t%s\t",
			s.ID, name, s.SmokingRecords, s.TriggerRecords, s.Feedback,
			s.LastActivity.Local().Format(time.DateTime))
	}
	t := overview.Totals
	out.Line("  \tTOTAL\t%d\t%d\t%d\t\t", t.SmokingRecords, t.TriggerRecords, t.Feedback)
	return tw.Flush()
}

// contextOrBackground guards against commands executed without
// ExecuteContext, where cmd.Context() is nil.
func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
