package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/service"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <user-id>",
		Short: "Show one profile's progress",
		Long: `Show the dashboard of one profile: today's count against the target,
smoke-free days, money saved, health milestones and stored record counts.

Examples:
  freshstart stats cn1bq3u6n88r0pt4tk30
  freshstart stats cn1bq3u6n88r0pt4tk30 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd.Context(), rootOpts, cmd, args[0])
		},
	}
}

// StatsResult is the JSON shape of the stats command.
type StatsResult struct {
	Profile   model.ProfileInfo `json:"profile"`
	Dashboard service.Dashboard `json:"dashboard"`
	Stored    model.DataSummary `json:"stored"`
}

func runStats(ctx context.Context, opts *RootOptions, cmd *cobra.Command, userID string) error {
	ctx = contextOrBackground(ctx)

	rt, err := opts.open(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	profile, err := rt.profiles.Get(ctx, userID)
	if err != nil {
		return WrapExitError(ExitFailure, "unknown profile", err)
	}
	dash, err := rt.tracker.Dashboard(ctx, userID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to compute dashboard", err)
	}
	summary, err := rt.exports.Summary(ctx, userID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to count records", err)
	}

	out := newPrinter(opts.Format, cmd.OutOrStdout())
	if out.json() {
		return out.JSON(StatsResult{Profile: profile, Dashboard: dash, Stored: summary})
	}

	out.Heading("%s (%s)", profile.Name, profile.ID)
	out.Field("Today", fmt.Sprintf("%d / %d (%.0f%%, %s)",
		dash.Today.Cigarettes, dash.Today.DailyTarget, dash.Today.Progress, dash.Today.Level))
	out.Field("Smoke-free days", dash.DaysSmokeFree)
	out.Field("Cigarettes avoided", dash.CigarettesAvoided)
	out.Field("Money saved", fmt.Sprintf("%.2f", dash.MoneySaved))

	for _, m := range dash.Achieved {
		out.Good("  ✓ %d days: %s", m.Days, m.Title)
	}
	if dash.Next != nil {
		out.Warn("  → %d days: %s (%d to go)", dash.Next.Days, dash.Next.Title, dash.Next.DaysRemaining)
	}

	out.Heading("Stored records")
	out.Field("Smoking", summary.SmokingRecords)
	out.Field("Triggers", summary.TriggerRecords)
	out.Field("Feedback", summary.Feedback)
	out.Field("Activity log", summary.ActivityLogs)
	out.Field("Custom settings", summary.HasSettings)
	return nil
}
