package cli

import (
	"context"

	"github.com/spf13/cobra"
)

// ClearOptions holds flags for the clear command.
type ClearOptions struct {
	*RootOptions
	All bool
	Yes bool
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClearOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "clear [user-id]",
		Short: "Delete stored records",
		Long: `Delete every record of one profile, or of all profiles with --all.
Profiles themselves stay in the roster. Nothing happens without --yes.

Examples:
  freshstart clear cn1bq3u6n88r0pt4tk30 --yes
  freshstart clear --all --yes`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClear(cmd.Context(), opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "clear every profile's records")
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm the deletion")
	return cmd
}

func runClear(ctx context.Context, opts *ClearOptions, cmd *cobra.Command, args []string) error {
	ctx = contextOrBackground(ctx)

	switch {
	case opts.All && len(args) > 0:
		return NewExitError(ExitCommandError, "give either a user id or --all, not both")
	case !opts.All && len(args) == 0:
		return NewExitError(ExitCommandError, "give a user id or --all")
	case !opts.Yes:
		return NewExitError(ExitCommandError, "refusing to delete without --yes")
	}

	rt, err := opts.open(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	out := newPrinter(opts.Format, cmd.OutOrStdout())

	if opts.All {
		if err := rt.exports.ClearAll(ctx); err != nil {
			return WrapExitError(ExitFailure, "failed to clear", err)
		}
		if out.json() {
			return out.JSON(map[string]any{"cleared": "all"})
		}
		out.Warn("Cleared every profile's records.")
		return nil
	}

	userID := args[0]
	n, err := rt.exports.ClearUser(ctx, userID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to clear", err)
	}
	if out.json() {
		return out.JSON(map[string]any{"cleared": userID, "deletedKeys": n})
	}
	out.Warn("Cleared %d keys of %s.", n, userID)
	return nil
}
