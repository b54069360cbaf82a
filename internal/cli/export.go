package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export commands.
type ExportOptions struct {
	*RootOptions
	Output string // file path; "-" for stdout; "" for the default file name
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <user-id>",
		Short: "Write one profile's backup file",
		Long: `Write the backup document of one profile, the same file the app offers
for download.

Examples:
  freshstart export cn1bq3u6n88r0pt4tk30
  freshstart export cn1bq3u6n88r0pt4tk30 -o alice.json
  freshstart export cn1bq3u6n88r0pt4tk30 -o - | jq .data.dailyTarget`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), opts, cmd, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: fresh-start-dados-<timestamp>.json, - for stdout)")
	return cmd
}

// NewExportAllCommand creates the export-all command.
func NewExportAllCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export-all",
		Short: "Write one backup file holding every profile",
		Long: `Write the administrator backup: every profile with all of its records.

Examples:
  freshstart export-all
  freshstart export-all -o backup.json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExportAll(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: fresh-start-admin-dados-<date>.json, - for stdout)")
	return cmd
}

func runExport(ctx context.Context, opts *ExportOptions, cmd *cobra.Command, userID string) error {
	ctx = contextOrBackground(ctx)

	rt, err := opts.open(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.profiles.Get(ctx, userID); err != nil {
		return WrapExitError(ExitFailure, "unknown profile", err)
	}
	doc, filename, err := rt.exports.ExportUser(ctx, userID)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export", err)
	}
	return writeDocument(opts, cmd, doc, filename)
}

func runExportAll(ctx context.Context, opts *ExportOptions, cmd *cobra.Command) error {
	ctx = contextOrBackground(ctx)

	rt, err := opts.open(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer rt.Close()

	doc, filename, err := rt.exports.ExportAll(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to export", err)
	}
	return writeDocument(opts, cmd, doc, filename)
}

// writeDocument writes doc to stdout or a file and reports where it went.
func writeDocument(opts *ExportOptions, cmd *cobra.Command, doc any, defaultName string) error {
	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return WrapExitError(ExitFailure, "failed to encode export", err)
	}
	body = append(body, '\n')

	if opts.Output == "-" {
		_, err := cmd.OutOrStdout().Write(body)
		return err
	}

	path := opts.Output
	if path == "" {
		path = defaultName
	}
	if err := os.WriteFile(path, body, 0o600); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("failed to write %s", path), err)
	}

	out := newPrinter(opts.Format, cmd.OutOrStdout())
	if out.json() {
		return out.JSON(map[string]any{"file": path, "bytes": len(body)})
	}
	out.Good("Wrote %s (%d bytes)", path, len(body))
	return nil
}
