// Package cli implements freshstart, the administrator's command-line tool.
//
// It talks to the same store the HTTP server uses, so stop the server first
// when the SQLite file is in use (or point --config at a copy).
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/sakif/fresh-start/internal/app"
	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/config"
	"github.com/sakif/fresh-start/internal/repository"
	"github.com/sakif/fresh-start/internal/service"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the freshstart CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "freshstart",
		Short: "Fresh Start administration",
		Long:  "Inspect, export and wipe the records of the Fresh Start quit-smoking tracker.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $CONFIG_PATH or ./config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log store activity to stderr")

	cmd.AddCommand(NewUsersCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewExportAllCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

// runtime is what a command needs once config is loaded and the store open.
type runtime struct {
	store    repository.Store
	profiles *service.ProfileService
	tracker  *service.TrackerService
	exports  *service.ExportService
}

func (r *runtime) Close() error {
	return r.store.Close()
}

// open loads config and opens the store. The caller must Close the runtime.
func (o *RootOptions) open(stderr io.Writer) (*runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, err = config.LoadFile(o.ConfigPath, true)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return o.build(cfg, stderr)
}

func (o *RootOptions) build(cfg *config.Config, stderr io.Writer) (*runtime, error) {
	level := slog.LevelWarn
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	store, err := app.OpenStore(cfg.Storage)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	rm := app.NewRecords(store, cfg.Storage, logger)
	return &runtime{
		store:    store,
		profiles: service.NewProfileService(rm, auth.NewPINService(cfg.Auth.BcryptCost), logger),
		tracker:  service.NewTrackerService(rm, logger),
		exports:  service.NewExportService(rm, logger),
	}, nil
}
