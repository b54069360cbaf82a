// Package app assembles the pieces both binaries share: the logger, the
// key-value backend and the record store on top of it.
package app

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/fresh-start/internal/config"
	"github.com/sakif/fresh-start/internal/records"
	"github.com/sakif/fresh-start/internal/repository"
	"github.com/sakif/fresh-start/internal/repository/memory"
	"github.com/sakif/fresh-start/internal/repository/sqlite"
)

// OpenStore opens the backend cfg.Driver names. The caller owns the store and
// must Close it.
func OpenStore(cfg config.StorageConfig) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(memory.WithQuota(cfg.MemoryQuota)), nil

	case config.DriverSQLite:
		// Like `mkdir -p`: creates the data directory if needed.
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("app: creating data directory %s: %w", dir, err)
			}
		}
		db, err := sqlite.New(cfg.Path, sqlite.WithMaxPageCount(cfg.MaxPageCount))
		if err != nil {
			return nil, fmt.Errorf("app: opening database: %w", err)
		}
		return db, nil

	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Driver)
	}
}

// NewRecords builds the record store over store. The session id lives in a
// fresh in-memory store, so it lasts as long as the process.
func NewRecords(store repository.Store, cfg config.StorageConfig, logger *slog.Logger) *records.Manager {
	return records.NewManager(store, nil, records.Options{
		Prefix:         cfg.Prefix,
		CorruptAsEmpty: cfg.CorruptAsEmpty,
		Logger:         logger,
	})
}
