package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/repository"
)

const (
	DefaultDailyTarget    = 20
	DefaultCigarettePrice = 0.50
)

// defaultTable is the one place category defaults are defined. Reads of an
// absent key, reads with no user selected, and (with CorruptAsEmpty) reads
// of a malformed value all come from here.
var defaultTable = map[Category]func(now time.Time) any{
	CategorySmoking:     func(time.Time) any { return []model.SmokingRecord{} },
	CategoryTriggers:    func(time.Time) any { return []model.TriggerRecord{} },
	CategoryFeedback:    func(time.Time) any { return []model.FeedbackEntry{} },
	CategoryDailyTarget: func(time.Time) any { return DefaultDailyTarget },
	CategorySettings: func(now time.Time) any {
		return model.UserSettings{CigarettePrice: DefaultCigarettePrice, StartDate: now}
	},
	CategoryActivity: func(time.Time) any { return []model.ActivityEntry{} },
}

// Default returns the default value of category c at the Manager's current time.
func (m *Manager) Default(c Category) any {
	return defaultTable[c](m.now())
}

// readKey decodes the JSON value under key into a T, falling back to the
// default of c when the key is absent or holds "null".
//
// The daily target is stored as a bare integer ("20"), which is valid JSON,
// so it goes through the same path as the collections.
func readKey[T any](ctx context.Context, m *Manager, tx repository.Tx, key string, c Category) (T, error) {
	var zero T

	raw, ok, err := tx.Get(ctx, key)
	if err != nil {
		return zero, fmt.Errorf("records: reading %s: %w", key, err)
	}
	if !ok || strings.TrimSpace(raw) == "null" {
		return m.Default(c).(T), nil
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		if m.corruptAsEmpty {
			m.logger.Warn("treating malformed stored value as absent", "key", key, "error", err)
			return m.Default(c).(T), nil
		}
		return zero, apperror.Corrupt(key, err)
	}
	return v, nil
}

// writeKey encodes v as JSON and stores it under key.
func writeKey(ctx context.Context, tx repository.Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("records: encoding %s: %w", key, err)
	}
	if err := tx.Set(ctx, key, string(raw)); err != nil {
		return fmt.Errorf("records: writing %s: %w", key, err)
	}
	return nil
}
