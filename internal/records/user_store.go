package records

import (
	"context"
	"fmt"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/repository"
)

// UserStore is the record store of one user. Get one from Manager.For.
type UserStore struct {
	m      *Manager
	userID string
	err    error // set when userID cannot namespace keys
}

// UserID returns the id this store is scoped to ("" when nobody is selected).
func (u *UserStore) UserID() string {
	return u.userID
}

// Selected reports whether a user is selected.
func (u *UserStore) Selected() bool {
	return u.userID != ""
}

func (u *UserStore) key(c Category) string {
	return u.m.Key(u.userID, c)
}

// read decodes category c inside tx.
func read[T any](ctx context.Context, u *UserStore, tx repository.Tx, c Category) (T, error) {
	if !u.Selected() {
		return u.m.Default(c).(T), nil
	}
	return readKey[T](ctx, u.m, tx, u.key(c), c)
}

// get reads category c in its own read-only transaction.
func get[T any](ctx context.Context, u *UserStore, c Category) (T, error) {
	var out T
	if u.err != nil {
		return out, u.err
	}
	if !u.Selected() {
		return u.m.Default(c).(T), nil
	}
	err := u.m.store.View(ctx, func(tx repository.Tx) error {
		var err error
		out, err = read[T](ctx, u, tx, c)
		return err
	})
	return out, err
}

// mutation computes the replacement value of a category and the payload of
// the activity-log entry that describes the change.
type mutation func(tx repository.Tx) (value any, payload map[string]any, err error)

// mutate is the single write path. In one Update it stores the value produced
// by fn under category c and appends one activity-log entry for action.
func (u *UserStore) mutate(ctx context.Context, c Category, action string, fn mutation) error {
	if u.err != nil {
		return u.err
	}
	if !u.Selected() {
		return nil
	}

	sessionID, err := u.m.SessionID(ctx)
	if err != nil {
		return err
	}

	err = u.m.store.Update(ctx, func(tx repository.Tx) error {
		value, payload, err := fn(tx)
		if err != nil {
			return err
		}
		if err := writeKey(ctx, tx, u.key(c), value); err != nil {
			return err
		}
		return u.appendActivity(ctx, tx, action, payload, sessionID)
	})
	if err != nil {
		return err
	}

	u.m.logger.Debug("records updated", "user_id", u.userID, "category", string(c), "action", action)
	return nil
}

// appendActivity pushes one entry and evicts from the front past the limit.
func (u *UserStore) appendActivity(ctx context.Context, tx repository.Tx, action string, payload map[string]any, sessionID string) error {
	log, err := read[[]model.ActivityEntry](ctx, u, tx, CategoryActivity)
	if err != nil {
		return err
	}

	log = append(log, model.ActivityEntry{
		Timestamp: u.m.now().UTC(),
		Action:    action,
		Data:      payload,
		SessionID: sessionID,
		UserID:    u.userID,
	})
	if over := len(log) - ActivityLogLimit; over > 0 {
		log = log[over:]
	}

	return writeKey(ctx, tx, u.key(CategoryActivity), log)
}

// =========================================================================
// SMOKING RECORDS
// =========================================================================

func (u *UserStore) SmokingRecords(ctx context.Context) ([]model.SmokingRecord, error) {
	return get[[]model.SmokingRecord](ctx, u, CategorySmoking)
}

// SaveSmokingRecords replaces the whole collection.
//
// The stored collection never holds a zero count or two entries for the same
// date, whatever the caller passes: zero entries are dropped and for a
// repeated date the last value wins (kept at the position of the first).
func (u *UserStore) SaveSmokingRecords(ctx context.Context, recs []model.SmokingRecord) error {
	normalized, err := normalizeSmoking(recs)
	if err != nil {
		return err
	}
	return u.mutate(ctx, CategorySmoking, ActionSmokingUpdated, func(repository.Tx) (any, map[string]any, error) {
		return normalized, map[string]any{"recordsCount": len(normalized)}, nil
	})
}

// RecordCigarettes sets the count for one date and returns the resulting
// collection. A zero count removes the date.
func (u *UserStore) RecordCigarettes(ctx context.Context, date string, count int) ([]model.SmokingRecord, error) {
	if err := (model.SmokingRecord{Date: date, Cigarettes: count}).Validate(); err != nil {
		return nil, err
	}
	return u.updateDay(ctx, date, func(int) int { return count })
}

// AdjustCigarettes adds delta to the count of one date, reading the current
// count in the same transaction as the write. The result is clamped at zero
// and a zero result removes the date.
func (u *UserStore) AdjustCigarettes(ctx context.Context, date string, delta int) ([]model.SmokingRecord, error) {
	if err := (model.SmokingRecord{Date: date}).Validate(); err != nil {
		return nil, err
	}
	return u.updateDay(ctx, date, func(current int) int { return max(current+delta, 0) })
}

// updateDay replaces the count of date with next(current) in one mutation.
func (u *UserStore) updateDay(ctx context.Context, date string, next func(current int) int) ([]model.SmokingRecord, error) {
	if u.err == nil && !u.Selected() {
		return u.m.Default(CategorySmoking).([]model.SmokingRecord), nil
	}

	var result []model.SmokingRecord
	err := u.mutate(ctx, CategorySmoking, ActionSmokingUpdated, func(tx repository.Tx) (any, map[string]any, error) {
		current, err := read[[]model.SmokingRecord](ctx, u, tx, CategorySmoking)
		if err != nil {
			return nil, nil, err
		}
		count := 0
		result = make([]model.SmokingRecord, 0, len(current)+1)
		for _, r := range current {
			if r.Date == date {
				count = r.Cigarettes
				continue
			}
			result = append(result, r)
		}
		if count = next(count); count > 0 {
			result = append(result, model.SmokingRecord{Date: date, Cigarettes: count})
		}
		return result, map[string]any{"recordsCount": len(result)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func normalizeSmoking(recs []model.SmokingRecord) ([]model.SmokingRecord, error) {
	out := make([]model.SmokingRecord, 0, len(recs))
	index := make(map[string]int, len(recs))
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		if i, seen := index[r.Date]; seen {
			out[i].Cigarettes = r.Cigarettes
			continue
		}
		index[r.Date] = len(out)
		out = append(out, r)
	}

	kept := out[:0]
	for _, r := range out {
		if r.Cigarettes > 0 {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// =========================================================================
// TRIGGER RECORDS
// =========================================================================

func (u *UserStore) TriggerRecords(ctx context.Context) ([]model.TriggerRecord, error) {
	return get[[]model.TriggerRecord](ctx, u, CategoryTriggers)
}

// SaveTriggerRecords replaces the whole collection. Ids must be unique.
func (u *UserStore) SaveTriggerRecords(ctx context.Context, recs []model.TriggerRecord) error {
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		if err := r.Validate(); err != nil {
			return err
		}
		if seen[r.ID] {
			return apperror.Conflict("trigger record", r.ID)
		}
		seen[r.ID] = true
	}

	stored := append([]model.TriggerRecord{}, recs...)
	return u.mutate(ctx, CategoryTriggers, ActionTriggerAdded, func(repository.Tx) (any, map[string]any, error) {
		return stored, map[string]any{"recordsCount": len(stored)}, nil
	})
}

// AddTrigger appends one trigger. An empty ID is filled in with a fresh one.
func (u *UserStore) AddTrigger(ctx context.Context, rec model.TriggerRecord) (model.TriggerRecord, error) {
	if rec.ID == "" {
		rec.ID = u.m.newID()
	}
	if err := rec.Validate(); err != nil {
		return model.TriggerRecord{}, err
	}

	err := u.mutate(ctx, CategoryTriggers, ActionTriggerAdded, func(tx repository.Tx) (any, map[string]any, error) {
		current, err := read[[]model.TriggerRecord](ctx, u, tx, CategoryTriggers)
		if err != nil {
			return nil, nil, err
		}
		for _, r := range current {
			if r.ID == rec.ID {
				return nil, nil, apperror.Conflict("trigger record", rec.ID)
			}
		}
		current = append(current, rec)
		return current, map[string]any{"recordsCount": len(current)}, nil
	})
	if err != nil {
		return model.TriggerRecord{}, err
	}
	return rec, nil
}

// =========================================================================
// FEEDBACK
// =========================================================================

func (u *UserStore) Feedback(ctx context.Context) ([]model.FeedbackEntry, error) {
	return get[[]model.FeedbackEntry](ctx, u, CategoryFeedback)
}

func (u *UserStore) SaveFeedback(ctx context.Context, entries []model.FeedbackEntry) error {
	for _, f := range entries {
		if err := f.Validate(); err != nil {
			return err
		}
	}

	stored := append([]model.FeedbackEntry{}, entries...)
	return u.mutate(ctx, CategoryFeedback, ActionFeedbackSubmitted, func(repository.Tx) (any, map[string]any, error) {
		return stored, map[string]any{"feedbackCount": len(stored)}, nil
	})
}

// AddFeedback appends one entry, stamping it with the current time when the
// caller left Timestamp unset.
func (u *UserStore) AddFeedback(ctx context.Context, entry model.FeedbackEntry) (model.FeedbackEntry, error) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = u.m.now().UTC()
	}
	if err := entry.Validate(); err != nil {
		return model.FeedbackEntry{}, err
	}

	err := u.mutate(ctx, CategoryFeedback, ActionFeedbackSubmitted, func(tx repository.Tx) (any, map[string]any, error) {
		current, err := read[[]model.FeedbackEntry](ctx, u, tx, CategoryFeedback)
		if err != nil {
			return nil, nil, err
		}
		current = append(current, entry)
		return current, map[string]any{"feedbackCount": len(current)}, nil
	})
	if err != nil {
		return model.FeedbackEntry{}, err
	}
	return entry, nil
}

// =========================================================================
// DAILY TARGET AND SETTINGS
// =========================================================================

func (u *UserStore) DailyTarget(ctx context.Context) (int, error) {
	return get[int](ctx, u, CategoryDailyTarget)
}

func (u *UserStore) SaveDailyTarget(ctx context.Context, target int) error {
	if target < 0 {
		return apperror.ValidationFailed("dailyTarget", "daily target cannot be negative")
	}
	return u.mutate(ctx, CategoryDailyTarget, ActionDailyTargetChanged, func(repository.Tx) (any, map[string]any, error) {
		return target, map[string]any{"newTarget": target}, nil
	})
}

func (u *UserStore) Settings(ctx context.Context) (model.UserSettings, error) {
	return get[model.UserSettings](ctx, u, CategorySettings)
}

// SaveSettings overwrites the settings. A zero StartDate means "now".
func (u *UserStore) SaveSettings(ctx context.Context, s model.UserSettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.StartDate.IsZero() {
		s.StartDate = u.m.now().UTC()
	}
	return u.mutate(ctx, CategorySettings, ActionSettingsUpdated, func(repository.Tx) (any, map[string]any, error) {
		return s, map[string]any{"cigarettePrice": s.CigarettePrice, "startDate": s.StartDate}, nil
	})
}

// =========================================================================
// ACTIVITY LOG
// =========================================================================

// ActivityLog returns the log oldest first.
func (u *UserStore) ActivityLog(ctx context.Context) ([]model.ActivityEntry, error) {
	return get[[]model.ActivityEntry](ctx, u, CategoryActivity)
}

// LogActivity appends a free-standing entry, for events that change no
// category (a profile being selected, a data export).
func (u *UserStore) LogActivity(ctx context.Context, action string, data map[string]any) error {
	if u.err != nil {
		return u.err
	}
	if !u.Selected() {
		return nil
	}
	if action == "" {
		return apperror.ValidationFailed("action", "activity action is required")
	}

	sessionID, err := u.m.SessionID(ctx)
	if err != nil {
		return err
	}
	return u.m.store.Update(ctx, func(tx repository.Tx) error {
		return u.appendActivity(ctx, tx, action, data, sessionID)
	})
}

// Has reports whether category c has a stored value, as opposed to reads
// falling back to the default.
func (u *UserStore) Has(ctx context.Context, c Category) (bool, error) {
	if u.err != nil {
		return false, u.err
	}
	if !u.Selected() {
		return false, nil
	}
	_, ok, err := u.m.store.Get(ctx, u.key(c))
	if err != nil {
		return false, fmt.Errorf("records: reading %s: %w", u.key(c), err)
	}
	return ok, nil
}

// =========================================================================
// EXPORT AND CLEAR
// =========================================================================

// Export reads all six categories from one snapshot.
func (u *UserStore) Export(ctx context.Context) (model.UserData, error) {
	if u.err != nil {
		return model.UserData{}, u.err
	}

	var data model.UserData
	readAll := func(tx repository.Tx) error {
		var err error
		if data.SmokingRecords, err = read[[]model.SmokingRecord](ctx, u, tx, CategorySmoking); err != nil {
			return err
		}
		if data.TriggerRecords, err = read[[]model.TriggerRecord](ctx, u, tx, CategoryTriggers); err != nil {
			return err
		}
		if data.Feedback, err = read[[]model.FeedbackEntry](ctx, u, tx, CategoryFeedback); err != nil {
			return err
		}
		if data.DailyTarget, err = read[int](ctx, u, tx, CategoryDailyTarget); err != nil {
			return err
		}
		if data.UserSettings, err = read[model.UserSettings](ctx, u, tx, CategorySettings); err != nil {
			return err
		}
		data.ActivityLog, err = read[[]model.ActivityEntry](ctx, u, tx, CategoryActivity)
		return err
	}

	// With nobody selected every read is a default; there is nothing to snapshot.
	if !u.Selected() {
		return data, readAll(nil)
	}
	if err := u.m.store.View(ctx, readAll); err != nil {
		return model.UserData{}, fmt.Errorf("records: exporting %s: %w", u.userID, err)
	}
	return data, nil
}

// Clear deletes every key in this user's namespace and the session id.
// It returns how many keys were deleted.
func (u *UserStore) Clear(ctx context.Context) (int, error) {
	if u.err != nil {
		return 0, u.err
	}
	if !u.Selected() {
		return 0, nil
	}

	var deleted int
	err := u.m.store.Update(ctx, func(tx repository.Tx) error {
		keys, err := tx.ListKeys(ctx, u.m.namespace(u.userID))
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(ctx, key); err != nil {
				return err
			}
		}
		deleted = len(keys)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("records: clearing %s: %w", u.userID, err)
	}

	if err := u.m.ClearSession(ctx); err != nil {
		return deleted, err
	}
	u.m.logger.Info("user data cleared", "user_id", u.userID, "keys", deleted)
	return deleted, nil
}
