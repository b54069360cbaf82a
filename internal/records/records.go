// Package records is the namespaced record store.
//
// It is the only code allowed to talk to the key-value adapter. Everything a
// user tracks lives under one key per category:
//
//	<prefix>_<userId>_smokingRecords   JSON array of {date, cigarettes}
//	<prefix>_<userId>_triggerRecords   JSON array of {id, date, time, emotion, situation, intensity}
//	<prefix>_<userId>_feedback         JSON array of {name, email, feedbackType, message, rating, timestamp}
//	<prefix>_<userId>_dailyTarget      stringified integer
//	<prefix>_<userId>_userSettings     JSON object {cigarettePrice, startDate}
//	<prefix>_<userId>_activityLog      JSON array of {timestamp, action, data, sessionId, userId}
//
// plus the unprefixed roster key and a session-scoped session id.
//
// NO GLOBAL "CURRENT USER":
// Callers pick the user explicitly with Manager.For(userID). The empty id is
// the "nobody selected" store: its reads return category defaults and its
// writes do nothing. Nothing in this package remembers who was selected last.
//
// ONE TRANSACTION PER MUTATION:
// Every write replaces a whole collection and appends one activity-log entry
// inside the same repository.Store Update, so the audit trail cannot drift
// from the data it describes.
package records

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/repository"
	"github.com/sakif/fresh-start/internal/repository/memory"
)

const (
	// DefaultPrefix namespaces every per-user key.
	DefaultPrefix = "registos"
	// RosterKey holds the JSON array of known profiles. It is not prefixed.
	RosterKey = "fresh_start_users"
	// SessionKey holds the session id in the session-scoped store.
	SessionKey = "freshstart_session_id"
	// ActivityLogLimit is the most entries a user's activity log ever holds.
	ActivityLogLimit = 1000
)

// Category names one of the six per-user collections. The value is the
// suffix of the storage key.
type Category string

const (
	CategorySmoking     Category = "smokingRecords"
	CategoryTriggers    Category = "triggerRecords"
	CategoryFeedback    Category = "feedback"
	CategoryDailyTarget Category = "dailyTarget"
	CategorySettings    Category = "userSettings"
	CategoryActivity    Category = "activityLog"
)

// Categories lists all six categories.
var Categories = []Category{
	CategorySmoking,
	CategoryTriggers,
	CategoryFeedback,
	CategoryDailyTarget,
	CategorySettings,
	CategoryActivity,
}

// Activity-log action names, one per mutating category.
const (
	ActionSmokingUpdated     = "smoking_record_updated"
	ActionTriggerAdded       = "trigger_record_added"
	ActionFeedbackSubmitted  = "feedback_submitted"
	ActionDailyTargetChanged = "daily_target_changed"
	ActionSettingsUpdated    = "settings_updated"
)

// userIDPattern keeps ids free of "_" so no two users can ever derive the
// same key: "a_b" + "_feedback" would otherwise collide with user "a".
var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// ValidUserID reports whether id can be used to namespace keys.
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// Options configures a Manager. Zero values pick the production defaults.
type Options struct {
	// Prefix replaces DefaultPrefix.
	Prefix string
	// CorruptAsEmpty makes reads treat malformed stored values as absent
	// (returning the category default) instead of failing with ErrCorrupt.
	CorruptAsEmpty bool
	// Now is the clock. Defaults to time.Now.
	Now func() time.Time
	// NewID generates profile and trigger ids. Defaults to xid.
	NewID func() string
	// NewSessionID generates session ids. Defaults to unix millis + random suffix.
	NewSessionID func(now time.Time) string
	Logger       *slog.Logger
}

// Manager hands out per-user stores and owns the roster and session id.
type Manager struct {
	store          repository.Store
	session        repository.Store
	prefix         string
	corruptAsEmpty bool
	now            func() time.Time
	newID          func() string
	newSessionID   func(time.Time) string
	logger         *slog.Logger
}

// NewManager wires a Manager over a persistent store and a session-scoped one.
// A nil session store gets a fresh in-memory store, which lives exactly as long
// as the process, like a browser tab.
func NewManager(store, session repository.Store, opts Options) *Manager {
	if session == nil {
		session = memory.New()
	}
	m := &Manager{
		store:          store,
		session:        session,
		prefix:         opts.Prefix,
		corruptAsEmpty: opts.CorruptAsEmpty,
		now:            opts.Now,
		newID:          opts.NewID,
		newSessionID:   opts.NewSessionID,
		logger:         opts.Logger,
	}
	if m.prefix == "" {
		m.prefix = DefaultPrefix
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.newID == nil {
		m.newID = func() string { return xid.New().String() }
	}
	if m.newSessionID == nil {
		m.newSessionID = defaultSessionID
	}
	if m.logger == nil {
		m.logger = slog.New(slog.DiscardHandler)
	}
	return m
}

// Prefix returns the key prefix in use.
func (m *Manager) Prefix() string {
	return m.prefix
}

// Now exposes the Manager's clock so callers stamp records consistently.
func (m *Manager) Now() time.Time {
	return m.now()
}

// For returns the store for userID. The empty id is the "no user selected"
// store. An id that cannot namespace keys yields a store whose every
// operation fails validation.
func (m *Manager) For(userID string) *UserStore {
	u := &UserStore{m: m, userID: userID}
	if userID != "" && !ValidUserID(userID) {
		u.err = apperror.ValidationFailed("userId", fmt.Sprintf("user id %q may only contain letters, digits and '-'", userID))
	}
	return u
}

// Key derives the storage key of category c for userID.
func (m *Manager) Key(userID string, c Category) string {
	return m.namespace(userID) + string(c)
}

func (m *Manager) namespace(userID string) string {
	return m.prefix + "_" + userID + "_"
}

// ClearAll deletes every prefixed key of every user and the session id.
// The roster key is not prefixed and survives.
func (m *Manager) ClearAll(ctx context.Context) error {
	err := m.store.Update(ctx, func(tx repository.Tx) error {
		keys, err := tx.ListKeys(ctx, m.prefix+"_")
		if err != nil {
			return err
		}
		for _, key := range keys {
			if err := tx.Delete(ctx, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("records: clearing all data: %w", err)
	}
	return m.ClearSession(ctx)
}

// =========================================================================
// SESSION ID
// =========================================================================

type sessionCtxKey struct{}

// WithSessionID attaches a session id to ctx. Activity-log entries written
// under ctx carry it instead of the Manager's cached session id.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, sessionID)
}

// SessionIDFromContext returns the session id attached by WithSessionID.
func SessionIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(sessionCtxKey{}).(string)
	return id, ok && id != ""
}

// SessionID resolves the session id for ctx: the one attached to the context
// if any, otherwise the cached one in the session store, generated on first use.
func (m *Manager) SessionID(ctx context.Context) (string, error) {
	if id, ok := SessionIDFromContext(ctx); ok {
		return id, nil
	}

	var id string
	err := m.session.Update(ctx, func(tx repository.Tx) error {
		cached, ok, err := tx.Get(ctx, SessionKey)
		if err != nil {
			return err
		}
		if ok && cached != "" {
			id = cached
			return nil
		}
		id = m.newSessionID(m.now())
		return tx.Set(ctx, SessionKey, id)
	})
	if err != nil {
		return "", fmt.Errorf("records: resolving session id: %w", err)
	}
	return id, nil
}

// NewSessionID mints a session id without caching it. The HTTP layer uses it
// to start one session per login.
func (m *Manager) NewSessionID() string {
	return m.newSessionID(m.now())
}

// ClearSession forgets the cached session id.
func (m *Manager) ClearSession(ctx context.Context) error {
	if err := m.session.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("records: clearing session id: %w", err)
	}
	return nil
}

// defaultSessionID is the current time in unix millis followed by nine random
// base-16 characters. It is a correlation token, not an identity; collisions
// are harmless.
func defaultSessionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strconv.FormatInt(now.UnixMilli(), 10) + suffix[:9]
}
