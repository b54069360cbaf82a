package service

import (
	"log/slog"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/records"
	"github.com/sakif/fresh-start/internal/repository/memory"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeClock is a settable clock shared by the Manager and the services.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

// testEnv wires every service over one in-memory store with a fixed clock,
// sequential ids ("1", "2", ...) and session id "session-1".
type testEnv struct {
	store    *memory.Store
	clock    *fakeClock
	records  *records.Manager
	profiles *ProfileService
	tracker  *TrackerService
	triggers *TriggerService
	feedback *FeedbackService
	exports  *ExportService
}

var testNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	clock := &fakeClock{now: testNow}
	next := 0
	rm := records.NewManager(store, nil, records.Options{
		Now: clock.Now,
		NewID: func() string {
			next++
			return strconv.Itoa(next)
		},
		NewSessionID: func(time.Time) string { return "session-1" },
	})

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return &testEnv{
		store:    store,
		clock:    clock,
		records:  rm,
		profiles: NewProfileService(rm, auth.NewPINService(4), logger),
		tracker:  NewTrackerService(rm, logger),
		triggers: NewTriggerService(rm, logger),
		feedback: NewFeedbackService(rm, logger),
		exports:  NewExportService(rm, logger),
	}
}
