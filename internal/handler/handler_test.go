package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/handler"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/records"
	"github.com/sakif/fresh-start/internal/repository/memory"
	"github.com/sakif/fresh-start/internal/service"
)

var testNow = time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	records  *records.Manager
	tokens   *auth.TokenService
	profiles *handler.ProfileHandler
	tracker  *handler.TrackerHandler
	triggers *handler.TriggerHandler
	feedback *handler.FeedbackHandler
	data     *handler.DataHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.New()
	t.Cleanup(func() { store.Close() })

	next := 0
	rm := records.NewManager(store, nil, records.Options{
		Now: func() time.Time { return testNow },
		NewID: func() string {
			next++
			return strconv.Itoa(next)
		},
		NewSessionID: func(time.Time) string { return "session-1" },
	})

	tokens, err := auth.NewTokenService("handler-test-secret-0123456789", time.Hour)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	return &testEnv{
		records:  rm,
		tokens:   tokens,
		profiles: handler.NewProfileHandler(service.NewProfileService(rm, auth.NewPINService(4), logger), tokens, logger),
		tracker:  handler.NewTrackerHandler(service.NewTrackerService(rm, logger), logger),
		triggers: handler.NewTriggerHandler(service.NewTriggerService(rm, logger), logger),
		feedback: handler.NewFeedbackHandler(service.NewFeedbackService(rm, logger), logger),
		data:     handler.NewDataHandler(service.NewExportService(rm, logger), logger),
	}
}

// serve runs h with userID (may be "") as the authenticated user.
func serve(h http.HandlerFunc, method, path, body, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req = req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: userID, SessionID: "sess-" + userID}))
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&v))
	return v
}

func TestProfileHandler_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.profiles.HandleCreate, http.MethodPost, "/api/profiles", `{"name":"  Alice  ","pin":"1234"}`, "")
	require.Equal(t, http.StatusCreated, rr.Code)
	created := decode[model.ProfileInfo](t, rr)
	assert.Equal(t, "1", created.ID)
	assert.Equal(t, "Alice", created.Name)
	assert.True(t, created.HasPIN)

	rr = serve(env.profiles.HandleList, http.MethodGet, "/api/profiles", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.NotContains(t, rr.Body.String(), "pinHash", "the PIN hash never leaves the server")
	list := decode[[]model.ProfileInfo](t, rr)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)
}

func TestProfileHandler_CreateValidation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"blank name", `{"name":"   "}`, http.StatusBadRequest},
		{"pin with letters", `{"name":"Bob","pin":"12ab"}`, http.StatusBadRequest},
		{"malformed body", `{"name":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(env.profiles.HandleCreate, http.MethodPost, "/api/profiles", tt.body, "")
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestProfileHandler_Session(t *testing.T) {
	env := newTestEnv(t)
	serve(env.profiles.HandleCreate, http.MethodPost, "/api/profiles", `{"name":"Alice","pin":"1234"}`, "")

	t.Run("wrong pin", func(t *testing.T) {
		rr := serve(env.profiles.HandleStart, http.MethodPost, "/api/session", `{"userId":"1","pin":"9999"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Empty(t, rr.Result().Cookies())
	})

	t.Run("unknown profile", func(t *testing.T) {
		rr := serve(env.profiles.HandleStart, http.MethodPost, "/api/session", `{"userId":"42"}`, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("correct pin sets cookie", func(t *testing.T) {
		rr := serve(env.profiles.HandleStart, http.MethodPost, "/api/session", `{"userId":"1","pin":"1234"}`, "")
		require.Equal(t, http.StatusOK, rr.Code)

		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, auth.CookieName, cookies[0].Name)
		assert.True(t, cookies[0].HttpOnly)

		id, err := env.tokens.Validate(cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, "1", id.UserID)
		assert.Equal(t, "session-1", id.SessionID)

		var body struct {
			Selected bool   `json:"selected"`
			Admin    bool   `json:"admin"`
			Token    string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.True(t, body.Selected)
		assert.True(t, body.Admin, "the first profile is the administrator")
		assert.Equal(t, cookies[0].Value, body.Token)
	})

	t.Run("current without session", func(t *testing.T) {
		rr := serve(env.profiles.HandleCurrent, http.MethodGet, "/api/session", "", "")
		assert.JSONEq(t, `{"selected":false,"admin":false}`, rr.Body.String())
	})

	t.Run("current with session", func(t *testing.T) {
		rr := serve(env.profiles.HandleCurrent, http.MethodGet, "/api/session", "", "1")
		assert.Contains(t, rr.Body.String(), `"selected":true`)
		assert.Contains(t, rr.Body.String(), `"name":"Alice"`)
	})

	t.Run("end clears cookie", func(t *testing.T) {
		rr := serve(env.profiles.HandleEnd, http.MethodDelete, "/api/session", "", "1")
		require.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestTrackerHandler_Today(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.tracker.HandleSetToday, http.MethodPut, "/api/today", `{"cigarettes":4}`, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	status := decode[service.TodayStatus](t, rr)
	assert.Equal(t, "2024-01-01", status.Date)
	assert.Equal(t, 4, status.Cigarettes)
	assert.Equal(t, 20, status.DailyTarget)
	assert.Equal(t, 20.0, status.Progress)
	assert.Equal(t, service.LevelLow, status.Level)

	rr = serve(env.tracker.HandleAdjustToday, http.MethodPatch, "/api/today", `{"delta":-10}`, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, decode[service.TodayStatus](t, rr).Cigarettes, "never below zero")

	rr = serve(env.tracker.HandleSetToday, http.MethodPut, "/api/today", `{"cigarettes":-1}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrackerHandler_RecordDay(t *testing.T) {
	env := newTestEnv(t)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithIdentity(req.Context(), auth.Identity{UserID: "u1"})))
		})
	})
	r.Put("/api/smoking/{date}", env.tracker.HandleRecordDay)

	do := func(date, body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/api/smoking/"+date, bytes.NewBufferString(body)))
		return rr
	}

	rr := do("2023-12-30", `{"cigarettes":7}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []model.SmokingRecord{{Date: "2023-12-30", Cigarettes: 7}}, decode[[]model.SmokingRecord](t, rr))

	rr = do("2023-12-30", `{"cigarettes":0}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[[]model.SmokingRecord](t, rr))

	rr = do("30-12-2023", `{"cigarettes":1}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestTrackerHandler_TargetAndSettings(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.tracker.HandleGetTarget, http.MethodGet, "/api/target", "", "")
	assert.JSONEq(t, `{"dailyTarget":20}`, rr.Body.String(), "default without a profile")

	rr = serve(env.tracker.HandleSetTarget, http.MethodPut, "/api/target", `{"dailyTarget":10}`, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	rr = serve(env.tracker.HandleGetTarget, http.MethodGet, "/api/target", "", "u1")
	assert.JSONEq(t, `{"dailyTarget":10}`, rr.Body.String())

	rr = serve(env.tracker.HandleUpdateSettings, http.MethodPut, "/api/settings", `{"cigarettePrice":-1}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(env.tracker.HandleUpdateSettings, http.MethodPut, "/api/settings", `{"cigarettePrice":0.3}`, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	settings := decode[model.UserSettings](t, rr)
	assert.Equal(t, 0.3, settings.CigarettePrice)
	assert.True(t, settings.StartDate.Equal(testNow), "missing start date becomes now")
}

func TestTrackerHandler_Dashboard(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.tracker.HandleDashboard, http.MethodGet, "/api/dashboard", "", "")
	require.Equal(t, http.StatusOK, rr.Code)
	dash := decode[service.Dashboard](t, rr)
	assert.Equal(t, 1, dash.DaysSmokeFree)
	require.NotNil(t, dash.Next)
	assert.Equal(t, 2, dash.Next.Days)
}

func TestTriggerHandler(t *testing.T) {
	env := newTestEnv(t)

	rr := serve(env.triggers.HandleLog, http.MethodPost, "/api/triggers", `{"emotion":"stressed","situation":"work","intensity":7}`, "u1")
	require.Equal(t, http.StatusCreated, rr.Code)
	rec := decode[model.TriggerRecord](t, rr)
	assert.Equal(t, "1", rec.ID)
	assert.Equal(t, "2024-01-01", rec.Date)
	assert.Equal(t, "09:30", rec.Time)

	rr = serve(env.triggers.HandleLog, http.MethodPost, "/api/triggers", `{"emotion":"elated","situation":"work","intensity":7}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(env.triggers.HandleSummary, http.MethodGet, "/api/triggers/summary", "", "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	summary := decode[service.TriggerSummary](t, rr)
	assert.Equal(t, 1, summary.Today)
	assert.Equal(t, 7, summary.WeekAverageIntensity)
	assert.Len(t, summary.Week, 7)

	rr = serve(env.triggers.HandleList, http.MethodGet, "/api/triggers", "", "u2")
	assert.JSONEq(t, `[]`, rr.Body.String(), "other users see nothing")
}

func TestFeedbackHandler(t *testing.T) {
	env := newTestEnv(t)

	body := `{"feedbackType":"suggestion","message":" More charts ","rating":5,"timestamp":"1999-01-01T00:00:00Z"}`
	rr := serve(env.feedback.HandleSubmit, http.MethodPost, "/api/feedback", body, "u1")
	require.Equal(t, http.StatusCreated, rr.Code)
	entry := decode[model.FeedbackEntry](t, rr)
	assert.Equal(t, "More charts", entry.Message)
	assert.True(t, entry.Timestamp.Equal(testNow), "server clock wins")

	rr = serve(env.feedback.HandleSubmit, http.MethodPost, "/api/feedback", `{"feedbackType":"praise","message":"x"}`, "u1")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = serve(env.feedback.HandleList, http.MethodGet, "/api/feedback", "", "u1")
	assert.Len(t, decode[[]model.FeedbackEntry](t, rr), 1)
}

func TestDataHandler_ExportAndClear(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	require.NoError(t, env.records.For("u1").SaveDailyTarget(ctx, 10))

	rr := serve(env.data.HandleExport, http.MethodGet, "/api/data/export", "", "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `attachment; filename="fresh-start-dados-2024-01-01-09-30-00.json"`, rr.Header().Get("Content-Disposition"))
	doc := decode[model.ExportDocument](t, rr)
	assert.Equal(t, "Fresh Start", doc.AppName)
	assert.Equal(t, 10, doc.Data.DailyTarget)

	rr = serve(env.data.HandleActivity, http.MethodGet, "/api/activity", "", "u1")
	entries := decode[[]model.ActivityEntry](t, rr)
	require.Len(t, entries, 1)
	assert.Equal(t, records.ActionDailyTargetChanged, entries[0].Action)

	rr = serve(env.data.HandleSummary, http.MethodGet, "/api/data/summary", "", "u1")
	summary := decode[model.DataSummary](t, rr)
	assert.Equal(t, 1, summary.ActivityLogs)
	assert.False(t, summary.HasSettings)

	rr = serve(env.data.HandleClear, http.MethodDelete, "/api/data", "", "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"deletedKeys":2}`, rr.Body.String())

	rr = serve(env.tracker.HandleGetTarget, http.MethodGet, "/api/target", "", "u1")
	assert.JSONEq(t, `{"dailyTarget":20}`, rr.Body.String())
}

func TestDataHandler_Admin(t *testing.T) {
	env := newTestEnv(t)
	serve(env.profiles.HandleCreate, http.MethodPost, "/api/profiles", `{"name":"Alice"}`, "")
	serve(env.profiles.HandleCreate, http.MethodPost, "/api/profiles", `{"name":"Bob"}`, "")
	serve(env.tracker.HandleSetToday, http.MethodPut, "/api/today", `{"cigarettes":2}`, "2")

	rr := serve(env.data.HandleAdminOverview, http.MethodGet, "/api/admin/users", "", "1")
	require.Equal(t, http.StatusOK, rr.Code)
	overview := decode[model.AdminOverview](t, rr)
	require.Len(t, overview.Users, 2)
	assert.Equal(t, 0, overview.Users[0].SmokingRecords)
	assert.Equal(t, 1, overview.Users[1].SmokingRecords)
	assert.Equal(t, model.OverviewTotals{Users: 2, SmokingRecords: 1}, overview.Totals)

	rr = serve(env.data.HandleAdminExport, http.MethodGet, "/api/admin/export", "", "1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "fresh-start-admin-dados-2024-01-01.json")
	doc := decode[model.AdminExportDocument](t, rr)
	assert.Equal(t, 2, doc.TotalUsers)

	rr = serve(env.data.HandleAdminClear, http.MethodDelete, "/api/admin/data", "", "1")
	require.Equal(t, http.StatusOK, rr.Code)
	recs, err := env.records.For("2").SmokingRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs)
}
