package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/fresh-start/internal/records"
)

// echoIdentity writes back what the middleware placed in the context.
var echoIdentity = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	userID, _ := UserIDFromContext(r.Context())
	sessionID, _ := records.SessionIDFromContext(r.Context())
	_, _ = w.Write([]byte(userID + "|" + sessionID))
})

func TestRequireAuth(t *testing.T) {
	ts := newTestTokenService(t)
	token, _ := ts.Generate(Identity{UserID: "1", SessionID: "s1"})
	h := RequireAuth(ts)(echoIdentity)

	tests := []struct {
		name     string
		setup    func(r *http.Request)
		wantCode int
		wantBody string
	}{
		{
			name:     "cookie",
			setup:    func(r *http.Request) { r.AddCookie(&http.Cookie{Name: CookieName, Value: token}) },
			wantCode: http.StatusOK,
			wantBody: "1|s1",
		},
		{
			name:     "bearer header",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
			wantCode: http.StatusOK,
			wantBody: "1|s1",
		},
		{
			name:     "no token",
			setup:    func(*http.Request) {},
			wantCode: http.StatusUnauthorized,
		},
		{
			name:     "bad token",
			setup:    func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") },
			wantCode: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantBody != "" && rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestOptionalAuth_NoTokenPassesThrough(t *testing.T) {
	ts := newTestTokenService(t)
	rec := httptest.NewRecorder()

	OptionalAuth(ts)(echoIdentity).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "|" {
		t.Errorf("body = %q, want no identity", rec.Body.String())
	}
}

func TestRequireAdmin(t *testing.T) {
	isAdmin := func(_ context.Context, userID string) (bool, error) {
		if userID == "broken" {
			return false, errors.New("roster unreadable")
		}
		return userID == "1", nil
	}
	h := RequireAdmin(isAdmin)(echoIdentity)

	for userID, want := range map[string]int{
		"1":      http.StatusOK,
		"2":      http.StatusForbidden,
		"broken": http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithIdentity(req.Context(), Identity{UserID: userID}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if rec.Code != want {
			t.Errorf("user %q: status = %d, want %d", userID, rec.Code, want)
		}
	}
}
