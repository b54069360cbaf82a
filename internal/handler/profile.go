// Package handler contains HTTP handlers for the JSON API.
//
// HANDLER RESPONSIBILITIES:
// A handler parses the request (path params, JSON body), reads the current
// user from the context, calls ONE service method, and renders the result or
// the error. No business rules live here.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/service"
)

// ProfileHandler serves the roster and the session (profile selection).
type ProfileHandler struct {
	profiles *service.ProfileService
	tokens   *auth.TokenService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, tokens *auth.TokenService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		tokens:   tokens,
		logger:   logger,
	}
}

// HandleList returns every profile.
//
// HTTP: GET /api/profiles
func (h *ProfileHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	profiles, err := h.profiles.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list profiles", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

type createProfileRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

// HandleCreate adds a profile to the roster.
//
// HTTP: POST /api/profiles
// Body: {"name": "Alice", "pin": "1234"}   (pin optional)
func (h *ProfileHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	profile, err := h.profiles.Create(r.Context(), req.Name, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, profile)
}

type startSessionRequest struct {
	UserID string `json:"userId"`
	PIN    string `json:"pin"`
}

type sessionResponse struct {
	Selected bool               `json:"selected"`
	Profile  *model.ProfileInfo `json:"profile,omitempty"`
	Admin    bool               `json:"admin"`
	Token    string             `json:"token,omitempty"`
}

// HandleStart selects a profile and issues a session token.
//
// HTTP: POST /api/session
// Body: {"userId": "cn1b...", "pin": "1234"}
//
// The token is set as an HttpOnly cookie for browsers and also returned in the
// body for clients that prefer an Authorization header.
func (h *ProfileHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.profiles.Authenticate(r.Context(), req.UserID, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.tokens.Generate(auth.Identity{UserID: session.Profile.ID, SessionID: session.SessionID})
	if err != nil {
		h.logger.Error("token generation failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = sent on top-level navigations but not cross-site POSTs.
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, sessionResponse{
		Selected: true,
		Profile:  &session.Profile,
		Admin:    session.Admin,
		Token:    token,
	})
}

// HandleCurrent reports which profile, if any, the request is acting as.
//
// HTTP: GET /api/session
// Auth: Optional
func (h *ProfileHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)
	if userID == "" {
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		// A token for a profile that has since vanished (data wiped): treat
		// it like no session at all.
		writeJSON(w, http.StatusOK, sessionResponse{})
		return
	}
	admin, err := h.profiles.IsAdmin(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Selected: true, Profile: &profile, Admin: admin})
}

// HandleEnd deselects the profile by deleting the cookie.
//
// HTTP: DELETE /api/session
//
// Tokens are stateless, so the token itself stays valid until it expires;
// without the cookie the browser just stops sending it.
func (h *ProfileHandler) HandleEnd(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"message": "session ended"})
}
