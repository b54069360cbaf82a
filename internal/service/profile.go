// Package service contains the business logic layer of the application.
//
// THE LAYERS:
//
//	Handler (HTTP) / CLI   → parse input, render output
//	Service (business)     → validate, compute statistics, orchestrate
//	records (record store) → namespaced keys, audit log, transactions
//	repository (storage)   → SQLite or in-memory key-value store
//
// Every service method takes the user id explicitly. There is no "current
// user" anywhere below the HTTP middleware: the handler reads the id from the
// request context and passes it down, and the service asks the record store
// for that user's store with records.Manager.For.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/auth"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/records"
)

// ActionSessionStarted is logged when a profile is selected.
const ActionSessionStarted = "session_started"

// ProfileService manages the roster: creating profiles, selecting one, and
// deciding who the administrator is.
type ProfileService struct {
	records *records.Manager
	pins    *auth.PINService
	logger  *slog.Logger
}

func NewProfileService(rm *records.Manager, pins *auth.PINService, logger *slog.Logger) *ProfileService {
	return &ProfileService{
		records: rm,
		pins:    pins,
		logger:  logger,
	}
}

// Create adds a profile. pin is optional; when given it is validated and
// stored as a bcrypt hash.
func (s *ProfileService) Create(ctx context.Context, name, pin string) (model.ProfileInfo, error) {
	var hash string
	if pin != "" {
		h, err := s.pins.Hash(pin)
		if err != nil {
			return model.ProfileInfo{}, err
		}
		hash = h
	}

	profile, err := s.records.CreateProfile(ctx, name, hash)
	if err != nil {
		return model.ProfileInfo{}, fmt.Errorf("creating profile: %w", err)
	}

	s.logger.Info("profile created",
		slog.String("userID", profile.ID),
		slog.Bool("hasPin", hash != ""),
	)
	return profile.Info(), nil
}

// List returns the public view of every profile, administrator first.
func (s *ProfileService) List(ctx context.Context) ([]model.ProfileInfo, error) {
	profiles, err := s.records.Profiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing profiles: %w", err)
	}

	infos := make([]model.ProfileInfo, 0, len(profiles))
	for _, p := range profiles {
		infos = append(infos, p.Info())
	}
	return infos, nil
}

// Get returns one profile. Unknown ids are apperror.ErrNotFound.
func (s *ProfileService) Get(ctx context.Context, id string) (model.ProfileInfo, error) {
	p, err := s.records.Profile(ctx, id)
	if err != nil {
		return model.ProfileInfo{}, err
	}
	return p.Info(), nil
}

// Session is the result of selecting a profile.
type Session struct {
	Profile   model.ProfileInfo `json:"profile"`
	SessionID string            `json:"sessionId"`
	Admin     bool              `json:"admin"`
}

// Authenticate selects profile id, checking its PIN if it has one, and
// starts a new session. The session start is written to the profile's
// activity log under the new session id.
func (s *ProfileService) Authenticate(ctx context.Context, id, pin string) (*Session, error) {
	profile, err := s.records.Profile(ctx, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("unknown profile")
		}
		return nil, err
	}

	if profile.PINHash != "" {
		if err := s.pins.Verify(profile.PINHash, pin); err != nil {
			s.logger.Warn("profile selection rejected", slog.String("userID", id))
			return nil, err
		}
	}

	admin, err := s.IsAdmin(ctx, profile.ID)
	if err != nil {
		return nil, err
	}

	sessionID := s.records.NewSessionID()
	sessionCtx := records.WithSessionID(ctx, sessionID)
	if err := s.records.For(profile.ID).LogActivity(sessionCtx, ActionSessionStarted, nil); err != nil {
		return nil, fmt.Errorf("starting session for %s: %w", profile.ID, err)
	}

	s.logger.Info("session started",
		slog.String("userID", profile.ID),
		slog.String("sessionID", sessionID),
	)
	return &Session{Profile: profile.Info(), SessionID: sessionID, Admin: admin}, nil
}

// IsAdmin reports whether userID is the administrator: the first profile in
// the roster.
func (s *ProfileService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	profiles, err := s.records.Profiles(ctx)
	if err != nil {
		return false, fmt.Errorf("checking administrator: %w", err)
	}
	return len(profiles) > 0 && profiles[0].ID == userID, nil
}
