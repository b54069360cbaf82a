package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sakif/fresh-start/internal/apperror"
	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/repository"
)

// =========================================================================
// PROFILE ROSTER
// =========================================================================

// Profiles returns the roster in creation order. The first entry is the
// administrator.
func (m *Manager) Profiles(ctx context.Context) ([]model.Profile, error) {
	var profiles []model.Profile
	err := m.store.View(ctx, func(tx repository.Tx) error {
		var err error
		profiles, err = m.readRoster(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

// Profile looks up one profile by id.
func (m *Manager) Profile(ctx context.Context, id string) (model.Profile, error) {
	profiles, err := m.Profiles(ctx)
	if err != nil {
		return model.Profile{}, err
	}
	for _, p := range profiles {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Profile{}, apperror.NotFound("profile", id)
}

// CreateProfile appends a new profile to the roster and returns it.
// pinHash may be empty for a profile without a PIN.
func (m *Manager) CreateProfile(ctx context.Context, name, pinHash string) (model.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Profile{}, apperror.ValidationFailed("name", "profile name is required")
	}

	profile := model.Profile{
		ID:        m.newID(),
		Name:      name,
		CreatedAt: m.now().UTC(),
		PINHash:   pinHash,
	}
	if !ValidUserID(profile.ID) {
		return model.Profile{}, fmt.Errorf("records: generated profile id %q cannot namespace keys", profile.ID)
	}

	err := m.store.Update(ctx, func(tx repository.Tx) error {
		profiles, err := m.readRoster(ctx, tx)
		if err != nil {
			return err
		}
		for _, p := range profiles {
			if p.ID == profile.ID {
				return apperror.Conflict("profile", profile.ID)
			}
		}
		return writeKey(ctx, tx, RosterKey, append(profiles, profile))
	})
	if err != nil {
		return model.Profile{}, err
	}

	m.logger.Info("profile created", "user_id", profile.ID)
	return profile, nil
}

func (m *Manager) readRoster(ctx context.Context, tx repository.Tx) ([]model.Profile, error) {
	raw, ok, err := tx.Get(ctx, RosterKey)
	if err != nil {
		return nil, fmt.Errorf("records: reading %s: %w", RosterKey, err)
	}
	profiles := []model.Profile{}
	if !ok || strings.TrimSpace(raw) == "null" {
		return profiles, nil
	}
	if err := json.Unmarshal([]byte(raw), &profiles); err != nil {
		if m.corruptAsEmpty {
			m.logger.Warn("treating malformed roster as empty", "key", RosterKey, "error", err)
			return []model.Profile{}, nil
		}
		return nil, apperror.Corrupt(RosterKey, err)
	}
	return profiles, nil
}
