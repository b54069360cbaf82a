package model

import (
	"time"

	"github.com/sakif/fresh-start/internal/apperror"
)

// UserSettings holds the per-user numbers the statistics are computed from.
type UserSettings struct {
	CigarettePrice float64   `json:"cigarettePrice"` // price of a single cigarette
	StartDate      time.Time `json:"startDate"`      // when tracking began
}

func (s UserSettings) Validate() error {
	if s.CigarettePrice < 0 {
		return apperror.ValidationFailed("cigarettePrice", "cigarette price cannot be negative")
	}
	return nil
}
