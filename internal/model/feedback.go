package model

import (
	"slices"
	"strings"
	"time"

	"github.com/sakif/fresh-start/internal/apperror"
)

// FeedbackType categorises a feedback message.
type FeedbackType string

const (
	FeedbackSuggestion FeedbackType = "suggestion"
	FeedbackCriticism  FeedbackType = "criticism"
	FeedbackBug        FeedbackType = "bug"
)

var FeedbackTypes = []FeedbackType{FeedbackSuggestion, FeedbackCriticism, FeedbackBug}

const MaxRating = 5

// FeedbackEntry is a free-text message left by the user.
// Name and Email are optional; Rating 0 means "not rated".
type FeedbackEntry struct {
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	FeedbackType FeedbackType `json:"feedbackType"`
	Message      string       `json:"message"`
	Rating       int          `json:"rating"`
	Timestamp    time.Time    `json:"timestamp"`
}

func (f FeedbackEntry) Validate() error {
	if !slices.Contains(FeedbackTypes, f.FeedbackType) {
		return apperror.ValidationFailed("feedbackType", "feedback type must be suggestion, criticism or bug")
	}
	if strings.TrimSpace(f.Message) == "" {
		return apperror.ValidationFailed("message", "feedback message is required")
	}
	if f.Rating < 0 || f.Rating > MaxRating {
		return apperror.ValidationFailed("rating", "rating must be between 0 and 5")
	}
	return nil
}
