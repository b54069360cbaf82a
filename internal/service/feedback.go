package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/records"
)

// FeedbackService stores the messages users leave about the app.
type FeedbackService struct {
	records *records.Manager
	logger  *slog.Logger
}

func NewFeedbackService(rm *records.Manager, logger *slog.Logger) *FeedbackService {
	return &FeedbackService{records: rm, logger: logger}
}

// Submit validates and stores one entry. The timestamp is always the
// server's clock, whatever the caller sent.
func (s *FeedbackService) Submit(ctx context.Context, userID string, entry model.FeedbackEntry) (model.FeedbackEntry, error) {
	entry.Name = strings.TrimSpace(entry.Name)
	entry.Email = strings.TrimSpace(entry.Email)
	entry.Message = strings.TrimSpace(entry.Message)
	entry.Timestamp = s.records.Now().UTC()

	saved, err := s.records.For(userID).AddFeedback(ctx, entry)
	if err != nil {
		return model.FeedbackEntry{}, fmt.Errorf("submitting feedback: %w", err)
	}

	s.logger.Info("feedback submitted",
		slog.String("userID", userID),
		slog.String("type", string(saved.FeedbackType)),
		slog.Int("rating", saved.Rating),
	)
	return saved, nil
}

func (s *FeedbackService) List(ctx context.Context, userID string) ([]model.FeedbackEntry, error) {
	return s.records.For(userID).Feedback(ctx)
}
