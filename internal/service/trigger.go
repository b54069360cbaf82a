package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/records"
)

const summaryDays = 7

// DaySummary is one bar of the weekly trigger chart.
type DaySummary struct {
	Date             string `json:"date"`
	Count            int    `json:"count"`
	AverageIntensity int    `json:"averageIntensity"` // rounded; 0 on days without triggers
}

// TriggerSummary is the overview shown next to the trigger log.
type TriggerSummary struct {
	Today                int          `json:"today"`
	Total                int          `json:"total"`
	ActiveDays           int          `json:"activeDays"` // distinct dates with at least one trigger
	Week                 []DaySummary `json:"week"`       // oldest first, ending today
	WeekTotal            int          `json:"weekTotal"`
	WeekAverageIntensity int          `json:"weekAverageIntensity"`
}

// TriggerService logs cravings and summarises them.
type TriggerService struct {
	records *records.Manager
	logger  *slog.Logger
}

func NewTriggerService(rm *records.Manager, logger *slog.Logger) *TriggerService {
	return &TriggerService{records: rm, logger: logger}
}

// Log records a craving happening now.
func (s *TriggerService) Log(ctx context.Context, userID string, emotion model.Emotion, situation model.Situation, intensity int) (model.TriggerRecord, error) {
	now := s.records.Now()
	rec, err := s.records.For(userID).AddTrigger(ctx, model.TriggerRecord{
		Date:      model.DayString(now),
		Time:      now.Format(model.TimeLayout),
		Emotion:   emotion,
		Situation: situation,
		Intensity: intensity,
	})
	if err != nil {
		return model.TriggerRecord{}, fmt.Errorf("logging trigger: %w", err)
	}

	s.logger.Info("trigger logged",
		slog.String("userID", userID),
		slog.String("emotion", string(emotion)),
		slog.String("situation", string(situation)),
		slog.Int("intensity", intensity),
	)
	return rec, nil
}

func (s *TriggerService) List(ctx context.Context, userID string) ([]model.TriggerRecord, error) {
	return s.records.For(userID).TriggerRecords(ctx)
}

// Summary computes today's count, totals and the last seven days.
func (s *TriggerService) Summary(ctx context.Context, userID string) (TriggerSummary, error) {
	recs, err := s.records.For(userID).TriggerRecords(ctx)
	if err != nil {
		return TriggerSummary{}, err
	}
	return SummarizeTriggers(recs, s.records.Now()), nil
}

// SummarizeTriggers is the pure part of Summary. The week is the seven
// calendar days ending at now.
func SummarizeTriggers(recs []model.TriggerRecord, now time.Time) TriggerSummary {
	today := model.DayString(now)

	byDate := make(map[string][]model.TriggerRecord)
	summary := TriggerSummary{Total: len(recs)}
	for _, r := range recs {
		byDate[r.Date] = append(byDate[r.Date], r)
		if r.Date == today {
			summary.Today++
		}
	}
	summary.ActiveDays = len(byDate)

	summary.Week = make([]DaySummary, 0, summaryDays)
	intensitySum, daysWithTriggers := 0, 0
	for i := summaryDays - 1; i >= 0; i-- {
		date := model.DayString(now.AddDate(0, 0, -i))
		day := DaySummary{Date: date, Count: len(byDate[date])}
		if day.Count > 0 {
			total := 0
			for _, r := range byDate[date] {
				total += r.Intensity
			}
			day.AverageIntensity = roundHalfUp(float64(total) / float64(day.Count))
			intensitySum += day.AverageIntensity
			daysWithTriggers++
		}
		summary.WeekTotal += day.Count
		summary.Week = append(summary.Week, day)
	}
	if daysWithTriggers > 0 {
		summary.WeekAverageIntensity = roundHalfUp(float64(intensitySum) / float64(daysWithTriggers))
	}

	return summary
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
