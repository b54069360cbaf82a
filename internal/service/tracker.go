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

// smokeFreeLookback is how many days back DaysSmokeFree looks at most.
const smokeFreeLookback = 365

// ProgressLevel buckets today's count against the daily target.
type ProgressLevel string

const (
	LevelLow    ProgressLevel = "low"    // ≤ 50% of target
	LevelMedium ProgressLevel = "medium" // ≤ 80% of target
	LevelHigh   ProgressLevel = "high"   // above 80%
)

// Milestone is a health benefit reached after a number of smoke-free days.
type Milestone struct {
	Days        int    `json:"days"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Milestones in ascending order of Days.
var Milestones = []Milestone{
	{1, "Cleaner breathing", "Carbon monoxide in the blood returns to normal"},
	{2, "Smell and taste improve", "Flavours and smells come back stronger"},
	{7, "Cleaner lungs", "The cilia in the lungs start to regenerate"},
	{14, "Better circulation", "The risk of a heart attack starts to drop"},
	{30, "More energy", "Lung capacity rises by up to 30%"},
	{90, "Sharper mind", "Blood circulation improves significantly"},
	{365, "Risk cut in half", "The risk of heart disease is halved"},
}

// TodayStatus is the tracker card: today's count against the target.
type TodayStatus struct {
	Date        string        `json:"date"`
	Cigarettes  int           `json:"cigarettes"`
	DailyTarget int           `json:"dailyTarget"`
	Progress    float64       `json:"progress"` // percent of target, capped at 100
	Level       ProgressLevel `json:"level"`
}

// NextMilestone is the first milestone not reached yet.
type NextMilestone struct {
	Milestone
	DaysRemaining int     `json:"daysRemaining"`
	Progress      float64 `json:"progress"` // percent, capped at 100
}

// Dashboard bundles the derived statistics of one user.
type Dashboard struct {
	Today             TodayStatus    `json:"today"`
	DaysSmokeFree     int            `json:"daysSmokeFree"`
	CigarettesAvoided int            `json:"cigarettesAvoided"`
	MoneySaved        float64        `json:"moneySaved"`
	CigarettePrice    float64        `json:"cigarettePrice"`
	Achieved          []Milestone    `json:"achieved"`
	Next              *NextMilestone `json:"next,omitempty"`
}

// TrackerService handles daily counts, the target, settings and the
// statistics derived from them.
type TrackerService struct {
	records *records.Manager
	logger  *slog.Logger
}

func NewTrackerService(rm *records.Manager, logger *slog.Logger) *TrackerService {
	return &TrackerService{records: rm, logger: logger}
}

func (s *TrackerService) today() string {
	return model.DayString(s.records.Now())
}

// SmokingRecords returns every daily count of userID.
func (s *TrackerService) SmokingRecords(ctx context.Context, userID string) ([]model.SmokingRecord, error) {
	return s.records.For(userID).SmokingRecords(ctx)
}

// Today returns today's count, the target and the progress level.
func (s *TrackerService) Today(ctx context.Context, userID string) (TodayStatus, error) {
	store := s.records.For(userID)

	recs, err := store.SmokingRecords(ctx)
	if err != nil {
		return TodayStatus{}, err
	}
	target, err := store.DailyTarget(ctx)
	if err != nil {
		return TodayStatus{}, err
	}

	return todayStatus(s.today(), countOn(recs, s.today()), target), nil
}

// SetToday sets today's count. Zero removes today's record.
func (s *TrackerService) SetToday(ctx context.Context, userID string, count int) (TodayStatus, error) {
	if _, err := s.RecordDay(ctx, userID, s.today(), count); err != nil {
		return TodayStatus{}, err
	}
	return s.Today(ctx, userID)
}

// AdjustToday adds delta (usually +1 or -1) to today's count, never going
// below zero.
func (s *TrackerService) AdjustToday(ctx context.Context, userID string, delta int) (TodayStatus, error) {
	if _, err := s.records.For(userID).AdjustCigarettes(ctx, s.today(), delta); err != nil {
		return TodayStatus{}, fmt.Errorf("adjusting today's count: %w", err)
	}
	s.logger.Debug("cigarettes adjusted", slog.String("userID", userID), slog.Int("delta", delta))
	return s.Today(ctx, userID)
}

// RecordDay sets the count for any date and returns the updated records.
func (s *TrackerService) RecordDay(ctx context.Context, userID, date string, count int) ([]model.SmokingRecord, error) {
	recs, err := s.records.For(userID).RecordCigarettes(ctx, date, count)
	if err != nil {
		return nil, fmt.Errorf("recording cigarettes for %s: %w", date, err)
	}
	s.logger.Debug("cigarettes recorded",
		slog.String("userID", userID),
		slog.String("date", date),
		slog.Int("count", count),
	)
	return recs, nil
}

func (s *TrackerService) DailyTarget(ctx context.Context, userID string) (int, error) {
	return s.records.For(userID).DailyTarget(ctx)
}

func (s *TrackerService) SetDailyTarget(ctx context.Context, userID string, target int) error {
	if err := s.records.For(userID).SaveDailyTarget(ctx, target); err != nil {
		return fmt.Errorf("setting daily target: %w", err)
	}
	s.logger.Info("daily target changed", slog.String("userID", userID), slog.Int("target", target))
	return nil
}

func (s *TrackerService) Settings(ctx context.Context, userID string) (model.UserSettings, error) {
	return s.records.For(userID).Settings(ctx)
}

func (s *TrackerService) UpdateSettings(ctx context.Context, userID string, settings model.UserSettings) (model.UserSettings, error) {
	store := s.records.For(userID)
	if err := store.SaveSettings(ctx, settings); err != nil {
		return model.UserSettings{}, fmt.Errorf("updating settings: %w", err)
	}
	return store.Settings(ctx)
}

// Dashboard computes the smoke-free streak, savings and health milestones.
func (s *TrackerService) Dashboard(ctx context.Context, userID string) (Dashboard, error) {
	data, err := s.records.For(userID).Export(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	now := s.records.Now()
	days := DaysSmokeFree(data.SmokingRecords, data.UserSettings.StartDate, now)
	achieved, next := milestonesFor(days)

	return Dashboard{
		Today:             todayStatus(model.DayString(now), countOn(data.SmokingRecords, model.DayString(now)), data.DailyTarget),
		DaysSmokeFree:     days,
		CigarettesAvoided: days * data.DailyTarget,
		MoneySaved:        roundCents(float64(days*data.DailyTarget) * data.UserSettings.CigarettePrice),
		CigarettePrice:    data.UserSettings.CigarettePrice,
		Achieved:          achieved,
		Next:              next,
	}, nil
}

// DaysSmokeFree counts consecutive days without cigarettes, starting today
// and walking back. It stops at the first day with a positive count, at the
// tracking start date, or after smokeFreeLookback days.
func DaysSmokeFree(recs []model.SmokingRecord, start, now time.Time) int {
	counts := make(map[string]int, len(recs))
	for _, r := range recs {
		counts[r.Date] = r.Cigarettes
	}

	startDay := model.DayString(start.In(now.Location()))
	days := 0
	for i := 0; i < smokeFreeLookback; i++ {
		day := model.DayString(now.AddDate(0, 0, -i))
		if day < startDay || counts[day] > 0 {
			break
		}
		days++
	}
	return days
}

// Progress is count as a percentage of target, capped at 100. A zero target
// gives 0.
func Progress(count, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Min(float64(count)*100/float64(target), 100)
}

// LevelFor buckets a progress percentage.
func LevelFor(percent float64) ProgressLevel {
	switch {
	case percent <= 50:
		return LevelLow
	case percent <= 80:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func todayStatus(date string, count, target int) TodayStatus {
	p := Progress(count, target)
	return TodayStatus{
		Date:        date,
		Cigarettes:  count,
		DailyTarget: target,
		Progress:    p,
		Level:       LevelFor(p),
	}
}

func milestonesFor(days int) ([]Milestone, *NextMilestone) {
	achieved := []Milestone{}
	for _, m := range Milestones {
		if days >= m.Days {
			achieved = append(achieved, m)
			continue
		}
		return achieved, &NextMilestone{
			Milestone:     m,
			DaysRemaining: m.Days - days,
			Progress:      math.Min(float64(days)*100/float64(m.Days), 100),
		}
	}
	return achieved, nil
}

func countOn(recs []model.SmokingRecord, date string) int {
	for _, r := range recs {
		if r.Date == date {
			return r.Cigarettes
		}
	}
	return 0
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
