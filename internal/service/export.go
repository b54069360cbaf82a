package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sakif/fresh-start/internal/model"
	"github.com/sakif/fresh-start/internal/records"
)

const (
	ExportVersion = "1.0"
	AppName       = "Fresh Start"
)

// ExportService produces backups and the administrator's overview, and
// wipes data on request.
type ExportService struct {
	records *records.Manager
	logger  *slog.Logger
}

func NewExportService(rm *records.Manager, logger *slog.Logger) *ExportService {
	return &ExportService{records: rm, logger: logger}
}

// UserExportFilename names a single-user backup taken at t.
func UserExportFilename(t time.Time) string {
	return "fresh-start-dados-" + t.Format("2006-01-02-15-04-05") + ".json"
}

// AdminExportFilename names an all-users backup taken at t.
func AdminExportFilename(t time.Time) string {
	return "fresh-start-admin-dados-" + t.Format("2006-01-02") + ".json"
}

// ExportUser returns the backup document of userID and its file name.
func (s *ExportService) ExportUser(ctx context.Context, userID string) (model.ExportDocument, string, error) {
	data, err := s.records.For(userID).Export(ctx)
	if err != nil {
		return model.ExportDocument{}, "", err
	}

	now := s.records.Now()
	s.logger.Info("user data exported", slog.String("userID", userID))
	return model.ExportDocument{
		ExportDate: now.UTC(),
		Version:    ExportVersion,
		AppName:    AppName,
		Data:       data,
	}, UserExportFilename(now), nil
}

// ExportAll returns one document holding every profile's data.
func (s *ExportService) ExportAll(ctx context.Context) (model.AdminExportDocument, string, error) {
	profiles, err := s.records.Profiles(ctx)
	if err != nil {
		return model.AdminExportDocument{}, "", fmt.Errorf("listing profiles: %w", err)
	}

	users := make([]model.UserExport, 0, len(profiles))
	for _, p := range profiles {
		data, err := s.records.For(p.ID).Export(ctx)
		if err != nil {
			return model.AdminExportDocument{}, "", err
		}
		users = append(users, model.UserExport{UserInfo: p.Info(), Data: data})
	}

	now := s.records.Now()
	s.logger.Info("all user data exported", slog.Int("users", len(users)))
	return model.AdminExportDocument{
		ExportDate: now.UTC(),
		Version:    ExportVersion,
		AppName:    AppName,
		TotalUsers: len(users),
		Users:      users,
	}, AdminExportFilename(now), nil
}

// Overview returns per-profile record counts and last activity, plus the
// totals across the roster. A profile that never wrote anything reports its
// creation time as last activity.
func (s *ExportService) Overview(ctx context.Context) (model.AdminOverview, error) {
	profiles, err := s.records.Profiles(ctx)
	if err != nil {
		return model.AdminOverview{}, fmt.Errorf("listing profiles: %w", err)
	}

	overview := model.AdminOverview{
		Totals: model.OverviewTotals{Users: len(profiles)},
		Users:  make([]model.UserStats, 0, len(profiles)),
	}
	for _, p := range profiles {
		data, err := s.records.For(p.ID).Export(ctx)
		if err != nil {
			return model.AdminOverview{}, err
		}

		last := p.CreatedAt
		if n := len(data.ActivityLog); n > 0 {
			last = data.ActivityLog[n-1].Timestamp
		}
		row := model.UserStats{
			ID:             p.ID,
			Name:           p.Name,
			CreatedAt:      p.CreatedAt,
			SmokingRecords: len(data.SmokingRecords),
			TriggerRecords: len(data.TriggerRecords),
			Feedback:       len(data.Feedback),
			LastActivity:   last,
		}
		overview.Users = append(overview.Users, row)

		overview.Totals.SmokingRecords += row.SmokingRecords
		overview.Totals.TriggerRecords += row.TriggerRecords
		overview.Totals.Feedback += row.Feedback
	}
	return overview, nil
}

// Summary counts what ExportUser would contain.
func (s *ExportService) Summary(ctx context.Context, userID string) (model.DataSummary, error) {
	store := s.records.For(userID)

	data, err := store.Export(ctx)
	if err != nil {
		return model.DataSummary{}, err
	}
	hasSettings, err := store.Has(ctx, records.CategorySettings)
	if err != nil {
		return model.DataSummary{}, err
	}

	return model.DataSummary{
		SmokingRecords: len(data.SmokingRecords),
		TriggerRecords: len(data.TriggerRecords),
		Feedback:       len(data.Feedback),
		ActivityLogs:   len(data.ActivityLog),
		DailyTarget:    data.DailyTarget,
		HasSettings:    hasSettings,
	}, nil
}

// ClearUser deletes everything stored for userID. The profile itself stays
// in the roster.
func (s *ExportService) ClearUser(ctx context.Context, userID string) (int, error) {
	n, err := s.records.For(userID).Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Warn("user data cleared", slog.String("userID", userID), slog.Int("keys", n))
	return n, nil
}

// ClearAll deletes every user's data.
func (s *ExportService) ClearAll(ctx context.Context) error {
	if err := s.records.ClearAll(ctx); err != nil {
		return err
	}
	s.logger.Warn("all user data cleared")
	return nil
}

// ActivityLog returns the audit trail of userID, oldest first.
func (s *ExportService) ActivityLog(ctx context.Context, userID string) ([]model.ActivityEntry, error) {
	return s.records.For(userID).ActivityLog(ctx)
}
