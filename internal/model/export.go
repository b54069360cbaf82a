package model

import "time"

// UserData is everything stored for one user, one field per category.
type UserData struct {
	SmokingRecords []SmokingRecord `json:"smokingRecords"`
	TriggerRecords []TriggerRecord `json:"triggerRecords"`
	Feedback       []FeedbackEntry `json:"feedback"`
	DailyTarget    int             `json:"dailyTarget"`
	UserSettings   UserSettings    `json:"userSettings"`
	ActivityLog    []ActivityEntry `json:"activityLog"`
}

// ExportDocument is the downloadable backup of one user's data.
type ExportDocument struct {
	ExportDate time.Time `json:"exportDate"`
	Version    string    `json:"version"`
	AppName    string    `json:"appName"`
	Data       UserData  `json:"data"`
}

// UserExport is one user's block inside an AdminExportDocument.
type UserExport struct {
	UserInfo ProfileInfo `json:"userInfo"`
	Data     UserData    `json:"data"`
}

// AdminExportDocument bundles every profile's data.
type AdminExportDocument struct {
	ExportDate time.Time    `json:"exportDate"`
	Version    string       `json:"version"`
	AppName    string       `json:"appName"`
	TotalUsers int          `json:"totalUsers"`
	Users      []UserExport `json:"users"`
}

// UserStats is the per-profile row of the admin overview.
type UserStats struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CreatedAt      time.Time `json:"createdAt"`
	SmokingRecords int       `json:"smokingRecords"`
	TriggerRecords int       `json:"triggerRecords"`
	Feedback       int       `json:"feedback"`
	LastActivity   time.Time `json:"lastActivity"`
}

// OverviewTotals sums the record counts of every profile.
type OverviewTotals struct {
	Users          int `json:"users"`
	SmokingRecords int `json:"smokingRecords"`
	TriggerRecords int `json:"triggerRecords"`
	Feedback       int `json:"feedback"`
}

// AdminOverview is the roster-wide view: one row per profile plus totals.
type AdminOverview struct {
	Totals OverviewTotals `json:"totals"`
	Users  []UserStats    `json:"users"`
}

// DataSummary counts what an export of one user would contain.
type DataSummary struct {
	SmokingRecords int  `json:"smokingRecords"`
	TriggerRecords int  `json:"triggerRecords"`
	Feedback       int  `json:"feedback"`
	ActivityLogs   int  `json:"activityLogs"`
	DailyTarget    int  `json:"dailyTarget"`
	HasSettings    bool `json:"hasSettings"`
}
