package model

import "time"

// ActivityEntry is one line of the per-user audit trail.
// Data is a small free-form payload describing the change.
type ActivityEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Action    string         `json:"action"`
	Data      map[string]any `json:"data"`
	SessionID string         `json:"sessionId"`
	UserID    string         `json:"userId"`
}
