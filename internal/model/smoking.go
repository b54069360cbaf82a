package model

import (
	"time"

	"github.com/sakif/fresh-start/internal/apperror"
)

// DateLayout is the calendar-day format used for every "date" field.
const DateLayout = "2006-01-02"

// SmokingRecord is the cigarette count for one calendar day.
// A user has at most one record per date; a zero count is never stored.
type SmokingRecord struct {
	Date       string `json:"date"`
	Cigarettes int    `json:"cigarettes"`
}

func (r SmokingRecord) Validate() error {
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return apperror.ValidationFailed("date", "date must be a calendar day formatted YYYY-MM-DD")
	}
	if r.Cigarettes < 0 {
		return apperror.ValidationFailed("cigarettes", "cigarette count cannot be negative")
	}
	return nil
}

// DayString formats t as a calendar-day string.
func DayString(t time.Time) string {
	return t.Format(DateLayout)
}
