package store

import "time"

// DecisionTally counts predictions per day and decision class. Claim fields
// are never stored.
type DecisionTally struct {
	ID            uint   `gorm:"primaryKey"`
	Day           string `gorm:"size:10;uniqueIndex:idx_tally_day_class"`
	DecisionClass string `gorm:"size:16;uniqueIndex:idx_tally_day_class"`
	Total         int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ClassTotal is an aggregate over all days for one decision class.
type ClassTotal struct {
	DecisionClass string `json:"decisionClass"`
	Total         int64  `json:"total"`
}

// DayKey formats t as the tally day key (UTC, YYYY-MM-DD).
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
