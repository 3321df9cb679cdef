package model

import (
	"time"
)

type AttemptStatus string

const (
	StatusCompleted AttemptStatus = "Completed"
	StatusAttempted AttemptStatus = "Attempted"
	StatusSkipped   AttemptStatus = "Skipped"
)

const (
	MaxNotesLength     = 10000
	DefaultNumAttempts = 1
	// MaxNumAttempts is the largest value the INTEGER column holds.
	MaxNumAttempts = 2147483647
)

func (s AttemptStatus) IsValid() bool {
	switch s {
	case StatusCompleted, StatusAttempted, StatusSkipped:
		return true
	}
	return false
}

// UserProblem records one user's history with one problem. It embeds the
// problem it refers to and never the user, so serialization cannot cycle.
type UserProblem struct {
	UserID        int64         `db:"user_id" json:"user_id"`
	ProblemID     int64         `db:"problem_id" json:"problem_id"`
	DateAttempted string        `db:"date_attempted" json:"date_attempted"`
	Status        AttemptStatus `db:"status" json:"status"`
	Notes         string        `db:"notes" json:"notes"`
	NumAttempts   int           `db:"num_attempts" json:"num_attempts"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
	Problem       *Problem      `db:"problem" json:"problem,omitempty"`
}

// ValidDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func ValidDate(s string) bool {
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}
