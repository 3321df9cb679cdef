package model

import (
	"time"
)

type ProblemDifficulty string

const (
	DifficultyEasy   ProblemDifficulty = "Easy"
	DifficultyMedium ProblemDifficulty = "Medium"
	DifficultyHard   ProblemDifficulty = "Hard"
)

func (d ProblemDifficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

type Problem struct {
	ID          int64             `db:"id" json:"id"`
	ProblemName string            `db:"problem_name" json:"problem_name"`
	ProblemLink string            `db:"problem_link" json:"problem_link"`
	Slug        string            `db:"slug" json:"slug"`
	Difficulty  ProblemDifficulty `db:"difficulty" json:"difficulty"`
	Category    string            `db:"category" json:"category"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

// ProblemFilter holds the equality filters of a problem listing.
type ProblemFilter struct {
	Difficulty ProblemDifficulty
	Category   string
}
