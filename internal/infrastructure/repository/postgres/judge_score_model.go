package postgres

import (
	"time"
)

type judgeScoreTableModel struct {
	MatchID          string     `db:"match_id"`
	TeamID           string     `db:"team_id"`
	JudgeID          string     `db:"judge_id"`
	Functionality    float64    `db:"functionality"`
	Innovation       float64    `db:"innovation"`
	Presentation     float64    `db:"presentation"`
	ProblemRelevance float64    `db:"problem_relevance"`
	Feasibility      float64    `db:"feasibility"`
	Collaboration    float64    `db:"collaboration"`
	Comments         string     `db:"comments"`
	IsLocked         bool       `db:"is_locked"`
	SubmittedAt      time.Time  `db:"submitted_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
	LockedAt         *time.Time `db:"locked_at"`
}
