package autoscore

import (
	"errors"
	"time"
)

var ErrAlreadyReceived = errors.New("auto score already received")

// Components are the evaluator's four capped sub-scores. Their sum is the
// AI score on a 0-100 scale.
type Components struct {
	Correctness  float64
	Efficiency   float64
	Originality  float64
	DocsAndTests float64
}

// AutoScore is the AI evaluator's verdict for one team in one match.
// Delivery is at-most-once per (match, team) and the row is write-once.
type AutoScore struct {
	MatchID         string
	TeamID          string
	Components      Components
	Functionality   float64
	Innovation      float64
	PlagiarismFlag  bool
	AIGeneratedFlag bool
	Suggestions     string
	SubmittedAt     time.Time
}
