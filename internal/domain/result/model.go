package result

import (
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/scoring"
)

// TeamResult is one team's sealed numbers for a finalized match.
type TeamResult struct {
	TeamID     string
	AIScore    float64
	HumanScore float64
	FinalScore float64
}

// FinalResult is written exactly once, when a match is finalized. After that
// the aggregate is immutable.
type FinalResult struct {
	MatchID        string
	Home           TeamResult
	Away           TeamResult
	WinnerTeamID   string
	TieBreakReason scoring.TieBreakReason
	FinalizedAt    time.Time
}
