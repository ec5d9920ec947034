package scoring

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
)

var (
	ErrOutOfRange    = errors.New("score out of range")
	ErrUnknownMethod = errors.New("unknown roll-up method")
)

// Blend weights: the AI verdict carries 60% of the final score, the
// aggregated human score 40%.
const (
	AIWeight    = 0.6
	HumanWeight = 0.4
)

// Caps for the evaluator's four sub-scores. They sum to 100.
const (
	CapCorrectness  = 40.0
	CapEfficiency   = 20.0
	CapOriginality  = 20.0
	CapDocsAndTests = 20.0
)

// ComputeJudgeTotal converts a judge's six 0-10 criterion scores into a
// weighted 0-100 total.
func ComputeJudgeTotal(c judging.CriteriaScores) (float64, error) {
	if err := c.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrOutOfRange, err)
	}
	total := 0.0
	for _, criterion := range judging.Criteria {
		total += c.Value(criterion) * judging.Weights[criterion]
	}
	return total * 10, nil
}

// ComputeAIScore sums the evaluator's four capped components into a 0-100
// score, naming any component that exceeds its cap.
func ComputeAIScore(c autoscore.Components) (float64, error) {
	checks := []struct {
		name  string
		value float64
		cap   float64
	}{
		{"correctness", c.Correctness, CapCorrectness},
		{"efficiency", c.Efficiency, CapEfficiency},
		{"originality", c.Originality, CapOriginality},
		{"docsAndTests", c.DocsAndTests, CapDocsAndTests},
	}
	total := 0.0
	for _, check := range checks {
		if check.value < 0 || check.value > check.cap {
			return 0, fmt.Errorf("%w: %s=%v (cap %v)", ErrOutOfRange, check.name, check.value, check.cap)
		}
		total += check.value
	}
	return total, nil
}

// BlendFinal combines the AI and human scores 60/40, rounded to 2 decimals.
func BlendFinal(aiScore, humanScore float64) (float64, error) {
	if aiScore < 0 || aiScore > 100 {
		return 0, fmt.Errorf("%w: aiScore=%v", ErrOutOfRange, aiScore)
	}
	if humanScore < 0 || humanScore > 100 {
		return 0, fmt.Errorf("%w: humanScore=%v", ErrOutOfRange, humanScore)
	}
	return round2(aiScore*AIWeight + humanScore*HumanWeight), nil
}

// AggregateHumanScores is the arithmetic mean of judge totals for one team.
// An empty set is a neutral baseline of 0, not an error.
func AggregateHumanScores(totals []float64) float64 {
	if len(totals) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range totals {
		sum += t
	}
	return sum / float64(len(totals))
}

type RollupMethod string

const (
	RollupAverage RollupMethod = "average"
	RollupBest    RollupMethod = "best"
)

// TeamScoreFromStudents rolls individual student scores into a team score.
func TeamScoreFromStudents(scores []float64, method RollupMethod) (float64, error) {
	switch method {
	case RollupAverage:
		return AggregateHumanScores(scores), nil
	case RollupBest:
		best := 0.0
		for i, s := range scores {
			if i == 0 || s > best {
				best = s
			}
		}
		return best, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
}

type Winner string

const (
	WinnerHome Winner = "home"
	WinnerAway Winner = "away"
	WinnerTie  Winner = "tie"
)

// DetermineWinner picks the side with the strictly higher final score.
func DetermineWinner(homeScore, awayScore float64) Winner {
	switch {
	case homeScore > awayScore:
		return WinnerHome
	case awayScore > homeScore:
		return WinnerAway
	default:
		return WinnerTie
	}
}

type TieBreakReason string

const (
	TieBreakOriginality TieBreakReason = "originality"
	TieBreakSubmission  TieBreakReason = "submission_time"
	TieBreakStableID    TieBreakReason = "stable_id"
)

// TieBreakEntry carries the fields consulted when final scores are equal.
type TieBreakEntry struct {
	TeamID      string
	Originality float64
	SubmittedAt time.Time
}

type TieBreakResult struct {
	WinnerTeamID string
	Reason       TieBreakReason
}

// BreakTie orders two tied teams: higher originality first, then earlier
// submission. When both are identical the lexicographically smaller team ID
// wins so the outcome is deterministic.
func BreakTie(a, b TieBreakEntry) TieBreakResult {
	if a.Originality != b.Originality {
		winner := a
		if b.Originality > a.Originality {
			winner = b
		}
		return TieBreakResult{WinnerTeamID: winner.TeamID, Reason: TieBreakOriginality}
	}
	if !a.SubmittedAt.Equal(b.SubmittedAt) {
		winner := a
		if b.SubmittedAt.Before(a.SubmittedAt) {
			winner = b
		}
		return TieBreakResult{WinnerTeamID: winner.TeamID, Reason: TieBreakSubmission}
	}
	winner := a
	if b.TeamID < a.TeamID {
		winner = b
	}
	return TieBreakResult{WinnerTeamID: winner.TeamID, Reason: TieBreakStableID}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
