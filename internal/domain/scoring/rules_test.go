package scoring

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
)

func TestComputeJudgeTotal_AllMax(t *testing.T) {
	total, err := ComputeJudgeTotal(judging.CriteriaScores{
		Functionality:    10,
		Innovation:       10,
		Presentation:     10,
		ProblemRelevance: 10,
		Feasibility:      10,
		Collaboration:    10,
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if total != 100 {
		t.Fatalf("expected 100, got %v", total)
	}
}

func TestComputeJudgeTotal_WeightedMix(t *testing.T) {
	total, err := ComputeJudgeTotal(judging.CriteriaScores{
		Functionality:    8,  // 0.25
		Innovation:       6,  // 0.25
		Presentation:     7,  // 0.15
		ProblemRelevance: 9,  // 0.20
		Feasibility:      5,  // 0.10
		Collaboration:    10, // 0.05
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	// 2.0 + 1.5 + 1.05 + 1.8 + 0.5 + 0.5 = 7.35, scaled to 73.5
	if math.Abs(total-73.5) > 1e-9 {
		t.Fatalf("expected 73.5, got %v", total)
	}
}

func TestComputeJudgeTotal_OutOfRange(t *testing.T) {
	_, err := ComputeJudgeTotal(judging.CriteriaScores{Functionality: 12})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestComputeAIScore_SumsComponents(t *testing.T) {
	score, err := ComputeAIScore(autoscore.Components{
		Correctness:  35,
		Efficiency:   18,
		Originality:  14,
		DocsAndTests: 16,
	})
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if score != 83 {
		t.Fatalf("expected 83, got %v", score)
	}
}

func TestComputeAIScore_ComponentOverCapNamed(t *testing.T) {
	_, err := ComputeAIScore(autoscore.Components{Correctness: 41})
	if !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange, got %v", err)
	}
}

func TestBlendFinal(t *testing.T) {
	got, err := BlendFinal(80, 70)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if got != 76 {
		t.Fatalf("expected 76, got %v", got)
	}

	got, err = BlendFinal(83.33, 66.67)
	if err != nil {
		t.Fatalf("blend failed: %v", err)
	}
	if got != 76.67 {
		t.Fatalf("expected 76.67, got %v", got)
	}
}

func TestBlendFinal_RejectsOutOfRange(t *testing.T) {
	if _, err := BlendFinal(101, 50); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for ai side, got %v", err)
	}
	if _, err := BlendFinal(50, -1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("expected ErrOutOfRange for human side, got %v", err)
	}
}

func TestAggregateHumanScores(t *testing.T) {
	if got := AggregateHumanScores([]float64{80, 70, 90}); got != 80 {
		t.Fatalf("expected 80, got %v", got)
	}
	if got := AggregateHumanScores(nil); got != 0 {
		t.Fatalf("empty set must aggregate to 0, got %v", got)
	}
}

func TestTeamScoreFromStudents(t *testing.T) {
	scores := []float64{80, 70, 90, 85}

	avg, err := TeamScoreFromStudents(scores, RollupAverage)
	if err != nil {
		t.Fatalf("average rollup failed: %v", err)
	}
	if avg != 81.25 {
		t.Fatalf("expected 81.25, got %v", avg)
	}

	best, err := TeamScoreFromStudents(scores, RollupBest)
	if err != nil {
		t.Fatalf("best rollup failed: %v", err)
	}
	if best != 90 {
		t.Fatalf("expected 90, got %v", best)
	}

	if _, err := TeamScoreFromStudents(scores, "median"); !errors.Is(err, ErrUnknownMethod) {
		t.Fatalf("expected ErrUnknownMethod, got %v", err)
	}
}

func TestDetermineWinner(t *testing.T) {
	if w := DetermineWinner(76, 75.99); w != WinnerHome {
		t.Fatalf("expected home, got %s", w)
	}
	if w := DetermineWinner(60, 60.01); w != WinnerAway {
		t.Fatalf("expected away, got %s", w)
	}
	if w := DetermineWinner(50, 50); w != WinnerTie {
		t.Fatalf("expected tie, got %s", w)
	}
}

func TestBreakTie_Originality(t *testing.T) {
	got := BreakTie(
		TieBreakEntry{TeamID: "team-a", Originality: 18},
		TieBreakEntry{TeamID: "team-b", Originality: 12},
	)
	if got.WinnerTeamID != "team-a" || got.Reason != TieBreakOriginality {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestBreakTie_EarlierSubmission(t *testing.T) {
	earlier := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	got := BreakTie(
		TieBreakEntry{TeamID: "team-a", Originality: 15, SubmittedAt: earlier.Add(time.Minute)},
		TieBreakEntry{TeamID: "team-b", Originality: 15, SubmittedAt: earlier},
	)
	if got.WinnerTeamID != "team-b" || got.Reason != TieBreakSubmission {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestBreakTie_StableFallback(t *testing.T) {
	at := time.Date(2026, 9, 12, 10, 0, 0, 0, time.UTC)
	got := BreakTie(
		TieBreakEntry{TeamID: "team-b", Originality: 15, SubmittedAt: at},
		TieBreakEntry{TeamID: "team-a", Originality: 15, SubmittedAt: at},
	)
	if got.WinnerTeamID != "team-a" || got.Reason != TieBreakStableID {
		t.Fatalf("unexpected result: %+v", got)
	}
}
