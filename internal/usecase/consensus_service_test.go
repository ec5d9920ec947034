package usecase

import (
	"errors"
	"testing"

	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/repository/memory"
)

func seedInProgressMatch(t *testing.T) (*memory.MatchRepository, *memory.JudgeScoreRepository) {
	t.Helper()
	seed := memory.SeedMatches()
	seed[0].Status = match.StatusInProgress
	seed[0].Judges[0].State = match.AssignmentAccepted
	seed[0].Judges[1].State = match.AssignmentAccepted
	return memory.NewMatchRepository(seed), memory.NewJudgeScoreRepository()
}

func TestConsensusService_FlagsWideInnovationSplit(t *testing.T) {
	matches, scores := seedInProgressMatch(t)
	svc := NewConsensusService(matches, scores, 0)

	high := uniformScores(7)
	high.Innovation = 9
	low := uniformScores(7)
	low.Innovation = 3
	for judgeID, criteria := range map[string]judging.CriteriaScores{
		memory.JudgeIDMain:   high,
		memory.JudgeIDSecond: low,
	} {
		if err := scores.Upsert(t.Context(), judging.Score{
			MatchID:  memory.MatchIDOpeningRound,
			TeamID:   memory.TeamIDNorthHawks,
			JudgeID:  judgeID,
			Criteria: criteria,
		}); err != nil {
			t.Fatalf("seed score failed: %v", err)
		}
	}

	report, err := svc.FindDiscrepancies(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks)
	if err != nil {
		t.Fatalf("discrepancy report failed: %v", err)
	}
	if len(report) != 1 {
		t.Fatalf("expected one flagged criterion, got %d", len(report))
	}

	flag := report[0]
	if flag.Criterion != judging.CriterionInnovation {
		t.Fatalf("unexpected criterion: %s", flag.Criterion)
	}
	if flag.Spread != 6 {
		t.Fatalf("expected spread 6, got %v", flag.Spread)
	}
	if flag.HighJudgeID != memory.JudgeIDMain || flag.LowJudgeID != memory.JudgeIDSecond {
		t.Fatalf("unexpected judges: high=%s low=%s", flag.HighJudgeID, flag.LowJudgeID)
	}
}

func TestConsensusService_SpreadAtThresholdNotFlagged(t *testing.T) {
	matches, scores := seedInProgressMatch(t)
	svc := NewConsensusService(matches, scores, 0)

	a := uniformScores(6)
	b := uniformScores(8)
	for judgeID, criteria := range map[string]judging.CriteriaScores{
		memory.JudgeIDMain:   a,
		memory.JudgeIDSecond: b,
	} {
		if err := scores.Upsert(t.Context(), judging.Score{
			MatchID:  memory.MatchIDOpeningRound,
			TeamID:   memory.TeamIDNorthHawks,
			JudgeID:  judgeID,
			Criteria: criteria,
		}); err != nil {
			t.Fatalf("seed score failed: %v", err)
		}
	}

	report, err := svc.FindDiscrepancies(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks)
	if err != nil {
		t.Fatalf("discrepancy report failed: %v", err)
	}
	if len(report) != 0 {
		t.Fatalf("spread equal to threshold must not flag, got %d entries", len(report))
	}
}

func TestConsensusService_SingleJudgeHasNothingToCompare(t *testing.T) {
	matches, scores := seedInProgressMatch(t)
	svc := NewConsensusService(matches, scores, 0)

	if err := scores.Upsert(t.Context(), judging.Score{
		MatchID:  memory.MatchIDOpeningRound,
		TeamID:   memory.TeamIDNorthHawks,
		JudgeID:  memory.JudgeIDMain,
		Criteria: uniformScores(9),
	}); err != nil {
		t.Fatalf("seed score failed: %v", err)
	}

	report, err := svc.FindDiscrepancies(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks)
	if err != nil {
		t.Fatalf("discrepancy report failed: %v", err)
	}
	if report != nil {
		t.Fatalf("expected empty report, got %v", report)
	}
}

func TestConsensusService_UnknownMatch(t *testing.T) {
	matches, scores := seedInProgressMatch(t)
	svc := NewConsensusService(matches, scores, 0)

	_, err := svc.FindDiscrepancies(t.Context(), "match-unknown", memory.TeamIDNorthHawks)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
