package usecase

import (
	"context"
	"fmt"

	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
)

// DefaultDiscrepancyThreshold is the spread above which two judges are
// considered to disagree on a criterion.
const DefaultDiscrepancyThreshold = 2.0

// Discrepancy flags one criterion where the judge panel is split wider than
// the configured threshold. It is advisory: nothing blocks on it.
type Discrepancy struct {
	Criterion   judging.Criterion `json:"criterion"`
	Spread      float64           `json:"spread"`
	HighJudgeID string            `json:"high_judge_id"`
	HighScore   float64           `json:"high_score"`
	LowJudgeID  string            `json:"low_judge_id"`
	LowScore    float64           `json:"low_score"`
}

type ConsensusService struct {
	matchRepo match.Repository
	scoreRepo judging.Repository
	threshold float64
}

func NewConsensusService(matchRepo match.Repository, scoreRepo judging.Repository, threshold float64) *ConsensusService {
	if threshold <= 0 {
		threshold = DefaultDiscrepancyThreshold
	}
	return &ConsensusService{
		matchRepo: matchRepo,
		scoreRepo: scoreRepo,
		threshold: threshold,
	}
}

// FindDiscrepancies compares submitted judge rows for one team criterion by
// criterion. With fewer than two judges on record there is nothing to
// compare and the report is empty.
func (s *ConsensusService) FindDiscrepancies(ctx context.Context, matchID, teamID string) ([]Discrepancy, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConsensusService.FindDiscrepancies")
	defer span.End()

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match for discrepancy report: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	if !m.HasTeam(teamID) {
		return nil, fmt.Errorf("%w: team=%s is not part of match=%s", ErrInvalidInput, teamID, matchID)
	}

	rows, err := s.scoreRepo.ListByMatchAndTeam(ctx, matchID, teamID)
	if err != nil {
		return nil, fmt.Errorf("list judge scores for discrepancy report: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	report := make([]Discrepancy, 0, len(judging.Criteria))
	for _, criterion := range judging.Criteria {
		high, low := rows[0], rows[0]
		for _, row := range rows[1:] {
			if row.Criteria.Value(criterion) > high.Criteria.Value(criterion) {
				high = row
			}
			if row.Criteria.Value(criterion) < low.Criteria.Value(criterion) {
				low = row
			}
		}
		spread := high.Criteria.Value(criterion) - low.Criteria.Value(criterion)
		if spread > s.threshold {
			report = append(report, Discrepancy{
				Criterion:   criterion,
				Spread:      spread,
				HighJudgeID: high.JudgeID,
				HighScore:   high.Criteria.Value(criterion),
				LowJudgeID:  low.JudgeID,
				LowScore:    low.Criteria.Value(criterion),
			})
		}
	}
	return report, nil
}
