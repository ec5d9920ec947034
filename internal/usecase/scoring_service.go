package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/domain/scoring"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
)

// ScoringService turns locked judge rows and the evaluator verdict into a
// sealed final result. It only reads locked rows; the lifecycle guarantees
// every accepted judge locked both teams before it calls in.
type ScoringService struct {
	scoreRepo  judging.Repository
	autoRepo   autoscore.Repository
	resultRepo result.Repository
	logger     *logging.Logger
	now        func() time.Time
}

func NewScoringService(
	scoreRepo judging.Repository,
	autoRepo autoscore.Repository,
	resultRepo result.Repository,
	logger *logging.Logger,
) *ScoringService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		scoreRepo:  scoreRepo,
		autoRepo:   autoRepo,
		resultRepo: resultRepo,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *ScoringService) BuildFinalResult(ctx context.Context, m match.Match) (result.FinalResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.BuildFinalResult")
	defer span.End()

	home, homeTie, err := s.teamResult(ctx, m.ID, m.HomeTeamID)
	if err != nil {
		return result.FinalResult{}, err
	}
	away, awayTie, err := s.teamResult(ctx, m.ID, m.AwayTeamID)
	if err != nil {
		return result.FinalResult{}, err
	}

	final := result.FinalResult{
		MatchID:     m.ID,
		Home:        home,
		Away:        away,
		FinalizedAt: s.now().UTC(),
	}

	switch scoring.DetermineWinner(home.FinalScore, away.FinalScore) {
	case scoring.WinnerHome:
		final.WinnerTeamID = m.HomeTeamID
	case scoring.WinnerAway:
		final.WinnerTeamID = m.AwayTeamID
	case scoring.WinnerTie:
		broken := scoring.BreakTie(homeTie, awayTie)
		final.WinnerTeamID = broken.WinnerTeamID
		final.TieBreakReason = broken.Reason
	}
	return final, nil
}

func (s *ScoringService) Store(ctx context.Context, final result.FinalResult) error {
	return s.resultRepo.Upsert(ctx, final)
}

// GetFinalResult reads the sealed aggregate for a finalized match.
func (s *ScoringService) GetFinalResult(ctx context.Context, matchID string) (result.FinalResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.GetFinalResult")
	defer span.End()

	final, exists, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		return result.FinalResult{}, fmt.Errorf("get final result: %w", err)
	}
	if !exists {
		return result.FinalResult{}, fmt.Errorf("%w: no final result for match=%s", ErrNotFound, matchID)
	}
	return final, nil
}

// teamResult blends the judge aggregate with the evaluator verdict for one
// team. A missing verdict counts as zero so the human side still decides.
func (s *ScoringService) teamResult(ctx context.Context, matchID, teamID string) (result.TeamResult, scoring.TieBreakEntry, error) {
	rows, err := s.scoreRepo.ListByMatchAndTeam(ctx, matchID, teamID)
	if err != nil {
		return result.TeamResult{}, scoring.TieBreakEntry{}, fmt.Errorf("list judge scores for team=%s: %w", teamID, err)
	}

	totals := make([]float64, 0, len(rows))
	for _, row := range rows {
		if !row.IsLocked {
			continue
		}
		total, err := scoring.ComputeJudgeTotal(row.Criteria)
		if err != nil {
			return result.TeamResult{}, scoring.TieBreakEntry{}, fmt.Errorf("%w: judge=%s team=%s: %v", ErrInvalidInput, row.JudgeID, teamID, err)
		}
		totals = append(totals, total)
	}
	human := scoring.AggregateHumanScores(totals)

	var ai float64
	tie := scoring.TieBreakEntry{TeamID: teamID}
	auto, exists, err := s.autoRepo.Get(ctx, matchID, teamID)
	if err != nil {
		return result.TeamResult{}, scoring.TieBreakEntry{}, fmt.Errorf("get auto score for team=%s: %w", teamID, err)
	}
	if exists {
		ai, err = scoring.ComputeAIScore(auto.Components)
		if err != nil {
			return result.TeamResult{}, scoring.TieBreakEntry{}, fmt.Errorf("%w: stored evaluator score for team=%s: %v", ErrInvalidInput, teamID, err)
		}
		tie.Originality = auto.Components.Originality
		tie.SubmittedAt = auto.SubmittedAt
	} else {
		s.logger.WarnContext(ctx, "no evaluator verdict, blending with zero", "match_id", matchID, "team_id", teamID)
	}

	final, err := scoring.BlendFinal(ai, human)
	if err != nil {
		return result.TeamResult{}, scoring.TieBreakEntry{}, fmt.Errorf("%w: blend for team=%s: %v", ErrInvalidInput, teamID, err)
	}

	return result.TeamResult{
		TeamID:     teamID,
		AIScore:    ai,
		HumanScore: human,
		FinalScore: final,
	}, tie, nil
}
