package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/domain/scoring"
	qb "github.com/lael-77/NDL-sub001/internal/platform/querybuilder"
)

type finalResultTableModel struct {
	MatchID        string    `db:"match_id"`
	HomeTeamID     string    `db:"home_team_id"`
	HomeAIScore    float64   `db:"home_ai_score"`
	HomeHumanScore float64   `db:"home_human_score"`
	HomeFinalScore float64   `db:"home_final_score"`
	AwayTeamID     string    `db:"away_team_id"`
	AwayAIScore    float64   `db:"away_ai_score"`
	AwayHumanScore float64   `db:"away_human_score"`
	AwayFinalScore float64   `db:"away_final_score"`
	WinnerTeamID   string    `db:"winner_team_id"`
	TieBreakReason string    `db:"tie_break_reason"`
	FinalizedAt    time.Time `db:"finalized_at"`
}

type ResultRepository struct {
	db *sqlx.DB
}

func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

func (r *ResultRepository) GetByMatch(ctx context.Context, matchID string) (result.FinalResult, bool, error) {
	query, args, err := qb.Select("*").
		From("final_results").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return result.FinalResult{}, false, fmt.Errorf("build get final result query: %w", err)
	}

	var row finalResultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return result.FinalResult{}, false, nil
		}
		return result.FinalResult{}, false, fmt.Errorf("get final result: %w", err)
	}

	return finalResultFromRow(row), true, nil
}

func (r *ResultRepository) Upsert(ctx context.Context, item result.FinalResult) error {
	query, args, err := qb.InsertModel("final_results", finalResultTableModel{
		MatchID:        item.MatchID,
		HomeTeamID:     item.Home.TeamID,
		HomeAIScore:    item.Home.AIScore,
		HomeHumanScore: item.Home.HumanScore,
		HomeFinalScore: item.Home.FinalScore,
		AwayTeamID:     item.Away.TeamID,
		AwayAIScore:    item.Away.AIScore,
		AwayHumanScore: item.Away.HumanScore,
		AwayFinalScore: item.Away.FinalScore,
		WinnerTeamID:   item.WinnerTeamID,
		TieBreakReason: string(item.TieBreakReason),
		FinalizedAt:    item.FinalizedAt,
	}, `ON CONFLICT (match_id)
DO UPDATE SET
    home_team_id = EXCLUDED.home_team_id,
    home_ai_score = EXCLUDED.home_ai_score,
    home_human_score = EXCLUDED.home_human_score,
    home_final_score = EXCLUDED.home_final_score,
    away_team_id = EXCLUDED.away_team_id,
    away_ai_score = EXCLUDED.away_ai_score,
    away_human_score = EXCLUDED.away_human_score,
    away_final_score = EXCLUDED.away_final_score,
    winner_team_id = EXCLUDED.winner_team_id,
    tie_break_reason = EXCLUDED.tie_break_reason,
    finalized_at = EXCLUDED.finalized_at`)
	if err != nil {
		return fmt.Errorf("build final result upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert final result: %w", err)
	}
	return nil
}

func finalResultFromRow(row finalResultTableModel) result.FinalResult {
	return result.FinalResult{
		MatchID: row.MatchID,
		Home: result.TeamResult{
			TeamID:     row.HomeTeamID,
			AIScore:    row.HomeAIScore,
			HumanScore: row.HomeHumanScore,
			FinalScore: row.HomeFinalScore,
		},
		Away: result.TeamResult{
			TeamID:     row.AwayTeamID,
			AIScore:    row.AwayAIScore,
			HumanScore: row.AwayHumanScore,
			FinalScore: row.AwayFinalScore,
		},
		WinnerTeamID:   row.WinnerTeamID,
		TieBreakReason: scoring.TieBreakReason(row.TieBreakReason),
		FinalizedAt:    row.FinalizedAt,
	}
}
