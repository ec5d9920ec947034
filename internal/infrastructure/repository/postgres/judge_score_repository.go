package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	qb "github.com/lael-77/NDL-sub001/internal/platform/querybuilder"
)

type JudgeScoreRepository struct {
	db *sqlx.DB
}

func NewJudgeScoreRepository(db *sqlx.DB) *JudgeScoreRepository {
	return &JudgeScoreRepository{db: db}
}

func (r *JudgeScoreRepository) Get(ctx context.Context, matchID, teamID, judgeID string) (judging.Score, bool, error) {
	query, args, err := judgeScoreBaseSelectBuilder().
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("team_id", teamID),
			qb.Eq("judge_id", judgeID),
		).
		ToSQL()
	if err != nil {
		return judging.Score{}, false, fmt.Errorf("build get judge score query: %w", err)
	}

	var row judgeScoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return judging.Score{}, false, nil
		}
		return judging.Score{}, false, fmt.Errorf("get judge score: %w", err)
	}

	return judgeScoreFromRow(row), true, nil
}

func (r *JudgeScoreRepository) ListByMatchAndTeam(ctx context.Context, matchID, teamID string) ([]judging.Score, error) {
	query, args, err := judgeScoreBaseSelectBuilder().
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("team_id", teamID),
		).
		OrderBy("judge_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list judge scores by team query: %w", err)
	}

	var rows []judgeScoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list judge scores by team: %w", err)
	}

	return judgeScoresFromRows(rows), nil
}

func (r *JudgeScoreRepository) ListByMatch(ctx context.Context, matchID string) ([]judging.Score, error) {
	query, args, err := judgeScoreBaseSelectBuilder().
		Where(qb.Eq("match_id", matchID)).
		OrderBy("team_id", "judge_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list judge scores by match query: %w", err)
	}

	var rows []judgeScoreTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list judge scores by match: %w", err)
	}

	return judgeScoresFromRows(rows), nil
}

func (r *JudgeScoreRepository) Upsert(ctx context.Context, item judging.Score) error {
	query, args, err := qb.InsertModel("judge_scores", judgeScoreTableModel{
		MatchID:          item.MatchID,
		TeamID:           item.TeamID,
		JudgeID:          item.JudgeID,
		Functionality:    item.Criteria.Functionality,
		Innovation:       item.Criteria.Innovation,
		Presentation:     item.Criteria.Presentation,
		ProblemRelevance: item.Criteria.ProblemRelevance,
		Feasibility:      item.Criteria.Feasibility,
		Collaboration:    item.Criteria.Collaboration,
		Comments:         item.Comments,
		IsLocked:         item.IsLocked,
		SubmittedAt:      item.SubmittedAt,
		UpdatedAt:        item.UpdatedAt,
		LockedAt:         item.LockedAt,
	}, `ON CONFLICT (match_id, team_id, judge_id)
DO UPDATE SET
    functionality = EXCLUDED.functionality,
    innovation = EXCLUDED.innovation,
    presentation = EXCLUDED.presentation,
    problem_relevance = EXCLUDED.problem_relevance,
    feasibility = EXCLUDED.feasibility,
    collaboration = EXCLUDED.collaboration,
    comments = EXCLUDED.comments,
    is_locked = EXCLUDED.is_locked,
    submitted_at = EXCLUDED.submitted_at,
    updated_at = EXCLUDED.updated_at,
    locked_at = EXCLUDED.locked_at`)
	if err != nil {
		return fmt.Errorf("build judge score upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert judge score: %w", err)
	}
	return nil
}

func judgeScoreBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("judge_scores")
}

func judgeScoresFromRows(rows []judgeScoreTableModel) []judging.Score {
	out := make([]judging.Score, 0, len(rows))
	for _, row := range rows {
		out = append(out, judgeScoreFromRow(row))
	}
	return out
}

func judgeScoreFromRow(row judgeScoreTableModel) judging.Score {
	item := judging.Score{
		MatchID: row.MatchID,
		TeamID:  row.TeamID,
		JudgeID: row.JudgeID,
		Criteria: judging.CriteriaScores{
			Functionality:    row.Functionality,
			Innovation:       row.Innovation,
			Presentation:     row.Presentation,
			ProblemRelevance: row.ProblemRelevance,
			Feasibility:      row.Feasibility,
			Collaboration:    row.Collaboration,
		},
		Comments:    row.Comments,
		IsLocked:    row.IsLocked,
		SubmittedAt: row.SubmittedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.LockedAt != nil {
		lockedAt := *row.LockedAt
		item.LockedAt = &lockedAt
	}
	return item
}
