package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	qb "github.com/lael-77/NDL-sub001/internal/platform/querybuilder"
)

type autoScoreTableModel struct {
	MatchID         string    `db:"match_id"`
	TeamID          string    `db:"team_id"`
	Correctness     float64   `db:"correctness"`
	Efficiency      float64   `db:"efficiency"`
	Originality     float64   `db:"originality"`
	DocsAndTests    float64   `db:"docs_and_tests"`
	Functionality   float64   `db:"functionality"`
	Innovation      float64   `db:"innovation"`
	PlagiarismFlag  bool      `db:"plagiarism_flag"`
	AIGeneratedFlag bool      `db:"ai_generated_flag"`
	Suggestions     string    `db:"suggestions"`
	SubmittedAt     time.Time `db:"submitted_at"`
}

type AutoScoreRepository struct {
	db *sqlx.DB
}

func NewAutoScoreRepository(db *sqlx.DB) *AutoScoreRepository {
	return &AutoScoreRepository{db: db}
}

func (r *AutoScoreRepository) Get(ctx context.Context, matchID, teamID string) (autoscore.AutoScore, bool, error) {
	query, args, err := qb.Select("*").
		From("auto_scores").
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("team_id", teamID),
		).
		ToSQL()
	if err != nil {
		return autoscore.AutoScore{}, false, fmt.Errorf("build get auto score query: %w", err)
	}

	var row autoScoreTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return autoscore.AutoScore{}, false, nil
		}
		return autoscore.AutoScore{}, false, fmt.Errorf("get auto score: %w", err)
	}

	return autoScoreFromRow(row), true, nil
}

// Put is write-once per (match, team). The conflict target swallows the
// insert so a duplicate delivery surfaces as zero affected rows.
func (r *AutoScoreRepository) Put(ctx context.Context, item autoscore.AutoScore) error {
	query, args, err := qb.InsertModel("auto_scores", autoScoreTableModel{
		MatchID:         item.MatchID,
		TeamID:          item.TeamID,
		Correctness:     item.Components.Correctness,
		Efficiency:      item.Components.Efficiency,
		Originality:     item.Components.Originality,
		DocsAndTests:    item.Components.DocsAndTests,
		Functionality:   item.Functionality,
		Innovation:      item.Innovation,
		PlagiarismFlag:  item.PlagiarismFlag,
		AIGeneratedFlag: item.AIGeneratedFlag,
		Suggestions:     item.Suggestions,
		SubmittedAt:     item.SubmittedAt,
	}, `ON CONFLICT (match_id, team_id) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("build auto score insert query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert auto score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("auto score insert rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: match=%s team=%s", autoscore.ErrAlreadyReceived, item.MatchID, item.TeamID)
	}
	return nil
}

func autoScoreFromRow(row autoScoreTableModel) autoscore.AutoScore {
	return autoscore.AutoScore{
		MatchID: row.MatchID,
		TeamID:  row.TeamID,
		Components: autoscore.Components{
			Correctness:  row.Correctness,
			Efficiency:   row.Efficiency,
			Originality:  row.Originality,
			DocsAndTests: row.DocsAndTests,
		},
		Functionality:   row.Functionality,
		Innovation:      row.Innovation,
		PlagiarismFlag:  row.PlagiarismFlag,
		AIGeneratedFlag: row.AIGeneratedFlag,
		Suggestions:     row.Suggestions,
		SubmittedAt:     row.SubmittedAt,
	}
}
