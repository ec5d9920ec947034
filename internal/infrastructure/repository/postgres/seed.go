package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the reference teams and the opening fixture into an
// empty database. A non-empty matches table means an operator already owns
// the data and the seed backs off.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM matches`); err != nil {
		return fmt.Errorf("count matches for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, t := range memory.SeedTeams() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO teams (id, name, school_id)
VALUES (:id, :name, :school_id)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":        t.ID,
			"name":      t.Name,
			"school_id": t.SchoolID,
		})
		if err != nil {
			return fmt.Errorf("bind seed team %s query: %w", t.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed team %s: %w", t.ID, err)
		}
	}

	for _, m := range memory.SeedMatches() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO matches (id, home_team_id, away_team_id, arena_id, scheduled_at, status, created_at, updated_at)
VALUES (:id, :home_team_id, :away_team_id, :arena_id, :scheduled_at, :status, :created_at, :updated_at)
ON CONFLICT (id) DO NOTHING`, map[string]any{
			"id":           m.ID,
			"home_team_id": m.HomeTeamID,
			"away_team_id": m.AwayTeamID,
			"arena_id":     m.ArenaID,
			"scheduled_at": m.ScheduledAt,
			"status":       string(m.Status),
			"created_at":   m.CreatedAt,
			"updated_at":   m.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed match %s query: %w", m.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed match %s: %w", m.ID, err)
		}

		for i, judge := range m.Judges {
			sqlQuery, args, err := sqlx.Named(`
INSERT INTO match_judges (match_id, judge_id, state, is_main, position)
VALUES (:match_id, :judge_id, :state, :is_main, :position)
ON CONFLICT (match_id, judge_id) DO NOTHING`, map[string]any{
				"match_id": m.ID,
				"judge_id": judge.JudgeID,
				"state":    string(judge.State),
				"is_main":  judge.IsMain,
				"position": i,
			})
			if err != nil {
				return fmt.Errorf("bind seed match judge %s query: %w", judge.JudgeID, err)
			}
			sqlQuery = tx.Rebind(sqlQuery)
			if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
				return fmt.Errorf("seed match judge %s: %w", judge.JudgeID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}
