package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/lael-77/NDL-sub001/internal/domain/gametimer"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	qb "github.com/lael-77/NDL-sub001/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := matchBaseSelectBuilder().
		Where(qb.Eq("id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match: %w", err)
	}

	judges, err := r.listJudges(ctx, matchID)
	if err != nil {
		return match.Match{}, false, err
	}

	return matchFromRow(row, judges), true, nil
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status match.Status) ([]match.Match, error) {
	query, args, err := matchBaseSelectBuilder().
		Where(qb.Eq("status", string(status))).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches by status query: %w", err)
	}

	var rows []matchTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list matches by status: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		judges, err := r.listJudges(ctx, row.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, matchFromRow(row, judges))
	}
	return out, nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	query, args, err := qb.InsertModel("matches", matchToInsertModel(item), "")
	if err != nil {
		return fmt.Errorf("build match insert query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	return r.replaceJudges(ctx, item)
}

func (r *MatchRepository) Update(ctx context.Context, item match.Match) error {
	model := matchToInsertModel(item)
	query, args, err := qb.Update("matches").
		Set("home_team_id", model.HomeTeamID).
		Set("away_team_id", model.AwayTeamID).
		Set("arena_id", model.ArenaID).
		Set("scheduled_at", model.ScheduledAt).
		Set("status", model.Status).
		Set("end_comments", model.EndComments).
		Set("end_confirmed_by", model.EndConfirmedBy).
		Set("cancel_reason", model.CancelReason).
		Set("timer_running", model.TimerRunning).
		Set("timer_elapsed_ms", model.TimerElapsedMs).
		Set("timer_started_at", model.TimerStartedAt).
		Set("timer_half_ms", model.TimerHalfMs).
		Set("timer_total_ms", model.TimerTotalMs).
		Set("timer_half", model.TimerHalf).
		Set("updated_at", model.UpdatedAt).
		Where(qb.Eq("id", item.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build match update query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("match update rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update match: id=%s not found", item.ID)
	}

	return r.replaceJudges(ctx, item)
}

func (r *MatchRepository) listJudges(ctx context.Context, matchID string) ([]match.JudgeAssignment, error) {
	query, args, err := qb.Select("*").
		From("match_judges").
		Where(qb.Eq("match_id", matchID)).
		OrderBy("position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match judges query: %w", err)
	}

	var rows []matchJudgeTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list match judges: %w", err)
	}

	out := make([]match.JudgeAssignment, 0, len(rows))
	for _, row := range rows {
		out = append(out, match.JudgeAssignment{
			JudgeID: row.JudgeID,
			State:   match.AssignmentState(row.State),
			IsMain:  row.IsMain,
		})
	}
	return out, nil
}

// replaceJudges rewrites the assignment rows so declines drop out and state
// changes stick, keeping input order.
func (r *MatchRepository) replaceJudges(ctx context.Context, item match.Match) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM match_judges WHERE match_id = $1", item.ID); err != nil {
		return fmt.Errorf("clear match judges: %w", err)
	}
	for i, judge := range item.Judges {
		query, args, err := qb.InsertModel("match_judges", matchJudgeTableModel{
			MatchID:  item.ID,
			JudgeID:  judge.JudgeID,
			State:    string(judge.State),
			IsMain:   judge.IsMain,
			Position: i,
		}, "")
		if err != nil {
			return fmt.Errorf("build match judge insert query: %w", err)
		}
		if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert match judge: %w", err)
		}
	}
	return nil
}

func matchBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("matches")
}

func matchFromRow(row matchTableModel, judges []match.JudgeAssignment) match.Match {
	item := match.Match{
		ID:             row.ID,
		HomeTeamID:     row.HomeTeamID,
		AwayTeamID:     row.AwayTeamID,
		ArenaID:        row.ArenaID,
		ScheduledAt:    row.ScheduledAt,
		Status:         match.Status(row.Status),
		Judges:         judges,
		EndComments:    row.EndComments,
		EndConfirmedBy: append([]string(nil), row.EndConfirmedBy...),
		CancelReason:   row.CancelReason,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
	if row.TimerTotalMs > 0 {
		timer := &gametimer.Timer{
			MatchID:       row.ID,
			IsRunning:     row.TimerRunning,
			Elapsed:       time.Duration(row.TimerElapsedMs) * time.Millisecond,
			HalfDuration:  time.Duration(row.TimerHalfMs) * time.Millisecond,
			TotalDuration: time.Duration(row.TimerTotalMs) * time.Millisecond,
			CurrentHalf:   row.TimerHalf,
		}
		if row.TimerStartedAt != nil {
			anchor := *row.TimerStartedAt
			timer.StartedAt = &anchor
		}
		item.Timer = timer
	}
	return item
}

func matchToInsertModel(item match.Match) matchTableModel {
	model := matchTableModel{
		ID:             item.ID,
		HomeTeamID:     item.HomeTeamID,
		AwayTeamID:     item.AwayTeamID,
		ArenaID:        item.ArenaID,
		ScheduledAt:    item.ScheduledAt,
		Status:         string(item.Status),
		EndComments:    item.EndComments,
		EndConfirmedBy: pq.StringArray(item.EndConfirmedBy),
		CancelReason:   item.CancelReason,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if item.Timer != nil {
		model.TimerRunning = item.Timer.IsRunning
		model.TimerElapsedMs = item.Timer.Elapsed.Milliseconds()
		model.TimerHalfMs = item.Timer.HalfDuration.Milliseconds()
		model.TimerTotalMs = item.Timer.TotalDuration.Milliseconds()
		model.TimerHalf = item.Timer.CurrentHalf
		if item.Timer.StartedAt != nil {
			anchor := *item.Timer.StartedAt
			model.TimerStartedAt = &anchor
		}
	}
	return model
}
