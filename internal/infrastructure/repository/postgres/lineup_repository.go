package postgres

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	qb "github.com/lael-77/NDL-sub001/internal/platform/querybuilder"
)

type LineupRepository struct {
	db *sqlx.DB
}

func NewLineupRepository(db *sqlx.DB) *LineupRepository {
	return &LineupRepository{db: db}
}

func (r *LineupRepository) GetByMatchAndTeam(ctx context.Context, matchID, teamID string) (lineup.Lineup, bool, error) {
	query, args, err := lineupBaseSelectBuilder().
		Where(
			qb.Eq("match_id", matchID),
			qb.Eq("team_id", teamID),
		).
		ToSQL()
	if err != nil {
		return lineup.Lineup{}, false, fmt.Errorf("build get lineup query: %w", err)
	}

	var row lineupTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return lineup.Lineup{}, false, nil
		}
		return lineup.Lineup{}, false, fmt.Errorf("get lineup: %w", err)
	}

	item, err := lineupFromRow(row)
	if err != nil {
		return lineup.Lineup{}, false, err
	}
	return item, true, nil
}

func (r *LineupRepository) ListByMatch(ctx context.Context, matchID string) ([]lineup.Lineup, error) {
	query, args, err := lineupBaseSelectBuilder().
		Where(qb.Eq("match_id", matchID)).
		OrderBy("team_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list lineups by match query: %w", err)
	}

	var rows []lineupTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list lineups by match: %w", err)
	}

	out := make([]lineup.Lineup, 0, len(rows))
	for _, row := range rows {
		item, err := lineupFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *LineupRepository) Upsert(ctx context.Context, item lineup.Lineup) error {
	encoded, err := encodeLineupPlayers(item.Players)
	if err != nil {
		return fmt.Errorf("encode lineup players: %w", err)
	}

	query, args, err := qb.InsertModel("lineups", lineupTableModel{
		MatchID:      item.MatchID,
		TeamID:       item.TeamID,
		Players:      encoded,
		Status:       string(item.Status),
		RejectReason: item.RejectReason,
		SubmittedAt:  item.SubmittedAt,
		UpdatedAt:    item.UpdatedAt,
	}, `ON CONFLICT (match_id, team_id)
DO UPDATE SET
    players = EXCLUDED.players,
    status = EXCLUDED.status,
    reject_reason = EXCLUDED.reject_reason,
    submitted_at = EXCLUDED.submitted_at,
    updated_at = EXCLUDED.updated_at`)
	if err != nil {
		return fmt.Errorf("build lineup upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert lineup: %w", err)
	}
	return nil
}

func encodeLineupPlayers(players []lineup.Player) ([]byte, error) {
	records := make([]lineupPlayerRecord, 0, len(players))
	for _, p := range players {
		records = append(records, lineupPlayerRecord{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Role:      string(p.Role),
			IsCaptain: p.IsCaptain,
		})
	}
	return sonic.Marshal(records)
}

func lineupBaseSelectBuilder() *qb.SelectBuilder {
	return qb.Select("*").From("lineups")
}

func lineupFromRow(row lineupTableModel) (lineup.Lineup, error) {
	var records []lineupPlayerRecord
	if len(row.Players) > 0 {
		if err := sonic.Unmarshal(row.Players, &records); err != nil {
			return lineup.Lineup{}, fmt.Errorf("decode lineup players for match=%s team=%s: %w", row.MatchID, row.TeamID, err)
		}
	}

	players := make([]lineup.Player, 0, len(records))
	for _, rec := range records {
		players = append(players, lineup.Player{
			PlayerID:  rec.PlayerID,
			Name:      rec.Name,
			Role:      lineup.Role(rec.Role),
			IsCaptain: rec.IsCaptain,
		})
	}

	return lineup.Lineup{
		MatchID:      row.MatchID,
		TeamID:       row.TeamID,
		Players:      players,
		Status:       lineup.Status(row.Status),
		RejectReason: row.RejectReason,
		SubmittedAt:  row.SubmittedAt,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}
