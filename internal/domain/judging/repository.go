package judging

import "context"

// Repository exposes judge score persistence. Rows are keyed by
// (match, team, judge); judges never write to each other's rows.
type Repository interface {
	Get(ctx context.Context, matchID, teamID, judgeID string) (Score, bool, error)
	ListByMatchAndTeam(ctx context.Context, matchID, teamID string) ([]Score, error)
	ListByMatch(ctx context.Context, matchID string) ([]Score, error)
	Upsert(ctx context.Context, item Score) error
}
