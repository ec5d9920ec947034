package lineup

import "context"

// Repository exposes lineup persistence operations. Lineups are keyed by
// (match, team).
type Repository interface {
	GetByMatchAndTeam(ctx context.Context, matchID, teamID string) (Lineup, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]Lineup, error)
	Upsert(ctx context.Context, item Lineup) error
}
