package match

import "context"

// Repository exposes match persistence operations. Matches are created by
// the scheduling system and never deleted; cancellation is a status.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByStatus(ctx context.Context, status Status) ([]Match, error)
	Create(ctx context.Context, item Match) error
	Update(ctx context.Context, item Match) error
}
