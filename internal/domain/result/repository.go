package result

import "context"

// Repository stores final results. Upsert exists for the recompute repair
// path; normal finalization writes each match once.
type Repository interface {
	GetByMatch(ctx context.Context, matchID string) (FinalResult, bool, error)
	Upsert(ctx context.Context, item FinalResult) error
}
