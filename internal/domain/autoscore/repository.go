package autoscore

import "context"

// Repository stores evaluator results. Put must refuse a second write for
// the same (match, team) with ErrAlreadyReceived.
type Repository interface {
	Get(ctx context.Context, matchID, teamID string) (AutoScore, bool, error)
	Put(ctx context.Context, item AutoScore) error
}
