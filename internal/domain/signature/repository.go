package signature

import "context"

// Repository stores judge signatures. Put must refuse a second signature
// from the same judge for the same match with ErrAlreadySigned.
type Repository interface {
	Get(ctx context.Context, matchID, judgeID string) (Signature, bool, error)
	ListByMatch(ctx context.Context, matchID string) ([]Signature, error)
	Put(ctx context.Context, item Signature) error
}
