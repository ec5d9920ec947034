package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
)

type AutoScoreRepository struct {
	mu    sync.RWMutex
	items map[string]autoscore.AutoScore
}

func NewAutoScoreRepository() *AutoScoreRepository {
	return &AutoScoreRepository{items: make(map[string]autoscore.AutoScore)}
}

func (r *AutoScoreRepository) Get(_ context.Context, matchID, teamID string) (autoscore.AutoScore, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[autoScoreKey(matchID, teamID)]
	if !ok {
		return autoscore.AutoScore{}, false, nil
	}
	return item, true, nil
}

func (r *AutoScoreRepository) Put(_ context.Context, item autoscore.AutoScore) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := autoScoreKey(item.MatchID, item.TeamID)
	if _, exists := r.items[key]; exists {
		return fmt.Errorf("%w: match=%s team=%s", autoscore.ErrAlreadyReceived, item.MatchID, item.TeamID)
	}
	r.items[key] = item
	return nil
}

func autoScoreKey(matchID, teamID string) string {
	return matchID + "::" + teamID
}
