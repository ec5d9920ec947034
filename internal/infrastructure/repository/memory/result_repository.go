package memory

import (
	"context"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/result"
)

type ResultRepository struct {
	mu    sync.RWMutex
	items map[string]result.FinalResult
}

func NewResultRepository() *ResultRepository {
	return &ResultRepository{items: make(map[string]result.FinalResult)}
}

func (r *ResultRepository) GetByMatch(_ context.Context, matchID string) (result.FinalResult, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	if !ok {
		return result.FinalResult{}, false, nil
	}
	return item, true, nil
}

func (r *ResultRepository) Upsert(_ context.Context, item result.FinalResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[item.MatchID] = item
	return nil
}
