package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/match"
)

type MatchRepository struct {
	mu    sync.RWMutex
	items map[string]match.Match
}

func NewMatchRepository(seed []match.Match) *MatchRepository {
	items := make(map[string]match.Match, len(seed))
	for _, item := range seed {
		items[item.ID] = cloneMatch(item)
	}
	return &MatchRepository{items: items}
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return cloneMatch(item), true, nil
}

func (r *MatchRepository) ListByStatus(_ context.Context, status match.Status) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		if item.Status == status {
			out = append(out, cloneMatch(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MatchRepository) Create(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("match %s already exists", item.ID)
	}
	r.items[item.ID] = cloneMatch(item)
	return nil
}

func (r *MatchRepository) Update(_ context.Context, item match.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return fmt.Errorf("match %s does not exist", item.ID)
	}
	r.items[item.ID] = cloneMatch(item)
	return nil
}

func cloneMatch(item match.Match) match.Match {
	copied := item
	copied.Judges = append([]match.JudgeAssignment(nil), item.Judges...)
	copied.EndConfirmedBy = append([]string(nil), item.EndConfirmedBy...)
	if item.Timer != nil {
		copied.Timer = item.Timer.Clone()
	}
	return copied
}
