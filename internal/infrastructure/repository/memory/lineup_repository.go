package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
)

type LineupRepository struct {
	mu    sync.RWMutex
	items map[string]lineup.Lineup
}

func NewLineupRepository() *LineupRepository {
	return &LineupRepository{items: make(map[string]lineup.Lineup)}
}

func (r *LineupRepository) GetByMatchAndTeam(_ context.Context, matchID, teamID string) (lineup.Lineup, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[lineupKey(matchID, teamID)]
	if !ok {
		return lineup.Lineup{}, false, nil
	}
	return cloneLineup(item), true, nil
}

func (r *LineupRepository) ListByMatch(_ context.Context, matchID string) ([]lineup.Lineup, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]lineup.Lineup, 0, 2)
	for key, item := range r.items {
		if strings.HasPrefix(key, matchID+"::") {
			out = append(out, cloneLineup(item))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out, nil
}

func (r *LineupRepository) Upsert(_ context.Context, item lineup.Lineup) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[lineupKey(item.MatchID, item.TeamID)] = cloneLineup(item)
	return nil
}

func lineupKey(matchID, teamID string) string {
	return matchID + "::" + teamID
}

func cloneLineup(item lineup.Lineup) lineup.Lineup {
	copied := item
	copied.Players = append([]lineup.Player(nil), item.Players...)
	return copied
}
