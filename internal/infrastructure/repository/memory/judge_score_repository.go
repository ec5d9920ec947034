package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/judging"
)

type JudgeScoreRepository struct {
	mu    sync.RWMutex
	items map[string]judging.Score
}

func NewJudgeScoreRepository() *JudgeScoreRepository {
	return &JudgeScoreRepository{items: make(map[string]judging.Score)}
}

func (r *JudgeScoreRepository) Get(_ context.Context, matchID, teamID, judgeID string) (judging.Score, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[scoreKey(matchID, teamID, judgeID)]
	if !ok {
		return judging.Score{}, false, nil
	}
	return cloneScore(item), true, nil
}

func (r *JudgeScoreRepository) ListByMatchAndTeam(_ context.Context, matchID, teamID string) ([]judging.Score, error) {
	return r.list(matchID + "::" + teamID + "::")
}

func (r *JudgeScoreRepository) ListByMatch(_ context.Context, matchID string) ([]judging.Score, error) {
	return r.list(matchID + "::")
}

func (r *JudgeScoreRepository) list(prefix string) ([]judging.Score, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]judging.Score, 0, len(r.items))
	for key, item := range r.items {
		if strings.HasPrefix(key, prefix) {
			out = append(out, cloneScore(item))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamID != out[j].TeamID {
			return out[i].TeamID < out[j].TeamID
		}
		return out[i].JudgeID < out[j].JudgeID
	})
	return out, nil
}

func (r *JudgeScoreRepository) Upsert(_ context.Context, item judging.Score) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[scoreKey(item.MatchID, item.TeamID, item.JudgeID)] = cloneScore(item)
	return nil
}

func scoreKey(matchID, teamID, judgeID string) string {
	return matchID + "::" + teamID + "::" + judgeID
}

func cloneScore(item judging.Score) judging.Score {
	copied := item
	if item.LockedAt != nil {
		at := *item.LockedAt
		copied.LockedAt = &at
	}
	return copied
}
