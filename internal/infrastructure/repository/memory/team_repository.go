package memory

import (
	"context"
	"sync"

	"github.com/lael-77/NDL-sub001/internal/domain/team"
)

type TeamRepository struct {
	mu    sync.RWMutex
	items map[string]team.Team
}

func NewTeamRepository(seed []team.Team) *TeamRepository {
	items := make(map[string]team.Team, len(seed))
	for _, item := range seed {
		items[item.ID] = item
	}
	return &TeamRepository{items: items}
}

func (r *TeamRepository) GetByID(_ context.Context, teamID string) (team.Team, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[teamID]
	if !ok {
		return team.Team{}, false, nil
	}
	return item, true, nil
}
