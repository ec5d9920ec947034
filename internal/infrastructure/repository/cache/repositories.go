// Package cache wraps repositories with a read-through in-process cache.
// Writes pass straight through and drop the affected keys so readers never
// see a stale row after their own write.
package cache

import (
	"context"

	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/domain/signature"
	"github.com/lael-77/NDL-sub001/internal/domain/team"
	basecache "github.com/lael-77/NDL-sub001/internal/platform/cache"
)

type MatchRepository struct {
	next  match.Repository
	cache *basecache.Store
}

func NewMatchRepository(next match.Repository, cache *basecache.Store) *MatchRepository {
	return &MatchRepository{next: next, cache: cache}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	key := matchByIDKey(matchID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return cachedMatchByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return match.Match{}, false, err
	}

	cached, _ := v.(cachedMatchByID)
	return cached.value, cached.exists, nil
}

func (r *MatchRepository) ListByStatus(ctx context.Context, status match.Status) ([]match.Match, error) {
	key := "match:list:status:" + string(status)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByStatus(ctx, status)
		if err != nil {
			return nil, err
		}
		return append([]match.Match(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]match.Match)
	return append([]match.Match(nil), items...), nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, item match.Match) error {
	if err := r.next.Update(ctx, item); err != nil {
		return err
	}
	r.invalidate(ctx, item.ID)
	return nil
}

func (r *MatchRepository) invalidate(ctx context.Context, matchID string) {
	r.cache.Delete(ctx, matchByIDKey(matchID))
	r.cache.DeletePrefix(ctx, "match:list:status:")
}

func matchByIDKey(matchID string) string {
	return "match:id:" + matchID
}

type cachedMatchByID struct {
	value  match.Match
	exists bool
}

type TeamRepository struct {
	next  team.Repository
	cache *basecache.Store
}

func NewTeamRepository(next team.Repository, cache *basecache.Store) *TeamRepository {
	return &TeamRepository{next: next, cache: cache}
}

func (r *TeamRepository) GetByID(ctx context.Context, teamID string) (team.Team, bool, error) {
	key := "team:id:" + teamID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByID(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return cachedTeamByID{value: item, exists: exists}, nil
	})
	if err != nil {
		return team.Team{}, false, err
	}

	cached, _ := v.(cachedTeamByID)
	return cached.value, cached.exists, nil
}

type cachedTeamByID struct {
	value  team.Team
	exists bool
}

type LineupRepository struct {
	next  lineup.Repository
	cache *basecache.Store
}

func NewLineupRepository(next lineup.Repository, cache *basecache.Store) *LineupRepository {
	return &LineupRepository{next: next, cache: cache}
}

func (r *LineupRepository) GetByMatchAndTeam(ctx context.Context, matchID, teamID string) (lineup.Lineup, bool, error) {
	key := lineupKey(matchID, teamID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByMatchAndTeam(ctx, matchID, teamID)
		if err != nil {
			return nil, err
		}
		return cachedLineup{value: item, exists: exists}, nil
	})
	if err != nil {
		return lineup.Lineup{}, false, err
	}

	cached, _ := v.(cachedLineup)
	return cached.value, cached.exists, nil
}

func (r *LineupRepository) ListByMatch(ctx context.Context, matchID string) ([]lineup.Lineup, error) {
	key := "lineup:list:match:" + matchID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return append([]lineup.Lineup(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]lineup.Lineup)
	return append([]lineup.Lineup(nil), items...), nil
}

func (r *LineupRepository) Upsert(ctx context.Context, item lineup.Lineup) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, lineupKey(item.MatchID, item.TeamID))
	r.cache.Delete(ctx, "lineup:list:match:"+item.MatchID)
	return nil
}

func lineupKey(matchID, teamID string) string {
	return "lineup:match:" + matchID + ":team:" + teamID
}

type cachedLineup struct {
	value  lineup.Lineup
	exists bool
}

type SignatureRepository struct {
	next  signature.Repository
	cache *basecache.Store
}

func NewSignatureRepository(next signature.Repository, cache *basecache.Store) *SignatureRepository {
	return &SignatureRepository{next: next, cache: cache}
}

func (r *SignatureRepository) Get(ctx context.Context, matchID, judgeID string) (signature.Signature, bool, error) {
	key := signatureKey(matchID, judgeID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.Get(ctx, matchID, judgeID)
		if err != nil {
			return nil, err
		}
		return cachedSignature{value: item, exists: exists}, nil
	})
	if err != nil {
		return signature.Signature{}, false, err
	}

	cached, _ := v.(cachedSignature)
	return cached.value, cached.exists, nil
}

func (r *SignatureRepository) ListByMatch(ctx context.Context, matchID string) ([]signature.Signature, error) {
	key := "signature:list:match:" + matchID
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return append([]signature.Signature(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]signature.Signature)
	return append([]signature.Signature(nil), items...), nil
}

func (r *SignatureRepository) Put(ctx context.Context, item signature.Signature) error {
	if err := r.next.Put(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, signatureKey(item.MatchID, item.JudgeID))
	r.cache.Delete(ctx, "signature:list:match:"+item.MatchID)
	return nil
}

func signatureKey(matchID, judgeID string) string {
	return "signature:match:" + matchID + ":judge:" + judgeID
}

type cachedSignature struct {
	value  signature.Signature
	exists bool
}

type ResultRepository struct {
	next  result.Repository
	cache *basecache.Store
}

func NewResultRepository(next result.Repository, cache *basecache.Store) *ResultRepository {
	return &ResultRepository{next: next, cache: cache}
}

func (r *ResultRepository) GetByMatch(ctx context.Context, matchID string) (result.FinalResult, bool, error) {
	key := resultKey(matchID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByMatch(ctx, matchID)
		if err != nil {
			return nil, err
		}
		return cachedResult{value: item, exists: exists}, nil
	})
	if err != nil {
		return result.FinalResult{}, false, err
	}

	cached, _ := v.(cachedResult)
	return cached.value, cached.exists, nil
}

func (r *ResultRepository) Upsert(ctx context.Context, item result.FinalResult) error {
	if err := r.next.Upsert(ctx, item); err != nil {
		return err
	}
	r.cache.Delete(ctx, resultKey(item.MatchID))
	return nil
}

func resultKey(matchID string) string {
	return "result:match:" + matchID
}

type cachedResult struct {
	value  result.FinalResult
	exists bool
}
