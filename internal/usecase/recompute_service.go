package usecase

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
)

const (
	recomputeStatusUpdated   = "updated"
	recomputeStatusUnchanged = "unchanged"
	recomputeStatusSkipped   = "skipped"
	recomputeStatusFailed    = "failed"

	defaultRecomputeWorkers = 4
)

type RecomputeInput struct {
	// MatchIDs defaults to every finalized match when empty.
	MatchIDs   []string
	MaxWorkers int
	// DryRun computes and compares without writing corrected results.
	DryRun bool
}

type RecomputeResult struct {
	TaskCount      int                   `json:"task_count"`
	UpdatedCount   int                   `json:"updated_count"`
	UnchangedCount int                   `json:"unchanged_count"`
	SkippedCount   int                   `json:"skipped_count"`
	FailedCount    int                   `json:"failed_count"`
	WorkerCount    int                   `json:"worker_count"`
	Tasks          []RecomputeTaskResult `json:"tasks"`
}

type RecomputeTaskResult struct {
	MatchID    string `json:"match_id"`
	Status     string `json:"status"`
	DurationMs int64  `json:"duration_ms"`
	Message    string `json:"message,omitempty"`
}

// RecomputeService re-derives final results from the locked score rows.
// Admins run it after a rule correction or a data fix; the stored result is
// only rewritten when the recomputed numbers differ.
type RecomputeService struct {
	matchRepo      match.Repository
	resultRepo     result.Repository
	scorer         *ScoringService
	logger         *logging.Logger
	defaultWorkers int
}

// SetDefaultWorkers overrides the pool size used when a run does not name
// one. Non-positive values are ignored.
func (s *RecomputeService) SetDefaultWorkers(n int) {
	if n > 0 {
		s.defaultWorkers = n
	}
}

func NewRecomputeService(
	matchRepo match.Repository,
	resultRepo result.Repository,
	scorer *ScoringService,
	logger *logging.Logger,
) *RecomputeService {
	if logger == nil {
		logger = logging.Default()
	}
	return &RecomputeService{
		matchRepo:      matchRepo,
		resultRepo:     resultRepo,
		scorer:         scorer,
		logger:         logger,
		defaultWorkers: defaultRecomputeWorkers,
	}
}

func (s *RecomputeService) Recompute(ctx context.Context, input RecomputeInput) (RecomputeResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecomputeService.Recompute")
	defer span.End()

	matchIDs, err := s.resolveTargets(ctx, input.MatchIDs)
	if err != nil {
		return RecomputeResult{}, err
	}

	workerCount := input.MaxWorkers
	if workerCount <= 0 {
		workerCount = s.defaultWorkers
	}
	if workerCount > len(matchIDs) && len(matchIDs) > 0 {
		workerCount = len(matchIDs)
	}

	out := RecomputeResult{
		TaskCount:   len(matchIDs),
		WorkerCount: workerCount,
	}
	if len(matchIDs) == 0 {
		return out, nil
	}

	results := make(chan RecomputeTaskResult, len(matchIDs))

	var updatedCount atomic.Int32
	var unchangedCount atomic.Int32
	var skippedCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, matchID := range matchIDs {
		matchID := matchID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			status, message := s.recomputeOne(ctx, matchID, input.DryRun)
			row := RecomputeTaskResult{
				MatchID:    matchID,
				Status:     status,
				Message:    message,
				DurationMs: time.Since(start).Milliseconds(),
			}

			switch status {
			case recomputeStatusUpdated:
				updatedCount.Add(1)
			case recomputeStatusUnchanged:
				unchangedCount.Add(1)
			case recomputeStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return RecomputeResult{}, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		out.Tasks = append(out.Tasks, row)
	}
	sort.SliceStable(out.Tasks, func(i, j int) bool {
		return out.Tasks[i].MatchID < out.Tasks[j].MatchID
	})

	out.UpdatedCount = int(updatedCount.Load())
	out.UnchangedCount = int(unchangedCount.Load())
	out.SkippedCount = int(skippedCount.Load())
	out.FailedCount = int(failedCount.Load())
	return out, nil
}

func (s *RecomputeService) resolveTargets(ctx context.Context, requested []string) ([]string, error) {
	if len(requested) > 0 {
		out := make([]string, 0, len(requested))
		seen := make(map[string]struct{}, len(requested))
		for _, id := range requested {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
		if len(out) == 0 {
			return nil, fmt.Errorf("%w: no valid match ids", ErrInvalidInput)
		}
		return out, nil
	}

	finalized, err := s.matchRepo.ListByStatus(ctx, match.StatusFinalized)
	if err != nil {
		return nil, fmt.Errorf("list finalized matches: %w", err)
	}
	out := make([]string, 0, len(finalized))
	for _, m := range finalized {
		out = append(out, m.ID)
	}
	return out, nil
}

func (s *RecomputeService) recomputeOne(ctx context.Context, matchID string, dryRun bool) (string, string) {
	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return recomputeStatusFailed, err.Error()
	}
	if !exists {
		return recomputeStatusFailed, "match not found"
	}
	if m.Status != match.StatusFinalized {
		return recomputeStatusSkipped, fmt.Sprintf("match is %s, only finalized matches are recomputed", m.Status)
	}

	stored, exists, err := s.resultRepo.GetByMatch(ctx, matchID)
	if err != nil {
		return recomputeStatusFailed, err.Error()
	}
	if !exists {
		return recomputeStatusFailed, "finalized match has no stored result"
	}

	fresh, err := s.scorer.BuildFinalResult(ctx, m)
	if err != nil {
		return recomputeStatusFailed, err.Error()
	}
	// The original finalization moment is part of the record.
	fresh.FinalizedAt = stored.FinalizedAt

	if sameResult(stored, fresh) {
		return recomputeStatusUnchanged, ""
	}
	if dryRun {
		return recomputeStatusUpdated, "dry run, correction not written"
	}
	if err := s.resultRepo.Upsert(ctx, fresh); err != nil {
		return recomputeStatusFailed, err.Error()
	}
	s.logger.InfoContext(ctx, "final result corrected by recompute",
		"match_id", matchID,
		"winner_team_id", fresh.WinnerTeamID,
	)
	return recomputeStatusUpdated, ""
}

func sameResult(a, b result.FinalResult) bool {
	return a.WinnerTeamID == b.WinnerTeamID &&
		a.TieBreakReason == b.TieBreakReason &&
		sameTeamResult(a.Home, b.Home) &&
		sameTeamResult(a.Away, b.Away)
}

func sameTeamResult(a, b result.TeamResult) bool {
	const eps = 1e-9
	return a.TeamID == b.TeamID &&
		math.Abs(a.AIScore-b.AIScore) < eps &&
		math.Abs(a.HumanScore-b.HumanScore) < eps &&
		math.Abs(a.FinalScore-b.FinalScore) < eps
}
