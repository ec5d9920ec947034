package usecase

import (
	"context"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/eventbus"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
)

const defaultTickInterval = time.Second

// TimerBroadcaster pushes periodic timer snapshots for every running match
// so scoreboards stay current without polling.
type TimerBroadcaster struct {
	matchRepo match.Repository
	bus       eventbus.Publisher
	logger    *logging.Logger
	interval  time.Duration
	now       func() time.Time
}

func NewTimerBroadcaster(matchRepo match.Repository, bus eventbus.Publisher, logger *logging.Logger, interval time.Duration) *TimerBroadcaster {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &TimerBroadcaster{
		matchRepo: matchRepo,
		bus:       bus,
		logger:    logger,
		interval:  interval,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled.
func (b *TimerBroadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.broadcast(ctx)
		}
	}
}

func (b *TimerBroadcaster) broadcast(ctx context.Context) {
	running, err := b.matchRepo.ListByStatus(ctx, match.StatusInProgress)
	if err != nil {
		b.logger.WarnContext(ctx, "list running matches for tick failed", "error", err)
		return
	}

	now := b.now().UTC()
	var wg conc.WaitGroup
	for _, m := range running {
		m := m
		if m.Timer == nil {
			continue
		}
		wg.Go(func() {
			err := b.bus.Publish(ctx, eventbus.TopicTimerTick, eventbus.TimerTick{
				MatchID:        m.ID,
				ElapsedSeconds: m.Timer.CurrentElapsed(now).Seconds(),
				Half:           m.Timer.Half(now),
				IsRunning:      m.Timer.IsRunning,
			})
			if err != nil {
				b.logger.WarnContext(ctx, "publish timer tick failed", "match_id", m.ID, "error", err)
			}
		})
	}
	wg.Wait()
}
