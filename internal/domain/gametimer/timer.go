package gametimer

import (
	"errors"
	"time"
)

var (
	ErrAlreadyRunning = errors.New("timer is already running")
	ErrNotRunning     = errors.New("timer is not running")
)

// Timer tracks elapsed wall-clock time for a match split into two halves.
// Elapsed only accumulates prior running segments; while running the current
// segment is anchored at StartedAt and folded in on read. Callers pass now
// explicitly so the engine stays deterministic under test.
type Timer struct {
	MatchID       string
	IsRunning     bool
	Elapsed       time.Duration
	StartedAt     *time.Time
	HalfDuration  time.Duration
	TotalDuration time.Duration
	CurrentHalf   int
}

func Start(matchID string, total time.Duration, now time.Time) *Timer {
	anchor := now
	return &Timer{
		MatchID:       matchID,
		IsRunning:     true,
		StartedAt:     &anchor,
		HalfDuration:  total / 2,
		TotalDuration: total,
		CurrentHalf:   1,
	}
}

func (t *Timer) Pause(now time.Time) error {
	if !t.IsRunning {
		return ErrNotRunning
	}
	if t.StartedAt != nil {
		t.Elapsed += now.Sub(*t.StartedAt)
	}
	t.StartedAt = nil
	t.IsRunning = false
	t.syncHalf()
	return nil
}

func (t *Timer) Resume(now time.Time) error {
	if t.IsRunning {
		return ErrAlreadyRunning
	}
	anchor := now
	t.StartedAt = &anchor
	t.IsRunning = true
	return nil
}

// CurrentElapsed is the read every display and half-detection path uses.
func (t *Timer) CurrentElapsed(now time.Time) time.Duration {
	if t == nil {
		return 0
	}
	elapsed := t.Elapsed
	if t.IsRunning && t.StartedAt != nil {
		elapsed += now.Sub(*t.StartedAt)
	}
	return elapsed
}

// Half reports the displayed half for the given instant. Advisory only; it
// never gates a lifecycle transition.
func (t *Timer) Half(now time.Time) int {
	if t == nil {
		return 0
	}
	if t.HalfDuration > 0 && t.CurrentElapsed(now) >= t.HalfDuration {
		return 2
	}
	if t.CurrentHalf > 1 {
		return t.CurrentHalf
	}
	return 1
}

// AtHalfBoundary reports whether the first half has fully elapsed while the
// stored half is still 1.
func (t *Timer) AtHalfBoundary(now time.Time) bool {
	return t != nil && t.CurrentHalf == 1 && t.HalfDuration > 0 && t.CurrentElapsed(now) >= t.HalfDuration
}

func (t *Timer) syncHalf() {
	if t.CurrentHalf == 1 && t.HalfDuration > 0 && t.Elapsed >= t.HalfDuration {
		t.CurrentHalf = 2
	}
}

func (t *Timer) Clone() *Timer {
	if t == nil {
		return nil
	}
	copied := *t
	if t.StartedAt != nil {
		anchor := *t.StartedAt
		copied.StartedAt = &anchor
	}
	return &copied
}
