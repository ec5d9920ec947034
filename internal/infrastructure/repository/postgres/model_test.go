package postgres

import (
	"testing"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/gametimer"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
)

func TestMatchRowRoundTrip(t *testing.T) {
	startedAt := time.Date(2026, 9, 12, 9, 5, 0, 0, time.UTC)
	item := match.Match{
		ID:          "match-1",
		HomeTeamID:  "team-a",
		AwayTeamID:  "team-b",
		ArenaID:     "arena-1",
		ScheduledAt: time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC),
		Status:      match.StatusInProgress,
		Timer: &gametimer.Timer{
			MatchID:       "match-1",
			IsRunning:     true,
			Elapsed:       3 * time.Minute,
			StartedAt:     &startedAt,
			HalfDuration:  10 * time.Minute,
			TotalDuration: 20 * time.Minute,
			CurrentHalf:   1,
		},
		EndConfirmedBy: []string{"judge-ayu"},
	}

	row := matchToInsertModel(item)
	if row.TimerElapsedMs != (3 * time.Minute).Milliseconds() {
		t.Fatalf("unexpected elapsed ms: %d", row.TimerElapsedMs)
	}

	judges := []match.JudgeAssignment{{JudgeID: "judge-ayu", State: match.AssignmentAccepted, IsMain: true}}
	back := matchFromRow(row, judges)

	if back.Status != match.StatusInProgress {
		t.Fatalf("unexpected status: %s", back.Status)
	}
	if back.Timer == nil {
		t.Fatalf("expected timer to be rebuilt")
	}
	if back.Timer.Elapsed != 3*time.Minute {
		t.Fatalf("unexpected elapsed: %s", back.Timer.Elapsed)
	}
	if back.Timer.StartedAt == nil || !back.Timer.StartedAt.Equal(startedAt) {
		t.Fatalf("unexpected timer anchor: %v", back.Timer.StartedAt)
	}
	if back.Timer.CurrentHalf != 1 {
		t.Fatalf("unexpected half: %d", back.Timer.CurrentHalf)
	}
	if len(back.Judges) != 1 || back.Judges[0].JudgeID != "judge-ayu" {
		t.Fatalf("unexpected judges: %+v", back.Judges)
	}
	if len(back.EndConfirmedBy) != 1 || back.EndConfirmedBy[0] != "judge-ayu" {
		t.Fatalf("unexpected end confirmations: %v", back.EndConfirmedBy)
	}
}

func TestMatchRowWithoutTimer(t *testing.T) {
	row := matchToInsertModel(match.Match{ID: "match-2", Status: match.StatusScheduled})
	if row.TimerTotalMs != 0 {
		t.Fatalf("expected zero timer total, got %d", row.TimerTotalMs)
	}

	back := matchFromRow(row, nil)
	if back.Timer != nil {
		t.Fatalf("expected no timer, got %+v", back.Timer)
	}
}

func TestLineupRowRoundTrip(t *testing.T) {
	item := lineup.Lineup{
		MatchID: "match-1",
		TeamID:  "team-a",
		Players: []lineup.Player{
			{PlayerID: "p-1", Name: "Sari", Role: lineup.RoleDeveloper, IsCaptain: true},
			{PlayerID: "p-2", Name: "Bima", Role: lineup.RoleDesigner},
			{PlayerID: "p-3", Name: "Tono", Role: lineup.RolePresenter},
		},
		Status:      lineup.StatusSubmitted,
		SubmittedAt: time.Date(2026, 9, 11, 15, 0, 0, 0, time.UTC),
	}

	encoded, err := encodeLineupPlayers(item.Players)
	if err != nil {
		t.Fatalf("encode players: %v", err)
	}

	back, err := lineupFromRow(lineupTableModel{
		MatchID:     item.MatchID,
		TeamID:      item.TeamID,
		Players:     encoded,
		Status:      string(item.Status),
		SubmittedAt: item.SubmittedAt,
	})
	if err != nil {
		t.Fatalf("decode lineup row: %v", err)
	}

	if len(back.Players) != 3 {
		t.Fatalf("unexpected player count: %d", len(back.Players))
	}
	if back.Players[0].Role != lineup.RoleDeveloper || !back.Players[0].IsCaptain {
		t.Fatalf("unexpected first player: %+v", back.Players[0])
	}
	if back.CaptainID() != "p-1" {
		t.Fatalf("unexpected captain: %s", back.CaptainID())
	}
}

func TestLineupRowDecodeRejectsGarbage(t *testing.T) {
	_, err := lineupFromRow(lineupTableModel{
		MatchID: "match-1",
		TeamID:  "team-a",
		Players: []byte("{not json"),
	})
	if err == nil {
		t.Fatalf("expected decode error for malformed players column")
	}
}
