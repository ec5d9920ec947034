package postgres

import (
	"time"

	"github.com/lib/pq"
)

type matchTableModel struct {
	ID             string         `db:"id"`
	HomeTeamID     string         `db:"home_team_id"`
	AwayTeamID     string         `db:"away_team_id"`
	ArenaID        string         `db:"arena_id"`
	ScheduledAt    time.Time      `db:"scheduled_at"`
	Status         string         `db:"status"`
	EndComments    string         `db:"end_comments"`
	EndConfirmedBy pq.StringArray `db:"end_confirmed_by"`
	CancelReason   string         `db:"cancel_reason"`
	TimerRunning   bool           `db:"timer_running"`
	TimerElapsedMs int64          `db:"timer_elapsed_ms"`
	TimerStartedAt *time.Time     `db:"timer_started_at"`
	TimerHalfMs    int64          `db:"timer_half_ms"`
	TimerTotalMs   int64          `db:"timer_total_ms"`
	TimerHalf      int            `db:"timer_half"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

type matchJudgeTableModel struct {
	MatchID  string `db:"match_id"`
	JudgeID  string `db:"judge_id"`
	State    string `db:"state"`
	IsMain   bool   `db:"is_main"`
	Position int    `db:"position"`
}
