package postgres

import (
	"time"
)

type lineupTableModel struct {
	MatchID      string    `db:"match_id"`
	TeamID       string    `db:"team_id"`
	Players      []byte    `db:"players"`
	Status       string    `db:"status"`
	RejectReason string    `db:"reject_reason"`
	SubmittedAt  time.Time `db:"submitted_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// lineupPlayerRecord is the JSONB shape of one roster entry. Kept separate
// from the domain type so column encoding never leaks into the domain.
type lineupPlayerRecord struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsCaptain bool   `json:"isCaptain"`
}
