package match

import (
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/gametimer"
)

// Status is the single authority on where a match sits in its lifecycle.
// Timer fields are data, never an alternate source of state.
type Status string

const (
	StatusScheduled      Status = "scheduled"
	StatusLineupsPending Status = "lineups_pending"
	StatusReady          Status = "ready"
	StatusInProgress     Status = "in_progress"
	StatusHalftime       Status = "halftime"
	StatusEnded          Status = "ended"
	StatusFinalized      Status = "finalized"
	StatusCancelled      Status = "cancelled"
)

var statusOrder = map[Status]int{
	StatusScheduled:      0,
	StatusLineupsPending: 1,
	StatusReady:          2,
	StatusInProgress:     3,
	StatusHalftime:       3,
	StatusEnded:          4,
	StatusFinalized:      5,
}

func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusCancelled
}

// CanTransitionTo reports whether moving to next respects the monotonic
// ordering of the lifecycle. Cancellation is reachable from any non-terminal
// state; in_progress and halftime may flip back and forth.
func (s Status) CanTransitionTo(next Status) bool {
	if s.Terminal() {
		return false
	}
	if next == StatusCancelled {
		return true
	}
	from, ok := statusOrder[s]
	if !ok {
		return false
	}
	to, ok := statusOrder[next]
	if !ok {
		return false
	}
	if (s == StatusInProgress && next == StatusHalftime) || (s == StatusHalftime && next == StatusInProgress) {
		return true
	}
	return to > from
}

type AssignmentState string

const (
	AssignmentPending  AssignmentState = "pending"
	AssignmentAccepted AssignmentState = "accepted"
)

// JudgeAssignment tracks one judge's relationship to a match. Declined
// assignments are removed from the set rather than kept in a dead state.
type JudgeAssignment struct {
	JudgeID string
	State   AssignmentState
	IsMain  bool
}

type Match struct {
	ID             string
	HomeTeamID     string
	AwayTeamID     string
	ArenaID        string
	ScheduledAt    time.Time
	Status         Status
	Judges         []JudgeAssignment
	Timer          *gametimer.Timer
	EndComments    string
	EndConfirmedBy []string
	CancelReason   string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m Match) HasTeam(teamID string) bool {
	return teamID != "" && (teamID == m.HomeTeamID || teamID == m.AwayTeamID)
}

func (m Match) TeamIDs() []string {
	return []string{m.HomeTeamID, m.AwayTeamID}
}

// Assignment returns the index of the judge's assignment, or -1.
func (m Match) Assignment(judgeID string) int {
	for i, a := range m.Judges {
		if a.JudgeID == judgeID {
			return i
		}
	}
	return -1
}

func (m Match) IsAcceptedJudge(judgeID string) bool {
	i := m.Assignment(judgeID)
	return i >= 0 && m.Judges[i].State == AssignmentAccepted
}

func (m Match) AcceptedJudgeIDs() []string {
	out := make([]string, 0, len(m.Judges))
	for _, a := range m.Judges {
		if a.State == AssignmentAccepted {
			out = append(out, a.JudgeID)
		}
	}
	return out
}

func (m Match) MainJudgeID() string {
	for _, a := range m.Judges {
		if a.IsMain {
			return a.JudgeID
		}
	}
	return ""
}
