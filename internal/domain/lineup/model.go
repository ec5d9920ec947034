package lineup

import (
	"errors"
	"fmt"
	"time"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

type Role string

const (
	RoleDeveloper  Role = "developer"
	RoleDesigner   Role = "designer"
	RolePresenter  Role = "presenter"
	RoleResearcher Role = "researcher"
)

var recognizedRoles = map[Role]struct{}{
	RoleDeveloper:  {},
	RoleDesigner:   {},
	RolePresenter:  {},
	RoleResearcher: {},
}

const MinPlayers = 3

var (
	ErrEmptyLineup      = errors.New("lineup has no players")
	ErrTooFewPlayers    = errors.New("lineup needs at least 3 players")
	ErrNoCaptain        = errors.New("no captain")
	ErrMultipleCaptains = errors.New("more than one captain")
	ErrDuplicatePlayer  = errors.New("duplicate player id")
	ErrNoRecognizedRole = errors.New("no recognized role present")
	ErrEmptyPlayerID    = errors.New("player id cannot be empty")
)

type Player struct {
	PlayerID  string
	Name      string
	Role      Role
	IsCaptain bool
}

// Lineup is the roster one team submits for one match.
type Lineup struct {
	MatchID      string
	TeamID       string
	Players      []Player
	Status       Status
	RejectReason string
	SubmittedAt  time.Time
	UpdatedAt    time.Time
}

// Validate returns every rule the roster breaks. An empty slice means the
// lineup is approvable.
func Validate(l Lineup) []error {
	var errs []error
	if len(l.Players) == 0 {
		return []error{ErrEmptyLineup}
	}
	if len(l.Players) < MinPlayers {
		errs = append(errs, ErrTooFewPlayers)
	}

	captains := 0
	recognized := false
	seen := make(map[string]struct{}, len(l.Players))
	for _, p := range l.Players {
		if p.PlayerID == "" {
			errs = append(errs, ErrEmptyPlayerID)
			continue
		}
		if _, dup := seen[p.PlayerID]; dup {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicatePlayer, p.PlayerID))
		}
		seen[p.PlayerID] = struct{}{}
		if p.IsCaptain {
			captains++
		}
		if _, ok := recognizedRoles[p.Role]; ok {
			recognized = true
		}
	}

	if captains == 0 {
		errs = append(errs, ErrNoCaptain)
	}
	if captains > 1 {
		errs = append(errs, ErrMultipleCaptains)
	}
	if !recognized {
		errs = append(errs, ErrNoRecognizedRole)
	}

	return errs
}

func (l Lineup) CaptainID() string {
	for _, p := range l.Players {
		if p.IsCaptain {
			return p.PlayerID
		}
	}
	return ""
}
