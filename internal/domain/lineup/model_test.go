package lineup

import (
	"errors"
	"testing"
)

func validRoster() []Player {
	return []Player{
		{PlayerID: "p-01", Name: "Sari", Role: RoleDeveloper, IsCaptain: true},
		{PlayerID: "p-02", Name: "Bima", Role: RoleDesigner},
		{PlayerID: "p-03", Name: "Tika", Role: RolePresenter},
	}
}

func TestValidate_ValidRoster(t *testing.T) {
	errs := Validate(Lineup{Players: validRoster()})
	if len(errs) != 0 {
		t.Fatalf("expected no violations, got %v", errs)
	}
}

func TestValidate_EmptyRosterShortCircuits(t *testing.T) {
	errs := Validate(Lineup{})
	if len(errs) != 1 || !errors.Is(errs[0], ErrEmptyLineup) {
		t.Fatalf("expected only ErrEmptyLineup, got %v", errs)
	}
}

func TestValidate_CollectsEveryViolation(t *testing.T) {
	// Two players, no captain, duplicate id, no recognized role.
	errs := Validate(Lineup{Players: []Player{
		{PlayerID: "p-01", Role: "coach"},
		{PlayerID: "p-01", Role: "mascot"},
	}})

	for _, want := range []error{ErrTooFewPlayers, ErrDuplicatePlayer, ErrNoCaptain, ErrNoRecognizedRole} {
		found := false
		for _, got := range errs {
			if errors.Is(got, want) {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing %v in %v", want, errs)
		}
	}
}

func TestValidate_MultipleCaptains(t *testing.T) {
	roster := validRoster()
	roster[1].IsCaptain = true
	errs := Validate(Lineup{Players: roster})
	if len(errs) != 1 || !errors.Is(errs[0], ErrMultipleCaptains) {
		t.Fatalf("expected only ErrMultipleCaptains, got %v", errs)
	}
}

func TestValidate_EmptyPlayerID(t *testing.T) {
	roster := validRoster()
	roster[2].PlayerID = ""
	errs := Validate(Lineup{Players: roster})
	if len(errs) != 1 || !errors.Is(errs[0], ErrEmptyPlayerID) {
		t.Fatalf("expected only ErrEmptyPlayerID, got %v", errs)
	}
}

func TestCaptainID(t *testing.T) {
	l := Lineup{Players: validRoster()}
	if got := l.CaptainID(); got != "p-01" {
		t.Fatalf("expected p-01, got %s", got)
	}
	if got := (Lineup{}).CaptainID(); got != "" {
		t.Fatalf("expected empty captain, got %s", got)
	}
}
