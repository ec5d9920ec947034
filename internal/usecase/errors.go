package usecase

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failed operation wraps exactly one of these so
// transport layers can map to a status without string matching.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidState = errors.New("operation not valid in current match state")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict with immutable state")
	ErrPrecondition = errors.New("precondition not satisfied")
	ErrNotFound     = errors.New("resource not found")

	ErrDependencyUnavailable = errors.New("dependency unavailable")
)

// Named predicates. Each is pre-wrapped under its taxonomy sentinel so
// callers can test either level with errors.Is.
var (
	ErrNotAssigned               = fmt.Errorf("%w: judge is not assigned to this match", ErrForbidden)
	ErrNoJudgeAccepted           = fmt.Errorf("%w: no judge has accepted the assignment", ErrPrecondition)
	ErrLineupsNotApproved        = fmt.Errorf("%w: not every lineup is approved", ErrPrecondition)
	ErrInsufficientConfirmations = fmt.Errorf("%w: ending needs confirmation from at least two judges", ErrPrecondition)
	ErrScoresNotLocked           = fmt.Errorf("%w: not every judge score is locked", ErrPrecondition)
	ErrMissingSignature          = fmt.Errorf("%w: an accepted judge has not signed", ErrPrecondition)
	ErrAlreadyLocked             = fmt.Errorf("%w: judge score is already locked", ErrConflict)
	ErrAlreadySigned             = fmt.Errorf("%w: judge has already signed", ErrConflict)
	ErrMatchFinalized            = fmt.Errorf("%w: match is finalized and immutable", ErrConflict)
)
