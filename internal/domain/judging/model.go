package judging

import (
	"errors"
	"fmt"
	"time"
)

type Criterion string

const (
	CriterionFunctionality    Criterion = "functionality"
	CriterionInnovation       Criterion = "innovation"
	CriterionPresentation     Criterion = "presentation"
	CriterionProblemRelevance Criterion = "problem_relevance"
	CriterionFeasibility      Criterion = "feasibility"
	CriterionCollaboration    Criterion = "collaboration"
)

// Criteria lists the six scored criteria in weight order.
var Criteria = []Criterion{
	CriterionFunctionality,
	CriterionInnovation,
	CriterionPresentation,
	CriterionProblemRelevance,
	CriterionFeasibility,
	CriterionCollaboration,
}

// Weights sum to 1. A judge total is the weighted sum scaled to 0-100.
var Weights = map[Criterion]float64{
	CriterionFunctionality:    0.25,
	CriterionInnovation:       0.25,
	CriterionPresentation:     0.15,
	CriterionProblemRelevance: 0.20,
	CriterionFeasibility:      0.10,
	CriterionCollaboration:    0.05,
}

const (
	CriterionMin = 0.0
	CriterionMax = 10.0
)

var (
	ErrCriterionOutOfRange = errors.New("criterion score out of range")
	ErrAlreadyLocked       = errors.New("judge score is locked")
)

// CriteriaScores holds all six criterion values. Every field is required;
// partial submissions are rejected at the request boundary.
type CriteriaScores struct {
	Functionality    float64
	Innovation       float64
	Presentation     float64
	ProblemRelevance float64
	Feasibility      float64
	Collaboration    float64
}

func (c CriteriaScores) Value(criterion Criterion) float64 {
	switch criterion {
	case CriterionFunctionality:
		return c.Functionality
	case CriterionInnovation:
		return c.Innovation
	case CriterionPresentation:
		return c.Presentation
	case CriterionProblemRelevance:
		return c.ProblemRelevance
	case CriterionFeasibility:
		return c.Feasibility
	case CriterionCollaboration:
		return c.Collaboration
	default:
		return 0
	}
}

// Validate range-checks every criterion and names the first offender.
func (c CriteriaScores) Validate() error {
	for _, criterion := range Criteria {
		v := c.Value(criterion)
		if v < CriterionMin || v > CriterionMax {
			return fmt.Errorf("%w: %s=%v", ErrCriterionOutOfRange, criterion, v)
		}
	}
	return nil
}

// Score is one judge's six-criterion evaluation of one team in one match.
// Once IsLocked is set the row is immutable.
type Score struct {
	MatchID     string
	TeamID      string
	JudgeID     string
	Criteria    CriteriaScores
	Comments    string
	IsLocked    bool
	SubmittedAt time.Time
	UpdatedAt   time.Time
	LockedAt    *time.Time
}
