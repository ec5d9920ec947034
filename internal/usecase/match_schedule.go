package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/match"
)

type ScheduleJudgeInput struct {
	JudgeID string
	IsMain  bool
}

type ScheduleMatchInput struct {
	HomeTeamID  string
	AwayTeamID  string
	ArenaID     string
	ScheduledAt time.Time
	Judges      []ScheduleJudgeInput
}

// ScheduleMatch creates a new fixture in scheduled status with every judge
// assignment pending. The panel needs exactly one main judge; both teams
// must already exist in the league registry.
func (s *MatchService) ScheduleMatch(ctx context.Context, input ScheduleMatchInput) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ScheduleMatch")
	defer span.End()

	if input.HomeTeamID == "" || input.AwayTeamID == "" {
		return MatchView{}, fmt.Errorf("%w: both team ids are required", ErrInvalidInput)
	}
	if input.HomeTeamID == input.AwayTeamID {
		return MatchView{}, fmt.Errorf("%w: a team cannot play itself", ErrInvalidInput)
	}
	if input.ScheduledAt.IsZero() {
		return MatchView{}, fmt.Errorf("%w: scheduled time is required", ErrInvalidInput)
	}
	if len(input.Judges) == 0 {
		return MatchView{}, fmt.Errorf("%w: at least one judge is required", ErrInvalidInput)
	}

	mains := 0
	seen := make(map[string]struct{}, len(input.Judges))
	for _, j := range input.Judges {
		if j.JudgeID == "" {
			return MatchView{}, fmt.Errorf("%w: judge id cannot be empty", ErrInvalidInput)
		}
		if _, dup := seen[j.JudgeID]; dup {
			return MatchView{}, fmt.Errorf("%w: duplicate judge %s", ErrInvalidInput, j.JudgeID)
		}
		seen[j.JudgeID] = struct{}{}
		if j.IsMain {
			mains++
		}
	}
	if mains != 1 {
		return MatchView{}, fmt.Errorf("%w: panel needs exactly one main judge, got %d", ErrInvalidInput, mains)
	}

	for _, teamID := range []string{input.HomeTeamID, input.AwayTeamID} {
		_, exists, err := s.teamRepo.GetByID(ctx, teamID)
		if err != nil {
			return MatchView{}, fmt.Errorf("load team %s: %w", teamID, err)
		}
		if !exists {
			return MatchView{}, fmt.Errorf("%w: team=%s", ErrNotFound, teamID)
		}
	}

	id, err := s.ids.NewID()
	if err != nil {
		return MatchView{}, fmt.Errorf("generate match id: %w", err)
	}

	judges := make([]match.JudgeAssignment, 0, len(input.Judges))
	for _, j := range input.Judges {
		judges = append(judges, match.JudgeAssignment{
			JudgeID: j.JudgeID,
			State:   match.AssignmentPending,
			IsMain:  j.IsMain,
		})
	}

	now := s.now().UTC()
	m := match.Match{
		ID:          "match-" + id,
		HomeTeamID:  input.HomeTeamID,
		AwayTeamID:  input.AwayTeamID,
		ArenaID:     input.ArenaID,
		ScheduledAt: input.ScheduledAt.UTC(),
		Status:      match.StatusScheduled,
		Judges:      judges,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.matchRepo.Create(ctx, m); err != nil {
		return MatchView{}, fmt.Errorf("create match: %w", err)
	}

	s.logger.InfoContext(ctx, "match scheduled",
		"match_id", m.ID,
		"home_team_id", m.HomeTeamID,
		"away_team_id", m.AwayTeamID,
		"scheduled_at", m.ScheduledAt,
	)
	s.publishStatus(ctx, m)
	return s.viewOf(m), nil
}
