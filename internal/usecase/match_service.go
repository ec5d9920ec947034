package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/gametimer"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/domain/scoring"
	"github.com/lael-77/NDL-sub001/internal/domain/signature"
	"github.com/lael-77/NDL-sub001/internal/domain/team"
	"github.com/lael-77/NDL-sub001/internal/eventbus"
	idgen "github.com/lael-77/NDL-sub001/internal/platform/id"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
)

const defaultMatchDuration = 40 * time.Minute

// matchLocks serializes lifecycle transitions per match. Transitions need
// mutual exclusion, not deduplication: two concurrent startMatch calls must
// not both observe success.
type matchLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *matchLocks) acquire(matchID string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*sync.Mutex)
	}
	m, ok := l.locks[matchID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[matchID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// MatchService is the single mutation surface for a match aggregate. Every
// operation runs under the per-match lock, validates status against the
// lifecycle ordering, applies its effects fully or not at all, and emits a
// best-effort change event.
type MatchService struct {
	matchRepo       match.Repository
	lineupRepo      lineup.Repository
	scoreRepo       judging.Repository
	autoRepo        autoscore.Repository
	sigRepo         signature.Repository
	teamRepo        team.Repository
	scorer          *ScoringService
	bus             eventbus.Publisher
	logger          *logging.Logger
	now             func() time.Time
	locks           matchLocks
	defaultDuration time.Duration
	ids             idgen.Generator
}

// SetIDGenerator swaps the source of new match IDs. Tests use it for
// deterministic identifiers.
func (s *MatchService) SetIDGenerator(gen idgen.Generator) {
	if gen != nil {
		s.ids = gen
	}
}

// SetDefaultDuration overrides the regulation length used when a start
// request does not name one. Non-positive values are ignored.
func (s *MatchService) SetDefaultDuration(d time.Duration) {
	if d > 0 {
		s.defaultDuration = d
	}
}

func NewMatchService(
	matchRepo match.Repository,
	lineupRepo lineup.Repository,
	scoreRepo judging.Repository,
	autoRepo autoscore.Repository,
	sigRepo signature.Repository,
	teamRepo team.Repository,
	scorer *ScoringService,
	bus eventbus.Publisher,
	logger *logging.Logger,
) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchService{
		matchRepo:       matchRepo,
		lineupRepo:      lineupRepo,
		scoreRepo:       scoreRepo,
		autoRepo:        autoRepo,
		sigRepo:         sigRepo,
		teamRepo:        teamRepo,
		scorer:          scorer,
		bus:             bus,
		logger:          logger,
		now:             time.Now,
		defaultDuration: defaultMatchDuration,
		ids:             idgen.NewRandomGenerator(),
	}
}

// MatchView is the read model served to adjudication clients: the aggregate
// plus a timer snapshot taken at read time.
type MatchView struct {
	Match          match.Match
	ElapsedSeconds float64
	Half           int
}

func (s *MatchService) GetMatch(ctx context.Context, matchID string) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.GetMatch")
	defer span.End()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	return s.viewOf(m), nil
}

func (s *MatchService) viewOf(m match.Match) MatchView {
	view := MatchView{Match: m}
	if m.Timer != nil {
		now := s.now().UTC()
		view.ElapsedSeconds = m.Timer.CurrentElapsed(now).Seconds()
		view.Half = m.Timer.Half(now)
	}
	return view
}

func (s *MatchService) AcceptAssignment(ctx context.Context, matchID, judgeID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.AcceptAssignment")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return match.Match{}, err
	}
	if m.Status != match.StatusScheduled && m.Status != match.StatusLineupsPending {
		return match.Match{}, fmt.Errorf("%w: assignments close once the match is %s", ErrInvalidState, m.Status)
	}

	i := m.Assignment(judgeID)
	if i < 0 {
		return match.Match{}, fmt.Errorf("%w: judge=%s match=%s", ErrNotAssigned, judgeID, matchID)
	}
	if m.Judges[i].State != match.AssignmentPending {
		return match.Match{}, fmt.Errorf("%w: assignment for judge=%s is not pending", ErrInvalidState, judgeID)
	}

	m.Judges[i].State = match.AssignmentAccepted
	m.UpdatedAt = s.now().UTC()
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("update match after accept: %w", err)
	}
	return m, nil
}

func (s *MatchService) DeclineAssignment(ctx context.Context, matchID, judgeID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.DeclineAssignment")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return match.Match{}, err
	}
	if m.Status != match.StatusScheduled && m.Status != match.StatusLineupsPending {
		return match.Match{}, fmt.Errorf("%w: assignments close once the match is %s", ErrInvalidState, m.Status)
	}

	i := m.Assignment(judgeID)
	if i < 0 {
		return match.Match{}, fmt.Errorf("%w: judge=%s match=%s", ErrNotAssigned, judgeID, matchID)
	}
	if m.Judges[i].State != match.AssignmentPending {
		return match.Match{}, fmt.Errorf("%w: assignment for judge=%s is not pending", ErrInvalidState, judgeID)
	}

	m.Judges = append(m.Judges[:i], m.Judges[i+1:]...)
	m.UpdatedAt = s.now().UTC()
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("update match after decline: %w", err)
	}
	return m, nil
}

type SubmitLineupInput struct {
	MatchID string
	TeamID  string
	Players []lineup.Player
}

func (s *MatchService) SubmitLineup(ctx context.Context, input SubmitLineupInput) (lineup.Lineup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitLineup")
	defer span.End()

	input.MatchID = strings.TrimSpace(input.MatchID)
	input.TeamID = strings.TrimSpace(input.TeamID)
	if input.MatchID == "" || input.TeamID == "" {
		return lineup.Lineup{}, fmt.Errorf("%w: match_id and team_id are required", ErrInvalidInput)
	}
	if len(input.Players) == 0 {
		return lineup.Lineup{}, fmt.Errorf("%w: %v", ErrInvalidInput, lineup.ErrEmptyLineup)
	}

	unlock := s.locks.acquire(input.MatchID)
	defer unlock()

	m, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return lineup.Lineup{}, err
	}
	if m.Status != match.StatusScheduled && m.Status != match.StatusLineupsPending {
		return lineup.Lineup{}, fmt.Errorf("%w: lineups close once the match is %s", ErrInvalidState, m.Status)
	}
	if !m.HasTeam(input.TeamID) {
		return lineup.Lineup{}, fmt.Errorf("%w: team=%s is not part of match=%s", ErrInvalidInput, input.TeamID, input.MatchID)
	}

	existing, exists, err := s.lineupRepo.GetByMatchAndTeam(ctx, input.MatchID, input.TeamID)
	if err != nil {
		return lineup.Lineup{}, fmt.Errorf("get lineup before submit: %w", err)
	}
	if exists && existing.Status == lineup.StatusApproved {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup for team=%s is already approved", ErrInvalidState, input.TeamID)
	}

	now := s.now().UTC()
	item := lineup.Lineup{
		MatchID:     input.MatchID,
		TeamID:      input.TeamID,
		Players:     append([]lineup.Player(nil), input.Players...),
		Status:      lineup.StatusSubmitted,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if err := s.lineupRepo.Upsert(ctx, item); err != nil {
		return lineup.Lineup{}, fmt.Errorf("save lineup: %w", err)
	}

	if m.Status == match.StatusScheduled {
		if err := advance(&m, match.StatusLineupsPending); err != nil {
			return lineup.Lineup{}, err
		}
		m.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return lineup.Lineup{}, fmt.Errorf("advance match to lineups_pending: %w", err)
		}
		s.publishStatus(ctx, m)
	}

	return item, nil
}

func (s *MatchService) ApproveLineup(ctx context.Context, matchID, teamID, judgeID string) (lineup.Lineup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ApproveLineup")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return lineup.Lineup{}, err
	}
	if m.Status != match.StatusLineupsPending {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup approval requires lineups_pending, match is %s", ErrInvalidState, m.Status)
	}
	if err := s.requireAcceptedJudge(m, judgeID); err != nil {
		return lineup.Lineup{}, err
	}
	if !m.HasTeam(teamID) {
		return lineup.Lineup{}, fmt.Errorf("%w: team=%s is not part of match=%s", ErrInvalidInput, teamID, matchID)
	}

	item, exists, err := s.lineupRepo.GetByMatchAndTeam(ctx, matchID, teamID)
	if err != nil {
		return lineup.Lineup{}, fmt.Errorf("get lineup before approve: %w", err)
	}
	if !exists {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup for team=%s", ErrNotFound, teamID)
	}
	if item.Status != lineup.StatusSubmitted {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup is %s, only submitted lineups can be approved", ErrInvalidState, item.Status)
	}

	if issues := lineup.Validate(item); len(issues) > 0 {
		msgs := make([]string, 0, len(issues))
		for _, issue := range issues {
			msgs = append(msgs, issue.Error())
		}
		return lineup.Lineup{}, fmt.Errorf("%w: invalid lineup: %s", ErrInvalidInput, strings.Join(msgs, "; "))
	}

	now := s.now().UTC()
	item.Status = lineup.StatusApproved
	item.RejectReason = ""
	item.UpdatedAt = now
	if err := s.lineupRepo.Upsert(ctx, item); err != nil {
		return lineup.Lineup{}, fmt.Errorf("save approved lineup: %w", err)
	}

	approved, err := s.allLineupsApproved(ctx, m)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if approved {
		if err := advance(&m, match.StatusReady); err != nil {
			return lineup.Lineup{}, err
		}
		m.UpdatedAt = now
		if err := s.matchRepo.Update(ctx, m); err != nil {
			return lineup.Lineup{}, fmt.Errorf("advance match to ready: %w", err)
		}
		s.publishStatus(ctx, m)
	}

	return item, nil
}

func (s *MatchService) RejectLineup(ctx context.Context, matchID, teamID, judgeID, reason string) (lineup.Lineup, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RejectLineup")
	defer span.End()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return lineup.Lineup{}, fmt.Errorf("%w: rejection reason is required", ErrInvalidInput)
	}

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return lineup.Lineup{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return lineup.Lineup{}, err
	}
	if m.Status != match.StatusLineupsPending {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup rejection requires lineups_pending, match is %s", ErrInvalidState, m.Status)
	}
	if err := s.requireAcceptedJudge(m, judgeID); err != nil {
		return lineup.Lineup{}, err
	}

	item, exists, err := s.lineupRepo.GetByMatchAndTeam(ctx, matchID, teamID)
	if err != nil {
		return lineup.Lineup{}, fmt.Errorf("get lineup before reject: %w", err)
	}
	if !exists {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup for team=%s", ErrNotFound, teamID)
	}
	if item.Status != lineup.StatusSubmitted {
		return lineup.Lineup{}, fmt.Errorf("%w: lineup is %s, only submitted lineups can be rejected", ErrInvalidState, item.Status)
	}

	item.Status = lineup.StatusDraft
	item.RejectReason = reason
	item.UpdatedAt = s.now().UTC()
	if err := s.lineupRepo.Upsert(ctx, item); err != nil {
		return lineup.Lineup{}, fmt.Errorf("save rejected lineup: %w", err)
	}
	return item, nil
}

func (s *MatchService) StartMatch(ctx context.Context, matchID, judgeID string, duration time.Duration) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.StartMatch")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return MatchView{}, err
	}
	if m.Status != match.StatusReady {
		return MatchView{}, fmt.Errorf("%w: start requires ready, match is %s", ErrInvalidState, m.Status)
	}
	// An empty judgeID is the admin override; the handler has already
	// checked the caller's role.
	if judgeID != "" {
		if err := s.requireMainJudge(m, judgeID); err != nil {
			return MatchView{}, err
		}
	}

	// Lineups are re-checked even though ready implies approval; the lineup
	// precondition dominates every other start failure.
	approved, err := s.allLineupsApproved(ctx, m)
	if err != nil {
		return MatchView{}, err
	}
	if !approved {
		return MatchView{}, fmt.Errorf("%w: match=%s", ErrLineupsNotApproved, matchID)
	}
	if len(m.AcceptedJudgeIDs()) == 0 {
		return MatchView{}, fmt.Errorf("%w: match=%s", ErrNoJudgeAccepted, matchID)
	}

	if duration <= 0 {
		duration = s.defaultDuration
	}
	now := s.now().UTC()
	m.Timer = gametimer.Start(m.ID, duration, now)
	if err := advance(&m, match.StatusInProgress); err != nil {
		return MatchView{}, err
	}
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return MatchView{}, fmt.Errorf("update match after start: %w", err)
	}

	s.publishStatus(ctx, m)
	s.publishTick(ctx, m)
	return s.viewOf(m), nil
}

func (s *MatchService) PauseMatch(ctx context.Context, matchID, judgeID string) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.PauseMatch")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return MatchView{}, err
	}
	if m.Status != match.StatusInProgress {
		return MatchView{}, fmt.Errorf("%w: pause requires in_progress, match is %s", ErrInvalidState, m.Status)
	}
	if err := s.requireMainJudge(m, judgeID); err != nil {
		return MatchView{}, err
	}

	now := s.now().UTC()
	wasFirstHalf := m.Timer != nil && m.Timer.CurrentHalf == 1
	if m.Timer == nil {
		return MatchView{}, fmt.Errorf("%w: match has no timer", ErrInvalidState)
	}
	if err := m.Timer.Pause(now); err != nil {
		return MatchView{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}

	// Pausing at or past the half boundary is the halftime break.
	if wasFirstHalf && m.Timer.CurrentHalf == 2 {
		if err := advance(&m, match.StatusHalftime); err != nil {
			return MatchView{}, err
		}
	}
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return MatchView{}, fmt.Errorf("update match after pause: %w", err)
	}

	s.publishStatus(ctx, m)
	s.publishTick(ctx, m)
	return s.viewOf(m), nil
}

func (s *MatchService) ResumeMatch(ctx context.Context, matchID, judgeID string) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ResumeMatch")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return MatchView{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return MatchView{}, err
	}
	if m.Status != match.StatusInProgress && m.Status != match.StatusHalftime {
		return MatchView{}, fmt.Errorf("%w: resume requires in_progress or halftime, match is %s", ErrInvalidState, m.Status)
	}
	if err := s.requireMainJudge(m, judgeID); err != nil {
		return MatchView{}, err
	}
	if m.Timer == nil {
		return MatchView{}, fmt.Errorf("%w: match has no timer", ErrInvalidState)
	}

	now := s.now().UTC()
	if err := m.Timer.Resume(now); err != nil {
		return MatchView{}, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	if m.Status == match.StatusHalftime {
		if err := advance(&m, match.StatusInProgress); err != nil {
			return MatchView{}, err
		}
	}
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return MatchView{}, fmt.Errorf("update match after resume: %w", err)
	}

	s.publishStatus(ctx, m)
	s.publishTick(ctx, m)
	return s.viewOf(m), nil
}

type SubmitJudgeScoresInput struct {
	MatchID  string
	TeamID   string
	JudgeID  string
	Criteria judging.CriteriaScores
	Comments string
}

func (s *MatchService) SubmitJudgeScores(ctx context.Context, input SubmitJudgeScoresInput) (judging.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitJudgeScores")
	defer span.End()

	unlock := s.locks.acquire(input.MatchID)
	defer unlock()

	m, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return judging.Score{}, err
	}
	if err := s.guardScoringPhase(m); err != nil {
		return judging.Score{}, err
	}
	if err := s.requireAcceptedJudge(m, input.JudgeID); err != nil {
		return judging.Score{}, err
	}
	if !m.HasTeam(input.TeamID) {
		return judging.Score{}, fmt.Errorf("%w: team=%s is not part of match=%s", ErrInvalidInput, input.TeamID, input.MatchID)
	}
	if err := input.Criteria.Validate(); err != nil {
		return judging.Score{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	existing, exists, err := s.scoreRepo.Get(ctx, input.MatchID, input.TeamID, input.JudgeID)
	if err != nil {
		return judging.Score{}, fmt.Errorf("get judge score before submit: %w", err)
	}
	if exists && existing.IsLocked {
		return judging.Score{}, fmt.Errorf("%w: match=%s team=%s judge=%s", ErrAlreadyLocked, input.MatchID, input.TeamID, input.JudgeID)
	}

	now := s.now().UTC()
	item := judging.Score{
		MatchID:     input.MatchID,
		TeamID:      input.TeamID,
		JudgeID:     input.JudgeID,
		Criteria:    input.Criteria,
		Comments:    input.Comments,
		SubmittedAt: now,
		UpdatedAt:   now,
	}
	if exists {
		item.SubmittedAt = existing.SubmittedAt
	}
	if err := s.scoreRepo.Upsert(ctx, item); err != nil {
		return judging.Score{}, fmt.Errorf("save judge score: %w", err)
	}

	s.publishScore(ctx, eventbus.ScoreUpdated{
		MatchID: input.MatchID,
		TeamID:  input.TeamID,
		JudgeID: input.JudgeID,
		Source:  "judge",
	})
	return item, nil
}

func (s *MatchService) LockJudgeScores(ctx context.Context, matchID, teamID, judgeID string) (judging.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.LockJudgeScores")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return judging.Score{}, err
	}
	if err := s.guardScoringPhase(m); err != nil {
		return judging.Score{}, err
	}
	if err := s.requireAcceptedJudge(m, judgeID); err != nil {
		return judging.Score{}, err
	}

	item, exists, err := s.scoreRepo.Get(ctx, matchID, teamID, judgeID)
	if err != nil {
		return judging.Score{}, fmt.Errorf("get judge score before lock: %w", err)
	}
	if !exists {
		return judging.Score{}, fmt.Errorf("%w: no score submitted for match=%s team=%s judge=%s", ErrNotFound, matchID, teamID, judgeID)
	}
	if item.IsLocked {
		return judging.Score{}, fmt.Errorf("%w: match=%s team=%s judge=%s", ErrAlreadyLocked, matchID, teamID, judgeID)
	}
	if err := item.Criteria.Validate(); err != nil {
		return judging.Score{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := s.now().UTC()
	item.IsLocked = true
	item.LockedAt = &now
	item.UpdatedAt = now
	if err := s.scoreRepo.Upsert(ctx, item); err != nil {
		return judging.Score{}, fmt.Errorf("lock judge score: %w", err)
	}

	s.publishScore(ctx, eventbus.ScoreUpdated{
		MatchID: matchID,
		TeamID:  teamID,
		JudgeID: judgeID,
		Source:  "judge",
		Locked:  true,
	})
	return item, nil
}

type SubmitAutoScoreInput struct {
	MatchID         string
	TeamID          string
	Components      autoscore.Components
	Functionality   float64
	Innovation      float64
	PlagiarismFlag  bool
	AIGeneratedFlag bool
	Suggestions     string
}

// SubmitAutoScore stores the external evaluator's verdict. Delivery is
// at-most-once; a second delivery for the same (match, team) is a conflict.
func (s *MatchService) SubmitAutoScore(ctx context.Context, input SubmitAutoScoreInput) (autoscore.AutoScore, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitAutoScore")
	defer span.End()

	unlock := s.locks.acquire(input.MatchID)
	defer unlock()

	m, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return autoscore.AutoScore{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return autoscore.AutoScore{}, err
	}
	if !m.HasTeam(input.TeamID) {
		return autoscore.AutoScore{}, fmt.Errorf("%w: team=%s is not part of match=%s", ErrInvalidInput, input.TeamID, input.MatchID)
	}
	if _, err := scoring.ComputeAIScore(input.Components); err != nil {
		return autoscore.AutoScore{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if input.Functionality < 0 || input.Functionality > 100 {
		return autoscore.AutoScore{}, fmt.Errorf("%w: functionality=%v", ErrInvalidInput, input.Functionality)
	}
	if input.Innovation < 0 || input.Innovation > 100 {
		return autoscore.AutoScore{}, fmt.Errorf("%w: innovation=%v", ErrInvalidInput, input.Innovation)
	}

	if _, exists, err := s.autoRepo.Get(ctx, input.MatchID, input.TeamID); err != nil {
		return autoscore.AutoScore{}, fmt.Errorf("get auto score before store: %w", err)
	} else if exists {
		return autoscore.AutoScore{}, fmt.Errorf("%w: %v: match=%s team=%s", ErrConflict, autoscore.ErrAlreadyReceived, input.MatchID, input.TeamID)
	}

	item := autoscore.AutoScore{
		MatchID:         input.MatchID,
		TeamID:          input.TeamID,
		Components:      input.Components,
		Functionality:   input.Functionality,
		Innovation:      input.Innovation,
		PlagiarismFlag:  input.PlagiarismFlag,
		AIGeneratedFlag: input.AIGeneratedFlag,
		Suggestions:     input.Suggestions,
		SubmittedAt:     s.now().UTC(),
	}
	if err := s.autoRepo.Put(ctx, item); err != nil {
		if errors.Is(err, autoscore.ErrAlreadyReceived) {
			return autoscore.AutoScore{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return autoscore.AutoScore{}, fmt.Errorf("store auto score: %w", err)
	}

	s.publishScore(ctx, eventbus.ScoreUpdated{
		MatchID: input.MatchID,
		TeamID:  input.TeamID,
		Source:  "ai",
	})
	return item, nil
}

type EndMatchInput struct {
	MatchID string
	JudgeID string
	// ConfirmingJudgeIDs are the other judges who co-signed the decision.
	// The caller always counts as one confirmation.
	ConfirmingJudgeIDs []string
	Comments           string
}

func (s *MatchService) EndMatch(ctx context.Context, input EndMatchInput) (MatchView, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.EndMatch")
	defer span.End()

	input.Comments = strings.TrimSpace(input.Comments)
	if input.Comments == "" {
		return MatchView{}, fmt.Errorf("%w: end-of-match comments are required", ErrInvalidInput)
	}

	unlock := s.locks.acquire(input.MatchID)
	defer unlock()

	m, err := s.loadMatch(ctx, input.MatchID)
	if err != nil {
		return MatchView{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return MatchView{}, err
	}
	if m.Status != match.StatusInProgress {
		return MatchView{}, fmt.Errorf("%w: end requires in_progress, match is %s", ErrInvalidState, m.Status)
	}
	if err := s.requireAcceptedJudge(m, input.JudgeID); err != nil {
		return MatchView{}, err
	}

	confirmed := map[string]struct{}{input.JudgeID: {}}
	for _, judgeID := range input.ConfirmingJudgeIDs {
		judgeID = strings.TrimSpace(judgeID)
		if judgeID == "" {
			continue
		}
		if !m.IsAcceptedJudge(judgeID) {
			return MatchView{}, fmt.Errorf("%w: confirming judge=%s has not accepted this match", ErrInvalidInput, judgeID)
		}
		confirmed[judgeID] = struct{}{}
	}
	if len(m.AcceptedJudgeIDs()) >= 2 && len(confirmed) < 2 {
		return MatchView{}, fmt.Errorf("%w: match=%s", ErrInsufficientConfirmations, input.MatchID)
	}

	now := s.now().UTC()
	if m.Timer != nil && m.Timer.IsRunning {
		if err := m.Timer.Pause(now); err != nil {
			return MatchView{}, fmt.Errorf("freeze timer: %w", err)
		}
	}

	confirmedBy := make([]string, 0, len(confirmed))
	for judgeID := range confirmed {
		confirmedBy = append(confirmedBy, judgeID)
	}
	sort.Strings(confirmedBy)

	if err := advance(&m, match.StatusEnded); err != nil {
		return MatchView{}, err
	}
	m.EndComments = input.Comments
	m.EndConfirmedBy = confirmedBy
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return MatchView{}, fmt.Errorf("update match after end: %w", err)
	}

	s.publishStatus(ctx, m)
	s.publishTick(ctx, m)
	return s.viewOf(m), nil
}

// RecordSignature files one judge's sign-off. The returned bool reports
// whether the quorum is now complete.
func (s *MatchService) RecordSignature(ctx context.Context, matchID, judgeID string, blob []byte) (signature.Signature, bool, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.RecordSignature")
	defer span.End()

	if len(blob) == 0 {
		return signature.Signature{}, false, fmt.Errorf("%w: signature blob is required", ErrInvalidInput)
	}

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return signature.Signature{}, false, err
	}
	if err := s.guardMutable(m); err != nil {
		return signature.Signature{}, false, err
	}
	if m.Status != match.StatusEnded {
		return signature.Signature{}, false, fmt.Errorf("%w: signing requires ended, match is %s", ErrInvalidState, m.Status)
	}
	i := m.Assignment(judgeID)
	if i < 0 {
		return signature.Signature{}, false, fmt.Errorf("%w: judge=%s match=%s", ErrNotAssigned, judgeID, matchID)
	}
	if m.Judges[i].State != match.AssignmentAccepted {
		return signature.Signature{}, false, fmt.Errorf("%w: only accepted judges may sign", ErrForbidden)
	}

	if _, exists, err := s.sigRepo.Get(ctx, matchID, judgeID); err != nil {
		return signature.Signature{}, false, fmt.Errorf("get signature before store: %w", err)
	} else if exists {
		return signature.Signature{}, false, fmt.Errorf("%w: judge=%s match=%s", ErrAlreadySigned, judgeID, matchID)
	}

	item := signature.Signature{
		MatchID:  matchID,
		JudgeID:  judgeID,
		Blob:     append([]byte(nil), blob...),
		SignedAt: s.now().UTC(),
	}
	if err := s.sigRepo.Put(ctx, item); err != nil {
		if errors.Is(err, signature.ErrAlreadySigned) {
			return signature.Signature{}, false, fmt.Errorf("%w: judge=%s", ErrAlreadySigned, judgeID)
		}
		return signature.Signature{}, false, fmt.Errorf("store signature: %w", err)
	}

	all, err := s.sigRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return signature.Signature{}, false, fmt.Errorf("list signatures after store: %w", err)
	}
	complete := signature.QuorumComplete(m.AcceptedJudgeIDs(), all)

	s.publishEvent(ctx, eventbus.TopicSignatureRecorded, eventbus.SignatureRecorded{
		MatchID: matchID,
		JudgeID: judgeID,
	})
	return item, complete, nil
}

// SubmitFinalResults seals the match: every accepted judge must have signed
// and every accepted judge's score rows for both teams must be locked.
func (s *MatchService) SubmitFinalResults(ctx context.Context, matchID, judgeID string) (result.FinalResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SubmitFinalResults")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return result.FinalResult{}, err
	}
	if err := s.guardMutable(m); err != nil {
		return result.FinalResult{}, err
	}
	if m.Status != match.StatusEnded {
		return result.FinalResult{}, fmt.Errorf("%w: finalization requires ended, match is %s", ErrInvalidState, m.Status)
	}
	if judgeID != "" {
		if err := s.requireAcceptedJudge(m, judgeID); err != nil {
			return result.FinalResult{}, err
		}
	}

	accepted := m.AcceptedJudgeIDs()
	for _, teamID := range m.TeamIDs() {
		for _, acceptedJudge := range accepted {
			row, exists, err := s.scoreRepo.Get(ctx, matchID, teamID, acceptedJudge)
			if err != nil {
				return result.FinalResult{}, fmt.Errorf("get judge score before finalize: %w", err)
			}
			if !exists || !row.IsLocked {
				return result.FinalResult{}, fmt.Errorf("%w: team=%s judge=%s", ErrScoresNotLocked, teamID, acceptedJudge)
			}
		}
	}

	sigs, err := s.sigRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return result.FinalResult{}, fmt.Errorf("list signatures before finalize: %w", err)
	}
	if missing := signature.MissingSigners(accepted, sigs); len(missing) > 0 {
		return result.FinalResult{}, fmt.Errorf("%w: judges=%s", ErrMissingSignature, strings.Join(missing, ","))
	}

	final, err := s.scorer.BuildFinalResult(ctx, m)
	if err != nil {
		return result.FinalResult{}, err
	}
	if err := s.scorer.Store(ctx, final); err != nil {
		return result.FinalResult{}, fmt.Errorf("store final result: %w", err)
	}

	if err := advance(&m, match.StatusFinalized); err != nil {
		return result.FinalResult{}, err
	}
	m.UpdatedAt = s.now().UTC()
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return result.FinalResult{}, fmt.Errorf("update match after finalize: %w", err)
	}

	s.publishStatus(ctx, m)
	return final, nil
}

func (s *MatchService) CancelMatch(ctx context.Context, matchID, reason string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CancelMatch")
	defer span.End()

	unlock := s.locks.acquire(matchID)
	defer unlock()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return match.Match{}, err
	}
	if m.Status == match.StatusFinalized {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrMatchFinalized, matchID)
	}
	if m.Status == match.StatusCancelled {
		return match.Match{}, fmt.Errorf("%w: match is already cancelled", ErrInvalidState)
	}

	now := s.now().UTC()
	if m.Timer != nil && m.Timer.IsRunning {
		_ = m.Timer.Pause(now)
	}
	if err := advance(&m, match.StatusCancelled); err != nil {
		return match.Match{}, err
	}
	m.CancelReason = strings.TrimSpace(reason)
	m.UpdatedAt = now
	if err := s.matchRepo.Update(ctx, m); err != nil {
		return match.Match{}, fmt.Errorf("update match after cancel: %w", err)
	}

	s.publishStatus(ctx, m)
	return m, nil
}

func (s *MatchService) ListJudgeScores(ctx context.Context, matchID, teamID string) ([]judging.Score, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListJudgeScores")
	defer span.End()

	m, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.HasTeam(teamID) {
		return nil, fmt.Errorf("%w: team=%s is not part of match=%s", ErrInvalidInput, teamID, matchID)
	}
	items, err := s.scoreRepo.ListByMatchAndTeam(ctx, matchID, teamID)
	if err != nil {
		return nil, fmt.Errorf("list judge scores: %w", err)
	}
	return items, nil
}

// advance moves the aggregate to next after a final ordering check. The
// per-operation guards should make this unreachable; it is the invariant of
// record.
func advance(m *match.Match, next match.Status) error {
	if !m.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: cannot move %s to %s", ErrInvalidState, m.Status, next)
	}
	m.Status = next
	return nil
}

func (s *MatchService) loadMatch(ctx context.Context, matchID string) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match_id is required", ErrInvalidInput)
	}
	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match by id: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return m, nil
}

// guardMutable rejects writes to terminal aggregates.
func (s *MatchService) guardMutable(m match.Match) error {
	switch m.Status {
	case match.StatusFinalized:
		return fmt.Errorf("%w: match=%s", ErrMatchFinalized, m.ID)
	case match.StatusCancelled:
		return fmt.Errorf("%w: match is cancelled", ErrInvalidState)
	default:
		return nil
	}
}

// guardScoringPhase allows judge scoring from first whistle until the match
// is sealed.
func (s *MatchService) guardScoringPhase(m match.Match) error {
	if err := s.guardMutable(m); err != nil {
		return err
	}
	switch m.Status {
	case match.StatusInProgress, match.StatusHalftime, match.StatusEnded:
		return nil
	default:
		return fmt.Errorf("%w: scoring requires a started match, match is %s", ErrInvalidState, m.Status)
	}
}

func (s *MatchService) requireAcceptedJudge(m match.Match, judgeID string) error {
	judgeID = strings.TrimSpace(judgeID)
	if judgeID == "" {
		return fmt.Errorf("%w: judge_id is required", ErrInvalidInput)
	}
	i := m.Assignment(judgeID)
	if i < 0 {
		return fmt.Errorf("%w: judge=%s match=%s", ErrNotAssigned, judgeID, m.ID)
	}
	if m.Judges[i].State != match.AssignmentAccepted {
		return fmt.Errorf("%w: judge=%s has not accepted the assignment", ErrForbidden, judgeID)
	}
	return nil
}

// requireMainJudge gates timer control: only the designated main judge
// drives start, pause, and resume.
func (s *MatchService) requireMainJudge(m match.Match, judgeID string) error {
	if err := s.requireAcceptedJudge(m, judgeID); err != nil {
		return err
	}
	if main := m.MainJudgeID(); main != "" && main != judgeID {
		return fmt.Errorf("%w: only the main judge controls the timer", ErrForbidden)
	}
	return nil
}

func (s *MatchService) publishStatus(ctx context.Context, m match.Match) {
	s.publishEvent(ctx, eventbus.TopicMatchStatus, eventbus.MatchStatusChanged{
		MatchID: m.ID,
		Status:  string(m.Status),
		At:      s.now().UTC(),
	})
}

func (s *MatchService) publishTick(ctx context.Context, m match.Match) {
	if m.Timer == nil {
		return
	}
	now := s.now().UTC()
	s.publishEvent(ctx, eventbus.TopicTimerTick, eventbus.TimerTick{
		MatchID:        m.ID,
		ElapsedSeconds: m.Timer.CurrentElapsed(now).Seconds(),
		Half:           m.Timer.Half(now),
		IsRunning:      m.Timer.IsRunning,
	})
}

func (s *MatchService) publishScore(ctx context.Context, payload eventbus.ScoreUpdated) {
	s.publishEvent(ctx, eventbus.TopicScoreUpdated, payload)
}

func (s *MatchService) publishEvent(ctx context.Context, topic string, payload any) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, topic, payload); err != nil {
		s.logger.WarnContext(ctx, "publish change event failed", "topic", topic, "error", err)
	}
}

func (s *MatchService) allLineupsApproved(ctx context.Context, m match.Match) (bool, error) {
	for _, teamID := range m.TeamIDs() {
		item, exists, err := s.lineupRepo.GetByMatchAndTeam(ctx, m.ID, teamID)
		if err != nil {
			return false, fmt.Errorf("get lineup for approval check: %w", err)
		}
		if !exists || item.Status != lineup.StatusApproved {
			return false, nil
		}
	}
	return true, nil
}
