package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/repository/memory"
)

type matchHarness struct {
	svc     *MatchService
	matches *memory.MatchRepository
	lineups *memory.LineupRepository
	scores  *memory.JudgeScoreRepository
	autos   *memory.AutoScoreRepository
	sigs    *memory.SignatureRepository
	results *memory.ResultRepository
	teams   *memory.TeamRepository
	tick    func(time.Duration)
}

func newMatchHarness(t *testing.T, seed []match.Match) *matchHarness {
	t.Helper()

	h := &matchHarness{
		matches: memory.NewMatchRepository(seed),
		lineups: memory.NewLineupRepository(),
		scores:  memory.NewJudgeScoreRepository(),
		autos:   memory.NewAutoScoreRepository(),
		sigs:    memory.NewSignatureRepository(),
		results: memory.NewResultRepository(),
		teams:   memory.NewTeamRepository(memory.SeedTeams()),
	}

	current := time.Date(2026, 9, 12, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return current }
	h.tick = func(d time.Duration) { current = current.Add(d) }

	scorer := NewScoringService(h.scores, h.autos, h.results, nil)
	scorer.now = clock

	h.svc = NewMatchService(h.matches, h.lineups, h.scores, h.autos, h.sigs, h.teams, scorer, nil, nil)
	h.svc.now = clock
	return h
}

func seedScheduledMatch() []match.Match {
	return memory.SeedMatches()
}

func validPlayers() []lineup.Player {
	return []lineup.Player{
		{PlayerID: "p-01", Name: "Sari", Role: lineup.RoleDeveloper, IsCaptain: true},
		{PlayerID: "p-02", Name: "Bima", Role: lineup.RoleDesigner},
		{PlayerID: "p-03", Name: "Tika", Role: lineup.RolePresenter},
	}
}

func (h *matchHarness) acceptJudges(t *testing.T, judgeIDs ...string) {
	t.Helper()
	for _, judgeID := range judgeIDs {
		if _, err := h.svc.AcceptAssignment(t.Context(), memory.MatchIDOpeningRound, judgeID); err != nil {
			t.Fatalf("accept assignment for %s failed: %v", judgeID, err)
		}
	}
}

func (h *matchHarness) driveToReady(t *testing.T) {
	t.Helper()
	h.acceptJudges(t, memory.JudgeIDMain, memory.JudgeIDSecond)
	for _, teamID := range []string{memory.TeamIDNorthHawks, memory.TeamIDBayOrbits} {
		if _, err := h.svc.SubmitLineup(t.Context(), SubmitLineupInput{
			MatchID: memory.MatchIDOpeningRound,
			TeamID:  teamID,
			Players: validPlayers(),
		}); err != nil {
			t.Fatalf("submit lineup for %s failed: %v", teamID, err)
		}
		if _, err := h.svc.ApproveLineup(t.Context(), memory.MatchIDOpeningRound, teamID, memory.JudgeIDMain); err != nil {
			t.Fatalf("approve lineup for %s failed: %v", teamID, err)
		}
	}
}

func (h *matchHarness) driveToInProgress(t *testing.T) {
	t.Helper()
	h.driveToReady(t)
	if _, err := h.svc.StartMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, 40*time.Minute); err != nil {
		t.Fatalf("start match failed: %v", err)
	}
}

func (h *matchHarness) driveToEnded(t *testing.T) {
	t.Helper()
	h.driveToInProgress(t)
	if _, err := h.svc.EndMatch(t.Context(), EndMatchInput{
		MatchID:            memory.MatchIDOpeningRound,
		JudgeID:            memory.JudgeIDMain,
		ConfirmingJudgeIDs: []string{memory.JudgeIDSecond},
		Comments:           "both demos completed without incident",
	}); err != nil {
		t.Fatalf("end match failed: %v", err)
	}
}

func autoComponents(correctness, efficiency, originality, docs float64) autoscore.Components {
	return autoscore.Components{
		Correctness:  correctness,
		Efficiency:   efficiency,
		Originality:  originality,
		DocsAndTests: docs,
	}
}

func uniformScores(v float64) judging.CriteriaScores {
	return judging.CriteriaScores{
		Functionality:    v,
		Innovation:       v,
		Presentation:     v,
		ProblemRelevance: v,
		Feasibility:      v,
		Collaboration:    v,
	}
}

func (h *matchHarness) submitAndLockAll(t *testing.T, homeValue, awayValue float64) {
	t.Helper()
	values := map[string]float64{
		memory.TeamIDNorthHawks: homeValue,
		memory.TeamIDBayOrbits:  awayValue,
	}
	for teamID, v := range values {
		for _, judgeID := range []string{memory.JudgeIDMain, memory.JudgeIDSecond} {
			if _, err := h.svc.SubmitJudgeScores(t.Context(), SubmitJudgeScoresInput{
				MatchID:  memory.MatchIDOpeningRound,
				TeamID:   teamID,
				JudgeID:  judgeID,
				Criteria: uniformScores(v),
			}); err != nil {
				t.Fatalf("submit scores team=%s judge=%s failed: %v", teamID, judgeID, err)
			}
			if _, err := h.svc.LockJudgeScores(t.Context(), memory.MatchIDOpeningRound, teamID, judgeID); err != nil {
				t.Fatalf("lock scores team=%s judge=%s failed: %v", teamID, judgeID, err)
			}
		}
	}
}

func (h *matchHarness) signAll(t *testing.T) {
	t.Helper()
	for _, judgeID := range []string{memory.JudgeIDMain, memory.JudgeIDSecond} {
		if _, _, err := h.svc.RecordSignature(t.Context(), memory.MatchIDOpeningRound, judgeID, []byte("signed:"+judgeID)); err != nil {
			t.Fatalf("record signature for %s failed: %v", judgeID, err)
		}
	}
}

func TestMatchService_ApproveLineup_NoCaptain(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.acceptJudges(t, memory.JudgeIDMain)

	players := validPlayers()
	players[0].IsCaptain = false
	if _, err := h.svc.SubmitLineup(t.Context(), SubmitLineupInput{
		MatchID: memory.MatchIDOpeningRound,
		TeamID:  memory.TeamIDNorthHawks,
		Players: players,
	}); err != nil {
		t.Fatalf("submit lineup failed: %v", err)
	}

	_, err := h.svc.ApproveLineup(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks, memory.JudgeIDMain)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for captainless lineup, got %v", err)
	}

	// Fixing the roster and resubmitting makes it approvable.
	if _, err := h.svc.SubmitLineup(t.Context(), SubmitLineupInput{
		MatchID: memory.MatchIDOpeningRound,
		TeamID:  memory.TeamIDNorthHawks,
		Players: validPlayers(),
	}); err != nil {
		t.Fatalf("resubmit lineup failed: %v", err)
	}
	item, err := h.svc.ApproveLineup(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks, memory.JudgeIDMain)
	if err != nil {
		t.Fatalf("approve fixed lineup failed: %v", err)
	}
	if item.Status != lineup.StatusApproved {
		t.Fatalf("unexpected lineup status: %s", item.Status)
	}
}

func TestMatchService_ApproveBothLineups_ReachesReady(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToReady(t)

	view, err := h.svc.GetMatch(t.Context(), memory.MatchIDOpeningRound)
	if err != nil {
		t.Fatalf("get match failed: %v", err)
	}
	if view.Match.Status != match.StatusReady {
		t.Fatalf("expected ready, got %s", view.Match.Status)
	}
}

func TestMatchService_StartMatch_LineupsNotApproved(t *testing.T) {
	seed := seedScheduledMatch()
	seed[0].Status = match.StatusReady
	seed[0].Judges[0].State = match.AssignmentAccepted
	h := newMatchHarness(t, seed)

	_, err := h.svc.StartMatch(t.Context(), memory.MatchIDOpeningRound, "", 0)
	if !errors.Is(err, ErrLineupsNotApproved) {
		t.Fatalf("expected ErrLineupsNotApproved, got %v", err)
	}
}

func TestMatchService_StartMatch_NoJudgeAccepted(t *testing.T) {
	seed := seedScheduledMatch()
	seed[0].Status = match.StatusReady
	h := newMatchHarness(t, seed)

	for _, teamID := range []string{memory.TeamIDNorthHawks, memory.TeamIDBayOrbits} {
		if err := h.lineups.Upsert(t.Context(), lineup.Lineup{
			MatchID: memory.MatchIDOpeningRound,
			TeamID:  teamID,
			Players: validPlayers(),
			Status:  lineup.StatusApproved,
		}); err != nil {
			t.Fatalf("seed lineup failed: %v", err)
		}
	}

	_, err := h.svc.StartMatch(t.Context(), memory.MatchIDOpeningRound, "", 0)
	if !errors.Is(err, ErrNoJudgeAccepted) {
		t.Fatalf("expected ErrNoJudgeAccepted, got %v", err)
	}
}

func TestMatchService_StartMatch_ConcurrentSingleWinner(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToReady(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = h.svc.StartMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, 40*time.Minute)
		}()
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, ErrInvalidState) {
			t.Fatalf("unexpected error from concurrent start: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one start to win, got %d", succeeded)
	}
}

func TestMatchService_PauseAtHalfBoundary_EntersHalftime(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	h.tick(20 * time.Minute)
	view, err := h.svc.PauseMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if view.Match.Status != match.StatusHalftime {
		t.Fatalf("expected halftime, got %s", view.Match.Status)
	}
	if view.ElapsedSeconds != 1200 {
		t.Fatalf("expected 1200s elapsed, got %v", view.ElapsedSeconds)
	}

	view, err = h.svc.ResumeMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if view.Match.Status != match.StatusInProgress {
		t.Fatalf("expected in_progress after resume, got %s", view.Match.Status)
	}
	if view.Half != 2 {
		t.Fatalf("expected second half, got %d", view.Half)
	}
}

func TestMatchService_PauseMidHalf_StaysInProgress(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	h.tick(5 * time.Minute)
	view, err := h.svc.PauseMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain)
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if view.Match.Status != match.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", view.Match.Status)
	}

	// Elapsed must not grow while paused.
	h.tick(3 * time.Minute)
	view, err = h.svc.GetMatch(t.Context(), memory.MatchIDOpeningRound)
	if err != nil {
		t.Fatalf("get match failed: %v", err)
	}
	if view.ElapsedSeconds != 300 {
		t.Fatalf("expected elapsed frozen at 300s, got %v", view.ElapsedSeconds)
	}
}

func TestMatchService_PauseByNonMainJudge_Forbidden(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	_, err := h.svc.PauseMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDSecond)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestMatchService_LockJudgeScores_SecondLockConflicts(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	if _, err := h.svc.SubmitJudgeScores(t.Context(), SubmitJudgeScoresInput{
		MatchID:  memory.MatchIDOpeningRound,
		TeamID:   memory.TeamIDNorthHawks,
		JudgeID:  memory.JudgeIDMain,
		Criteria: uniformScores(7),
	}); err != nil {
		t.Fatalf("submit scores failed: %v", err)
	}
	locked, err := h.svc.LockJudgeScores(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks, memory.JudgeIDMain)
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}

	_, err = h.svc.LockJudgeScores(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks, memory.JudgeIDMain)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on second lock, got %v", err)
	}

	// The locked row is untouched by the failed second lock.
	row, exists, err := h.scores.Get(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks, memory.JudgeIDMain)
	if err != nil || !exists {
		t.Fatalf("locked row missing: exists=%v err=%v", exists, err)
	}
	if !row.IsLocked || row.LockedAt == nil || !row.LockedAt.Equal(*locked.LockedAt) {
		t.Fatalf("locked row changed after failed relock: %+v", row)
	}
}

func TestMatchService_SubmitJudgeScores_AfterLockRejected(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	input := SubmitJudgeScoresInput{
		MatchID:  memory.MatchIDOpeningRound,
		TeamID:   memory.TeamIDNorthHawks,
		JudgeID:  memory.JudgeIDMain,
		Criteria: uniformScores(7),
	}
	if _, err := h.svc.SubmitJudgeScores(t.Context(), input); err != nil {
		t.Fatalf("submit scores failed: %v", err)
	}
	if _, err := h.svc.LockJudgeScores(t.Context(), memory.MatchIDOpeningRound, memory.TeamIDNorthHawks, memory.JudgeIDMain); err != nil {
		t.Fatalf("lock failed: %v", err)
	}

	input.Criteria = uniformScores(9)
	_, err := h.svc.SubmitJudgeScores(t.Context(), input)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on scoring a locked row, got %v", err)
	}
}

func TestMatchService_SubmitJudgeScores_OutOfRange(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	criteria := uniformScores(7)
	criteria.Innovation = 11
	_, err := h.svc.SubmitJudgeScores(t.Context(), SubmitJudgeScoresInput{
		MatchID:  memory.MatchIDOpeningRound,
		TeamID:   memory.TeamIDNorthHawks,
		JudgeID:  memory.JudgeIDMain,
		Criteria: criteria,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestMatchService_SubmitAutoScore_SecondDeliveryConflicts(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	input := SubmitAutoScoreInput{
		MatchID: memory.MatchIDOpeningRound,
		TeamID:  memory.TeamIDNorthHawks,
		Components: autoComponents(32, 16, 16, 16),
	}
	if _, err := h.svc.SubmitAutoScore(t.Context(), input); err != nil {
		t.Fatalf("first auto score failed: %v", err)
	}
	_, err := h.svc.SubmitAutoScore(t.Context(), input)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate delivery, got %v", err)
	}
}

func TestMatchService_EndMatch_SingleJudgeNeedsNoConfirmation(t *testing.T) {
	seed := seedScheduledMatch()
	seed[0].Judges = seed[0].Judges[:1]
	h := newMatchHarness(t, seed)

	h.acceptJudges(t, memory.JudgeIDMain)
	for _, teamID := range []string{memory.TeamIDNorthHawks, memory.TeamIDBayOrbits} {
		if _, err := h.svc.SubmitLineup(t.Context(), SubmitLineupInput{
			MatchID: memory.MatchIDOpeningRound,
			TeamID:  teamID,
			Players: validPlayers(),
		}); err != nil {
			t.Fatalf("submit lineup failed: %v", err)
		}
		if _, err := h.svc.ApproveLineup(t.Context(), memory.MatchIDOpeningRound, teamID, memory.JudgeIDMain); err != nil {
			t.Fatalf("approve lineup failed: %v", err)
		}
	}
	if _, err := h.svc.StartMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, err := h.svc.EndMatch(t.Context(), EndMatchInput{
		MatchID:  memory.MatchIDOpeningRound,
		JudgeID:  memory.JudgeIDMain,
		Comments: "solo panel, clean run",
	})
	if err != nil {
		t.Fatalf("end match failed: %v", err)
	}
	if view.Match.Status != match.StatusEnded {
		t.Fatalf("expected ended, got %s", view.Match.Status)
	}
}

func TestMatchService_EndMatch_SoleAcceptedJudgeEndsAlone(t *testing.T) {
	// Two judges assigned but only one ever accepts; the other stays
	// pending. The confirmation rule counts accepted judges, so the lone
	// accepted judge can end the match without a confirmation that the
	// pending judge could never give.
	h := newMatchHarness(t, seedScheduledMatch())

	h.acceptJudges(t, memory.JudgeIDMain)
	for _, teamID := range []string{memory.TeamIDNorthHawks, memory.TeamIDBayOrbits} {
		if _, err := h.svc.SubmitLineup(t.Context(), SubmitLineupInput{
			MatchID: memory.MatchIDOpeningRound,
			TeamID:  teamID,
			Players: validPlayers(),
		}); err != nil {
			t.Fatalf("submit lineup failed: %v", err)
		}
		if _, err := h.svc.ApproveLineup(t.Context(), memory.MatchIDOpeningRound, teamID, memory.JudgeIDMain); err != nil {
			t.Fatalf("approve lineup failed: %v", err)
		}
	}
	if _, err := h.svc.StartMatch(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, 0); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	view, err := h.svc.EndMatch(t.Context(), EndMatchInput{
		MatchID:  memory.MatchIDOpeningRound,
		JudgeID:  memory.JudgeIDMain,
		Comments: "second judge declined, ended by remaining judge",
	})
	if err != nil {
		t.Fatalf("end match failed: %v", err)
	}
	if view.Match.Status != match.StatusEnded {
		t.Fatalf("expected ended, got %s", view.Match.Status)
	}
	if got := view.Match.EndConfirmedBy; len(got) != 1 || got[0] != memory.JudgeIDMain {
		t.Fatalf("unexpected confirmations %v", got)
	}
}

func TestMatchService_EndMatch_InsufficientConfirmations(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	_, err := h.svc.EndMatch(t.Context(), EndMatchInput{
		MatchID:  memory.MatchIDOpeningRound,
		JudgeID:  memory.JudgeIDMain,
		Comments: "trying to end alone",
	})
	if !errors.Is(err, ErrInsufficientConfirmations) {
		t.Fatalf("expected ErrInsufficientConfirmations, got %v", err)
	}

	// The failed attempt must leave the match untouched.
	view, getErr := h.svc.GetMatch(t.Context(), memory.MatchIDOpeningRound)
	if getErr != nil {
		t.Fatalf("get match failed: %v", getErr)
	}
	if view.Match.Status != match.StatusInProgress {
		t.Fatalf("expected in_progress after failed end, got %s", view.Match.Status)
	}
	if view.Match.Timer == nil || !view.Match.Timer.IsRunning {
		t.Fatal("timer must keep running after failed end")
	}
	if view.Match.EndComments != "" {
		t.Fatalf("comments must not be recorded: %q", view.Match.EndComments)
	}
}

func TestMatchService_RecordSignature_Duplicate(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToEnded(t)

	if _, _, err := h.svc.RecordSignature(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, []byte("sig")); err != nil {
		t.Fatalf("first signature failed: %v", err)
	}
	_, _, err := h.svc.RecordSignature(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, []byte("sig"))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict on duplicate signature, got %v", err)
	}
}

func TestMatchService_RecordSignature_ReportsQuorum(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToEnded(t)

	_, complete, err := h.svc.RecordSignature(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, []byte("sig"))
	if err != nil {
		t.Fatalf("first signature failed: %v", err)
	}
	if complete {
		t.Fatal("quorum must be incomplete with one of two signatures")
	}

	_, complete, err = h.svc.RecordSignature(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDSecond, []byte("sig"))
	if err != nil {
		t.Fatalf("second signature failed: %v", err)
	}
	if !complete {
		t.Fatal("quorum must be complete with all signatures")
	}
}

func TestMatchService_SubmitFinalResults_MissingSignature(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToEnded(t)
	h.submitAndLockAll(t, 8, 6)

	if _, _, err := h.svc.RecordSignature(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain, []byte("sig")); err != nil {
		t.Fatalf("signature failed: %v", err)
	}

	_, err := h.svc.SubmitFinalResults(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain)
	if !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
}

func TestMatchService_SubmitFinalResults_ScoresNotLocked(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToEnded(t)
	h.signAll(t)

	_, err := h.svc.SubmitFinalResults(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain)
	if !errors.Is(err, ErrScoresNotLocked) {
		t.Fatalf("expected ErrScoresNotLocked, got %v", err)
	}
}

func TestMatchService_SubmitFinalResults_SealsMatch(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	if _, err := h.svc.SubmitAutoScore(t.Context(), SubmitAutoScoreInput{
		MatchID:    memory.MatchIDOpeningRound,
		TeamID:     memory.TeamIDNorthHawks,
		Components: autoComponents(32, 16, 16, 16),
	}); err != nil {
		t.Fatalf("auto score home failed: %v", err)
	}
	if _, err := h.svc.SubmitAutoScore(t.Context(), SubmitAutoScoreInput{
		MatchID:    memory.MatchIDOpeningRound,
		TeamID:     memory.TeamIDBayOrbits,
		Components: autoComponents(24, 12, 12, 12),
	}); err != nil {
		t.Fatalf("auto score away failed: %v", err)
	}

	if _, err := h.svc.EndMatch(t.Context(), EndMatchInput{
		MatchID:            memory.MatchIDOpeningRound,
		JudgeID:            memory.JudgeIDMain,
		ConfirmingJudgeIDs: []string{memory.JudgeIDSecond},
		Comments:           "clean finish",
	}); err != nil {
		t.Fatalf("end match failed: %v", err)
	}
	h.submitAndLockAll(t, 8, 6)
	h.signAll(t)

	final, err := h.svc.SubmitFinalResults(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDMain)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if final.Home.HumanScore != 80 || final.Home.AIScore != 80 || final.Home.FinalScore != 80 {
		t.Fatalf("unexpected home result: %+v", final.Home)
	}
	if final.Away.HumanScore != 60 || final.Away.AIScore != 60 || final.Away.FinalScore != 60 {
		t.Fatalf("unexpected away result: %+v", final.Away)
	}
	if final.WinnerTeamID != memory.TeamIDNorthHawks {
		t.Fatalf("unexpected winner: %s", final.WinnerTeamID)
	}
	if final.TieBreakReason != "" {
		t.Fatalf("no tiebreak expected, got %s", final.TieBreakReason)
	}

	view, err := h.svc.GetMatch(t.Context(), memory.MatchIDOpeningRound)
	if err != nil {
		t.Fatalf("get match failed: %v", err)
	}
	if view.Match.Status != match.StatusFinalized {
		t.Fatalf("expected finalized, got %s", view.Match.Status)
	}

	// The sealed aggregate rejects every further mutation.
	_, err = h.svc.SubmitJudgeScores(t.Context(), SubmitJudgeScoresInput{
		MatchID:  memory.MatchIDOpeningRound,
		TeamID:   memory.TeamIDNorthHawks,
		JudgeID:  memory.JudgeIDMain,
		Criteria: uniformScores(5),
	})
	if !errors.Is(err, ErrMatchFinalized) {
		t.Fatalf("expected ErrMatchFinalized, got %v", err)
	}
	_, err = h.svc.CancelMatch(t.Context(), memory.MatchIDOpeningRound, "should not work")
	if !errors.Is(err, ErrMatchFinalized) {
		t.Fatalf("expected ErrMatchFinalized on cancel, got %v", err)
	}
}

func TestMatchService_CancelMatch_FromInProgress(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.driveToInProgress(t)

	m, err := h.svc.CancelMatch(t.Context(), memory.MatchIDOpeningRound, "arena power failure")
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if m.Status != match.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", m.Status)
	}
	if m.CancelReason != "arena power failure" {
		t.Fatalf("unexpected cancel reason: %q", m.CancelReason)
	}
}

func TestMatchService_DeclineAssignment_RemovesJudge(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())

	m, err := h.svc.DeclineAssignment(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDSecond)
	if err != nil {
		t.Fatalf("decline failed: %v", err)
	}
	if m.Assignment(memory.JudgeIDSecond) >= 0 {
		t.Fatal("declined judge must be removed from the assignment set")
	}

	_, err = h.svc.DeclineAssignment(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDSecond)
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unassigned judge, got %v", err)
	}
}

func TestMatchService_AcceptAssignment_ClosesAfterReady(t *testing.T) {
	h := newMatchHarness(t, seedScheduledMatch())
	h.acceptJudges(t, memory.JudgeIDMain)

	for _, teamID := range []string{memory.TeamIDNorthHawks, memory.TeamIDBayOrbits} {
		if _, err := h.svc.SubmitLineup(t.Context(), SubmitLineupInput{
			MatchID: memory.MatchIDOpeningRound,
			TeamID:  teamID,
			Players: validPlayers(),
		}); err != nil {
			t.Fatalf("submit lineup failed: %v", err)
		}
		if _, err := h.svc.ApproveLineup(t.Context(), memory.MatchIDOpeningRound, teamID, memory.JudgeIDMain); err != nil {
			t.Fatalf("approve lineup failed: %v", err)
		}
	}

	// The second judge never accepted; the window closed at ready.
	_, err := h.svc.AcceptAssignment(t.Context(), memory.MatchIDOpeningRound, memory.JudgeIDSecond)
	if !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState after ready, got %v", err)
	}
}
