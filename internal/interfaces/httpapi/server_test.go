package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/user"
	"github.com/lael-77/NDL-sub001/internal/infrastructure/repository/memory"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

type staticVerifier struct {
	principals map[string]user.Principal
}

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := v.principals[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown access token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	matchRepo := memory.NewMatchRepository(memory.SeedMatches())
	lineupRepo := memory.NewLineupRepository()
	scoreRepo := memory.NewJudgeScoreRepository()
	autoRepo := memory.NewAutoScoreRepository()
	sigRepo := memory.NewSignatureRepository()
	resultRepo := memory.NewResultRepository()

	scorer := usecase.NewScoringService(scoreRepo, autoRepo, resultRepo, nil)
	matchService := usecase.NewMatchService(matchRepo, lineupRepo, scoreRepo, autoRepo, sigRepo, memory.NewTeamRepository(memory.SeedTeams()), scorer, nil, nil)
	consensusService := usecase.NewConsensusService(matchRepo, scoreRepo, usecase.DefaultDiscrepancyThreshold)
	recomputeService := usecase.NewRecomputeService(matchRepo, resultRepo, scorer, nil)

	handler := NewHandler(matchService, scorer, consensusService, recomputeService, nil)
	verifier := staticVerifier{principals: map[string]user.Principal{
		"judge-token": {UserID: memory.JudgeIDMain, Role: user.RoleJudge},
		"admin-token": {UserID: "admin-dewi", Role: user.RoleAdmin},
	}}

	return NewRouter(handler, verifier, nil, []string{"*"}, "job-secret")
}

func TestRouter_HealthzBypassesAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

func TestRouter_GetMatchIsPublic(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/"+memory.MatchIDOpeningRound, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data matchDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Data.ID != memory.MatchIDOpeningRound {
		t.Fatalf("expected match %s, got %s", memory.MatchIDOpeningRound, body.Data.ID)
	}
	if body.Data.Status != "scheduled" {
		t.Fatalf("expected scheduled status, got %s", body.Data.Status)
	}
}

func TestRouter_LifecycleRequiresBearerToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/matches/"+memory.MatchIDOpeningRound+"/assignment/accept", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestRouter_AcceptAssignmentWithToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/matches/"+memory.MatchIDOpeningRound+"/assignment/accept", nil)
	req.Header.Set("Authorization", "Bearer judge-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data matchDTO `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	found := false
	for _, j := range body.Data.Judges {
		if j.JudgeID == memory.JudgeIDMain && j.State == "accepted" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected %s to be accepted, got %+v", memory.JudgeIDMain, body.Data.Judges)
	}
}

func TestRouter_CancelMatchRequiresAdmin(t *testing.T) {
	router := newTestRouter(t)

	body := `{"reason":"venue flooded"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/matches/"+memory.MatchIDOpeningRound+"/cancel", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer judge-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/matches/"+memory.MatchIDOpeningRound+"/cancel", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_StartMatchAcceptsDurationSeconds(t *testing.T) {
	matchRepo := memory.NewMatchRepository(memory.SeedMatches())
	lineupRepo := memory.NewLineupRepository()
	scoreRepo := memory.NewJudgeScoreRepository()
	autoRepo := memory.NewAutoScoreRepository()
	sigRepo := memory.NewSignatureRepository()
	resultRepo := memory.NewResultRepository()

	scorer := usecase.NewScoringService(scoreRepo, autoRepo, resultRepo, nil)
	matchService := usecase.NewMatchService(matchRepo, lineupRepo, scoreRepo, autoRepo, sigRepo, memory.NewTeamRepository(memory.SeedTeams()), scorer, nil, nil)

	ctx := context.Background()
	for _, judgeID := range []string{memory.JudgeIDMain, memory.JudgeIDSecond} {
		if _, err := matchService.AcceptAssignment(ctx, memory.MatchIDOpeningRound, judgeID); err != nil {
			t.Fatalf("accept assignment for %s: %v", judgeID, err)
		}
	}
	for _, teamID := range []string{memory.TeamIDNorthHawks, memory.TeamIDBayOrbits} {
		if _, err := matchService.SubmitLineup(ctx, usecase.SubmitLineupInput{
			MatchID: memory.MatchIDOpeningRound,
			TeamID:  teamID,
			Players: []lineup.Player{
				{PlayerID: "p-01", Name: "Sari", Role: lineup.RoleDeveloper, IsCaptain: true},
				{PlayerID: "p-02", Name: "Bima", Role: lineup.RoleDesigner},
				{PlayerID: "p-03", Name: "Tika", Role: lineup.RolePresenter},
			},
		}); err != nil {
			t.Fatalf("submit lineup for %s: %v", teamID, err)
		}
		if _, err := matchService.ApproveLineup(ctx, memory.MatchIDOpeningRound, teamID, memory.JudgeIDMain); err != nil {
			t.Fatalf("approve lineup for %s: %v", teamID, err)
		}
	}

	consensusService := usecase.NewConsensusService(matchRepo, scoreRepo, usecase.DefaultDiscrepancyThreshold)
	recomputeService := usecase.NewRecomputeService(matchRepo, resultRepo, scorer, nil)
	handler := NewHandler(matchService, scorer, consensusService, recomputeService, nil)
	verifier := staticVerifier{principals: map[string]user.Principal{
		"judge-token": {UserID: memory.JudgeIDMain, Role: user.RoleJudge},
	}}
	router := NewRouter(handler, verifier, nil, []string{"*"}, "job-secret")

	body := `{"durationSeconds": 90}`
	req := httptest.NewRequest(http.MethodPost, "/v1/matches/"+memory.MatchIDOpeningRound+"/start", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer judge-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	started, exists, err := matchRepo.GetByID(ctx, memory.MatchIDOpeningRound)
	if err != nil || !exists {
		t.Fatalf("load started match: exists=%v err=%v", exists, err)
	}
	if started.Timer == nil {
		t.Fatal("expected a running timer")
	}
	if started.Timer.TotalDuration != 90*time.Second {
		t.Fatalf("expected 90s regulation length, got %v", started.Timer.TotalDuration)
	}
}

func TestRouter_ScheduleMatchRequiresAdmin(t *testing.T) {
	router := newTestRouter(t)

	body := `{
		"homeTeamId": "` + memory.TeamIDEastCircuit + `",
		"awayTeamId": "` + memory.TeamIDWestPixel + `",
		"arenaId": "arena-hall-b",
		"scheduledAt": "2026-10-03T13:30:00Z",
		"judges": [{"judgeId": "judge-ayu", "isMain": true}, {"judgeId": "judge-rama"}]
	}`

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/matches", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer judge-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403 for judge, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/matches", strings.NewReader(body))
	req.Header.Set("Authorization", "Bearer admin-token")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !strings.HasPrefix(created.Data.ID, "match-") {
		t.Fatalf("unexpected match id %q", created.Data.ID)
	}
	if created.Data.Status != "scheduled" {
		t.Fatalf("expected scheduled status, got %q", created.Data.Status)
	}
}

func TestRouter_EvaluatorWebhookNeedsJobToken(t *testing.T) {
	router := newTestRouter(t)

	payload := `{"correctness":35,"efficiency":18,"originality":14,"docsAndTests":16,"functionality":82,"innovation":74}`
	path := "/v1/internal/matches/" + memory.MatchIDOpeningRound + "/teams/" + memory.TeamIDNorthHawks + "/evaluation"

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 without token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201 with token, got %d: %s", rec.Code, rec.Body.String())
	}
}
