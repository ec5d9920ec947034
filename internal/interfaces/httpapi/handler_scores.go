package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/domain/autoscore"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

type submitJudgeScoresRequest struct {
	Functionality    *float64 `json:"functionality" validate:"required,min=0,max=10"`
	Innovation       *float64 `json:"innovation" validate:"required,min=0,max=10"`
	Presentation     *float64 `json:"presentation" validate:"required,min=0,max=10"`
	ProblemRelevance *float64 `json:"problemRelevance" validate:"required,min=0,max=10"`
	Feasibility      *float64 `json:"feasibility" validate:"required,min=0,max=10"`
	Collaboration    *float64 `json:"collaboration" validate:"required,min=0,max=10"`
	Comments         string   `json:"comments" validate:"max=2000"`
}

func (h *Handler) SubmitJudgeScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitJudgeScores")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req submitJudgeScoresRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	item, err := h.matchService.SubmitJudgeScores(ctx, usecase.SubmitJudgeScoresInput{
		MatchID: matchID,
		TeamID:  teamID,
		JudgeID: judgeID,
		Criteria: judging.CriteriaScores{
			Functionality:    *req.Functionality,
			Innovation:       *req.Innovation,
			Presentation:     *req.Presentation,
			ProblemRelevance: *req.ProblemRelevance,
			Feasibility:      *req.Feasibility,
			Collaboration:    *req.Collaboration,
		},
		Comments: req.Comments,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit judge scores failed", "match_id", matchID, "team_id", teamID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, judgeScoreToDTO(ctx, item))
}

func (h *Handler) LockJudgeScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.LockJudgeScores")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	item, err := h.matchService.LockJudgeScores(ctx, matchID, teamID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "lock judge scores failed", "match_id", matchID, "team_id", teamID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, judgeScoreToDTO(ctx, item))
}

func (h *Handler) ListJudgeScores(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListJudgeScores")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	items, err := h.matchService.ListJudgeScores(ctx, matchID, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list judge scores failed", "match_id", matchID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	dtos := make([]judgeScoreDTO, 0, len(items))
	for _, item := range items {
		dtos = append(dtos, judgeScoreToDTO(ctx, item))
	}

	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) ListScoreDiscrepancies(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListScoreDiscrepancies")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	items, err := h.consensusService.FindDiscrepancies(ctx, matchID, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list score discrepancies failed", "match_id", matchID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	if items == nil {
		items = []usecase.Discrepancy{}
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

type evaluatorVerdictRequest struct {
	Correctness     *float64 `json:"correctness" validate:"required,min=0,max=40"`
	Efficiency      *float64 `json:"efficiency" validate:"required,min=0,max=20"`
	Originality     *float64 `json:"originality" validate:"required,min=0,max=20"`
	DocsAndTests    *float64 `json:"docsAndTests" validate:"required,min=0,max=20"`
	Functionality   *float64 `json:"functionality" validate:"required,min=0,max=100"`
	Innovation      *float64 `json:"innovation" validate:"required,min=0,max=100"`
	PlagiarismFlag  bool     `json:"plagiarismFlag"`
	AIGeneratedFlag bool     `json:"aiGeneratedFlag"`
	Suggestions     string   `json:"suggestions" validate:"max=4000"`
}

// IngestEvaluatorVerdict is the evaluator's webhook. It sits behind the
// internal job token, not judge auth.
func (h *Handler) IngestEvaluatorVerdict(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.IngestEvaluatorVerdict")
	defer span.End()

	var req evaluatorVerdictRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	item, err := h.matchService.SubmitAutoScore(ctx, usecase.SubmitAutoScoreInput{
		MatchID: matchID,
		TeamID:  teamID,
		Components: autoscore.Components{
			Correctness:  *req.Correctness,
			Efficiency:   *req.Efficiency,
			Originality:  *req.Originality,
			DocsAndTests: *req.DocsAndTests,
		},
		Functionality:   *req.Functionality,
		Innovation:      *req.Innovation,
		PlagiarismFlag:  req.PlagiarismFlag,
		AIGeneratedFlag: req.AIGeneratedFlag,
		Suggestions:     req.Suggestions,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "ingest evaluator verdict failed", "match_id", matchID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, map[string]any{
		"matchId":        item.MatchID,
		"teamId":         item.TeamID,
		"submittedAtUtc": item.SubmittedAt.UTC().Format(time.RFC3339),
	})
}
