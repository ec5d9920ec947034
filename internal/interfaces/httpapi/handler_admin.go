package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

type cancelMatchRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) CancelMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CancelMatch")
	defer span.End()

	var req cancelMatchRequest
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
	m, err := h.matchService.CancelMatch(ctx, matchID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "cancel match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, usecase.MatchView{Match: m}))
}

type scheduleJudgeRequest struct {
	JudgeID string `json:"judgeId" validate:"required"`
	IsMain  bool   `json:"isMain"`
}

type scheduleMatchRequest struct {
	HomeTeamID  string                 `json:"homeTeamId" validate:"required"`
	AwayTeamID  string                 `json:"awayTeamId" validate:"required"`
	ArenaID     string                 `json:"arenaId" validate:"required"`
	ScheduledAt time.Time              `json:"scheduledAt" validate:"required"`
	Judges      []scheduleJudgeRequest `json:"judges" validate:"required,min=1,dive"`
}

// ScheduleMatch registers a new fixture with its judging panel. League
// admins only.
func (h *Handler) ScheduleMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ScheduleMatch")
	defer span.End()

	var req scheduleMatchRequest
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

	judges := make([]usecase.ScheduleJudgeInput, 0, len(req.Judges))
	for _, j := range req.Judges {
		judges = append(judges, usecase.ScheduleJudgeInput{JudgeID: j.JudgeID, IsMain: j.IsMain})
	}

	view, err := h.matchService.ScheduleMatch(ctx, usecase.ScheduleMatchInput{
		HomeTeamID:  req.HomeTeamID,
		AwayTeamID:  req.AwayTeamID,
		ArenaID:     req.ArenaID,
		ScheduledAt: req.ScheduledAt,
		Judges:      judges,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "schedule match failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, matchViewToDTO(ctx, view))
}

type recomputeResultsRequest struct {
	MatchIDs   []string `json:"matchIds" validate:"dive,required"`
	MaxWorkers int      `json:"maxWorkers" validate:"omitempty,min=1,max=64"`
	DryRun     bool     `json:"dryRun"`
}

// RunRecomputeResultsJob replays the scoring pipeline over finalized
// matches, correcting any drifted aggregates.
func (h *Handler) RunRecomputeResultsJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRecomputeResultsJob")
	defer span.End()

	var req recomputeResultsRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	summary, err := h.recomputeService.Recompute(ctx, usecase.RecomputeInput{
		MatchIDs:   req.MatchIDs,
		MaxWorkers: req.MaxWorkers,
		DryRun:     req.DryRun,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "recompute results job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, summary)
}
