package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	view, err := h.matchService.GetMatch(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, view))
}

func (h *Handler) AcceptAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AcceptAssignment")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	m, err := h.matchService.AcceptAssignment(ctx, matchID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "accept assignment failed", "match_id", matchID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, usecase.MatchView{Match: m}))
}

func (h *Handler) DeclineAssignment(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DeclineAssignment")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	m, err := h.matchService.DeclineAssignment(ctx, matchID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "decline assignment failed", "match_id", matchID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, usecase.MatchView{Match: m}))
}

type startMatchRequest struct {
	DurationSeconds int `json:"durationSeconds" validate:"omitempty,min=10,max=10800"`
}

func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartMatch")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req startMatchRequest
	if err := decodeOptionalBody(r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	// Admins may force a start without holding an assignment.
	judgeID := principal.UserID
	if principal.IsAdmin() {
		judgeID = ""
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	view, err := h.matchService.StartMatch(ctx, matchID, judgeID, time.Duration(req.DurationSeconds)*time.Second)
	if err != nil {
		h.logger.WarnContext(ctx, "start match failed", "match_id", matchID, "judge_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, view))
}

func (h *Handler) PauseMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseMatch")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	view, err := h.matchService.PauseMatch(ctx, matchID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "pause match failed", "match_id", matchID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, view))
}

func (h *Handler) ResumeMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeMatch")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	view, err := h.matchService.ResumeMatch(ctx, matchID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "resume match failed", "match_id", matchID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, view))
}

type endMatchRequest struct {
	Comments           string   `json:"comments" validate:"required,max=2000"`
	ConfirmingJudgeIDs []string `json:"confirmingJudgeIds" validate:"dive,required"`
}

func (h *Handler) EndMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndMatch")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req endMatchRequest
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
	view, err := h.matchService.EndMatch(ctx, usecase.EndMatchInput{
		MatchID:            matchID,
		JudgeID:            judgeID,
		ConfirmingJudgeIDs: req.ConfirmingJudgeIDs,
		Comments:           req.Comments,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "end match failed", "match_id", matchID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, matchViewToDTO(ctx, view))
}

// decodeOptionalBody decodes a JSON body into dst, treating an empty body as
// the zero request.
func decodeOptionalBody(r *http.Request, dst any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}
