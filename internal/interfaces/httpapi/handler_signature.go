package httpapi

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

type recordSignatureRequest struct {
	// Blob is the judge's signature payload, base64 encoded. The engine
	// stores it opaquely.
	Blob string `json:"blob" validate:"required,max=16384"`
}

func (h *Handler) RecordSignature(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordSignature")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req recordSignatureRequest
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

	blob, err := base64.StdEncoding.DecodeString(req.Blob)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: blob must be base64 encoded: %v", usecase.ErrInvalidInput, err))
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	sig, quorumComplete, err := h.matchService.RecordSignature(ctx, matchID, judgeID, blob)
	if err != nil {
		h.logger.WarnContext(ctx, "record signature failed", "match_id", matchID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, signatureToDTO(ctx, sig, quorumComplete))
}

func (h *Handler) SubmitFinalResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitFinalResults")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	// Admins may finalize without an assignment, e.g. when the main judge
	// left after signing.
	judgeID := principal.UserID
	if principal.IsAdmin() {
		judgeID = ""
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	final, err := h.matchService.SubmitFinalResults(ctx, matchID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "submit final results failed", "match_id", matchID, "judge_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, finalResultToDTO(ctx, final))
}

func (h *Handler) GetFinalResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFinalResult")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	final, err := h.scoringService.GetFinalResult(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get final result failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, finalResultToDTO(ctx, final))
}
