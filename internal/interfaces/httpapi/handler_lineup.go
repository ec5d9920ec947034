package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

type submitLineupRequest struct {
	Players []submitLineupPlayer `json:"players" validate:"required,min=1,dive"`
}

type submitLineupPlayer struct {
	PlayerID  string `json:"playerId" validate:"required"`
	Name      string `json:"name" validate:"required,max=120"`
	Role      string `json:"role" validate:"required,oneof=developer designer presenter researcher"`
	IsCaptain bool   `json:"isCaptain"`
}

func (h *Handler) SubmitLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitLineup")
	defer span.End()

	var req submitLineupRequest
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

	players := make([]lineup.Player, 0, len(req.Players))
	for _, p := range req.Players {
		players = append(players, lineup.Player{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Role:      lineup.Role(p.Role),
			IsCaptain: p.IsCaptain,
		})
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	item, err := h.matchService.SubmitLineup(ctx, usecase.SubmitLineupInput{
		MatchID: matchID,
		TeamID:  teamID,
		Players: players,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit lineup failed", "match_id", matchID, "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupToDTO(ctx, item))
}

func (h *Handler) ApproveLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApproveLineup")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	teamID := strings.TrimSpace(r.PathValue("teamID"))
	item, err := h.matchService.ApproveLineup(ctx, matchID, teamID, judgeID)
	if err != nil {
		h.logger.WarnContext(ctx, "approve lineup failed", "match_id", matchID, "team_id", teamID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupToDTO(ctx, item))
}

type rejectLineupRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func (h *Handler) RejectLineup(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RejectLineup")
	defer span.End()

	judgeID, ok := requirePrincipal(ctx, w)
	if !ok {
		return
	}

	var req rejectLineupRequest
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
	item, err := h.matchService.RejectLineup(ctx, matchID, teamID, judgeID, req.Reason)
	if err != nil {
		h.logger.WarnContext(ctx, "reject lineup failed", "match_id", matchID, "team_id", teamID, "judge_id", judgeID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, lineupToDTO(ctx, item))
}
