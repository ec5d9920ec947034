package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lael-77/NDL-sub001/internal/domain/judging"
	"github.com/lael-77/NDL-sub001/internal/domain/lineup"
	"github.com/lael-77/NDL-sub001/internal/domain/result"
	"github.com/lael-77/NDL-sub001/internal/domain/signature"
	"github.com/lael-77/NDL-sub001/internal/platform/logging"
	"github.com/lael-77/NDL-sub001/internal/usecase"
)

type Handler struct {
	matchService     *usecase.MatchService
	scoringService   *usecase.ScoringService
	consensusService *usecase.ConsensusService
	recomputeService *usecase.RecomputeService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	scoringService *usecase.ScoringService,
	consensusService *usecase.ConsensusService,
	recomputeService *usecase.RecomputeService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:     matchService,
		scoringService:   scoringService,
		consensusService: consensusService,
		recomputeService: recomputeService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

// requirePrincipal reads the verified caller identity installed by
// RequireAuth.
func requirePrincipal(ctx context.Context, w http.ResponseWriter) (string, bool) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return "", false
	}
	return principal.UserID, true
}

type judgeAssignmentDTO struct {
	JudgeID string `json:"judgeId"`
	State   string `json:"state"`
	IsMain  bool   `json:"isMain"`
}

type matchDTO struct {
	ID             string               `json:"id"`
	HomeTeamID     string               `json:"homeTeamId"`
	AwayTeamID     string               `json:"awayTeamId"`
	ArenaID        string               `json:"arenaId,omitempty"`
	ScheduledAtUTC string               `json:"scheduledAtUtc"`
	Status         string               `json:"status"`
	Judges         []judgeAssignmentDTO `json:"judges"`
	EndComments    string               `json:"endComments,omitempty"`
	EndConfirmedBy []string             `json:"endConfirmedBy,omitempty"`
	CancelReason   string               `json:"cancelReason,omitempty"`
	ElapsedSeconds float64              `json:"elapsedSeconds"`
	Half           int                  `json:"half"`
}

type lineupDTO struct {
	MatchID        string            `json:"matchId"`
	TeamID         string            `json:"teamId"`
	Status         string            `json:"status"`
	RejectReason   string            `json:"rejectReason,omitempty"`
	Players        []lineupPlayerDTO `json:"players"`
	SubmittedAtUTC string            `json:"submittedAtUtc"`
}

type lineupPlayerDTO struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	IsCaptain bool   `json:"isCaptain"`
}

type judgeScoreDTO struct {
	MatchID        string             `json:"matchId"`
	TeamID         string             `json:"teamId"`
	JudgeID        string             `json:"judgeId"`
	Criteria       map[string]float64 `json:"criteria"`
	Comments       string             `json:"comments,omitempty"`
	IsLocked       bool               `json:"isLocked"`
	SubmittedAtUTC string             `json:"submittedAtUtc"`
	LockedAtUTC    string             `json:"lockedAtUtc,omitempty"`
}

type signatureDTO struct {
	MatchID        string `json:"matchId"`
	JudgeID        string `json:"judgeId"`
	SignedAtUTC    string `json:"signedAtUtc"`
	QuorumComplete bool   `json:"quorumComplete"`
}

type teamResultDTO struct {
	TeamID     string  `json:"teamId"`
	AIScore    float64 `json:"aiScore"`
	HumanScore float64 `json:"humanScore"`
	FinalScore float64 `json:"finalScore"`
}

type finalResultDTO struct {
	MatchID        string        `json:"matchId"`
	Home           teamResultDTO `json:"home"`
	Away           teamResultDTO `json:"away"`
	WinnerTeamID   string        `json:"winnerTeamId"`
	TieBreakReason string        `json:"tieBreakReason,omitempty"`
	FinalizedAtUTC string        `json:"finalizedAtUtc"`
}

func matchViewToDTO(ctx context.Context, v usecase.MatchView) matchDTO {
	ctx, span := startSpan(ctx, "httpapi.matchViewToDTO")
	defer span.End()

	judges := make([]judgeAssignmentDTO, 0, len(v.Match.Judges))
	for _, j := range v.Match.Judges {
		judges = append(judges, judgeAssignmentDTO{
			JudgeID: j.JudgeID,
			State:   string(j.State),
			IsMain:  j.IsMain,
		})
	}

	return matchDTO{
		ID:             v.Match.ID,
		HomeTeamID:     v.Match.HomeTeamID,
		AwayTeamID:     v.Match.AwayTeamID,
		ArenaID:        v.Match.ArenaID,
		ScheduledAtUTC: v.Match.ScheduledAt.UTC().Format(time.RFC3339),
		Status:         string(v.Match.Status),
		Judges:         judges,
		EndComments:    v.Match.EndComments,
		EndConfirmedBy: append([]string(nil), v.Match.EndConfirmedBy...),
		CancelReason:   v.Match.CancelReason,
		ElapsedSeconds: v.ElapsedSeconds,
		Half:           v.Half,
	}
}

func lineupToDTO(ctx context.Context, item lineup.Lineup) lineupDTO {
	ctx, span := startSpan(ctx, "httpapi.lineupToDTO")
	defer span.End()

	players := make([]lineupPlayerDTO, 0, len(item.Players))
	for _, p := range item.Players {
		players = append(players, lineupPlayerDTO{
			PlayerID:  p.PlayerID,
			Name:      p.Name,
			Role:      string(p.Role),
			IsCaptain: p.IsCaptain,
		})
	}

	return lineupDTO{
		MatchID:        item.MatchID,
		TeamID:         item.TeamID,
		Status:         string(item.Status),
		RejectReason:   item.RejectReason,
		Players:        players,
		SubmittedAtUTC: item.SubmittedAt.UTC().Format(time.RFC3339),
	}
}

func judgeScoreToDTO(ctx context.Context, item judging.Score) judgeScoreDTO {
	ctx, span := startSpan(ctx, "httpapi.judgeScoreToDTO")
	defer span.End()

	criteria := make(map[string]float64, len(judging.Criteria))
	for _, criterion := range judging.Criteria {
		criteria[string(criterion)] = item.Criteria.Value(criterion)
	}

	dto := judgeScoreDTO{
		MatchID:        item.MatchID,
		TeamID:         item.TeamID,
		JudgeID:        item.JudgeID,
		Criteria:       criteria,
		Comments:       item.Comments,
		IsLocked:       item.IsLocked,
		SubmittedAtUTC: item.SubmittedAt.UTC().Format(time.RFC3339),
	}
	if item.LockedAt != nil {
		dto.LockedAtUTC = item.LockedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func signatureToDTO(ctx context.Context, item signature.Signature, quorumComplete bool) signatureDTO {
	ctx, span := startSpan(ctx, "httpapi.signatureToDTO")
	defer span.End()

	return signatureDTO{
		MatchID:        item.MatchID,
		JudgeID:        item.JudgeID,
		SignedAtUTC:    item.SignedAt.UTC().Format(time.RFC3339),
		QuorumComplete: quorumComplete,
	}
}

func finalResultToDTO(ctx context.Context, final result.FinalResult) finalResultDTO {
	ctx, span := startSpan(ctx, "httpapi.finalResultToDTO")
	defer span.End()

	return finalResultDTO{
		MatchID:        final.MatchID,
		Home:           teamResultToDTO(final.Home),
		Away:           teamResultToDTO(final.Away),
		WinnerTeamID:   final.WinnerTeamID,
		TieBreakReason: string(final.TieBreakReason),
		FinalizedAtUTC: final.FinalizedAt.UTC().Format(time.RFC3339),
	}
}

func teamResultToDTO(v result.TeamResult) teamResultDTO {
	return teamResultDTO{
		TeamID:     v.TeamID,
		AIScore:    v.AIScore,
		HumanScore: v.HumanScore,
		FinalScore: v.FinalScore,
	}
}
