package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	sonic "github.com/bytedance/sonic"

	"github.com/lael-77/NDL-sub001/external/evaluator"
	"github.com/lael-77/NDL-sub001/internal/domain/match"
	"github.com/lael-77/NDL-sub001/internal/eventbus"
)

// startNotifierBridge forwards lifecycle and signature events to the queue
// so the scoreboard hears about them without polling. Delivery is
// best-effort; a failed enqueue is logged and the event dropped.
func (a *App) startNotifierBridge(ctx context.Context) error {
	statusCh, err := a.bus.Subscribe(ctx, eventbus.TopicMatchStatus)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", eventbus.TopicMatchStatus, err)
	}
	signatureCh, err := a.bus.Subscribe(ctx, eventbus.TopicSignatureRecorded)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", eventbus.TopicSignatureRecorded, err)
	}

	go a.forwardMatchStatus(ctx, statusCh)
	go a.forwardSignatures(ctx, signatureCh)
	return nil
}

func (a *App) forwardMatchStatus(ctx context.Context, ch <-chan *message.Message) {
	for msg := range ch {
		var event eventbus.MatchStatusChanged
		if err := sonic.Unmarshal(msg.Payload, &event); err != nil {
			a.logger.WarnContext(ctx, "drop malformed match status event", "error", err)
			msg.Ack()
			continue
		}

		dedupID := "match-status:" + event.MatchID + ":" + event.Status
		if err := a.notifier.Enqueue(ctx, "/v1/webhooks/match-status", event, 0, dedupID); err != nil {
			a.logger.WarnContext(ctx, "enqueue match status notification failed",
				"match_id", event.MatchID,
				"status", event.Status,
				"error", err,
			)
		}
		msg.Ack()
	}
}

func (a *App) forwardSignatures(ctx context.Context, ch <-chan *message.Message) {
	for msg := range ch {
		var event eventbus.SignatureRecorded
		if err := sonic.Unmarshal(msg.Payload, &event); err != nil {
			a.logger.WarnContext(ctx, "drop malformed signature event", "error", err)
			msg.Ack()
			continue
		}

		dedupID := "signature:" + event.MatchID + ":" + event.JudgeID
		if err := a.notifier.Enqueue(ctx, "/v1/webhooks/signature-recorded", event, 0, dedupID); err != nil {
			a.logger.WarnContext(ctx, "enqueue signature notification failed",
				"match_id", event.MatchID,
				"judge_id", event.JudgeID,
				"error", err,
			)
		}
		msg.Ack()
	}
}

// startEvaluatorBridge kicks off an AI evaluation run for both teams the
// moment a match goes in_progress. The verdict comes back later through the
// internal webhook.
func (a *App) startEvaluatorBridge(ctx context.Context) error {
	statusCh, err := a.bus.Subscribe(ctx, eventbus.TopicMatchStatus)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", eventbus.TopicMatchStatus, err)
	}

	go a.requestEvaluations(ctx, statusCh)
	return nil
}

func (a *App) requestEvaluations(ctx context.Context, ch <-chan *message.Message) {
	callbackBase := strings.TrimRight(a.cfg.NotifierTargetBaseURL, "/")

	for msg := range ch {
		var event eventbus.MatchStatusChanged
		if err := sonic.Unmarshal(msg.Payload, &event); err != nil {
			a.logger.WarnContext(ctx, "drop malformed match status event", "error", err)
			msg.Ack()
			continue
		}
		if event.Status != string(match.StatusInProgress) {
			msg.Ack()
			continue
		}

		m, exists, err := a.matchRepo.GetByID(ctx, event.MatchID)
		if err != nil || !exists {
			a.logger.WarnContext(ctx, "skip evaluation request for unknown match",
				"match_id", event.MatchID,
				"error", err,
			)
			msg.Ack()
			continue
		}

		for _, teamID := range m.TeamIDs() {
			reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			runID, err := a.evaluator.RequestEvaluation(reqCtx, evaluator.EvaluationRequest{
				MatchID: m.ID,
				TeamID:  teamID,
				CallbackURL: fmt.Sprintf("%s/v1/internal/matches/%s/teams/%s/evaluation",
					callbackBase, m.ID, teamID),
			})
			cancel()
			if err != nil {
				a.logger.WarnContext(ctx, "evaluation request failed",
					"match_id", m.ID,
					"team_id", teamID,
					"error", err,
				)
				continue
			}
			a.logger.InfoContext(ctx, "evaluation requested",
				"match_id", m.ID,
				"team_id", teamID,
				"run_id", runID,
			)
		}
		msg.Ack()
	}
}
