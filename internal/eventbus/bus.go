package eventbus

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	sonic "github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/lael-77/NDL-sub001/internal/platform/logging"
)

// Change-event topics. Subscribers use these to invalidate cached reads;
// delivery is best-effort and never required for correctness.
const (
	TopicMatchStatus       = "match.status"
	TopicTimerTick         = "timer.tick"
	TopicScoreUpdated      = "score.updated"
	TopicSignatureRecorded = "signature.recorded"
)

type MatchStatusChanged struct {
	MatchID string    `json:"match_id"`
	Status  string    `json:"status"`
	At      time.Time `json:"at"`
}

type TimerTick struct {
	MatchID        string  `json:"match_id"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Half           int     `json:"half"`
	IsRunning      bool    `json:"is_running"`
}

type ScoreUpdated struct {
	MatchID string `json:"match_id"`
	TeamID  string `json:"team_id"`
	JudgeID string `json:"judge_id,omitempty"`
	Source  string `json:"source"`
	Locked  bool   `json:"locked"`
}

type SignatureRecorded struct {
	MatchID string `json:"match_id"`
	JudgeID string `json:"judge_id"`
}

// Publisher is the narrow surface the lifecycle needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// Bus is an in-process pub/sub channel on watermill's gochannel transport.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *logging.Logger
}

func New(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Default()
	}
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger{logger: logger},
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

func (b *Bus) Publish(ctx context.Context, topic string, payload any) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), body)
	msg.SetContext(ctx)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	messages, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return messages, nil
}

func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// Decode unmarshals a message payload into out.
func Decode(msg *message.Message, out any) error {
	if err := sonic.Unmarshal(msg.Payload, out); err != nil {
		return fmt.Errorf("decode event payload: %w", err)
	}
	return nil
}

// watermillLogger bridges watermill's logging contract onto the service
// logger.
type watermillLogger struct {
	logger *logging.Logger
	fields watermill.LogFields
}

func (l watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.logger.Error(msg, append([]any{"error", err}, flatten(l.fields.Add(fields))...)...)
}

func (l watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.logger.Info(msg, flatten(l.fields.Add(fields))...)
}

func (l watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, flatten(l.fields.Add(fields))...)
}

func (l watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.logger.Debug(msg, flatten(l.fields.Add(fields))...)
}

func (l watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return watermillLogger{logger: l.logger, fields: l.fields.Add(fields)}
}

func flatten(fields watermill.LogFields) []any {
	out := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}
