package notifier

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"

	"github.com/prasetya/credit-ledger/internal/domain"
)

// NotificationSink receives notification intents computed by the sweep. The
// ledger only guarantees the decision to notify, never delivery; sinks are
// injected so tests can substitute fakes.
type NotificationSink interface {
	Emit(ctx context.Context, intent *domain.NotificationIntent) error
}

// LogSink writes intents to the process log. Used in development and as a
// fallback when no dispatcher is wired.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Emit(_ context.Context, intent *domain.NotificationIntent) error {
	log.Printf("notification intent: kind=%s customer=%s obligation=%s amount_due=%s",
		intent.Kind, intent.CustomerID, intent.ObligationID, intent.AmountDue)
	return nil
}

// RedisSink publishes intents as JSON on a Redis channel for the external
// notification dispatcher to consume.
type RedisSink struct {
	client  *redis.Client
	channel string
}

func NewRedisSink(client *redis.Client, channel string) *RedisSink {
	return &RedisSink{client: client, channel: channel}
}

func (s *RedisSink) Emit(ctx context.Context, intent *domain.NotificationIntent) error {
	payload, err := json.Marshal(intent)
	if err != nil {
		return err
	}

	return s.client.Publish(ctx, s.channel, payload).Err()
}
