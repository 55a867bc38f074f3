package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
)

type RedisEventSubscriber struct {
	client *redis.Client
	log    logger.Logger
}

func NewEventSubscriber(client *redis.Client, log logger.Logger) *RedisEventSubscriber {
	return &RedisEventSubscriber{
		client: client,
		log:    log,
	}
}

// Subscribe consumes the given event channels until the context is
// cancelled. Handler errors are logged and the loop keeps going; the
// handler side is responsible for idempotency on redelivery.
func (s *RedisEventSubscriber) Subscribe(ctx context.Context, handler domain.EventHandler, events ...string) error {
	pubsub := s.client.Subscribe(ctx, events...)
	defer pubsub.Close()

	ch := pubsub.Channel()

	s.log.Info("Subscribed to events", "events", events)

	for {
		select {
		case msg := <-ch:
			envelope, err := parseEnvelope(msg.Payload)
			if err != nil {
				s.log.Error("Failed to parse event", "channel", msg.Channel, "payload", msg.Payload, "error", err)
				continue
			}

			if err := handler(ctx, envelope); err != nil {
				s.log.Error("Failed to handle event", "event", envelope.Event, "event_id", envelope.ID, "error", err)
			}

		case <-ctx.Done():
			s.log.Info("Event subscriber stopped")
			return ctx.Err()
		}
	}
}

func parseEnvelope(payload string) (*domain.EventEnvelope, error) {
	var envelope domain.EventEnvelope
	if err := json.Unmarshal([]byte(payload), &envelope); err != nil {
		return nil, fmt.Errorf("invalid event envelope: %w", err)
	}
	if envelope.Event == "" || envelope.ID == "" {
		return nil, fmt.Errorf("event envelope missing name or id: %s", payload)
	}
	return &envelope, nil
}
