package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"sourcing-system/internal/domain"
)

// EventPublisherImpl publishes envelopes to the channel named after the
// event, so the event name acts as the routing key.
type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (p *EventPublisherImpl) Publish(ctx context.Context, envelope *domain.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	return p.client.Publish(ctx, envelope.Event, payload).Err()
}
