package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const processedEventTTL = 24 * time.Hour

// ProcessedEventMarker keeps idempotency markers for handled event ids. The
// TTL bounds memory; anything redelivered later than that is handled again,
// which the idempotent handlers tolerate.
type ProcessedEventMarker struct {
	client  *redis.Client
	service string
}

func NewProcessedEventMarker(client *redis.Client, service string) *ProcessedEventMarker {
	return &ProcessedEventMarker{client: client, service: service}
}

func (m *ProcessedEventMarker) key(eventID string) string {
	return fmt.Sprintf("events:processed:%s:%s", m.service, eventID)
}

func (m *ProcessedEventMarker) Seen(ctx context.Context, eventID string) (bool, error) {
	n, err := m.client.Exists(ctx, m.key(eventID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *ProcessedEventMarker) Mark(ctx context.Context, eventID string) error {
	return m.client.SetNX(ctx, m.key(eventID), 1, processedEventTTL).Err()
}
