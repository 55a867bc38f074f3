package services

import (
	"context"
	"encoding/json"
	"fmt"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
)

// EventListener runs one service's consumer loop: it subscribes to a set of
// event names and dispatches each envelope to a registered handler, guarded
// by an idempotency marker. The marker is written only after the handler
// succeeds, so a failed handler gets another chance on redelivery while a
// processed duplicate is skipped.
type EventListener struct {
	service   string
	processed domain.ProcessedEventStore
	handlers  map[string]domain.EventHandler
	log       logger.Logger
}

func NewEventListener(service string, processed domain.ProcessedEventStore, log logger.Logger) *EventListener {
	return &EventListener{
		service:   service,
		processed: processed,
		handlers:  make(map[string]domain.EventHandler),
		log:       log,
	}
}

// On registers a handler for an event name. Not safe to call after Start.
func (el *EventListener) On(event string, handler domain.EventHandler) {
	el.handlers[event] = handler
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	events := make([]string, 0, len(el.handlers))
	for event := range el.handlers {
		events = append(events, event)
	}
	el.log.Info("Starting event listener", "service", el.service, "events", events)
	return subscriber.Subscribe(ctx, el.handleEvent, events...)
}

func (el *EventListener) handleEvent(ctx context.Context, envelope *domain.EventEnvelope) error {
	handler, ok := el.handlers[envelope.Event]
	if !ok {
		return fmt.Errorf("no handler registered for event %q", envelope.Event)
	}

	seen, err := el.processed.Seen(ctx, envelope.ID)
	if err != nil {
		el.log.Error("Failed to check idempotency marker", "event", envelope.Event, "event_id", envelope.ID, "error", err)
		// Fall through and handle anyway: handlers are idempotent, a
		// duplicate run beats a dropped event.
	} else if seen {
		eventsDuplicate.WithLabelValues(el.service, envelope.Event).Inc()
		el.log.Debug("Skipping already-processed event", "event", envelope.Event, "event_id", envelope.ID)
		return nil
	}

	if err := handler(ctx, envelope); err != nil {
		eventsFailed.WithLabelValues(el.service, envelope.Event).Inc()
		el.log.Error("Event handler failed", "event", envelope.Event, "event_id", envelope.ID, "error", err)
		return err
	}

	if err := el.processed.Mark(ctx, envelope.ID); err != nil {
		el.log.Error("Failed to write idempotency marker", "event", envelope.Event, "event_id", envelope.ID, "error", err)
	}
	eventsProcessed.WithLabelValues(el.service, envelope.Event).Inc()
	return nil
}

// DecodeRfqEvent unmarshals an envelope carrying RfqEventData.
func DecodeRfqEvent(envelope *domain.EventEnvelope) (domain.RfqEventData, error) {
	var data domain.RfqEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return data, fmt.Errorf("decoding %s payload: %w", envelope.Event, err)
	}
	return data, nil
}

// DecodeQuoteEvent unmarshals an envelope carrying QuoteEventData.
func DecodeQuoteEvent(envelope *domain.EventEnvelope) (domain.QuoteEventData, error) {
	var data domain.QuoteEventData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return data, fmt.Errorf("decoding %s payload: %w", envelope.Event, err)
	}
	return data, nil
}
