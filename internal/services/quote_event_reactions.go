package services

import (
	"context"

	"sourcing-system/internal/domain"
)

// RegisterQuoteReactions wires the quote service's consumer: expiry of draft
// quotes when their RFQ closes or expires, and re-execution of the sibling
// rejection half of the acceptance cascade on redelivery.
func RegisterQuoteReactions(el *EventListener, coordinator *QuoteCoordinator) {
	el.On(domain.EventRfqUpdated, func(ctx context.Context, envelope *domain.EventEnvelope) error {
		data, err := DecodeRfqEvent(envelope)
		if err != nil {
			return err
		}
		return coordinator.HandleRfqUpdated(ctx, data)
	})

	el.On(domain.EventQuoteAccepted, func(ctx context.Context, envelope *domain.EventEnvelope) error {
		data, err := DecodeQuoteEvent(envelope)
		if err != nil {
			return err
		}
		return coordinator.HandleQuoteAccepted(ctx, data)
	})
}
