package services

import (
	"context"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
)

// RegisterRfqReactions wires the rfq service's consumer: cascades driven by
// quote-originated events, plus user notifications. Notification failures are
// logged but never fail the handler — a dropped push must not block a cascade.
func RegisterRfqReactions(el *EventListener, coordinator *RfqCoordinator, notifier domain.UserNotifier, log logger.Logger) {
	el.On(domain.EventQuoteSubmitted, func(ctx context.Context, envelope *domain.EventEnvelope) error {
		data, err := DecodeQuoteEvent(envelope)
		if err != nil {
			return err
		}
		if err := coordinator.HandleQuoteSubmitted(ctx, data); err != nil {
			return err
		}

		if rfq, err := coordinator.GetRfqByID(ctx, data.RfqID); err == nil {
			notify(ctx, notifier, rfq.BuyerID, map[string]interface{}{
				"type":         "quote_submitted",
				"rfq_id":       data.RfqID,
				"quote_id":     data.ID,
				"vendor_name":  data.VendorName,
				"total_amount": data.TotalAmount,
			}, log)
		}
		return nil
	})

	el.On(domain.EventQuoteAccepted, func(ctx context.Context, envelope *domain.EventEnvelope) error {
		data, err := DecodeQuoteEvent(envelope)
		if err != nil {
			return err
		}
		if err := coordinator.HandleQuoteAccepted(ctx, data); err != nil {
			return err
		}

		notify(ctx, notifier, data.VendorID, map[string]interface{}{
			"type":     "quote_accepted",
			"rfq_id":   data.RfqID,
			"quote_id": data.ID,
		}, log)
		return nil
	})

	el.On(domain.EventRfqVendorsInvited, func(ctx context.Context, envelope *domain.EventEnvelope) error {
		data, err := DecodeRfqEvent(envelope)
		if err != nil {
			return err
		}
		for _, vendor := range data.InvitedVendors {
			if vendor.Status != domain.VendorPending {
				continue
			}
			notify(ctx, notifier, vendor.VendorID, map[string]interface{}{
				"type":      "rfq_invitation",
				"rfq_id":    data.ID,
				"rfq_title": data.Title,
			}, log)
		}
		return nil
	})
}

func notify(ctx context.Context, notifier domain.UserNotifier, userID string, message interface{}, log logger.Logger) {
	if notifier == nil || userID == "" {
		return
	}
	if err := notifier.NotifyUser(ctx, userID, message); err != nil {
		log.Warn("Failed to notify user", "user_id", userID, "error", err)
	}
}
