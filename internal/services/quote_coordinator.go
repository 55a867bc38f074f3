package services

import (
	"context"
	"time"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
	"sourcing-system/pkg/utils"
)

type CreateQuoteInput struct {
	RfqID         string
	VendorID      string
	VendorName    string
	Items         []domain.QuoteItem
	TotalAmount   float64
	DeliveryDate  *time.Time
	ValidUntil    *time.Time
	PaymentTerms  string
	ShippingTerms string
	Status        domain.QuoteStatus
}

type UpdateQuoteInput struct {
	Items         *[]domain.QuoteItem
	TotalAmount   *float64
	DeliveryDate  *time.Time
	ValidUntil    *time.Time
	PaymentTerms  *string
	ShippingTerms *string
	Status        *domain.QuoteStatus
}

// QuoteCoordinator owns the Quote lifecycle, the acceptance cascade, and the
// reaction to rfq.updated. It reads the RFQ aggregate to gate quote creation
// and submission but never writes it; RFQ-side effects travel over the bus.
type QuoteCoordinator struct {
	quotes          domain.QuoteStore
	rfqs            domain.RfqStore
	eventPub        domain.EventPublisher
	quoteExpiryDays int
	log             logger.Logger
}

func NewQuoteCoordinator(quotes domain.QuoteStore, rfqs domain.RfqStore, eventPub domain.EventPublisher, quoteExpiryDays int, log logger.Logger) *QuoteCoordinator {
	return &QuoteCoordinator{
		quotes:          quotes,
		rfqs:            rfqs,
		eventPub:        eventPub,
		quoteExpiryDays: quoteExpiryDays,
		log:             log,
	}
}

// CreateQuote creates a vendor's quote against a published RFQ. If the vendor
// already holds a draft for that RFQ the call updates the draft in place; any
// other live quote for the pair is a conflict.
func (c *QuoteCoordinator) CreateQuote(ctx context.Context, input CreateQuoteInput, caller domain.CallerContext) (*domain.Quote, error) {
	if caller.Role != domain.RoleVendor && !caller.IsAdmin() {
		return nil, domain.NewAuthorizationError("only vendors can create quotes")
	}

	status := input.Status
	if status == "" {
		status = domain.QuoteDraft
	}
	if status != domain.QuoteDraft && status != domain.QuoteSubmitted {
		return nil, domain.NewValidationError("a quote can only be created as draft or submitted, not %q", status)
	}

	rfq, err := c.rfqs.GetRfq(ctx, input.RfqID)
	if err != nil {
		return nil, err
	}
	if rfq == nil {
		return nil, domain.NewNotFoundError("RFQ %s not found", input.RfqID)
	}
	if rfq.Status != domain.RfqPublished {
		return nil, domain.NewValidationError("RFQ %s is %s, quotes are only accepted while it is published", rfq.ID, rfq.Status)
	}

	vendorID := input.VendorID
	if vendorID == "" {
		vendorID = caller.ID
	}
	vendorName := input.VendorName
	if vendorName == "" {
		vendorName = caller.Name
	}
	if rfq.InvitedVendor(vendorID) == nil {
		return nil, domain.NewAuthorizationError("vendor %s is not invited to RFQ %s", vendorID, rfq.ID)
	}

	existing, err := c.quotes.FindActiveQuote(ctx, rfq.ID, vendorID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var quote *domain.Quote

	if existing != nil {
		if existing.Status != domain.QuoteDraft {
			return nil, domain.NewConflictError("vendor %s already has a %s quote for RFQ %s", vendorID, existing.Status, rfq.ID)
		}
		// Re-creating over an existing draft updates it in place.
		err = retryOnVersionConflict(func() error {
			draft, err := c.quotes.GetQuote(ctx, existing.ID)
			if err != nil {
				return err
			}
			if draft == nil {
				return domain.NewNotFoundError("quote %s not found", existing.ID)
			}
			draft.Items = input.Items
			draft.TotalAmount = input.TotalAmount
			draft.DeliveryDate = input.DeliveryDate
			draft.PaymentTerms = input.PaymentTerms
			draft.ShippingTerms = input.ShippingTerms
			if input.ValidUntil != nil {
				draft.ValidUntil = *input.ValidUntil
			}
			draft.Status = status
			draft.UpdatedAt = now
			if err := c.quotes.UpdateQuote(ctx, draft); err != nil {
				return err
			}
			quote = draft
			return nil
		})
		if err != nil {
			return nil, err
		}
	} else {
		quote = &domain.Quote{
			ID:            utils.GenerateID("quote"),
			RfqID:         rfq.ID,
			VendorID:      vendorID,
			VendorName:    vendorName,
			Items:         input.Items,
			TotalAmount:   input.TotalAmount,
			DeliveryDate:  input.DeliveryDate,
			PaymentTerms:  input.PaymentTerms,
			ShippingTerms: input.ShippingTerms,
			Status:        status,
			CreatedBy:     caller.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if input.ValidUntil != nil {
			quote.ValidUntil = *input.ValidUntil
		} else {
			quote.ValidUntil = now.AddDate(0, 0, c.quoteExpiryDays)
		}
		if err := c.quotes.CreateQuote(ctx, quote); err != nil {
			return nil, err
		}
	}

	if quote.Status == domain.QuoteSubmitted {
		c.publish(ctx, domain.EventQuoteSubmitted, domain.QuoteEventFrom(quote))
	}
	c.log.Info("Quote saved", "quote_id", quote.ID, "rfq_id", quote.RfqID, "vendor_id", quote.VendorID, "status", quote.Status)
	return quote, nil
}

func (c *QuoteCoordinator) UpdateQuote(ctx context.Context, quoteID string, patch UpdateQuoteInput, caller domain.CallerContext) (*domain.Quote, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, domain.NewValidationError("invalid quote status %q", *patch.Status)
	}

	var updated *domain.Quote
	var previous domain.QuoteStatus

	err := retryOnVersionConflict(func() error {
		quote, err := c.quotes.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote == nil {
			return domain.NewNotFoundError("quote %s not found", quoteID)
		}
		if !CanMutate(quote.CreatedBy, caller) {
			return domain.NewAuthorizationError("caller %s may not modify quote %s", caller.ID, quoteID)
		}
		if quote.Status.IsTerminal() {
			return domain.NewValidationError("quote %s is %s and can no longer be edited", quoteID, quote.Status)
		}

		if patch.Status != nil && *patch.Status == domain.QuoteSubmitted && quote.Status != domain.QuoteSubmitted {
			rfq, err := c.rfqs.GetRfq(ctx, quote.RfqID)
			if err != nil {
				return err
			}
			if rfq == nil || rfq.Status != domain.RfqPublished {
				return domain.NewValidationError("quote %s cannot be submitted, RFQ %s is not published", quoteID, quote.RfqID)
			}
		}

		previous = quote.Status
		applyQuotePatch(quote, patch)
		quote.UpdatedAt = time.Now()

		if err := c.quotes.UpdateQuote(ctx, quote); err != nil {
			return err
		}
		updated = quote
		return nil
	})
	if err != nil {
		return nil, err
	}

	if updated.Status == domain.QuoteSubmitted && previous != domain.QuoteSubmitted {
		c.publish(ctx, domain.EventQuoteSubmitted, domain.QuoteEventFrom(updated))
	}
	if updated.Status == domain.QuoteAccepted && previous != domain.QuoteAccepted {
		c.publish(ctx, domain.EventQuoteAccepted, domain.QuoteEventFrom(updated))
		// The sibling half of the acceptance cascade runs here synchronously;
		// the RFQ-closing half happens in the rfq service reacting to the
		// event. RejectSiblings is idempotent and re-runs on redelivery.
		if err := c.RejectSiblings(ctx, updated.RfqID, updated.ID); err != nil {
			c.log.Error("Sibling rejection incomplete", "rfq_id", updated.RfqID, "accepted_quote_id", updated.ID, "error", err)
		}
	}

	c.log.Info("Quote updated", "quote_id", quoteID, "status", updated.Status)
	return updated, nil
}

func (c *QuoteCoordinator) DeleteQuote(ctx context.Context, quoteID string, caller domain.CallerContext) error {
	quote, err := c.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return err
	}
	if quote == nil {
		return domain.NewNotFoundError("quote %s not found", quoteID)
	}
	if !CanMutate(quote.CreatedBy, caller) {
		return domain.NewAuthorizationError("caller %s may not delete quote %s", caller.ID, quoteID)
	}
	if quote.Status != domain.QuoteDraft {
		return domain.NewValidationError("only draft quotes can be deleted, quote %s is %s", quoteID, quote.Status)
	}

	if err := c.quotes.DeleteQuote(ctx, quoteID); err != nil {
		return err
	}
	c.log.Info("Quote deleted", "quote_id", quoteID)
	return nil
}

func (c *QuoteCoordinator) GetQuoteByID(ctx context.Context, quoteID string) (*domain.Quote, error) {
	quote, err := c.quotes.GetQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if quote == nil {
		return nil, domain.NewNotFoundError("quote %s not found", quoteID)
	}
	return quote, nil
}

func (c *QuoteCoordinator) ListQuotes(ctx context.Context, filter domain.QuoteFilter, page domain.Page, caller domain.CallerContext) ([]*domain.Quote, int, error) {
	return c.quotes.FindQuotes(ctx, ScopeQuoteFilter(filter, caller), page)
}

// ListQuotesForRfq lists all quotes against one RFQ. The RFQ's creator and
// admins see everything; a vendor only sees their own quotes.
func (c *QuoteCoordinator) ListQuotesForRfq(ctx context.Context, rfqID string, caller domain.CallerContext) ([]*domain.Quote, error) {
	rfq, err := c.rfqs.GetRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq == nil {
		return nil, domain.NewNotFoundError("RFQ %s not found", rfqID)
	}

	quotes, err := c.quotes.FindQuotesByRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if CanMutate(rfq.CreatedBy, caller) {
		return quotes, nil
	}

	var own []*domain.Quote
	for _, quote := range quotes {
		if quote.CreatedBy == caller.ID || quote.VendorID == caller.ID {
			own = append(own, quote)
		}
	}
	return own, nil
}

// RejectSiblings enforces the acceptance invariant on the quote side: every
// quote for the RFQ other than the accepted one ends up rejected. Each
// sibling save is independently retried, so a partial run can be re-executed.
func (c *QuoteCoordinator) RejectSiblings(ctx context.Context, rfqID, acceptedQuoteID string) error {
	siblings, err := c.quotes.FindQuotesByRfq(ctx, rfqID)
	if err != nil {
		return err
	}

	var lastErr error
	for _, sibling := range siblings {
		if sibling.ID == acceptedQuoteID || sibling.Status == domain.QuoteRejected {
			continue
		}
		siblingID := sibling.ID
		err := retryOnVersionConflict(func() error {
			quote, err := c.quotes.GetQuote(ctx, siblingID)
			if err != nil {
				return err
			}
			if quote == nil || quote.Status == domain.QuoteRejected {
				return nil
			}
			quote.Status = domain.QuoteRejected
			quote.UpdatedAt = time.Now()
			return c.quotes.UpdateQuote(ctx, quote)
		})
		if err != nil {
			c.log.Error("Failed to reject sibling quote", "quote_id", siblingID, "rfq_id", rfqID, "error", err)
			lastErr = err
			continue
		}
		c.log.Info("Sibling quote rejected", "quote_id", siblingID, "rfq_id", rfqID)
	}
	return lastErr
}

// HandleQuoteAccepted re-runs the sibling rejection on redelivery of
// quote.accepted, making the cascade safe against a crash between the
// synchronous rejection pass and its completion.
func (c *QuoteCoordinator) HandleQuoteAccepted(ctx context.Context, data domain.QuoteEventData) error {
	return c.RejectSiblings(ctx, data.RfqID, data.ID)
}

// HandleRfqUpdated reacts to rfq.updated: when the RFQ has closed or expired,
// any quote still sitting in draft expires. Submitted quotes are untouched.
func (c *QuoteCoordinator) HandleRfqUpdated(ctx context.Context, data domain.RfqEventData) error {
	if data.Status != domain.RfqClosed && data.Status != domain.RfqExpired {
		return nil
	}

	quotes, err := c.quotes.FindQuotesByRfq(ctx, data.ID)
	if err != nil {
		return err
	}

	var lastErr error
	for _, candidate := range quotes {
		if candidate.Status != domain.QuoteDraft {
			continue
		}
		quoteID := candidate.ID
		err := retryOnVersionConflict(func() error {
			quote, err := c.quotes.GetQuote(ctx, quoteID)
			if err != nil {
				return err
			}
			if quote == nil || quote.Status != domain.QuoteDraft {
				return nil
			}
			quote.Status = domain.QuoteExpired
			quote.UpdatedAt = time.Now()
			return c.quotes.UpdateQuote(ctx, quote)
		})
		if err != nil {
			c.log.Error("Failed to expire draft quote", "quote_id", quoteID, "rfq_id", data.ID, "error", err)
			lastErr = err
			continue
		}
		c.log.Info("Draft quote expired", "quote_id", quoteID, "rfq_id", data.ID, "rfq_status", data.Status)
	}
	return lastErr
}

func (c *QuoteCoordinator) publish(ctx context.Context, event string, data interface{}) {
	envelope, err := domain.NewEventEnvelope(event, data)
	if err != nil {
		c.log.Error("Failed to build event envelope", "event", event, "error", err)
		return
	}
	if err := c.eventPub.Publish(ctx, envelope); err != nil {
		c.log.Error("Failed to publish event", "event", event, "error", err)
	}
}

func applyQuotePatch(quote *domain.Quote, patch UpdateQuoteInput) {
	if patch.Items != nil {
		quote.Items = *patch.Items
	}
	if patch.TotalAmount != nil {
		quote.TotalAmount = *patch.TotalAmount
	}
	if patch.DeliveryDate != nil {
		quote.DeliveryDate = patch.DeliveryDate
	}
	if patch.ValidUntil != nil {
		quote.ValidUntil = *patch.ValidUntil
	}
	if patch.PaymentTerms != nil {
		quote.PaymentTerms = *patch.PaymentTerms
	}
	if patch.ShippingTerms != nil {
		quote.ShippingTerms = *patch.ShippingTerms
	}
	if patch.Status != nil {
		quote.Status = *patch.Status
	}
}
