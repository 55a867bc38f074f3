package services

import (
	"context"
	"time"

	"sourcing-system/internal/domain"
	"sourcing-system/pkg/logger"
	"sourcing-system/pkg/utils"
)

type CreateRfqInput struct {
	Title           string
	Description     string
	BuyerID         string
	BuyerName       string
	Items           []domain.RfqItem
	DeliveryAddress string
	DeliveryDate    *time.Time
	TargetPrice     *float64
	Status          domain.RfqStatus
	ExpiryDate      *time.Time
	InvitedVendors  []VendorInvite
}

type UpdateRfqInput struct {
	Title           *string
	Description     *string
	Items           *[]domain.RfqItem
	DeliveryAddress *string
	DeliveryDate    *time.Time
	TargetPrice     *float64
	Status          *domain.RfqStatus
	ExpiryDate      *time.Time
}

type VendorInvite struct {
	VendorID   string
	VendorName string
}

// RfqCoordinator owns the RFQ lifecycle and reacts to quote-originated
// events published by the quote service.
type RfqCoordinator struct {
	rfqs          domain.RfqStore
	eventPub      domain.EventPublisher
	rfqExpiryDays int
	log           logger.Logger
}

func NewRfqCoordinator(rfqs domain.RfqStore, eventPub domain.EventPublisher, rfqExpiryDays int, log logger.Logger) *RfqCoordinator {
	return &RfqCoordinator{
		rfqs:          rfqs,
		eventPub:      eventPub,
		rfqExpiryDays: rfqExpiryDays,
		log:           log,
	}
}

func (c *RfqCoordinator) CreateRfq(ctx context.Context, input CreateRfqInput, caller domain.CallerContext) (*domain.Rfq, error) {
	if caller.Role != domain.RoleBuyer && !caller.IsAdmin() {
		return nil, domain.NewAuthorizationError("only buyers can create RFQs")
	}

	for _, item := range input.Items {
		if item.Quantity < 1 {
			return nil, domain.NewValidationError("item %s: quantity must be at least 1", item.ProductID)
		}
	}

	status := input.Status
	if status == "" {
		status = domain.RfqDraft
	}
	if !status.IsValid() {
		return nil, domain.NewValidationError("invalid RFQ status %q", status)
	}

	now := time.Now()
	rfq := &domain.Rfq{
		ID:              utils.GenerateID("rfq"),
		Title:           input.Title,
		Description:     input.Description,
		BuyerID:         input.BuyerID,
		BuyerName:       input.BuyerName,
		Items:           input.Items,
		DeliveryAddress: input.DeliveryAddress,
		DeliveryDate:    input.DeliveryDate,
		TargetPrice:     input.TargetPrice,
		Status:          status,
		CreatedBy:       caller.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if rfq.BuyerID == "" {
		rfq.BuyerID = caller.ID
	}
	if rfq.BuyerName == "" {
		rfq.BuyerName = caller.Name
	}
	if input.ExpiryDate != nil {
		rfq.ExpiryDate = *input.ExpiryDate
	} else {
		rfq.ExpiryDate = now.AddDate(0, 0, c.rfqExpiryDays)
	}
	for _, invite := range input.InvitedVendors {
		rfq.UpsertInvitedVendor(invite.VendorID, invite.VendorName)
	}

	if err := c.rfqs.CreateRfq(ctx, rfq); err != nil {
		return nil, err
	}

	c.publish(ctx, domain.EventRfqCreated, domain.RfqEventFrom(rfq))
	c.log.Info("RFQ created", "rfq_id", rfq.ID, "buyer_id", rfq.BuyerID, "status", rfq.Status)
	return rfq, nil
}

func (c *RfqCoordinator) UpdateRfq(ctx context.Context, rfqID string, patch UpdateRfqInput, caller domain.CallerContext) (*domain.Rfq, error) {
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, domain.NewValidationError("invalid RFQ status %q", *patch.Status)
	}

	var updated *domain.Rfq
	var statusChanged bool

	err := retryOnVersionConflict(func() error {
		rfq, err := c.rfqs.GetRfq(ctx, rfqID)
		if err != nil {
			return err
		}
		if rfq == nil {
			return domain.NewNotFoundError("RFQ %s not found", rfqID)
		}
		if !CanMutate(rfq.CreatedBy, caller) {
			return domain.NewAuthorizationError("caller %s may not modify RFQ %s", caller.ID, rfqID)
		}

		previous := rfq.Status
		applyRfqPatch(rfq, patch)
		rfq.UpdatedAt = time.Now()

		if err := c.rfqs.UpdateRfq(ctx, rfq); err != nil {
			return err
		}
		updated = rfq
		statusChanged = rfq.Status != previous
		return nil
	})
	if err != nil {
		return nil, err
	}

	if statusChanged {
		c.publish(ctx, domain.EventRfqUpdated, domain.RfqEventFrom(updated))
	}
	c.log.Info("RFQ updated", "rfq_id", rfqID, "status", updated.Status, "status_changed", statusChanged)
	return updated, nil
}

func (c *RfqCoordinator) InviteVendors(ctx context.Context, rfqID string, vendors []VendorInvite, caller domain.CallerContext) (*domain.Rfq, error) {
	var updated *domain.Rfq

	err := retryOnVersionConflict(func() error {
		rfq, err := c.rfqs.GetRfq(ctx, rfqID)
		if err != nil {
			return err
		}
		if rfq == nil {
			return domain.NewNotFoundError("RFQ %s not found", rfqID)
		}
		if !CanMutate(rfq.CreatedBy, caller) {
			return domain.NewAuthorizationError("caller %s may not modify RFQ %s", caller.ID, rfqID)
		}
		if !rfq.Status.IsOpen() {
			return domain.NewValidationError("cannot invite vendors to a %s RFQ", rfq.Status)
		}

		for _, invite := range vendors {
			rfq.UpsertInvitedVendor(invite.VendorID, invite.VendorName)
		}
		rfq.UpdatedAt = time.Now()

		if err := c.rfqs.UpdateRfq(ctx, rfq); err != nil {
			return err
		}
		updated = rfq
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.publish(ctx, domain.EventRfqVendorsInvited, domain.RfqEventFrom(updated))
	c.log.Info("Vendors invited", "rfq_id", rfqID, "count", len(vendors))
	return updated, nil
}

func (c *RfqCoordinator) UpdateVendorStatus(ctx context.Context, rfqID, vendorID string, status domain.VendorStatus, caller domain.CallerContext) (*domain.Rfq, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("invalid vendor status %q", status)
	}

	var updated *domain.Rfq

	err := retryOnVersionConflict(func() error {
		rfq, err := c.rfqs.GetRfq(ctx, rfqID)
		if err != nil {
			return err
		}
		if rfq == nil {
			return domain.NewNotFoundError("RFQ %s not found", rfqID)
		}
		if !CanMutate(rfq.CreatedBy, caller) {
			return domain.NewAuthorizationError("caller %s may not modify RFQ %s", caller.ID, rfqID)
		}

		entry := rfq.InvitedVendor(vendorID)
		if entry == nil {
			return domain.NewNotFoundError("vendor %s is not invited to RFQ %s", vendorID, rfqID)
		}
		entry.Status = status
		rfq.UpdatedAt = time.Now()

		if err := c.rfqs.UpdateRfq(ctx, rfq); err != nil {
			return err
		}
		updated = rfq
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.log.Info("Vendor status updated", "rfq_id", rfqID, "vendor_id", vendorID, "status", status)
	return updated, nil
}

func (c *RfqCoordinator) DeleteRfq(ctx context.Context, rfqID string, caller domain.CallerContext) error {
	rfq, err := c.rfqs.GetRfq(ctx, rfqID)
	if err != nil {
		return err
	}
	if rfq == nil {
		return domain.NewNotFoundError("RFQ %s not found", rfqID)
	}
	if !CanMutate(rfq.CreatedBy, caller) {
		return domain.NewAuthorizationError("caller %s may not delete RFQ %s", caller.ID, rfqID)
	}

	if err := c.rfqs.DeleteRfq(ctx, rfqID); err != nil {
		return err
	}
	c.log.Info("RFQ deleted", "rfq_id", rfqID)
	return nil
}

func (c *RfqCoordinator) GetRfqByID(ctx context.Context, rfqID string) (*domain.Rfq, error) {
	rfq, err := c.rfqs.GetRfq(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq == nil {
		return nil, domain.NewNotFoundError("RFQ %s not found", rfqID)
	}
	return rfq, nil
}

func (c *RfqCoordinator) ListRfqs(ctx context.Context, filter domain.RfqFilter, page domain.Page, caller domain.CallerContext) ([]*domain.Rfq, int, error) {
	return c.rfqs.FindRfqs(ctx, ScopeRfqFilter(filter, caller), page)
}

// HandleQuoteSubmitted reacts to quote.submitted: a pending invitation flips
// to accepted once the vendor has actually quoted. Safe on redelivery.
func (c *RfqCoordinator) HandleQuoteSubmitted(ctx context.Context, data domain.QuoteEventData) error {
	return retryOnVersionConflict(func() error {
		rfq, err := c.rfqs.GetRfq(ctx, data.RfqID)
		if err != nil {
			return err
		}
		if rfq == nil {
			c.log.Warn("quote.submitted for unknown RFQ", "rfq_id", data.RfqID, "quote_id", data.ID)
			return nil
		}

		entry := rfq.InvitedVendor(data.VendorID)
		if entry == nil || entry.Status != domain.VendorPending {
			return nil
		}
		entry.Status = domain.VendorAccepted
		rfq.UpdatedAt = time.Now()
		return c.rfqs.UpdateRfq(ctx, rfq)
	})
}

// HandleQuoteAccepted reacts to quote.accepted: the RFQ closes. A no-op when
// already closed, so redelivery is harmless.
func (c *RfqCoordinator) HandleQuoteAccepted(ctx context.Context, data domain.QuoteEventData) error {
	return retryOnVersionConflict(func() error {
		rfq, err := c.rfqs.GetRfq(ctx, data.RfqID)
		if err != nil {
			return err
		}
		if rfq == nil {
			c.log.Warn("quote.accepted for unknown RFQ", "rfq_id", data.RfqID, "quote_id", data.ID)
			return nil
		}
		if rfq.Status == domain.RfqClosed {
			return nil
		}

		rfq.Status = domain.RfqClosed
		rfq.UpdatedAt = time.Now()
		if err := c.rfqs.UpdateRfq(ctx, rfq); err != nil {
			return err
		}
		c.log.Info("RFQ closed after quote acceptance", "rfq_id", rfq.ID, "quote_id", data.ID)
		return nil
	})
}

// ExpireOverdueRfqs flips published RFQs whose expiry date has passed to
// expired and publishes rfq.updated so draft quotes get expired downstream.
// Called from the leader-gated sweep.
func (c *RfqCoordinator) ExpireOverdueRfqs(ctx context.Context) error {
	overdue, err := c.rfqs.FindExpiredPublished(ctx, time.Now())
	if err != nil {
		return err
	}

	for _, candidate := range overdue {
		rfqID := candidate.ID
		var expired *domain.Rfq

		err := retryOnVersionConflict(func() error {
			rfq, err := c.rfqs.GetRfq(ctx, rfqID)
			if err != nil {
				return err
			}
			if rfq == nil || rfq.Status != domain.RfqPublished {
				return nil
			}
			rfq.Status = domain.RfqExpired
			rfq.UpdatedAt = time.Now()
			if err := c.rfqs.UpdateRfq(ctx, rfq); err != nil {
				return err
			}
			expired = rfq
			return nil
		})
		if err != nil {
			c.log.Error("Failed to expire RFQ", "rfq_id", rfqID, "error", err)
			continue
		}
		if expired != nil {
			c.publish(ctx, domain.EventRfqUpdated, domain.RfqEventFrom(expired))
			c.log.Info("RFQ expired by sweep", "rfq_id", rfqID)
		}
	}
	return nil
}

func (c *RfqCoordinator) publish(ctx context.Context, event string, data interface{}) {
	envelope, err := domain.NewEventEnvelope(event, data)
	if err != nil {
		c.log.Error("Failed to build event envelope", "event", event, "error", err)
		return
	}
	if err := c.eventPub.Publish(ctx, envelope); err != nil {
		c.log.Error("Failed to publish event", "event", event, "error", err)
	}
}

func applyRfqPatch(rfq *domain.Rfq, patch UpdateRfqInput) {
	if patch.Title != nil {
		rfq.Title = *patch.Title
	}
	if patch.Description != nil {
		rfq.Description = *patch.Description
	}
	if patch.Items != nil {
		rfq.Items = *patch.Items
	}
	if patch.DeliveryAddress != nil {
		rfq.DeliveryAddress = *patch.DeliveryAddress
	}
	if patch.DeliveryDate != nil {
		rfq.DeliveryDate = patch.DeliveryDate
	}
	if patch.TargetPrice != nil {
		rfq.TargetPrice = patch.TargetPrice
	}
	if patch.Status != nil {
		rfq.Status = *patch.Status
	}
	if patch.ExpiryDate != nil {
		rfq.ExpiryDate = *patch.ExpiryDate
	}
}
