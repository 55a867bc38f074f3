package domain

import (
	"context"
	"time"
)

// Page bounds a list query. Limit <= 0 falls back to the store default.
type Page struct {
	Offset int
	Limit  int
}

// RfqFilter scopes RFQ list queries. Zero fields are ignored; InvitedVendorID
// matches RFQs whose invited-vendor list contains that vendor.
type RfqFilter struct {
	BuyerID         string
	Status          RfqStatus
	InvitedVendorID string
}

// QuoteFilter scopes Quote list queries.
type QuoteFilter struct {
	RfqID     string
	VendorID  string
	CreatedBy string
	Status    QuoteStatus
}

// Store interfaces. Get methods return (nil, nil) for an unknown id; Update
// returns ErrVersionConflict when the optimistic version check fails.
type RfqStore interface {
	CreateRfq(ctx context.Context, rfq *Rfq) error
	GetRfq(ctx context.Context, rfqID string) (*Rfq, error)
	FindRfqs(ctx context.Context, filter RfqFilter, page Page) ([]*Rfq, int, error)
	UpdateRfq(ctx context.Context, rfq *Rfq) error
	DeleteRfq(ctx context.Context, rfqID string) error
	FindExpiredPublished(ctx context.Context, before time.Time) ([]*Rfq, error)
}

type QuoteStore interface {
	CreateQuote(ctx context.Context, quote *Quote) error
	GetQuote(ctx context.Context, quoteID string) (*Quote, error)
	FindQuotes(ctx context.Context, filter QuoteFilter, page Page) ([]*Quote, int, error)
	FindQuotesByRfq(ctx context.Context, rfqID string) ([]*Quote, error)
	FindActiveQuote(ctx context.Context, rfqID, vendorID string) (*Quote, error)
	UpdateQuote(ctx context.Context, quote *Quote) error
	DeleteQuote(ctx context.Context, quoteID string) error
}

// Event interfaces
type EventPublisher interface {
	Publish(ctx context.Context, envelope *EventEnvelope) error
}

type EventHandler func(ctx context.Context, envelope *EventEnvelope) error

type EventSubscriber interface {
	Subscribe(ctx context.Context, handler EventHandler, events ...string) error
}

// ProcessedEventStore tracks handled event ids so redelivered events are
// skipped. Mark is only called after a handler succeeds.
type ProcessedEventStore interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}

// Notification interface
type UserNotifier interface {
	NotifyUser(ctx context.Context, userID string, message interface{}) error
}

// Leader election interface
type LeaderElection interface {
	BecomeLeader(ctx context.Context, instanceID string) (bool, error)
	IsLeader(ctx context.Context, instanceID string) (bool, error)
	ReleaseLeadership(ctx context.Context, instanceID string) error
}
