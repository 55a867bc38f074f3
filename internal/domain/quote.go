package domain

import (
	"time"
)

type QuoteStatus string

const (
	QuoteDraft     QuoteStatus = "draft"
	QuoteSubmitted QuoteStatus = "submitted"
	QuoteAccepted  QuoteStatus = "accepted"
	QuoteRejected  QuoteStatus = "rejected"
	QuoteExpired   QuoteStatus = "expired"
)

func (s QuoteStatus) String() string { return string(s) }

func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteDraft, QuoteSubmitted, QuoteAccepted, QuoteRejected, QuoteExpired:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the quote can no longer be edited.
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteAccepted || s == QuoteRejected
}

// IsActive reports whether the quote still counts against the one-active-quote
// rule for its (rfq, vendor) pair.
func (s QuoteStatus) IsActive() bool {
	return s != QuoteRejected && s != QuoteExpired
}

type QuoteItem struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	Notes       string  `json:"notes,omitempty"`
}

type Quote struct {
	ID            string      `json:"id"`
	RfqID         string      `json:"rfq_id"`
	VendorID      string      `json:"vendor_id"`
	VendorName    string      `json:"vendor_name"`
	Items         []QuoteItem `json:"items"`
	TotalAmount   float64     `json:"total_amount"`
	DeliveryDate  *time.Time  `json:"delivery_date,omitempty"`
	ValidUntil    time.Time   `json:"valid_until"`
	PaymentTerms  string      `json:"payment_terms,omitempty"`
	ShippingTerms string      `json:"shipping_terms,omitempty"`
	Status        QuoteStatus `json:"status"`
	CreatedBy     string      `json:"created_by"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`

	Version int64 `json:"-"`
}
