package domain

import (
	"time"
)

type RfqStatus string

const (
	RfqDraft     RfqStatus = "draft"
	RfqPublished RfqStatus = "published"
	RfqClosed    RfqStatus = "closed"
	RfqExpired   RfqStatus = "expired"
	RfqCancelled RfqStatus = "cancelled"
)

func (s RfqStatus) String() string { return string(s) }

func (s RfqStatus) IsValid() bool {
	switch s {
	case RfqDraft, RfqPublished, RfqClosed, RfqExpired, RfqCancelled:
		return true
	default:
		return false
	}
}

// IsOpen reports whether the RFQ still accepts vendor invitations.
func (s RfqStatus) IsOpen() bool {
	return s == RfqDraft || s == RfqPublished
}

type VendorStatus string

const (
	VendorPending  VendorStatus = "pending"
	VendorAccepted VendorStatus = "accepted"
	VendorDeclined VendorStatus = "declined"
)

func (s VendorStatus) IsValid() bool {
	switch s {
	case VendorPending, VendorAccepted, VendorDeclined:
		return true
	default:
		return false
	}
}

type RfqItem struct {
	ProductID      string                 `json:"product_id"`
	ProductName    string                 `json:"product_name"`
	Quantity       int                    `json:"quantity"`
	Unit           string                 `json:"unit"`
	Specifications map[string]interface{} `json:"specifications,omitempty"`
}

type InvitedVendor struct {
	VendorID   string       `json:"vendor_id"`
	VendorName string       `json:"vendor_name"`
	InvitedAt  time.Time    `json:"invited_at"`
	Status     VendorStatus `json:"status"`
}

type Rfq struct {
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description"`
	BuyerID         string          `json:"buyer_id"`
	BuyerName       string          `json:"buyer_name"`
	Items           []RfqItem       `json:"items"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	TargetPrice     *float64        `json:"target_price,omitempty"`
	Status          RfqStatus       `json:"status"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	InvitedVendors  []InvitedVendor `json:"invited_vendors"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Version is the optimistic-concurrency token maintained by the store.
	// It never travels over the wire.
	Version int64 `json:"-"`
}

// UpsertInvitedVendor adds or refreshes a vendor entry keyed by vendor id.
// Re-inviting updates name and timestamp in place and keeps the vendor's
// current status; a fresh entry starts out pending.
func (r *Rfq) UpsertInvitedVendor(vendorID, vendorName string) {
	for i := range r.InvitedVendors {
		if r.InvitedVendors[i].VendorID == vendorID {
			r.InvitedVendors[i].VendorName = vendorName
			r.InvitedVendors[i].InvitedAt = time.Now()
			return
		}
	}
	r.InvitedVendors = append(r.InvitedVendors, InvitedVendor{
		VendorID:   vendorID,
		VendorName: vendorName,
		InvitedAt:  time.Now(),
		Status:     VendorPending,
	})
}

// InvitedVendor returns the entry for vendorID, or nil if the vendor was
// never invited.
func (r *Rfq) InvitedVendor(vendorID string) *InvitedVendor {
	for i := range r.InvitedVendors {
		if r.InvitedVendors[i].VendorID == vendorID {
			return &r.InvitedVendors[i]
		}
	}
	return nil
}
