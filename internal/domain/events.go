package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event names double as broker routing keys.
const (
	EventRfqCreated        = "rfq.created"
	EventRfqUpdated        = "rfq.updated"
	EventRfqVendorsInvited = "rfq.vendors.invited"
	EventQuoteSubmitted    = "quote.submitted"
	EventQuoteAccepted     = "quote.accepted"
)

// EventEnvelope is the wire format shared by both services. ID is the
// idempotency key consumers dedup on: delivery is at-least-once.
type EventEnvelope struct {
	Event string          `json:"event"`
	ID    string          `json:"id"`
	Data  json.RawMessage `json:"data"`
}

func NewEventEnvelope(event string, data interface{}) (*EventEnvelope, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &EventEnvelope{
		Event: event,
		ID:    uuid.NewString(),
		Data:  raw,
	}, nil
}

// RfqEventData is carried by rfq.created, rfq.updated and rfq.vendors.invited.
type RfqEventData struct {
	ID             string          `json:"id"`
	BuyerID        string          `json:"buyer_id"`
	Title          string          `json:"title"`
	Status         RfqStatus       `json:"status"`
	InvitedVendors []InvitedVendor `json:"invited_vendors"`
}

// QuoteEventData is carried by quote.submitted and quote.accepted.
type QuoteEventData struct {
	ID           string     `json:"id"`
	RfqID        string     `json:"rfq_id"`
	VendorID     string     `json:"vendor_id"`
	VendorName   string     `json:"vendor_name"`
	TotalAmount  float64    `json:"total_amount"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

func RfqEventFrom(rfq *Rfq) RfqEventData {
	return RfqEventData{
		ID:             rfq.ID,
		BuyerID:        rfq.BuyerID,
		Title:          rfq.Title,
		Status:         rfq.Status,
		InvitedVendors: rfq.InvitedVendors,
	}
}

func QuoteEventFrom(quote *Quote) QuoteEventData {
	return QuoteEventData{
		ID:           quote.ID,
		RfqID:        quote.RfqID,
		VendorID:     quote.VendorID,
		VendorName:   quote.VendorName,
		TotalAmount:  quote.TotalAmount,
		DeliveryDate: quote.DeliveryDate,
	}
}
