package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sourcing-system/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

// memoryRfqStore mimics the document store: reads hand out copies, saves are
// version checked.
type memoryRfqStore struct {
	mu   sync.Mutex
	rfqs map[string]*domain.Rfq
}

func newMemoryRfqStore() *memoryRfqStore {
	return &memoryRfqStore{rfqs: make(map[string]*domain.Rfq)}
}

func cloneRfq(r *domain.Rfq) *domain.Rfq {
	raw, _ := json.Marshal(r)
	var out domain.Rfq
	_ = json.Unmarshal(raw, &out)
	out.Version = r.Version
	return &out
}

func (s *memoryRfqStore) CreateRfq(_ context.Context, rfq *domain.Rfq) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rfq.Version = 1
	s.rfqs[rfq.ID] = cloneRfq(rfq)
	return nil
}

func (s *memoryRfqStore) GetRfq(_ context.Context, rfqID string) (*domain.Rfq, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rfqs[rfqID]
	if !ok {
		return nil, nil
	}
	return cloneRfq(stored), nil
}

func (s *memoryRfqStore) FindRfqs(_ context.Context, filter domain.RfqFilter, _ domain.Page) ([]*domain.Rfq, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Rfq
	for _, stored := range s.rfqs {
		if filter.BuyerID != "" && stored.BuyerID != filter.BuyerID {
			continue
		}
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}
		if filter.InvitedVendorID != "" && stored.InvitedVendor(filter.InvitedVendorID) == nil {
			continue
		}
		out = append(out, cloneRfq(stored))
	}
	return out, len(out), nil
}

func (s *memoryRfqStore) UpdateRfq(_ context.Context, rfq *domain.Rfq) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.rfqs[rfq.ID]
	if !ok || stored.Version != rfq.Version {
		return domain.ErrVersionConflict
	}
	rfq.Version++
	s.rfqs[rfq.ID] = cloneRfq(rfq)
	return nil
}

func (s *memoryRfqStore) DeleteRfq(_ context.Context, rfqID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rfqs, rfqID)
	return nil
}

func (s *memoryRfqStore) FindExpiredPublished(_ context.Context, before time.Time) ([]*domain.Rfq, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Rfq
	for _, stored := range s.rfqs {
		if stored.Status == domain.RfqPublished && !stored.ExpiryDate.After(before) {
			out = append(out, cloneRfq(stored))
		}
	}
	return out, nil
}

type memoryQuoteStore struct {
	mu     sync.Mutex
	quotes map[string]*domain.Quote
}

func newMemoryQuoteStore() *memoryQuoteStore {
	return &memoryQuoteStore{quotes: make(map[string]*domain.Quote)}
}

func cloneQuote(q *domain.Quote) *domain.Quote {
	raw, _ := json.Marshal(q)
	var out domain.Quote
	_ = json.Unmarshal(raw, &out)
	out.Version = q.Version
	return &out
}

func (s *memoryQuoteStore) CreateQuote(_ context.Context, quote *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	quote.Version = 1
	s.quotes[quote.ID] = cloneQuote(quote)
	return nil
}

func (s *memoryQuoteStore) GetQuote(_ context.Context, quoteID string) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.quotes[quoteID]
	if !ok {
		return nil, nil
	}
	return cloneQuote(stored), nil
}

func (s *memoryQuoteStore) FindQuotes(_ context.Context, filter domain.QuoteFilter, _ domain.Page) ([]*domain.Quote, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Quote
	for _, stored := range s.quotes {
		if filter.RfqID != "" && stored.RfqID != filter.RfqID {
			continue
		}
		if filter.VendorID != "" && stored.VendorID != filter.VendorID {
			continue
		}
		if filter.CreatedBy != "" && stored.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Status != "" && stored.Status != filter.Status {
			continue
		}
		out = append(out, cloneQuote(stored))
	}
	return out, len(out), nil
}

func (s *memoryQuoteStore) FindQuotesByRfq(_ context.Context, rfqID string) ([]*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Quote
	for _, stored := range s.quotes {
		if stored.RfqID == rfqID {
			out = append(out, cloneQuote(stored))
		}
	}
	return out, nil
}

func (s *memoryQuoteStore) FindActiveQuote(_ context.Context, rfqID, vendorID string) (*domain.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, stored := range s.quotes {
		if stored.RfqID == rfqID && stored.VendorID == vendorID && stored.Status.IsActive() {
			return cloneQuote(stored), nil
		}
	}
	return nil, nil
}

func (s *memoryQuoteStore) UpdateQuote(_ context.Context, quote *domain.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.quotes[quote.ID]
	if !ok || stored.Version != quote.Version {
		return domain.ErrVersionConflict
	}
	quote.Version++
	s.quotes[quote.ID] = cloneQuote(quote)
	return nil
}

func (s *memoryQuoteStore) DeleteQuote(_ context.Context, quoteID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.quotes, quoteID)
	return nil
}

// memoryEventBus records published envelopes for assertions.
type memoryEventBus struct {
	mu        sync.Mutex
	envelopes []*domain.EventEnvelope
}

func (b *memoryEventBus) Publish(_ context.Context, envelope *domain.EventEnvelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.envelopes = append(b.envelopes, envelope)
	return nil
}

func (b *memoryEventBus) byEvent(event string) []*domain.EventEnvelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []*domain.EventEnvelope
	for _, envelope := range b.envelopes {
		if envelope.Event == event {
			out = append(out, envelope)
		}
	}
	return out
}

type memoryProcessedStore struct {
	mu      sync.Mutex
	seen    map[string]bool
	seenErr error
}

func newMemoryProcessedStore() *memoryProcessedStore {
	return &memoryProcessedStore{seen: make(map[string]bool)}
}

func (s *memoryProcessedStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seenErr != nil {
		return false, s.seenErr
	}
	return s.seen[eventID], nil
}

func (s *memoryProcessedStore) Mark(_ context.Context, eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen[eventID] = true
	return nil
}

// conflictingRfqStore fails the first n saves with a version conflict.
type conflictingRfqStore struct {
	*memoryRfqStore
	mu        sync.Mutex
	conflicts int
}

func (s *conflictingRfqStore) UpdateRfq(ctx context.Context, rfq *domain.Rfq) error {
	s.mu.Lock()
	remaining := s.conflicts
	if remaining > 0 {
		s.conflicts--
	}
	s.mu.Unlock()
	if remaining > 0 {
		return domain.ErrVersionConflict
	}
	return s.memoryRfqStore.UpdateRfq(ctx, rfq)
}
