package services

import (
	"context"
	"testing"
	"time"

	"sourcing-system/internal/domain"
)

func newQuoteFixture() (*QuoteCoordinator, *memoryQuoteStore, *memoryRfqStore, *memoryEventBus) {
	quotes := newMemoryQuoteStore()
	rfqs := newMemoryRfqStore()
	bus := &memoryEventBus{}
	return NewQuoteCoordinator(quotes, rfqs, bus, 14, nopLogger{}), quotes, rfqs, bus
}

func seedRfq(t *testing.T, store *memoryRfqStore, status domain.RfqStatus, vendorIDs ...string) *domain.Rfq {
	t.Helper()
	now := time.Now()
	rfq := &domain.Rfq{
		ID:         "rfq-1",
		Title:      "Seeded",
		BuyerID:    buyer.ID,
		Status:     status,
		ExpiryDate: now.Add(72 * time.Hour),
		CreatedBy:  buyer.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, id := range vendorIDs {
		rfq.UpsertInvitedVendor(id, "Vendor "+id)
	}
	if err := store.CreateRfq(context.Background(), rfq); err != nil {
		t.Fatalf("seeding RFQ failed: %v", err)
	}
	return rfq
}

func TestCreateQuote_DefaultsAndSubmitEvent(t *testing.T) {
	coordinator, _, rfqs, bus := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, vendor.ID)

	before := time.Now()
	draft, err := coordinator.CreateQuote(ctx, CreateQuoteInput{
		RfqID:       rfq.ID,
		Items:       []domain.QuoteItem{{ProductID: "p-1", Quantity: 500, UnitPrice: 2.5, TotalPrice: 1250}},
		TotalAmount: 1250,
	}, vendor)
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	if draft.Status != domain.QuoteDraft {
		t.Errorf("expected default status draft, got %s", draft.Status)
	}
	if draft.VendorID != vendor.ID || draft.VendorName != vendor.Name {
		t.Errorf("expected vendor identity from caller, got %s/%s", draft.VendorID, draft.VendorName)
	}
	wantValid := before.AddDate(0, 0, 14)
	if draft.ValidUntil.Before(wantValid.Add(-time.Minute)) || draft.ValidUntil.After(wantValid.Add(time.Minute)) {
		t.Errorf("expected valid_until around %v, got %v", wantValid, draft.ValidUntil)
	}
	if got := bus.byEvent(domain.EventQuoteSubmitted); len(got) != 0 {
		t.Fatalf("expected no quote.submitted for a draft, got %d", len(got))
	}

	// Re-creating over the draft submits it in place.
	submitted, err := coordinator.CreateQuote(ctx, CreateQuoteInput{
		RfqID:       rfq.ID,
		TotalAmount: 1200,
		Status:      domain.QuoteSubmitted,
	}, vendor)
	if err != nil {
		t.Fatalf("CreateQuote over draft failed: %v", err)
	}
	if submitted.ID != draft.ID {
		t.Errorf("expected the draft to be updated in place, got new quote %s", submitted.ID)
	}
	if submitted.Status != domain.QuoteSubmitted || submitted.TotalAmount != 1200 {
		t.Errorf("expected submitted/1200, got %s/%v", submitted.Status, submitted.TotalAmount)
	}
	if got := bus.byEvent(domain.EventQuoteSubmitted); len(got) != 1 {
		t.Fatalf("expected one quote.submitted, got %d", len(got))
	}
}

func TestCreateQuote_RequiresPublishedRfq(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	rfq := seedRfq(t, rfqs, domain.RfqDraft, vendor.ID)

	_, err := coordinator.CreateQuote(context.Background(), CreateQuoteInput{RfqID: rfq.ID}, vendor)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error quoting a draft RFQ, got %v", err)
	}
}

func TestCreateQuote_UnknownRfq(t *testing.T) {
	coordinator, _, _, _ := newQuoteFixture()

	_, err := coordinator.CreateQuote(context.Background(), CreateQuoteInput{RfqID: "rfq-missing"}, vendor)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCreateQuote_UninvitedVendor(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, "someone-else")

	_, err := coordinator.CreateQuote(context.Background(), CreateQuoteInput{RfqID: rfq.ID}, vendor)
	if !domain.IsAuthorization(err) {
		t.Fatalf("expected authorization error for uninvited vendor, got %v", err)
	}
}

func TestCreateQuote_OnlyVendorsAndAdmins(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, buyer.ID)

	_, err := coordinator.CreateQuote(context.Background(), CreateQuoteInput{RfqID: rfq.ID}, buyer)
	if !domain.IsAuthorization(err) {
		t.Fatalf("expected authorization error for buyer, got %v", err)
	}
}

func TestCreateQuote_SecondActiveQuoteConflicts(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, vendor.ID)

	if _, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, vendor); err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	_, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID}, vendor)
	if !domain.IsConflict(err) {
		t.Fatalf("expected conflict over an existing submitted quote, got %v", err)
	}
}

func TestCreateQuote_OnlyDraftOrSubmitted(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, vendor.ID)

	_, err := coordinator.CreateQuote(context.Background(), CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteAccepted}, vendor)
	if !domain.IsValidation(err) {
		t.Fatalf("expected validation error creating an accepted quote, got %v", err)
	}
}

func TestUpdateQuote_TerminalStatusesAreImmutable(t *testing.T) {
	coordinator, quotes, rfqs, _ := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, vendor.ID)

	quote, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, vendor)
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	accepted := domain.QuoteAccepted
	if _, err := coordinator.UpdateQuote(ctx, quote.ID, UpdateQuoteInput{Status: &accepted}, buyer); !domain.IsAuthorization(err) {
		// The quote belongs to the vendor; the buyer is not its creator.
		t.Fatalf("expected authorization error, got %v", err)
	}
	if _, err := coordinator.UpdateQuote(ctx, quote.ID, UpdateQuoteInput{Status: &accepted}, admin); err != nil {
		t.Fatalf("admin accept failed: %v", err)
	}

	amount := 999.0
	if _, err := coordinator.UpdateQuote(ctx, quote.ID, UpdateQuoteInput{TotalAmount: &amount}, admin); !domain.IsValidation(err) {
		t.Fatalf("expected accepted quote to be immutable, got %v", err)
	}

	stored, _ := quotes.GetQuote(ctx, quote.ID)
	if stored.Status != domain.QuoteAccepted {
		t.Errorf("expected accepted, got %s", stored.Status)
	}
}

func TestUpdateQuote_SubmitRequiresPublishedRfq(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, vendor.ID)

	quote, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID}, vendor)
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	// Close the RFQ underneath the draft.
	stored, _ := rfqs.GetRfq(ctx, rfq.ID)
	stored.Status = domain.RfqClosed
	if err := rfqs.UpdateRfq(ctx, stored); err != nil {
		t.Fatalf("closing RFQ failed: %v", err)
	}

	submitted := domain.QuoteSubmitted
	if _, err := coordinator.UpdateQuote(ctx, quote.ID, UpdateQuoteInput{Status: &submitted}, vendor); !domain.IsValidation(err) {
		t.Fatalf("expected validation error submitting against a closed RFQ, got %v", err)
	}
}

func TestAcceptanceCascade_RejectsSiblingsAndClosesRfq(t *testing.T) {
	coordinator, quotes, rfqs, bus := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, "vendor-1", "vendor-2", "vendor-3")

	callers := []domain.CallerContext{
		{ID: "vendor-1", Role: domain.RoleVendor, Name: "V1"},
		{ID: "vendor-2", Role: domain.RoleVendor, Name: "V2"},
		{ID: "vendor-3", Role: domain.RoleVendor, Name: "V3"},
	}
	var ids []string
	for _, caller := range callers {
		quote, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, caller)
		if err != nil {
			t.Fatalf("CreateQuote for %s failed: %v", caller.ID, err)
		}
		ids = append(ids, quote.ID)
	}

	accepted := domain.QuoteAccepted
	winner, err := coordinator.UpdateQuote(ctx, ids[0], UpdateQuoteInput{Status: &accepted}, callers[0])
	if err != nil {
		t.Fatalf("accepting quote failed: %v", err)
	}
	if winner.Status != domain.QuoteAccepted {
		t.Fatalf("expected accepted, got %s", winner.Status)
	}

	for _, id := range ids[1:] {
		sibling, _ := quotes.GetQuote(ctx, id)
		if sibling.Status != domain.QuoteRejected {
			t.Errorf("expected sibling %s rejected, got %s", id, sibling.Status)
		}
	}

	events := bus.byEvent(domain.EventQuoteAccepted)
	if len(events) != 1 {
		t.Fatalf("expected one quote.accepted event, got %d", len(events))
	}

	// The RFQ side of the cascade: feed the published event into an RFQ
	// coordinator sharing the store, as the consumer loop would.
	rfqCoordinator := NewRfqCoordinator(rfqs, bus, 7, nopLogger{})
	data, err := DecodeQuoteEvent(events[0])
	if err != nil {
		t.Fatalf("decoding quote.accepted failed: %v", err)
	}
	if err := rfqCoordinator.HandleQuoteAccepted(ctx, data); err != nil {
		t.Fatalf("HandleQuoteAccepted failed: %v", err)
	}
	closedRfq, _ := rfqs.GetRfq(ctx, rfq.ID)
	if closedRfq.Status != domain.RfqClosed {
		t.Errorf("expected RFQ closed after acceptance, got %s", closedRfq.Status)
	}

	// Redelivering quote.accepted re-runs the sibling pass without effect.
	if err := coordinator.HandleQuoteAccepted(ctx, data); err != nil {
		t.Fatalf("redelivered HandleQuoteAccepted failed: %v", err)
	}
	winnerAfter, _ := quotes.GetQuote(ctx, ids[0])
	if winnerAfter.Status != domain.QuoteAccepted {
		t.Errorf("expected winner untouched on redelivery, got %s", winnerAfter.Status)
	}
}

func TestHandleRfqUpdated_ExpiresDraftQuotesOnly(t *testing.T) {
	coordinator, quotes, rfqs, _ := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, "vendor-1", "vendor-2")

	draft, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID}, domain.CallerContext{ID: "vendor-1", Role: domain.RoleVendor})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	submitted, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, domain.CallerContext{ID: "vendor-2", Role: domain.RoleVendor})
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	// A status that is neither closed nor expired is ignored.
	if err := coordinator.HandleRfqUpdated(ctx, domain.RfqEventData{ID: rfq.ID, Status: domain.RfqPublished}); err != nil {
		t.Fatalf("HandleRfqUpdated failed: %v", err)
	}
	got, _ := quotes.GetQuote(ctx, draft.ID)
	if got.Status != domain.QuoteDraft {
		t.Fatalf("expected draft untouched by a published event, got %s", got.Status)
	}

	if err := coordinator.HandleRfqUpdated(ctx, domain.RfqEventData{ID: rfq.ID, Status: domain.RfqExpired}); err != nil {
		t.Fatalf("HandleRfqUpdated failed: %v", err)
	}

	got, _ = quotes.GetQuote(ctx, draft.ID)
	if got.Status != domain.QuoteExpired {
		t.Errorf("expected draft quote expired, got %s", got.Status)
	}
	got, _ = quotes.GetQuote(ctx, submitted.ID)
	if got.Status != domain.QuoteSubmitted {
		t.Errorf("expected submitted quote untouched, got %s", got.Status)
	}
}

func TestDeleteQuote_DraftOnly(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, vendor.ID)

	quote, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, vendor)
	if err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if err := coordinator.DeleteQuote(ctx, quote.ID, vendor); !domain.IsValidation(err) {
		t.Fatalf("expected validation error deleting a submitted quote, got %v", err)
	}
}

func TestListQuotesForRfq_VendorSeesOnlyOwn(t *testing.T) {
	coordinator, _, rfqs, _ := newQuoteFixture()
	ctx := context.Background()
	rfq := seedRfq(t, rfqs, domain.RfqPublished, "vendor-1", "vendor-2")

	vendorOne := domain.CallerContext{ID: "vendor-1", Role: domain.RoleVendor}
	vendorTwo := domain.CallerContext{ID: "vendor-2", Role: domain.RoleVendor}
	if _, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, vendorOne); err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}
	if _, err := coordinator.CreateQuote(ctx, CreateQuoteInput{RfqID: rfq.ID, Status: domain.QuoteSubmitted}, vendorTwo); err != nil {
		t.Fatalf("CreateQuote failed: %v", err)
	}

	all, err := coordinator.ListQuotesForRfq(ctx, rfq.ID, buyer)
	if err != nil {
		t.Fatalf("ListQuotesForRfq failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected RFQ creator to see both quotes, got %d", len(all))
	}

	own, err := coordinator.ListQuotesForRfq(ctx, rfq.ID, vendorOne)
	if err != nil {
		t.Fatalf("ListQuotesForRfq failed: %v", err)
	}
	if len(own) != 1 || own[0].VendorID != vendorOne.ID {
		t.Errorf("expected vendor to see only their quote, got %d", len(own))
	}
}
