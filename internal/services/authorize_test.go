package services

import (
	"testing"

	"sourcing-system/internal/domain"
)

func TestCanMutate(t *testing.T) {
	tests := []struct {
		name      string
		createdBy string
		caller    domain.CallerContext
		want      bool
	}{
		{"creator", "buyer-1", buyer, true},
		{"other buyer", "buyer-1", otherBuyer, false},
		{"vendor on buyer's doc", "buyer-1", vendor, false},
		{"admin", "buyer-1", admin, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanMutate(tt.createdBy, tt.caller); got != tt.want {
				t.Errorf("CanMutate(%q, %s) = %v, want %v", tt.createdBy, tt.caller.ID, got, tt.want)
			}
		})
	}
}

func TestScopeRfqFilter(t *testing.T) {
	base := domain.RfqFilter{Status: domain.RfqPublished}

	got := ScopeRfqFilter(base, buyer)
	if got.BuyerID != buyer.ID || got.InvitedVendorID != "" {
		t.Errorf("buyer scope = %+v", got)
	}

	got = ScopeRfqFilter(base, vendor)
	if got.InvitedVendorID != vendor.ID || got.BuyerID != "" {
		t.Errorf("vendor scope = %+v", got)
	}

	got = ScopeRfqFilter(base, admin)
	if got.BuyerID != "" || got.InvitedVendorID != "" {
		t.Errorf("admin scope should be unrestricted, got %+v", got)
	}
	if got.Status != domain.RfqPublished {
		t.Errorf("scoping must keep caller-supplied filters, got %+v", got)
	}
}

func TestScopeQuoteFilter(t *testing.T) {
	base := domain.QuoteFilter{RfqID: "rfq-1"}

	got := ScopeQuoteFilter(base, vendor)
	if got.CreatedBy != vendor.ID {
		t.Errorf("vendor scope = %+v", got)
	}

	got = ScopeQuoteFilter(base, buyer)
	if got.CreatedBy != "" || got.RfqID != "rfq-1" {
		t.Errorf("buyer scope should pass the filter through, got %+v", got)
	}
}
