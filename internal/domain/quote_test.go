package domain

import (
	"testing"
)

func TestQuoteStatus_Predicates(t *testing.T) {
	tests := []struct {
		status   QuoteStatus
		terminal bool
		active   bool
	}{
		{QuoteDraft, false, true},
		{QuoteSubmitted, false, true},
		{QuoteAccepted, true, true},
		{QuoteRejected, true, false},
		{QuoteExpired, false, false},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.terminal {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.terminal)
		}
		if got := tt.status.IsActive(); got != tt.active {
			t.Errorf("%s.IsActive() = %v, want %v", tt.status, got, tt.active)
		}
	}
}

func TestQuoteStatus_IsValid(t *testing.T) {
	if !QuoteSubmitted.IsValid() {
		t.Error("submitted should be valid")
	}
	if QuoteStatus("pending").IsValid() {
		t.Error("pending should not be valid")
	}
}
