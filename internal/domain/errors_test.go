package domain

import (
	"fmt"
	"testing"
)

func TestErrorKindHelpers(t *testing.T) {
	if !IsValidation(NewValidationError("bad input")) {
		t.Error("expected IsValidation")
	}
	if !IsNotFound(NewNotFoundError("missing %s", "rfq-1")) {
		t.Error("expected IsNotFound")
	}
	if !IsAuthorization(NewAuthorizationError("forbidden")) {
		t.Error("expected IsAuthorization")
	}
	if !IsConflict(NewConflictError("duplicate")) {
		t.Error("expected IsConflict")
	}
	if IsValidation(NewNotFoundError("missing")) {
		t.Error("kinds must not cross-match")
	}
	if IsNotFound(fmt.Errorf("plain error")) {
		t.Error("plain errors carry no kind")
	}
}

func TestErrorKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("saving quote: %w", NewConflictError("vendor already quoted"))
	if !IsConflict(err) {
		t.Error("expected kind to survive wrapping")
	}
}
