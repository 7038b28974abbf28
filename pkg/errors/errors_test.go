package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConflictAndTransientAreDistinct(t *testing.T) {
	conflict := Conflict("cart is already booked for this time slot")
	transient := Transient("booking in progress for this cart, retry shortly", nil)

	if conflict.Code == transient.Code {
		t.Fatal("conflict and transient failures must carry distinct codes")
	}
	if conflict.StatusCode() != http.StatusConflict {
		t.Errorf("expected 409 for conflict, got %d", conflict.StatusCode())
	}
	if transient.StatusCode() != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for transient, got %d", transient.StatusCode())
	}

	if !IsConflict(conflict) || IsConflict(transient) {
		t.Error("IsConflict misclassified")
	}
	if !IsTransient(transient) || IsTransient(conflict) {
		t.Error("IsTransient misclassified")
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Transient("store unreachable", cause)

	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable via errors.Is")
	}
}

func TestClassificationThroughWrapping(t *testing.T) {
	inner := Conflict("slot taken")
	wrapped := fmt.Errorf("create rental: %w", inner)

	if !IsConflict(wrapped) {
		t.Error("expected IsConflict to see through fmt.Errorf wrapping")
	}
	if AsAppError(wrapped).Code != CodeConflict {
		t.Error("AsAppError should unwrap to the original AppError")
	}
}

func TestAsAppErrorFallback(t *testing.T) {
	err := AsAppError(errors.New("boom"))
	if err.Code != CodeInternal {
		t.Errorf("expected INTERNAL_ERROR fallback, got %s", err.Code)
	}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", err.StatusCode())
	}
}
