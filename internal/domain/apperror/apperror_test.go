package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestIs_MatchesByKind(t *testing.T) {
	err := Confirmation("payment.Confirm", "payment is not pending")
	wrapped := fmt.Errorf("handler: %w", err)

	if !errors.Is(wrapped, ErrConfirmation) {
		t.Fatalf("expected wrapped error to match ErrConfirmation")
	}
	if errors.Is(wrapped, ErrValidation) {
		t.Fatalf("confirmation error must not match ErrValidation")
	}
	if KindOf(wrapped) != KindConfirmation {
		t.Fatalf("KindOf = %v, want confirmation", KindOf(wrapped))
	}
}

func TestPersistence_WrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Persistence("loan.Create", cause)

	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected persistence kind")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause must stay reachable through Unwrap")
	}
	if got, want := err.Error(), "loan.Create: persistence: connection refused"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

func TestPersistence_KeepsKindedErrors(t *testing.T) {
	nf := NotFound("loan.Get", "loan not found")
	if got := Persistence("loan.Get", nf); got != nf {
		t.Fatalf("expected kinded error to pass through, got %v", got)
	}
	if Persistence("x", nil) != nil {
		t.Fatalf("nil must stay nil")
	}
}

func TestKindOf_Unknown(t *testing.T) {
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain errors have no kind")
	}
	if KindUnknown.Message() == "" || KindAuth.Message() == "" {
		t.Fatalf("every kind needs a user message")
	}
}
