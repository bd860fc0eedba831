package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("amount is required"), KindValidation},
		{"not found", NotFound("payment", "p-1"), KindNotFound},
		{"authorization", Authorization("caller is not the payee"), KindAuthorization},
		{"conflict", Conflict("booking", "b-1", "active payment exists"), KindConflict},
		{"invalid state", InvalidState("payment", "p-1", "failed", "refund"), KindInvalidState},
		{"external", External("create charge", errors.New("connection refused")), KindExternal},
		{"wrapped", fmt.Errorf("refund dispute: %w", InvalidState("payment", "p-1", "failed", "refund")), KindInvalidState},
		{"plain error", errors.New("boom"), KindUnknown},
		{"nil", nil, KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessageContext(t *testing.T) {
	err := InvalidState("payment", "p-1", "failed", "refund")
	msg := err.Error()

	for _, part := range []string{"payment", "p-1", "failed", "refund"} {
		if !strings.Contains(msg, part) {
			t.Errorf("message %q missing %q", msg, part)
		}
	}
}

func TestExternalUnwrap(t *testing.T) {
	cause := errors.New("gateway unreachable")
	err := External("confirm charge", cause)

	if !errors.Is(err, cause) {
		t.Errorf("expected errors.Is to find the cause")
	}
}
