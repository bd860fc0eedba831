package entity

import "testing"

func TestPaymentStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from PaymentStatus
		to   PaymentStatus
		want bool
	}{
		{"initiated to awaiting payer", PaymentStatusInitiated, PaymentStatusAwaitingPayer, true},
		{"initiated to awaiting payee", PaymentStatusInitiated, PaymentStatusAwaitingPayee, true},
		{"initiated to settled is illegal", PaymentStatusInitiated, PaymentStatusSettled, false},
		{"awaiting payer to settled", PaymentStatusAwaitingPayer, PaymentStatusSettled, true},
		{"awaiting payer to failed", PaymentStatusAwaitingPayer, PaymentStatusFailed, true},
		{"awaiting payer to cancelled", PaymentStatusAwaitingPayer, PaymentStatusCancelled, true},
		{"awaiting payee to settled", PaymentStatusAwaitingPayee, PaymentStatusSettled, true},
		{"awaiting payee to failed", PaymentStatusAwaitingPayee, PaymentStatusFailed, true},
		{"settled to refunded", PaymentStatusSettled, PaymentStatusRefunded, true},
		{"settled never returns to awaiting", PaymentStatusSettled, PaymentStatusAwaitingPayer, false},
		{"settled cannot fail", PaymentStatusSettled, PaymentStatusFailed, false},
		{"refunded is terminal", PaymentStatusRefunded, PaymentStatusSettled, false},
		{"failed is terminal", PaymentStatusFailed, PaymentStatusInitiated, false},
		{"cancelled is terminal", PaymentStatusCancelled, PaymentStatusInitiated, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestPaymentStatusTerminal(t *testing.T) {
	terminal := map[PaymentStatus]bool{
		PaymentStatusInitiated:     false,
		PaymentStatusAwaitingPayer: false,
		PaymentStatusAwaitingPayee: false,
		PaymentStatusSettled:       false, // refund remains possible
		PaymentStatusFailed:        true,
		PaymentStatusRefunded:      true,
		PaymentStatusCancelled:     true,
	}

	for status, want := range terminal {
		if got := status.Terminal(); got != want {
			t.Errorf("%s.Terminal() = %v, want %v", status, got, want)
		}
	}
}

func TestNonTerminalStatusesMatchTerminal(t *testing.T) {
	nonTerminal := map[PaymentStatus]bool{}
	for _, s := range NonTerminalPaymentStatuses() {
		nonTerminal[s] = true
	}

	for _, s := range []PaymentStatus{
		PaymentStatusInitiated, PaymentStatusAwaitingPayer, PaymentStatusAwaitingPayee,
		PaymentStatusSettled, PaymentStatusFailed, PaymentStatusRefunded, PaymentStatusCancelled,
	} {
		if s.Terminal() == nonTerminal[s] {
			t.Errorf("status %s: Terminal()=%v but listed non-terminal=%v", s, s.Terminal(), nonTerminal[s])
		}
	}
}
