package entity

import "testing"

func TestDisputeStatusCanTransition(t *testing.T) {
	tests := []struct {
		name string
		from DisputeStatus
		to   DisputeStatus
		want bool
	}{
		{"open to under review", DisputeStatusOpen, DisputeStatusUnderReview, true},
		{"open straight to closed is illegal", DisputeStatusOpen, DisputeStatusClosed, false},
		{"open straight to resolved is illegal", DisputeStatusOpen, DisputeStatusResolved, false},
		{"under review to resolved", DisputeStatusUnderReview, DisputeStatusResolved, true},
		{"under review back to open is illegal", DisputeStatusUnderReview, DisputeStatusOpen, false},
		{"resolved to closed", DisputeStatusResolved, DisputeStatusClosed, true},
		{"closed is terminal", DisputeStatusClosed, DisputeStatusOpen, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("%s -> %s = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestDisputeStatusActive(t *testing.T) {
	active := map[DisputeStatus]bool{
		DisputeStatusOpen:        true,
		DisputeStatusUnderReview: true,
		DisputeStatusResolved:    false,
		DisputeStatusClosed:      false,
	}

	for status, want := range active {
		if got := status.Active(); got != want {
			t.Errorf("%s.Active() = %v, want %v", status, got, want)
		}
	}
}

func TestOutcomeRequiresRefund(t *testing.T) {
	refunding := map[DisputeOutcome]bool{
		OutcomeRefund:         true,
		OutcomePartialRefund:  true,
		OutcomeServiceRedo:    false,
		OutcomeWarning:        false,
		OutcomeSuspension:     false,
		OutcomeNoAction:       false,
		OutcomePenaltyApplied: false,
		OutcomeDismissed:      false,
	}

	for outcome, want := range refunding {
		if got := outcome.RequiresRefund(); got != want {
			t.Errorf("%s.RequiresRefund() = %v, want %v", outcome, got, want)
		}
	}
}
