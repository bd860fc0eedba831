package usecase

import (
	"testing"

	"service-marketplace/internal/data/entity"
)

func TestProjectPaymentStatus(t *testing.T) {
	tests := []struct {
		status entity.PaymentStatus
		want   entity.BookingPaymentStatus
	}{
		{entity.PaymentStatusInitiated, entity.BookingPaymentProcessing},
		{entity.PaymentStatusAwaitingPayer, entity.BookingPaymentProcessing},
		{entity.PaymentStatusAwaitingPayee, entity.BookingPaymentProcessing},
		{entity.PaymentStatusSettled, entity.BookingPaymentPaid},
		{entity.PaymentStatusFailed, entity.BookingPaymentFailed},
		{entity.PaymentStatusCancelled, entity.BookingPaymentUnpaid},
		{entity.PaymentStatusRefunded, entity.BookingPaymentRefunded},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got, err := ProjectPaymentStatus(tt.status)
			if err != nil {
				t.Fatalf("ProjectPaymentStatus(%s): %v", tt.status, err)
			}
			if got != tt.want {
				t.Errorf("ProjectPaymentStatus(%s) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestProjectPaymentStatusUnknown(t *testing.T) {
	if _, err := ProjectPaymentStatus(entity.PaymentStatus("chargeback")); err == nil {
		t.Error("unknown payment status projected without error")
	}
}
