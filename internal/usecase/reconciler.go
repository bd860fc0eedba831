package usecase

import (
	"context"
	"fmt"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/data/repository"

	"go.uber.org/zap"
)

// BookingReconciler is the only writer of a booking's payment_status. It
// projects payment transitions onto the booking so every read of the
// booking reflects the ledger without joining it.
type BookingReconciler interface {
	OnPaymentTransition(ctx context.Context, payment *entity.Payment, newStatus entity.PaymentStatus) error
}

type bookingReconciler struct {
	bookings repository.BookingRepository
	log      *zap.Logger
}

func NewBookingReconciler(bookings repository.BookingRepository, log *zap.Logger) BookingReconciler {
	return &bookingReconciler{
		bookings: bookings,
		log:      log.With(zap.String("service", "reconciler")),
	}
}

// ProjectPaymentStatus maps a payment status onto the booking projection.
// The mapping is total over the ledger's states; an unknown status is a
// defect and errors rather than leaving the booking stale.
func ProjectPaymentStatus(status entity.PaymentStatus) (entity.BookingPaymentStatus, error) {
	switch status {
	case entity.PaymentStatusInitiated,
		entity.PaymentStatusAwaitingPayer,
		entity.PaymentStatusAwaitingPayee:
		return entity.BookingPaymentProcessing, nil
	case entity.PaymentStatusSettled:
		return entity.BookingPaymentPaid, nil
	case entity.PaymentStatusFailed:
		return entity.BookingPaymentFailed, nil
	case entity.PaymentStatusCancelled:
		return entity.BookingPaymentUnpaid, nil
	case entity.PaymentStatusRefunded:
		return entity.BookingPaymentRefunded, nil
	default:
		return "", fmt.Errorf("no booking projection for payment status %q", status)
	}
}

func (r *bookingReconciler) OnPaymentTransition(ctx context.Context, payment *entity.Payment, newStatus entity.PaymentStatus) error {
	projected, err := ProjectPaymentStatus(newStatus)
	if err != nil {
		r.log.Error("Unmapped payment status",
			zap.String("payment_id", payment.ID.String()),
			zap.String("status", string(newStatus)),
		)
		return err
	}

	if err := r.bookings.UpdatePaymentStatus(ctx, payment.BookingID, projected); err != nil {
		return fmt.Errorf("reconcile booking %s: %w", payment.BookingID.String(), err)
	}

	r.log.Info("Booking payment status reconciled",
		zap.String("booking_id", payment.BookingID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("payment_status", string(newStatus)),
		zap.String("booking_payment_status", string(projected)),
	)

	return nil
}
