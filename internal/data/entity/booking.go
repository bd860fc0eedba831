package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle of the service engagement itself. It is
// owned by booking-workflow logic; this core only reads it.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusDeclined  BookingStatus = "declined"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// BookingPaymentStatus is the denormalized projection of the active
// Payment's state. Only the reconciler writes it.
type BookingPaymentStatus string

const (
	BookingPaymentUnpaid     BookingPaymentStatus = "unpaid"
	BookingPaymentProcessing BookingPaymentStatus = "processing"
	BookingPaymentPaid       BookingPaymentStatus = "paid"
	BookingPaymentFailed     BookingPaymentStatus = "failed"
	BookingPaymentRefunded   BookingPaymentStatus = "refunded"
)

type Booking struct {
	Base
	ProviderID    uuid.UUID            `db:"provider_id"`
	SeekerID      uuid.UUID            `db:"seeker_id"`
	ScheduledAt   time.Time            `db:"scheduled_at"`
	Description   string               `db:"description"`
	AgreedPrice   decimal.Decimal      `db:"agreed_price"`
	Currency      string               `db:"currency"`
	Status        BookingStatus        `db:"status"`
	PaymentStatus BookingPaymentStatus `db:"payment_status"`
}

// IsParty reports whether id is the booking's provider or seeker.
func (b *Booking) IsParty(id uuid.UUID) bool {
	return id == b.ProviderID || id == b.SeekerID
}

// Counterparty returns the other side of the booking. The second return
// is false when id is not a party at all.
func (b *Booking) Counterparty(id uuid.UUID) (uuid.UUID, bool) {
	switch id {
	case b.ProviderID:
		return b.SeekerID, true
	case b.SeekerID:
		return b.ProviderID, true
	default:
		return uuid.Nil, false
	}
}
