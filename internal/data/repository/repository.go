package repository

import (
	"service-marketplace/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	Party   PartyRepository
	Session SessionRepository
	Booking BookingRepository
	Payment PaymentRepository
	Dispute DisputeRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		Party:   NewPartyRepository(db, log),
		Session: NewSessionRepository(db, log),
		Booking: NewBookingRepository(db, log),
		Payment: NewPaymentRepository(db, log),
		Dispute: NewDisputeRepository(db, log),
	}
}
