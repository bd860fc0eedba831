package repository

import (
	"context"
	"fmt"

	"service-marketplace/internal/data/entity"
	"service-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// BookingRepository reads bookings owned by the booking workflow and
// exposes exactly one write: the payment-status projection used by the
// reconciler. Nothing else in this service mutates a booking.
type BookingRepository interface {
	Create(ctx context.Context, booking *entity.Booking) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindByPartyID(ctx context.Context, partyID uuid.UUID, limit, offset int) ([]*entity.Booking, error)
	CountByPartyID(ctx context.Context, partyID uuid.UUID) (int64, error)

	// UpdatePaymentStatus is called by the booking reconciler only.
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.BookingPaymentStatus) error
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `
	id, provider_id, seeker_id, scheduled_at, description, agreed_price,
	currency, status, payment_status, created_at, updated_at
`

func (r *bookingRepository) Create(ctx context.Context, booking *entity.Booking) error {
	query := `
		INSERT INTO bookings (id, provider_id, seeker_id, scheduled_at, description,
		                      agreed_price, currency, status, payment_status,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		booking.ID,
		booking.ProviderID,
		booking.SeekerID,
		booking.ScheduledAt,
		booking.Description,
		booking.AgreedPrice,
		booking.Currency,
		booking.Status,
		booking.PaymentStatus,
		booking.CreatedAt,
		booking.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("provider_id", booking.ProviderID.String()),
			zap.String("seeker_id", booking.SeekerID.String()),
		)
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindByPartyID(ctx context.Context, partyID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE provider_id = $1 OR seeker_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, partyID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list bookings by party",
			zap.Error(err),
			zap.String("party_id", partyID.String()),
		)
		return nil, fmt.Errorf("list bookings for party %s: %w", partyID.String(), err)
	}
	defer rows.Close()

	var bookings []*entity.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

func (r *bookingRepository) CountByPartyID(ctx context.Context, partyID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM bookings WHERE provider_id = $1 OR seeker_id = $1`

	var total int64
	if err := r.db.QueryRow(ctx, query, partyID).Scan(&total); err != nil {
		r.log.Error("Failed to count bookings by party",
			zap.Error(err),
			zap.String("party_id", partyID.String()),
		)
		return 0, fmt.Errorf("count bookings for party %s: %w", partyID.String(), err)
	}

	return total, nil
}

func (r *bookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status entity.BookingPaymentStatus) error {
	query := `
		UPDATE bookings
		SET payment_status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.log.Error("Failed to update booking payment status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_status", string(status)),
		)
		return fmt.Errorf("update booking %s payment status to %s: %w", id.String(), status, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("booking %s not found", id.String())
	}

	return nil
}

func scanBooking(row pgx.Row) (*entity.Booking, error) {
	var booking entity.Booking
	err := row.Scan(
		&booking.ID,
		&booking.ProviderID,
		&booking.SeekerID,
		&booking.ScheduledAt,
		&booking.Description,
		&booking.AgreedPrice,
		&booking.Currency,
		&booking.Status,
		&booking.PaymentStatus,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}
