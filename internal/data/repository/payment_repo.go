package repository

import (
	"context"
	"fmt"
	"time"

	"service-marketplace/internal/data/entity"
	"service-marketplace/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentRepository owns the payments table. Status changes go through
// conditional updates (WHERE status = expected): when two requests race,
// exactly one update applies and the loser sees applied=false.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error)
	FindByGatewayRef(ctx context.Context, ref string) (*entity.Payment, error)
	FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	FindLatestByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error)
	ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error)

	// Conditional transitions; the bool reports whether the row moved.
	Advance(ctx context.Context, id uuid.UUID, from, to entity.PaymentStatus) (bool, error)
	AttachGatewayIntent(ctx context.Context, id uuid.UUID, ref string, amount decimal.Decimal, currency string) (bool, error)
	AttachReceipt(ctx context.Context, id uuid.UUID, details entity.BankDetails, referenceToken, receiptKey *string) (bool, error)
	MarkSettled(ctx context.Context, id uuid.UUID, from entity.PaymentStatus, gatewayRef, payeeNote *string, settledAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id uuid.UUID, from entity.PaymentStatus, reason *string) (bool, error)
	MarkCancelled(ctx context.Context, id uuid.UUID, from entity.PaymentStatus) (bool, error)
	ApplyRefund(ctx context.Context, id uuid.UUID, refund entity.Refund) (bool, error)
}

type paymentRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentRepository(db database.PgxIface, log *zap.Logger) PaymentRepository {
	return &paymentRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment")),
	}
}

const paymentColumns = `
	id, booking_id, payer_id, payee_id, amount, currency, method, status,
	gateway_ref, gateway_amount, gateway_currency,
	bank_name, bank_branch, bank_account_name, bank_account_number,
	reference_token, receipt_key, payee_note, failure_reason, settled_at,
	refund_amount, refund_reason, refund_reference, refunded_at,
	created_at, updated_at
`

func (r *paymentRepository) Create(ctx context.Context, payment *entity.Payment) error {
	query := `
		INSERT INTO payments (id, booking_id, payer_id, payee_id, amount, currency,
		                      method, status, reference_token, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		payment.ID,
		payment.BookingID,
		payment.PayerID,
		payment.PayeeID,
		payment.Amount,
		payment.Currency,
		payment.Method,
		payment.Status,
		payment.ReferenceToken,
		payment.CreatedAt,
		payment.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create payment",
			zap.Error(err),
			zap.String("booking_id", payment.BookingID.String()),
			zap.String("method", string(payment.Method)),
		)
		return fmt.Errorf("create payment for booking %s: %w", payment.BookingID.String(), err)
	}

	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := r.scanPayment(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by ID",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return nil, fmt.Errorf("find payment by ID %s: %w", id.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindByGatewayRef(ctx context.Context, ref string) (*entity.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_ref = $1`

	payment, err := r.scanPayment(r.db.QueryRow(ctx, query, ref))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find payment by gateway ref",
			zap.Error(err),
			zap.String("gateway_ref", ref),
		)
		return nil, fmt.Errorf("find payment by gateway ref %s: %w", ref, err)
	}

	return payment, nil
}

// FindActiveByBookingID returns the single non-terminal payment for a
// booking, if any. A partial unique index on (booking_id) WHERE status IN
// (non-terminal) backs the at-most-one invariant at the storage level.
func (r *paymentRepository) FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		  AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`

	statuses := make([]string, 0, 4)
	for _, s := range entity.NonTerminalPaymentStatuses() {
		statuses = append(statuses, string(s))
	}

	payment, err := r.scanPayment(r.db.QueryRow(ctx, query, bookingID, statuses))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active payment",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find active payment for booking %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) FindLatestByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := r.scanPayment(r.db.QueryRow(ctx, query, bookingID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find latest payment",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find latest payment for booking %s: %w", bookingID.String(), err)
	}

	return payment, nil
}

func (r *paymentRepository) ListByBookingID(ctx context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE booking_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Query(ctx, query, bookingID)
	if err != nil {
		r.log.Error("Failed to list payments",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("list payments for booking %s: %w", bookingID.String(), err)
	}
	defer rows.Close()

	var payments []*entity.Payment
	for rows.Next() {
		payment, err := r.scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

func (r *paymentRepository) Advance(ctx context.Context, id uuid.UUID, from, to entity.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		r.log.Error("Failed to advance payment status",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("advance payment %s from %s to %s: %w", id.String(), from, to, err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentRepository) AttachGatewayIntent(ctx context.Context, id uuid.UUID, ref string, amount decimal.Decimal, currency string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, gateway_ref = $3, gateway_amount = $4,
		    gateway_currency = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.Exec(ctx, query,
		id, entity.PaymentStatusAwaitingPayer, ref, amount, currency,
		entity.PaymentStatusInitiated,
	)
	if err != nil {
		r.log.Error("Failed to attach gateway intent",
			zap.Error(err),
			zap.String("payment_id", id.String()),
			zap.String("gateway_ref", ref),
		)
		return false, fmt.Errorf("attach gateway intent to payment %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentRepository) AttachReceipt(ctx context.Context, id uuid.UUID, details entity.BankDetails, referenceToken, receiptKey *string) (bool, error) {
	query := `
		UPDATE payments
		SET bank_name = $2, bank_branch = $3, bank_account_name = $4,
		    bank_account_number = $5, reference_token = COALESCE($6, reference_token),
		    receipt_key = COALESCE($7, receipt_key), updated_at = NOW()
		WHERE id = $1 AND status = $8
	`

	result, err := r.db.Exec(ctx, query,
		id, details.BankName, details.Branch, details.AccountName, details.AccountNumber,
		referenceToken, receiptKey,
		entity.PaymentStatusAwaitingPayee,
	)
	if err != nil {
		r.log.Error("Failed to attach receipt",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return false, fmt.Errorf("attach receipt to payment %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentRepository) MarkSettled(ctx context.Context, id uuid.UUID, from entity.PaymentStatus, gatewayRef, payeeNote *string, settledAt time.Time) (bool, error) {
	query := `
		UPDATE payments
		SET status = $3, gateway_ref = COALESCE($4, gateway_ref),
		    payee_note = COALESCE($5, payee_note), settled_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query,
		id, from, entity.PaymentStatusSettled, gatewayRef, payeeNote, settledAt,
	)
	if err != nil {
		r.log.Error("Failed to mark payment settled",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return false, fmt.Errorf("mark payment %s settled: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentRepository) MarkFailed(ctx context.Context, id uuid.UUID, from entity.PaymentStatus, reason *string) (bool, error) {
	query := `
		UPDATE payments
		SET status = $3, failure_reason = $4, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, entity.PaymentStatusFailed, reason)
	if err != nil {
		r.log.Error("Failed to mark payment failed",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return false, fmt.Errorf("mark payment %s failed: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *paymentRepository) MarkCancelled(ctx context.Context, id uuid.UUID, from entity.PaymentStatus) (bool, error) {
	query := `
		UPDATE payments
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, entity.PaymentStatusCancelled)
	if err != nil {
		r.log.Error("Failed to mark payment cancelled",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return false, fmt.Errorf("mark payment %s cancelled: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

// ApplyRefund moves settled -> refunded and writes the refund sub-record
// in one conditional update, so a double refund can never apply twice.
func (r *paymentRepository) ApplyRefund(ctx context.Context, id uuid.UUID, refund entity.Refund) (bool, error) {
	query := `
		UPDATE payments
		SET status = $2, refund_amount = $3, refund_reason = $4,
		    refund_reference = $5, refunded_at = $6, updated_at = NOW()
		WHERE id = $1 AND status = $7
	`

	result, err := r.db.Exec(ctx, query,
		id, entity.PaymentStatusRefunded,
		refund.Amount, refund.Reason, refund.Reference, refund.RefundedAt,
		entity.PaymentStatusSettled,
	)
	if err != nil {
		r.log.Error("Failed to apply refund",
			zap.Error(err),
			zap.String("payment_id", id.String()),
		)
		return false, fmt.Errorf("apply refund to payment %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

// scanPayment reads one payment row, folding the nullable bank and refund
// column groups into their sub-structs.
func (r *paymentRepository) scanPayment(row pgx.Row) (*entity.Payment, error) {
	var payment entity.Payment
	var bankName, bankBranch, bankAccountName, bankAccountNumber *string
	var refundAmount decimal.NullDecimal
	var refundReason, refundReference *string
	var refundedAt *time.Time

	err := row.Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.PayerID,
		&payment.PayeeID,
		&payment.Amount,
		&payment.Currency,
		&payment.Method,
		&payment.Status,
		&payment.GatewayRef,
		&payment.GatewayAmount,
		&payment.GatewayCurrency,
		&bankName,
		&bankBranch,
		&bankAccountName,
		&bankAccountNumber,
		&payment.ReferenceToken,
		&payment.ReceiptKey,
		&payment.PayeeNote,
		&payment.FailureReason,
		&payment.SettledAt,
		&refundAmount,
		&refundReason,
		&refundReference,
		&refundedAt,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if bankName != nil {
		payment.BankDetails = &entity.BankDetails{
			BankName:      *bankName,
			AccountName:   derefString(bankAccountName),
			AccountNumber: derefString(bankAccountNumber),
			Branch:        derefString(bankBranch),
		}
	}

	if refundAmount.Valid && refundedAt != nil {
		payment.Refund = &entity.Refund{
			Amount:     refundAmount.Decimal,
			Reason:     derefString(refundReason),
			Reference:  derefString(refundReference),
			RefundedAt: *refundedAt,
		}
	}

	return &payment, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
