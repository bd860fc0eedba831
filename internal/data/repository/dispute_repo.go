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

// DisputeRepository owns disputes plus their append-only message and
// evidence logs. As with payments, status moves are conditional updates;
// a partial unique index on (booking_id) WHERE status IN ('open',
// 'under_review') backs the one-active-dispute invariant.
type DisputeRepository interface {
	Create(ctx context.Context, dispute *entity.Dispute) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error)
	FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Dispute, error)
	FindByPartyID(ctx context.Context, partyID uuid.UUID, limit, offset int) ([]*entity.Dispute, error)
	CountByPartyID(ctx context.Context, partyID uuid.UUID) (int64, error)

	TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.DisputeStatus, assignTo *uuid.UUID) (bool, error)
	SetResolution(ctx context.Context, id uuid.UUID, resolution entity.Resolution) (bool, error)

	AddMessage(ctx context.Context, message *entity.DisputeMessage) error
	ListMessages(ctx context.Context, disputeID uuid.UUID) ([]*entity.DisputeMessage, error)
	AddEvidence(ctx context.Context, evidence *entity.DisputeEvidence) error
	ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]*entity.DisputeEvidence, error)
}

type disputeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewDisputeRepository(db database.PgxIface, log *zap.Logger) DisputeRepository {
	return &disputeRepository{
		db:  db,
		log: log.With(zap.String("repository", "dispute")),
	}
}

const disputeColumns = `
	id, booking_id, payment_id, raised_by, against, category, priority,
	status, description, assigned_to,
	resolution_description, resolution_outcome, resolution_amount,
	resolved_by, resolved_at,
	created_at, updated_at
`

func (r *disputeRepository) Create(ctx context.Context, dispute *entity.Dispute) error {
	query := `
		INSERT INTO disputes (id, booking_id, payment_id, raised_by, against,
		                      category, priority, status, description,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		dispute.ID,
		dispute.BookingID,
		dispute.PaymentID,
		dispute.RaisedBy,
		dispute.Against,
		dispute.Category,
		dispute.Priority,
		dispute.Status,
		dispute.Description,
		dispute.CreatedAt,
		dispute.UpdatedAt,
	)

	if err != nil {
		r.log.Error("Failed to create dispute",
			zap.Error(err),
			zap.String("booking_id", dispute.BookingID.String()),
			zap.String("raised_by", dispute.RaisedBy.String()),
		)
		return fmt.Errorf("create dispute for booking %s: %w", dispute.BookingID.String(), err)
	}

	return nil
}

func (r *disputeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Dispute, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	dispute, err := scanDispute(r.db.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find dispute by ID",
			zap.Error(err),
			zap.String("dispute_id", id.String()),
		)
		return nil, fmt.Errorf("find dispute by ID %s: %w", id.String(), err)
	}

	return dispute, nil
}

func (r *disputeRepository) FindActiveByBookingID(ctx context.Context, bookingID uuid.UUID) (*entity.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE booking_id = $1
		  AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	dispute, err := scanDispute(r.db.QueryRow(ctx, query, bookingID,
		entity.DisputeStatusOpen, entity.DisputeStatusUnderReview))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find active dispute",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
		)
		return nil, fmt.Errorf("find active dispute for booking %s: %w", bookingID.String(), err)
	}

	return dispute, nil
}

func (r *disputeRepository) FindByPartyID(ctx context.Context, partyID uuid.UUID, limit, offset int) ([]*entity.Dispute, error) {
	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE raised_by = $1 OR against = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, partyID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list disputes by party",
			zap.Error(err),
			zap.String("party_id", partyID.String()),
		)
		return nil, fmt.Errorf("list disputes for party %s: %w", partyID.String(), err)
	}
	defer rows.Close()

	var disputes []*entity.Dispute
	for rows.Next() {
		dispute, err := scanDispute(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dispute row: %w", err)
		}
		disputes = append(disputes, dispute)
	}

	return disputes, rows.Err()
}

func (r *disputeRepository) CountByPartyID(ctx context.Context, partyID uuid.UUID) (int64, error) {
	query := `SELECT COUNT(*) FROM disputes WHERE raised_by = $1 OR against = $1`

	var total int64
	if err := r.db.QueryRow(ctx, query, partyID).Scan(&total); err != nil {
		r.log.Error("Failed to count disputes by party",
			zap.Error(err),
			zap.String("party_id", partyID.String()),
		)
		return 0, fmt.Errorf("count disputes for party %s: %w", partyID.String(), err)
	}

	return total, nil
}

func (r *disputeRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to entity.DisputeStatus, assignTo *uuid.UUID) (bool, error) {
	query := `
		UPDATE disputes
		SET status = $3, assigned_to = COALESCE($4, assigned_to), updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	result, err := r.db.Exec(ctx, query, id, from, to, assignTo)
	if err != nil {
		r.log.Error("Failed to transition dispute status",
			zap.Error(err),
			zap.String("dispute_id", id.String()),
			zap.String("from", string(from)),
			zap.String("to", string(to)),
		)
		return false, fmt.Errorf("transition dispute %s from %s to %s: %w", id.String(), from, to, err)
	}

	return result.RowsAffected() == 1, nil
}

// SetResolution resolves the dispute and writes the resolution in one
// conditional update; the resolution can never be written twice.
func (r *disputeRepository) SetResolution(ctx context.Context, id uuid.UUID, resolution entity.Resolution) (bool, error) {
	query := `
		UPDATE disputes
		SET status = $2, resolution_description = $3, resolution_outcome = $4,
		    resolution_amount = $5, resolved_by = $6, resolved_at = $7,
		    assigned_to = COALESCE(assigned_to, $6), updated_at = NOW()
		WHERE id = $1 AND status = $8 AND resolution_outcome IS NULL
	`

	result, err := r.db.Exec(ctx, query,
		id, entity.DisputeStatusResolved,
		resolution.Description, resolution.Outcome, resolution.OutcomeAmount,
		resolution.ResolvedBy, resolution.ResolvedAt,
		entity.DisputeStatusUnderReview,
	)
	if err != nil {
		r.log.Error("Failed to set dispute resolution",
			zap.Error(err),
			zap.String("dispute_id", id.String()),
			zap.String("outcome", string(resolution.Outcome)),
		)
		return false, fmt.Errorf("set resolution on dispute %s: %w", id.String(), err)
	}

	return result.RowsAffected() == 1, nil
}

func (r *disputeRepository) AddMessage(ctx context.Context, message *entity.DisputeMessage) error {
	query := `
		INSERT INTO dispute_messages (id, dispute_id, author_id, body, is_arbiter, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		message.ID,
		message.DisputeID,
		message.AuthorID,
		message.Body,
		message.IsArbiter,
		message.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to add dispute message",
			zap.Error(err),
			zap.String("dispute_id", message.DisputeID.String()),
		)
		return fmt.Errorf("add message to dispute %s: %w", message.DisputeID.String(), err)
	}

	return nil
}

func (r *disputeRepository) ListMessages(ctx context.Context, disputeID uuid.UUID) ([]*entity.DisputeMessage, error) {
	query := `
		SELECT id, dispute_id, author_id, body, is_arbiter, created_at
		FROM dispute_messages
		WHERE dispute_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, disputeID)
	if err != nil {
		r.log.Error("Failed to list dispute messages",
			zap.Error(err),
			zap.String("dispute_id", disputeID.String()),
		)
		return nil, fmt.Errorf("list messages for dispute %s: %w", disputeID.String(), err)
	}
	defer rows.Close()

	var messages []*entity.DisputeMessage
	for rows.Next() {
		var message entity.DisputeMessage
		if err := rows.Scan(
			&message.ID,
			&message.DisputeID,
			&message.AuthorID,
			&message.Body,
			&message.IsArbiter,
			&message.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dispute message row: %w", err)
		}
		messages = append(messages, &message)
	}

	return messages, rows.Err()
}

func (r *disputeRepository) AddEvidence(ctx context.Context, evidence *entity.DisputeEvidence) error {
	query := `
		INSERT INTO dispute_evidence (id, dispute_id, uploaded_by, artifact_key, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query,
		evidence.ID,
		evidence.DisputeID,
		evidence.UploadedBy,
		evidence.ArtifactKey,
		evidence.Description,
		evidence.CreatedAt,
	)

	if err != nil {
		r.log.Error("Failed to add dispute evidence",
			zap.Error(err),
			zap.String("dispute_id", evidence.DisputeID.String()),
		)
		return fmt.Errorf("add evidence to dispute %s: %w", evidence.DisputeID.String(), err)
	}

	return nil
}

func (r *disputeRepository) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]*entity.DisputeEvidence, error) {
	query := `
		SELECT id, dispute_id, uploaded_by, artifact_key, description, created_at
		FROM dispute_evidence
		WHERE dispute_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, disputeID)
	if err != nil {
		r.log.Error("Failed to list dispute evidence",
			zap.Error(err),
			zap.String("dispute_id", disputeID.String()),
		)
		return nil, fmt.Errorf("list evidence for dispute %s: %w", disputeID.String(), err)
	}
	defer rows.Close()

	var items []*entity.DisputeEvidence
	for rows.Next() {
		var evidence entity.DisputeEvidence
		if err := rows.Scan(
			&evidence.ID,
			&evidence.DisputeID,
			&evidence.UploadedBy,
			&evidence.ArtifactKey,
			&evidence.Description,
			&evidence.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan dispute evidence row: %w", err)
		}
		items = append(items, &evidence)
	}

	return items, rows.Err()
}

func scanDispute(row pgx.Row) (*entity.Dispute, error) {
	var dispute entity.Dispute
	var resolutionDescription *string
	var resolutionOutcome *entity.DisputeOutcome
	var resolutionAmount decimal.NullDecimal
	var resolvedBy *uuid.UUID
	var resolvedAt *time.Time

	err := row.Scan(
		&dispute.ID,
		&dispute.BookingID,
		&dispute.PaymentID,
		&dispute.RaisedBy,
		&dispute.Against,
		&dispute.Category,
		&dispute.Priority,
		&dispute.Status,
		&dispute.Description,
		&dispute.AssignedTo,
		&resolutionDescription,
		&resolutionOutcome,
		&resolutionAmount,
		&resolvedBy,
		&resolvedAt,
		&dispute.CreatedAt,
		&dispute.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resolutionOutcome != nil && resolvedBy != nil && resolvedAt != nil {
		dispute.Resolution = &entity.Resolution{
			Description: derefString(resolutionDescription),
			Outcome:     *resolutionOutcome,
			ResolvedBy:  *resolvedBy,
			ResolvedAt:  *resolvedAt,
		}
		if resolutionAmount.Valid {
			dispute.Resolution.OutcomeAmount = &resolutionAmount.Decimal
		}
	}

	return &dispute, nil
}
