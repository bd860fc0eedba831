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

// PartyRepository reads marketplace accounts for authorization checks.
// Account management itself is out of scope.
type PartyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Party, error)
}

type partyRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPartyRepository(db database.PgxIface, log *zap.Logger) PartyRepository {
	return &partyRepository{
		db:  db,
		log: log.With(zap.String("repository", "party")),
	}
}

func (r *partyRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Party, error) {
	query := `
		SELECT id, name, email, phone, role, is_active, created_at, updated_at
		FROM parties
		WHERE id = $1
	`

	var party entity.Party
	err := r.db.QueryRow(ctx, query, id).Scan(
		&party.ID,
		&party.Name,
		&party.Email,
		&party.Phone,
		&party.Role,
		&party.IsActive,
		&party.CreatedAt,
		&party.UpdatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find party by ID",
			zap.Error(err),
			zap.String("party_id", id.String()),
		)
		return nil, fmt.Errorf("find party by ID %s: %w", id.String(), err)
	}

	return &party, nil
}
