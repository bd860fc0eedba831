package entity

import (
	"time"

	"github.com/google/uuid"
)

// Session is a bearer token issued by the identity service. This core
// only reads sessions to resolve the calling party.
type Session struct {
	BaseSimple
	PartyID   uuid.UUID  `db:"party_id"`
	Token     uuid.UUID  `db:"token"`
	UserAgent *string    `db:"user_agent"`
	IPAddress *string    `db:"ip_address"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
}
