package utils

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	PartyIDKey contextKey = "party_id"
	RoleKey    contextKey = "role"
)

// GetPartyIDFromContext returns the authenticated party id set by the
// auth middleware.
func GetPartyIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	partyIDVal := ctx.Value(PartyIDKey)
	if partyIDVal == nil {
		return uuid.Nil, false
	}

	partyIDStr, ok := partyIDVal.(string)
	if !ok {
		return uuid.Nil, false
	}

	partyID, err := uuid.Parse(partyIDStr)
	if err != nil {
		return uuid.Nil, false
	}

	return partyID, true
}

func GetRoleFromContext(ctx context.Context) (string, bool) {
	roleVal := ctx.Value(RoleKey)
	if roleVal == nil {
		return "", false
	}

	role, ok := roleVal.(string)
	return role, ok
}

func SetPartyContext(ctx context.Context, partyID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, PartyIDKey, partyID.String())
	ctx = context.WithValue(ctx, RoleKey, role)
	return ctx
}
