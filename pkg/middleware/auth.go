package middleware

import (
	"net/http"
	"strings"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/data/repository"
	"service-marketplace/pkg/utils"

	"go.uber.org/zap"
)

// AuthSession validates the bearer session token and puts the resolved
// party id and role on the request context.
func AuthSession(sessionRepo repository.SessionRepository, partyRepo repository.PartyRepository, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				utils.ResponseUnauthorized(w, "Missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			token := parts[1]

			session, err := sessionRepo.FindValidSession(r.Context(), token)
			if err != nil {
				logger.Error("Failed to validate session", zap.Error(err))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if session == nil {
				logger.Warn("Invalid or expired session")
				utils.ResponseUnauthorized(w, "Invalid or expired session")
				return
			}

			party, err := partyRepo.FindByID(r.Context(), session.PartyID)
			if err != nil {
				logger.Error("Failed to load session party",
					zap.Error(err),
					zap.String("party_id", session.PartyID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if party == nil || !party.IsActive {
				utils.ResponseUnauthorized(w, "Account is not active")
				return
			}

			ctx := utils.SetPartyContext(r.Context(), party.ID, string(party.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Arbiter guards dispute-administration routes; only parties with the
// arbiter role pass.
func Arbiter(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			partyID, ok := utils.GetPartyIDFromContext(r.Context())
			if !ok {
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}

			role, ok := utils.GetRoleFromContext(r.Context())
			if !ok || role != string(entity.RoleArbiter) {
				logger.Warn("Arbiter check: non-arbiter access attempt",
					zap.String("party_id", partyID.String()),
					zap.String("path", r.URL.Path))
				utils.ResponseForbidden(w, "Arbiter access required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
