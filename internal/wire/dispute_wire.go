package wire

import (
	"service-marketplace/internal/adaptor"
	"service-marketplace/internal/data/repository"
	"service-marketplace/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireDispute(
	r chi.Router,
	disputeHandler *adaptor.DisputeHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.Party, log))

		// POST /api/disputes - File a dispute against a booking (parties)
		r.Post("/api/disputes", disputeHandler.FileDispute)

		// GET /api/disputes - Caller's disputes
		r.Get("/api/disputes", disputeHandler.ListDisputes)

		// GET /api/disputes/{id} - Full case file (parties and arbiters)
		r.Get("/api/disputes/{id}", disputeHandler.GetDispute)

		// POST /api/disputes/{id}/messages - Post to the case log
		r.Post("/api/disputes/{id}/messages", disputeHandler.AddMessage)

		// POST /api/disputes/{id}/evidence - Upload an evidence artifact
		r.Post("/api/disputes/{id}/evidence", disputeHandler.UploadEvidence)
	})

	// ==================== ARBITER ROUTES ====================
	r.Route("/api/arbiter/disputes", func(r chi.Router) {
		// Require both authentication AND arbiter role
		r.Use(middleware.AuthSession(repo.Session, repo.Party, log))
		r.Use(middleware.Arbiter(log))

		// PUT /api/arbiter/disputes/{id}/status - Move the case for review
		r.Put("/{id}/status", disputeHandler.TransitionStatus)

		// POST /api/arbiter/disputes/{id}/resolve - Record the verdict
		r.Post("/{id}/resolve", disputeHandler.ResolveDispute)

		// POST /api/arbiter/disputes/{id}/close - Archive a resolved case
		r.Post("/{id}/close", disputeHandler.CloseDispute)
	})
}
