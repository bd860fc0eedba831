package wire

import (
	"service-marketplace/internal/adaptor"
	"service-marketplace/internal/data/repository"
	"service-marketplace/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	handler *adaptor.Handler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	paymentHandler := handler.Payment

	// ==================== PROTECTED ROUTES (require auth) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthSession(repo.Session, repo.Party, log))

		// POST /api/payments - Initiate a payment for a booking (seeker)
		r.Post("/api/payments", paymentHandler.InitiatePayment)

		// GET /api/payments/{id} - Payment detail (parties only)
		r.Get("/api/payments/{id}", paymentHandler.GetPayment)

		// POST /api/payments/{id}/receipt - Submit bank transfer receipt (payer)
		r.Post("/api/payments/{id}/receipt", paymentHandler.UploadReceipt)

		// POST /api/payments/{id}/confirm - Accept or reject the receipt (payee)
		r.Post("/api/payments/{id}/confirm", paymentHandler.ConfirmReceipt)

		// POST /api/payments/{id}/poll - Re-check a gateway charge (parties)
		r.Post("/api/payments/{id}/poll", paymentHandler.PollGateway)

		// POST /api/payments/{id}/refund - Voluntary refund (payee)
		r.Post("/api/payments/{id}/refund", paymentHandler.RefundPayment)

		// GET /api/bookings - Caller's bookings with payment projection
		r.Get("/api/bookings", paymentHandler.ListBookings)

		// GET /api/bookings/{id} - Booking detail with its payment history
		r.Get("/api/bookings/{id}", paymentHandler.GetBooking)
	})

	// ==================== GATEWAY CALLBACK ====================
	// POST /api/webhooks/gateway - Charge events from the processor. No
	// session auth; the processor is not a logged-in party.
	r.Post("/api/webhooks/gateway", handler.Webhook.GatewayEvent)
}
