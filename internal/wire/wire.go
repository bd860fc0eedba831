// internal/wire/wire.go
package wire

import (
	"net/http"

	"service-marketplace/internal/adaptor"
	"service-marketplace/internal/data/repository"
	"service-marketplace/internal/settlement"
	"service-marketplace/internal/usecase"
	"service-marketplace/pkg/lock"
	"service-marketplace/pkg/middleware"
	"service-marketplace/pkg/storage"
	"service-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired HTTP surface.
type App struct {
	Router *chi.Mux
}

// Wiring builds services, handlers and routes on top of the shared
// infrastructure clients.
func Wiring(
	repo *repository.Repository,
	adapters *settlement.Registry,
	gateway settlement.GatewayClient,
	locker lock.Locker,
	store *storage.S3,
	config *utils.Config,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, adapters, gateway, locker, store, config, logger)
	handler := adaptor.NewHandler(service, store, logger)

	router := setupRouter(handler, repo, logger)

	return &App{
		Router: router,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	repo *repository.Repository,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	// Apply routes
	wirePayment(r, handler, repo, logger)
	wireDispute(r, handler.Dispute, repo, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
