package usecase

import (
	"time"

	"service-marketplace/internal/data/repository"
	"service-marketplace/internal/settlement"
	"service-marketplace/pkg/lock"
	"service-marketplace/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Payment PaymentService
	Dispute DisputeService
}

func NewService(
	repo *repository.Repository,
	adapters *settlement.Registry,
	gateway settlement.GatewayClient,
	locker lock.Locker,
	presigner ArtifactPresigner,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	reconciler := NewBookingReconciler(repo.Booking, log)
	staleAfter := time.Duration(config.Settlement.StaleAfterMinutes) * time.Minute

	payment := NewPaymentService(repo, adapters, gateway, reconciler, locker, presigner, staleAfter, log)
	refunder := payment.(RefundExecutor)

	return &Service{
		Payment: payment,
		Dispute: NewDisputeService(repo, refunder, locker, presigner, log),
	}
}
