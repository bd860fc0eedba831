package usecase

import (
	"context"
	"fmt"
	"time"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/data/repository"
	"service-marketplace/internal/dto/request"
	"service-marketplace/internal/dto/response"
	"service-marketplace/pkg/errs"
	"service-marketplace/pkg/lock"
	"service-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DisputeService is the dispute arbiter. Filing and resolution run under
// the same per-booking lock as the payment ledger, so a resolution refund
// and a concurrent payment operation cannot interleave.
type DisputeService interface {
	FileDispute(ctx context.Context, partyID string, req *request.FileDisputeRequest) (*response.DisputeResponse, error)
	TransitionStatus(ctx context.Context, arbiterID, disputeID, newStatus string, note *string) (*response.DisputeResponse, error)
	AddMessage(ctx context.Context, authorID string, isArbiter bool, disputeID string, req *request.DisputeMessageRequest) (*response.DisputeMessageResponse, error)
	AddEvidence(ctx context.Context, partyID, disputeID, artifactKey string, description *string) (*response.DisputeEvidenceResponse, error)
	Resolve(ctx context.Context, arbiterID, disputeID string, req *request.ResolveDisputeRequest) (*response.DisputeResponse, error)
	Close(ctx context.Context, arbiterID, disputeID string) (*response.DisputeResponse, error)

	GetDispute(ctx context.Context, callerID string, isArbiter bool, disputeID string) (*response.DisputeDetailResponse, error)
	ListPartyDisputes(ctx context.Context, partyID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.DisputeResponse], error)
}

type disputeService struct {
	repo      *repository.Repository
	refunder  RefundExecutor
	locker    lock.Locker
	presigner ArtifactPresigner
	log       *zap.Logger
}

func NewDisputeService(
	repo *repository.Repository,
	refunder RefundExecutor,
	locker lock.Locker,
	presigner ArtifactPresigner,
	log *zap.Logger,
) DisputeService {
	return &disputeService{
		repo:      repo,
		refunder:  refunder,
		locker:    locker,
		presigner: presigner,
		log:       log.With(zap.String("service", "dispute")),
	}
}

func (s *disputeService) FileDispute(ctx context.Context, partyID string, req *request.FileDisputeRequest) (*response.DisputeResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		s.log.Warn("File dispute validation failed", zap.Any("errors", verrs))
		return nil, errs.Validation(utils.FormatValidationErrors(verrs))
	}

	partyUUID, err := uuid.Parse(partyID)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("invalid party ID %s", partyID))
	}
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("invalid booking ID %s", req.BookingID))
	}

	var resp *response.DisputeResponse
	err = s.locker.WithLock(ctx, bookingID.String(), func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return errs.NotFound("booking", req.BookingID)
		}
		against, ok := booking.Counterparty(partyUUID)
		if !ok {
			return errs.Authorization("only the booking's parties may file a dispute")
		}

		active, err := s.repo.Dispute.FindActiveByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if active != nil {
			return errs.Conflict("dispute", active.ID.String(), "an active dispute already exists for this booking")
		}

		// Snapshot the payment under contention: the active one if a
		// settlement is in flight (mid bank-transfer disputes are allowed),
		// otherwise the most recent attempt.
		payment, err := s.repo.Payment.FindActiveByBookingID(ctx, bookingID)
		if err != nil {
			return err
		}
		if payment == nil {
			payment, err = s.repo.Payment.FindLatestByBookingID(ctx, bookingID)
			if err != nil {
				return err
			}
		}
		if payment == nil {
			return errs.Conflict("booking", req.BookingID, "no payment exists to dispute")
		}

		priority := entity.DisputePriorityMedium
		if req.Priority != "" {
			priority = entity.DisputePriority(req.Priority)
		}

		now := time.Now()
		dispute := &entity.Dispute{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID:   bookingID,
			PaymentID:   payment.ID,
			RaisedBy:    partyUUID,
			Against:     against,
			Category:    entity.DisputeCategory(req.Category),
			Priority:    priority,
			Status:      entity.DisputeStatusOpen,
			Description: req.Description,
		}
		if err := s.repo.Dispute.Create(ctx, dispute); err != nil {
			return err
		}

		s.log.Info("Dispute filed",
			zap.String("dispute_id", dispute.ID.String()),
			zap.String("booking_id", req.BookingID),
			zap.String("payment_id", payment.ID.String()),
			zap.String("category", req.Category),
			zap.String("priority", string(priority)),
		)

		r := response.DisputeToResponse(dispute)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *disputeService) TransitionStatus(ctx context.Context, arbiterID, disputeID, newStatus string, note *string) (*response.DisputeResponse, error) {
	arbiterUUID, dispute, err := s.loadDispute(ctx, arbiterID, disputeID)
	if err != nil {
		return nil, err
	}

	to := entity.DisputeStatus(newStatus)
	switch to {
	case entity.DisputeStatusResolved:
		return nil, errs.Validation("resolution goes through the resolve operation")
	case entity.DisputeStatusClosed:
		return nil, errs.Validation("closing goes through the close operation")
	}
	if !dispute.Status.CanTransition(to) {
		return nil, errs.InvalidState("dispute", disputeID, string(dispute.Status), fmt.Sprintf("transition to %s", to))
	}

	var resp *response.DisputeResponse
	err = s.locker.WithLock(ctx, dispute.BookingID.String(), func(ctx context.Context) error {
		// Assignment happens on the first transition out of open.
		var assignTo *uuid.UUID
		if dispute.AssignedTo == nil {
			assignTo = &arbiterUUID
		}

		applied, err := s.repo.Dispute.TransitionStatus(ctx, dispute.ID, dispute.Status, to, assignTo)
		if err != nil {
			return err
		}
		if !applied {
			return errs.InvalidState("dispute", disputeID, string(dispute.Status), fmt.Sprintf("transition to %s", to))
		}

		if note != nil && *note != "" {
			if err := s.appendMessage(ctx, dispute.ID, arbiterUUID, *note, true); err != nil {
				return err
			}
		}

		s.log.Info("Dispute status transitioned",
			zap.String("dispute_id", disputeID),
			zap.String("from", string(dispute.Status)),
			zap.String("to", string(to)),
			zap.String("arbiter_id", arbiterID),
		)

		current, err := s.repo.Dispute.FindByID(ctx, dispute.ID)
		if err != nil {
			return err
		}
		r := response.DisputeToResponse(current)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *disputeService) AddMessage(ctx context.Context, authorID string, isArbiter bool, disputeID string, req *request.DisputeMessageRequest) (*response.DisputeMessageResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		return nil, errs.Validation(utils.FormatValidationErrors(verrs))
	}

	authorUUID, dispute, err := s.loadDispute(ctx, authorID, disputeID)
	if err != nil {
		return nil, err
	}
	if !isArbiter && authorUUID != dispute.RaisedBy && authorUUID != dispute.Against {
		return nil, errs.Authorization("only the dispute's parties and arbiters may post messages")
	}
	if dispute.Status == entity.DisputeStatusClosed {
		return nil, errs.InvalidState("dispute", disputeID, string(dispute.Status), "add message")
	}

	message := &entity.DisputeMessage{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		DisputeID: dispute.ID,
		AuthorID:  authorUUID,
		Body:      req.Body,
		IsArbiter: isArbiter,
	}
	if err := s.repo.Dispute.AddMessage(ctx, message); err != nil {
		return nil, err
	}

	resp := response.DisputeMessageToResponse(message)
	return &resp, nil
}

func (s *disputeService) AddEvidence(ctx context.Context, partyID, disputeID, artifactKey string, description *string) (*response.DisputeEvidenceResponse, error) {
	if artifactKey == "" {
		return nil, errs.Validation("evidence artifact is required")
	}

	partyUUID, dispute, err := s.loadDispute(ctx, partyID, disputeID)
	if err != nil {
		return nil, err
	}
	if partyUUID != dispute.RaisedBy && partyUUID != dispute.Against {
		return nil, errs.Authorization("only the dispute's parties may submit evidence")
	}
	if !dispute.Status.Active() {
		return nil, errs.InvalidState("dispute", disputeID, string(dispute.Status), "add evidence")
	}

	evidence := &entity.DisputeEvidence{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		DisputeID:   dispute.ID,
		UploadedBy:  partyUUID,
		ArtifactKey: artifactKey,
		Description: description,
	}
	if err := s.repo.Dispute.AddEvidence(ctx, evidence); err != nil {
		return nil, err
	}

	s.log.Info("Evidence added",
		zap.String("dispute_id", disputeID),
		zap.String("artifact_key", artifactKey),
	)

	resp := s.evidenceToResponse(ctx, evidence)
	return &resp, nil
}

func (s *disputeService) Resolve(ctx context.Context, arbiterID, disputeID string, req *request.ResolveDisputeRequest) (*response.DisputeResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		s.log.Warn("Resolve dispute validation failed", zap.Any("errors", verrs))
		return nil, errs.Validation(utils.FormatValidationErrors(verrs))
	}

	arbiterUUID, dispute, err := s.loadDispute(ctx, arbiterID, disputeID)
	if err != nil {
		return nil, err
	}

	outcome := entity.DisputeOutcome(req.Outcome)
	var outcomeAmount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil || parsed.Sign() <= 0 {
			return nil, errs.Validation(fmt.Sprintf("invalid outcome amount %q", *req.Amount))
		}
		outcomeAmount = &parsed
	}
	if outcome == entity.OutcomePartialRefund && outcomeAmount == nil {
		return nil, errs.Validation("partial refund requires an outcome amount")
	}

	var resp *response.DisputeResponse
	err = s.locker.WithLock(ctx, dispute.BookingID.String(), func(ctx context.Context) error {
		current, err := s.repo.Dispute.FindByID(ctx, dispute.ID)
		if err != nil {
			return err
		}
		if current.Status != entity.DisputeStatusUnderReview {
			return errs.InvalidState("dispute", disputeID, string(current.Status), "resolve")
		}
		if current.Resolution != nil {
			return errs.InvalidState("dispute", disputeID, string(current.Status), "resolve again")
		}

		// Money first: if the refund fails the resolution is rejected and
		// the dispute stays under review, so resolution and refund commit
		// together or not at all.
		if outcome.RequiresRefund() {
			if _, err := s.refunder.ExecuteRefund(ctx, current.PaymentID, outcomeAmount, req.Description); err != nil {
				return err
			}
		}

		resolution := entity.Resolution{
			Description:   req.Description,
			Outcome:       outcome,
			OutcomeAmount: outcomeAmount,
			ResolvedBy:    arbiterUUID,
			ResolvedAt:    time.Now(),
		}
		applied, err := s.repo.Dispute.SetResolution(ctx, current.ID, resolution)
		if err != nil {
			if outcome.RequiresRefund() {
				// The refund already applied; an operator must reconcile the
				// dispute record by hand.
				s.log.Error("Refund applied but resolution not recorded",
					zap.String("dispute_id", disputeID),
					zap.String("payment_id", current.PaymentID.String()),
					zap.Error(err),
				)
			}
			return err
		}
		if !applied {
			return errs.InvalidState("dispute", disputeID, string(current.Status), "resolve again")
		}

		s.log.Info("Dispute resolved",
			zap.String("dispute_id", disputeID),
			zap.String("outcome", req.Outcome),
			zap.String("arbiter_id", arbiterID),
		)

		current, err = s.repo.Dispute.FindByID(ctx, current.ID)
		if err != nil {
			return err
		}
		r := response.DisputeToResponse(current)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *disputeService) Close(ctx context.Context, arbiterID, disputeID string) (*response.DisputeResponse, error) {
	_, dispute, err := s.loadDispute(ctx, arbiterID, disputeID)
	if err != nil {
		return nil, err
	}

	var resp *response.DisputeResponse
	err = s.locker.WithLock(ctx, dispute.BookingID.String(), func(ctx context.Context) error {
		applied, err := s.repo.Dispute.TransitionStatus(ctx, dispute.ID, entity.DisputeStatusResolved, entity.DisputeStatusClosed, nil)
		if err != nil {
			return err
		}
		if !applied {
			current, err := s.repo.Dispute.FindByID(ctx, dispute.ID)
			if err != nil {
				return err
			}
			return errs.InvalidState("dispute", disputeID, string(current.Status), "close")
		}

		s.log.Info("Dispute closed",
			zap.String("dispute_id", disputeID),
			zap.String("arbiter_id", arbiterID),
		)

		current, err := s.repo.Dispute.FindByID(ctx, dispute.ID)
		if err != nil {
			return err
		}
		r := response.DisputeToResponse(current)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ==================== READ SURFACE ====================

func (s *disputeService) GetDispute(ctx context.Context, callerID string, isArbiter bool, disputeID string) (*response.DisputeDetailResponse, error) {
	callerUUID, dispute, err := s.loadDispute(ctx, callerID, disputeID)
	if err != nil {
		return nil, err
	}
	if !isArbiter && callerUUID != dispute.RaisedBy && callerUUID != dispute.Against {
		return nil, errs.Authorization("caller is not a party to this dispute")
	}

	messages, err := s.repo.Dispute.ListMessages(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}
	evidence, err := s.repo.Dispute.ListEvidence(ctx, dispute.ID)
	if err != nil {
		return nil, err
	}

	detail := &response.DisputeDetailResponse{
		DisputeResponse: response.DisputeToResponse(dispute),
		Messages:        make([]response.DisputeMessageResponse, len(messages)),
		Evidence:        make([]response.DisputeEvidenceResponse, len(evidence)),
	}
	for i, message := range messages {
		detail.Messages[i] = response.DisputeMessageToResponse(message)
	}
	for i, item := range evidence {
		detail.Evidence[i] = s.evidenceToResponse(ctx, item)
	}

	return detail, nil
}

func (s *disputeService) ListPartyDisputes(ctx context.Context, partyID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.DisputeResponse], error) {
	partyUUID, err := uuid.Parse(partyID)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("invalid party ID %s", partyID))
	}

	disputes, err := s.repo.Dispute.FindByPartyID(ctx, partyUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Dispute.CountByPartyID(ctx, partyUUID)
	if err != nil {
		return nil, err
	}

	disputeResponses := make([]response.DisputeResponse, len(disputes))
	for i, dispute := range disputes {
		disputeResponses[i] = response.DisputeToResponse(dispute)
	}

	return response.NewPaginatedResponse(disputeResponses, req.Page, req.PerPage, total), nil
}

// ==================== HELPER METHODS ====================

func (s *disputeService) loadDispute(ctx context.Context, callerID, disputeID string) (uuid.UUID, *entity.Dispute, error) {
	callerUUID, err := uuid.Parse(callerID)
	if err != nil {
		return uuid.Nil, nil, errs.Validation(fmt.Sprintf("invalid caller ID %s", callerID))
	}
	disputeUUID, err := uuid.Parse(disputeID)
	if err != nil {
		return uuid.Nil, nil, errs.Validation(fmt.Sprintf("invalid dispute ID %s", disputeID))
	}

	dispute, err := s.repo.Dispute.FindByID(ctx, disputeUUID)
	if err != nil {
		return uuid.Nil, nil, err
	}
	if dispute == nil {
		return uuid.Nil, nil, errs.NotFound("dispute", disputeID)
	}
	return callerUUID, dispute, nil
}

func (s *disputeService) appendMessage(ctx context.Context, disputeID, authorID uuid.UUID, body string, isArbiter bool) error {
	return s.repo.Dispute.AddMessage(ctx, &entity.DisputeMessage{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
		},
		DisputeID: disputeID,
		AuthorID:  authorID,
		Body:      body,
		IsArbiter: isArbiter,
	})
}

func (s *disputeService) evidenceToResponse(ctx context.Context, evidence *entity.DisputeEvidence) response.DisputeEvidenceResponse {
	resp := response.DisputeEvidenceResponse{
		ID:          evidence.ID.String(),
		UploadedBy:  evidence.UploadedBy.String(),
		Description: evidence.Description,
		CreatedAt:   evidence.CreatedAt,
	}
	if s.presigner != nil {
		url, err := s.presigner.PresignedDownloadURL(ctx, evidence.ArtifactKey)
		if err != nil {
			s.log.Warn("Failed to presign evidence",
				zap.String("dispute_id", evidence.DisputeID.String()),
				zap.Error(err),
			)
		} else {
			resp.DownloadURL = url
		}
	}
	return resp
}
