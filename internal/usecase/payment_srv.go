package usecase

import (
	"context"
	"fmt"
	"time"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/data/repository"
	"service-marketplace/internal/dto/request"
	"service-marketplace/internal/dto/response"
	"service-marketplace/internal/settlement"
	"service-marketplace/pkg/errs"
	"service-marketplace/pkg/lock"
	"service-marketplace/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// confirmRetryBackoff is the single-retry delay for the idempotent
// gateway status read. Mutating gateway calls are never retried.
const confirmRetryBackoff = 500 * time.Millisecond

// PaymentService is the payment ledger. Every mutating operation runs
// under the per-booking lock so initiate, confirms and refunds on one
// booking cannot interleave.
type PaymentService interface {
	InitiatePayment(ctx context.Context, partyID string, req *request.InitiatePaymentRequest) (*response.PaymentResponse, error)
	RecordBankReceipt(ctx context.Context, partyID, paymentID string, req *request.RecordReceiptRequest, receiptKey *string) (*response.PaymentResponse, error)
	ConfirmByPayee(ctx context.Context, partyID, paymentID string, req *request.ConfirmByPayeeRequest) (*response.PaymentResponse, error)
	// ConfirmGatewaySettlement applies a processor-reported outcome. It is
	// idempotent keyed on the gateway reference: webhook replays and
	// webhook-vs-poll races settle the payment exactly once. The bool
	// reports whether this call moved the payment.
	ConfirmGatewaySettlement(ctx context.Context, gatewayRef string, status settlement.GatewayStatus, reason string) (*response.PaymentResponse, bool, error)
	PollGatewayStatus(ctx context.Context, partyID, paymentID string) (*response.PaymentResponse, error)
	RefundPayment(ctx context.Context, partyID, paymentID string, req *request.RefundPaymentRequest) (*response.PaymentResponse, error)

	GetPayment(ctx context.Context, partyID, paymentID string) (*response.PaymentResponse, error)
	GetBooking(ctx context.Context, partyID, bookingID string) (*response.BookingDetailResponse, error)
	ListPartyBookings(ctx context.Context, partyID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

// RefundExecutor is the slice of the ledger the dispute arbiter drives
// when a resolution moves money. The caller must already hold the
// booking lock.
type RefundExecutor interface {
	ExecuteRefund(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string) (*entity.Payment, error)
}

// ArtifactPresigner hands out short-lived download URLs for stored
// receipt and evidence objects.
type ArtifactPresigner interface {
	PresignedDownloadURL(ctx context.Context, key string) (string, error)
}

type paymentService struct {
	repo       *repository.Repository
	adapters   *settlement.Registry
	gateway    settlement.GatewayClient
	reconciler BookingReconciler
	locker     lock.Locker
	presigner  ArtifactPresigner
	staleAfter time.Duration
	log        *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	adapters *settlement.Registry,
	gateway settlement.GatewayClient,
	reconciler BookingReconciler,
	locker lock.Locker,
	presigner ArtifactPresigner,
	staleAfter time.Duration,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:       repo,
		adapters:   adapters,
		gateway:    gateway,
		reconciler: reconciler,
		locker:     locker,
		presigner:  presigner,
		staleAfter: staleAfter,
		log:        log.With(zap.String("service", "payment")),
	}
}

func (s *paymentService) InitiatePayment(ctx context.Context, partyID string, req *request.InitiatePaymentRequest) (*response.PaymentResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		s.log.Warn("Initiate payment validation failed", zap.Any("errors", verrs))
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

	adapter, err := s.adapters.For(entity.PaymentMethod(req.Method))
	if err != nil {
		return nil, err
	}

	var resp *response.PaymentResponse
	err = s.locker.WithLock(ctx, bookingID.String(), func(ctx context.Context) error {
		booking, err := s.repo.Booking.FindByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil {
			return errs.NotFound("booking", req.BookingID)
		}
		// Only the seeker pays; the provider is always the payee.
		if booking.SeekerID != partyUUID {
			return errs.Authorization("only the booking's seeker may initiate payment")
		}
		if booking.Status != entity.BookingStatusAccepted && booking.Status != entity.BookingStatusCompleted {
			return errs.InvalidState("booking", req.BookingID, string(booking.Status), "initiate payment")
		}

		if err := s.cancelIfStale(ctx, bookingID); err != nil {
			return err
		}

		now := time.Now()
		payment := &entity.Payment{
			Base: entity.Base{
				ID:        uuid.New(),
				CreatedAt: now,
				UpdatedAt: now,
			},
			BookingID: bookingID,
			PayerID:   booking.SeekerID,
			PayeeID:   booking.ProviderID,
			Amount:    booking.AgreedPrice,
			Currency:  booking.Currency,
			Method:    adapter.Method(),
			Status:    entity.PaymentStatusInitiated,
		}
		if adapter.Method() == entity.MethodBankTransfer && req.ReferenceToken == nil {
			// Give the payee something to match the incoming transfer against.
			token := utils.GeneratePaymentReference()
			req.ReferenceToken = &token
		}

		next, err := adapter.Begin(ctx, payment, settlement.BeginInput{
			CardToken:      req.CardToken,
			ReferenceToken: req.ReferenceToken,
		})
		if err != nil {
			// No charge exists (or its outcome is unknown); nothing was
			// persisted, so the attempt simply never happened.
			return err
		}

		if err := s.repo.Payment.Create(ctx, payment); err != nil {
			return err
		}

		switch adapter.Method() {
		case entity.MethodGatewayCard:
			applied, err := s.repo.Payment.AttachGatewayIntent(ctx, payment.ID, *payment.GatewayRef, *payment.GatewayAmount, *payment.GatewayCurrency)
			if err != nil {
				return err
			}
			if !applied {
				return errs.Conflict("payment", payment.ID.String(), "concurrent initiation detected")
			}
		case entity.MethodBankTransfer:
			applied, err := s.repo.Payment.Advance(ctx, payment.ID, entity.PaymentStatusInitiated, next)
			if err != nil {
				return err
			}
			if !applied {
				return errs.Conflict("payment", payment.ID.String(), "concurrent initiation detected")
			}
		}
		payment.Status = next

		if err := s.reconciler.OnPaymentTransition(ctx, payment, next); err != nil {
			return err
		}

		s.log.Info("Payment initiated",
			zap.String("payment_id", payment.ID.String()),
			zap.String("booking_id", bookingID.String()),
			zap.String("method", string(payment.Method)),
			zap.String("status", string(next)),
			zap.String("amount", payment.Amount.String()),
			zap.String("currency", payment.Currency),
		)

		r := response.PaymentToResponse(payment)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// cancelIfStale enforces at-most-one-active-payment. A fresh non-terminal
// payment blocks a new attempt with ConflictError; one idle past the
// staleness window is treated as abandoned and cancelled in place. A
// settled payment always blocks (the booking is paid).
func (s *paymentService) cancelIfStale(ctx context.Context, bookingID uuid.UUID) error {
	active, err := s.repo.Payment.FindActiveByBookingID(ctx, bookingID)
	if err != nil {
		return err
	}
	if active == nil {
		return nil
	}
	if active.Status == entity.PaymentStatusSettled {
		return errs.Conflict("booking", bookingID.String(), "booking is already paid")
	}
	if s.staleAfter <= 0 || time.Since(active.UpdatedAt) < s.staleAfter {
		return errs.Conflict("payment", active.ID.String(),
			fmt.Sprintf("a %s payment already exists for this booking", active.Status))
	}

	applied, err := s.repo.Payment.MarkCancelled(ctx, active.ID, active.Status)
	if err != nil {
		return err
	}
	if !applied {
		return errs.Conflict("payment", active.ID.String(), "payment changed during initiation")
	}
	if err := s.reconciler.OnPaymentTransition(ctx, active, entity.PaymentStatusCancelled); err != nil {
		return err
	}

	s.log.Info("Stale payment cancelled",
		zap.String("payment_id", active.ID.String()),
		zap.String("booking_id", bookingID.String()),
		zap.String("previous_status", string(active.Status)),
	)
	return nil
}

func (s *paymentService) RecordBankReceipt(ctx context.Context, partyID, paymentID string, req *request.RecordReceiptRequest, receiptKey *string) (*response.PaymentResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		s.log.Warn("Record receipt validation failed", zap.Any("errors", verrs))
		return nil, errs.Validation(utils.FormatValidationErrors(verrs))
	}

	payment, partyUUID, err := s.loadPayment(ctx, partyID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PayerID != partyUUID {
		return nil, errs.Authorization("only the payer may submit a receipt")
	}

	var resp *response.PaymentResponse
	err = s.locker.WithLock(ctx, payment.BookingID.String(), func(ctx context.Context) error {
		current, err := s.repo.Payment.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}
		if current.Method != entity.MethodBankTransfer {
			return errs.Validation("receipts apply to bank transfer payments only")
		}
		if current.Status != entity.PaymentStatusAwaitingPayee {
			return errs.InvalidState("payment", paymentID, string(current.Status), "record receipt")
		}

		details := entity.BankDetails{
			BankName:      req.BankDetails.BankName,
			Branch:        req.BankDetails.Branch,
			AccountName:   req.BankDetails.AccountName,
			AccountNumber: req.BankDetails.AccountNumber,
		}
		applied, err := s.repo.Payment.AttachReceipt(ctx, current.ID, details, req.ReferenceToken, receiptKey)
		if err != nil {
			return err
		}
		if !applied {
			return errs.InvalidState("payment", paymentID, string(current.Status), "record receipt")
		}

		// Receipt intake does not advance the state machine; the payee's
		// confirmation does.
		current, err = s.repo.Payment.FindByID(ctx, current.ID)
		if err != nil {
			return err
		}

		s.log.Info("Bank receipt recorded",
			zap.String("payment_id", paymentID),
			zap.Bool("has_artifact", receiptKey != nil),
		)

		r := response.PaymentToResponse(current)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *paymentService) ConfirmByPayee(ctx context.Context, partyID, paymentID string, req *request.ConfirmByPayeeRequest) (*response.PaymentResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		s.log.Warn("Confirm by payee validation failed", zap.Any("errors", verrs))
		return nil, errs.Validation(utils.FormatValidationErrors(verrs))
	}

	payment, partyUUID, err := s.loadPayment(ctx, partyID, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.PayeeID != partyUUID {
		return nil, errs.Authorization("only the payee may confirm a bank transfer")
	}

	var resp *response.PaymentResponse
	err = s.locker.WithLock(ctx, payment.BookingID.String(), func(ctx context.Context) error {
		current, err := s.repo.Payment.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}

		switch current.Status {
		case entity.PaymentStatusAwaitingPayee:
			// fall through to the transition below
		case entity.PaymentStatusSettled, entity.PaymentStatusFailed:
			// A concurrent confirm already decided this payment; return the
			// existing result rather than erroring.
			r := response.PaymentToResponse(current)
			resp = &r
			return nil
		default:
			return errs.InvalidState("payment", paymentID, string(current.Status), "confirm receipt")
		}

		var next entity.PaymentStatus
		if req.Accept {
			settledAt := time.Now()
			applied, err := s.repo.Payment.MarkSettled(ctx, current.ID, entity.PaymentStatusAwaitingPayee, nil, req.Note, settledAt)
			if err != nil {
				return err
			}
			if !applied {
				return s.returnObserved(ctx, current.ID, &resp)
			}
			next = entity.PaymentStatusSettled
		} else {
			reason := "receipt rejected by payee"
			if req.Note != nil && *req.Note != "" {
				reason = *req.Note
			}
			applied, err := s.repo.Payment.MarkFailed(ctx, current.ID, entity.PaymentStatusAwaitingPayee, &reason)
			if err != nil {
				return err
			}
			if !applied {
				return s.returnObserved(ctx, current.ID, &resp)
			}
			next = entity.PaymentStatusFailed
		}

		if err := s.reconciler.OnPaymentTransition(ctx, current, next); err != nil {
			return err
		}

		s.log.Info("Payee confirmation applied",
			zap.String("payment_id", paymentID),
			zap.Bool("accepted", req.Accept),
			zap.String("status", string(next)),
		)

		current, err = s.repo.Payment.FindByID(ctx, current.ID)
		if err != nil {
			return err
		}
		r := response.PaymentToResponse(current)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// returnObserved re-reads a payment after a lost conditional update and
// returns its current state to the caller.
func (s *paymentService) returnObserved(ctx context.Context, id uuid.UUID, out **response.PaymentResponse) error {
	current, err := s.repo.Payment.FindByID(ctx, id)
	if err != nil {
		return err
	}
	r := response.PaymentToResponse(current)
	*out = &r
	return nil
}

func (s *paymentService) ConfirmGatewaySettlement(ctx context.Context, gatewayRef string, status settlement.GatewayStatus, reason string) (*response.PaymentResponse, bool, error) {
	if gatewayRef == "" {
		return nil, false, errs.Validation("gateway reference is required")
	}

	payment, err := s.repo.Payment.FindByGatewayRef(ctx, gatewayRef)
	if err != nil {
		return nil, false, err
	}
	if payment == nil {
		return nil, false, errs.NotFound("payment", gatewayRef)
	}

	var resp *response.PaymentResponse
	applied := false
	err = s.locker.WithLock(ctx, payment.BookingID.String(), func(ctx context.Context) error {
		current, err := s.repo.Payment.FindByID(ctx, payment.ID)
		if err != nil {
			return err
		}

		// Terminal already: a replayed webhook, an out-of-order event or a
		// poll that lost the race. Ack with the existing result.
		if current.Status.Terminal() || current.Status == entity.PaymentStatusSettled {
			r := response.PaymentToResponse(current)
			resp = &r
			return nil
		}

		switch status {
		case settlement.GatewayStatusPending:
			// Still in flight; nothing to apply.
		case settlement.GatewayStatusSucceeded:
			settledAt := time.Now()
			moved, err := s.repo.Payment.MarkSettled(ctx, current.ID, current.Status, &gatewayRef, nil, settledAt)
			if err != nil {
				return err
			}
			if moved {
				applied = true
				if err := s.reconciler.OnPaymentTransition(ctx, current, entity.PaymentStatusSettled); err != nil {
					return err
				}
			}
		case settlement.GatewayStatusFailed:
			failReason := reason
			if failReason == "" {
				failReason = "declined by gateway"
			}
			moved, err := s.repo.Payment.MarkFailed(ctx, current.ID, current.Status, &failReason)
			if err != nil {
				return err
			}
			if moved {
				applied = true
				if err := s.reconciler.OnPaymentTransition(ctx, current, entity.PaymentStatusFailed); err != nil {
					return err
				}
			}
		default:
			return errs.Validation(fmt.Sprintf("unknown gateway status %q", status))
		}

		current, err = s.repo.Payment.FindByID(ctx, current.ID)
		if err != nil {
			return err
		}
		r := response.PaymentToResponse(current)
		resp = &r
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if applied {
		s.log.Info("Gateway settlement applied",
			zap.String("gateway_ref", gatewayRef),
			zap.String("status", string(status)),
		)
	}
	return resp, applied, nil
}

// PollGatewayStatus is the payer-triggered flip side of the webhook: it
// reads the charge from the processor and funnels the outcome through the
// same idempotent confirm path.
func (s *paymentService) PollGatewayStatus(ctx context.Context, partyID, paymentID string) (*response.PaymentResponse, error) {
	payment, partyUUID, err := s.loadPayment(ctx, partyID, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsParty(partyUUID) {
		return nil, errs.Authorization("caller is not a party to this payment")
	}
	if payment.Method != entity.MethodGatewayCard || payment.GatewayRef == nil {
		return nil, errs.Validation("payment has no gateway charge to poll")
	}

	// Terminal payments need no gateway round trip.
	if payment.Status.Terminal() || payment.Status == entity.PaymentStatusSettled {
		r := response.PaymentToResponse(payment)
		return &r, nil
	}

	status, err := s.gateway.Confirm(ctx, *payment.GatewayRef)
	if err != nil && errs.KindOf(err) == errs.KindExternal {
		// One retry with backoff; the status read is idempotent.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(confirmRetryBackoff):
		}
		status, err = s.gateway.Confirm(ctx, *payment.GatewayRef)
	}
	if err != nil {
		return nil, err
	}

	resp, _, err := s.ConfirmGatewaySettlement(ctx, *payment.GatewayRef, status, "")
	return resp, err
}

func (s *paymentService) RefundPayment(ctx context.Context, partyID, paymentID string, req *request.RefundPaymentRequest) (*response.PaymentResponse, error) {
	if verrs := utils.ValidateStruct(req); len(verrs) > 0 {
		s.log.Warn("Refund validation failed", zap.Any("errors", verrs))
		return nil, errs.Validation(utils.FormatValidationErrors(verrs))
	}

	payment, partyUUID, err := s.loadPayment(ctx, partyID, paymentID)
	if err != nil {
		return nil, err
	}
	// Refunds return the payee's money; only the payee may volunteer one.
	// Arbiters refund through dispute resolution instead.
	if payment.PayeeID != partyUUID {
		return nil, errs.Authorization("only the payee may refund this payment")
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		parsed, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return nil, errs.Validation(fmt.Sprintf("invalid refund amount %q", *req.Amount))
		}
		amount = &parsed
	}

	var refunded *entity.Payment
	err = s.locker.WithLock(ctx, payment.BookingID.String(), func(ctx context.Context) error {
		refunded, err = s.ExecuteRefund(ctx, payment.ID, amount, req.Reason)
		return err
	})
	if err != nil {
		return nil, err
	}

	r := response.PaymentToResponse(refunded)
	return &r, nil
}

// ExecuteRefund performs the refund itself. The caller must hold the
// booking lock. Refund is legal only from settled; the external refund
// (gateway path) happens before the ledger write, so a gateway failure
// leaves the payment settled and untouched.
func (s *paymentService) ExecuteRefund(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, reason string) (*entity.Payment, error) {
	payment, err := s.repo.Payment.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, errs.NotFound("payment", paymentID.String())
	}
	if payment.Status != entity.PaymentStatusSettled {
		return nil, errs.InvalidState("payment", paymentID.String(), string(payment.Status), "refund")
	}

	refundAmount := payment.Amount
	if amount != nil {
		refundAmount = *amount
	}
	if refundAmount.Sign() <= 0 || refundAmount.GreaterThan(payment.Amount) {
		return nil, errs.Validation(fmt.Sprintf("refund amount %s must be positive and at most %s",
			refundAmount.String(), payment.Amount.String()))
	}

	adapter, err := s.adapters.For(payment.Method)
	if err != nil {
		return nil, err
	}
	reference, err := adapter.Refund(ctx, payment, refundAmount, reason)
	if err != nil {
		return nil, err
	}

	refund := entity.Refund{
		Amount:     refundAmount,
		Reason:     reason,
		Reference:  reference,
		RefundedAt: time.Now(),
	}
	applied, err := s.repo.Payment.ApplyRefund(ctx, payment.ID, refund)
	if err != nil {
		// Money moved but the ledger write failed; this needs an operator,
		// not a retry.
		s.log.Error("Refund executed but not recorded",
			zap.String("payment_id", paymentID.String()),
			zap.String("refund_reference", reference),
			zap.Error(err),
		)
		return nil, err
	}
	if !applied {
		return nil, errs.InvalidState("payment", paymentID.String(), string(payment.Status), "refund")
	}

	if err := s.reconciler.OnPaymentTransition(ctx, payment, entity.PaymentStatusRefunded); err != nil {
		return nil, err
	}

	s.log.Info("Payment refunded",
		zap.String("payment_id", paymentID.String()),
		zap.String("amount", refundAmount.String()),
		zap.String("reference", reference),
	)

	return s.repo.Payment.FindByID(ctx, payment.ID)
}

// ==================== READ SURFACE ====================

func (s *paymentService) GetPayment(ctx context.Context, partyID, paymentID string) (*response.PaymentResponse, error) {
	payment, partyUUID, err := s.loadPayment(ctx, partyID, paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.IsParty(partyUUID) {
		return nil, errs.Authorization("caller is not a party to this payment")
	}

	resp := response.PaymentToResponse(payment)
	s.attachReceiptURL(ctx, payment, &resp)
	return &resp, nil
}

func (s *paymentService) GetBooking(ctx context.Context, partyID, bookingID string) (*response.BookingDetailResponse, error) {
	partyUUID, err := uuid.Parse(partyID)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("invalid party ID %s", partyID))
	}
	bookingUUID, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("invalid booking ID %s", bookingID))
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingUUID)
	if err != nil {
		return nil, err
	}
	if booking == nil {
		return nil, errs.NotFound("booking", bookingID)
	}
	if !booking.IsParty(partyUUID) {
		return nil, errs.Authorization("caller is not a party to this booking")
	}

	payments, err := s.repo.Payment.ListByBookingID(ctx, bookingUUID)
	if err != nil {
		return nil, err
	}

	paymentResponses := make([]response.PaymentResponse, len(payments))
	for i, payment := range payments {
		paymentResponses[i] = response.PaymentToResponse(payment)
		s.attachReceiptURL(ctx, payment, &paymentResponses[i])
	}

	return &response.BookingDetailResponse{
		BookingResponse: response.BookingToResponse(booking),
		Payments:        paymentResponses,
	}, nil
}

func (s *paymentService) ListPartyBookings(ctx context.Context, partyID string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	partyUUID, err := uuid.Parse(partyID)
	if err != nil {
		return nil, errs.Validation(fmt.Sprintf("invalid party ID %s", partyID))
	}

	bookings, err := s.repo.Booking.FindByPartyID(ctx, partyUUID, req.Limit(), req.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.repo.Booking.CountByPartyID(ctx, partyUUID)
	if err != nil {
		return nil, err
	}

	bookingResponses := make([]response.BookingResponse, len(bookings))
	for i, booking := range bookings {
		bookingResponses[i] = response.BookingToResponse(booking)
	}

	return response.NewPaginatedResponse(bookingResponses, req.Page, req.PerPage, total), nil
}

// ==================== HELPER METHODS ====================

func (s *paymentService) loadPayment(ctx context.Context, partyID, paymentID string) (*entity.Payment, uuid.UUID, error) {
	partyUUID, err := uuid.Parse(partyID)
	if err != nil {
		return nil, uuid.Nil, errs.Validation(fmt.Sprintf("invalid party ID %s", partyID))
	}
	paymentUUID, err := uuid.Parse(paymentID)
	if err != nil {
		return nil, uuid.Nil, errs.Validation(fmt.Sprintf("invalid payment ID %s", paymentID))
	}

	payment, err := s.repo.Payment.FindByID(ctx, paymentUUID)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if payment == nil {
		return nil, uuid.Nil, errs.NotFound("payment", paymentID)
	}
	return payment, partyUUID, nil
}

func (s *paymentService) attachReceiptURL(ctx context.Context, payment *entity.Payment, resp *response.PaymentResponse) {
	if payment.ReceiptKey == nil || s.presigner == nil {
		return
	}
	url, err := s.presigner.PresignedDownloadURL(ctx, *payment.ReceiptKey)
	if err != nil {
		s.log.Warn("Failed to presign receipt",
			zap.String("payment_id", payment.ID.String()),
			zap.Error(err),
		)
		return
	}
	resp.ReceiptURL = &url
}
