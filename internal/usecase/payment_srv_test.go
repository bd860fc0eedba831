package usecase

import (
	"context"
	"testing"
	"time"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/dto/request"
	"service-marketplace/internal/settlement"
	"service-marketplace/pkg/currency"
	"service-marketplace/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type paymentFixture struct {
	payments *memPaymentRepo
	bookings *memBookingRepo
	gateway  *scriptedGateway
	svc      PaymentService

	booking  *entity.Booking
	seeker   uuid.UUID
	provider uuid.UUID
}

func newPaymentFixture(t *testing.T) *paymentFixture {
	t.Helper()

	rates, err := currency.NewTable("v1", "USD", map[string]decimal.Decimal{
		"LKR": decimal.RequireFromString("0.0033"),
	})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}

	payments := newMemPaymentRepo()
	bookings := newMemBookingRepo()
	gateway := &scriptedGateway{
		intent:        &settlement.Intent{Ref: "chrg_1", Status: settlement.GatewayStatusPending},
		confirmStatus: settlement.GatewayStatusSucceeded,
		refundRef:     "rfnd_1",
	}
	log := zap.NewNop()

	adapters := settlement.NewRegistry(
		settlement.NewGatewayAdapter(gateway, rates, log),
		settlement.NewBankTransferAdapter(log),
	)
	repo := newTestRepo(payments, bookings, newMemDisputeRepo())
	reconciler := NewBookingReconciler(bookings, log)
	svc := NewPaymentService(repo, adapters, gateway, reconciler, noopLocker{}, nil, 30*time.Minute, log)

	seeker := uuid.New()
	provider := uuid.New()
	now := time.Now()
	booking := &entity.Booking{
		Base:          entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ProviderID:    provider,
		SeekerID:      seeker,
		ScheduledAt:   now.Add(24 * time.Hour),
		Description:   "plumbing repair",
		AgreedPrice:   decimal.RequireFromString("10500.00"),
		Currency:      "LKR",
		Status:        entity.BookingStatusAccepted,
		PaymentStatus: entity.BookingPaymentUnpaid,
	}
	if err := bookings.Create(context.Background(), booking); err != nil {
		t.Fatalf("seed booking: %v", err)
	}

	return &paymentFixture{
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		svc:      svc,
		booking:  booking,
		seeker:   seeker,
		provider: provider,
	}
}

func (f *paymentFixture) initiateBank(t *testing.T) string {
	t.Helper()
	resp, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "bank_transfer",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	return resp.ID
}

func (f *paymentFixture) bookingStatus(t *testing.T) entity.BookingPaymentStatus {
	t.Helper()
	b, err := f.bookings.FindByID(context.Background(), f.booking.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return b.PaymentStatus
}

func TestInitiateBankTransfer(t *testing.T) {
	f := newPaymentFixture(t)

	resp, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "bank_transfer",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if resp.Status != string(entity.PaymentStatusAwaitingPayee) {
		t.Errorf("status = %s, want %s", resp.Status, entity.PaymentStatusAwaitingPayee)
	}
	if resp.Amount != "10500.00" || resp.Currency != "LKR" {
		t.Errorf("amount = %s %s, want 10500.00 LKR", resp.Amount, resp.Currency)
	}
	if resp.ReferenceToken == nil || *resp.ReferenceToken == "" {
		t.Error("expected a generated reference token")
	}
	if got := f.bookingStatus(t); got != entity.BookingPaymentProcessing {
		t.Errorf("booking payment status = %s, want processing", got)
	}
}

func TestInitiateAuthorization(t *testing.T) {
	f := newPaymentFixture(t)

	// The provider is the payee; it must not be able to initiate.
	_, err := f.svc.InitiatePayment(context.Background(), f.provider.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "bank_transfer",
	})
	if errs.KindOf(err) != errs.KindAuthorization {
		t.Errorf("err = %v, want authorization error", err)
	}
}

func TestInitiateConflictOnActivePayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.initiateBank(t)

	_, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "bank_transfer",
	})
	if errs.KindOf(err) != errs.KindConflict {
		t.Errorf("err = %v, want conflict error", err)
	}
}

func TestInitiateCancelsStalePayment(t *testing.T) {
	f := newPaymentFixture(t)
	staleID := f.initiateBank(t)

	// Age the payment past the staleness window.
	stale := f.payments.payments[uuid.MustParse(staleID)]
	stale.UpdatedAt = time.Now().Add(-time.Hour)

	resp, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "bank_transfer",
	})
	if err != nil {
		t.Fatalf("InitiatePayment after stale: %v", err)
	}
	if resp.ID == staleID {
		t.Fatal("expected a fresh payment, got the stale one")
	}
	if got := f.payments.payments[uuid.MustParse(staleID)].Status; got != entity.PaymentStatusCancelled {
		t.Errorf("stale payment status = %s, want cancelled", got)
	}
}

func TestInitiateRejectsUnpayableBooking(t *testing.T) {
	f := newPaymentFixture(t)
	f.booking.Status = entity.BookingStatusPending
	f.bookings.bookings[f.booking.ID].Status = entity.BookingStatusPending

	_, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "bank_transfer",
	})
	if errs.KindOf(err) != errs.KindInvalidState {
		t.Errorf("err = %v, want invalid state error", err)
	}
}

func TestInitiateGatewayCard(t *testing.T) {
	f := newPaymentFixture(t)

	resp, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "gateway_card",
		CardToken: "tok_visa",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if resp.Status != string(entity.PaymentStatusAwaitingPayer) {
		t.Errorf("status = %s, want %s", resp.Status, entity.PaymentStatusAwaitingPayer)
	}
	if resp.GatewayRef == nil || *resp.GatewayRef != "chrg_1" {
		t.Errorf("gateway ref = %v, want chrg_1", resp.GatewayRef)
	}
	if resp.GatewayAmount == nil || *resp.GatewayAmount != "34.65" {
		t.Errorf("gateway amount = %v, want 34.65", resp.GatewayAmount)
	}
}

func TestInitiateGatewayFailureLeavesNoPayment(t *testing.T) {
	f := newPaymentFixture(t)
	f.gateway.intentErr = errs.External("gateway", context.DeadlineExceeded)

	_, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "gateway_card",
		CardToken: "tok_visa",
	})
	if errs.KindOf(err) != errs.KindExternal {
		t.Fatalf("err = %v, want external error", err)
	}
	if len(f.payments.payments) != 0 {
		t.Error("a payment was persisted despite the gateway failure")
	}
	if got := f.bookingStatus(t); got != entity.BookingPaymentUnpaid {
		t.Errorf("booking payment status = %s, want unpaid", got)
	}
}

func TestRecordBankReceipt(t *testing.T) {
	f := newPaymentFixture(t)
	paymentID := f.initiateBank(t)

	key := "receipts/" + paymentID + "/slip.pdf"
	req := &request.RecordReceiptRequest{
		BankDetails: request.BankDetailsRequest{
			BankName:      "Commercial Bank",
			AccountName:   "J. Perera",
			AccountNumber: "8001234567",
		},
	}

	resp, err := f.svc.RecordBankReceipt(context.Background(), f.seeker.String(), paymentID, req, &key)
	if err != nil {
		t.Fatalf("RecordBankReceipt: %v", err)
	}
	if resp.Status != string(entity.PaymentStatusAwaitingPayee) {
		t.Errorf("receipt intake must not change state; status = %s", resp.Status)
	}
	if resp.BankDetails == nil || resp.BankDetails.BankName != "Commercial Bank" {
		t.Error("bank details not attached")
	}

	// Only the payer may submit.
	if _, err := f.svc.RecordBankReceipt(context.Background(), f.provider.String(), paymentID, req, nil); errs.KindOf(err) != errs.KindAuthorization {
		t.Errorf("payee submit: err = %v, want authorization error", err)
	}
}

func TestConfirmByPayee(t *testing.T) {
	f := newPaymentFixture(t)
	paymentID := f.initiateBank(t)

	// Only the payee may confirm.
	accept := &request.ConfirmByPayeeRequest{Accept: true}
	if _, err := f.svc.ConfirmByPayee(context.Background(), f.seeker.String(), paymentID, accept); errs.KindOf(err) != errs.KindAuthorization {
		t.Fatalf("payer confirm: err = %v, want authorization error", err)
	}

	resp, err := f.svc.ConfirmByPayee(context.Background(), f.provider.String(), paymentID, accept)
	if err != nil {
		t.Fatalf("ConfirmByPayee: %v", err)
	}
	if resp.Status != string(entity.PaymentStatusSettled) {
		t.Errorf("status = %s, want settled", resp.Status)
	}
	if resp.SettledAt == nil {
		t.Error("settled_at not set")
	}
	if got := f.bookingStatus(t); got != entity.BookingPaymentPaid {
		t.Errorf("booking payment status = %s, want paid", got)
	}

	// A repeat confirm observes the terminal state and returns it.
	again, err := f.svc.ConfirmByPayee(context.Background(), f.provider.String(), paymentID, accept)
	if err != nil {
		t.Fatalf("repeat ConfirmByPayee: %v", err)
	}
	if again.Status != string(entity.PaymentStatusSettled) {
		t.Errorf("repeat status = %s, want settled", again.Status)
	}
	if n := f.bookings.countWrites(entity.BookingPaymentPaid); n != 1 {
		t.Errorf("paid reconciliations = %d, want 1", n)
	}
}

func TestConfirmByPayeeReject(t *testing.T) {
	f := newPaymentFixture(t)
	paymentID := f.initiateBank(t)

	note := "amount does not match"
	resp, err := f.svc.ConfirmByPayee(context.Background(), f.provider.String(), paymentID, &request.ConfirmByPayeeRequest{
		Accept: false,
		Note:   &note,
	})
	if err != nil {
		t.Fatalf("ConfirmByPayee: %v", err)
	}
	if resp.Status != string(entity.PaymentStatusFailed) {
		t.Errorf("status = %s, want failed", resp.Status)
	}
	if resp.FailureReason == nil || *resp.FailureReason != note {
		t.Errorf("failure reason = %v, want %q", resp.FailureReason, note)
	}
	if got := f.bookingStatus(t); got != entity.BookingPaymentFailed {
		t.Errorf("booking payment status = %s, want failed", got)
	}
}

func TestConfirmGatewaySettlementIdempotent(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "gateway_card",
		CardToken: "tok_visa",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	// Webhook delivery.
	resp, applied, err := f.svc.ConfirmGatewaySettlement(context.Background(), "chrg_1", settlement.GatewayStatusSucceeded, "")
	if err != nil {
		t.Fatalf("ConfirmGatewaySettlement: %v", err)
	}
	if !applied {
		t.Error("first confirm should apply")
	}
	if resp.Status != string(entity.PaymentStatusSettled) {
		t.Errorf("status = %s, want settled", resp.Status)
	}

	// Replay (webhook retry or racing poll).
	resp, applied, err = f.svc.ConfirmGatewaySettlement(context.Background(), "chrg_1", settlement.GatewayStatusSucceeded, "")
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if applied {
		t.Error("replay must not re-apply")
	}
	if resp.Status != string(entity.PaymentStatusSettled) {
		t.Errorf("replay status = %s, want settled", resp.Status)
	}
	if n := f.bookings.countWrites(entity.BookingPaymentPaid); n != 1 {
		t.Errorf("paid reconciliations = %d, want 1", n)
	}
}

func TestConfirmGatewaySettlementFailure(t *testing.T) {
	f := newPaymentFixture(t)
	_, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "gateway_card",
		CardToken: "tok_visa",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	resp, applied, err := f.svc.ConfirmGatewaySettlement(context.Background(), "chrg_1", settlement.GatewayStatusFailed, "insufficient funds")
	if err != nil {
		t.Fatalf("ConfirmGatewaySettlement: %v", err)
	}
	if !applied {
		t.Error("failure outcome should apply")
	}
	if resp.Status != string(entity.PaymentStatusFailed) {
		t.Errorf("status = %s, want failed", resp.Status)
	}
	if resp.FailureReason == nil || *resp.FailureReason != "insufficient funds" {
		t.Errorf("failure reason = %v", resp.FailureReason)
	}
	if got := f.bookingStatus(t); got != entity.BookingPaymentFailed {
		t.Errorf("booking payment status = %s, want failed", got)
	}
}

func TestPollGatewayRetriesOnce(t *testing.T) {
	f := newPaymentFixture(t)
	resp, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "gateway_card",
		CardToken: "tok_visa",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	// First read fails transiently; the single retry succeeds.
	f.gateway.confirmErrs = []error{errs.External("gateway", context.DeadlineExceeded)}

	polled, err := f.svc.PollGatewayStatus(context.Background(), f.seeker.String(), resp.ID)
	if err != nil {
		t.Fatalf("PollGatewayStatus: %v", err)
	}
	if polled.Status != string(entity.PaymentStatusSettled) {
		t.Errorf("status = %s, want settled", polled.Status)
	}
	if f.gateway.confirmCalls != 2 {
		t.Errorf("confirm calls = %d, want 2 (one retry)", f.gateway.confirmCalls)
	}
}

func TestPollGatewayGivesUpAfterOneRetry(t *testing.T) {
	f := newPaymentFixture(t)
	resp, err := f.svc.InitiatePayment(context.Background(), f.seeker.String(), &request.InitiatePaymentRequest{
		BookingID: f.booking.ID.String(),
		Method:    "gateway_card",
		CardToken: "tok_visa",
	})
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	f.gateway.confirmErrs = []error{
		errs.External("gateway", context.DeadlineExceeded),
		errs.External("gateway", context.DeadlineExceeded),
	}

	if _, err := f.svc.PollGatewayStatus(context.Background(), f.seeker.String(), resp.ID); errs.KindOf(err) != errs.KindExternal {
		t.Fatalf("err = %v, want external error", err)
	}
	if f.gateway.confirmCalls != 2 {
		t.Errorf("confirm calls = %d, want 2", f.gateway.confirmCalls)
	}
	// No optimistic advancement on timeout.
	polled, err := f.svc.GetPayment(context.Background(), f.seeker.String(), resp.ID)
	if err != nil {
		t.Fatalf("GetPayment: %v", err)
	}
	if polled.Status != string(entity.PaymentStatusAwaitingPayer) {
		t.Errorf("status = %s, want awaiting_payer_action", polled.Status)
	}
}

func TestRefundOnlyFromSettled(t *testing.T) {
	f := newPaymentFixture(t)
	paymentID := f.initiateBank(t)

	req := &request.RefundPaymentRequest{Reason: "customer complaint"}
	if _, err := f.svc.RefundPayment(context.Background(), f.provider.String(), paymentID, req); errs.KindOf(err) != errs.KindInvalidState {
		t.Fatalf("refund before settlement: err = %v, want invalid state", err)
	}

	if _, err := f.svc.ConfirmByPayee(context.Background(), f.provider.String(), paymentID, &request.ConfirmByPayeeRequest{Accept: true}); err != nil {
		t.Fatalf("ConfirmByPayee: %v", err)
	}

	resp, err := f.svc.RefundPayment(context.Background(), f.provider.String(), paymentID, req)
	if err != nil {
		t.Fatalf("RefundPayment: %v", err)
	}
	if resp.Status != string(entity.PaymentStatusRefunded) {
		t.Errorf("status = %s, want refunded", resp.Status)
	}
	if resp.Refund == nil || resp.Refund.Amount != "10500.00" {
		t.Errorf("refund sub-record = %+v, want full amount", resp.Refund)
	}
	if got := f.bookingStatus(t); got != entity.BookingPaymentRefunded {
		t.Errorf("booking payment status = %s, want refunded", got)
	}

	// Refunded is terminal; a second refund is illegal.
	if _, err := f.svc.RefundPayment(context.Background(), f.provider.String(), paymentID, req); errs.KindOf(err) != errs.KindInvalidState {
		t.Errorf("double refund: err = %v, want invalid state", err)
	}
}

func TestRefundAuthorization(t *testing.T) {
	f := newPaymentFixture(t)
	paymentID := f.initiateBank(t)
	if _, err := f.svc.ConfirmByPayee(context.Background(), f.provider.String(), paymentID, &request.ConfirmByPayeeRequest{Accept: true}); err != nil {
		t.Fatalf("ConfirmByPayee: %v", err)
	}

	// The payer cannot trigger a voluntary refund.
	req := &request.RefundPaymentRequest{Reason: "changed my mind"}
	if _, err := f.svc.RefundPayment(context.Background(), f.seeker.String(), paymentID, req); errs.KindOf(err) != errs.KindAuthorization {
		t.Errorf("err = %v, want authorization error", err)
	}
}

func TestRefundAmountBounds(t *testing.T) {
	f := newPaymentFixture(t)
	paymentID := f.initiateBank(t)
	if _, err := f.svc.ConfirmByPayee(context.Background(), f.provider.String(), paymentID, &request.ConfirmByPayeeRequest{Accept: true}); err != nil {
		t.Fatalf("ConfirmByPayee: %v", err)
	}

	over := "20000.00"
	req := &request.RefundPaymentRequest{Amount: &over, Reason: "oops"}
	if _, err := f.svc.RefundPayment(context.Background(), f.provider.String(), paymentID, req); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("over-refund: err = %v, want validation error", err)
	}
}

func TestGetBookingWithPayments(t *testing.T) {
	f := newPaymentFixture(t)
	f.initiateBank(t)

	detail, err := f.svc.GetBooking(context.Background(), f.seeker.String(), f.booking.ID.String())
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if len(detail.Payments) != 1 {
		t.Errorf("payments = %d, want 1", len(detail.Payments))
	}
	if detail.PaymentStatus != string(entity.BookingPaymentProcessing) {
		t.Errorf("payment status = %s, want processing", detail.PaymentStatus)
	}

	// Outsiders cannot read the booking.
	if _, err := f.svc.GetBooking(context.Background(), uuid.NewString(), f.booking.ID.String()); errs.KindOf(err) != errs.KindAuthorization {
		t.Errorf("err = %v, want authorization error", err)
	}
}
