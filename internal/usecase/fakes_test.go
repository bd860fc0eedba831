package usecase

import (
	"context"
	"sort"
	"time"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/data/repository"
	"service-marketplace/internal/settlement"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// In-memory repositories with the same conditional-update semantics as
// the SQL ones: a transition applies only when the current status matches
// the expected one.

type memPaymentRepo struct {
	payments map[uuid.UUID]*entity.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*entity.Payment)}
}

func copyPayment(p *entity.Payment) *entity.Payment {
	c := *p
	if p.BankDetails != nil {
		bd := *p.BankDetails
		c.BankDetails = &bd
	}
	if p.Refund != nil {
		r := *p.Refund
		c.Refund = &r
	}
	return &c
}

func (m *memPaymentRepo) Create(_ context.Context, payment *entity.Payment) error {
	m.payments[payment.ID] = copyPayment(payment)
	return nil
}

func (m *memPaymentRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Payment, error) {
	p, ok := m.payments[id]
	if !ok {
		return nil, nil
	}
	return copyPayment(p), nil
}

func (m *memPaymentRepo) FindByGatewayRef(_ context.Context, ref string) (*entity.Payment, error) {
	for _, p := range m.payments {
		if p.GatewayRef != nil && *p.GatewayRef == ref {
			return copyPayment(p), nil
		}
	}
	return nil, nil
}

func (m *memPaymentRepo) byBooking(bookingID uuid.UUID) []*entity.Payment {
	var out []*entity.Payment
	for _, p := range m.payments {
		if p.BookingID == bookingID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memPaymentRepo) FindActiveByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	for _, p := range m.byBooking(bookingID) {
		for _, s := range entity.NonTerminalPaymentStatuses() {
			if p.Status == s {
				return copyPayment(p), nil
			}
		}
	}
	return nil, nil
}

func (m *memPaymentRepo) FindLatestByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Payment, error) {
	all := m.byBooking(bookingID)
	if len(all) == 0 {
		return nil, nil
	}
	return copyPayment(all[0]), nil
}

func (m *memPaymentRepo) ListByBookingID(_ context.Context, bookingID uuid.UUID) ([]*entity.Payment, error) {
	all := m.byBooking(bookingID)
	out := make([]*entity.Payment, len(all))
	for i, p := range all {
		out[i] = copyPayment(p)
	}
	return out, nil
}

func (m *memPaymentRepo) Advance(_ context.Context, id uuid.UUID, from, to entity.PaymentStatus) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = to
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) AttachGatewayIntent(_ context.Context, id uuid.UUID, ref string, amount decimal.Decimal, currency string) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != entity.PaymentStatusInitiated {
		return false, nil
	}
	p.Status = entity.PaymentStatusAwaitingPayer
	p.GatewayRef = &ref
	p.GatewayAmount = &amount
	p.GatewayCurrency = &currency
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) AttachReceipt(_ context.Context, id uuid.UUID, details entity.BankDetails, referenceToken, receiptKey *string) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != entity.PaymentStatusAwaitingPayee {
		return false, nil
	}
	bd := details
	p.BankDetails = &bd
	if referenceToken != nil {
		p.ReferenceToken = referenceToken
	}
	if receiptKey != nil {
		p.ReceiptKey = receiptKey
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) MarkSettled(_ context.Context, id uuid.UUID, from entity.PaymentStatus, gatewayRef, payeeNote *string, settledAt time.Time) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = entity.PaymentStatusSettled
	if gatewayRef != nil {
		p.GatewayRef = gatewayRef
	}
	if payeeNote != nil {
		p.PayeeNote = payeeNote
	}
	p.SettledAt = &settledAt
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) MarkFailed(_ context.Context, id uuid.UUID, from entity.PaymentStatus, reason *string) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = entity.PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) MarkCancelled(_ context.Context, id uuid.UUID, from entity.PaymentStatus) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return false, nil
	}
	p.Status = entity.PaymentStatusCancelled
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *memPaymentRepo) ApplyRefund(_ context.Context, id uuid.UUID, refund entity.Refund) (bool, error) {
	p, ok := m.payments[id]
	if !ok || p.Status != entity.PaymentStatusSettled {
		return false, nil
	}
	p.Status = entity.PaymentStatusRefunded
	r := refund
	p.Refund = &r
	p.UpdatedAt = time.Now()
	return true, nil
}

type memBookingRepo struct {
	bookings map[uuid.UUID]*entity.Booking
	// statusLog records every payment-status write for idempotence checks.
	statusLog []entity.BookingPaymentStatus
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[uuid.UUID]*entity.Booking)}
}

func (m *memBookingRepo) Create(_ context.Context, booking *entity.Booking) error {
	b := *booking
	m.bookings[booking.ID] = &b
	return nil
}

func (m *memBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Booking, error) {
	b, ok := m.bookings[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (m *memBookingRepo) FindByPartyID(_ context.Context, partyID uuid.UUID, limit, offset int) ([]*entity.Booking, error) {
	var out []*entity.Booking
	for _, b := range m.bookings {
		if b.ProviderID == partyID || b.SeekerID == partyID {
			c := *b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBookingRepo) CountByPartyID(_ context.Context, partyID uuid.UUID) (int64, error) {
	var n int64
	for _, b := range m.bookings {
		if b.ProviderID == partyID || b.SeekerID == partyID {
			n++
		}
	}
	return n, nil
}

func (m *memBookingRepo) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status entity.BookingPaymentStatus) error {
	b, ok := m.bookings[id]
	if !ok {
		return nil
	}
	b.PaymentStatus = status
	m.statusLog = append(m.statusLog, status)
	return nil
}

func (m *memBookingRepo) countWrites(status entity.BookingPaymentStatus) int {
	n := 0
	for _, s := range m.statusLog {
		if s == status {
			n++
		}
	}
	return n
}

type memDisputeRepo struct {
	disputes map[uuid.UUID]*entity.Dispute
	messages []*entity.DisputeMessage
	evidence []*entity.DisputeEvidence
}

func newMemDisputeRepo() *memDisputeRepo {
	return &memDisputeRepo{disputes: make(map[uuid.UUID]*entity.Dispute)}
}

func copyDispute(d *entity.Dispute) *entity.Dispute {
	c := *d
	if d.Resolution != nil {
		r := *d.Resolution
		c.Resolution = &r
	}
	return &c
}

func (m *memDisputeRepo) Create(_ context.Context, dispute *entity.Dispute) error {
	m.disputes[dispute.ID] = copyDispute(dispute)
	return nil
}

func (m *memDisputeRepo) FindByID(_ context.Context, id uuid.UUID) (*entity.Dispute, error) {
	d, ok := m.disputes[id]
	if !ok {
		return nil, nil
	}
	return copyDispute(d), nil
}

func (m *memDisputeRepo) FindActiveByBookingID(_ context.Context, bookingID uuid.UUID) (*entity.Dispute, error) {
	for _, d := range m.disputes {
		if d.BookingID == bookingID && d.Status.Active() {
			return copyDispute(d), nil
		}
	}
	return nil, nil
}

func (m *memDisputeRepo) FindByPartyID(_ context.Context, partyID uuid.UUID, limit, offset int) ([]*entity.Dispute, error) {
	var out []*entity.Dispute
	for _, d := range m.disputes {
		if d.RaisedBy == partyID || d.Against == partyID {
			out = append(out, copyDispute(d))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memDisputeRepo) CountByPartyID(_ context.Context, partyID uuid.UUID) (int64, error) {
	var n int64
	for _, d := range m.disputes {
		if d.RaisedBy == partyID || d.Against == partyID {
			n++
		}
	}
	return n, nil
}

func (m *memDisputeRepo) TransitionStatus(_ context.Context, id uuid.UUID, from, to entity.DisputeStatus, assignTo *uuid.UUID) (bool, error) {
	d, ok := m.disputes[id]
	if !ok || d.Status != from {
		return false, nil
	}
	d.Status = to
	if assignTo != nil && d.AssignedTo == nil {
		d.AssignedTo = assignTo
	}
	d.UpdatedAt = time.Now()
	return true, nil
}

func (m *memDisputeRepo) SetResolution(_ context.Context, id uuid.UUID, resolution entity.Resolution) (bool, error) {
	d, ok := m.disputes[id]
	if !ok || d.Status != entity.DisputeStatusUnderReview || d.Resolution != nil {
		return false, nil
	}
	d.Status = entity.DisputeStatusResolved
	r := resolution
	d.Resolution = &r
	d.UpdatedAt = time.Now()
	return true, nil
}

func (m *memDisputeRepo) AddMessage(_ context.Context, message *entity.DisputeMessage) error {
	c := *message
	m.messages = append(m.messages, &c)
	return nil
}

func (m *memDisputeRepo) ListMessages(_ context.Context, disputeID uuid.UUID) ([]*entity.DisputeMessage, error) {
	var out []*entity.DisputeMessage
	for _, msg := range m.messages {
		if msg.DisputeID == disputeID {
			c := *msg
			out = append(out, &c)
		}
	}
	return out, nil
}

func (m *memDisputeRepo) AddEvidence(_ context.Context, evidence *entity.DisputeEvidence) error {
	c := *evidence
	m.evidence = append(m.evidence, &c)
	return nil
}

func (m *memDisputeRepo) ListEvidence(_ context.Context, disputeID uuid.UUID) ([]*entity.DisputeEvidence, error) {
	var out []*entity.DisputeEvidence
	for _, ev := range m.evidence {
		if ev.DisputeID == disputeID {
			c := *ev
			out = append(out, &c)
		}
	}
	return out, nil
}

// noopLocker runs the callback inline; lock semantics themselves are
// covered by pkg/lock.
type noopLocker struct{}

func (noopLocker) WithLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// scriptedGateway is a settlement.GatewayClient whose responses are set
// per test. confirmErrs are consumed one per Confirm call before
// confirmStatus is returned.
type scriptedGateway struct {
	intent      *settlement.Intent
	intentErr   error
	createCalls int

	confirmStatus settlement.GatewayStatus
	confirmErrs   []error
	confirmCalls  int

	refundRef   string
	refundErr   error
	refundCalls int
}

func (g *scriptedGateway) CreateIntent(_ context.Context, _ settlement.CreateIntentInput) (*settlement.Intent, error) {
	g.createCalls++
	if g.intentErr != nil {
		return nil, g.intentErr
	}
	return g.intent, nil
}

func (g *scriptedGateway) Confirm(_ context.Context, _ string) (settlement.GatewayStatus, error) {
	g.confirmCalls++
	if len(g.confirmErrs) > 0 {
		err := g.confirmErrs[0]
		g.confirmErrs = g.confirmErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return g.confirmStatus, nil
}

func (g *scriptedGateway) Refund(_ context.Context, _ string, _ int64, _ string) (string, error) {
	g.refundCalls++
	if g.refundErr != nil {
		return "", g.refundErr
	}
	return g.refundRef, nil
}

func newTestRepo(payments *memPaymentRepo, bookings *memBookingRepo, disputes *memDisputeRepo) *repository.Repository {
	return &repository.Repository{
		Booking: bookings,
		Payment: payments,
		Dispute: disputes,
	}
}
