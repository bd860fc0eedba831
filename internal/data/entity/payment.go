package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodGatewayCard  PaymentMethod = "gateway_card"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

type PaymentStatus string

const (
	PaymentStatusInitiated        PaymentStatus = "initiated"
	PaymentStatusAwaitingPayer    PaymentStatus = "awaiting_payer_action"
	PaymentStatusAwaitingPayee    PaymentStatus = "awaiting_payee_confirmation"
	PaymentStatusSettled          PaymentStatus = "settled"
	PaymentStatusFailed           PaymentStatus = "failed"
	PaymentStatusRefunded         PaymentStatus = "refunded"
	PaymentStatusCancelled        PaymentStatus = "cancelled"
)

// paymentTransitions is the closed transition table. A transition absent
// here is illegal no matter who asks.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusInitiated:     {PaymentStatusAwaitingPayer, PaymentStatusAwaitingPayee, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusAwaitingPayer: {PaymentStatusSettled, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusAwaitingPayee: {PaymentStatusSettled, PaymentStatusFailed, PaymentStatusCancelled},
	PaymentStatusSettled:       {PaymentStatusRefunded},
	PaymentStatusFailed:        nil,
	PaymentStatusRefunded:      nil,
	PaymentStatusCancelled:     nil,
}

// CanTransition reports whether moving from s to next is legal.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is defined from s.
// A settled payment is non-terminal only in that refund remains possible.
func (s PaymentStatus) Terminal() bool {
	return len(paymentTransitions[s]) == 0
}

// NonTerminalPaymentStatuses lists the statuses counted against the
// one-active-payment-per-booking invariant.
func NonTerminalPaymentStatuses() []PaymentStatus {
	return []PaymentStatus{
		PaymentStatusInitiated,
		PaymentStatusAwaitingPayer,
		PaymentStatusAwaitingPayee,
		PaymentStatusSettled,
	}
}

// BankDetails are the counterparty account details a payer submits with a
// bank-transfer receipt.
type BankDetails struct {
	BankName      string `db:"bank_name"`
	Branch        string `db:"bank_branch"`
	AccountName   string `db:"bank_account_name"`
	AccountNumber string `db:"bank_account_number"`
}

// Refund is the sub-record written exactly once when a settled payment is
// refunded.
type Refund struct {
	Amount     decimal.Decimal `db:"refund_amount"`
	Reason     string          `db:"refund_reason"`
	Reference  string          `db:"refund_reference"`
	RefundedAt time.Time       `db:"refunded_at"`
}

// Payment is one attempt to settle money for exactly one booking. Payer
// and payee ids are copied from the booking at creation time so the audit
// trail survives later booking edits.
type Payment struct {
	Base
	BookingID uuid.UUID       `db:"booking_id"`
	PayerID   uuid.UUID       `db:"payer_id"`
	PayeeID   uuid.UUID       `db:"payee_id"`
	Amount    decimal.Decimal `db:"amount"`
	Currency  string          `db:"currency"`
	Method    PaymentMethod   `db:"method"`
	Status    PaymentStatus   `db:"status"`

	// gateway_card payload
	GatewayRef      *string          `db:"gateway_ref"`
	GatewayAmount   *decimal.Decimal `db:"gateway_amount"`
	GatewayCurrency *string          `db:"gateway_currency"`

	// bank_transfer payload
	BankDetails    *BankDetails `db:"-"`
	ReferenceToken *string      `db:"reference_token"`
	ReceiptKey     *string      `db:"receipt_key"`

	PayeeNote     *string    `db:"payee_note"`
	FailureReason *string    `db:"failure_reason"`
	SettledAt     *time.Time `db:"settled_at"`
	Refund        *Refund    `db:"-"`
}

// IsParty reports whether id is the payment's payer or payee.
func (p *Payment) IsParty(id uuid.UUID) bool {
	return id == p.PayerID || id == p.PayeeID
}
