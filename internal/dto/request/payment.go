package request

// BankDetailsRequest carries the account the payer transferred to.
type BankDetailsRequest struct {
	BankName      string `json:"bank_name" validate:"required,min=2,max=100"`
	Branch        string `json:"branch" validate:"max=100"`
	AccountName   string `json:"account_name" validate:"required,min=2,max=100"`
	AccountNumber string `json:"account_number" validate:"required,min=4,max=34"`
}

type InitiatePaymentRequest struct {
	BookingID string `json:"booking_id" validate:"required,uuid4"`
	Method    string `json:"method" validate:"required,oneof=gateway_card bank_transfer"`

	// gateway_card only
	CardToken string `json:"card_token" validate:"omitempty,min=4"`

	// bank_transfer only
	ReferenceToken *string `json:"reference_token" validate:"omitempty,min=2,max=64"`
}

// RecordReceiptRequest submits the payer's bank-transfer receipt. The
// receipt file itself arrives as a multipart upload alongside this
// payload.
type RecordReceiptRequest struct {
	ReferenceToken *string            `json:"reference_token" validate:"omitempty,min=2,max=64"`
	BankDetails    BankDetailsRequest `json:"bank_details" validate:"required"`
}

// ConfirmByPayeeRequest is the payee's verdict on a submitted receipt.
type ConfirmByPayeeRequest struct {
	Accept bool    `json:"accept"`
	Note   *string `json:"note" validate:"omitempty,max=500"`
}

type RefundPaymentRequest struct {
	// Amount is in the booking currency; empty means a full refund.
	Amount *string `json:"amount" validate:"omitempty"`
	Reason string  `json:"reason" validate:"required,min=3,max=500"`
}

// GatewayWebhookRequest is the event envelope the processor posts back.
type GatewayWebhookRequest struct {
	EventID   string `json:"event_id" validate:"required"`
	EventType string `json:"event_type" validate:"required"`
	ChargeRef string `json:"charge_ref" validate:"required"`
	Status    string `json:"status" validate:"required,oneof=pending succeeded failed"`
	Reason    string `json:"reason"`
}
