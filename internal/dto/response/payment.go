package response

import (
	"time"

	"service-marketplace/internal/data/entity"
)

type BankDetailsResponse struct {
	BankName      string `json:"bank_name"`
	Branch        string `json:"branch,omitempty"`
	AccountName   string `json:"account_name"`
	AccountNumber string `json:"account_number"`
}

type RefundResponse struct {
	Amount     string    `json:"amount"`
	Reason     string    `json:"reason"`
	Reference  string    `json:"reference"`
	RefundedAt time.Time `json:"refunded_at"`
}

type PaymentResponse struct {
	ID        string `json:"id"`
	BookingID string `json:"booking_id"`
	PayerID   string `json:"payer_id"`
	PayeeID   string `json:"payee_id"`
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Method    string `json:"method"`
	Status    string `json:"status"`

	GatewayRef      *string `json:"gateway_ref,omitempty"`
	GatewayAmount   *string `json:"gateway_amount,omitempty"`
	GatewayCurrency *string `json:"gateway_currency,omitempty"`

	BankDetails    *BankDetailsResponse `json:"bank_details,omitempty"`
	ReferenceToken *string              `json:"reference_token,omitempty"`
	ReceiptURL     *string              `json:"receipt_url,omitempty"`

	PayeeNote     *string         `json:"payee_note,omitempty"`
	FailureReason *string         `json:"failure_reason,omitempty"`
	SettledAt     *time.Time      `json:"settled_at,omitempty"`
	Refund        *RefundResponse `json:"refund,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func PaymentToResponse(payment *entity.Payment) PaymentResponse {
	resp := PaymentResponse{
		ID:             payment.ID.String(),
		BookingID:      payment.BookingID.String(),
		PayerID:        payment.PayerID.String(),
		PayeeID:        payment.PayeeID.String(),
		Amount:         payment.Amount.StringFixed(2),
		Currency:       payment.Currency,
		Method:         string(payment.Method),
		Status:         string(payment.Status),
		GatewayRef:     payment.GatewayRef,
		ReferenceToken: payment.ReferenceToken,
		PayeeNote:      payment.PayeeNote,
		FailureReason:  payment.FailureReason,
		SettledAt:      payment.SettledAt,
		CreatedAt:      payment.CreatedAt,
		UpdatedAt:      payment.UpdatedAt,
	}

	if payment.GatewayAmount != nil {
		amount := payment.GatewayAmount.StringFixed(2)
		resp.GatewayAmount = &amount
		resp.GatewayCurrency = payment.GatewayCurrency
	}

	if payment.BankDetails != nil {
		resp.BankDetails = &BankDetailsResponse{
			BankName:      payment.BankDetails.BankName,
			Branch:        payment.BankDetails.Branch,
			AccountName:   payment.BankDetails.AccountName,
			AccountNumber: payment.BankDetails.AccountNumber,
		}
	}

	if payment.Refund != nil {
		resp.Refund = &RefundResponse{
			Amount:     payment.Refund.Amount.StringFixed(2),
			Reason:     payment.Refund.Reason,
			Reference:  payment.Refund.Reference,
			RefundedAt: payment.Refund.RefundedAt,
		}
	}

	return resp
}

// WebhookAckResponse tells the processor the event was consumed; the
// applied flag is diagnostic only, a duplicate delivery still acks 200.
type WebhookAckResponse struct {
	EventID string `json:"event_id"`
	Applied bool   `json:"applied"`
}
