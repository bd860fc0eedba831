package request

type FileDisputeRequest struct {
	BookingID   string `json:"booking_id" validate:"required,uuid4"`
	Category    string `json:"category" validate:"required,oneof=quality_issue no_show overcharge payment_issue behavior other"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
}

// DisputeTransitionRequest moves a case along the review pipeline.
// Resolved and closed have their own operations.
type DisputeTransitionRequest struct {
	Status string  `json:"status" validate:"required,oneof=open under_review resolved closed"`
	Note   *string `json:"note" validate:"omitempty,max=2000"`
}

type DisputeMessageRequest struct {
	Body string `json:"body" validate:"required,min=1,max=2000"`
}

type ResolveDisputeRequest struct {
	Outcome     string `json:"outcome" validate:"required,oneof=refund partial_refund service_redo warning suspension no_action penalty_applied dismissed"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
	// Amount is required for partial_refund, in the booking currency.
	Amount *string `json:"amount" validate:"omitempty"`
}
