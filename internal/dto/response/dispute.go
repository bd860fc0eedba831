package response

import (
	"time"

	"service-marketplace/internal/data/entity"
)

type ResolutionResponse struct {
	Description string    `json:"description"`
	Outcome     string    `json:"outcome"`
	Amount      *string   `json:"amount,omitempty"`
	ResolvedBy  string    `json:"resolved_by"`
	ResolvedAt  time.Time `json:"resolved_at"`
}

type DisputeResponse struct {
	ID          string              `json:"id"`
	BookingID   string              `json:"booking_id"`
	PaymentID   string              `json:"payment_id"`
	RaisedBy    string              `json:"raised_by"`
	Against     string              `json:"against"`
	Category    string              `json:"category"`
	Priority    string              `json:"priority"`
	Status      string              `json:"status"`
	Description string              `json:"description"`
	AssignedTo  *string             `json:"assigned_to,omitempty"`
	Resolution  *ResolutionResponse `json:"resolution,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type DisputeMessageResponse struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Body      string    `json:"body"`
	IsArbiter bool      `json:"is_arbiter"`
	CreatedAt time.Time `json:"created_at"`
}

type DisputeEvidenceResponse struct {
	ID          string    `json:"id"`
	UploadedBy  string    `json:"uploaded_by"`
	Description *string   `json:"description,omitempty"`
	DownloadURL string    `json:"download_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// DisputeDetailResponse is the full case file: the dispute plus its
// message log and evidence with presigned download links.
type DisputeDetailResponse struct {
	DisputeResponse
	Messages []DisputeMessageResponse  `json:"messages"`
	Evidence []DisputeEvidenceResponse `json:"evidence"`
}

func DisputeToResponse(dispute *entity.Dispute) DisputeResponse {
	resp := DisputeResponse{
		ID:          dispute.ID.String(),
		BookingID:   dispute.BookingID.String(),
		PaymentID:   dispute.PaymentID.String(),
		RaisedBy:    dispute.RaisedBy.String(),
		Against:     dispute.Against.String(),
		Category:    string(dispute.Category),
		Priority:    string(dispute.Priority),
		Status:      string(dispute.Status),
		Description: dispute.Description,
		CreatedAt:   dispute.CreatedAt,
		UpdatedAt:   dispute.UpdatedAt,
	}

	if dispute.AssignedTo != nil {
		assignedTo := dispute.AssignedTo.String()
		resp.AssignedTo = &assignedTo
	}

	if dispute.Resolution != nil {
		resolution := &ResolutionResponse{
			Description: dispute.Resolution.Description,
			Outcome:     string(dispute.Resolution.Outcome),
			ResolvedBy:  dispute.Resolution.ResolvedBy.String(),
			ResolvedAt:  dispute.Resolution.ResolvedAt,
		}
		if dispute.Resolution.OutcomeAmount != nil {
			amount := dispute.Resolution.OutcomeAmount.StringFixed(2)
			resolution.Amount = &amount
		}
		resp.Resolution = resolution
	}

	return resp
}

func DisputeMessageToResponse(message *entity.DisputeMessage) DisputeMessageResponse {
	return DisputeMessageResponse{
		ID:        message.ID.String(),
		AuthorID:  message.AuthorID.String(),
		Body:      message.Body,
		IsArbiter: message.IsArbiter,
		CreatedAt: message.CreatedAt,
	}
}
