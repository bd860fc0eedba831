package response

import (
	"time"

	"service-marketplace/internal/data/entity"
)

type BookingResponse struct {
	ID            string    `json:"id"`
	ProviderID    string    `json:"provider_id"`
	SeekerID      string    `json:"seeker_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Description   string    `json:"description"`
	AgreedPrice   string    `json:"agreed_price"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	PaymentStatus string    `json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
}

func BookingToResponse(booking *entity.Booking) BookingResponse {
	return BookingResponse{
		ID:            booking.ID.String(),
		ProviderID:    booking.ProviderID.String(),
		SeekerID:      booking.SeekerID.String(),
		ScheduledAt:   booking.ScheduledAt,
		Description:   booking.Description,
		AgreedPrice:   booking.AgreedPrice.StringFixed(2),
		Currency:      booking.Currency,
		Status:        string(booking.Status),
		PaymentStatus: string(booking.PaymentStatus),
		CreatedAt:     booking.CreatedAt,
	}
}

// BookingDetailResponse pairs a booking with its payment history.
type BookingDetailResponse struct {
	BookingResponse
	Payments []PaymentResponse `json:"payments"`
}
