package adaptor

import (
	"encoding/json"
	"net/http"

	"service-marketplace/internal/dto/request"
	"service-marketplace/internal/usecase"
	"service-marketplace/pkg/storage"
	"service-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	store   *storage.S3
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, store *storage.S3, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		store:   store,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// InitiatePayment handles POST /api/payments (protected)
func (h *PaymentHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.InitiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.InitiatePayment(r.Context(), partyID.String(), &req)
	if err != nil {
		writeServiceError(h.log, w, err, "initiate payment")
		return
	}

	utils.ResponseCreated(w, "success", payment)
}

// GetPayment handles GET /api/payments/{id} (protected)
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	payment, err := h.service.GetPayment(r.Context(), partyID.String(), paymentID)
	if err != nil {
		writeServiceError(h.log, w, err, "get payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// UploadReceipt handles POST /api/payments/{id}/receipt (protected).
// Multipart: a "payload" JSON part with the bank details and an optional
// "receipt" file part (pdf/jpg/png, 10MB cap).
func (h *PaymentHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	if err := r.ParseMultipartForm(storage.MaxArtifactSize); err != nil {
		utils.ResponseBadRequest(w, "Invalid multipart form", nil)
		return
	}

	var req request.RecordReceiptRequest
	if err := json.Unmarshal([]byte(r.FormValue("payload")), &req); err != nil {
		utils.ResponseBadRequest(w, "Invalid payload part", nil)
		return
	}

	var receiptKey *string
	file, header, err := r.FormFile("receipt")
	if err == nil {
		defer file.Close()

		if h.store == nil {
			utils.ResponseInternalError(w, "Artifact storage not configured")
			return
		}
		if header.Size > storage.MaxArtifactSize {
			utils.ResponseBadRequest(w, "Receipt exceeds 10MB limit", nil)
			return
		}
		if !storage.ValidateArtifactType(header.Header.Get("Content-Type"), header.Filename) {
			utils.ResponseBadRequest(w, "Invalid receipt type: only pdf, jpg and png allowed", nil)
			return
		}

		key := storage.ReceiptKey(paymentID, header.Filename)
		contentType := storage.ContentTypeForFilename(header.Filename)
		if _, err := h.store.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
			h.log.Error("Receipt upload failed",
				zap.Error(err),
				zap.String("payment_id", paymentID),
				zap.String("key", key))
			utils.ResponseInternalError(w, "Failed to store receipt")
			return
		}
		receiptKey = &key
	}

	payment, err := h.service.RecordBankReceipt(r.Context(), partyID.String(), paymentID, &req, receiptKey)
	if err != nil {
		writeServiceError(h.log, w, err, "record bank receipt")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// ConfirmReceipt handles POST /api/payments/{id}/confirm (protected)
func (h *PaymentHandler) ConfirmReceipt(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	var req request.ConfirmByPayeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.ConfirmByPayee(r.Context(), partyID.String(), paymentID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "confirm receipt")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// PollGateway handles POST /api/payments/{id}/poll (protected)
func (h *PaymentHandler) PollGateway(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	payment, err := h.service.PollGatewayStatus(r.Context(), partyID.String(), paymentID)
	if err != nil {
		writeServiceError(h.log, w, err, "poll gateway status")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// RefundPayment handles POST /api/payments/{id}/refund (protected)
func (h *PaymentHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	paymentID := chi.URLParam(r, "id")
	if paymentID == "" {
		utils.ResponseBadRequest(w, "Payment ID is required", nil)
		return
	}

	var req request.RefundPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	payment, err := h.service.RefundPayment(r.Context(), partyID.String(), paymentID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "refund payment")
		return
	}

	utils.ResponseSuccess(w, "success", payment)
}

// GetBooking handles GET /api/bookings/{id} (protected)
func (h *PaymentHandler) GetBooking(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	bookingID := chi.URLParam(r, "id")
	if bookingID == "" {
		utils.ResponseBadRequest(w, "Booking ID is required", nil)
		return
	}

	booking, err := h.service.GetBooking(r.Context(), partyID.String(), bookingID)
	if err != nil {
		writeServiceError(h.log, w, err, "get booking")
		return
	}

	utils.ResponseSuccess(w, "success", booking)
}

// ListBookings handles GET /api/bookings (protected)
func (h *PaymentHandler) ListBookings(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	query := r.URL.Query()
	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 10),
	}

	bookings, err := h.service.ListPartyBookings(r.Context(), partyID.String(), req)
	if err != nil {
		writeServiceError(h.log, w, err, "list bookings")
		return
	}

	utils.ResponseSuccess(w, "success", bookings)
}
