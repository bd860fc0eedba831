package adaptor

import (
	"encoding/json"
	"net/http"

	"service-marketplace/internal/dto/request"
	"service-marketplace/internal/dto/response"
	"service-marketplace/internal/settlement"
	"service-marketplace/internal/usecase"
	"service-marketplace/pkg/errs"
	"service-marketplace/pkg/utils"

	"go.uber.org/zap"
)

// WebhookHandler consumes charge events posted by the payment gateway
// and funnels them into the idempotent settlement confirm.
type WebhookHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewWebhookHandler(service usecase.PaymentService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		service: service,
		log:     log.With(zap.String("handler", "webhook")),
	}
}

// GatewayEvent handles POST /api/webhooks/gateway. Replays and events for
// unknown charges ack 200 so the gateway stops redelivering; only a
// malformed envelope or a server fault is a non-2xx.
func (h *WebhookHandler) GatewayEvent(w http.ResponseWriter, r *http.Request) {
	var req request.GatewayWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	_, applied, err := h.service.ConfirmGatewaySettlement(
		r.Context(), req.ChargeRef, settlement.GatewayStatus(req.Status), req.Reason)
	if err != nil {
		if errs.KindOf(err) == errs.KindNotFound {
			// The charge is not ours (or arrived before the intent was
			// recorded and aged out). Ack it; redelivery will not help.
			h.log.Warn("Webhook for unknown charge",
				zap.String("event_id", req.EventID),
				zap.String("charge_ref", req.ChargeRef))
			utils.ResponseSuccess(w, "success", response.WebhookAckResponse{EventID: req.EventID, Applied: false})
			return
		}
		writeServiceError(h.log, w, err, "consume gateway event")
		return
	}

	h.log.Info("Gateway event consumed",
		zap.String("event_id", req.EventID),
		zap.String("event_type", req.EventType),
		zap.String("charge_ref", req.ChargeRef),
		zap.Bool("applied", applied))

	utils.ResponseSuccess(w, "success", response.WebhookAckResponse{EventID: req.EventID, Applied: applied})
}
