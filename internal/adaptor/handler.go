package adaptor

import (
	"net/http"

	"service-marketplace/internal/usecase"
	"service-marketplace/pkg/errs"
	"service-marketplace/pkg/storage"
	"service-marketplace/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Payment *PaymentHandler
	Dispute *DisputeHandler
	Webhook *WebhookHandler
}

func NewHandler(service *usecase.Service, store *storage.S3, log *zap.Logger) *Handler {
	return &Handler{
		Payment: NewPaymentHandler(service.Payment, store, log),
		Dispute: NewDisputeHandler(service.Dispute, store, log),
		Webhook: NewWebhookHandler(service.Payment, log),
	}
}

// writeServiceError maps the error taxonomy onto HTTP statuses. Kinds
// the services raise deliberately log at warn; anything unclassified is
// a server fault.
func writeServiceError(log *zap.Logger, w http.ResponseWriter, err error, operation string) {
	kind := errs.KindOf(err)

	switch kind {
	case errs.KindValidation:
		log.Warn(operation+" rejected", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)
	case errs.KindAuthorization:
		log.Warn(operation+" forbidden", zap.Error(err))
		utils.ResponseForbidden(w, err.Error())
	case errs.KindNotFound:
		log.Warn(operation+" target not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())
	case errs.KindConflict:
		log.Warn(operation+" conflicted", zap.Error(err))
		utils.ResponseConflict(w, err.Error())
	case errs.KindInvalidState:
		log.Warn(operation+" illegal from current state", zap.Error(err))
		utils.ResponseUnprocessable(w, err.Error())
	case errs.KindExternal:
		log.Error(operation+" failed upstream", zap.Error(err))
		utils.ResponseBadGateway(w, "payment gateway unavailable")
	default:
		log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
