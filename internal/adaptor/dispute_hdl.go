package adaptor

import (
	"encoding/json"
	"net/http"

	"service-marketplace/internal/data/entity"
	"service-marketplace/internal/dto/request"
	"service-marketplace/internal/usecase"
	"service-marketplace/pkg/storage"
	"service-marketplace/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type DisputeHandler struct {
	service usecase.DisputeService
	store   *storage.S3
	log     *zap.Logger
}

func NewDisputeHandler(service usecase.DisputeService, store *storage.S3, log *zap.Logger) *DisputeHandler {
	return &DisputeHandler{
		service: service,
		store:   store,
		log:     log.With(zap.String("handler", "dispute")),
	}
}

func callerIsArbiter(r *http.Request) bool {
	role, ok := utils.GetRoleFromContext(r.Context())
	return ok && role == string(entity.RoleArbiter)
}

// FileDispute handles POST /api/disputes (protected)
func (h *DisputeHandler) FileDispute(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.FileDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	dispute, err := h.service.FileDispute(r.Context(), partyID.String(), &req)
	if err != nil {
		writeServiceError(h.log, w, err, "file dispute")
		return
	}

	utils.ResponseCreated(w, "success", dispute)
}

// GetDispute handles GET /api/disputes/{id} (protected)
func (h *DisputeHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	disputeID := chi.URLParam(r, "id")
	if disputeID == "" {
		utils.ResponseBadRequest(w, "Dispute ID is required", nil)
		return
	}

	dispute, err := h.service.GetDispute(r.Context(), partyID.String(), callerIsArbiter(r), disputeID)
	if err != nil {
		writeServiceError(h.log, w, err, "get dispute")
		return
	}

	utils.ResponseSuccess(w, "success", dispute)
}

// ListDisputes handles GET /api/disputes (protected)
func (h *DisputeHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
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

	disputes, err := h.service.ListPartyDisputes(r.Context(), partyID.String(), req)
	if err != nil {
		writeServiceError(h.log, w, err, "list disputes")
		return
	}

	utils.ResponseSuccess(w, "success", disputes)
}

// AddMessage handles POST /api/disputes/{id}/messages (protected)
func (h *DisputeHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	disputeID := chi.URLParam(r, "id")
	if disputeID == "" {
		utils.ResponseBadRequest(w, "Dispute ID is required", nil)
		return
	}

	var req request.DisputeMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	message, err := h.service.AddMessage(r.Context(), partyID.String(), callerIsArbiter(r), disputeID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "add dispute message")
		return
	}

	utils.ResponseCreated(w, "success", message)
}

// UploadEvidence handles POST /api/disputes/{id}/evidence (protected).
// Multipart: an "evidence" file part (pdf/jpg/png, 10MB cap) and an
// optional "description" field.
func (h *DisputeHandler) UploadEvidence(w http.ResponseWriter, r *http.Request) {
	partyID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	disputeID := chi.URLParam(r, "id")
	if disputeID == "" {
		utils.ResponseBadRequest(w, "Dispute ID is required", nil)
		return
	}

	if h.store == nil {
		utils.ResponseInternalError(w, "Artifact storage not configured")
		return
	}
	if err := r.ParseMultipartForm(storage.MaxArtifactSize); err != nil {
		utils.ResponseBadRequest(w, "Invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("evidence")
	if err != nil {
		utils.ResponseBadRequest(w, "Missing file (form field: evidence)", nil)
		return
	}
	defer file.Close()

	if header.Size > storage.MaxArtifactSize {
		utils.ResponseBadRequest(w, "Evidence exceeds 10MB limit", nil)
		return
	}
	if !storage.ValidateArtifactType(header.Header.Get("Content-Type"), header.Filename) {
		utils.ResponseBadRequest(w, "Invalid evidence type: only pdf, jpg and png allowed", nil)
		return
	}

	key := storage.EvidenceKey(disputeID, header.Filename)
	contentType := storage.ContentTypeForFilename(header.Filename)
	if _, err := h.store.Upload(r.Context(), key, contentType, file, header.Size); err != nil {
		h.log.Error("Evidence upload failed",
			zap.Error(err),
			zap.String("dispute_id", disputeID),
			zap.String("key", key))
		utils.ResponseInternalError(w, "Failed to store evidence")
		return
	}

	var description *string
	if v := r.FormValue("description"); v != "" {
		description = &v
	}

	evidence, err := h.service.AddEvidence(r.Context(), partyID.String(), disputeID, key, description)
	if err != nil {
		writeServiceError(h.log, w, err, "add dispute evidence")
		return
	}

	utils.ResponseCreated(w, "success", evidence)
}

// ==================== ARBITER METHODS ====================

// TransitionStatus handles PUT /api/arbiter/disputes/{id}/status (arbiter only)
func (h *DisputeHandler) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	arbiterID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	disputeID := chi.URLParam(r, "id")
	if disputeID == "" {
		utils.ResponseBadRequest(w, "Dispute ID is required", nil)
		return
	}

	var req request.DisputeTransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}
	if validationErrors := utils.ValidateStruct(req); len(validationErrors) > 0 {
		utils.ResponseBadRequest(w, "Validation failed", validationErrors)
		return
	}

	dispute, err := h.service.TransitionStatus(r.Context(), arbiterID.String(), disputeID, req.Status, req.Note)
	if err != nil {
		writeServiceError(h.log, w, err, "transition dispute status")
		return
	}

	utils.ResponseSuccess(w, "success", dispute)
}

// ResolveDispute handles POST /api/arbiter/disputes/{id}/resolve (arbiter only)
func (h *DisputeHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	arbiterID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	disputeID := chi.URLParam(r, "id")
	if disputeID == "" {
		utils.ResponseBadRequest(w, "Dispute ID is required", nil)
		return
	}

	var req request.ResolveDisputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	dispute, err := h.service.Resolve(r.Context(), arbiterID.String(), disputeID, &req)
	if err != nil {
		writeServiceError(h.log, w, err, "resolve dispute")
		return
	}

	utils.ResponseSuccess(w, "success", dispute)
}

// CloseDispute handles POST /api/arbiter/disputes/{id}/close (arbiter only)
func (h *DisputeHandler) CloseDispute(w http.ResponseWriter, r *http.Request) {
	arbiterID, ok := utils.GetPartyIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	disputeID := chi.URLParam(r, "id")
	if disputeID == "" {
		utils.ResponseBadRequest(w, "Dispute ID is required", nil)
		return
	}

	dispute, err := h.service.Close(r.Context(), arbiterID.String(), disputeID)
	if err != nil {
		writeServiceError(h.log, w, err, "close dispute")
		return
	}

	utils.ResponseSuccess(w, "success", dispute)
}
