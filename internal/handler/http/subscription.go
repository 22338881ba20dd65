package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/lucadeg/Esame-de-gregorio/internal/service"
	"github.com/lucadeg/Esame-de-gregorio/pkg/middleware"
	"github.com/lucadeg/Esame-de-gregorio/pkg/validator"
)

// SubscriptionHandler handles HTTP requests for subscription endpoints.
type SubscriptionHandler struct {
	service *service.SubscriptionService
	logger  *slog.Logger
}

// NewSubscriptionHandler creates a new subscription HTTP handler.
func NewSubscriptionHandler(svc *service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: svc, logger: logger}
}

// ChangeSubscriptionRequest is the JSON request body for a tier change.
type ChangeSubscriptionRequest struct {
	Tier string `json:"tier" validate:"required"`
}

// Tiers handles GET /api/v1/subscriptions/tiers
func (h *SubscriptionHandler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Data: h.service.Tiers()})
}

// Get handles GET /api/v1/users/me/subscription
func (h *SubscriptionHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	status, err := h.service.Get(r.Context(), userID)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: status})
}

// Change handles PUT /api/v1/users/me/subscription
func (h *SubscriptionHandler) Change(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit

	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, response{
			Error: &errorResponse{Code: "UNAUTHORIZED", Message: "authentication required"},
		})
		return
	}

	var req ChangeSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w, err)
		return
	}

	if err := validator.Validate(req); err != nil {
		writeValidationError(w, err)
		return
	}

	status, err := h.service.Change(r.Context(), userID, req.Tier)
	if err != nil {
		writeAppError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, response{Data: status})
}
