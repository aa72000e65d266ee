package handler

import (
	"encoding/json"
	"net/http"

	"voucher-service/internal/model"
	"voucher-service/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// CardHandler handles card lookup and redemption HTTP requests.
type CardHandler struct {
	service service.RedemptionService
	logger  zerolog.Logger
}

// NewCardHandler creates a new card handler.
func NewCardHandler(service service.RedemptionService, logger zerolog.Logger) *CardHandler {
	return &CardHandler{
		service: service,
		logger:  logger.With().Str("handler", "card").Logger(),
	}
}

// Lookup handles GET /api/cards/{value} requests. The value matches either a
// card number or a QR payload.
func (h *CardHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	value := chi.URLParam(r, "value")
	if value == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidationFailed, "card value is required", h.logger)
		return
	}

	resp, err := h.service.Lookup(r.Context(), value)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Redeem handles POST /api/cards/redeem requests.
func (h *CardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req model.RedeemCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, model.ErrCodeInvalidJSON, "invalid request body", h.logger)
		return
	}

	if req.CardNumber == "" {
		writeError(w, http.StatusBadRequest, model.ErrCodeValidationFailed, "card number is required", h.logger)
		return
	}

	resp, err := h.service.Redeem(r.Context(), req.CardNumber, req.UsedBy)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, model.RedeemCardResponse{
		Message: "Discount applied",
		Card:    resp.Card,
		Voucher: resp.Voucher,
	})
}
