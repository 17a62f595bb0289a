package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/tokenworks/backend/internal/middleware"
	"github.com/tokenworks/backend/internal/services"
)

type RequestCodeHandler struct {
	service   *services.RequestCodeService
	validator *services.ValidationHelper
}

func NewRequestCodeHandler(service *services.RequestCodeService) *RequestCodeHandler {
	return &RequestCodeHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// GenerateCode creates a transfer request code
// @Summary Generate a transfer request code
// @Description Create a short-lived single-use code requesting a token transfer to the caller
// @Tags request-codes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{amount=string,reason=string} true "Request details"
// @Success 201 {object} services.RequestCode
// @Failure 400 {object} services.ErrorResponse
// @Failure 429 {object} services.ErrorResponse
// @Router /request-codes [post]
func (h *RequestCodeHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserID(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount" validate:"gt=0"`
		Reason string          `json:"reason" validate:"max=500"`
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	if err := h.validator.ValidateStruct(&req); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	code, err := h.service.Generate(r.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(code)
}

// CodeQR renders a request code as a QR PNG
// @Summary Render request code QR
// @Tags request-codes
// @Produce png
// @Security BearerAuth
// @Param code path string true "Request code"
// @Success 200 {file} binary
// @Failure 404 {object} services.ErrorResponse
// @Router /request-codes/{code}/qr [get]
func (h *RequestCodeHandler) CodeQR(w http.ResponseWriter, r *http.Request) {
	image, err := h.service.QRImage(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(image)
}

// ConsumeCode consumes a request code
// @Summary Consume a transfer request code
// @Description Returns the transfer details and invalidates the code
// @Tags request-codes
// @Produce json
// @Security BearerAuth
// @Param code path string true "Request code"
// @Success 200 {object} services.RequestCode
// @Failure 404 {object} services.ErrorResponse
// @Router /request-codes/{code}/consume [post]
func (h *RequestCodeHandler) ConsumeCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.service.Consume(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.sendServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(code)
}

func (h *RequestCodeHandler) sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCodeNotFound):
		services.SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case errors.Is(err, services.ErrRateLimited):
		services.SendErrorResponse(w, err.Error(), http.StatusTooManyRequests, nil)
	default:
		services.SendServiceError(w, err)
	}
}
