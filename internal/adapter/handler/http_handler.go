package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/core/service"
	"github.com/rl1809/hoodie-drop/internal/port"
)

const maxRequestBodySize = 1 << 20

type HTTPHandler struct {
	checkoutService *service.CheckoutService
	logger          *zap.Logger
}

// SetFieldRequest carries one form edit. Value may be a JSON string, number
// or boolean; null or a missing value clears the field.
type SetFieldRequest struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value,omitempty"`
}

type CheckoutResponse struct {
	*domain.Checkout
	SelectedSize string `json:"selectedSize,omitempty"`
}

type SubmitResponse struct {
	Checkout     CheckoutResponse `json:"checkout"`
	Delivery     string           `json:"delivery"`
	DispatchedAt time.Time        `json:"dispatchedAt"`
}

type SizeOption struct {
	Code  domain.Size `json:"code"`
	Label string      `json:"label"`
}

type ProductResponse struct {
	SKU             string       `json:"sku"`
	Name            string       `json:"name"`
	Tagline         string       `json:"tagline"`
	Description     string       `json:"description"`
	Price           string       `json:"price"`
	CompareAtPrice  string       `json:"compareAtPrice"`
	Currency        string       `json:"currency"`
	DiscountPercent int64        `json:"discountPercent"`
	ReviewCount     int          `json:"reviewCount"`
	Sizes           []SizeOption `json:"sizes"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	Field string `json:"field,omitempty"`
}

func NewHTTPHandler(checkoutService *service.CheckoutService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{checkoutService: checkoutService, logger: logger}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, newProductResponse(domain.Hoodie))
}

func (h *HTTPHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	checkout, err := h.checkoutService.StartDraft(r.Context())
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCheckoutResponse(checkout))
}

func (h *HTTPHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	checkout, err := h.checkoutService.GetCheckout(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(checkout))
}

func (h *HTTPHandler) SetField(w http.ResponseWriter, r *http.Request) {
	var req SetFieldRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodySize)).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body", "")
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "field name is required", "")
		return
	}
	value, err := scalarJSON(req.Value)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error(), req.Name)
		return
	}

	checkout, err := h.checkoutService.SetField(r.Context(), chi.URLParam(r, "id"), domain.Field(req.Name), value)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCheckoutResponse(checkout))
}

func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := h.checkoutService.Submit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, SubmitResponse{
		Checkout:     newCheckoutResponse(result.Checkout),
		Delivery:     "dispatched",
		DispatchedAt: result.Sent.DispatchedAt,
	})
}

func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, err error) {
	status, code, message, field := classifyError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("checkout request failed", zap.Error(err))
	}
	respondError(w, status, code, message, field)
}

// classifyError maps service errors onto HTTP status and an error code. The
// message is safe to show to the shopper.
func classifyError(err error) (status int, code, message, field string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, "validation_failed", verr.Message, string(verr.Field)
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrInvalidChoice),
		errors.Is(err, domain.ErrInvalidFieldValue):
		return http.StatusBadRequest, "invalid_field", err.Error(), ""
	case errors.Is(err, service.ErrDraftNotFound):
		return http.StatusNotFound, "not_found", "checkout not found", ""
	case errors.Is(err, service.ErrAlreadySubmitted):
		return http.StatusConflict, "already_submitted", "order already submitted", ""
	case errors.Is(err, service.ErrCheckoutBusy):
		return http.StatusConflict, "submission_in_progress", "order is being submitted", ""
	case errors.Is(err, port.ErrTransport):
		return http.StatusBadGateway, "transport_failed", service.TransportFailureMessage, ""
	}
	return http.StatusInternalServerError, "internal_error", "internal server error", ""
}

var errNotScalar = errors.New("value must be a string, number or boolean")

func scalarJSON(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", errNotScalar
		}
		return s, nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return "", errNotScalar
		}
		return strconv.FormatBool(b), nil
	case 'n':
		return "", nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", errNotScalar
	}
	return n.String(), nil
}

func newCheckoutResponse(checkout *domain.Checkout) CheckoutResponse {
	return CheckoutResponse{Checkout: checkout, SelectedSize: checkout.Draft.SelectedSize()}
}

func newProductResponse(p domain.Product) ProductResponse {
	sizes := make([]SizeOption, 0, len(p.Sizes))
	for _, s := range p.Sizes {
		sizes = append(sizes, SizeOption{Code: s, Label: s.Label()})
	}
	return ProductResponse{
		SKU:             p.SKU,
		Name:            p.Name,
		Tagline:         p.Tagline,
		Description:     p.Description,
		Price:           p.Price.String(),
		CompareAtPrice:  p.CompareAtPrice.String(),
		Currency:        p.Currency,
		DiscountPercent: p.DiscountPercent(),
		ReviewCount:     p.ReviewCount,
		Sizes:           sizes,
	}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message, field string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
		Field: field,
	})
}
