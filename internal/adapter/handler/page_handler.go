package handler

import (
	"errors"
	"net/http"

	"github.com/a-h/templ"
	"go.uber.org/zap"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
	"github.com/rl1809/hoodie-drop/internal/core/service"
)

// OrderFormView is everything the order page needs to render, including the
// values the shopper already typed.
type OrderFormView struct {
	CheckoutID string
	Draft      domain.OrderDraft
	Error      string
	Product    domain.Product
}

// orderFormFields are applied in form order on every post.
var orderFormFields = []domain.Field{
	domain.FieldSize,
	domain.FieldName,
	domain.FieldEmail,
	domain.FieldPhone,
	domain.FieldYear,
	domain.FieldMajor,
	"payment",
	domain.FieldRating,
	domain.FieldAgreedToAdvance,
}

type PageHandler struct {
	checkoutService *service.CheckoutService
	logger          *zap.Logger
}

func NewPageHandler(checkoutService *service.CheckoutService, logger *zap.Logger) *PageHandler {
	return &PageHandler{checkoutService: checkoutService, logger: logger}
}

func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	templ.Handler(LandingPage(domain.Hoodie)).ServeHTTP(w, r)
}

// OrderForm opens a new checkout on every visit.
func (h *PageHandler) OrderForm(w http.ResponseWriter, r *http.Request) {
	checkout, err := h.checkoutService.StartDraft(r.Context())
	if err != nil {
		h.logger.Error("failed to start checkout", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.renderForm(w, r, http.StatusOK, OrderFormView{CheckoutID: checkout.ID})
}

func (h *PageHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	id := r.PostForm.Get("checkoutId")
	view := OrderFormView{CheckoutID: id, Draft: draftFromForm(r)}

	for _, field := range orderFormFields {
		value := r.PostForm.Get(string(field))
		if field == domain.FieldRating && value == "" {
			value = "0"
		}
		if _, err := h.checkoutService.SetField(r.Context(), id, field, value); err != nil {
			h.renderFailure(w, r, view, err)
			return
		}
	}

	if _, err := h.checkoutService.Submit(r.Context(), id); err != nil {
		h.renderFailure(w, r, view, err)
		return
	}
	templ.Handler(ConfirmationPage()).ServeHTTP(w, r)
}

func (h *PageHandler) renderFailure(w http.ResponseWriter, r *http.Request, view OrderFormView, err error) {
	if errors.Is(err, service.ErrAlreadySubmitted) {
		templ.Handler(ConfirmationPage()).ServeHTTP(w, r)
		return
	}
	if errors.Is(err, service.ErrDraftNotFound) {
		http.Redirect(w, r, "/order", http.StatusSeeOther)
		return
	}

	status, _, message, _ := classifyError(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("order page request failed", zap.Error(err))
	}
	view.Error = message
	h.renderForm(w, r, status, view)
}

func (h *PageHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, view OrderFormView) {
	view.Product = domain.Hoodie
	templ.Handler(OrderPage(view), templ.WithStatus(status)).ServeHTTP(w, r)
}

// draftFromForm echoes the posted values back into the form. Values that
// fail to parse are dropped so the shopper picks them again.
func draftFromForm(r *http.Request) domain.OrderDraft {
	var d domain.OrderDraft
	for _, field := range orderFormFields {
		_ = d.SetField(field, r.PostForm.Get(string(field)))
	}
	return d
}
