package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/httpx"
	"github.com/marketbay/api/internal/services"
)

const maxCheckoutBodySize = 32 * 1024

// CheckoutHandlers exposes the authenticated checkout endpoint.
type CheckoutHandlers struct {
	verifier auth.Verifier
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs the checkout handlers.
func NewCheckoutHandlers(verifier auth.Verifier, checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{verifier: verifier, checkout: checkout}
}

// Routes wires the /checkout endpoint onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.verifier != nil {
		r.Use(auth.RequireSession(h.verifier))
	}
	r.Post("/", h.placeOrder)
}

type checkoutRequest struct {
	ShippingAddress domain.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	Card            *cardRequest   `json:"card,omitempty"`
	UPIID           string         `json:"upiId,omitempty"`
}

type cardRequest struct {
	Number string `json:"number"`
	Expiry string `json:"expiry"`
	CVC    string `json:"cvc"`
	Name   string `json:"name"`
}

func (h *CheckoutHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_service_unavailable", "checkout service is unavailable", http.StatusServiceUnavailable))
		return
	}

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return
	}

	var req checkoutRequest
	if err := decodeJSONBody(r, maxCheckoutBodySize, &req); err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	cmd := services.CheckoutCommand{
		UserID:          identity.UserID,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod))),
		UPIID:           strings.TrimSpace(req.UPIID),
	}
	if req.Card != nil {
		cmd.Card = &services.CardDetails{
			Number: req.Card.Number,
			Expiry: req.Card.Expiry,
			CVC:    req.Card.CVC,
			Name:   req.Card.Name,
		}
	}

	result, err := h.checkout.Checkout(ctx, cmd)
	if err != nil {
		writeCheckoutError(ctx, w, err)
		return
	}

	writeJSONResponse(w, http.StatusCreated, checkoutResponse{
		Order:     buildOrderPayload(result.Order),
		PaymentID: result.PaymentID,
	})
}

func writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutEmptyCart):
		httpx.WriteError(ctx, w, httpx.NewError("cart_empty", "cart is empty", http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrCheckoutPaymentFailed):
		httpx.WriteError(ctx, w, httpx.NewError("payment_failed", "payment was declined", http.StatusPaymentRequired))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to place order", http.StatusInternalServerError))
	}
}

type checkoutResponse struct {
	Order     orderPayload `json:"order"`
	PaymentID string       `json:"paymentId"`
}
