package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/auth"
	"github.com/marketbay/api/internal/platform/display"
	"github.com/marketbay/api/internal/platform/httpx"
	"github.com/marketbay/api/internal/services"
)

// OrderHandlers exposes the authenticated order history endpoints.
type OrderHandlers struct {
	verifier auth.Verifier
	orders   services.OrderService
}

// NewOrderHandlers constructs the order history handlers.
func NewOrderHandlers(verifier auth.Verifier, orders services.OrderService) *OrderHandlers {
	return &OrderHandlers{verifier: verifier, orders: orders}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	if h.verifier != nil {
		r.Use(auth.RequireSession(h.verifier))
	}
	r.Get("/", h.listOrders)
	r.Delete("/", h.clearHistory)
	r.Get("/{orderID}", h.getOrder)
	r.Delete("/{orderID}/items/{itemID}", h.removeItem)
}

func (h *OrderHandlers) listOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	orders, err := h.orders.ListOrders(ctx, userID)
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderListResponse{Orders: buildOrderPayloads(orders)})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(ctx, userID, chi.URLParam(r, "orderID"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	order, err := h.orders.RemoveItem(ctx, userID, chi.URLParam(r, "orderID"), chi.URLParam(r, "itemID"))
	if err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) clearHistory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}

	if err := h.orders.ClearHistory(ctx, userID); err != nil {
		writeOrderError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"cleared": true})
}

func (h *OrderHandlers) requireUser(ctx context.Context, w http.ResponseWriter) (string, bool) {
	if h.orders == nil {
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return "", false
	}
	identity, ok := auth.IdentityFromContext(ctx)
	if !ok || strings.TrimSpace(identity.UserID) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authentication required", http.StatusUnauthorized))
		return "", false
	}
	return identity.UserID, true
}

func writeOrderError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrOrderInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrOrderNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrOrderPersist):
		httpx.WriteError(ctx, w, httpx.NewError("order_service_unavailable", "order history could not be saved", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("order_error", "failed to serve orders", http.StatusInternalServerError))
	}
}

type orderListResponse struct {
	Orders []orderPayload `json:"orders"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	domain.Order
	DisplayTotal string              `json:"displayTotal"`
	DisplayDate  string              `json:"displayDate"`
	StatusBadge  display.StatusBadge `json:"statusBadge"`
}

func buildOrderPayload(order domain.Order) orderPayload {
	if order.Items == nil {
		order.Items = []domain.OrderItem{}
	}
	return orderPayload{
		Order:        order,
		DisplayTotal: display.Currency(order.TotalAmountCents),
		DisplayDate:  display.Date(order.CreatedAt),
		StatusBadge:  display.StatusColor(order.Status),
	}
}

func buildOrderPayloads(orders []domain.Order) []orderPayload {
	payloads := make([]orderPayload, 0, len(orders))
	for _, order := range orders {
		payloads = append(payloads, buildOrderPayload(order))
	}
	return payloads
}
