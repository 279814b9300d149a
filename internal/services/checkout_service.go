package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/payments"
)

var (
	errCheckoutCartRequired    = errors.New("checkout service: cart service is required")
	errCheckoutOrdersRequired  = errors.New("checkout service: order service is required")
	errCheckoutGatewayRequired = errors.New("checkout service: payment gateway is required")
	errCheckoutClockRequired   = errors.New("checkout service: clock is required")
)

// ErrCheckoutInvalidInput indicates the command failed validation.
var ErrCheckoutInvalidInput = errors.New("checkout service: invalid input")

// ErrCheckoutEmptyCart indicates there is nothing to purchase.
var ErrCheckoutEmptyCart = errors.New("checkout service: cart is empty")

// ErrCheckoutPaymentFailed indicates the gateway declined or aborted the charge.
var ErrCheckoutPaymentFailed = errors.New("checkout service: payment failed")

// CheckoutServiceDeps wires the cart, order history, gateway, and the
// optional event publisher.
type CheckoutServiceDeps struct {
	Cart    CartService
	Orders  OrderService
	Gateway payments.Gateway
	// Publisher is optional; publish failures are logged, never surfaced.
	Publisher   OrderEventPublisher
	Clock       func() time.Time
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

type checkoutService struct {
	cart      CartService
	orders    OrderService
	gateway   payments.Gateway
	publisher OrderEventPublisher
	now       func() time.Time
	newID     func() string
	logger    func(context.Context, string, map[string]any)
}

// NewCheckoutService constructs a CheckoutService enforcing dependency validation.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Cart == nil {
		return nil, errCheckoutCartRequired
	}
	if deps.Orders == nil {
		return nil, errCheckoutOrdersRequired
	}
	if deps.Gateway == nil {
		return nil, errCheckoutGatewayRequired
	}
	if deps.Clock == nil {
		return nil, errCheckoutClockRequired
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return fmt.Sprintf("ord_%s", strings.ToLower(ulid.Make().String())) }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &checkoutService{
		cart:      deps.Cart,
		orders:    deps.Orders,
		gateway:   deps.Gateway,
		publisher: deps.Publisher,
		now:       func() time.Time { return deps.Clock().UTC() },
		newID:     idGen,
		logger:    logger,
	}, nil
}

// Checkout snapshots the cart, settles payment, records the pending order,
// and clears the cart.
func (s *checkoutService) Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error) {
	if err := validateCheckout(cmd); err != nil {
		return CheckoutResult{}, err
	}

	cart, err := s.cart.Get(ctx)
	if err != nil {
		return CheckoutResult{}, fmt.Errorf("checkout service: load cart: %w", err)
	}
	if len(cart.Items) == 0 {
		return CheckoutResult{}, ErrCheckoutEmptyCart
	}

	// Freeze the cart lines; later catalog edits must not affect the order.
	items := make([]domain.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		items = append(items, domain.OrderItem{Product: line.Product, Quantity: line.Quantity})
	}
	total := domain.OrderItemsTotal(items)
	orderID := s.newID()

	charge, err := s.gateway.Charge(ctx, payments.ChargeRequest{
		OrderID:     orderID,
		UserID:      cmd.UserID,
		AmountCents: total,
		Method:      cmd.PaymentMethod,
		Card:        toGatewayCard(cmd.Card),
		UPIID:       cmd.UPIID,
	})
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrInvalidDetails), errors.Is(err, payments.ErrUnsupportedMethod):
			return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutInvalidInput, err)
		case errors.Is(err, payments.ErrDeclined), errors.Is(err, payments.ErrCancelled):
			return CheckoutResult{}, fmt.Errorf("%w: %v", ErrCheckoutPaymentFailed, err)
		default:
			return CheckoutResult{}, fmt.Errorf("checkout service: charge: %w", err)
		}
	}

	now := s.now()
	order := domain.Order{
		ID:               orderID,
		UserID:           cmd.UserID,
		Items:            items,
		TotalAmountCents: total,
		Status:           domain.OrderStatusPending,
		ShippingAddress:  cmd.ShippingAddress,
		PaymentMethod:    cmd.PaymentMethod,
		PaymentID:        charge.PaymentID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orders.AppendOrder(ctx, order); err != nil {
		// The charge already settled; release it before failing the checkout.
		if cancelErr := s.gateway.Cancel(ctx, orderID); cancelErr != nil {
			s.logger(ctx, "checkout.cancel_failed", map[string]any{
				"order_id": orderID, "error": cancelErr.Error(),
			})
		}
		return CheckoutResult{}, fmt.Errorf("checkout service: record order: %w", err)
	}

	if _, err := s.cart.Clear(ctx); err != nil {
		s.logger(ctx, "checkout.cart_clear_failed", map[string]any{
			"order_id": orderID, "error": err.Error(),
		})
	}

	s.publishOrderPlaced(ctx, order)
	s.logger(ctx, "checkout.completed", map[string]any{
		"order_id":     orderID,
		"user_id":      cmd.UserID,
		"total_amount": total,
	})
	return CheckoutResult{Order: order, PaymentID: charge.PaymentID}, nil
}

func (s *checkoutService) publishOrderPlaced(ctx context.Context, order domain.Order) {
	if s.publisher == nil {
		return
	}
	message := OrderPlacedMessage{
		OrderID:          order.ID,
		UserID:           order.UserID,
		TotalAmountCents: order.TotalAmountCents,
		PaymentMethod:    string(order.PaymentMethod),
		PaymentID:        order.PaymentID,
		Status:           string(order.Status),
		CreatedAt:        order.CreatedAt.Format(time.RFC3339),
	}
	if _, err := s.publisher.PublishOrderPlaced(ctx, message); err != nil {
		s.logger(ctx, "checkout.publish_failed", map[string]any{
			"order_id": order.ID, "error": err.Error(),
		})
	}
}

func validateCheckout(cmd CheckoutCommand) error {
	var invalid []string
	if strings.TrimSpace(cmd.UserID) == "" {
		invalid = append(invalid, "userId")
	}

	addr := cmd.ShippingAddress
	required := map[string]string{
		"firstName": addr.FirstName,
		"lastName":  addr.LastName,
		"address1":  addr.Address1,
		"city":      addr.City,
		"state":     addr.State,
		"zipCode":   addr.ZipCode,
		"country":   addr.Country,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			invalid = append(invalid, field)
		}
	}

	switch cmd.PaymentMethod {
	case domain.PaymentMethodCard:
		if cmd.Card == nil {
			invalid = append(invalid, "card")
		}
	case domain.PaymentMethodUPI:
		if !payments.ValidUPIID(cmd.UPIID) {
			invalid = append(invalid, "upiId")
		}
	case domain.PaymentMethodCOD:
	default:
		invalid = append(invalid, "paymentMethod")
	}

	if len(invalid) > 0 {
		sort.Strings(invalid)
		return fmt.Errorf("%w: %s", ErrCheckoutInvalidInput, strings.Join(invalid, ", "))
	}
	return nil
}

func toGatewayCard(card *CardDetails) *payments.Card {
	if card == nil {
		return nil
	}
	return &payments.Card{
		Number: card.Number,
		Expiry: card.Expiry,
		CVC:    card.CVC,
		Name:   card.Name,
	}
}
