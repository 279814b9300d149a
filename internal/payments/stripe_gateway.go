package payments

import (
	"context"
	"errors"
	"fmt"
	"sync"

	stripe "github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/marketbay/api/internal/domain"
)

// paymentIntentAPI is the slice of the Stripe client the gateway needs,
// injectable for tests.
type paymentIntentAPI interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

// StripeGatewayDeps configures the Stripe-backed gateway.
type StripeGatewayDeps struct {
	APIKey string
	// PaymentIntents overrides the live client, used by tests.
	PaymentIntents paymentIntentAPI
	Logger         func(context.Context, string, map[string]any)
}

// StripeGateway settles card charges through Stripe payment intents. Only
// cards are supported; other methods belong to the mock gateway.
type StripeGateway struct {
	intents paymentIntentAPI
	logger  func(context.Context, string, map[string]any)

	mu      sync.Mutex
	pending map[string]string
}

// NewStripeGateway constructs a Stripe-backed gateway.
func NewStripeGateway(deps StripeGatewayDeps) (*StripeGateway, error) {
	intents := deps.PaymentIntents
	if intents == nil {
		if deps.APIKey == "" {
			return nil, errors.New("stripe gateway: api key is required")
		}
		api := client.New(deps.APIKey, nil)
		intents = api.PaymentIntents
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &StripeGateway{
		intents: intents,
		logger:  logger,
		pending: make(map[string]string),
	}, nil
}

// Charge creates a payment intent for the order amount.
func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.Method != domain.PaymentMethodCard {
		return ChargeResult{}, ErrUnsupportedMethod
	}
	if req.AmountCents <= 0 {
		return ChargeResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidDetails)
	}
	if err := validateCard(req.Card); err != nil {
		return ChargeResult{}, err
	}

	params := &stripe.PaymentIntentParams{
		Params:   stripe.Params{Context: ctx},
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(string(stripe.CurrencyUSD)),
	}
	params.AddMetadata("order_id", req.OrderID)
	params.AddMetadata("user_id", req.UserID)

	intent, err := g.intents.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return ChargeResult{}, fmt.Errorf("%w: %s", ErrDeclined, stripeErr.Code)
		}
		return ChargeResult{}, fmt.Errorf("stripe gateway: create intent: %w", err)
	}

	g.mu.Lock()
	g.pending[req.OrderID] = intent.ID
	g.mu.Unlock()

	g.logger(ctx, "payments.stripe_charged", map[string]any{
		"order_id":   req.OrderID,
		"payment_id": intent.ID,
		"status":     string(intent.Status),
	})
	return ChargeResult{PaymentID: intent.ID, Status: string(intent.Status)}, nil
}

// Cancel aborts the payment intent recorded for the order, if any.
func (g *StripeGateway) Cancel(ctx context.Context, orderID string) error {
	g.mu.Lock()
	intentID, ok := g.pending[orderID]
	delete(g.pending, orderID)
	g.mu.Unlock()
	if !ok {
		return nil
	}

	params := &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}}
	if _, err := g.intents.Cancel(intentID, params); err != nil {
		return fmt.Errorf("stripe gateway: cancel intent: %w", err)
	}
	g.logger(ctx, "payments.stripe_cancelled", map[string]any{"order_id": orderID})
	return nil
}
