package payments

import (
	"context"
	"errors"
	"testing"

	stripe "github.com/stripe/stripe-go/v78"

	"github.com/marketbay/api/internal/domain"
)

type stubIntentAPI struct {
	intent *stripe.PaymentIntent
	newErr error

	lastParams  *stripe.PaymentIntentParams
	cancelledID string
	cancelErr   error
}

func (s *stubIntentAPI) New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	s.lastParams = params
	if s.newErr != nil {
		return nil, s.newErr
	}
	return s.intent, nil
}

func (s *stubIntentAPI) Cancel(id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	s.cancelledID = id
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &stripe.PaymentIntent{ID: id, Status: stripe.PaymentIntentStatusCanceled}, nil
}

func newTestStripeGateway(t *testing.T, api *stubIntentAPI) *StripeGateway {
	t.Helper()
	gateway, err := NewStripeGateway(StripeGatewayDeps{PaymentIntents: api})
	if err != nil {
		t.Fatalf("NewStripeGateway: %v", err)
	}
	return gateway
}

func TestStripeGatewayRequiresKeyOrClient(t *testing.T) {
	if _, err := NewStripeGateway(StripeGatewayDeps{}); err == nil {
		t.Fatalf("expected error without api key")
	}
}

func TestStripeGatewayChargesCards(t *testing.T) {
	api := &stubIntentAPI{intent: &stripe.PaymentIntent{
		ID:     "pi_123",
		Status: stripe.PaymentIntentStatusSucceeded,
	}}
	gateway := newTestStripeGateway(t, api)

	result, err := gateway.Charge(context.Background(), ChargeRequest{
		OrderID:     "ord_1",
		UserID:      "1",
		AmountCents: 14677,
		Method:      domain.PaymentMethodCard,
		Card:        validCard(),
	})
	if err != nil {
		t.Fatalf("Charge: %v", err)
	}
	if result.PaymentID != "pi_123" || result.Status != "succeeded" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if got := *api.lastParams.Amount; got != 14677 {
		t.Fatalf("unexpected amount %d", got)
	}
	if api.lastParams.Metadata["order_id"] != "ord_1" {
		t.Fatalf("order metadata missing: %+v", api.lastParams.Metadata)
	}
}

func TestStripeGatewayRejectsNonCardMethods(t *testing.T) {
	gateway := newTestStripeGateway(t, &stubIntentAPI{})

	_, err := gateway.Charge(context.Background(), ChargeRequest{
		OrderID:     "ord_1",
		AmountCents: 100,
		Method:      domain.PaymentMethodUPI,
		UPIID:       "buyer@upi",
	})
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("expected ErrUnsupportedMethod, got %v", err)
	}
}

func TestStripeGatewayMapsCardErrors(t *testing.T) {
	api := &stubIntentAPI{newErr: &stripe.Error{
		Type: stripe.ErrorTypeCard,
		Code: stripe.ErrorCodeCardDeclined,
	}}
	gateway := newTestStripeGateway(t, api)

	_, err := gateway.Charge(context.Background(), ChargeRequest{
		OrderID:     "ord_1",
		AmountCents: 100,
		Method:      domain.PaymentMethodCard,
		Card:        validCard(),
	})
	if !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
}

func TestStripeGatewayCancelsPendingIntent(t *testing.T) {
	api := &stubIntentAPI{intent: &stripe.PaymentIntent{
		ID:     "pi_123",
		Status: stripe.PaymentIntentStatusRequiresCapture,
	}}
	gateway := newTestStripeGateway(t, api)

	if _, err := gateway.Charge(context.Background(), ChargeRequest{
		OrderID:     "ord_1",
		AmountCents: 100,
		Method:      domain.PaymentMethodCard,
		Card:        validCard(),
	}); err != nil {
		t.Fatalf("Charge: %v", err)
	}

	if err := gateway.Cancel(context.Background(), "ord_1"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if api.cancelledID != "pi_123" {
		t.Fatalf("expected intent cancelled, got %q", api.cancelledID)
	}

	// Unknown orders are a no-op.
	api.cancelledID = ""
	if err := gateway.Cancel(context.Background(), "ord_other"); err != nil {
		t.Fatalf("Cancel unknown order: %v", err)
	}
	if api.cancelledID != "" {
		t.Fatalf("unexpected cancel call for unknown order")
	}
}
