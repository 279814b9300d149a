package payments

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/marketbay/api/internal/domain"
)

// MockGatewayDeps configures the simulated gateway.
type MockGatewayDeps struct {
	// Delay simulates provider latency before a charge resolves.
	Delay time.Duration
	// FailurePct declines roughly that percentage of charges. Zero means
	// every valid charge succeeds.
	FailurePct int
	// Roll returns a value in [0, 100) used against FailurePct. Injectable
	// so tests are deterministic.
	Roll        func() int
	IDGenerator func() string
	Logger      func(context.Context, string, map[string]any)
}

// MockGateway simulates a payment provider: it validates the instrument,
// waits out a configured delay, and settles with a method-prefixed payment ID.
type MockGateway struct {
	delay      time.Duration
	failurePct int
	roll       func() int
	newID      func() string
	logger     func(context.Context, string, map[string]any)

	mu        sync.Mutex
	cancelled map[string]bool
}

// NewMockGateway constructs the simulated gateway.
func NewMockGateway(deps MockGatewayDeps) *MockGateway {
	roll := deps.Roll
	if roll == nil {
		roll = func() int { return 100 }
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return strings.ToLower(ulid.Make().String()) }
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &MockGateway{
		delay:      deps.Delay,
		failurePct: deps.FailurePct,
		roll:       roll,
		newID:      idGen,
		logger:     logger,
		cancelled:  make(map[string]bool),
	}
}

// Charge validates the instrument, waits the configured delay, and settles
// unless the order was cancelled meanwhile.
func (g *MockGateway) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if req.AmountCents <= 0 {
		return ChargeResult{}, fmt.Errorf("%w: amount must be positive", ErrInvalidDetails)
	}
	if err := validateInstrument(req); err != nil {
		return ChargeResult{}, err
	}

	if g.delay > 0 {
		timer := time.NewTimer(g.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	g.mu.Lock()
	wasCancelled := g.cancelled[req.OrderID]
	delete(g.cancelled, req.OrderID)
	g.mu.Unlock()
	if wasCancelled {
		return ChargeResult{}, ErrCancelled
	}

	if g.failurePct > 0 && g.roll() < g.failurePct {
		g.logger(ctx, "payments.mock_declined", map[string]any{"order_id": req.OrderID})
		return ChargeResult{}, ErrDeclined
	}

	result := ChargeResult{
		PaymentID: paymentIDPrefix(req.Method) + g.newID(),
		Status:    "succeeded",
	}
	g.logger(ctx, "payments.mock_charged", map[string]any{
		"order_id":   req.OrderID,
		"payment_id": result.PaymentID,
		"method":     string(req.Method),
	})
	return result, nil
}

// Cancel marks the order's in-flight charge as cancelled. The flag is
// consumed by the next Charge resolution for that order.
func (g *MockGateway) Cancel(ctx context.Context, orderID string) error {
	g.mu.Lock()
	g.cancelled[orderID] = true
	g.mu.Unlock()
	return nil
}

func validateInstrument(req ChargeRequest) error {
	switch req.Method {
	case domain.PaymentMethodCard:
		return validateCard(req.Card)
	case domain.PaymentMethodUPI:
		if !ValidUPIID(req.UPIID) {
			return fmt.Errorf("%w: malformed UPI id", ErrInvalidDetails)
		}
		return nil
	case domain.PaymentMethodCOD:
		return nil
	default:
		return ErrUnsupportedMethod
	}
}

func validateCard(card *Card) error {
	if card == nil {
		return fmt.Errorf("%w: card details are required", ErrInvalidDetails)
	}
	digits := strings.ReplaceAll(strings.ReplaceAll(card.Number, " ", ""), "-", "")
	if len(digits) < 12 || len(digits) > 19 || strings.TrimLeft(digits, "0123456789") != "" {
		return fmt.Errorf("%w: malformed card number", ErrInvalidDetails)
	}
	if len(card.CVC) < 3 || len(card.CVC) > 4 || strings.TrimLeft(card.CVC, "0123456789") != "" {
		return fmt.Errorf("%w: malformed card cvc", ErrInvalidDetails)
	}
	if strings.TrimSpace(card.Expiry) == "" {
		return fmt.Errorf("%w: card expiry is required", ErrInvalidDetails)
	}
	if strings.TrimSpace(card.Name) == "" {
		return fmt.Errorf("%w: cardholder name is required", ErrInvalidDetails)
	}
	return nil
}

func paymentIDPrefix(method domain.PaymentMethod) string {
	switch method {
	case domain.PaymentMethodUPI:
		return "upi_"
	case domain.PaymentMethodCOD:
		return "cod_"
	default:
		return "txn_"
	}
}
