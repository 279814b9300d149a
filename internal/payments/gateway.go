// Package payments abstracts the payment gateway behind a small interface so
// checkout stays independent of the provider in use.
package payments

import (
	"context"
	"errors"
	"regexp"

	"github.com/marketbay/api/internal/domain"
)

// ErrInvalidDetails indicates the payment instrument failed validation.
var ErrInvalidDetails = errors.New("payments: invalid payment details")

// ErrDeclined indicates the provider rejected the charge.
var ErrDeclined = errors.New("payments: charge declined")

// ErrCancelled indicates the charge was cancelled before it resolved.
var ErrCancelled = errors.New("payments: charge cancelled")

// ErrUnsupportedMethod indicates the gateway cannot settle the given method.
var ErrUnsupportedMethod = errors.New("payments: unsupported payment method")

// Card carries the raw card fields collected at checkout. Never logged.
type Card struct {
	Number string
	Expiry string
	CVC    string
	Name   string
}

// ChargeRequest describes one settlement attempt.
type ChargeRequest struct {
	OrderID     string
	UserID      string
	AmountCents int64
	Method      domain.PaymentMethod
	Card        *Card
	UPIID       string
}

// ChargeResult reports a settled charge.
type ChargeResult struct {
	PaymentID string
	Status    string
}

// Gateway settles and cancels charges.
type Gateway interface {
	Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
	// Cancel aborts an in-flight charge for the order. Cancelling an unknown
	// or already-settled order is a no-op.
	Cancel(ctx context.Context, orderID string) error
}

var upiIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+$`)

// ValidUPIID reports whether the UPI ID matches the handle@provider shape.
func ValidUPIID(id string) bool {
	return upiIDPattern.MatchString(id)
}
