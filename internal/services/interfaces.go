// Package services contains the application's business logic behind small
// interfaces so handlers stay thin and dependencies stay injectable.
package services

import (
	"context"

	"github.com/marketbay/api/internal/domain"
)

// SortOrder selects ascending or descending catalog sorting.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// CatalogQuery filters, sorts, and pages the product catalog. Zero values
// fall back to the storefront defaults (sort by rating descending, page 1,
// 24 items per page).
type CatalogQuery struct {
	Category  string
	Search    string
	SortBy    string
	SortOrder SortOrder
	Page      int
	Limit     int
}

// CatalogPage is one page of catalog results plus paging metadata.
type CatalogPage struct {
	Products   []domain.Product
	Total      int
	Page       int
	TotalPages int
	// Degraded reports whether the page was served from the built-in
	// fallback catalog instead of the primary store.
	Degraded bool
}

// ProductInput carries the fields an administrator can set on a product.
type ProductInput struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	Image       string
	Category    string
	InStock     bool
	DiscountPct int
}

// CatalogService serves the product catalog from the primary store with a
// sticky in-memory fallback when the primary is unreachable.
type CatalogService interface {
	// Initialize seeds the primary store when empty. A primary failure is
	// not fatal; the catalog degrades to the generated fallback.
	Initialize(ctx context.Context) error
	Query(ctx context.Context, query CatalogQuery) (CatalogPage, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	// Degraded reports whether the catalog has switched to the fallback.
	Degraded() bool

	CreateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	UpdateProduct(ctx context.Context, input ProductInput) (domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// CartService owns the persisted cart state machine.
type CartService interface {
	Get(ctx context.Context) (domain.CartState, error)
	AddItem(ctx context.Context, productID string) (domain.CartState, error)
	RemoveItem(ctx context.Context, productID string) (domain.CartState, error)
	SetQuantity(ctx context.Context, productID string, quantity int) (domain.CartState, error)
	Clear(ctx context.Context) (domain.CartState, error)
}

// OrderService reads and mutates per-user order history.
type OrderService interface {
	// ListOrders returns the user's orders, seeding the demo history on
	// first access (or after the history was cleared).
	ListOrders(ctx context.Context, userID string) ([]domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error)
	// RemoveItem drops one line from an order and recomputes its total.
	RemoveItem(ctx context.Context, userID, orderID, itemID string) (domain.Order, error)
	// ClearHistory empties the user's order list. The next ListOrders call
	// reseeds the demo orders.
	ClearHistory(ctx context.Context, userID string) error
	// AppendOrder records a newly placed order at the head of the history.
	AppendOrder(ctx context.Context, order domain.Order) error
}

// CardDetails carries the card fields collected at checkout.
type CardDetails struct {
	Number string
	Expiry string
	CVC    string
	Name   string
}

// CheckoutCommand is everything needed to place an order from the cart.
type CheckoutCommand struct {
	UserID          string
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
	Card            *CardDetails
	UPIID           string
}

// CheckoutResult reports the created order and its payment reference.
type CheckoutResult struct {
	Order     domain.Order
	PaymentID string
}

// CheckoutService converts the cart into an order through the payment gateway.
type CheckoutService interface {
	Checkout(ctx context.Context, cmd CheckoutCommand) (CheckoutResult, error)
}

// OrderPlacedMessage is the event payload published after a successful checkout.
type OrderPlacedMessage struct {
	OrderID          string `json:"orderId"`
	UserID           string `json:"userId"`
	TotalAmountCents int64  `json:"totalAmount"`
	PaymentMethod    string `json:"paymentMethod"`
	PaymentID        string `json:"paymentId"`
	Status           string `json:"status"`
	CreatedAt        string `json:"createdAt"`
}

// OrderEventPublisher publishes order lifecycle events to interested consumers.
type OrderEventPublisher interface {
	PublishOrderPlaced(ctx context.Context, message OrderPlacedMessage) (string, error)
}

// Session is an authenticated user plus their signed session token.
type Session struct {
	User  domain.User
	Token string
}

// UserService handles registration, login, and the persisted session.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (Session, error)
	Login(ctx context.Context, email, password string) (Session, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (domain.User, error)
}
