package domain

import (
	"strings"
	"time"
)

// Product is a single catalog entry. Products are immutable once generated or
// stored; all monetary values are minor units (cents).
type Product struct {
	ID          string  `json:"id" firestore:"-"`
	Name        string  `json:"name" firestore:"name"`
	Description string  `json:"description" firestore:"description"`
	PriceCents  int64   `json:"price" firestore:"price"`
	Image       string  `json:"image" firestore:"image"`
	Category    string  `json:"category" firestore:"category"`
	InStock     bool    `json:"inStock" firestore:"inStock"`
	Rating      float64 `json:"rating" firestore:"rating"`
	Reviews     int     `json:"reviews" firestore:"reviews"`
	// DiscountPct is a percentage in [0, 100] applied multiplicatively to
	// PriceCents at order settlement time only. The cart total deliberately
	// ignores it; see CartState.
	DiscountPct int `json:"discount" firestore:"discount"`
}

// DiscountedPriceCents returns the unit price after the product discount,
// rounded half-up to the nearest cent.
func (p Product) DiscountedPriceCents() int64 {
	if p.DiscountPct <= 0 {
		return p.PriceCents
	}
	pct := int64(p.DiscountPct)
	if pct > 100 {
		pct = 100
	}
	return (p.PriceCents*(100-pct) + 50) / 100
}

// Address is a flat shipping destination. Immutable once attached to an order.
type Address struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Address1  string `json:"address1"`
	Address2  string `json:"address2,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
	Phone     string `json:"phone,omitempty"`
}

// OrderStatus enumerates the lifecycle states an order can report. Transitions
// are monotonic; this service only assigns initial values (fixtures and
// checkout), it does not advance them.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered:
		return true
	}
	return false
}

// PaymentMethod tags the instrument used to settle an order.
type PaymentMethod string

const (
	PaymentMethodCard PaymentMethod = "card"
	PaymentMethodUPI  PaymentMethod = "upi"
	PaymentMethodCOD  PaymentMethod = "cod"
)

// Valid reports whether the method is one this system settles.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodCard, PaymentMethodUPI, PaymentMethodCOD:
		return true
	}
	return false
}

// OrderItem freezes a cart line at purchase time: the product snapshot plus
// the purchased quantity.
type OrderItem struct {
	Product
	Quantity int `json:"quantity"`
}

// Order is a purchase record. Immutable after creation except for item
// removal, which recomputes TotalAmountCents and refreshes UpdatedAt.
type Order struct {
	ID               string        `json:"id"`
	UserID           string        `json:"userId"`
	Items            []OrderItem   `json:"items"`
	TotalAmountCents int64         `json:"totalAmount"`
	Status           OrderStatus   `json:"status"`
	ShippingAddress  Address       `json:"shippingAddress"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	PaymentID        string        `json:"paymentId,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// OrderItemsTotal computes the settlement total for a set of order items:
// the sum over items of discounted unit price times quantity. This is the one
// place discounts enter totals; cart totals use the full price.
func OrderItemsTotal(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		total += item.DiscountedPriceCents() * int64(item.Quantity)
	}
	return total
}

// CloneOrderItems returns a defensive copy of the item slice.
func CloneOrderItems(items []OrderItem) []OrderItem {
	if len(items) == 0 {
		return []OrderItem{}
	}
	dup := make([]OrderItem, len(items))
	copy(dup, items)
	return dup
}

// User is the session identity persisted alongside the credential list.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), "admin")
}

// Credential is a registered account record, stored as the original system
// stored it: the plain credential list under a fixed key. Not a security
// boundary; this mirrors the demo storage contract.
type Credential struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
