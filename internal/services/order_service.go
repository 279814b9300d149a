package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/platform/kvstore"
)

var (
	errOrderStoreRequired = errors.New("order service: store is required")
	errOrderSeedRequired  = errors.New("order service: seed function is required")
	errOrderClockRequired = errors.New("order service: clock is required")
)

// ErrOrderInvalidInput indicates the caller supplied invalid input.
var ErrOrderInvalidInput = errors.New("order service: invalid input")

// ErrOrderNotFound indicates the order does not exist for the user.
var ErrOrderNotFound = errors.New("order service: order not found")

// ErrOrderPersist indicates the history mutation could not be written back.
var ErrOrderPersist = errors.New("order service: persist failed")

// OrderServiceDeps wires the persisted store and the demo history seeder.
type OrderServiceDeps struct {
	Store *kvstore.Store
	// Seed produces the demo order history for a user, dated relative to now.
	Seed   func(userID string, now time.Time) []domain.Order
	Clock  func() time.Time
	Logger func(context.Context, string, map[string]any)
}

type orderService struct {
	store  *kvstore.Store
	seed   func(userID string, now time.Time) []domain.Order
	now    func() time.Time
	logger func(context.Context, string, map[string]any)

	mu sync.Mutex
}

// NewOrderService constructs an OrderService enforcing dependency validation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Store == nil {
		return nil, errOrderStoreRequired
	}
	if deps.Seed == nil {
		return nil, errOrderSeedRequired
	}
	if deps.Clock == nil {
		return nil, errOrderClockRequired
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}
	return &orderService{
		store:  deps.Store,
		seed:   deps.Seed,
		now:    func() time.Time { return deps.Clock().UTC() },
		logger: logger,
	}, nil
}

func orderHistoryKey(userID string) string {
	return fmt.Sprintf("user_%s_orders", userID)
}

// ListOrders returns the user's history, seeding the demo orders when the
// history is empty. Clearing the history therefore restores the demo set on
// the next listing.
func (s *orderService) ListOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load(userID)
	if len(orders) > 0 {
		return orders, nil
	}

	orders = s.seed(userID, s.now())
	if !kvstore.Write(s.store, orderHistoryKey(userID), orders) {
		return nil, ErrOrderPersist
	}
	s.logger(ctx, "orders.seeded", map[string]any{"user_id": userID, "count": len(orders)})
	return orders, nil
}

// GetOrder fetches one order from the user's history.
func (s *orderService) GetOrder(ctx context.Context, userID, orderID string) (domain.Order, error) {
	userID = strings.TrimSpace(userID)
	orderID = strings.TrimSpace(orderID)
	if userID == "" || orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: user id and order id are required", ErrOrderInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, order := range s.load(userID) {
		if order.ID == orderID {
			return order, nil
		}
	}
	return domain.Order{}, ErrOrderNotFound
}

// RemoveItem drops one line from an order, recomputes the settlement total,
// and refreshes UpdatedAt. Removing an item the order does not contain
// returns the order unmodified.
func (s *orderService) RemoveItem(ctx context.Context, userID, orderID, itemID string) (domain.Order, error) {
	userID = strings.TrimSpace(userID)
	orderID = strings.TrimSpace(orderID)
	itemID = strings.TrimSpace(itemID)
	if userID == "" || orderID == "" || itemID == "" {
		return domain.Order{}, fmt.Errorf("%w: user id, order id, and item id are required", ErrOrderInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load(userID)
	for i, order := range orders {
		if order.ID != orderID {
			continue
		}

		items := make([]domain.OrderItem, 0, len(order.Items))
		removed := false
		for _, item := range order.Items {
			if item.ID == itemID {
				removed = true
				continue
			}
			items = append(items, item)
		}
		if !removed {
			return order, nil
		}

		order.Items = items
		order.TotalAmountCents = domain.OrderItemsTotal(items)
		order.UpdatedAt = s.now()
		orders[i] = order

		if !kvstore.Write(s.store, orderHistoryKey(userID), orders) {
			return domain.Order{}, ErrOrderPersist
		}
		s.logger(ctx, "orders.item_removed", map[string]any{
			"user_id":  userID,
			"order_id": orderID,
			"item_id":  itemID,
		})
		return order, nil
	}
	return domain.Order{}, ErrOrderNotFound
}

// ClearHistory empties the user's order list.
func (s *orderService) ClearHistory(ctx context.Context, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("%w: user id is required", ErrOrderInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !kvstore.Write(s.store, orderHistoryKey(userID), []domain.Order{}) {
		return ErrOrderPersist
	}
	s.logger(ctx, "orders.history_cleared", map[string]any{"user_id": userID})
	return nil
}

// AppendOrder records a newly placed order at the head of the history.
func (s *orderService) AppendOrder(ctx context.Context, order domain.Order) error {
	if strings.TrimSpace(order.ID) == "" || strings.TrimSpace(order.UserID) == "" {
		return fmt.Errorf("%w: order id and user id are required", ErrOrderInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.load(order.UserID)
	orders = append([]domain.Order{order}, orders...)
	if !kvstore.Write(s.store, orderHistoryKey(order.UserID), orders) {
		return ErrOrderPersist
	}
	return nil
}

func (s *orderService) load(userID string) []domain.Order {
	return kvstore.Read(s.store, orderHistoryKey(userID), []domain.Order{})
}
