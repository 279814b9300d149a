package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marketbay/api/internal/domain"
	"github.com/marketbay/api/internal/fixtures"
	"github.com/marketbay/api/internal/platform/kvstore"
)

func newTestOrderService(t *testing.T) OrderService {
	t.Helper()
	svc, err := NewOrderService(OrderServiceDeps{
		Store: kvstore.New(kvstore.NewMemoryBackend(), nil),
		Seed:  fixtures.SeedOrders,
		Clock: func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}
	return svc
}

func TestOrdersSeededOnFirstListing(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	orders, err := svc.ListOrders(ctx, "1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 3 {
		t.Fatalf("expected 3 seeded orders for user 1, got %d", len(orders))
	}

	// A second listing returns the persisted history without reseeding.
	again, err := svc.ListOrders(ctx, "1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(again) != len(orders) || again[0].ID != orders[0].ID {
		t.Fatalf("expected stable history, got %+v", again)
	}
}

func TestOrdersGetOrder(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	if _, err := svc.ListOrders(ctx, "1"); err != nil {
		t.Fatalf("ListOrders: %v", err)
	}

	order, err := svc.GetOrder(ctx, "1", "ord_1002")
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if order.Status != domain.OrderStatusShipped {
		t.Fatalf("expected shipped order, got %s", order.Status)
	}

	if _, err := svc.GetOrder(ctx, "1", "ord_9999"); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestOrdersRemoveItemRecomputesTotal(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	orders, err := svc.ListOrders(ctx, "1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	target := orders[0]
	if len(target.Items) < 2 {
		t.Fatalf("test needs a multi-item order, got %+v", target)
	}
	removedID := target.Items[0].ID

	order, err := svc.RemoveItem(ctx, "1", target.ID, removedID)
	if err != nil {
		t.Fatalf("RemoveItem: %v", err)
	}
	if len(order.Items) != len(target.Items)-1 {
		t.Fatalf("expected one fewer item, got %d", len(order.Items))
	}
	if order.TotalAmountCents != domain.OrderItemsTotal(order.Items) {
		t.Fatalf("total not recomputed from remaining items")
	}
	if !order.UpdatedAt.After(target.UpdatedAt) {
		t.Fatalf("expected UpdatedAt refreshed, got %v", order.UpdatedAt)
	}

	// The mutation persists.
	reloaded, err := svc.GetOrder(ctx, "1", target.ID)
	if err != nil {
		t.Fatalf("GetOrder: %v", err)
	}
	if len(reloaded.Items) != len(order.Items) {
		t.Fatalf("mutation not persisted: %+v", reloaded)
	}

	// Removing an item the order no longer contains returns it unmodified.
	unchanged, err := svc.RemoveItem(ctx, "1", target.ID, removedID)
	if err != nil {
		t.Fatalf("RemoveItem absent line: %v", err)
	}
	if len(unchanged.Items) != len(order.Items) || unchanged.TotalAmountCents != order.TotalAmountCents {
		t.Fatalf("expected unmodified order, got %+v", unchanged)
	}
}

func TestOrdersClearHistoryReseedsOnNextListing(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	if _, err := svc.ListOrders(ctx, "2"); err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if err := svc.ClearHistory(ctx, "2"); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}

	orders, err := svc.ListOrders(ctx, "2")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("expected reseeded demo history, got %d orders", len(orders))
	}
}

func TestOrdersAppendOrderPrepends(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	if _, err := svc.ListOrders(ctx, "1"); err != nil {
		t.Fatalf("ListOrders: %v", err)
	}

	placed := domain.Order{
		ID:     "ord_new",
		UserID: "1",
		Status: domain.OrderStatusPending,
	}
	if err := svc.AppendOrder(ctx, placed); err != nil {
		t.Fatalf("AppendOrder: %v", err)
	}

	orders, err := svc.ListOrders(ctx, "1")
	if err != nil {
		t.Fatalf("ListOrders: %v", err)
	}
	if orders[0].ID != "ord_new" {
		t.Fatalf("expected new order first, got %s", orders[0].ID)
	}
	if len(orders) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(orders))
	}
}

func TestOrdersValidation(t *testing.T) {
	svc := newTestOrderService(t)
	ctx := context.Background()

	if _, err := svc.ListOrders(ctx, ""); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
	if err := svc.AppendOrder(ctx, domain.Order{}); !errors.Is(err, ErrOrderInvalidInput) {
		t.Fatalf("expected ErrOrderInvalidInput, got %v", err)
	}
}
