package domain

import "testing"

func TestOrderItemsTotalAppliesDiscount(t *testing.T) {
	items := []OrderItem{
		{Product: Product{ID: "p1", PriceCents: 10000, DiscountPct: 10}, Quantity: 1},
		{Product: Product{ID: "p2", PriceCents: 5000, DiscountPct: 0}, Quantity: 2},
	}

	if got := OrderItemsTotal(items); got != 19000 {
		t.Fatalf("expected 19000, got %d", got)
	}
}

func TestOrderItemsTotalEmpty(t *testing.T) {
	if got := OrderItemsTotal(nil); got != 0 {
		t.Fatalf("expected 0 for no items, got %d", got)
	}
}

func TestOrderItemsTotalSkipsNonPositiveQuantities(t *testing.T) {
	items := []OrderItem{
		{Product: Product{ID: "p1", PriceCents: 100}, Quantity: 0},
		{Product: Product{ID: "p2", PriceCents: 100}, Quantity: 3},
	}
	if got := OrderItemsTotal(items); got != 300 {
		t.Fatalf("expected 300, got %d", got)
	}
}

func TestDiscountedPriceRoundsHalfUp(t *testing.T) {
	cases := []struct {
		price    int64
		discount int
		want     int64
	}{
		{10000, 10, 9000},
		{999, 33, 669},  // 669.33 rounds down
		{101, 50, 51},   // 50.5 rounds up
		{100, 0, 100},   // no discount passthrough
		{100, 150, 0},   // clamped to 100%
	}
	for _, tc := range cases {
		p := Product{PriceCents: tc.price, DiscountPct: tc.discount}
		if got := p.DiscountedPriceCents(); got != tc.want {
			t.Fatalf("price %d discount %d: expected %d, got %d", tc.price, tc.discount, tc.want, got)
		}
	}
}

func TestOrderStatusValid(t *testing.T) {
	for _, s := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered} {
		if !s.Valid() {
			t.Fatalf("expected %q to be valid", s)
		}
	}
	if OrderStatus("cancelled").Valid() {
		t.Fatalf("expected unknown status to be invalid")
	}
}
