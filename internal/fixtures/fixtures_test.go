package fixtures

import (
	"testing"
	"time"

	"github.com/marketbay/api/internal/domain"
)

func TestProductGeneratorBounds(t *testing.T) {
	gen := NewProductGenerator(1)
	products := gen.Products(200)

	if len(products) != 200 {
		t.Fatalf("expected 200 products, got %d", len(products))
	}
	if products[0].ID != "prod_1" || products[199].ID != "prod_200" {
		t.Fatalf("unexpected id sequence: %s .. %s", products[0].ID, products[199].ID)
	}

	for _, p := range products {
		if p.PriceCents < 199 || p.PriceCents > 99999 {
			t.Fatalf("price out of range for %s: %d", p.ID, p.PriceCents)
		}
		if p.Rating < 3.5 || p.Rating > 5.0 {
			t.Fatalf("rating out of range for %s: %f", p.ID, p.Rating)
		}
		if p.Reviews < 5 || p.Reviews >= 1000 {
			t.Fatalf("reviews out of range for %s: %d", p.ID, p.Reviews)
		}
		if p.DiscountPct != 0 && (p.DiscountPct < 5 || p.DiscountPct >= 70) {
			t.Fatalf("discount out of range for %s: %d", p.ID, p.DiscountPct)
		}
		if p.Name == "" || p.Description == "" || p.Image == "" {
			t.Fatalf("incomplete product %s: %+v", p.ID, p)
		}
		if _, ok := productTypes[p.Category]; !ok {
			t.Fatalf("unknown category for %s: %s", p.ID, p.Category)
		}
	}
}

func TestProductGeneratorDeterministicForSeed(t *testing.T) {
	a := NewProductGenerator(42).Products(10)
	b := NewProductGenerator(42).Products(10)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("expected identical output for same seed at index %d", i)
		}
	}
}

func TestSeedOrdersForPrefixOne(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	orders := SeedOrders("1", now)

	if len(orders) != 3 {
		t.Fatalf("expected 3 orders for user 1, got %d", len(orders))
	}
	if orders[0].ID != "ord_1001" || orders[0].Status != domain.OrderStatusDelivered {
		t.Fatalf("unexpected first order: %+v", orders[0])
	}
	if orders[2].ID != "ord_3001" || orders[2].PaymentMethod != domain.PaymentMethodUPI {
		t.Fatalf("expected common pending UPI order last, got %+v", orders[2])
	}

	// ord_1001: 14999 + 19999 at 10% off = 14999 + 17999.
	if orders[0].TotalAmountCents != 32998 {
		t.Fatalf("unexpected ord_1001 total: %d", orders[0].TotalAmountCents)
	}
}

func TestSeedOrdersForPrefixTwo(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	orders := SeedOrders("2", now)

	if len(orders) != 2 {
		t.Fatalf("expected 2 orders for user 2, got %d", len(orders))
	}
	if orders[0].ID != "ord_2001" || orders[0].PaymentMethod != domain.PaymentMethodCOD {
		t.Fatalf("unexpected first order: %+v", orders[0])
	}
	if orders[0].ShippingAddress.FirstName != "Jane" {
		t.Fatalf("expected Jane for user 2, got %s", orders[0].ShippingAddress.FirstName)
	}
}

func TestSeedOrdersCommonOrderOnly(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	orders := SeedOrders("9", now)

	if len(orders) != 1 {
		t.Fatalf("expected only the common order, got %d", len(orders))
	}
	if orders[0].ID != "ord_3001" || orders[0].Status != domain.OrderStatusPending {
		t.Fatalf("unexpected order: %+v", orders[0])
	}
	if orders[0].ShippingAddress.FirstName != "Alex" {
		t.Fatalf("expected Alex fallback name, got %s", orders[0].ShippingAddress.FirstName)
	}
	if orders[0].TotalAmountCents != domain.OrderItemsTotal(orders[0].Items) {
		t.Fatalf("total not derived from items")
	}
}
