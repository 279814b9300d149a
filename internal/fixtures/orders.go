package fixtures

import (
	"fmt"
	"strings"
	"time"

	"github.com/marketbay/api/internal/domain"
)

// addressesFor returns the three fixed shipping addresses used by seeded
// orders, personalised by user ID the same way the demo accounts are.
func addressesFor(userID string) []domain.Address {
	name := "Alex"
	if strings.Contains(userID, "1") {
		name = "John"
	} else if strings.Contains(userID, "2") {
		name = "Jane"
	}

	return []domain.Address{
		{
			FirstName: name,
			LastName:  "Doe",
			Address1:  "123 Main Street",
			City:      "New York",
			State:     "NY",
			ZipCode:   "10001",
			Country:   "USA",
			Phone:     "555-123-4567",
		},
		{
			FirstName: name,
			LastName:  "Doe",
			Address1:  "456 Park Avenue",
			Address2:  "Apt 7B",
			City:      "Boston",
			State:     "MA",
			ZipCode:   "02108",
			Country:   "USA",
			Phone:     "555-987-6543",
		},
		{
			FirstName: name,
			LastName:  "Doe",
			Address1:  "789 Oak Drive",
			City:      "San Francisco",
			State:     "CA",
			ZipCode:   "94107",
			Country:   "USA",
			Phone:     "555-789-0123",
		},
	}
}

func productSets() [][]domain.OrderItem {
	return [][]domain.OrderItem{
		{
			{
				Product: domain.Product{
					ID:          "prod_1",
					Name:        "Wireless Headphones",
					Description: "High-quality wireless headphones with noise cancellation",
					PriceCents:  14999,
					Image:       "https://images.unsplash.com/photo-1505740420928-5e560c06d30e",
					Category:    "electronics",
					InStock:     true,
					Rating:      4.5,
					Reviews:     128,
					DiscountPct: 0,
				},
				Quantity: 1,
			},
			{
				Product: domain.Product{
					ID:          "prod_2",
					Name:        "Smart Watch",
					Description: "Fitness tracking smart watch with heart rate monitor",
					PriceCents:  19999,
					Image:       "https://images.unsplash.com/photo-1523275335684-37898b6baf30",
					Category:    "electronics",
					InStock:     true,
					Rating:      4.2,
					Reviews:     95,
					DiscountPct: 10,
				},
				Quantity: 1,
			},
		},
		{
			{
				Product: domain.Product{
					ID:          "prod_3",
					Name:        "Smartphone",
					Description: "Latest smartphone with advanced camera features",
					PriceCents:  79999,
					Image:       "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9",
					Category:    "electronics",
					InStock:     true,
					Rating:      4.8,
					Reviews:     253,
					DiscountPct: 5,
				},
				Quantity: 1,
			},
		},
		{
			{
				Product: domain.Product{
					ID:          "prod_4",
					Name:        "Laptop Backpack",
					Description: "Durable backpack with laptop compartment and USB charging port",
					PriceCents:  5999,
					Image:       "https://images.unsplash.com/photo-1491637639811-60e2756cc1c7",
					Category:    "accessories",
					InStock:     true,
					Rating:      4.3,
					Reviews:     76,
					DiscountPct: 0,
				},
				Quantity: 1,
			},
			{
				Product: domain.Product{
					ID:          "prod_5",
					Name:        "Wireless Keyboard",
					Description: "Ergonomic wireless keyboard with customizable keys",
					PriceCents:  8999,
					Image:       "https://images.unsplash.com/photo-1587829741301-dc798b83add3",
					Category:    "electronics",
					InStock:     true,
					Rating:      4.1,
					Reviews:     42,
					DiscountPct: 0,
				},
				Quantity: 2,
			},
			{
				Product: domain.Product{
					ID:          "prod_6",
					Name:        "USB-C Hub",
					Description: "Multi-port USB-C hub with HDMI, USB-A and SD card slots",
					PriceCents:  4999,
					Image:       "https://images.unsplash.com/photo-1625727966305-085c2300ba0a",
					Category:    "accessories",
					InStock:     true,
					Rating:      4.4,
					Reviews:     63,
					DiscountPct: 15,
				},
				Quantity: 1,
			},
		},
	}
}

// SeedOrders builds the initial order history for a user. Users whose ID
// starts with "1" get two historical orders, users starting with "2" get a
// processing cash-on-delivery order, and every user gets a pending UPI order.
func SeedOrders(userID string, now time.Time) []domain.Order {
	addrs := addressesFor(userID)
	sets := productSets()
	day := 24 * time.Hour

	var orders []domain.Order

	if strings.HasPrefix(userID, "1") {
		orders = append(orders,
			domain.Order{
				ID:              "ord_1001",
				UserID:          userID,
				Items:           sets[0],
				Status:          domain.OrderStatusDelivered,
				ShippingAddress: addrs[0],
				PaymentMethod:   domain.PaymentMethodCard,
				PaymentID:       fmt.Sprintf("txn_%s_1001", userID),
				CreatedAt:       now.Add(-30 * day),
				UpdatedAt:       now.Add(-25 * day),
			},
			domain.Order{
				ID:              "ord_1002",
				UserID:          userID,
				Items:           sets[1],
				Status:          domain.OrderStatusShipped,
				ShippingAddress: addrs[1],
				PaymentMethod:   domain.PaymentMethodCard,
				PaymentID:       fmt.Sprintf("txn_%s_1002", userID),
				CreatedAt:       now.Add(-15 * day),
				UpdatedAt:       now.Add(-13 * day),
			},
		)
	}

	if strings.HasPrefix(userID, "2") {
		orders = append(orders, domain.Order{
			ID:              "ord_2001",
			UserID:          userID,
			Items:           sets[2],
			Status:          domain.OrderStatusProcessing,
			ShippingAddress: addrs[2],
			PaymentMethod:   domain.PaymentMethodCOD,
			PaymentID:       fmt.Sprintf("cod_%s_2001", userID),
			CreatedAt:       now.Add(-3 * day),
			UpdatedAt:       now.Add(-2 * day),
		})
	}

	combined := append(domain.CloneOrderItems(sets[0]), sets[1]...)
	orders = append(orders, domain.Order{
		ID:              "ord_3001",
		UserID:          userID,
		Items:           combined,
		Status:          domain.OrderStatusPending,
		ShippingAddress: addrs[0],
		PaymentMethod:   domain.PaymentMethodUPI,
		PaymentID:       fmt.Sprintf("upi_%s_3001", userID),
		CreatedAt:       now.Add(-1 * day),
		UpdatedAt:       now.Add(-1 * day),
	})

	for i := range orders {
		orders[i].TotalAmountCents = domain.OrderItemsTotal(orders[i].Items)
	}
	return orders
}
