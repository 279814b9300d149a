package display

import (
	"testing"
	"time"

	"github.com/marketbay/api/internal/domain"
)

func TestCurrencyFormatsWithGrouping(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{123456, "$1,234.56"},
		{99, "$0.99"},
		{0, "$0.00"},
		{100000000, "$1,000,000.00"},
	}
	for _, tc := range cases {
		if got := Currency(tc.cents); got != tc.want {
			t.Fatalf("Currency(%d): expected %q, got %q", tc.cents, tc.want, got)
		}
	}
}

func TestDateFormat(t *testing.T) {
	ts := time.Date(2024, time.March, 7, 10, 30, 0, 0, time.UTC)
	if got := Date(ts); got != "March 7, 2024" {
		t.Fatalf("expected \"March 7, 2024\", got %q", got)
	}
}

func TestStatusColors(t *testing.T) {
	badge := StatusColor(domain.OrderStatusDelivered)
	if badge.Text != "text-green-800" || badge.Background != "bg-green-50" || badge.Border != "border-green-200" {
		t.Fatalf("unexpected delivered badge: %+v", badge)
	}

	badge = StatusColor(domain.OrderStatus("unknown"))
	if badge.Text != "text-gray-800" || badge.Background != "bg-gray-50" {
		t.Fatalf("unexpected fallback badge: %+v", badge)
	}
}
