// Package display renders money, dates, and order status metadata the way
// the storefront presents them to customers.
package display

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/marketbay/api/internal/domain"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// Currency formats an amount in cents as a US dollar string, e.g. "$1,234.56".
func Currency(cents int64) string {
	return printer.Sprintf("$%.2f", float64(cents)/100)
}

// Date formats the timestamp as a long-form date, e.g. "January 2, 2006".
func Date(t time.Time) string {
	return t.Format("January 2, 2006")
}

// StatusBadge holds the colour classes used when rendering an order status.
type StatusBadge struct {
	Text       string `json:"text"`
	Background string `json:"bg"`
	Border     string `json:"border"`
}

// StatusColor returns the badge colours for an order status. Unknown statuses
// fall back to a neutral gray badge.
func StatusColor(status domain.OrderStatus) StatusBadge {
	switch status {
	case domain.OrderStatusPending:
		return StatusBadge{Text: "text-yellow-800", Background: "bg-yellow-50", Border: "border-yellow-200"}
	case domain.OrderStatusProcessing:
		return StatusBadge{Text: "text-blue-800", Background: "bg-blue-50", Border: "border-blue-200"}
	case domain.OrderStatusShipped:
		return StatusBadge{Text: "text-purple-800", Background: "bg-purple-50", Border: "border-purple-200"}
	case domain.OrderStatusDelivered:
		return StatusBadge{Text: "text-green-800", Background: "bg-green-50", Border: "border-green-200"}
	default:
		return StatusBadge{Text: "text-gray-800", Background: "bg-gray-50", Border: "border-gray-200"}
	}
}
