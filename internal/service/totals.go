package service

import (
	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// Total sums price × quantity over the cart.
func Total(cart domain.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range cart {
		line := decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// FormatTotal renders the cart total with two decimal places, e.g. "20.00".
func FormatTotal(cart domain.Cart) string {
	return Total(cart).StringFixed(2)
}
