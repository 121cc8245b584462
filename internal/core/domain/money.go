package domain

import "github.com/shopspring/decimal"

// DefaultTaxRate matches the rate the backend applies when pricing an order.
var DefaultTaxRate = decimal.NewFromFloat(0.08)

// RoundMoney rounds to 2 decimal places, half away from zero.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// LineTotal computes unit price * quantity, rounded to 2 decimal places.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return RoundMoney(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}

// CartTotal sums line totals, rounded to 2 decimal places. The sum is
// order-independent because every line total is already rounded.
func CartTotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return RoundMoney(total)
}

// Quote is the amount breakdown presented at checkout. Tax and Total are
// each rounded at their own aggregation step so the client-displayed
// numbers match what the backend charges.
type Quote struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// NewQuote prices a subtotal at the given tax rate.
func NewQuote(subtotal, taxRate decimal.Decimal) Quote {
	subtotal = RoundMoney(subtotal)
	tax := RoundMoney(subtotal.Mul(taxRate))
	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    RoundMoney(subtotal.Add(tax)),
	}
}
