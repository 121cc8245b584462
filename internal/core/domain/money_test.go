package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		quantity int
		want     string
	}{
		{"single", "49.99", 1, "49.99"},
		{"multiple", "49.99", 5, "249.95"},
		{"rounds half up", "0.125", 1, "0.13"},
		{"repeating", "19.99", 3, "59.97"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(d(tt.price), tt.quantity)
			if !got.Equal(d(tt.want)) {
				t.Errorf("LineTotal(%s, %d) = %s, want %s", tt.price, tt.quantity, got, tt.want)
			}
		})
	}
}

func TestCartTotal_OrderIndependent(t *testing.T) {
	a := LineItem{ProductID: "a", UnitPrice: d("12.49"), Quantity: 3, LineTotal: LineTotal(d("12.49"), 3)}
	b := LineItem{ProductID: "b", UnitPrice: d("0.99"), Quantity: 7, LineTotal: LineTotal(d("0.99"), 7)}
	c := LineItem{ProductID: "c", UnitPrice: d("199.95"), Quantity: 1, LineTotal: LineTotal(d("199.95"), 1)}

	forward := CartTotal([]LineItem{a, b, c})
	reverse := CartTotal([]LineItem{c, b, a})
	shuffled := CartTotal([]LineItem{b, c, a})

	if !forward.Equal(reverse) || !forward.Equal(shuffled) {
		t.Errorf("totals differ by order: %s / %s / %s", forward, reverse, shuffled)
	}

	want := d("244.35") // 37.47 + 6.93 + 199.95
	if !forward.Equal(want) {
		t.Errorf("CartTotal = %s, want %s", forward, want)
	}
}

func TestNewQuote(t *testing.T) {
	quote := NewQuote(d("49.99"), DefaultTaxRate)

	if !quote.Subtotal.Equal(d("49.99")) {
		t.Errorf("subtotal = %s, want 49.99", quote.Subtotal)
	}
	if !quote.Tax.Equal(d("4.00")) {
		t.Errorf("tax = %s, want 4.00", quote.Tax)
	}
	if !quote.Total.Equal(d("53.99")) {
		t.Errorf("total = %s, want 53.99", quote.Total)
	}
}

func TestNewQuote_RoundsEachStep(t *testing.T) {
	// 10.06 * 0.08 = 0.8048 -> 0.80, total 10.86 (not 10.8648 -> 10.86).
	quote := NewQuote(d("10.06"), DefaultTaxRate)

	if !quote.Tax.Equal(d("0.80")) {
		t.Errorf("tax = %s, want 0.80", quote.Tax)
	}
	if !quote.Total.Equal(d("10.86")) {
		t.Errorf("total = %s, want 10.86", quote.Total)
	}
}

func TestNewQuote_ZeroRate(t *testing.T) {
	quote := NewQuote(d("100.00"), decimal.Zero)
	if !quote.Tax.IsZero() {
		t.Errorf("tax = %s, want 0", quote.Tax)
	}
	if !quote.Total.Equal(d("100.00")) {
		t.Errorf("total = %s, want 100.00", quote.Total)
	}
}
