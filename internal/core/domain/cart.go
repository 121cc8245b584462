package domain

import "github.com/shopspring/decimal"

// Product is the catalog entry a line item is created from.
type Product struct {
	ID        string
	Name      string
	Price     decimal.Decimal
	Taxable   bool
	Inventory int
}

// LineItem is one product entry in the cart. LineTotal is always
// UnitPrice * Quantity rounded to 2 decimal places.
type LineItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Taxable   bool            `json:"taxable"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Cart holds the intended purchase. Items keep insertion order and are
// unique by product id. RemoteID is the lazily created server-side cart
// resource, empty until checkout begins.
type Cart struct {
	Items    []LineItem
	Total    decimal.Decimal
	RemoteID string
}
