package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptOrder is the order snapshot a receipt is rendered from. It is read
// from the order store at completion time and never mutated afterwards.
type ReceiptOrder struct {
	OrderKey      string
	OrderDate     time.Time
	CustomerName  string
	Items         []ReceiptItem
	SubTotal      decimal.Decimal
	Tax           decimal.Decimal
	Total         decimal.Decimal
	PaymentMethod string
	AmountPaid    decimal.Decimal
	Change        decimal.Decimal
}

type ReceiptItem struct {
	ProductName string
	Quantity    int
	LineTotal   decimal.Decimal
}

// StockShortage records a line item whose on-hand quantity could not cover
// the ordered quantity; the remainder was clamped at zero.
type StockShortage struct {
	ProductName string
	Requested   int
	OnHand      int
}
