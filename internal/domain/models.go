package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal amount in so'm.
type Money = decimal.Decimal

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	IsActive  bool   `db:"is_active" json:"is_active"`
	UpdatedAt string `db:"updated_at" json:"updated_at,omitempty"`
}

type Product struct {
	ID                string `db:"id" json:"id"`
	CategoryID        string `db:"category_id" json:"category_id"`
	Name              string `db:"name" json:"name"`
	Slug              string `db:"slug" json:"slug"`
	Price             Money  `db:"price" json:"price"`
	ImageURL          string `db:"image_url" json:"image_url,omitempty"`
	IsActive          bool   `db:"is_active" json:"is_active"`
	InStock           bool   `db:"in_stock" json:"in_stock"`
	StockQuantity     *int   `db:"stock_quantity" json:"stock_quantity"` // nil = unlimited
	LowStockThreshold int    `db:"low_stock_threshold" json:"low_stock_threshold"`
	UpdatedAt         string `db:"updated_at" json:"updated_at,omitempty"`
}

// Tracked reports whether stock is counted for the product.
func (p Product) Tracked() bool { return p.StockQuantity != nil }

// Available reports whether qty units can be sold right now.
func (p Product) Available(qty int) bool {
	if !p.InStock {
		return false
	}
	return !p.Tracked() || *p.StockQuantity >= qty
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    *int   `json:"qty,omitempty"`
}

// OrderLineItem is a snapshot of a product at checkout time.
type OrderLineItem struct {
	ProductID string `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	UnitPrice Money  `db:"unit_price" json:"unit_price"`
	Quantity  int    `db:"quantity" json:"quantity"`
	ImageURL  string `db:"image_url" json:"image_url,omitempty"`
}

func (l OrderLineItem) Subtotal() Money {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// SumLines returns the order total for the given line items.
func SumLines(lines []OrderLineItem) Money {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

var ErrUnknownStatus = errors.New("unknown order status")

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case OrderPending, OrderProcessing, OrderDelivered, OrderCancelled:
		return st, nil
	}
	return "", ErrUnknownStatus
}

type Order struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customer_name"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Notes        string          `json:"notes,omitempty"`
	Items        []OrderLineItem `json:"items"`
	TotalAmount  Money           `json:"total_amount"`
	Status       OrderStatus     `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
}

type StockChangeType string

const (
	StockAdd        StockChangeType = "add"
	StockRemove     StockChangeType = "remove"
	StockSale       StockChangeType = "sale"
	StockReturn     StockChangeType = "return"
	StockAdjustment StockChangeType = "adjustment"
)

var ErrUnknownStockChange = errors.New("unknown stock change type")

func ParseStockChangeType(s string) (StockChangeType, error) {
	switch t := StockChangeType(strings.ToLower(strings.TrimSpace(s))); t {
	case StockAdd, StockRemove, StockSale, StockReturn, StockAdjustment:
		return t, nil
	}
	return "", ErrUnknownStockChange
}

// StockHistoryEntry is one append-only ledger row.
type StockHistoryEntry struct {
	ID        string          `db:"id" json:"id"`
	ProductID string          `db:"product_id" json:"product_id"`
	Change    int             `db:"change" json:"change"`
	Type      StockChangeType `db:"type" json:"type"`
	Notes     string          `db:"notes" json:"notes,omitempty"`
	CreatedAt string          `db:"created_at" json:"created_at"`
}
