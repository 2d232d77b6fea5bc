package services

import (
	"context"
	"errors"
	"fmt"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
	"kiraska/internal/repos"
)

var ErrInvalidAdjustment = errors.New("invalid stock adjustment")

const (
	StatusInStock    = "IN_STOCK"
	StatusLowStock   = "LOW_STOCK"
	StatusOutOfStock = "OUT_OF_STOCK"
)

// LineResult is the outcome of one stock decrement after checkout.
type LineResult struct {
	ProductID string `json:"product_id"`
	Requested int    `json:"requested"`
	Before    int    `json:"before"`
	After     int    `json:"after"`
	Applied   int    `json:"applied"`
	Tracked   bool   `json:"tracked"`
	Err       error  `json:"-"`
}

type InventorySummary struct {
	Total      int `json:"total"`
	InStock    int `json:"in_stock"`
	LowStock   int `json:"low_stock"`
	OutOfStock int `json:"out_of_stock"`
	Untracked  int `json:"untracked"`
}

type InventoryRow struct {
	Product      domain.Product
	Availability domain.Availability
}

type StockService struct {
	Inv   *repos.InventoryRepo
	Prods *repos.ProductRepo
}

func NewStockService(inv *repos.InventoryRepo, prods *repos.ProductRepo) *StockService {
	return &StockService{Inv: inv, Prods: prods}
}

// ApplySale decrements stock for every line of a committed order. Each line
// is its own unit of work; a failing line is logged and the rest still run.
func (s *StockService) ApplySale(ctx context.Context, orderID string, lines []domain.OrderLineItem) []LineResult {
	results := make([]LineResult, 0, len(lines))
	for _, l := range lines {
		res := LineResult{ProductID: l.ProductID, Requested: l.Quantity}
		change, err := s.Inv.TryDecrement(ctx, l.ProductID, l.Quantity, "order "+shortID(orderID))
		if err != nil {
			res.Err = err
			applog.ErrorCtx(ctx, "stock.sale.fail", err, map[string]any{
				"order_id": orderID, "product_id": l.ProductID, "qty": l.Quantity,
			})
			results = append(results, res)
			continue
		}
		res.Tracked = change.Tracked
		res.Before, res.After, res.Applied = change.Before, change.After, change.Applied()
		if change.Tracked && -res.Applied < l.Quantity {
			applog.WarnCtx(ctx, "stock.sale.clamped", map[string]any{
				"order_id": orderID, "product_id": l.ProductID,
				"requested": l.Quantity, "applied": -res.Applied,
			})
		}
		results = append(results, res)
	}
	return results
}

// Adjust applies an operator stock movement. quantity is a magnitude for
// add, remove and return; for adjustment it is the signed delta.
func (s *StockService) Adjust(ctx context.Context, productID string, typ domain.StockChangeType, quantity int, notes string) (repos.StockChange, error) {
	var delta int
	switch typ {
	case domain.StockAdd, domain.StockReturn:
		delta = quantity
	case domain.StockRemove:
		delta = -quantity
	case domain.StockAdjustment:
		if quantity == 0 {
			return repos.StockChange{}, fmt.Errorf("%w: zero adjustment", ErrInvalidAdjustment)
		}
		delta = quantity
	default:
		return repos.StockChange{}, fmt.Errorf("%w: type %q", ErrInvalidAdjustment, typ)
	}
	if typ != domain.StockAdjustment && quantity <= 0 {
		return repos.StockChange{}, fmt.Errorf("%w: quantity must be positive", ErrInvalidAdjustment)
	}
	if delta > maxLineQty || delta < -maxLineQty {
		return repos.StockChange{}, fmt.Errorf("%w: quantity above %d", ErrInvalidAdjustment, maxLineQty)
	}

	change, err := s.Inv.Adjust(ctx, productID, delta, typ, notes)
	if err != nil {
		return change, err
	}
	applog.AuditCtx(ctx, "stock.adjust", map[string]any{
		"product_id": productID, "type": string(typ), "delta": change.Applied(),
		"before": change.Before, "after": change.After,
	})
	return change, nil
}

func (s *StockService) History(ctx context.Context, productID string, limit int) ([]domain.StockHistoryEntry, error) {
	if _, err := s.Prods.Get(ctx, productID); err != nil {
		return nil, err
	}
	return s.Inv.History(ctx, productID, limit)
}

// Availability reads the product fresh on every call.
func (s *StockService) Availability(ctx context.Context, productID string) (domain.Availability, error) {
	p, err := s.Prods.Get(ctx, productID)
	if err != nil {
		return domain.Availability{}, err
	}
	return availabilityOf(p), nil
}

func availabilityOf(p domain.Product) domain.Availability {
	if !p.IsActive || !p.InStock {
		return domain.Availability{Status: StatusOutOfStock, Qty: p.StockQuantity}
	}
	if !p.Tracked() {
		return domain.Availability{Status: StatusInStock}
	}
	switch qty := *p.StockQuantity; {
	case qty <= 0:
		return domain.Availability{Status: StatusOutOfStock, Qty: p.StockQuantity}
	case qty <= p.LowStockThreshold:
		return domain.Availability{Status: StatusLowStock, Qty: p.StockQuantity}
	}
	return domain.Availability{Status: StatusInStock, Qty: p.StockQuantity}
}

// Overview lists every product with its badge, for the admin inventory page.
func (s *StockService) Overview(ctx context.Context) ([]InventoryRow, InventorySummary, error) {
	prods, err := s.Prods.ListAll(ctx)
	if err != nil {
		return nil, InventorySummary{}, err
	}
	rows := make([]InventoryRow, 0, len(prods))
	var sum InventorySummary
	for _, p := range prods {
		a := availabilityOf(p)
		rows = append(rows, InventoryRow{Product: p, Availability: a})
		sum.Total++
		if !p.Tracked() {
			sum.Untracked++
		}
		switch a.Status {
		case StatusInStock:
			sum.InStock++
		case StatusLowStock:
			sum.LowStock++
		default:
			sum.OutOfStock++
		}
	}
	return rows, sum, nil
}

func (s *StockService) Summary(ctx context.Context) (InventorySummary, error) {
	_, sum, err := s.Overview(ctx)
	return sum, err
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
