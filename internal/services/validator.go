package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
)

var ErrEmptyCart = errors.New("cart is empty")

// CartLine is one line as the client submitted it. Only ProductID and
// Quantity are trusted as intent; price and name are advisory.
type CartLine struct {
	ProductID   string
	Quantity    json.Number
	ClientPrice json.Number
	ClientName  string
}

type Validation struct {
	Lines  []domain.OrderLineItem
	Total  domain.Money
	Errors []string
}

// OK reports whether every submitted line was accepted.
func (v Validation) OK() bool { return len(v.Errors) == 0 && len(v.Lines) > 0 }

type productLookup interface {
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// Validator re-prices a client cart against the catalog. It never writes.
type Validator struct {
	Products productLookup
}

func NewValidator(products productLookup) *Validator {
	return &Validator{Products: products}
}

func (v *Validator) Validate(ctx context.Context, lines []CartLine) (Validation, error) {
	if len(lines) == 0 {
		return Validation{}, ErrEmptyCart
	}

	var out Validation
	ids := make([]string, 0, len(lines))
	seen := map[string]bool{}
	for _, l := range lines {
		if id := strings.TrimSpace(l.ProductID); id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	products, err := v.Products.GetMany(ctx, ids)
	if err != nil {
		return Validation{}, fmt.Errorf("load products: %w", err)
	}

	wanted := map[string]int{}
	for i, l := range lines {
		id := strings.TrimSpace(l.ProductID)
		if id == "" {
			out.Errors = append(out.Errors, fmt.Sprintf("line %d: missing product id", i+1))
			continue
		}
		n, err := l.Quantity.Int64()
		if err != nil || n <= 0 || n > maxLineQty {
			out.Errors = append(out.Errors, fmt.Sprintf("%s: invalid quantity %q", id, l.Quantity.String()))
			continue
		}
		qty := int(n)

		p, ok := products[id]
		switch {
		case !ok:
			out.Errors = append(out.Errors, id+": product not found")
			continue
		case !p.IsActive:
			out.Errors = append(out.Errors, id+": product inactive")
			continue
		}

		wanted[id] += qty
		if !p.Available(wanted[id]) {
			avail := 0
			if p.Tracked() && p.InStock {
				avail = *p.StockQuantity
			}
			out.Errors = append(out.Errors, fmt.Sprintf("%s: insufficient stock (requested %d, available %d)", id, wanted[id], avail))
			continue
		}

		v.flagTamper(ctx, l, p)
		out.Lines = append(out.Lines, domain.OrderLineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.Price,
			Quantity:  qty,
			ImageURL:  p.ImageURL,
		})
	}
	out.Total = domain.SumLines(out.Lines)
	return out, nil
}

// flagTamper logs client-quoted values that differ from the catalog.
func (v *Validator) flagTamper(ctx context.Context, l CartLine, p domain.Product) {
	if l.ClientPrice != "" {
		quoted, err := decimal.NewFromString(l.ClientPrice.String())
		if err != nil || !quoted.Equal(p.Price) {
			applog.WarnCtx(ctx, "checkout.price.mismatch", map[string]any{
				"product_id":   p.ID,
				"client_price": l.ClientPrice.String(),
				"server_price": p.Price.String(),
			})
		}
	}
	if l.ClientName != "" && l.ClientName != p.Name {
		applog.WarnCtx(ctx, "checkout.name.mismatch", map[string]any{
			"product_id":  p.ID,
			"client_name": l.ClientName,
			"server_name": p.Name,
		})
	}
}

// upper bound for one cart line and for one operator stock movement
const maxLineQty = 100000
