package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kiraska/internal/domain"
	applog "kiraska/internal/log"
	"kiraska/internal/repos"
)

var ErrOrderPersist = errors.New("could not save order")

// ValidationError rejects a whole cart; Details has one reason per bad line.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	return "order validation failed: " + strings.Join(e.Details, "; ")
}

// Notifier is told about every order after it has been stored.
type Notifier interface {
	Notify(ctx context.Context, o domain.Order) error
}

type PlaceRequest struct {
	CustomerName string
	Phone        string
	Address      string
	Notes        string
	Lines        []CartLine
	ClientTotal  json.Number
}

type Receipt struct {
	OrderID     string
	Total       domain.Money
	ClientTotal string
	Order       domain.Order
	Stock       []LineResult
}

type CheckoutService struct {
	Validator     *Validator
	Orders        *repos.OrderRepo
	Stock         *StockService
	Notifier      Notifier
	NotifyTimeout time.Duration
}

func NewCheckoutService(v *Validator, orders *repos.OrderRepo, stock *StockService, n Notifier, notifyTimeout time.Duration) *CheckoutService {
	if notifyTimeout <= 0 {
		notifyTimeout = 5 * time.Second
	}
	return &CheckoutService{Validator: v, Orders: orders, Stock: stock, Notifier: n, NotifyTimeout: notifyTimeout}
}

// Place runs validate, store, decrement, notify in that order. Anything that
// fails before the order row commits aborts the checkout; anything after it
// is logged and the order stands.
func (s *CheckoutService) Place(ctx context.Context, req PlaceRequest) (Receipt, error) {
	val, err := s.Validator.Validate(ctx, req.Lines)
	if err != nil {
		return Receipt{}, err
	}
	if len(val.Errors) > 0 {
		return Receipt{}, &ValidationError{Details: val.Errors}
	}
	if len(val.Lines) == 0 {
		return Receipt{}, ErrEmptyCart
	}

	order := domain.Order{
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		Address:      req.Address,
		Notes:        req.Notes,
		Items:        val.Lines,
		TotalAmount:  val.Total,
	}
	if err := s.Orders.Create(ctx, &order); err != nil {
		return Receipt{}, fmt.Errorf("%w: %w", ErrOrderPersist, err)
	}
	applog.AuditCtx(ctx, "order.created", map[string]any{
		"order_id":     order.ID,
		"lines":        len(order.Items),
		"server_total": order.TotalAmount.String(),
		"client_total": req.ClientTotal.String(),
		"mismatch":     totalMismatch(req.ClientTotal, order.TotalAmount),
	})

	// The order is durable from here on; a client disconnect must not skip the rest.
	after := context.WithoutCancel(ctx)
	stock := s.Stock.ApplySale(after, order.ID, order.Items)
	s.notify(after, order)

	return Receipt{
		OrderID:     order.ID,
		Total:       order.TotalAmount,
		ClientTotal: req.ClientTotal.String(),
		Order:       order,
		Stock:       stock,
	}, nil
}

// totalMismatch reports a client-quoted total that differs from ours.
// An absent quote is not a mismatch.
func totalMismatch(client json.Number, server domain.Money) bool {
	if client == "" {
		return false
	}
	quoted, err := decimal.NewFromString(client.String())
	return err != nil || !quoted.Equal(server)
}

func (s *CheckoutService) notify(ctx context.Context, o domain.Order) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.NotifyTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			applog.ErrorCtx(ctx, "order.notify.panic", fmt.Errorf("%v", r), map[string]any{"order_id": o.ID})
		}
	}()
	if err := s.Notifier.Notify(ctx, o); err != nil {
		applog.ErrorCtx(ctx, "order.notify.fail", err, map[string]any{"order_id": o.ID})
	}
}
