package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"kiraska/internal/domain"
)

// Events publishes every new order as JSON on a NATS subject.
type Events struct {
	nc      *nats.Conn
	subject string
}

func NewEvents(nc *nats.Conn, subject string) *Events {
	if subject == "" {
		subject = "orders.created"
	}
	return &Events{nc: nc, subject: subject}
}

type orderEvent struct {
	Type      string      `json:"type"`
	OrderID   string      `json:"order_id"`
	Total     string      `json:"total_amount"`
	Items     []eventLine `json:"items"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

type eventLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
}

func (e *Events) Notify(ctx context.Context, o domain.Order) error {
	ev := orderEvent{
		Type:      "order.created",
		OrderID:   o.ID,
		Total:     o.TotalAmount.String(),
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt.UTC(),
	}
	for _, it := range o.Items {
		ev.Items = append(ev.Items, eventLine{ProductID: it.ProductID, Quantity: it.Quantity, UnitPrice: it.UnitPrice.String()})
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal order event: %w", err)
	}
	if err := e.nc.Publish(e.subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", e.subject, err)
	}
	if dl, ok := ctx.Deadline(); ok {
		return e.nc.FlushTimeout(time.Until(dl))
	}
	return nil
}
