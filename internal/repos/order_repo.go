package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"kiraska/internal/domain"
)

var ErrOrderNotFound = errors.New("order not found")

type OrderRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db, now: time.Now} }

// OrderSummary is one row of the admin order list.
type OrderSummary struct {
	ID           string             `db:"id" json:"id"`
	CustomerName string             `db:"customer_name" json:"customer_name"`
	Phone        string             `db:"phone" json:"phone"`
	TotalAmount  domain.Money       `db:"total_amount" json:"total_amount"`
	Status       domain.OrderStatus `db:"status" json:"status"`
	ItemCount    int                `db:"item_count" json:"item_count"`
	CreatedAt    string             `db:"created_at" json:"created_at"`
}

type orderRow struct {
	ID           string             `db:"id"`
	CustomerName string             `db:"customer_name"`
	Phone        string             `db:"phone"`
	Address      string             `db:"address"`
	Notes        string             `db:"notes"`
	TotalAmount  decimal.Decimal    `db:"total_amount"`
	Status       domain.OrderStatus `db:"status"`
	CreatedAt    string             `db:"created_at"`
}

// Create stores the order header and its line snapshot in one transaction.
// It assigns ID, Status and CreatedAt on o. The total is stored as given.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	if len(o.Items) == 0 {
		return errors.New("create order: no line items")
	}
	id := uuid.NewString()
	created := r.now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders(id, customer_name, phone, address, notes, total_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, o.CustomerName, o.Phone, o.Address, o.Notes, o.TotalAmount.String(),
		string(domain.OrderPending), created.Format(tsLayout)); err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for i, it := range o.Items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items(order_id, position, product_id, name, unit_price, quantity, image_url)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, id, i, it.ProductID, it.Name, it.UnitPrice.String(), it.Quantity, it.ImageURL); err != nil {
			return fmt.Errorf("insert order item %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	o.ID = id
	o.Status = domain.OrderPending
	o.CreatedAt = created
	return nil
}

func (r *OrderRepo) Get(ctx context.Context, id string) (domain.Order, error) {
	var row orderRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, customer_name, phone, address, COALESCE(notes,'') AS notes, total_amount, status, created_at
		FROM orders WHERE id = ?
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	items := []domain.OrderLineItem{}
	if err := r.db.SelectContext(ctx, &items, `
		SELECT product_id, name, unit_price, quantity, COALESCE(image_url,'') AS image_url
		FROM order_items
		WHERE order_id = ?
		ORDER BY position
	`, id); err != nil {
		return domain.Order{}, err
	}

	created, _ := time.Parse(tsLayout, row.CreatedAt)
	return domain.Order{
		ID:           row.ID,
		CustomerName: row.CustomerName,
		Phone:        row.Phone,
		Address:      row.Address,
		Notes:        row.Notes,
		Items:        items,
		TotalAmount:  row.TotalAmount,
		Status:       row.Status,
		CreatedAt:    created,
	}, nil
}

// List returns the newest orders first, optionally filtered by status.
func (r *OrderRepo) List(ctx context.Context, status domain.OrderStatus, limit int) ([]OrderSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []OrderSummary{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT o.id, o.customer_name, o.phone, o.total_amount, o.status, o.created_at,
		       (SELECT COUNT(*) FROM order_items oi WHERE oi.order_id = o.id) AS item_count
		FROM orders o
		WHERE (? = '' OR o.status = ?)
		ORDER BY o.created_at DESC, o.rowid DESC
		LIMIT ?
	`, string(status), string(status), limit)
	return out, err
}

// Count reports how many orders exist. Used by checkout tests and the admin overview.
func (r *OrderRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM orders`)
	return n, err
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if _, err := domain.ParseOrderStatus(string(status)); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrOrderNotFound
	}
	return nil
}
