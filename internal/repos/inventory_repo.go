package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"kiraska/internal/domain"
)

// ErrStockConflict is returned when the stock row kept changing under us.
var ErrStockConflict = errors.New("stock changed concurrently, retries exhausted")

// ErrStockOverflow is returned when a delta would push stock past the int range.
var ErrStockOverflow = errors.New("stock quantity out of range")

const maxStockAttempts = 5

// fixed-width so that lexical order is chronological order
const tsLayout = "2006-01-02T15:04:05.000000Z07:00"

var errLostRace = errors.New("stock row changed")

type InventoryRepo struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewInventoryRepo(db *sqlx.DB) *InventoryRepo {
	return &InventoryRepo{db: db, now: time.Now}
}

// StockChange describes one committed stock mutation.
type StockChange struct {
	ProductID string
	Tracked   bool
	Before    int
	After     int
}

// Applied is the signed delta that reached the stock row.
func (c StockChange) Applied() int { return c.After - c.Before }

// Qty returns the tracked quantity, or nil for unlimited stock.
func (r *InventoryRepo) Qty(ctx context.Context, productID string) (*int, error) {
	var qty sql.NullInt64
	err := r.db.GetContext(ctx, &qty, `SELECT stock_quantity FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil || !qty.Valid {
		return nil, err
	}
	n := int(qty.Int64)
	return &n, nil
}

// TryDecrement sells amount units: stock moves down, floored at zero, and a
// sale entry is appended for the delta actually applied. Untracked products
// are left untouched.
func (r *InventoryRepo) TryDecrement(ctx context.Context, productID string, amount int, notes string) (StockChange, error) {
	if amount <= 0 {
		return StockChange{}, fmt.Errorf("decrement %s by %d: amount must be positive", productID, amount)
	}
	return r.apply(ctx, productID, -amount, domain.StockSale, notes, false)
}

// Adjust applies a manual delta. Untracked products start being tracked from zero.
func (r *InventoryRepo) Adjust(ctx context.Context, productID string, delta int, typ domain.StockChangeType, notes string) (StockChange, error) {
	return r.apply(ctx, productID, delta, typ, notes, true)
}

func (r *InventoryRepo) apply(ctx context.Context, productID string, delta int, typ domain.StockChangeType, notes string, track bool) (StockChange, error) {
	for attempt := 0; attempt < maxStockAttempts; attempt++ {
		change, err := r.applyOnce(ctx, productID, delta, typ, notes, track)
		if errors.Is(err, errLostRace) {
			continue
		}
		return change, err
	}
	return StockChange{ProductID: productID}, ErrStockConflict
}

// applyOnce is a compare-and-set: the UPDATE only matches while the row still
// holds the quantity that was read, and the ledger row commits with it.
func (r *InventoryRepo) applyOnce(ctx context.Context, productID string, delta int, typ domain.StockChangeType, notes string, track bool) (StockChange, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return StockChange{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var cur sql.NullInt64
	err = tx.GetContext(ctx, &cur, `SELECT stock_quantity FROM products WHERE id = ?`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return StockChange{}, ErrProductNotFound
	}
	if err != nil {
		return StockChange{}, err
	}
	change := StockChange{ProductID: productID, Tracked: cur.Valid || track}
	if !change.Tracked {
		return change, nil
	}

	change.Before = int(cur.Int64)
	if delta > 0 && change.Before > math.MaxInt-delta {
		return StockChange{}, fmt.Errorf("%w: %d%+d", ErrStockOverflow, change.Before, delta)
	}
	change.After = max(0, change.Before+delta)
	now := r.now().UTC().Format(tsLayout)

	var expect any
	if cur.Valid {
		expect = cur.Int64
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE products
		SET stock_quantity = ?, in_stock = ?, updated_at = ?
		WHERE id = ? AND stock_quantity IS ?
	`, change.After, change.After > 0, now, productID, expect)
	if err != nil {
		return StockChange{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return StockChange{}, errLostRace
	}

	if change.Applied() != delta {
		notes = fmt.Sprintf("%s (requested %+d, floored at zero)", notes, delta)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO stock_history(id, product_id, change, type, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), productID, change.Applied(), string(typ), notes, now); err != nil {
		return StockChange{}, fmt.Errorf("append stock history: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return StockChange{}, err
	}
	return change, nil
}

// History returns the newest ledger entries first.
func (r *InventoryRepo) History(ctx context.Context, productID string, limit int) ([]domain.StockHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	out := []domain.StockHistoryEntry{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, product_id, change, type, COALESCE(notes,'') AS notes, created_at
		FROM stock_history
		WHERE product_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, productID, limit)
	return out, err
}

// LedgerSum adds up every recorded change for a product.
func (r *InventoryRepo) LedgerSum(ctx context.Context, productID string) (int, error) {
	var sum int
	err := r.db.GetContext(ctx, &sum, `SELECT COALESCE(SUM(change), 0) FROM stock_history WHERE product_id = ?`, productID)
	return sum, err
}
