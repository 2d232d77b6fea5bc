package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"kiraska/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    id, COALESCE(category_id,'') AS category_id, name, slug, price,
    COALESCE(image_url,'') AS image_url, is_active, in_stock, stock_quantity,
    low_stock_threshold, COALESCE(updated_at, created_at, '') AS updated_at`

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, ErrProductNotFound
	}
	return p, err
}

// GetMany loads every listed product in one query, keyed by id.
// Unknown ids are simply absent from the result.
func (r *ProductRepo) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	out := make(map[string]domain.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT `+productCols+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []domain.Product
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

func (r *ProductRepo) ListActive(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products WHERE is_active = 1 ORDER BY name`)
	return out, err
}

// ListAll returns active and inactive products for the admin inventory page.
func (r *ProductRepo) ListAll(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `SELECT `+productCols+` FROM products ORDER BY name`)
	return out, err
}

func (r *ProductRepo) Insert(ctx context.Context, p domain.Product) error {
	var cat any
	if p.CategoryID != "" {
		cat = p.CategoryID
	}
	inStock := p.InStock
	if p.Tracked() {
		inStock = *p.StockQuantity > 0
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products(id, category_id, name, slug, price, image_url, is_active, in_stock,
		                     stock_quantity, low_stock_threshold, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, p.ID, cat, p.Name, p.Slug, p.Price.String(), p.ImageURL, p.IsActive, inStock,
		p.StockQuantity, p.LowStockThreshold)
	return err
}

// SetActive toggles whether a product can be ordered.
func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE products SET is_active = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, active, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}
