package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"kiraska/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) ListActive(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
		SELECT id, name, slug, is_active, COALESCE(updated_at, created_at, '') AS updated_at
		FROM categories
		WHERE is_active = 1
		ORDER BY name
	`)
	return out, err
}

func (r *CategoryRepo) Insert(ctx context.Context, c domain.Category) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories(id, name, slug, is_active, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, c.ID, c.Name, c.Slug, c.IsActive)
	return err
}
