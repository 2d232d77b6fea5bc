package repos

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"kiraska/internal/domain"
)

//go:embed migrations/*.sql
var migrations embed.FS

// OpenDB opens the SQLite store and brings the schema up to date.
func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// SQLite has a single writer; one connection also keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrations(db *sqlx.DB) error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("could not open migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}
	// m.Close would close the shared *sql.DB, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", err)
	}
	return nil
}

// SeedDemo inserts a small paint-and-hardware catalog when the store is empty.
func SeedDemo(ctx context.Context, db *sqlx.DB) error {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products")

	cats := NewCategoryRepo(db)
	for _, c := range []domain.Category{
		{ID: "interior-paint", Name: "Interior Paint", Slug: "interior-paint", IsActive: true},
		{ID: "facade-paint", Name: "Facade Paint", Slug: "facade-paint", IsActive: true},
		{ID: "tools", Name: "Tools & Hardware", Slug: "tools", IsActive: true},
	} {
		if err := cats.Insert(ctx, c); err != nil {
			return fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}

	qty := func(n int) *int { return &n }
	prods := NewProductRepo(db)
	for _, p := range []domain.Product{
		{ID: "emulsion-10l", CategoryID: "interior-paint", Name: "Matte Emulsion 10L", Slug: "matte-emulsion-10l",
			Price: decimal.NewFromInt(185000), StockQuantity: qty(40), LowStockThreshold: 5},
		{ID: "primer-5l", CategoryID: "interior-paint", Name: "Deep Primer 5L", Slug: "deep-primer-5l",
			Price: decimal.NewFromInt(96000), StockQuantity: qty(25), LowStockThreshold: 5},
		{ID: "facade-15l", CategoryID: "facade-paint", Name: "Acrylic Facade 15L", Slug: "acrylic-facade-15l",
			Price: decimal.NewFromInt(420000), StockQuantity: qty(8), LowStockThreshold: 3},
		{ID: "roller-250", CategoryID: "tools", Name: "Paint Roller 250mm", Slug: "paint-roller-250",
			Price: decimal.NewFromInt(38000), InStock: true, LowStockThreshold: 5},
		{ID: "tape-50m", CategoryID: "tools", Name: "Masking Tape 50m", Slug: "masking-tape-50m",
			Price: decimal.RequireFromString("12500.50"), StockQuantity: qty(0), LowStockThreshold: 10},
	} {
		p.IsActive = true
		p.ImageURL = "products/" + p.ID + ".jpg"
		if err := prods.Insert(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	return nil
}
