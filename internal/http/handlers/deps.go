package handlers

import (
	"github.com/jmoiron/sqlx"

	"kiraska/internal/config"
	"kiraska/internal/repos"
	"kiraska/internal/services"
	"kiraska/internal/sitemap"
)

type Deps struct {
	OrderHandler     *OrderHandler
	InventoryHandler *InventoryHandler
	SitemapHandler   *SitemapHandler
	AdminHandler     *AdminHandler
	HealthHandler    *HealthHandler
}

// NewDeps wires repos and services into handlers. notifier and cache may be nil.
func NewDeps(db *sqlx.DB, cfg config.Config, notifier services.Notifier, sitemapCache sitemap.Cache) *Deps {
	catRepo := repos.NewCategoryRepo(db)
	prodRepo := repos.NewProductRepo(db)
	invRepo := repos.NewInventoryRepo(db)
	orderRepo := repos.NewOrderRepo(db)
	settingsRepo := repos.NewSettingsRepo(db)

	catalogSvc := services.NewCatalogService(catRepo, prodRepo)
	stockSvc := services.NewStockService(invRepo, prodRepo)
	checkoutSvc := services.NewCheckoutService(services.NewValidator(prodRepo), orderRepo, stockSvc, notifier, cfg.NotifyTimeout)

	d := &Deps{
		OrderHandler:     &OrderHandler{Checkout: checkoutSvc},
		InventoryHandler: &InventoryHandler{Stock: stockSvc},
		SitemapHandler:   &SitemapHandler{Gen: sitemap.New(cfg.SiteBaseURL, cfg.SiteLanguages, catalogSvc, sitemapCache)},
		AdminHandler:     &AdminHandler{OrderRepo: orderRepo, Stock: stockSvc, Settings: settingsRepo},
	}
	health := &HealthHandler{}
	if s, ok := sitemapCache.(cacheStats); ok {
		health.Cache = s
	}
	d.HealthHandler = health
	return d
}
