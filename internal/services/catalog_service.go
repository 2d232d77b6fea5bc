package services

import (
	"context"

	"kiraska/internal/domain"
	"kiraska/internal/repos"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods}
}

func (s *CatalogService) ActiveCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.ListActive(ctx)
}

func (s *CatalogService) ActiveProducts(ctx context.Context) ([]domain.Product, error) {
	return s.Prods.ListActive(ctx)
}
