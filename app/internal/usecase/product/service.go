package product

import (
	"context"
	"fmt"

	dom "example.com/rocketshoes/app/internal/domain/product"
)

type Service struct {
	repo dom.Repository
}

func NewService(repo dom.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id int64) (*dom.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter dom.ListFilter) ([]*dom.Product, error) {
	return s.repo.List(ctx, filter)
}

// GetStock returns the stock entry for id. Stock is only served for products
// that exist in the catalog.
func (s *Service) GetStock(ctx context.Context, id int64) (dom.Stock, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return dom.Stock{}, err
	}
	stock, err := s.repo.GetStock(ctx, id)
	if err != nil {
		return dom.Stock{}, err
	}
	if stock.Amount < 0 {
		return dom.Stock{}, fmt.Errorf("stock %d: %w", id, dom.ErrInvalidStock)
	}
	return *stock, nil
}

// GetProduct is GetByID by value, so the service can back a cart directly
// when no remote catalog is configured.
func (s *Service) GetProduct(ctx context.Context, id int64) (dom.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return dom.Product{}, err
	}
	return *p, nil
}
