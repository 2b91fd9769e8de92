package product

import "context"

// Repository is the read side of the catalog served to storefronts.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	List(ctx context.Context, filter ListFilter) ([]*Product, error)
	GetStock(ctx context.Context, id int64) (*Stock, error)
}
