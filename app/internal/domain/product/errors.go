package product

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrStockNotFound   = errors.New("stock not found")
	ErrInvalidStock    = errors.New("stock amount must not be negative")
)
