package cart

import "errors"

var (
	// ErrOutOfStock is returned when the requested quantity exceeds the stock.
	ErrOutOfStock = errors.New("requested amount is out of stock")
	// ErrProductNotFound is returned when the product is not in the cart.
	ErrProductNotFound = errors.New("product not found in cart")
	// ErrServiceFailure wraps any catalog lookup failure.
	ErrServiceFailure = errors.New("catalog service failure")
	// ErrStorageFailure wraps persistence write failures.
	ErrStorageFailure = errors.New("cart storage failure")

	ErrSnapshotNotFound  = errors.New("cart snapshot not found")
	ErrMalformedSnapshot = errors.New("malformed cart snapshot")
	ErrInvalidAmount     = errors.New("item amount must be at least 1")
	ErrDuplicateItem     = errors.New("duplicate product in cart")
)
