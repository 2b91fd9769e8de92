package cart

import (
	"context"
	"time"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

// Catalog looks up product metadata and live stock levels.
type Catalog interface {
	GetStock(ctx context.Context, productID int64) (domproduct.Stock, error)
	GetProduct(ctx context.Context, productID int64) (domproduct.Product, error)
}

// Notifier shows a message to the shopper. Delivery is fire-and-forget.
type Notifier interface {
	Error(message string)
}

// Metrics records the outcome of each store operation.
type Metrics interface {
	ObserveOperation(op, outcome string, elapsed time.Duration)
}

type noopNotifier struct{}

func (noopNotifier) Error(string) {}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}
