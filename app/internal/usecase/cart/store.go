package cart

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
)

// DefaultStorageKey is the namespaced key the cart snapshot lives under.
const DefaultStorageKey = "@RocketShoes:cart"

const (
	OpAdd    = "add"
	OpRemove = "remove"
	OpUpdate = "update"

	OutcomeSuccess         = "success"
	OutcomeNoop            = "noop"
	OutcomeOutOfStock      = "out_of_stock"
	OutcomeProductNotFound = "product_not_found"
	OutcomeServiceFailure  = "service_failure"
	OutcomeStorageFailure  = "storage_failure"
)

type Dependencies struct {
	Catalog  Catalog
	Storage  domcart.Storage
	Notifier Notifier
	Metrics  Metrics
	Logger   *log.Entry

	StorageKey string
	Messages   Messages
}

type UpdateProductAmount struct {
	ProductID int64
	Amount    int64
}

// Store owns the shopper's cart. Operations are serialized: each one runs to
// completion before the next starts, and a failed operation leaves both the
// in-memory cart and the persisted snapshot untouched.
type Store struct {
	catalog  Catalog
	storage  domcart.Storage
	notifier Notifier
	metrics  Metrics
	logger   *log.Entry
	key      string
	messages Messages

	mu   sync.Mutex
	cart domcart.Cart
}

// NewStore builds the store and loads the persisted cart. A missing or
// malformed snapshot starts an empty cart; a failing storage read is returned.
func NewStore(ctx context.Context, deps Dependencies) (*Store, error) {
	if deps.Catalog == nil {
		return nil, errors.New("cart store: catalog is required")
	}
	if deps.Storage == nil {
		return nil, errors.New("cart store: storage is required")
	}

	s := &Store{
		catalog:  deps.Catalog,
		storage:  deps.Storage,
		notifier: deps.Notifier,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
		key:      deps.StorageKey,
		messages: deps.Messages,
	}
	if s.notifier == nil {
		s.notifier = noopNotifier{}
	}
	if s.metrics == nil {
		s.metrics = noopMetrics{}
	}
	if s.logger == nil {
		s.logger = log.WithField("component", "cart_store")
	}
	if s.key == "" {
		s.key = DefaultStorageKey
	}
	if s.messages.isZero() {
		s.messages = MessagesFor(DefaultLocale)
	}

	cart, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	s.cart = cart
	return s, nil
}

func (s *Store) load(ctx context.Context) (domcart.Cart, error) {
	data, err := s.storage.Read(ctx, s.key)
	if errors.Is(err, domcart.ErrSnapshotNotFound) {
		return domcart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load cart %q: %w", s.key, err)
	}

	cart, err := domcart.Unmarshal(data)
	if err != nil {
		s.logger.WithError(err).WithField("key", s.key).Warn("discarding malformed cart snapshot")
		return domcart.Cart{}, nil
	}
	s.logger.WithFields(log.Fields{"key": s.key, "items": len(cart)}).Info("cart restored")
	return cart, nil
}

// Cart returns a copy of the current cart.
func (s *Store) Cart() domcart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *Store) AddProduct(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.addProduct(ctx, productID)
	s.finish(OpAdd, productID, start, err)
	return err
}

func (s *Store) addProduct(ctx context.Context, productID int64) error {
	stock, err := s.catalog.GetStock(ctx, productID)
	if err != nil {
		return fmt.Errorf("%w: stock %d: %w", domcart.ErrServiceFailure, productID, err)
	}

	var next domcart.Cart
	if existing, ok := s.cart.Find(productID); ok {
		amount := existing.Amount + 1
		if amount > stock.Amount {
			return fmt.Errorf("%w: product %d wants %d, stock %d", domcart.ErrOutOfStock, productID, amount, stock.Amount)
		}
		next = s.cart.WithAmount(productID, amount)
	} else {
		product, err := s.catalog.GetProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("%w: product %d: %w", domcart.ErrServiceFailure, productID, err)
		}
		next = s.cart.Append(domcart.Item{Product: product, Amount: 1})
	}

	return s.commit(ctx, next)
}

func (s *Store) RemoveProduct(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.removeProduct(ctx, productID)
	s.finish(OpRemove, productID, start, err)
	return err
}

func (s *Store) removeProduct(ctx context.Context, productID int64) error {
	if s.cart.Index(productID) < 0 {
		return fmt.Errorf("%w: product %d", domcart.ErrProductNotFound, productID)
	}
	return s.commit(ctx, s.cart.Without(productID))
}

// UpdateProductAmount sets the absolute amount of a product already in the
// cart. Amounts below 1 are ignored.
func (s *Store) UpdateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	if req.Amount <= 0 {
		s.metrics.ObserveOperation(OpUpdate, OutcomeNoop, 0)
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	err := s.updateProductAmount(ctx, req)
	s.finish(OpUpdate, req.ProductID, start, err)
	return err
}

func (s *Store) updateProductAmount(ctx context.Context, req UpdateProductAmount) error {
	stock, err := s.catalog.GetStock(ctx, req.ProductID)
	if err != nil {
		return fmt.Errorf("%w: stock %d: %w", domcart.ErrServiceFailure, req.ProductID, err)
	}

	if s.cart.Index(req.ProductID) < 0 {
		return fmt.Errorf("%w: product %d", domcart.ErrProductNotFound, req.ProductID)
	}
	if req.Amount > stock.Amount {
		return fmt.Errorf("%w: product %d wants %d, stock %d", domcart.ErrOutOfStock, req.ProductID, req.Amount, stock.Amount)
	}

	return s.commit(ctx, s.cart.WithAmount(req.ProductID, req.Amount))
}

// commit persists next and only then makes it the current cart.
func (s *Store) commit(ctx context.Context, next domcart.Cart) error {
	data, err := domcart.Marshal(next)
	if err != nil {
		return fmt.Errorf("%w: encode: %w", domcart.ErrStorageFailure, err)
	}
	if err := s.storage.Write(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: write %q: %w", domcart.ErrStorageFailure, s.key, err)
	}
	s.cart = next
	return nil
}

func (s *Store) finish(op string, productID int64, start time.Time, err error) {
	outcome := Outcome(err)
	s.metrics.ObserveOperation(op, outcome, time.Since(start))
	if err == nil {
		return
	}

	s.logger.WithError(err).WithFields(log.Fields{
		"op":         op,
		"product_id": productID,
		"outcome":    outcome,
	}).Warn("cart operation failed")
	s.notifier.Error(s.message(op, err))
}

func (s *Store) message(op string, err error) string {
	if errors.Is(err, domcart.ErrOutOfStock) {
		return s.messages.OutOfStock
	}
	switch op {
	case OpAdd:
		return s.messages.AddFailed
	case OpRemove:
		return s.messages.RemoveFailed
	default:
		return s.messages.UpdateFailed
	}
}

// Outcome classifies an operation error into a metrics label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, domcart.ErrOutOfStock):
		return OutcomeOutOfStock
	case errors.Is(err, domcart.ErrProductNotFound):
		return OutcomeProductNotFound
	case errors.Is(err, domcart.ErrStorageFailure):
		return OutcomeStorageFailure
	default:
		return OutcomeServiceFailure
	}
}
