package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	domcart "example.com/rocketshoes/app/internal/domain/cart"
	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

type fakeCatalog struct {
	mu         sync.Mutex
	stock      map[int64]int64
	products   map[int64]domproduct.Product
	stockErr   error
	productErr error
	stockCalls int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		stock: map[int64]int64{1: 5, 2: 1, 3: 0},
		products: map[int64]domproduct.Product{
			1: {ID: 1, Name: "Tênis de Caminhada Leve Confortável", Price: decimal.RequireFromString("179.9"), ImageURL: "https://cdn.example.com/1.jpg"},
			2: {ID: 2, Name: "Tênis VR Caminhada Confortável", Price: decimal.RequireFromString("139.9"), ImageURL: "https://cdn.example.com/2.jpg"},
			3: {ID: 3, Name: "Tênis Adidas Duramo Lite", Price: decimal.RequireFromString("219.9"), ImageURL: "https://cdn.example.com/3.jpg"},
		},
	}
}

func (f *fakeCatalog) GetStock(ctx context.Context, productID int64) (domproduct.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stockCalls++
	if f.stockErr != nil {
		return domproduct.Stock{}, f.stockErr
	}
	amount, ok := f.stock[productID]
	if !ok {
		return domproduct.Stock{}, domproduct.ErrStockNotFound
	}
	return domproduct.Stock{ID: productID, Amount: amount}, nil
}

func (f *fakeCatalog) GetProduct(ctx context.Context, productID int64) (domproduct.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.productErr != nil {
		return domproduct.Product{}, f.productErr
	}
	p, ok := f.products[productID]
	if !ok {
		return domproduct.Product{}, domproduct.ErrProductNotFound
	}
	return p, nil
}

type fakeStorage struct {
	mu       sync.Mutex
	data     map[string][]byte
	readErr  error
	writeErr error
	writes   int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: make(map[string][]byte)}
}

func (f *fakeStorage) Read(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}
	data, ok := f.data[key]
	if !ok {
		return nil, domcart.ErrSnapshotNotFound
	}
	return data, nil
}

func (f *fakeStorage) Write(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes++
	f.data[key] = append([]byte(nil), data...)
	return nil
}

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (r *recordingNotifier) Error(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
}

func (r *recordingNotifier) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingMetrics) ObserveOperation(op, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, op+":"+outcome)
}

type storeFixture struct {
	store    *Store
	catalog  *fakeCatalog
	storage  *fakeStorage
	notifier *recordingNotifier
	metrics  *recordingMetrics
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()
	return newStoreFixtureWithStorage(t, newFakeStorage())
}

func newStoreFixtureWithStorage(t *testing.T, storage *fakeStorage) *storeFixture {
	t.Helper()

	logger := log.New()
	logger.SetLevel(log.PanicLevel)

	f := &storeFixture{
		catalog:  newFakeCatalog(),
		storage:  storage,
		notifier: &recordingNotifier{},
		metrics:  &recordingMetrics{},
	}
	store, err := NewStore(context.Background(), Dependencies{
		Catalog:  f.catalog,
		Storage:  f.storage,
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Logger:   log.NewEntry(logger),
	})
	require.NoError(t, err)
	f.store = store
	return f
}

func (f *storeFixture) persisted(t *testing.T) domcart.Cart {
	t.Helper()
	data, err := f.storage.Read(context.Background(), DefaultStorageKey)
	require.NoError(t, err)
	c, err := domcart.Unmarshal(data)
	require.NoError(t, err)
	return c
}

func (f *storeFixture) snapshot(t *testing.T) []byte {
	t.Helper()
	data, err := f.storage.Read(context.Background(), DefaultStorageKey)
	if errors.Is(err, domcart.ErrSnapshotNotFound) {
		return nil
	}
	require.NoError(t, err)
	return data
}

var pt = MessagesFor("pt-BR")

func TestNewStore_EmptyWhenNothingPersisted(t *testing.T) {
	f := newStoreFixture(t)

	require.Empty(t, f.store.Cart())
	require.Zero(t, f.storage.writes)
}

func TestNewStore_RestoresPersistedCart(t *testing.T) {
	storage := newFakeStorage()
	storage.data[DefaultStorageKey] = []byte(`[{"id":2,"name":"Tênis VR","price":139.9,"imageUrl":"x","amount":1},{"id":1,"name":"Tênis","price":"179.9","imageUrl":"y","amount":3}]`)

	f := newStoreFixtureWithStorage(t, storage)

	c := f.store.Cart()
	require.Len(t, c, 2)
	require.Equal(t, int64(2), c[0].ID)
	require.Equal(t, int64(3), c[1].Amount)
}

func TestNewStore_DiscardsMalformedSnapshot(t *testing.T) {
	storage := newFakeStorage()
	storage.data[DefaultStorageKey] = []byte(`not json`)

	f := newStoreFixtureWithStorage(t, storage)

	require.Empty(t, f.store.Cart())
	require.NoError(t, f.store.AddProduct(context.Background(), 1))
	require.Len(t, f.persisted(t), 1)
}

func TestNewStore_FailsOnStorageReadError(t *testing.T) {
	storage := newFakeStorage()
	storage.readErr = errors.New("disk on fire")

	_, err := NewStore(context.Background(), Dependencies{Catalog: newFakeCatalog(), Storage: storage})

	require.Error(t, err)
}

func TestNewStore_RequiresCollaborators(t *testing.T) {
	_, err := NewStore(context.Background(), Dependencies{Storage: newFakeStorage()})
	require.Error(t, err)

	_, err = NewStore(context.Background(), Dependencies{Catalog: newFakeCatalog()})
	require.Error(t, err)
}

func TestNewStore_CustomKey(t *testing.T) {
	storage := newFakeStorage()
	store, err := NewStore(context.Background(), Dependencies{
		Catalog:    newFakeCatalog(),
		Storage:    storage,
		StorageKey: "@RocketShoes:cart:guest-42",
	})
	require.NoError(t, err)

	require.NoError(t, store.AddProduct(context.Background(), 1))

	_, ok := storage.data["@RocketShoes:cart:guest-42"]
	require.True(t, ok)
	_, ok = storage.data[DefaultStorageKey]
	require.False(t, ok)
}

func TestAddProduct_AppendsNewItem(t *testing.T) {
	f := newStoreFixture(t)
	require.NoError(t, f.store.AddProduct(context.Background(), 2))

	err := f.store.AddProduct(context.Background(), 1)

	require.NoError(t, err)
	c := f.store.Cart()
	require.Len(t, c, 2)
	require.Equal(t, int64(1), c[1].ID)
	require.Equal(t, int64(1), c[1].Amount)
	require.Equal(t, "Tênis de Caminhada Leve Confortável", c[1].Name)
	require.Equal(t, c.Amounts(), f.persisted(t).Amounts())
	require.Empty(t, f.notifier.all())
}

func TestAddProduct_IncrementsExistingItemOnly(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.NoError(t, f.store.AddProduct(ctx, 2))
	before := f.store.Cart()

	require.NoError(t, f.store.AddProduct(ctx, 1))

	after := f.store.Cart()
	require.Equal(t, int64(2), after[0].Amount)
	require.Equal(t, before[1], after[1])
	require.Equal(t, map[int64]int64{1: 2, 2: 1}, f.persisted(t).Amounts())
}

func TestAddProduct_AtStockLeavesCartUnchanged(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 2)) // stock 1
	snapshot := f.snapshot(t)
	before := f.store.Cart()

	err := f.store.AddProduct(ctx, 2)

	require.ErrorIs(t, err, domcart.ErrOutOfStock)
	require.Equal(t, before, f.store.Cart())
	require.Equal(t, snapshot, f.snapshot(t))
	require.Equal(t, []string{pt.OutOfStock}, f.notifier.all())
}

func TestAddProduct_StockLookupFailure(t *testing.T) {
	f := newStoreFixture(t)
	f.catalog.stockErr = errors.New("connection refused")

	err := f.store.AddProduct(context.Background(), 1)

	require.ErrorIs(t, err, domcart.ErrServiceFailure)
	require.Empty(t, f.store.Cart())
	require.Nil(t, f.snapshot(t))
	require.Equal(t, []string{pt.AddFailed}, f.notifier.all())
}

func TestAddProduct_ProductLookupFailure(t *testing.T) {
	f := newStoreFixture(t)

	err := f.store.AddProduct(context.Background(), 99)

	require.ErrorIs(t, err, domcart.ErrServiceFailure)
	require.Empty(t, f.store.Cart())
	require.Equal(t, []string{pt.AddFailed}, f.notifier.all())
}

func TestAddProduct_UnknownStockIsServiceFailure(t *testing.T) {
	f := newStoreFixture(t)
	delete(f.catalog.stock, 1)

	err := f.store.AddProduct(context.Background(), 1)

	require.ErrorIs(t, err, domcart.ErrServiceFailure)
	require.ErrorIs(t, err, domproduct.ErrStockNotFound)
}

func TestAddProduct_StorageFailureIsAtomic(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	f.storage.writeErr = errors.New("quota exceeded")

	err := f.store.AddProduct(ctx, 2)
	require.ErrorIs(t, err, domcart.ErrStorageFailure)

	err = f.store.AddProduct(ctx, 1)
	require.ErrorIs(t, err, domcart.ErrStorageFailure)

	c := f.store.Cart()
	require.Len(t, c, 1)
	require.Equal(t, int64(1), c[0].Amount)
	require.Equal(t, []string{pt.AddFailed, pt.AddFailed}, f.notifier.all())
}

func TestRemoveProduct_RemovesOnlyThatItem(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.NoError(t, f.store.AddProduct(ctx, 2))
	require.NoError(t, f.store.AddProduct(ctx, 3))
	before := f.store.Cart()

	require.NoError(t, f.store.RemoveProduct(ctx, 2))

	want := domcart.Cart{before[0], before[2]}
	if diff := cmp.Diff(want.Amounts(), f.store.Cart().Amounts()); diff != "" {
		t.Fatalf("cart mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, int64(3), f.store.Cart()[1].ID)
	require.Equal(t, want.Amounts(), f.persisted(t).Amounts())
}

func TestRemoveProduct_AbsentProduct(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	snapshot := f.snapshot(t)
	catalogCalls := f.catalog.stockCalls

	err := f.store.RemoveProduct(ctx, 7)

	require.ErrorIs(t, err, domcart.ErrProductNotFound)
	require.Len(t, f.store.Cart(), 1)
	require.Equal(t, snapshot, f.snapshot(t))
	require.Equal(t, catalogCalls, f.catalog.stockCalls)
	require.Equal(t, []string{pt.RemoveFailed}, f.notifier.all())
}

func TestRemoveProduct_StorageFailure(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	f.storage.writeErr = errors.New("read-only")

	err := f.store.RemoveProduct(ctx, 1)

	require.ErrorIs(t, err, domcart.ErrStorageFailure)
	require.Len(t, f.store.Cart(), 1)
	require.Equal(t, []string{pt.RemoveFailed}, f.notifier.all())
}

func TestUpdateProductAmount_NonPositiveIsNoop(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	writes := f.storage.writes
	calls := f.catalog.stockCalls

	for _, amount := range []int64{0, -1, -20} {
		require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: amount}))
	}
	require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 42, Amount: 0}))

	require.Equal(t, int64(1), f.store.Cart()[0].Amount)
	require.Equal(t, writes, f.storage.writes)
	require.Equal(t, calls, f.catalog.stockCalls)
	require.Empty(t, f.notifier.all())
}

func TestUpdateProductAmount_SetsAbsoluteAmount(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.NoError(t, f.store.AddProduct(ctx, 1))

	require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 4}))
	require.Equal(t, int64(4), f.store.Cart()[0].Amount)

	require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 1}))
	require.Equal(t, int64(1), f.store.Cart()[0].Amount)

	require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 5}))
	require.Equal(t, int64(5), f.persisted(t)[0].Amount)
}

func TestUpdateProductAmount_OverStock(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))

	err := f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 6})

	require.ErrorIs(t, err, domcart.ErrOutOfStock)
	require.Equal(t, int64(1), f.store.Cart()[0].Amount)
	require.Equal(t, []string{pt.OutOfStock}, f.notifier.all())
}

func TestUpdateProductAmount_AbsentProduct(t *testing.T) {
	f := newStoreFixture(t)

	err := f.store.UpdateProductAmount(context.Background(), UpdateProductAmount{ProductID: 1, Amount: 2})

	require.ErrorIs(t, err, domcart.ErrProductNotFound)
	require.Empty(t, f.store.Cart())
	require.Equal(t, []string{pt.UpdateFailed}, f.notifier.all())
}

func TestUpdateProductAmount_StockLookupFailure(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	f.catalog.stockErr = errors.New("503")

	err := f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 2})

	require.ErrorIs(t, err, domcart.ErrServiceFailure)
	require.Equal(t, int64(1), f.store.Cart()[0].Amount)
	require.Equal(t, []string{pt.UpdateFailed}, f.notifier.all())
}

func TestStore_Scenario(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.Equal(t, map[int64]int64{1: 1}, f.store.Cart().Amounts())

	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.Equal(t, map[int64]int64{1: 2}, f.store.Cart().Amounts())

	err := f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 10})
	require.ErrorIs(t, err, domcart.ErrOutOfStock)
	require.Equal(t, map[int64]int64{1: 2}, f.store.Cart().Amounts())
	require.Equal(t, []string{pt.OutOfStock}, f.notifier.all())

	require.NoError(t, f.store.RemoveProduct(ctx, 1))
	require.Empty(t, f.store.Cart())
	require.Empty(t, f.persisted(t))
}

func TestStore_PersistedSnapshotReloads(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.AddProduct(ctx, 1))
	require.NoError(t, f.store.AddProduct(ctx, 3))
	require.NoError(t, f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 1, Amount: 3}))

	reloaded, err := NewStore(ctx, Dependencies{Catalog: f.catalog, Storage: f.storage})
	require.NoError(t, err)

	require.Equal(t, f.store.Cart().Amounts(), reloaded.Cart().Amounts())
	require.True(t, f.store.Cart().Total().Equal(reloaded.Cart().Total()))
}

func TestStore_CartReturnsCopy(t *testing.T) {
	f := newStoreFixture(t)
	require.NoError(t, f.store.AddProduct(context.Background(), 1))

	c := f.store.Cart()
	c[0].Amount = 99

	require.Equal(t, int64(1), f.store.Cart()[0].Amount)
}

func TestStore_ConcurrentAddsAreSerialized(t *testing.T) {
	f := newStoreFixture(t)
	f.catalog.stock[1] = 50
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.store.AddProduct(ctx, 1)
		}()
	}
	wg.Wait()

	require.Equal(t, int64(50), f.store.Cart()[0].Amount)
	require.Equal(t, int64(50), f.persisted(t)[0].Amount)
	require.Empty(t, f.notifier.all())
}

func TestStore_RecordsOutcomes(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	_ = f.store.AddProduct(ctx, 2)
	_ = f.store.AddProduct(ctx, 2)
	_ = f.store.RemoveProduct(ctx, 9)
	_ = f.store.UpdateProductAmount(ctx, UpdateProductAmount{ProductID: 2, Amount: 0})

	require.Equal(t, []string{
		"add:success",
		"add:out_of_stock",
		"remove:product_not_found",
		"update:noop",
	}, f.metrics.outcomes)
}

func TestStore_LocalizedMessages(t *testing.T) {
	en := MessagesFor("en")
	notifier := &recordingNotifier{}
	store, err := NewStore(context.Background(), Dependencies{
		Catalog:  newFakeCatalog(),
		Storage:  newFakeStorage(),
		Notifier: notifier,
		Messages: en,
	})
	require.NoError(t, err)

	_ = store.RemoveProduct(context.Background(), 1)

	require.Equal(t, []string{en.RemoveFailed}, notifier.all())
}

func TestMessagesFor_FallsBackToDefault(t *testing.T) {
	require.Equal(t, pt, MessagesFor("fr"))
	require.Equal(t, pt, MessagesFor("PT-BR"))
	require.Equal(t, "Quantidade solicitada fora de estoque", pt.OutOfStock)
}

func TestOutcome(t *testing.T) {
	require.Equal(t, OutcomeSuccess, Outcome(nil))
	require.Equal(t, OutcomeOutOfStock, Outcome(domcart.ErrOutOfStock))
	require.Equal(t, OutcomeProductNotFound, Outcome(domcart.ErrProductNotFound))
	require.Equal(t, OutcomeStorageFailure, Outcome(domcart.ErrStorageFailure))
	require.Equal(t, OutcomeServiceFailure, Outcome(errors.New("boom")))
}
