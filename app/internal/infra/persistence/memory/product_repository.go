package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

// Seed is the on-disk catalog layout: products and their stock side by side.
type Seed struct {
	Products []domproduct.Product `json:"products"`
	Stock    []domproduct.Stock   `json:"stock"`
}

type ProductRepository struct {
	mu       sync.RWMutex
	products map[int64]domproduct.Product
	stock    map[int64]int64
}

func NewProductRepository(seed Seed) (*ProductRepository, error) {
	r := &ProductRepository{
		products: make(map[int64]domproduct.Product, len(seed.Products)),
		stock:    make(map[int64]int64, len(seed.Stock)),
	}
	for _, p := range seed.Products {
		r.products[p.ID] = p
	}
	for _, s := range seed.Stock {
		if s.Amount < 0 {
			return nil, fmt.Errorf("seed stock %d: %w", s.ID, domproduct.ErrInvalidStock)
		}
		r.stock[s.ID] = s.Amount
	}
	return r, nil
}

func LoadSeed(r io.Reader) (Seed, error) {
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return Seed{}, fmt.Errorf("decode catalog seed: %w", err)
	}
	return seed, nil
}

func NewProductRepositoryFromFile(path string) (*ProductRepository, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	seed, err := LoadSeed(f)
	if err != nil {
		return nil, err
	}
	return NewProductRepository(seed)
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, domproduct.ErrProductNotFound
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter domproduct.ListFilter) ([]*domproduct.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	products := make([]*domproduct.Product, 0, len(r.products))
	for _, p := range r.products {
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		p := p
		products = append(products, &p)
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products, nil
}

func (r *ProductRepository) GetStock(ctx context.Context, id int64) (*domproduct.Stock, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	amount, ok := r.stock[id]
	if !ok {
		return nil, domproduct.ErrStockNotFound
	}
	return &domproduct.Stock{ID: id, Amount: amount}, nil
}

// SetStock replaces the available amount for a product.
func (r *ProductRepository) SetStock(id, amount int64) error {
	if amount < 0 {
		return domproduct.ErrInvalidStock
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stock[id] = amount
	return nil
}
