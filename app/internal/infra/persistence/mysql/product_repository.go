package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*domproduct.Product, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, price, image_url
        FROM products WHERE id = ?
    `, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domproduct.ErrProductNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *ProductRepository) List(ctx context.Context, filter domproduct.ListFilter) ([]*domproduct.Product, error) {
	query := `
        SELECT id, name, price, image_url
        FROM products
    `
	var args []any
	if filter.Search != "" {
		query += " WHERE name LIKE ?"
		args = append(args, fmt.Sprintf("%%%s%%", filter.Search))
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domproduct.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) GetStock(ctx context.Context, id int64) (*domproduct.Stock, error) {
	var s domproduct.Stock
	err := r.db.QueryRowContext(ctx, `
        SELECT product_id, amount FROM stock WHERE product_id = ?
    `, id).Scan(&s.ID, &s.Amount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domproduct.ErrStockNotFound
		}
		return nil, err
	}
	return &s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domproduct.Product, error) {
	var (
		p     domproduct.Product
		price string
	)
	if err := row.Scan(&p.ID, &p.Name, &price, &p.ImageURL); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return &p, nil
}
