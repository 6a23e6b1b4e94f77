// internal/storage/products.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pricewatch/pricewatch/pkg/models"
)

// CreateProduct stores a product and returns its id.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO products (global_query_name, description) VALUES ($1, $2) RETURNING id`,
		p.GlobalQueryName, p.Description)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	p.ID = id
	return id, nil
}

// ProductByID returns the product with the given id, or nil when absent.
func (s *Store) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := s.db.GetContext(ctx, &p, `SELECT * FROM products WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", id, err)
	}
	return &p, nil
}

// ListProducts returns all stored products ordered by id.
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var ps []models.Product
	err := s.db.SelectContext(ctx, &ps, `SELECT * FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return ps, nil
}
