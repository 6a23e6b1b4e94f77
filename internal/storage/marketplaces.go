// internal/storage/marketplaces.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pricewatch/pricewatch/pkg/models"
)

// CreateMarketplace inserts a marketplace config and returns it with its id
// and timestamps populated.
func (s *Store) CreateMarketplace(ctx context.Context, mp *models.Marketplace) (*models.Marketplace, error) {
	const q = `
		INSERT INTO marketplaces
			(name, base_search_url, product_selector, title_selector,
			 price_selector, link_selector, description_selector, is_active)
		VALUES
			(:name, :base_search_url, :product_selector, :title_selector,
			 :price_selector, :link_selector, :description_selector, :is_active)
		RETURNING id, created_at, updated_at`

	rows, err := s.db.NamedQueryContext(ctx, q, mp)
	if err != nil {
		return nil, fmt.Errorf("insert marketplace: %w", err)
	}
	defer rows.Close()

	out := *mp
	if rows.Next() {
		if err := rows.Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan marketplace id: %w", err)
		}
	}
	return &out, nil
}

// MarketplaceByID returns the marketplace with the given id, or nil when
// it does not exist.
func (s *Store) MarketplaceByID(ctx context.Context, id int64) (*models.Marketplace, error) {
	var mp models.Marketplace
	err := s.db.GetContext(ctx, &mp, `SELECT * FROM marketplaces WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get marketplace %d: %w", id, err)
	}
	return &mp, nil
}

// ActiveMarketplaces returns all marketplaces with is_active set, ordered
// by id so batch iteration order is stable.
func (s *Store) ActiveMarketplaces(ctx context.Context) ([]models.Marketplace, error) {
	var mps []models.Marketplace
	err := s.db.SelectContext(ctx, &mps, `SELECT * FROM marketplaces WHERE is_active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list active marketplaces: %w", err)
	}
	return mps, nil
}

// ListMarketplaces returns all marketplaces ordered by id.
func (s *Store) ListMarketplaces(ctx context.Context) ([]models.Marketplace, error) {
	var mps []models.Marketplace
	err := s.db.SelectContext(ctx, &mps, `SELECT * FROM marketplaces ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list marketplaces: %w", err)
	}
	return mps, nil
}

// UpdateMarketplace updates a marketplace config in place. Returns the
// updated record, or nil when the id does not exist.
func (s *Store) UpdateMarketplace(ctx context.Context, mp *models.Marketplace) (*models.Marketplace, error) {
	const q = `
		UPDATE marketplaces SET
			name = :name,
			base_search_url = :base_search_url,
			product_selector = :product_selector,
			title_selector = :title_selector,
			price_selector = :price_selector,
			link_selector = :link_selector,
			description_selector = :description_selector,
			is_active = :is_active,
			updated_at = now()
		WHERE id = :id`

	res, err := s.db.NamedExecContext(ctx, q, mp)
	if err != nil {
		return nil, fmt.Errorf("update marketplace %d: %w", mp.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, nil
	}
	return s.MarketplaceByID(ctx, mp.ID)
}

// DeleteMarketplace removes a marketplace. Reports whether a row existed.
func (s *Store) DeleteMarketplace(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM marketplaces WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete marketplace %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
