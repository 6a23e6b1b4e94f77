// internal/storage/scrapes.go
package storage

import (
	"context"
	"fmt"

	"github.com/pricewatch/pricewatch/pkg/models"
)

// CreateScrapeRequest records a new batch request and returns its id.
func (s *Store) CreateScrapeRequest(ctx context.Context, query string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO scrape_requests (product_name_searched) VALUES ($1) RETURNING id`, query)
	if err != nil {
		return 0, fmt.Errorf("insert scrape request: %w", err)
	}
	return id, nil
}

// SaveOutcome inserts one scrape outcome. Each insert is independent; no
// transaction spans a batch, so partial batches survive a crash.
func (s *Store) SaveOutcome(ctx context.Context, o *models.Outcome) (int64, error) {
	const q = `
		INSERT INTO scraped_products
			(request_id, marketplace_id, marketplace_name, scraped_product_title,
			 scraped_price, scraped_currency, product_url, scraped_description,
			 status, error_message, scraped_at)
		VALUES
			(:request_id, :marketplace_id, :marketplace_name, :scraped_product_title,
			 :scraped_price, :scraped_currency, :product_url, :scraped_description,
			 :status, :error_message, :scraped_at)
		RETURNING id`

	rows, err := s.db.NamedQueryContext(ctx, q, o)
	if err != nil {
		return 0, fmt.Errorf("insert outcome: %w", err)
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan outcome id: %w", err)
		}
	}
	o.ID = id
	return id, nil
}

// ListOutcomes returns every stored outcome ordered by insertion.
func (s *Store) ListOutcomes(ctx context.Context) ([]models.Outcome, error) {
	var outcomes []models.Outcome
	err := s.db.SelectContext(ctx, &outcomes, `SELECT * FROM scraped_products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return outcomes, nil
}

// OutcomesByRequest returns the outcomes of one batch ordered by insertion.
func (s *Store) OutcomesByRequest(ctx context.Context, requestID int64) ([]models.Outcome, error) {
	var outcomes []models.Outcome
	err := s.db.SelectContext(ctx, &outcomes,
		`SELECT * FROM scraped_products WHERE request_id = $1 ORDER BY id`, requestID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes for request %d: %w", requestID, err)
	}
	return outcomes, nil
}
