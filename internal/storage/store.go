// internal/storage/store.go

// Package storage persists marketplaces, products, scrape requests, and
// scrape outcomes in Postgres.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const schema = `
CREATE TABLE IF NOT EXISTS marketplaces (
	id                   BIGSERIAL PRIMARY KEY,
	name                 TEXT NOT NULL UNIQUE,
	base_search_url      TEXT NOT NULL DEFAULT '',
	product_selector     TEXT NOT NULL DEFAULT '',
	title_selector       TEXT NOT NULL DEFAULT '',
	price_selector       TEXT NOT NULL DEFAULT '',
	link_selector        TEXT NOT NULL DEFAULT '',
	description_selector TEXT NOT NULL DEFAULT '',
	is_active            BOOLEAN NOT NULL DEFAULT TRUE,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS products (
	id                BIGSERIAL PRIMARY KEY,
	global_query_name TEXT NOT NULL,
	description       TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS scrape_requests (
	id                    BIGSERIAL PRIMARY KEY,
	product_name_searched TEXT NOT NULL,
	requested_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS scraped_products (
	id                    BIGSERIAL PRIMARY KEY,
	request_id            BIGINT REFERENCES scrape_requests(id),
	marketplace_id        BIGINT REFERENCES marketplaces(id),
	marketplace_name      TEXT NOT NULL DEFAULT '',
	scraped_product_title TEXT,
	scraped_price         TEXT,
	scraped_currency      TEXT,
	product_url           TEXT,
	scraped_description   JSONB,
	status                TEXT NOT NULL,
	error_message         TEXT,
	scraped_at            TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_scraped_products_request ON scraped_products(request_id);
CREATE INDEX IF NOT EXISTS idx_scraped_products_status  ON scraped_products(status);
`

// Store wraps the database connection.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres, verifies the connection, and ensures the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	log.Info().Msg("Connected to database")

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
