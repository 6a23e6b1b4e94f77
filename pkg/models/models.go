// pkg/models/models.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Marketplace describes one scraping target: where to search and which
// CSS selectors locate the listing fields on its result pages.
// All selectors except ProductSelector are resolved relative to the
// matched product container.
type Marketplace struct {
	ID                  int64     `db:"id" json:"id"`
	Name                string    `db:"name" json:"name"`
	BaseSearchURL       string    `db:"base_search_url" json:"base_search_url"`
	ProductSelector     string    `db:"product_selector" json:"product_selector"`
	TitleSelector       string    `db:"title_selector" json:"title_selector"`
	PriceSelector       string    `db:"price_selector" json:"price_selector"`
	LinkSelector        string    `db:"link_selector" json:"link_selector"`
	DescriptionSelector string    `db:"description_selector" json:"description_selector"`
	IsActive            bool      `db:"is_active" json:"is_active"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

// Product is a stored product whose query name drives scraping.
type Product struct {
	ID              int64  `db:"id" json:"id"`
	GlobalQueryName string `db:"global_query_name" json:"global_query_name"`
	Description     string `db:"description" json:"description"`
}

// ScrapeRequest records one orchestrated multi-marketplace request.
type ScrapeRequest struct {
	ID                  int64     `db:"id" json:"id"`
	ProductNameSearched string    `db:"product_name_searched" json:"product_name_searched"`
	RequestedAt         time.Time `db:"requested_at" json:"requested_at"`
}

// Status is the outcome of a single marketplace scrape attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error_scraping"
)

// Description is the raw label/value map extracted from definition lists.
// It marshals to JSON for storage in a jsonb column.
type Description map[string]string

// Value implements driver.Valuer.
func (d Description) Value() (driver.Value, error) {
	if d == nil {
		return nil, nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner.
func (d *Description) Scan(src interface{}) error {
	if src == nil {
		*d = nil
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("description: cannot scan %T", src)
	}
	return json.Unmarshal(b, d)
}

// Derived holds the secondary attributes computed from a scraped title and
// description map. They feed comparison, export, and regression.
type Derived struct {
	Memory        string  `json:"memory,omitempty"`
	ModelNumber   string  `json:"model_number,omitempty"`
	ScreenSize    float64 `json:"screen_size,omitempty"`
	HasScreenSize bool    `json:"-"`
	IsOLED        bool    `json:"is_oled"`
	HasNFC        bool    `json:"has_nfc"`
}

// Outcome is the typed result of one (marketplace, query) scrape attempt.
// Status is success if and only if title, price, and URL were all extracted;
// any other condition carries a non-empty ErrorMessage.
type Outcome struct {
	ID              int64       `db:"id" json:"-"`
	RequestID       int64       `db:"request_id" json:"-"`
	MarketplaceID   int64       `db:"marketplace_id" json:"marketplace_id"`
	MarketplaceName string      `db:"marketplace_name" json:"marketplace_name"`
	Title           string      `db:"scraped_product_title" json:"product_title,omitempty"`
	Price           string      `db:"scraped_price" json:"price,omitempty"`
	Currency        string      `db:"scraped_currency" json:"currency,omitempty"`
	URL             string      `db:"product_url" json:"url,omitempty"`
	Description     Description `db:"scraped_description" json:"description,omitempty"`
	Status          Status      `db:"status" json:"status"`
	ErrorMessage    string      `db:"error_message" json:"error_message,omitempty"`
	ScrapedAt       time.Time   `db:"scraped_at" json:"scraped_at"`
	Derived         Derived     `db:"-" json:"derived"`
}

// Summary tallies the outcomes of one batch.
type Summary struct {
	Total      int `json:"total_marketplaces_processed"`
	Successful int `json:"successful_scrapes"`
	Failed     int `json:"failed_scrapes"`
}

// BatchResult is the immutable result of one orchestrated request.
// Outcomes are ordered by marketplace iteration order.
type BatchResult struct {
	RequestID int64     `json:"scrape_request_id"`
	Query     string    `json:"product_name_searched"`
	Outcomes  []Outcome `json:"results"`
	Summary   Summary   `json:"summary"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Tally recomputes the summary from the outcome statuses.
func (b *BatchResult) Tally() {
	s := Summary{Total: len(b.Outcomes)}
	for _, o := range b.Outcomes {
		if o.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	b.Summary = s
}
