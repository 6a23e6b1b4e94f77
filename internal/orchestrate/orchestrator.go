// internal/orchestrate/orchestrator.go
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricewatch/pricewatch/internal/extract"
	"github.com/pricewatch/pricewatch/internal/metrics"
	"github.com/pricewatch/pricewatch/internal/normalize"
	"github.com/pricewatch/pricewatch/internal/ratelimit"
	"github.com/pricewatch/pricewatch/internal/renderer"
	"github.com/pricewatch/pricewatch/internal/retry"
	"github.com/pricewatch/pricewatch/pkg/models"
)

// ErrNoMarketplaces is returned when a batch resolves zero marketplaces.
// It is the only per-batch failure; everything else becomes a per-marketplace
// error outcome.
var ErrNoMarketplaces = errors.New("no marketplaces resolved")

// MarketplaceSource resolves marketplace configs for a batch.
type MarketplaceSource interface {
	ActiveMarketplaces(ctx context.Context) ([]models.Marketplace, error)
	MarketplaceByID(ctx context.Context, id int64) (*models.Marketplace, error)
}

// OutcomeSink persists one outcome at a time, independent of others.
type OutcomeSink interface {
	CreateScrapeRequest(ctx context.Context, query string) (int64, error)
	SaveOutcome(ctx context.Context, outcome *models.Outcome) (int64, error)
}

// PageRenderer loads and renders one marketplace search page.
type PageRenderer interface {
	Render(ctx context.Context, mp models.Marketplace, query string) (*renderer.Page, error)
}

// Orchestrator fans one scrape per marketplace out for a query and collects
// outcomes with per-marketplace failure isolation.
type Orchestrator struct {
	source      MarketplaceSource
	sink        OutcomeSink
	renderer    PageRenderer
	limiter     ratelimit.RateLimiter
	metrics     *metrics.Metrics
	retryCfg    retry.Config
	concurrency int
}

// New creates an Orchestrator. Concurrency below 1 defaults to 3.
func New(source MarketplaceSource, sink OutcomeSink, r PageRenderer, limiter ratelimit.RateLimiter, m *metrics.Metrics, concurrency int) *Orchestrator {
	if concurrency < 1 {
		concurrency = 3
	}
	return &Orchestrator{
		source:      source,
		sink:        sink,
		renderer:    r,
		limiter:     limiter,
		metrics:     m,
		retryCfg:    retry.DefaultConfig(),
		concurrency: concurrency,
	}
}

// Run scrapes the query across the resolved marketplaces and returns a
// BatchResult with one outcome per marketplace, ordered by iteration order.
// Outcomes are persisted as they complete; persistence failures are joined
// into the returned error without invalidating already-saved outcomes.
func (o *Orchestrator) Run(ctx context.Context, query string, marketplaceIDs []int64) (*models.BatchResult, error) {
	marketplaces, err := o.resolve(ctx, marketplaceIDs)
	if err != nil {
		return nil, err
	}
	if len(marketplaces) == 0 {
		return nil, ErrNoMarketplaces
	}

	o.metrics.IncBatch()

	requestID, err := o.sink.CreateScrapeRequest(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("create scrape request: %w", err)
	}

	log.Info().
		Int64("request_id", requestID).
		Str("query", query).
		Int("marketplaces", len(marketplaces)).
		Msg("Starting scrape batch")

	outcomes := make([]models.Outcome, len(marketplaces))
	var (
		wg       sync.WaitGroup
		sem      = make(chan struct{}, o.concurrency)
		saveMu   sync.Mutex
		saveErrs []error
	)

	for i, mp := range marketplaces {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, mp models.Marketplace) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := o.scrapeOne(ctx, mp, query)
			outcome.RequestID = requestID
			outcomes[i] = *outcome

			// Persist immediately so partial batches survive later faults.
			if _, err := o.sink.SaveOutcome(ctx, outcome); err != nil {
				saveMu.Lock()
				saveErrs = append(saveErrs, fmt.Errorf("save outcome for %s: %w", mp.Name, err))
				saveMu.Unlock()
				log.Error().Err(err).Str("marketplace", mp.Name).Msg("Failed to persist outcome")
				return
			}
			o.metrics.IncPersisted()
		}(i, mp)
	}

	wg.Wait()

	batch := &models.BatchResult{
		RequestID: requestID,
		Query:     query,
		Outcomes:  outcomes,
		ScrapedAt: time.Now().UTC(),
	}
	batch.Tally()

	log.Info().
		Int64("request_id", requestID).
		Int("total", batch.Summary.Total).
		Int("successful", batch.Summary.Successful).
		Int("failed", batch.Summary.Failed).
		Msg("Scrape batch completed")

	return batch, errors.Join(saveErrs...)
}

// resolve picks the marketplace set: each explicit id independently, skipping
// ids that resolve to nothing, otherwise all active marketplaces.
func (o *Orchestrator) resolve(ctx context.Context, ids []int64) ([]models.Marketplace, error) {
	if len(ids) == 0 {
		return o.source.ActiveMarketplaces(ctx)
	}
	marketplaces := make([]models.Marketplace, 0, len(ids))
	for _, id := range ids {
		mp, err := o.source.MarketplaceByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("resolve marketplace %d: %w", id, err)
		}
		if mp == nil {
			log.Warn().Int64("marketplace_id", id).Msg("Marketplace not found, skipping")
			continue
		}
		marketplaces = append(marketplaces, *mp)
	}
	return marketplaces, nil
}

// scrapeOne runs renderer → extractor → normalizer for a single marketplace
// and always returns an outcome; errors and panics become error outcomes.
func (o *Orchestrator) scrapeOne(ctx context.Context, mp models.Marketplace, query string) (outcome *models.Outcome) {
	start := time.Now()
	outcome = &models.Outcome{
		MarketplaceID:   mp.ID,
		MarketplaceName: mp.Name,
		Status:          models.StatusError,
		ScrapedAt:       time.Now().UTC(),
	}

	defer func() {
		if r := recover(); r != nil {
			outcome.Status = models.StatusError
			outcome.ErrorMessage = fmt.Sprintf("panic during scrape: %v", r)
			o.metrics.IncError("panic")
			log.Error().Str("marketplace", mp.Name).Interface("panic", r).Msg("Scrape attempt panicked")
		}
		o.metrics.ObserveDuration(time.Since(start))
		o.metrics.IncScrape(string(outcome.Status))
	}()

	if o.limiter != nil {
		if searchURL, err := renderer.SearchURL(mp.BaseSearchURL, query); err == nil {
			if err := o.limiter.Wait(ctx, searchURL); err != nil {
				outcome.ErrorMessage = fmt.Sprintf("rate limit wait: %v", err)
				o.metrics.IncError("rate_limit")
				return outcome
			}
		}
	}

	var page *renderer.Page
	err := retry.WithRetry(ctx, o.retryCfg,
		func(err error) bool { return errors.Is(err, renderer.ErrBrowserFault) },
		func() error {
			var rerr error
			page, rerr = o.renderer.Render(ctx, mp, query)
			return rerr
		},
	)
	if err != nil {
		outcome.ErrorMessage = err.Error()
		o.metrics.IncError(errorLabel(err))
		log.Warn().Err(err).Str("marketplace", mp.Name).Msg("Render failed")
		return outcome
	}

	listing, err := extract.FromHTML(page.HTML, mp, page.SearchURL)
	if err != nil {
		outcome.ErrorMessage = err.Error()
		o.metrics.IncError(errorLabel(err))
		log.Warn().Err(err).Str("marketplace", mp.Name).Msg("Extraction failed")
		return outcome
	}

	outcome.Title = listing.Title
	outcome.Price = listing.Price
	outcome.Currency = listing.Currency
	outcome.URL = listing.URL
	outcome.Description = listing.Description
	outcome.Derived = normalize.Derive(listing.Title, listing.Description)

	if listing.Title == "" || listing.Price == "" || listing.URL == "" {
		outcome.ErrorMessage = missingFieldsMessage(listing)
		o.metrics.IncError("missing_fields")
		return outcome
	}

	outcome.Status = models.StatusSuccess
	outcome.ErrorMessage = ""
	return outcome
}

func missingFieldsMessage(l *extract.Listing) string {
	var missing []string
	if l.Title == "" {
		missing = append(missing, "title")
	}
	if l.Price == "" {
		missing = append(missing, "price")
	}
	if l.URL == "" {
		missing = append(missing, "url")
	}
	msg := "required fields not extracted:"
	for _, f := range missing {
		msg += " " + f
	}
	return msg
}

// errorLabel classifies a scrape error for metrics. Classification is by
// typed errors, never by message text.
func errorLabel(err error) string {
	switch {
	case errors.Is(err, renderer.ErrNavigationTimeout):
		return "navigation_timeout"
	case errors.Is(err, renderer.ErrSelectorTimeout):
		return "selector_timeout"
	case errors.Is(err, extract.ErrProductNotFound):
		return "product_not_found"
	case errors.Is(err, renderer.ErrMissingPlaceholder):
		return "bad_search_url"
	case errors.Is(err, renderer.ErrBrowserFault):
		return "browser_fault"
	default:
		return "other"
	}
}
