// internal/renderer/renderer.go
package renderer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/pricewatch/pricewatch/pkg/models"
)

// QueryPlaceholder must appear in every marketplace search URL template.
const QueryPlaceholder = "{query}"

// Typed render failures. The orchestrator converts these into per-marketplace
// error outcomes; they never abort a batch.
var (
	ErrMissingPlaceholder = errors.New("search url template missing {query} placeholder")
	ErrNavigationTimeout  = errors.New("navigation timeout")
	ErrSelectorTimeout    = errors.New("selector timeout")
	ErrBrowserFault       = errors.New("browser fault")
)

// Page is the rendered result of one search-page load.
type Page struct {
	SearchURL string
	HTML      string
	Duration  time.Duration
}

// Options configures a Chrome renderer.
type Options struct {
	NavigationTimeout time.Duration
	SelectorTimeout   time.Duration
	SettleDelay       time.Duration
	Headless          bool
	UserAgent         string
	Proxy             string
	ChromePath        string
}

// Chrome renders marketplace search pages with an isolated headless browser
// session per call. No cookies, cache, or contexts are shared between calls,
// so one marketplace can never contaminate another.
type Chrome struct {
	opts Options
}

// New creates a Chrome renderer.
func New(opts Options) *Chrome {
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 15 * time.Second
	}
	if opts.SelectorTimeout <= 0 {
		opts.SelectorTimeout = 10 * time.Second
	}
	if opts.SettleDelay < 0 {
		opts.SettleDelay = 0
	}
	return &Chrome{opts: opts}
}

// SearchURL substitutes the URL-escaped query into the marketplace search
// template. Fails deterministically when the template has no placeholder.
func SearchURL(baseSearchURL, query string) (string, error) {
	if !strings.Contains(baseSearchURL, QueryPlaceholder) {
		return "", fmt.Errorf("%w: %q", ErrMissingPlaceholder, baseSearchURL)
	}
	return strings.ReplaceAll(baseSearchURL, QueryPlaceholder, url.QueryEscape(query)), nil
}

// Render loads the search page for the given marketplace and query, waits for
// the product selector to materialize, and returns the fully rendered markup.
// The browser session is torn down on every exit path.
func (c *Chrome) Render(ctx context.Context, mp models.Marketplace, query string) (*Page, error) {
	start := time.Now()

	searchURL, err := SearchURL(mp.BaseSearchURL, query)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("marketplace", mp.Name).
		Str("url", searchURL).
		Msg("Starting render")

	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-client-side-phishing-detection", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("disk-cache-size", "0"),
		chromedp.Flag("media-cache-size", "0"),
	}
	if c.opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if c.opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(c.opts.UserAgent))
	}
	if c.opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(c.opts.Proxy))
	}
	chromePath := c.opts.ChromePath
	if chromePath == "" {
		chromePath = FindChrome()
	}
	if chromePath != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(chromePath)}, allocOpts...)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	// Navigation with its own bounded timeout.
	navCtx, navCancel := context.WithTimeout(browserCtx, c.opts.NavigationTimeout)
	defer navCancel()

	err = chromedp.Run(navCtx,
		network.Enable(),
		// Marketplaces localize listings by Accept-Language; pin it so
		// selectors see the same markup a local visitor gets.
		network.SetExtraHTTPHeaders(network.Headers{
			"Accept-Language": "uk-UA,uk;q=0.9,en;q=0.8",
		}),
		chromedp.Navigate(searchURL),
		chromedp.ActionFunc(func(ctx context.Context) error {
			// Let initial client-side scripts run before waiting on selectors.
			if c.opts.SettleDelay > 0 {
				select {
				case <-time.After(c.opts.SettleDelay):
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		}),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && navCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %s did not settle within %s", ErrNavigationTimeout, searchURL, c.opts.NavigationTimeout)
		}
		return nil, fmt.Errorf("%w: navigate %s: %v", ErrBrowserFault, searchURL, err)
	}

	// Listings render asynchronously; wait for the product selector before
	// capturing markup, under a separate bounded timeout.
	selCtx, selCancel := context.WithTimeout(browserCtx, c.opts.SelectorTimeout)
	defer selCancel()

	err = chromedp.Run(selCtx, chromedp.WaitVisible(mp.ProductSelector, chromedp.ByQuery))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && selCtx.Err() != nil && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %q not present after %s", ErrSelectorTimeout, mp.ProductSelector, c.opts.SelectorTimeout)
		}
		return nil, fmt.Errorf("%w: wait for %q: %v", ErrBrowserFault, mp.ProductSelector, err)
	}

	var html string
	if err := chromedp.Run(browserCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("%w: capture markup: %v", ErrBrowserFault, err)
	}

	elapsed := time.Since(start)
	log.Debug().
		Str("marketplace", mp.Name).
		Dur("elapsed_ms", elapsed).
		Int("html_bytes", len(html)).
		Msg("Render completed")

	return &Page{SearchURL: searchURL, HTML: html, Duration: elapsed}, nil
}
