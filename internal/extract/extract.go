// internal/extract/extract.go
package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/pricewatch/pricewatch/pkg/models"
)

// ErrProductNotFound signals that the product container selector matched
// nothing in the rendered document. No field extraction is attempted.
var ErrProductNotFound = errors.New("product element not found")

// Listing holds the field values extracted from one rendered search page.
// Missing optional fields are empty strings, never an error.
type Listing struct {
	Title       string
	Price       string
	Currency    string
	URL         string
	Description models.Description
}

// FromHTML parses rendered markup and extracts the listing fields for the
// given marketplace. Title, price, and link selectors are scoped inside the
// first element matched by the product selector; each resolves independently
// so one missing field never aborts the others. The description map is built
// from definition lists across the whole document because marketplaces often
// render spec panels outside the listing container; a non-empty description
// selector narrows the scan to its matches.
func FromHTML(html string, mp models.Marketplace, searchURL string) (*Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	container := doc.Find(mp.ProductSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: selector %q", ErrProductNotFound, mp.ProductSelector)
	}

	descRoot := doc.Selection
	if mp.DescriptionSelector != "" {
		if scoped := doc.Find(mp.DescriptionSelector); scoped.Length() > 0 {
			descRoot = scoped
		}
	}

	l := &Listing{
		Title:       fieldText(container, mp.TitleSelector),
		Price:       fieldText(container, mp.PriceSelector),
		Description: descriptionPairs(descRoot),
	}
	l.Currency = currencyFromPrice(l.Price)

	if mp.LinkSelector != "" {
		if href, ok := container.Find(mp.LinkSelector).First().Attr("href"); ok {
			l.URL = resolveHref(searchURL, href)
		}
	}

	if l.Title == "" || l.Price == "" || l.URL == "" {
		log.Debug().
			Str("marketplace", mp.Name).
			Bool("title", l.Title != "").
			Bool("price", l.Price != "").
			Bool("url", l.URL != "").
			Msg("Partial extraction")
	}

	return l, nil
}

// fieldText returns the trimmed text of the first match inside the container,
// or "" when the selector is empty or matches nothing.
func fieldText(container *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	sel := container.Find(selector).First()
	if sel.Length() == 0 {
		return ""
	}
	return strings.TrimSpace(sel.Text())
}

// descriptionPairs scans every definition list under root and pairs terms
// with definitions by position. Duplicate labels are last-wins.
func descriptionPairs(root *goquery.Selection) models.Description {
	desc := models.Description{}
	root.Find("dl").Each(func(_ int, dl *goquery.Selection) {
		terms := dl.Find("dt")
		defs := dl.Find("dd")
		n := terms.Length()
		if defs.Length() < n {
			n = defs.Length()
		}
		for i := 0; i < n; i++ {
			key := strings.TrimSpace(terms.Eq(i).Text())
			value := strings.TrimSpace(defs.Eq(i).Text())
			if key == "" {
				continue
			}
			desc[key] = value
		}
	})
	if len(desc) == 0 {
		return nil
	}
	return desc
}

// resolveHref resolves a possibly relative href against the search page URL.
func resolveHref(searchURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(searchURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

// currencyFromPrice derives an ISO currency code from tokens in the raw
// price text. Empty when nothing recognizable is present.
func currencyFromPrice(price string) string {
	if price == "" {
		return ""
	}
	lower := strings.ToLower(price)
	switch {
	case strings.Contains(price, "₴") || strings.Contains(lower, "грн") || strings.Contains(lower, "uah"):
		return "UAH"
	case strings.Contains(price, "€") || strings.Contains(lower, "eur"):
		return "EUR"
	case strings.Contains(price, "$") || strings.Contains(lower, "usd"):
		return "USD"
	default:
		return ""
	}
}
