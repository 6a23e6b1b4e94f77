// internal/api/handlers_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/pricewatch/pricewatch/internal/orchestrate"
	"github.com/pricewatch/pricewatch/pkg/models"
)

type fakeStore struct {
	marketplaces []models.Marketplace
	products     []models.Product
	outcomes     []models.Outcome
	nextID       int64
	failWith     error
}

func (f *fakeStore) CreateMarketplace(ctx context.Context, mp *models.Marketplace) (*models.Marketplace, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.nextID++
	mp.ID = f.nextID
	f.marketplaces = append(f.marketplaces, *mp)
	return mp, nil
}

func (f *fakeStore) MarketplaceByID(ctx context.Context, id int64) (*models.Marketplace, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, mp := range f.marketplaces {
		if mp.ID == id {
			m := mp
			return &m, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListMarketplaces(ctx context.Context) ([]models.Marketplace, error) {
	return f.marketplaces, f.failWith
}

func (f *fakeStore) UpdateMarketplace(ctx context.Context, mp *models.Marketplace) (*models.Marketplace, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for i := range f.marketplaces {
		if f.marketplaces[i].ID == mp.ID {
			f.marketplaces[i] = *mp
			return mp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) DeleteMarketplace(ctx context.Context, id int64) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	for i := range f.marketplaces {
		if f.marketplaces[i].ID == id {
			f.marketplaces = append(f.marketplaces[:i], f.marketplaces[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, p *models.Product) (int64, error) {
	if f.failWith != nil {
		return 0, f.failWith
	}
	f.nextID++
	p.ID = f.nextID
	f.products = append(f.products, *p)
	return p.ID, nil
}

func (f *fakeStore) ProductByID(ctx context.Context, id int64) (*models.Product, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	for _, p := range f.products {
		if p.ID == id {
			prod := p
			return &prod, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	return f.products, f.failWith
}

func (f *fakeStore) ListOutcomes(ctx context.Context) ([]models.Outcome, error) {
	return f.outcomes, f.failWith
}

type fakeRunner struct {
	batch     *models.BatchResult
	err       error
	lastQuery string
	lastIDs   []int64
}

func (f *fakeRunner) Run(ctx context.Context, query string, ids []int64) (*models.BatchResult, error) {
	f.lastQuery = query
	f.lastIDs = ids
	return f.batch, f.err
}

func newTestServer(store Store, runner BatchRunner) *Server {
	return NewServer(store, runner, nil, zerolog.Nop())
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestScrapeRequiresQuery(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/scrape", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScrapeHappyPath(t *testing.T) {
	runner := &fakeRunner{batch: &models.BatchResult{
		RequestID: 5,
		Query:     "iphone",
		Outcomes: []models.Outcome{
			{MarketplaceName: "alpha", Status: models.StatusSuccess},
			{MarketplaceName: "beta", Status: models.StatusError, ErrorMessage: "selector timeout"},
		},
		Summary: models.Summary{Total: 2, Successful: 1, Failed: 1},
	}}
	s := newTestServer(&fakeStore{}, runner)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scrape",
		`{"product_name_searched":"iphone","marketplace_ids":[1,2]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	if runner.lastQuery != "iphone" {
		t.Errorf("runner query = %q, want iphone", runner.lastQuery)
	}
	if len(runner.lastIDs) != 2 {
		t.Errorf("runner ids = %v, want [1 2]", runner.lastIDs)
	}

	var got models.BatchResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.RequestID != 5 || got.Summary.Failed != 1 {
		t.Errorf("batch = %+v", got)
	}
}

func TestScrapeNoMarketplaces(t *testing.T) {
	runner := &fakeRunner{err: orchestrate.ErrNoMarketplaces}
	s := newTestServer(&fakeStore{}, runner)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scrape", `{"product_name_searched":"tv"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestScrapePersistenceFailureIsMultiStatus(t *testing.T) {
	runner := &fakeRunner{
		batch: &models.BatchResult{RequestID: 9, Summary: models.Summary{Total: 1, Successful: 1}},
		err:   errors.New("save outcome for alpha: connection reset"),
	}
	s := newTestServer(&fakeStore{}, runner)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scrape", `{"product_name_searched":"tv"}`)
	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("status = %d, want 207", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "persistence_error") {
		t.Errorf("body %s missing persistence_error", rec.Body)
	}
}

func TestScrapeProduct(t *testing.T) {
	store := &fakeStore{products: []models.Product{{ID: 3, GlobalQueryName: "iphone 15 pro"}}}
	runner := &fakeRunner{batch: &models.BatchResult{RequestID: 1}}
	s := newTestServer(store, runner)

	rec := doJSON(t, s.Handler(), http.MethodPost, "/scrape/product/3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	if runner.lastQuery != "iphone 15 pro" {
		t.Errorf("runner query = %q, want stored product query", runner.lastQuery)
	}
}

func TestScrapeProductNotFound(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/scrape/product/42", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestMarketplaceCRUD(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	h := s.Handler()

	rec := doJSON(t, h, http.MethodPost, "/marketplaces",
		`{"name":"alpha","base_search_url":"https://alpha.example/search?q={query}","product_selector":".card"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, want 201, body %s", rec.Code, rec.Body)
	}
	var created models.Marketplace
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("created marketplace has no id")
	}

	rec = doJSON(t, h, http.MethodGet, fmt.Sprintf("/marketplaces/%d", created.ID), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d, want 200", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPut, fmt.Sprintf("/marketplaces/%d", created.ID),
		`{"name":"alpha-renamed","base_search_url":"https://alpha.example/s?q={query}","product_selector":".card"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "alpha-renamed") {
		t.Errorf("update body %s missing new name", rec.Body)
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/marketplaces/%d", created.ID), "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/marketplaces/%d", created.ID), "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", rec.Code)
	}
}

func TestCreateMarketplaceRequiresName(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/marketplaces", `{"product_selector":".card"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestCreateProductRequiresQueryName(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodPost, "/products", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func exportableOutcome(memory, price string) models.Outcome {
	return models.Outcome{
		Title:  fmt.Sprintf("Phone %s", memory),
		Price:  price,
		Status: models.StatusSuccess,
		Description: models.Description{
			"Діагональ екрану": "6.1",
			"Тип екрану":       "OLED",
			"NFC":              "Є",
		},
	}
}

func TestExportCSV(t *testing.T) {
	store := &fakeStore{outcomes: []models.Outcome{exportableOutcome("128GB", "9 000 грн")}}
	s := newTestServer(store, &fakeRunner{})

	rec := doJSON(t, s.Handler(), http.MethodGet, "/export/csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if lines[0] != "Model,Memory_GB,Screen_Size_Inches,Price_UAH,Is_OLED,Has_NFC" {
		t.Errorf("header line = %q", lines[0])
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want header plus one row", len(lines))
	}
	if lines[1] != "128,128,6.1,9000,1,1" {
		t.Errorf("data line = %q", lines[1])
	}
}

func TestExportCSVEmpty(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/export/csv", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestRegression(t *testing.T) {
	store := &fakeStore{outcomes: []models.Outcome{
		exportableOutcome("64GB", "5 000 грн"),
		exportableOutcome("128GB", "9 000 грн"),
		exportableOutcome("256GB", "17 000 грн"),
		exportableOutcome("512GB", "33 000 грн"),
	}}
	s := newTestServer(store, &fakeRunner{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/regression",
		`{"independents":["Memory_GB"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body)
	}

	var result struct {
		Formula      string  `json:"formula"`
		RSquared     float64 `json:"r_squared"`
		Observations int     `json:"n_observations"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Formula != "Price_UAH ~ Memory_GB" {
		t.Errorf("Formula = %q, want default dependent", result.Formula)
	}
	if result.Observations != 4 {
		t.Errorf("Observations = %d, want 4", result.Observations)
	}
	if result.RSquared < 0.999 {
		t.Errorf("RSquared = %v, want near 1 for a linear relation", result.RSquared)
	}

	// The memory/price relation above is exact in float64, so this also
	// covers the perfect-fit case: the response must stay well-formed JSON
	// with the undefined F statistic omitted.
	if !json.Valid(rec.Body.Bytes()) {
		t.Errorf("response body is not valid JSON: %s", rec.Body)
	}
	if strings.Contains(rec.Body.String(), "f_stat") {
		t.Errorf("response %s carries an f_stat field for a perfect fit", rec.Body)
	}
}

func TestWriteJSONEncodeFailureIsServerError(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, math.Inf(1))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 on encode failure", rec.Code)
	}
	if !json.Valid(rec.Body.Bytes()) {
		t.Errorf("error body is not valid JSON: %s", rec.Body)
	}
	if !strings.Contains(rec.Body.String(), "error") {
		t.Errorf("error body %s carries no diagnostic", rec.Body)
	}
}

func TestRegressionRequiresIndependents(t *testing.T) {
	store := &fakeStore{outcomes: []models.Outcome{exportableOutcome("64GB", "5 000 грн")}}
	s := newTestServer(store, &fakeRunner{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/regression", `{}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegressionTooFewRows(t *testing.T) {
	store := &fakeStore{outcomes: []models.Outcome{
		exportableOutcome("64GB", "5 000 грн"),
		exportableOutcome("128GB", "9 000 грн"),
	}}
	s := newTestServer(store, &fakeRunner{})

	rec := doJSON(t, s.Handler(), http.MethodPost, "/regression",
		`{"independents":["Memory_GB"]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(&fakeStore{}, &fakeRunner{})
	rec := doJSON(t, s.Handler(), http.MethodGet, "/healthz", "")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}
