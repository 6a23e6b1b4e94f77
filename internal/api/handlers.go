// internal/api/handlers.go
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/pricewatch/pricewatch/internal/export"
	"github.com/pricewatch/pricewatch/internal/orchestrate"
	"github.com/pricewatch/pricewatch/internal/regress"
	"github.com/pricewatch/pricewatch/pkg/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes before touching the response so an encode failure can
// still produce a clean 500 instead of a success status with a cut-off body.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"failed to encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func pathID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scrapeRequest struct {
	ProductNameSearched string  `json:"product_name_searched"`
	MarketplaceIDs      []int64 `json:"marketplace_ids,omitempty"`
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req scrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.ProductNameSearched == "" {
		s.writeError(w, http.StatusBadRequest, "product_name_searched is required")
		return
	}
	s.runBatch(w, r, req.ProductNameSearched, req.MarketplaceIDs)
}

func (s *Server) handleScrapeProduct(w http.ResponseWriter, r *http.Request) {
	product, err := s.store.ProductByID(r.Context(), pathID(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if product == nil {
		s.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	var req scrapeRequest
	if r.Body != nil && r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
	}
	s.runBatch(w, r, product.GlobalQueryName, req.MarketplaceIDs)
}

func (s *Server) runBatch(w http.ResponseWriter, r *http.Request, query string, ids []int64) {
	batch, err := s.runner.Run(r.Context(), query, ids)
	if errors.Is(err, orchestrate.ErrNoMarketplaces) {
		s.writeError(w, http.StatusNotFound, "no marketplaces resolved")
		return
	}
	if err != nil && batch == nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err != nil {
		// Outcomes are complete but some failed to persist; report both.
		s.logger.Error().Err(err).Int64("request_id", batch.RequestID).Msg("Batch persistence incomplete")
		s.writeJSON(w, http.StatusMultiStatus, map[string]interface{}{
			"batch":             batch,
			"persistence_error": err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, batch)
}

func (s *Server) handleListMarketplaces(w http.ResponseWriter, r *http.Request) {
	mps, err := s.store.ListMarketplaces(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, mps)
}

func (s *Server) handleCreateMarketplace(w http.ResponseWriter, r *http.Request) {
	var mp models.Marketplace
	if err := json.NewDecoder(r.Body).Decode(&mp); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if mp.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	created, err := s.store.CreateMarketplace(r.Context(), &mp)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetMarketplace(w http.ResponseWriter, r *http.Request) {
	mp, err := s.store.MarketplaceByID(r.Context(), pathID(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if mp == nil {
		s.writeError(w, http.StatusNotFound, "marketplace not found")
		return
	}
	s.writeJSON(w, http.StatusOK, mp)
}

func (s *Server) handleUpdateMarketplace(w http.ResponseWriter, r *http.Request) {
	var mp models.Marketplace
	if err := json.NewDecoder(r.Body).Decode(&mp); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	mp.ID = pathID(r)
	updated, err := s.store.UpdateMarketplace(r.Context(), &mp)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if updated == nil {
		s.writeError(w, http.StatusNotFound, "marketplace not found")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteMarketplace(w http.ResponseWriter, r *http.Request) {
	ok, err := s.store.DeleteMarketplace(r.Context(), pathID(r))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		s.writeError(w, http.StatusNotFound, "marketplace not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListProducts(w http.ResponseWriter, r *http.Request) {
	ps, err := s.store.ListProducts(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, ps)
}

func (s *Server) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var p models.Product
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if p.GlobalQueryName == "" {
		s.writeError(w, http.StatusBadRequest, "global_query_name is required")
		return
	}
	if _, err := s.store.CreateProduct(r.Context(), &p); err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	outcomes, err := s.store.ListOutcomes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(outcomes) == 0 {
		s.writeError(w, http.StatusNotFound, "no scraped products stored")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=products_export.csv")
	if err := export.WriteCSV(w, outcomes); err != nil {
		s.logger.Error().Err(err).Msg("CSV export failed mid-stream")
	}
}

type regressionRequest struct {
	Dependent    string   `json:"dependent"`
	Independents []string `json:"independents"`
}

func (s *Server) handleRegression(w http.ResponseWriter, r *http.Request) {
	var req regressionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Dependent == "" {
		req.Dependent = "Price_UAH"
	}

	outcomes, err := s.store.ListOutcomes(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	spec := regress.Spec{Dependent: req.Dependent, Independents: req.Independents}
	rows := regressionRows(outcomes)
	obs, err := regress.FromRows(spec, rows)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := regress.Fit(spec, obs)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, result)
}

// regressionRows converts stored outcomes into named numeric rows matching
// the export columns. Outcomes missing any numeric value are dropped, the
// same way the export leaves those cells empty.
func regressionRows(outcomes []models.Outcome) []map[string]float64 {
	rows := make([]map[string]float64, 0, len(outcomes))
	for _, o := range outcomes {
		rec := export.FromOutcome(o)
		row := map[string]float64{}
		complete := true
		for name, cell := range map[string]string{
			"Model":              rec.Model,
			"Memory_GB":          numericPart(rec.MemoryGB),
			"Screen_Size_Inches": rec.ScreenSize,
			"Price_UAH":          rec.Price,
		} {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				complete = false
				break
			}
			row[name] = v
		}
		if !complete {
			continue
		}
		row["Is_OLED"] = boolValue(rec.IsOLED)
		row["Has_NFC"] = boolValue(rec.HasNFC)
		rows = append(rows, row)
	}
	return rows
}

func numericPart(memory string) string {
	for i, r := range memory {
		if r < '0' || r > '9' {
			return memory[:i]
		}
	}
	return memory
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
