package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// handleFigureBills serves the bills a figure proposed
func (s *Server) handleFigureBills(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	figureID := vars["id"]

	bills, err := s.activityQuery.FigureBills(r.Context(), figureID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bills)
}

// handleFigureStatements serves a figure's archived statements.
// Accepts an optional limit query parameter, default 100, capped at 500.
func (s *Server) handleFigureStatements(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	figureID := vars["id"]

	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	if limit > 500 {
		limit = 500
	}

	statements, err := s.activityQuery.FigureStatements(r.Context(), figureID, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, statements)
}

// handleGetBill serves one bill by external id
func (s *Server) handleGetBill(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	billID := vars["billId"]

	bill, err := s.activityQuery.GetBill(r.Context(), billID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, bill)
}

// handleStats serves coarse roster and bill counts
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.activityQuery.Stats(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, stats)
}
