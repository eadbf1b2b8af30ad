package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// handleGetFigure serves one figure by external id
func (s *Server) handleGetFigure(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	figureID := vars["id"]

	figure, err := s.figureQuery.GetFigure(r.Context(), figureID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, figure)
}

// handleListByParty serves all figures of one party
func (s *Server) handleListByParty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	party := vars["party"]

	figures, err := s.figureQuery.ListByParty(r.Context(), party)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"party":   party,
		"count":   len(figures),
		"figures": figures,
	})
}

// handleListPopular serves the most viewed figures.
// Accepts an optional limit query parameter, default 10, capped at 100.
func (s *Server) handleListPopular(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}
	if limit > 100 {
		limit = 100
	}

	figures, err := s.figureQuery.ListPopular(r.Context(), limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":   len(figures),
		"figures": figures,
	})
}

// handleSearch serves keyword search over figures
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "query parameter q is required", nil)
		return
	}

	figures, err := s.figureQuery.Search(r.Context(), keyword)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"keyword": keyword,
		"count":   len(figures),
		"figures": figures,
	})
}
