package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// handleEvictFigure force-evicts one figure and all derived entries
func (s *Server) handleEvictFigure(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	figureID := vars["id"]

	if err := s.cacheAdmin.InvalidateFigure(r.Context(), figureID); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"evicted": figureID,
	})
}

// handleEvictPattern force-evicts entries matching a key pattern.
// Without a pattern parameter, the whole figure cache is dropped.
func (s *Server) handleEvictPattern(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")

	var err error
	if pattern == "" {
		err = s.cacheAdmin.InvalidateAll(r.Context())
		pattern = "*"
	} else {
		err = s.cacheAdmin.InvalidatePattern(r.Context(), pattern)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"evicted": pattern,
	})
}
