package api

import (
	"io"
	"net/http"

	"github.com/gorilla/mux"
)

// handleSyncFigure syncs one figure by name, synchronously
func (s *Server) handleSyncFigure(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	figure, err := s.figureSync.SyncOne(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, figure)
}

// handleSyncAllFigures syncs the full roster. mode=async (the default)
// starts a background job and returns its id; mode=sync blocks until the
// sweep finishes and returns the batch result.
func (s *Server) handleSyncAllFigures(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "async"
	}

	switch mode {
	case "async":
		jobID := s.figureSync.SyncAllAsync()
		respondJSON(w, http.StatusAccepted, map[string]string{
			"jobId": jobID,
		})
	case "sync":
		result, err := s.figureSync.SyncAll(r.Context())
		if err != nil {
			respondServiceError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, result)
	default:
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "mode must be sync or async", nil)
	}
}

// handleSyncParty syncs every figure of one party, synchronously
func (s *Server) handleSyncParty(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	party := vars["party"]

	result, err := s.figureSync.SyncParty(r.Context(), party)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// syncStatementsRequest is the body for the multi-figure statement sync
type syncStatementsRequest struct {
	Names []string `json:"names"`
}

// handleSyncStatements syncs statements for a list of figures
func (s *Server) handleSyncStatements(w http.ResponseWriter, r *http.Request) {
	var req syncStatementsRequest
	if err := parseJSONBody(r, &req); err != nil && err != io.EOF {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", nil)
		return
	}
	if len(req.Names) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "names must not be empty", nil)
		return
	}

	result := s.statementSync.SyncManyFigures(r.Context(), req.Names)
	respondJSON(w, http.StatusOK, result)
}

// handleSyncStatementsByFigure syncs statements for one figure
func (s *Server) handleSyncStatementsByFigure(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	result, err := s.statementSync.SyncByFigure(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleSyncBills runs the paged bill sweep over the stored roster
func (s *Server) handleSyncBills(w http.ResponseWriter, r *http.Request) {
	result, err := s.billSync.SyncAllPaged(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleSyncBillsByProposer syncs bills for one proposer
func (s *Server) handleSyncBillsByProposer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	result, err := s.billSync.SyncByProposer(r.Context(), name)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleGetJob serves the status of one background sync job
func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	jobID := vars["jobId"]

	status := s.jobs.Get(jobID)
	if status == nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "job not found: "+jobID, nil)
		return
	}

	respondJSON(w, http.StatusOK, status)
}

// handleListJobs serves all tracked job statuses
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	statuses := s.jobs.List()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(statuses),
		"jobs":  statuses,
	})
}
