package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/kozaktomas/stock-metadata/internal/database"
	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
)

// RunsHandler serves the run history.
type RunsHandler struct {
	store  database.RunStore
	logger zerolog.Logger
}

// NewRunsHandler creates a new runs handler
func NewRunsHandler(store database.RunStore, logger zerolog.Logger) *RunsHandler {
	return &RunsHandler{
		store:  store,
		logger: logger,
	}
}

// List returns run summaries, newest first. ?limit=N caps the result.
func (h *RunsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := h.store.ListRuns(r.Context(), limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list runs")
		respondError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (h *RunsHandler) lookupRun(w http.ResponseWriter, r *http.Request) *database.StoredRun {
	runID := chi.URLParam(r, "runId")
	if runID == "" {
		respondError(w, http.StatusBadRequest, "missing run ID")
		return nil
	}

	run, err := h.store.GetRun(r.Context(), runID)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", sanitizeForLog(runID)).Msg("failed to get run")
		respondError(w, http.StatusInternalServerError, "failed to get run")
		return nil
	}
	if run == nil {
		respondError(w, http.StatusNotFound, "run not found")
		return nil
	}
	return run
}

// Get returns a run with its records
func (h *RunsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if run := h.lookupRun(w, r); run != nil {
		respondJSON(w, http.StatusOK, run)
	}
}

// Download returns the records of a run as CSV
func (h *RunsHandler) Download(w http.ResponseWriter, r *http.Request) {
	if run := h.lookupRun(w, r); run != nil {
		respondCSV(w, stockcsv.DefaultFileName(len(run.Records)), run.Records)
	}
}

// Delete removes a run from the history
func (h *RunsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runId")
	deleted, err := h.store.DeleteRun(r.Context(), runID)
	if err != nil {
		h.logger.Error().Err(err).Str("run_id", sanitizeForLog(runID)).Msg("failed to delete run")
		respondError(w, http.StatusInternalServerError, "failed to delete run")
		return
	}
	if !deleted {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
