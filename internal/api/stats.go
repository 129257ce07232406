package api

import "net/http"

func handleStats(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Counters == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "COUNTERS_NOT_CONFIGURED", "counter store is not configured", false, nil)
		return
	}
	snap, err := deps.Counters.Snapshot(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "COUNTER_ERROR", "failed to read counters", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func handleVisit(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Counters == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "COUNTERS_NOT_CONFIGURED", "counter store is not configured", false, nil)
		return
	}
	count, err := deps.Counters.IncrementVisitors(r.Context())
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "COUNTER_ERROR", "failed to increment visitors", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"visitor_count": count})
}
