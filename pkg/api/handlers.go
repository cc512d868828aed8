package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/statkit/absbridge/pkg/logging"
	"github.com/statkit/absbridge/pkg/sdmx"
)

// handleHealth returns the service health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGetDataflows returns the known dataflows, optionally forcing a refresh
func (s *Server) handleGetDataflows(w http.ResponseWriter, r *http.Request) {
	forceRefresh := r.URL.Query().Get("refresh") == "true"

	flows, err := s.flows.GetDataFlows(r.Context(), forceRefresh)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":     len(flows),
		"dataflows": flows,
	})
}

// handleGetFlowData returns observation data for a dataflow. CSV formats
// are returned as text/csv; everything else as JSON.
func (s *Server) handleGetFlowData(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	flowID := vars["flowId"]
	dataKey := vars["dataKey"]

	query := r.URL.Query()
	options := &sdmx.QueryOptions{
		StartPeriod:            query.Get("startPeriod"),
		EndPeriod:              query.Get("endPeriod"),
		Format:                 sdmx.Format(query.Get("format")),
		Detail:                 sdmx.Detail(query.Get("detail")),
		DimensionAtObservation: query.Get("dimensionAtObservation"),
	}

	result, err := s.flows.GetFlowData(r.Context(), flowID, dataKey, options)
	if err != nil {
		s.respondError(w, err)
		return
	}

	if raw, ok := result.(string); ok {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(raw))
		return
	}

	s.respondJSON(w, http.StatusOK, result)
}

// handleEvents serves the SSE refresh-event stream. Subscribers hold the
// connection open far longer than the server-wide WriteTimeout, so the
// write deadline is cleared for this connection before streaming begins.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Warn("failed to clear write deadline for event stream", logging.F("error", err))
	}
	s.events.ServeHTTP(w, r)
}

// handleGetStructures returns structures of the given type for an agency
func (s *Server) handleGetStructures(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	query := r.URL.Query()
	tree, err := s.flows.GetStructures(
		r.Context(),
		vars["structureType"],
		vars["agencyId"],
		sdmx.StructureDetail(query.Get("detail")),
		sdmx.References(query.Get("references")),
	)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, tree)
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.F("error", err))
	}
}

// respondError maps errors to HTTP responses. Upstream failures surface as
// 502 with the remote status attached; everything else is a 500.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	var remoteErr *sdmx.RemoteError
	if errors.As(err, &remoteErr) {
		s.logger.Warn("upstream request failed",
			logging.F("status", remoteErr.StatusCode),
			logging.F("url", remoteErr.URL),
		)
		s.respondJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":          remoteErr.Message,
			"upstreamStatus": remoteErr.StatusCode,
			"url":            remoteErr.URL,
		})
		return
	}

	s.logger.Error("request failed", logging.F("error", err))
	s.respondJSON(w, http.StatusInternalServerError, map[string]string{
		"error": err.Error(),
	})
}
