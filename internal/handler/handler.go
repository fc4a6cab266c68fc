package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"netinspect/internal/codec"
	"netinspect/internal/domain"
	"netinspect/internal/service"
)

// TopologyProvider is the part of service.TopologyService the handlers use
type TopologyProvider interface {
	GetTopology(ctx context.Context) (*domain.Snapshot, error)
	Refresh(ctx context.Context) (*domain.Snapshot, error)
	Status() service.CacheStatus
}

// Result is the response envelope shared by all topology endpoints
type Result struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

const (
	headerComputedAt = "X-Topology-Computed-At"
	headerSnapshotID = "X-Topology-Snapshot-Id"
)

// TopologyHandler handles topology API requests
type TopologyHandler struct {
	svc    TopologyProvider
	logger zerolog.Logger
}

// NewTopologyHandler creates a new topology handler
func NewTopologyHandler(svc TopologyProvider, logger zerolog.Logger) *TopologyHandler {
	return &TopologyHandler{svc: svc, logger: logger}
}

// GetTopology returns the current snapshot. Clients holding the current
// snapshot id in If-None-Match get 304.
func (h *TopologyHandler) GetTopology(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.GetTopology(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get topology")
		h.writeError(w, "topology unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	etag := `"` + snap.ID() + `"`
	h.writeSnapshotHeaders(w, snap)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	h.writeJSON(w, Result{Code: http.StatusOK, Msg: "success", Data: snap}, http.StatusOK)
}

// RefreshTopology forces a rebuild and returns the resulting snapshot
func (h *TopologyHandler) RefreshTopology(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Refresh(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to refresh topology")
		h.writeError(w, "topology refresh failed: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	h.writeSnapshotHeaders(w, snap)
	h.writeJSON(w, Result{Code: http.StatusOK, Msg: "success", Data: snap}, http.StatusOK)
}

// GetStatus reports what the cache holds without building
func (h *TopologyHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, Result{Code: http.StatusOK, Msg: "success", Data: h.svc.Status()}, http.StatusOK)
}

// ExportTopology writes the snapshot as a downloadable document (?format=json|yaml)
func (h *TopologyHandler) ExportTopology(w http.ResponseWriter, r *http.Request) {
	exporter, err := codec.ForFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.svc.GetTopology(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to get topology for export")
		h.writeError(w, "topology unavailable: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	h.writeSnapshotHeaders(w, snap)
	w.Header().Set("Content-Type", exporter.ContentType())
	w.Header().Set("Content-Disposition", "attachment; filename=topology."+exporter.Format())

	if err := exporter.Export(snap, w); err != nil {
		h.logger.Error().Err(err).Str("format", exporter.Format()).Msg("Failed to export topology")
		// Can't write error response as we already started the body
		return
	}
}

// Healthz reports liveness
func Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}` + "\n"))
}

// Helper methods

func (h *TopologyHandler) writeSnapshotHeaders(w http.ResponseWriter, snap *domain.Snapshot) {
	w.Header().Set("ETag", `"`+snap.ID()+`"`)
	w.Header().Set(headerSnapshotID, snap.ID())
	w.Header().Set(headerComputedAt, snap.ComputedAt().UTC().Format(time.RFC3339))
}

func (h *TopologyHandler) writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON")
	}
}

func (h *TopologyHandler) writeError(w http.ResponseWriter, msg string, statusCode int) {
	h.writeJSON(w, Result{Code: statusCode, Msg: msg}, statusCode)
}
