// Package handler provides HTTP handlers for the walk tracker API:
// health checks, per-chat statistics, and CSV export.
package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marinarosell/dora-bot/internal/api/respond"
	"github.com/marinarosell/dora-bot/internal/cache"
	"github.com/marinarosell/dora-bot/internal/config"
	"github.com/marinarosell/dora-bot/internal/db"
	"github.com/marinarosell/dora-bot/internal/export"
	"github.com/marinarosell/dora-bot/internal/stats"
	"github.com/marinarosell/dora-bot/internal/store"
)

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store store.Store
	pool  *db.Pool // nil when running on the in-memory store
	cache *cache.Cache
	cfg   *config.Config
}

// New creates a Handler with shared dependencies.
func New(st store.Store, pool *db.Pool, c *cache.Cache, cfg *config.Config) *Handler {
	return &Handler{
		store: st,
		pool:  pool,
		cache: c,
		cfg:   cfg,
	}
}

// Root serves API info at /.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Dora Walk Tracker API",
		"version": "1.0.0",
		"status":  "running",
	})
}

// HealthCheck returns basic health status.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if h.pool == nil {
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"status":   "healthy",
			"database": "in-memory",
		})
		return
	}
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// statsResponse is the JSON shape of the stats endpoint.
type statsResponse struct {
	GroupID     int64          `json:"group_id"`
	Count       int            `json:"count"`
	First       *time.Time     `json:"first,omitempty"`
	Last        *time.Time     `json:"last,omitempty"`
	AvgGapHours float64        `json:"avg_gap_hours"`
	Outcomes    map[string]int `json:"outcomes"`
}

// GetGroupStats returns walk statistics for one chat.
func (h *Handler) GetGroupStats(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP_ID", "group id must be an integer")
		return
	}

	cacheKey := "stats:" + strconv.FormatInt(groupID, 10)
	if data, etag, ok := h.cache.Get(cacheKey); ok {
		if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		w.Header().Set("X-Cache", "HIT")
		respond.WriteJSON(w, data, etag)
		return
	}

	walks, err := h.store.Walks(r.Context(), groupID)
	if err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "STORAGE_ERROR", "could not load walks")
		return
	}

	s := stats.Compute(walks)
	resp := statsResponse{
		GroupID:     groupID,
		Count:       s.Count,
		AvgGapHours: s.AvgGapHours,
		Outcomes:    make(map[string]int, len(s.Outcomes)),
	}
	if s.Count > 0 {
		first, last := s.First, s.Last
		resp.First, resp.Last = &first, &last
	}
	for outcome, n := range s.Outcomes {
		resp.Outcomes[string(outcome)] = n
	}

	data, err := json.Marshal(resp)
	if err != nil {
		respond.WriteError(w, http.StatusInternalServerError, "ENCODE_ERROR", "could not encode stats")
		return
	}

	etag := h.cache.Set(cacheKey, data, cache.TTLStats)
	if cache.CheckETagMatch(r.Header.Get("If-None-Match"), etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	w.Header().Set("X-Cache", "MISS")
	respond.WriteJSON(w, data, etag)
}

// ExportCSV streams the walk log as CSV. A chat with no walks yields a
// header-only table with 200, distinguishable from a storage failure.
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(chi.URLParam(r, "groupID"), 10, 64)
	if err != nil {
		respond.WriteError(w, http.StatusBadRequest, "BAD_GROUP_ID", "group id must be an integer")
		return
	}

	walks, err := h.store.Walks(r.Context(), groupID)
	if err != nil {
		respond.WriteError(w, http.StatusServiceUnavailable, "STORAGE_ERROR", "could not load walks")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	if err := export.Write(w, walks, h.cfg.Location); err != nil {
		// Headers are already out; nothing better to do than log-free abort.
		return
	}
}
