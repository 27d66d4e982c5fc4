package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"

	"ctifeed/internal/core"
	"ctifeed/internal/features/intel/models"
	"ctifeed/internal/features/intel/services"

	"github.com/go-chi/chi/v5"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// Handlers is the HTTP boundary for the intel feature
type Handlers struct {
	logger      *core.Logger
	query       *services.QueryService
	sources     *services.SourceService
	ingest      *services.IngestService
	updateToken string
}

func New(logger *core.Logger, query *services.QueryService, sources *services.SourceService, ingest *services.IngestService, updateToken string) *Handlers {
	return &Handlers{
		logger:      logger,
		query:       query,
		sources:     sources,
		ingest:      ingest,
		updateToken: updateToken,
	}
}

// Routes returns the feature router
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/articles", h.ListArticles)
	r.Get("/sources", h.ListSources)
	r.Get("/stats", h.GetStats)
	r.Post("/refresh", h.Refresh)

	return r
}

// ListArticles serves paginated article queries. Supported query parameters:
// q (search text), source_id, days (max age), page, page_size.
func (h *Handlers) ListArticles(w http.ResponseWriter, r *http.Request) {
	params := &models.SearchParams{
		Query: r.URL.Query().Get("q"),
	}

	if raw := r.URL.Query().Get("source_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			core.WriteErrorResponse(w, http.StatusBadRequest, core.NewValidationError("source_id must be an integer", err))
			return
		}
		params.SourceID = &id
	}

	if raw := r.URL.Query().Get("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil || days < 1 {
			core.WriteErrorResponse(w, http.StatusBadRequest, core.NewValidationError("days must be a positive integer", err))
			return
		}
		params.MaxAgeDays = &days
	}

	page := readIntParam(r, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := readIntParam(r, "page_size", defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	total, err := h.query.Count(r.Context(), params)
	if err != nil {
		h.logger.Error("Failed to count articles", "error", err)
		core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewDatabaseError("failed to count articles", err))
		return
	}

	// Clamp the page into range so a stale page number still returns the
	// last available page instead of an empty one.
	if total > 0 {
		lastPage := (total + pageSize - 1) / pageSize
		if page > lastPage {
			page = lastPage
		}
	}

	params.Limit = pageSize
	params.Offset = (page - 1) * pageSize

	articles, err := h.query.Search(r.Context(), params)
	if err != nil {
		h.logger.Error("Failed to search articles", "error", err, "query", params.Query)
		core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewDatabaseError("failed to search articles", err))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"articles":  articles,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// ListSources returns every registered source
func (h *Handlers) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.sources.ListSources(r.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list sources", "error", err)
		core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewDatabaseError("failed to list sources", err))
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{"sources": sources})
}

// GetStats returns aggregate collection counters
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.query.Stats(r.Context())
	if err != nil {
		h.logger.Error("Failed to compute stats", "error", err)
		core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewDatabaseError("failed to compute stats", err))
		return
	}

	h.writeJSON(w, http.StatusOK, stats)
}

// Refresh triggers a full scan of all enabled sources. The caller must
// present the update token; a bad token returns 401 before any work runs.
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Update-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(h.updateToken)) != 1 {
		h.logger.Warn("Refresh rejected: invalid update token", "remote", r.RemoteAddr)
		core.WriteErrorResponse(w, http.StatusUnauthorized, core.NewUnauthorizedError("invalid update token", nil))
		return
	}

	summary, err := h.ingest.UpdateAll(r.Context())
	if err != nil {
		h.logger.Error("Refresh failed", "error", err)
		core.WriteErrorResponse(w, http.StatusInternalServerError, core.NewInternalError("refresh failed", err))
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func readIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
