// Package server exposes the lead pipeline over HTTP.
//
// Routes:
//
//	GET /api/v1/leads      → run the loader chain, return the filtered payload
//	GET /api/v1/verticals  → vertical playbook catalog for the dashboard selector
//	GET /health            → liveness probe
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"leadscope/internal/lead"
	"leadscope/internal/pipeline"
	"leadscope/internal/source"
	"leadscope/internal/vertical"
)

// Fetcher runs the loader chain for one request. *pipeline.Pipeline is the
// production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, q source.Query) (*pipeline.Result, error)
}

// ─── Handler ─────────────────────────────────────────────────────────────────

// Handler holds shared dependencies.
type Handler struct {
	fetcher Fetcher
	service string
	version string
}

// NewHandler returns a configured Handler.
func NewHandler(f Fetcher, service, version string) *Handler {
	return &Handler{fetcher: f, service: service, version: version}
}

// RegisterRoutes mounts all routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/leads", h.getLeads)
		r.Get("/verticals", h.listVerticals)
	})
}

// ─── Individual handlers ──────────────────────────────────────────────────────

// getLeads handles GET /api/v1/leads. Bad parameter syntax is a 400;
// out-of-range numeric values are clamped, not rejected. When every loader
// in the chain failed the response is a 503 carrying one diagnostic per
// attempted loader, so the dashboard can tell an outage from an empty match.
func (h *Handler) getLeads(w http.ResponseWriter, r *http.Request) {
	q, err := parseLeadsQuery(r.URL.Query())
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.fetcher.Fetch(r.Context(), q)
	if err != nil {
		var ue *pipeline.UnavailableError
		if errors.As(err, &ue) {
			log.Printf("[server] all lead sources failed: %v", err)
			jsonWith(w, http.StatusServiceUnavailable, map[string]any{
				"error":   "no lead source available",
				"sources": ue.Outcomes,
			})
			return
		}
		log.Printf("[server] leads fetch error: %v", err)
		jsonError(w, "lead pipeline error", http.StatusInternalServerError)
		return
	}

	jsonOK(w, res)
}

// verticalEntry is one catalog row: the playbook plus a ready-to-use search
// query preview for the collector UI.
type verticalEntry struct {
	vertical.Playbook
	SearchQuery string `json:"search_query"`
}

// listVerticals handles GET /api/v1/verticals.
func (h *Handler) listVerticals(w http.ResponseWriter, r *http.Request) {
	playbooks := vertical.List()
	entries := make([]verticalEntry, 0, len(playbooks))
	for _, p := range playbooks {
		entries = append(entries, verticalEntry{
			Playbook:    p,
			SearchQuery: vertical.BuildQuery(p.Key, 5),
		})
	}

	jsonOK(w, map[string]any{
		"default":   vertical.Default,
		"verticals": entries,
	})
}

// health handles GET /health.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	jsonOK(w, map[string]string{
		"status":  "ok",
		"service": h.service,
		"version": h.version,
	})
}

// ─── Request parsing ──────────────────────────────────────────────────────────

// ValidationError wraps a user-facing request validation message.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

// parseLeadsQuery resolves the leads query parameters against their
// defaults. Unknown verticals fall back to the default playbook; malformed
// integers and booleans are rejected rather than silently defaulted.
func parseLeadsQuery(vals url.Values) (source.Query, error) {
	f := lead.DefaultFilter()

	if raw := vals.Get("minScore"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return source.Query{}, &ValidationError{Msg: fmt.Sprintf("minScore must be an integer, got %q", raw)}
		}
		f.MinScore = n
	}
	if raw := vals.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return source.Query{}, &ValidationError{Msg: fmt.Sprintf("limit must be an integer, got %q", raw)}
		}
		f.Limit = n
	}
	if raw := vals.Get("onlyTarget"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return source.Query{}, &ValidationError{Msg: fmt.Sprintf("onlyTarget must be a boolean, got %q", raw)}
		}
		f.OnlyTarget = b
	}
	if raw := vals.Get("excludeCompetitors"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return source.Query{}, &ValidationError{Msg: fmt.Sprintf("excludeCompetitors must be a boolean, got %q", raw)}
		}
		f.ExcludeCompetitors = b
	}

	return source.Query{
		Filter:   f.Clamp(),
		Vertical: vertical.Normalize(vals.Get("vertical")),
	}, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	jsonWith(w, http.StatusOK, v)
}

func jsonWith(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	jsonWith(w, code, map[string]string{"error": msg})
}
