// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api provides the REST API handlers for the analytics service.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/Ibedes/ibedes/internal/analytics"
	"github.com/Ibedes/ibedes/internal/cache"
	"github.com/Ibedes/ibedes/internal/notify"
	"github.com/Ibedes/ibedes/internal/store"
	"github.com/Ibedes/ibedes/internal/version"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	queries   *store.Queries // nil when no durable store is configured
	collector *analytics.Collector
	agg       *analytics.Aggregator
	events    *analytics.Store
	retention *analytics.Retention // nil when retention is disabled
	notify    *notify.Service      // nil when no durable store is configured
	cache     cache.Cacher
	logger    *slog.Logger
	version   *version.Info
}

// Options configures a Handler.
type Options struct {
	Queries    *store.Queries
	Collector  *analytics.Collector
	Aggregator *analytics.Aggregator
	Events     *analytics.Store
	Retention  *analytics.Retention
	Notify     *notify.Service
	Cache      cache.Cacher
	Logger     *slog.Logger
	Version    *version.Info
}

// NewHandler creates a new API handler.
func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		queries:   opts.Queries,
		collector: opts.Collector,
		agg:       opts.Aggregator,
		events:    opts.Events,
		retention: opts.Retention,
		notify:    opts.Notify,
		cache:     opts.Cache,
		logger:    logger,
		version:   opts.Version,
	}
}

// Response is the standard API response wrapper.
type Response struct {
	Data any   `json:"data,omitempty"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta contains counts and other metadata.
type Meta struct {
	Total  int64 `json:"total,omitempty"`
	Unread int64 `json:"unread,omitempty"`
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful JSON response.
func WriteSuccess(w http.ResponseWriter, data any, meta *Meta) {
	WriteJSON(w, http.StatusOK, Response{Data: data, Meta: meta})
}

// WriteCreated writes a 201 Created JSON response.
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, Response{Data: data})
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string, details map[string]string) {
	WriteJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string, details map[string]string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message, details)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message, nil)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message, nil)
}

// WriteValidationError writes a 422 Unprocessable Entity response with field errors.
func WriteValidationError(w http.ResponseWriter, fieldErrors map[string]string) {
	WriteError(w, http.StatusUnprocessableEntity, "validation_error", "Validation failed", fieldErrors)
}

// requireStore writes a 503 when no durable store is configured. Returns true
// when the store is available.
func (h *Handler) requireStore(w http.ResponseWriter) bool {
	if h.queries == nil {
		WriteError(w, http.StatusServiceUnavailable, "storage_unavailable", "No durable storage is configured", nil)
		return false
	}
	return true
}

// queryInt parses an integer query parameter, returning def when absent or
// unparsable.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// queryFloat parses a float query parameter, returning nil when absent or
// unparsable.
func queryFloat(r *http.Request, name string) *float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// HealthResponse contains service health information.
type HealthResponse struct {
	Status  string `json:"status"`
	Durable bool   `json:"durable"`
	Version string `json:"version,omitempty"`
}

// Health returns service health. It reports whether the durable event store
// is active or the service is running on the in-memory fallback alone.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status:  "ok",
		Durable: h.events != nil && h.events.Durable(),
	}
	if h.version != nil {
		resp.Version = h.version.Version
	}
	WriteJSON(w, http.StatusOK, resp)
}
