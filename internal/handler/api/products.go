// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ibedes/ibedes/internal/cache"
	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/ranking"
	"github.com/Ibedes/ibedes/internal/util"
)

const (
	productsCacheTTL    = 2 * time.Minute
	productsCachePrefix = "products:"
	defaultCategory     = "General"
)

// ProductRequest is the request body for creating or updating a product.
// Tags accepts either a JSON array of strings or one comma-separated string.
type ProductRequest struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Price         string   `json:"price,omitempty"`
	OriginalPrice string   `json:"original_price,omitempty"`
	Discount      string   `json:"discount,omitempty"`
	Image         string   `json:"image"`
	Link          string   `json:"link"`
	Platform      string   `json:"platform"`
	Category      string   `json:"category,omitempty"`
	Tags          any      `json:"tags,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
	Verified      bool     `json:"verified"`
}

// validate checks required fields and returns per-field errors.
func (req *ProductRequest) validate() map[string]string {
	fieldErrors := make(map[string]string)
	if req.Name == "" {
		fieldErrors["name"] = "Name is required"
	}
	if req.Description == "" {
		fieldErrors["description"] = "Description is required"
	}
	if req.Image == "" {
		fieldErrors["image"] = "Image is required"
	}
	if err := util.ValidateLinkURL(req.Link); err != nil {
		fieldErrors["link"] = err.Error()
	}
	if !model.ValidPlatform(req.Platform) {
		fieldErrors["platform"] = "Unknown platform"
	}
	if req.Rating != nil && (*req.Rating < 0 || *req.Rating > 5) {
		fieldErrors["rating"] = "Rating must be between 0 and 5"
	}
	if len(fieldErrors) == 0 {
		return nil
	}
	return fieldErrors
}

// toModel applies normalization and builds the product record.
func (req *ProductRequest) toModel(id string) model.AffiliateProduct {
	category := req.Category
	if category == "" {
		category = defaultCategory
	}
	return model.AffiliateProduct{
		ID:            id,
		Name:          req.Name,
		Description:   req.Description,
		Price:         normalizePrice(req.Price),
		OriginalPrice: normalizePrice(req.OriginalPrice),
		Discount:      req.Discount,
		Image:         req.Image,
		Link:          req.Link,
		Platform:      req.Platform,
		Category:      category,
		Tags:          normalizeTags(req.Tags),
		Rating:        req.Rating,
		Verified:      req.Verified,
	}
}

// normalizePrice strips everything but digits, so "Rp 1.299.000" and
// "1299000" store identically.
func normalizePrice(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeTags accepts a JSON array or a comma-separated string and returns
// trimmed, non-empty tags.
func normalizeTags(raw any) []string {
	var candidates []string
	switch v := raw.(type) {
	case []any:
		for _, item := range v {
			candidates = append(candidates, fmt.Sprint(item))
		}
	case string:
		candidates = strings.Split(v, ",")
	}

	tags := make([]string, 0, len(candidates))
	for _, tag := range candidates {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// ListRankedProducts handles GET /api/v1/products. Products are ordered by
// the click/recency/verified blend; weights can be overridden per request.
func (h *Handler) ListRankedProducts(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	ctx := r.Context()

	opts := ranking.Options{
		Days:          queryInt(r, "days", ranking.DefaultDays),
		Limit:         queryInt(r, "limit", 0),
		ClickWeight:   queryFloat(r, "click_weight"),
		RecencyWeight: queryFloat(r, "recency_weight"),
		VerifiedBoost: queryFloat(r, "verified_boost"),
	}

	typed := cache.NewTypedCache[[]ranking.RankedProduct](h.cache, productsCacheTTL)
	key := productsCacheKey(opts)

	ranked, err := typed.GetOrSetWithTTL(ctx, key, productsCacheTTL, func() (*[]ranking.RankedProduct, error) {
		products, err := h.queries.ListProducts(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing products: %w", err)
		}
		clicks := h.agg.ClickCounts(ctx, opts.WindowDays())
		result := ranking.Rank(products, clicks, opts)
		return &result, nil
	})
	if err != nil {
		h.logger.Error("product ranking failed", "category", model.LogCategoryProduct, "error", err)
		WriteInternalError(w, "Failed to list products")
		return
	}
	WriteSuccess(w, ranked, &Meta{Total: int64(len(*ranked))})
}

func productsCacheKey(opts ranking.Options) string {
	cw, rw, vb := opts.Weights()
	return fmt.Sprintf("%sd%d:l%d:w%.2f:%.2f:%.2f", productsCachePrefix, opts.WindowDays(), opts.Limit, cw, rw, vb)
}

// ListProducts handles GET /api/v1/admin/products: the raw curation list in
// insertion order, no ranking.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	products, err := h.queries.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("listing products failed", "category", model.LogCategoryProduct, "error", err)
		WriteInternalError(w, "Failed to list products")
		return
	}
	WriteSuccess(w, products, &Meta{Total: int64(len(products))})
}

// GetProduct handles GET /api/v1/admin/products/{id}.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	product, err := h.queries.GetProduct(r.Context(), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Product not found")
			return
		}
		h.logger.Error("fetching product failed", "category", model.LogCategoryProduct, "id", id, "error", err)
		WriteInternalError(w, "Failed to retrieve product")
		return
	}
	WriteSuccess(w, product, nil)
}

// CreateProduct handles POST /api/v1/admin/products.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON payload", nil)
		return
	}
	if fieldErrors := req.validate(); fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	product := req.toModel(uuid.NewString())
	if err := h.queries.CreateProduct(r.Context(), product); err != nil {
		h.logger.Error("creating product failed", "category", model.LogCategoryProduct, "error", err)
		WriteInternalError(w, "Failed to create product")
		return
	}

	h.invalidateProductCache(r)
	h.logger.Info("product created", "category", model.LogCategoryProduct, "id", product.ID, "name", product.Name)
	WriteCreated(w, product)
}

// UpdateProduct handles PUT /api/v1/admin/products/{id}.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")

	var req ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON payload", nil)
		return
	}
	if fieldErrors := req.validate(); fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	product := req.toModel(id)
	if err := h.queries.UpdateProduct(r.Context(), product); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Product not found")
			return
		}
		h.logger.Error("updating product failed", "category", model.LogCategoryProduct, "id", id, "error", err)
		WriteInternalError(w, "Failed to update product")
		return
	}

	h.invalidateProductCache(r)
	WriteSuccess(w, product, nil)
}

// DeleteProduct handles DELETE /api/v1/admin/products/{id}.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.queries.DeleteProduct(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Product not found")
			return
		}
		h.logger.Error("deleting product failed", "category", model.LogCategoryProduct, "id", id, "error", err)
		WriteInternalError(w, "Failed to delete product")
		return
	}

	h.invalidateProductCache(r)
	w.WriteHeader(http.StatusNoContent)
}

// invalidateProductCache drops every cached ranked listing after a mutation.
func (h *Handler) invalidateProductCache(r *http.Request) {
	if err := h.cache.DeleteByPrefix(r.Context(), productsCachePrefix); err != nil {
		h.logger.Warn("cache invalidation failed", "category", model.LogCategoryCache, "prefix", productsCachePrefix, "error", err)
	}
}
