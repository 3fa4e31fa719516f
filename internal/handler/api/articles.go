// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/service"
	"github.com/Ibedes/ibedes/internal/util"
)

const defaultArticleListLimit = 50

// ArticleResponse represents an article in API responses. HTML carries the
// rendered body; List omits it.
type ArticleResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Body        string     `json:"body,omitempty"`
	HTML        string     `json:"html,omitempty"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// ArticleRequest is the request body for creating or updating an article.
type ArticleRequest struct {
	Title  string `json:"title"`
	Slug   string `json:"slug,omitempty"`
	Body   string `json:"body"`
	Status string `json:"status,omitempty"`
}

func articleToResponse(a model.Article, includeBody bool) ArticleResponse {
	resp := ArticleResponse{
		ID:        a.ID,
		Title:     a.Title,
		Slug:      a.Slug,
		Status:    a.Status,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
	if includeBody {
		resp.Body = a.Body
	}
	if a.PublishedAt.Valid {
		resp.PublishedAt = &a.PublishedAt.Time
	}
	return resp
}

// ListArticles handles GET /api/v1/articles: published articles newest first.
func (h *Handler) ListArticles(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	limit := queryInt(r, "limit", defaultArticleListLimit)
	if limit <= 0 || limit > 200 {
		limit = defaultArticleListLimit
	}

	articles, err := h.queries.ListArticles(r.Context(), true, limit)
	if err != nil {
		h.logger.Error("listing articles failed", "category", model.LogCategoryArticle, "error", err)
		WriteInternalError(w, "Failed to list articles")
		return
	}

	responses := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, articleToResponse(a, false))
	}
	WriteSuccess(w, responses, &Meta{Total: int64(len(responses))})
}

// GetArticle handles GET /api/v1/articles/{slug}: one published article with
// its body rendered to sanitized HTML.
func (h *Handler) GetArticle(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	slug := chi.URLParam(r, "slug")

	article, err := h.queries.GetArticleBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Article not found")
			return
		}
		h.logger.Error("fetching article failed", "category", model.LogCategoryArticle, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to retrieve article")
		return
	}
	if !article.IsPublished() {
		WriteNotFound(w, "Article not found")
		return
	}

	html, err := service.RenderMarkdown(article.Body)
	if err != nil {
		h.logger.Error("rendering article failed", "category", model.LogCategoryArticle, "slug", slug, "error", err)
		WriteInternalError(w, "Failed to render article")
		return
	}

	resp := articleToResponse(article, true)
	resp.HTML = html
	WriteSuccess(w, resp, nil)
}

// ArticleReaction handles the public POST /api/v1/articles/{slug}/{like,bookmark}
// endpoints. A reaction records an admin notification for the article.
func (h *Handler) ArticleReaction(reaction string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.requireStore(w) {
			return
		}
		slug := chi.URLParam(r, "slug")

		article, err := h.queries.GetArticleBySlug(r.Context(), slug)
		if err != nil || !article.IsPublished() {
			WriteNotFound(w, "Article not found")
			return
		}

		switch reaction {
		case model.NotificationLike:
			_, err = h.notify.ArticleLiked(r.Context(), article.Title, article.Slug)
		case model.NotificationBookmark:
			_, err = h.notify.ArticleBookmarked(r.Context(), article.Title, article.Slug)
		case model.NotificationComment:
			_, err = h.notify.ArticleCommented(r.Context(), article.Title, article.Slug)
		default:
			WriteBadRequest(w, "Unknown reaction", nil)
			return
		}
		if err != nil {
			h.logger.Error("recording reaction failed", "category", model.LogCategoryNotify, "reaction", reaction, "slug", slug, "error", err)
			WriteInternalError(w, "Failed to record reaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListAllArticles handles GET /api/v1/admin/articles: every article including
// drafts, with bodies.
func (h *Handler) ListAllArticles(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	limit := queryInt(r, "limit", defaultArticleListLimit)
	if limit <= 0 || limit > 200 {
		limit = defaultArticleListLimit
	}

	articles, err := h.queries.ListArticles(r.Context(), false, limit)
	if err != nil {
		h.logger.Error("listing articles failed", "category", model.LogCategoryArticle, "error", err)
		WriteInternalError(w, "Failed to list articles")
		return
	}

	responses := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		responses = append(responses, articleToResponse(a, true))
	}
	WriteSuccess(w, responses, &Meta{Total: int64(len(responses))})
}

// CreateArticle handles POST /api/v1/admin/articles.
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}

	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON payload", nil)
		return
	}

	article, fieldErrors := h.articleFromRequest(req)
	if fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}

	id, err := h.queries.CreateArticle(r.Context(), article)
	if err != nil {
		h.logger.Error("creating article failed", "category", model.LogCategoryArticle, "error", err)
		WriteInternalError(w, "Failed to create article")
		return
	}
	article.ID = id

	h.logger.Info("article created", "category", model.LogCategoryArticle, "id", id, "slug", article.Slug)
	WriteCreated(w, articleToResponse(article, true))
}

// UpdateArticle handles PUT /api/v1/admin/articles/{id}.
func (h *Handler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}

	var req ArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid JSON payload", nil)
		return
	}

	article, fieldErrors := h.articleFromRequest(req)
	if fieldErrors != nil {
		WriteValidationError(w, fieldErrors)
		return
	}
	article.ID = id

	if err := h.queries.UpdateArticle(r.Context(), article); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Article not found")
			return
		}
		h.logger.Error("updating article failed", "category", model.LogCategoryArticle, "id", id, "error", err)
		WriteInternalError(w, "Failed to update article")
		return
	}
	WriteSuccess(w, articleToResponse(article, true), nil)
}

// DeleteArticle handles DELETE /api/v1/admin/articles/{id}.
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteBadRequest(w, "Invalid article ID", nil)
		return
	}

	if err := h.queries.DeleteArticle(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			WriteNotFound(w, "Article not found")
			return
		}
		h.logger.Error("deleting article failed", "category", model.LogCategoryArticle, "id", id, "error", err)
		WriteInternalError(w, "Failed to delete article")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// articleFromRequest validates and normalizes an article payload. The slug is
// derived from the title when absent; publishing stamps published_at.
func (h *Handler) articleFromRequest(req ArticleRequest) (model.Article, map[string]string) {
	fieldErrors := make(map[string]string)
	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}
	if req.Body == "" {
		fieldErrors["body"] = "Body is required"
	}

	status := req.Status
	if status == "" {
		status = model.ArticleStatusDraft
	}
	if status != model.ArticleStatusDraft && status != model.ArticleStatusPublished {
		fieldErrors["status"] = "Status must be draft or published"
	}

	slug := req.Slug
	if slug == "" {
		slug = util.Slugify(req.Title)
	}
	if !util.IsValidSlug(slug) {
		fieldErrors["slug"] = "Invalid slug"
	}

	if len(fieldErrors) > 0 {
		return model.Article{}, fieldErrors
	}

	article := model.Article{
		Title:  req.Title,
		Slug:   slug,
		Body:   req.Body,
		Status: status,
	}
	if status == model.ArticleStatusPublished {
		article.PublishedAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
	}
	return article, nil
}
