// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/Ibedes/ibedes/internal/model"
)

func createTestArticle(t *testing.T, h *Handler, body string) ArticleResponse {
	t.Helper()
	req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/articles", body, nil)
	w := executeHandler(t, h.CreateArticle, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}
	return unmarshalData[ArticleResponse](t, w)
}

func TestCreateArticleAutoSlug(t *testing.T) {
	h := newTestHandler(t)

	article := createTestArticle(t, h,
		`{"title":"Go Tips & Tricks","body":"# Hello","status":"published"}`)

	if article.Slug != "go-tips-tricks" {
		t.Errorf("slug = %q, want go-tips-tricks", article.Slug)
	}
	if article.ID == 0 {
		t.Error("expected assigned id")
	}
	if article.PublishedAt == nil {
		t.Error("published article should carry published_at")
	}
}

func TestCreateArticleValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"body":"text"}`, "title"},
		{"missing body", `{"title":"T"}`, "body"},
		{"bad status", `{"title":"T","body":"b","status":"archived"}`, "status"},
		{"bad slug", `{"title":"T","body":"b","slug":"Not A Slug"}`, "slug"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/articles", tt.body, nil)
			w := executeHandler(t, h.CreateArticle, req)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, want 422: %s", w.Code, w.Body.String())
			}
			var resp ErrorResponse
			mustUnmarshal(t, w, &resp)
			if _, ok := resp.Error.Details[tt.field]; !ok {
				t.Errorf("missing %q in details %v", tt.field, resp.Error.Details)
			}
		})
	}
}

func TestListArticlesPublishedOnly(t *testing.T) {
	h := newTestHandler(t)
	createTestArticle(t, h, `{"title":"Public","body":"b","status":"published"}`)
	createTestArticle(t, h, `{"title":"Draft","body":"b"}`)

	w := executeHandler(t, h.ListArticles, newGetRequest(t, "/api/v1/articles", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	articles, meta := unmarshalList[ArticleResponse](t, w)
	if len(articles) != 1 {
		t.Fatalf("len = %d, want only the published article", len(articles))
	}
	if articles[0].Title != "Public" {
		t.Errorf("title = %q", articles[0].Title)
	}
	if articles[0].Body != "" {
		t.Error("list responses must omit bodies")
	}
	if meta == nil || meta.Total != 1 {
		t.Errorf("meta = %+v", meta)
	}
}

func TestGetArticleRendersHTML(t *testing.T) {
	h := newTestHandler(t)
	createTestArticle(t, h,
		`{"title":"Markdown","body":"# Heading\n\n<script>alert(1)</script>","status":"published"}`)

	req := newGetRequest(t, "/api/v1/articles/markdown", map[string]string{"slug": "markdown"})
	w := executeHandler(t, h.GetArticle, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	article := unmarshalData[ArticleResponse](t, w)
	if !strings.Contains(article.HTML, "<h1") {
		t.Errorf("html = %q, want rendered heading", article.HTML)
	}
	if strings.Contains(article.HTML, "<script") {
		t.Errorf("html = %q, script must be stripped", article.HTML)
	}
	if article.Body == "" {
		t.Error("detail response should include the raw body")
	}
}

func TestGetArticleDraftHidden(t *testing.T) {
	h := newTestHandler(t)
	createTestArticle(t, h, `{"title":"Secret","body":"b"}`)

	req := newGetRequest(t, "/api/v1/articles/secret", map[string]string{"slug": "secret"})
	w := executeHandler(t, h.GetArticle, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for drafts", w.Code)
	}
}

func TestArticleReaction(t *testing.T) {
	h := newTestHandler(t)
	createTestArticle(t, h, `{"title":"Reactable","body":"b","status":"published"}`)

	for _, reaction := range []string{model.NotificationLike, model.NotificationBookmark, model.NotificationComment} {
		req := newJSONRequest(t, http.MethodPost, "/api/v1/articles/reactable/"+reaction, "",
			map[string]string{"slug": "reactable"})
		w := executeHandler(t, h.ArticleReaction(reaction), req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("%s status = %d, want 204: %s", reaction, w.Code, w.Body.String())
		}
	}

	w := executeHandler(t, h.ListNotifications, newGetRequest(t, "/api/v1/admin/notifications", nil))
	notifications, meta := unmarshalList[model.Notification](t, w)
	if len(notifications) != 3 {
		t.Fatalf("len(notifications) = %d, want 3", len(notifications))
	}
	if meta == nil || meta.Unread != 3 {
		t.Errorf("meta = %+v, want 3 unread", meta)
	}
}

func TestArticleReactionDraft(t *testing.T) {
	h := newTestHandler(t)
	createTestArticle(t, h, `{"title":"Unlisted","body":"b"}`)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/articles/unlisted/like", "",
		map[string]string{"slug": "unlisted"})
	w := executeHandler(t, h.ArticleReaction(model.NotificationLike), req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 for draft reactions", w.Code)
	}
}

func TestListAllArticlesIncludesDrafts(t *testing.T) {
	h := newTestHandler(t)
	createTestArticle(t, h, `{"title":"Public","body":"published body","status":"published"}`)
	createTestArticle(t, h, `{"title":"Draft","body":"draft body"}`)

	w := executeHandler(t, h.ListAllArticles, newGetRequest(t, "/api/v1/admin/articles", nil))
	articles, _ := unmarshalList[ArticleResponse](t, w)
	if len(articles) != 2 {
		t.Fatalf("len = %d, want 2", len(articles))
	}
	for _, a := range articles {
		if a.Body == "" {
			t.Errorf("admin listing must include bodies, %q is empty", a.Title)
		}
	}
}

func TestUpdateArticle(t *testing.T) {
	h := newTestHandler(t)
	created := createTestArticle(t, h, `{"title":"Before","body":"b"}`)

	id := strconv.FormatInt(created.ID, 10)
	req := newJSONRequest(t, http.MethodPut, "/api/v1/admin/articles/"+id,
		`{"title":"After","body":"b","slug":"before","status":"published"}`,
		map[string]string{"id": id})
	w := executeHandler(t, h.UpdateArticle, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	updated := unmarshalData[ArticleResponse](t, w)
	if updated.Title != "After" || updated.Status != model.ArticleStatusPublished {
		t.Errorf("updated = %+v", updated)
	}
}

func TestUpdateArticleNotFound(t *testing.T) {
	h := newTestHandler(t)

	req := newJSONRequest(t, http.MethodPut, "/api/v1/admin/articles/9999",
		`{"title":"T","body":"b"}`, map[string]string{"id": "9999"})
	w := executeHandler(t, h.UpdateArticle, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestDeleteArticle(t *testing.T) {
	h := newTestHandler(t)
	created := createTestArticle(t, h, `{"title":"Doomed","body":"b","status":"published"}`)

	id := strconv.FormatInt(created.ID, 10)
	w := executeHandler(t, h.DeleteArticle,
		newDeleteRequest(t, "/api/v1/admin/articles/"+id, map[string]string{"id": id}))
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	req := newGetRequest(t, "/api/v1/articles/doomed", map[string]string{"slug": "doomed"})
	w = executeHandler(t, h.GetArticle, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("status after delete = %d, want 404", w.Code)
	}
}

func TestDeleteArticleBadID(t *testing.T) {
	h := newTestHandler(t)

	w := executeHandler(t, h.DeleteArticle,
		newDeleteRequest(t, "/api/v1/admin/articles/abc", map[string]string{"id": "abc"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
