// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Ibedes/ibedes/internal/middleware"
	"github.com/Ibedes/ibedes/internal/model"
)

// RouterConfig carries the routing knobs from application config.
type RouterConfig struct {
	AdminToken string
	CORSOrigin string
	CollectRPS int // per-IP requests per second on the collect endpoint
}

// NewRouter builds the service's HTTP routes.
func NewRouter(h *Handler, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", h.Health)

	rps := cfg.CollectRPS
	if rps <= 0 {
		rps = 20
	}
	collectLimiter := middleware.NewRateLimiter(float64(rps), rps*2)

	r.Route("/api/v1", func(r chi.Router) {
		// Analytics. The collect endpoint is called cross-origin by the
		// tracking snippet; the read side serves the same dashboards.
		r.Route("/analytics", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.CORSOrigin))
			r.With(collectLimiter.Middleware()).Post("/collect", h.Collect)
			r.Options("/collect", preflight)
			r.Get("/insights", h.Insights)
			r.Get("/overview", h.Overview)
			r.Get("/realtime", h.Realtime)
			r.Get("/subscriptions", h.Subscriptions)
		})

		// Marketplace and content, public read side.
		r.Get("/products", h.ListRankedProducts)
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", h.ListArticles)
			r.Get("/{slug}", h.GetArticle)
			r.With(collectLimiter.Middleware()).Post("/{slug}/like", h.ArticleReaction(model.NotificationLike))
			r.With(collectLimiter.Middleware()).Post("/{slug}/bookmark", h.ArticleReaction(model.NotificationBookmark))
			r.With(collectLimiter.Middleware()).Post("/{slug}/comment", h.ArticleReaction(model.NotificationComment))
		})

		// Admin surface behind the static bearer token.
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminAuth(cfg.AdminToken))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", h.ListProducts)
				r.Post("/", h.CreateProduct)
				r.Get("/{id}", h.GetProduct)
				r.Put("/{id}", h.UpdateProduct)
				r.Delete("/{id}", h.DeleteProduct)
			})

			r.Route("/articles", func(r chi.Router) {
				r.Get("/", h.ListAllArticles)
				r.Post("/", h.CreateArticle)
				r.Put("/{id}", h.UpdateArticle)
				r.Delete("/{id}", h.DeleteArticle)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", h.ListNotifications)
				r.Post("/read-all", h.MarkAllNotificationsRead)
				r.Post("/{id}/read", h.MarkNotificationRead)
				r.Delete("/{id}", h.DeleteNotification)
			})

			r.Post("/analytics/retention/run", h.RetentionRun)
		})
	})

	return r
}

// preflight is never reached when the CORS middleware answers OPTIONS; it
// exists so chi registers the method.
func preflight(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
