// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ibedes/ibedes/internal/model"
)

// ListNotifications handles GET /api/v1/admin/notifications. Meta carries the
// unread count alongside the total.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	ctx := r.Context()

	limit := queryInt(r, "limit", model.MaxNotifications)
	notifications, err := h.notify.List(ctx, limit)
	if err != nil {
		h.logger.Error("listing notifications failed", "category", model.LogCategoryNotify, "error", err)
		WriteInternalError(w, "Failed to list notifications")
		return
	}

	unread, err := h.notify.CountUnread(ctx)
	if err != nil {
		h.logger.Error("counting unread notifications failed", "category", model.LogCategoryNotify, "error", err)
		WriteInternalError(w, "Failed to list notifications")
		return
	}

	WriteSuccess(w, notifications, &Meta{
		Total:  int64(len(notifications)),
		Unread: unread,
	})
}

// MarkNotificationRead handles POST /api/v1/admin/notifications/{id}/read.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.notify.MarkRead(r.Context(), id); err != nil {
		h.logger.Error("marking notification read failed", "category", model.LogCategoryNotify, "id", id, "error", err)
		WriteInternalError(w, "Failed to mark notification read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkAllNotificationsRead handles POST /api/v1/admin/notifications/read-all.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	if err := h.notify.MarkAllRead(r.Context()); err != nil {
		h.logger.Error("marking notifications read failed", "category", model.LogCategoryNotify, "error", err)
		WriteInternalError(w, "Failed to mark notifications read")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification handles DELETE /api/v1/admin/notifications/{id}.
func (h *Handler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !h.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.notify.Delete(r.Context(), id); err != nil {
		h.logger.Error("deleting notification failed", "category", model.LogCategoryNotify, "id", id, "error", err)
		WriteInternalError(w, "Failed to delete notification")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
