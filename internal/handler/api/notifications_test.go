// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/Ibedes/ibedes/internal/model"
	"github.com/Ibedes/ibedes/internal/notify"
)

func seedNotifications(t *testing.T, h *Handler, n int) []model.Notification {
	t.Helper()
	out := make([]model.Notification, 0, n)
	for i := 0; i < n; i++ {
		notification, err := h.notify.Add(context.Background(), notify.Input{
			Type:     model.NotificationNewsletter,
			Metadata: map[string]string{"email": "reader@example.com"},
		})
		if err != nil {
			t.Fatalf("seeding notification: %v", err)
		}
		out = append(out, notification)
	}
	return out
}

func TestListNotifications(t *testing.T) {
	h := newTestHandler(t)
	seedNotifications(t, h, 2)

	w := executeHandler(t, h.ListNotifications, newGetRequest(t, "/api/v1/admin/notifications", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	notifications, meta := unmarshalList[model.Notification](t, w)
	if len(notifications) != 2 {
		t.Fatalf("len = %d, want 2", len(notifications))
	}
	if notifications[0].Title != "📧 New Newsletter Subscriber" {
		t.Errorf("title = %q", notifications[0].Title)
	}
	if meta == nil || meta.Total != 2 || meta.Unread != 2 {
		t.Errorf("meta = %+v, want total 2 unread 2", meta)
	}
}

func TestListNotificationsEmpty(t *testing.T) {
	h := newTestHandler(t)

	w := executeHandler(t, h.ListNotifications, newGetRequest(t, "/api/v1/admin/notifications", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	notifications, _ := unmarshalList[model.Notification](t, w)
	if len(notifications) != 0 {
		t.Errorf("len = %d, want 0", len(notifications))
	}
}

func TestMarkNotificationRead(t *testing.T) {
	h := newTestHandler(t)
	seeded := seedNotifications(t, h, 2)

	req := newJSONRequest(t, http.MethodPost,
		"/api/v1/admin/notifications/"+seeded[0].ID+"/read", "",
		map[string]string{"id": seeded[0].ID})
	w := executeHandler(t, h.MarkNotificationRead, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	w = executeHandler(t, h.ListNotifications, newGetRequest(t, "/api/v1/admin/notifications", nil))
	_, meta := unmarshalList[model.Notification](t, w)
	if meta == nil || meta.Unread != 1 {
		t.Errorf("meta = %+v, want 1 unread", meta)
	}
}

func TestMarkAllNotificationsRead(t *testing.T) {
	h := newTestHandler(t)
	seedNotifications(t, h, 3)

	req := newJSONRequest(t, http.MethodPost, "/api/v1/admin/notifications/read-all", "", nil)
	w := executeHandler(t, h.MarkAllNotificationsRead, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	w = executeHandler(t, h.ListNotifications, newGetRequest(t, "/api/v1/admin/notifications", nil))
	_, meta := unmarshalList[model.Notification](t, w)
	if meta != nil && meta.Unread != 0 {
		t.Errorf("meta = %+v, want 0 unread", meta)
	}
}

func TestDeleteNotification(t *testing.T) {
	h := newTestHandler(t)
	seeded := seedNotifications(t, h, 1)

	req := newDeleteRequest(t, "/api/v1/admin/notifications/"+seeded[0].ID,
		map[string]string{"id": seeded[0].ID})
	w := executeHandler(t, h.DeleteNotification, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}

	w = executeHandler(t, h.ListNotifications, newGetRequest(t, "/api/v1/admin/notifications", nil))
	notifications, _ := unmarshalList[model.Notification](t, w)
	if len(notifications) != 0 {
		t.Errorf("len after delete = %d, want 0", len(notifications))
	}
}
