package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/servicedesk-backend/api/middleware"
	"github.com/angelmondragon/servicedesk-backend/api/responses"
	"github.com/angelmondragon/servicedesk-backend/api/validators"
	"github.com/angelmondragon/servicedesk-backend/internal/notifications"
	"github.com/angelmondragon/servicedesk-backend/pkg/logger"
)

// ListNotifications pages the caller's notifications newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("notifications"))
			return
		}

		params := notifications.ListParams{Cursor: strings.TrimSpace(r.URL.Query().Get("cursor"))}
		var err error
		if params.Limit, err = validators.ParseQueryInt(r, "limit", 0, 0, 100); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if params.UnreadOnly, err = validators.ParseQueryBool(r, "unread_only", false); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.List(r.Context(), middleware.ActorFromContext(r.Context()), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("notifications"))
			return
		}
		id, err := validators.ParseIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.MarkRead(r.Context(), middleware.ActorFromContext(r.Context()), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("notifications"))
			return
		}
		updated, err := svc.MarkAllRead(r.Context(), middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": updated})
	}
}
