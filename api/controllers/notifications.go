package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/fsamadov/tezbazar-backend/api/middleware"
	"github.com/fsamadov/tezbazar-backend/api/responses"
	"github.com/fsamadov/tezbazar-backend/api/validators"
	"github.com/fsamadov/tezbazar-backend/internal/notifications"
	"github.com/fsamadov/tezbazar-backend/pkg/enums"
	"github.com/fsamadov/tezbazar-backend/pkg/logger"
)

// ListNotifications returns the caller's notifications, newest first.
func ListNotifications(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		list, err := svc.ListByUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// UnreadNotificationCount returns the caller's unread badge count.
func UnreadNotificationCount(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		count, err := svc.UnreadCount(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"count": count})
	}
}

// MarkNotificationRead marks a single notification as read.
func MarkNotificationRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := validators.ParseUUIDParam(r, "notificationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		if err := svc.MarkRead(r.Context(), userID, notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"read": true})
	}
}

type notificationPayload struct {
	UserID         string  `json:"userId" validate:"required,uuid"`
	Title          string  `json:"title" validate:"required,max=200"`
	Message        string  `json:"message" validate:"required,max=1000"`
	Type           string  `json:"type" validate:"omitempty,oneof=info success warning order"`
	RelatedOrderID *string `json:"relatedOrderId,omitempty" validate:"omitempty,uuid"`
}

// CreateNotification lets an operator push a manual notification to a user.
// Order lifecycle notifications are emitted by the orders service instead.
func CreateNotification(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload notificationPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := notifications.EmitInput{
			UserID:  uuid.MustParse(payload.UserID),
			Title:   payload.Title,
			Message: payload.Message,
			Type:    enums.NotificationType(payload.Type),
		}
		if payload.RelatedOrderID != nil {
			orderID := uuid.MustParse(*payload.RelatedOrderID)
			input.RelatedOrderID = &orderID
		}

		notification, err := svc.Emit(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, notification)
	}
}

// MarkAllNotificationsRead marks every unread notification as read.
func MarkAllNotificationsRead(svc notifications.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.UserIDFromContext(r.Context())
		count, err := svc.MarkAllRead(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"updated": count})
	}
}
