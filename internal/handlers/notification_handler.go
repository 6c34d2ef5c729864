// internal/handlers/notification_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/service"
	"manabi_quest/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type NotificationHandler struct {
	service service.NotificationService
	logger  *slog.Logger
}

func NewNotificationHandler(s service.NotificationService, logger *slog.Logger) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		service: s,
		logger:  logger,
	}
}

// GetNotifications は自分宛の通知一覧を新しい順に返すハンドラ
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetNotifications"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	notifications, err := h.service.ListNotifications(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing notifications in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if notifications == nil {
		notifications = []*model.Notification{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, notifications, logger)
}

// PatchNotificationRead は通知を既読にするハンドラ
func (h *NotificationHandler) PatchNotificationRead(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchNotificationRead"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	notificationIDStr := chi.URLParam(r, "notification_id")
	notificationID, err := uuid.Parse(notificationIDStr)
	if err != nil {
		logger.Warn("Invalid notification ID format in URL", slog.String("notification_id_str", notificationIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "notification_idの形式が正しくありません。", "notification_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := h.service.MarkRead(r.Context(), userID, notificationID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
