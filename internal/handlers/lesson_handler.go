// internal/handlers/lesson_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/service"
	"manabi_quest/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type LessonHandler struct {
	service service.LessonService
	logger  *slog.Logger
}

func NewLessonHandler(s service.LessonService, logger *slog.Logger) *LessonHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LessonHandler{
		service: s,
		logger:  logger,
	}
}

// PostLesson は新しいレッスンを作成するためのハンドラ
func (h *LessonHandler) PostLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostLesson"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PostLessonRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := webutil.Validator.Struct(req); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			firstErr := validationErrors[0]
			appErr := model.NewAppError(
				"VALIDATION_ERROR",
				firstErr.Translate(webutil.Trans),
				firstErr.Field(),
				model.ErrInvalidInput,
			)
			webutil.HandleError(w, logger, appErr)
		} else {
			logger.Error("Unexpected error during validation", slog.Any("error", err))
			webutil.HandleError(w, logger, err)
		}
		return
	}

	lesson, err := h.service.CreateLesson(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error creating lesson in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson posted successfully", slog.String("lesson_id", lesson.LessonID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, lesson, logger)
}

// GetLessons はレッスン一覧を取得するためのハンドラ
func (h *LessonHandler) GetLessons(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetLessons"))

	lessons, err := h.service.ListLessons(r.Context())
	if err != nil {
		logger.Error("Error listing lessons in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if lessons == nil {
		lessons = []*model.Lesson{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, lessons, logger)
}

// GetLesson は特定のレッスンを取得するためのハンドラ
func (h *LessonHandler) GetLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetLesson"))

	lessonIDStr := chi.URLParam(r, "lesson_id")
	lessonID, err := uuid.Parse(lessonIDStr)
	if err != nil {
		logger.Warn("Invalid lesson ID format in URL", slog.String("lesson_id_str", lessonIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "lesson_idの形式が正しくありません。", "lesson_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	lesson, err := h.service.GetLesson(r.Context(), lessonID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, lesson, logger)
}

// DeleteLesson は特定のレッスンを削除するためのハンドラ
func (h *LessonHandler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteLesson"))

	lessonIDStr := chi.URLParam(r, "lesson_id")
	lessonID, err := uuid.Parse(lessonIDStr)
	if err != nil {
		logger.Warn("Invalid lesson ID format in URL", slog.String("lesson_id_str", lessonIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "lesson_idの形式が正しくありません。", "lesson_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := h.service.DeleteLesson(r.Context(), lessonID); err != nil {
		logger.Error("Error deleting lesson in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson deleted successfully", slog.String("lesson_id", lessonID.String()))
	w.WriteHeader(http.StatusNoContent)
}
