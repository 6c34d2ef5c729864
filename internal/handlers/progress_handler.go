// internal/handlers/progress_handler.go
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

type ProgressHandler struct {
	service service.ProgressService
	logger  *slog.Logger
}

func NewProgressHandler(s service.ProgressService, logger *slog.Logger) *ProgressHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressHandler{
		service: s,
		logger:  logger,
	}
}

// GetProgress は学生の進捗スナップショットを返すハンドラ。
// 学生ロールは自分自身の進捗のみ参照できる。
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetProgress"))

	studentID, ok := h.resolveStudentID(w, r, logger)
	if !ok {
		return
	}
	logger = logger.With(slog.String("student_id", studentID.String()))

	snapshot, err := h.service.GetProgress(r.Context(), studentID)
	if err != nil {
		logger.Error("Error getting progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, snapshot, logger)
}

// GetBadges は学生の獲得済みバッジ一覧を返すハンドラ
func (h *ProgressHandler) GetBadges(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetBadges"))

	studentID, ok := h.resolveStudentID(w, r, logger)
	if !ok {
		return
	}

	badges, err := h.service.GetBadges(r.Context(), studentID)
	if err != nil {
		logger.Error("Error getting badges in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, badges, logger)
}

// PostComplete は認証済み学生自身のレッスン完了報告のハンドラ
func (h *ProgressHandler) PostComplete(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostComplete"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("student_id", userID.String()))

	var req model.CompleteLessonRequest
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

	result, err := h.service.CompleteLesson(r.Context(), userID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Lesson completed successfully",
		slog.String("lesson_id", req.LessonID.String()),
		slog.Int("xp_earned", result.XPEarned),
	)
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}

// PostAward は教師・管理者による手動XP付与のハンドラ
func (h *ProgressHandler) PostAward(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostAward"))

	var req model.ManualAwardRequest
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

	result, err := h.service.AwardManual(r.Context(), &req)
	if err != nil {
		logger.Error("Error awarding progress in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Progress awarded successfully",
		slog.String("student_id", req.StudentID.String()),
		slog.String("lesson_id", req.LessonID.String()),
	)
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}

// resolveStudentID はURLのstudent_idを解決し、学生ロールの越権参照を拒否する
func (h *ProgressHandler) resolveStudentID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}

	studentIDStr := chi.URLParam(r, "student_id")
	if studentIDStr == "" || studentIDStr == "me" {
		return userID, true
	}

	studentID, err := uuid.Parse(studentIDStr)
	if err != nil {
		logger.Warn("Invalid student ID format in URL", slog.String("student_id_str", studentIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "student_idの形式が正しくありません。", "student_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}

	if studentID != userID {
		role, err := middleware.GetRoleFromContext(r.Context())
		if err != nil || role == model.RoleStudent {
			logger.Warn("Student attempted to access another student's progress",
				slog.String("target_student_id", studentID.String()))
			appErr := model.NewAppError("FORBIDDEN", "他の生徒の進捗は参照できません。", "", model.ErrForbidden)
			webutil.HandleError(w, logger, appErr)
			return uuid.Nil, false
		}
	}
	return studentID, true
}
