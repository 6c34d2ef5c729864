// internal/handlers/quiz_handler.go
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

type QuizHandler struct {
	service service.QuizService
	logger  *slog.Logger
}

func NewQuizHandler(s service.QuizService, logger *slog.Logger) *QuizHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuizHandler{
		service: s,
		logger:  logger,
	}
}

// PostQuiz は新しいクイズを作成するためのハンドラ
func (h *QuizHandler) PostQuiz(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostQuiz"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PostQuizRequest
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

	quiz, err := h.service.CreateQuiz(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error creating quiz in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Quiz posted successfully", slog.String("quiz_id", quiz.QuizID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, quiz, logger)
}

// GetQuizzes はクイズ一覧を取得するためのハンドラ
func (h *QuizHandler) GetQuizzes(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetQuizzes"))

	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		logger.Error("Error listing quizzes in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	if quizzes == nil {
		quizzes = []*model.Quiz{}
	}
	webutil.RespondWithJSON(w, http.StatusOK, quizzes, logger)
}

// GetQuiz は特定のクイズを取得するためのハンドラ
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetQuiz"))

	quizID, ok := h.parseQuizID(w, r, logger)
	if !ok {
		return
	}

	quiz, err := h.service.GetQuiz(r.Context(), quizID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, quiz, logger)
}

// DeleteQuiz は特定のクイズを削除するためのハンドラ
func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteQuiz"))

	quizID, ok := h.parseQuizID(w, r, logger)
	if !ok {
		return
	}

	if err := h.service.DeleteQuiz(r.Context(), quizID); err != nil {
		logger.Error("Error deleting quiz in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Quiz deleted successfully", slog.String("quiz_id", quizID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// AttemptQuiz はクイズを受験し採点結果を返すハンドラ
func (h *QuizHandler) AttemptQuiz(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "AttemptQuiz"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("student_id", userID.String()))

	quizID, ok := h.parseQuizID(w, r, logger)
	if !ok {
		return
	}

	var req model.AttemptQuizRequest
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

	result, err := h.service.AttemptQuiz(r.Context(), userID, quizID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Quiz attempted successfully",
		slog.String("quiz_id", quizID.String()),
		slog.Int("score", result.Score),
		slog.Int("xp_earned", result.XPEarned),
	)
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}

// GetAttempts は自分の受験履歴を取得するためのハンドラ
func (h *QuizHandler) GetAttempts(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetAttempts"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	attempts, err := h.service.ListAttempts(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing attempts in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, attempts, logger)
}

func (h *QuizHandler) parseQuizID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	quizIDStr := chi.URLParam(r, "quiz_id")
	quizID, err := uuid.Parse(quizIDStr)
	if err != nil {
		logger.Warn("Invalid quiz ID format in URL", slog.String("quiz_id_str", quizIDStr))
		appErr := model.NewAppError("INVALID_URL_PARAM", "quiz_idの形式が正しくありません。", "quiz_id", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return uuid.Nil, false
	}
	return quizID, true
}
