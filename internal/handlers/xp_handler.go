// internal/handlers/xp_handler.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"manabi_quest/internal/model"
	"manabi_quest/internal/service"
	"manabi_quest/internal/webutil"

	"github.com/go-playground/validator/v10"
)

// XPHandler はメールアドレス指定のXP付与（管理ツール向け）のハンドラ
type XPHandler struct {
	service service.ProgressService
	logger  *slog.Logger
}

func NewXPHandler(s service.ProgressService, logger *slog.Logger) *XPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &XPHandler{
		service: s,
		logger:  logger,
	}
}

// PostAddXP はメールアドレスとレッスンタイトルを指定してXPを付与する
func (h *XPHandler) PostAddXP(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostAddXP"))

	var req model.AddXPByEmailRequest
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

	result, err := h.service.AwardByEmail(r.Context(), &req)
	if err != nil {
		logger.Error("Error awarding xp by email in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("XP awarded by email", slog.String("student", result.Student), slog.Int("xp", result.XP))
	webutil.RespondWithJSON(w, http.StatusOK, result, logger)
}
