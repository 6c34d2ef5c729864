// internal/handlers/sync_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/service"
	"manabi_quest/internal/webutil"
)

type SyncHandler struct {
	service service.SyncService
	logger  *slog.Logger
}

func NewSyncHandler(s service.SyncService, logger *slog.Logger) *SyncHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SyncHandler{
		service: s,
		logger:  logger,
	}
}

// PostSync はオフラインキューの一括同期のハンドラ。
// opsが空でも200で空の結果を返す。
func (h *SyncHandler) PostSync(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostSync"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.SyncRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	resp, err := h.service.Sync(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error processing sync batch in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Sync batch handled",
		slog.Int("ops", len(req.Ops)),
		slog.Int("synced", len(resp.Results.Synced)),
		slog.Int("conflicts", len(resp.Results.Conflicts)),
	)
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}
