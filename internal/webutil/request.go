package webutil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"manabi_quest/internal/model"
)

// DecodeJSONBody はリクエストボディをデコードします
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err != nil {
		slog.Debug("Error decoding JSON body", "error", err)
		return model.NewAppError("INVALID_JSON", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
	}
	return nil
}
