package webutil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"NotFoundは404", model.ErrNotFound, http.StatusNotFound},
		{"InvalidInputは400", model.ErrInvalidInput, http.StatusBadRequest},
		{"Conflictは409", model.ErrConflict, http.StatusConflict},
		{"Forbiddenは403", model.ErrForbidden, http.StatusForbidden},
		{"未知のエラーは500", errors.New("boom"), http.StatusInternalServerError},
		{"AppErrorはラップ元で判定される", model.NewAppError("X", "msg", "", model.ErrNotFound), http.StatusNotFound},
		{"再受験エラーは409", &model.DuplicateAttemptError{}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestHandleError_DuplicateAttempt(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	attemptID := uuid.New()
	HandleError(rec, logger, &model.DuplicateAttemptError{
		AttemptID: attemptID,
		Score:     7,
		XPEarned:  14,
	})

	assert.Equal(t, http.StatusConflict, rec.Code)

	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		AttemptID string `json:"attempt_id"`
		Score     int    `json:"score"`
		XPEarned  int    `json:"xp_earned"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ALREADY_ATTEMPTED", body.Error.Code)
	assert.Equal(t, attemptID.String(), body.AttemptID)
	assert.Equal(t, 7, body.Score)
	assert.Equal(t, 14, body.XPEarned)
}

func TestHandleError_AppError(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rec := httptest.NewRecorder()

	HandleError(rec, logger, model.NewAppError("VALIDATION_ERROR", "入力が不正です。", "name", model.ErrInvalidInput))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "name", resp.Error.Field)
}
