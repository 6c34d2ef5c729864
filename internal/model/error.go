// internal/model/error.go
package model

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// アプリケーション固有のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("resource conflict") // 重複エラー用
)

// ErrorDetail はクライアントに返すエラーの詳細
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// APIErrorResponse はAPIエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// AppError はエラーコード・ユーザ向けメッセージ・原因エラーを保持するアプリケーションエラー
type AppError struct {
	Detail ErrorDetail
	Err    error
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		Err:    err,
	}
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Detail.Code, e.Detail.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Detail.Code, e.Detail.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// DuplicateAttemptError はクイズの再受験を拒否する際に、初回受験の結果を
// クライアントへ返すためのエラー。システム障害ではなく確定済みの状態を表す。
type DuplicateAttemptError struct {
	AttemptID uuid.UUID
	Score     int
	XPEarned  int
}

func (e *DuplicateAttemptError) Error() string {
	return "quiz already attempted"
}

func (e *DuplicateAttemptError) Unwrap() error {
	return ErrConflict
}
