// internal/model/quiz.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionType string

const (
	QuestionTypeMCQ   QuestionType = "mcq"
	QuestionTypeShort QuestionType = "short"
)

// Question はクイズに埋め込まれる設問。独立したテーブルは持たず、
// クイズ1件を1行に保つためJSONカラムとして永続化する。
type Question struct {
	QuestionID  uuid.UUID    `json:"question_id"`
	Text        string       `json:"text"`
	Type        QuestionType `json:"type"`
	Options     []string     `json:"options,omitempty"`
	AnswerIndex int          `json:"answer_index"`
	Marks       int          `json:"marks"`
}

type Quiz struct {
	QuizID    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"quiz_id"`
	Title     string         `gorm:"not null" json:"title"`
	Questions []Question     `gorm:"serializer:json" json:"questions"`
	CreatedBy uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// クイズ作成リクエストDTO
type PostQuizRequest struct {
	Title     string                `json:"title" validate:"required,min=1,max=200"`
	Questions []PostQuestionRequest `json:"questions" validate:"required,min=1,dive"`
}

type PostQuestionRequest struct {
	Text        string       `json:"text" validate:"required"`
	Type        QuestionType `json:"type" validate:"omitempty,oneof=mcq short"`
	Options     []string     `json:"options"`
	AnswerIndex int          `json:"answer_index"`
	Marks       int          `json:"marks" validate:"omitempty,min=1"`
}

// AnswerSubmission は受験時の1設問への回答
type AnswerSubmission struct {
	QuestionID uuid.UUID `json:"question_id"`
	Answer     int       `json:"answer"`
}

type AttemptQuizRequest struct {
	Answers []AnswerSubmission `json:"answers" validate:"required"`
}

// AttemptResult は採点結果のレスポンス
type AttemptResult struct {
	AttemptID  uuid.UUID `json:"attempt_id"`
	Score      int       `json:"score"`
	TotalMarks int       `json:"total_marks"`
	XPEarned   int       `json:"xp_earned"`
	NewXP      int       `json:"new_xp"`
	NewLevel   int       `json:"new_level"`
	NewBadges  []string  `json:"new_badges"`
}
