// internal/model/attempt.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// QuizAttempt は「1学生につき1クイズ1回」を強制する恒久的な受験記録。
// 複合ユニークインデックスが一意性の本体で、opIdによる冪等化とは別の仕組み。
type QuizAttempt struct {
	AttemptID uuid.UUID          `gorm:"type:uuid;primaryKey" json:"attempt_id"`
	StudentID uuid.UUID          `gorm:"type:uuid;not null;index:idx_student_quiz,unique" json:"student_id"`
	QuizID    uuid.UUID          `gorm:"type:uuid;not null;index:idx_student_quiz,unique" json:"quiz_id"`
	Answers   []AnswerSubmission `gorm:"serializer:json" json:"answers"`
	Score     int                `gorm:"not null" json:"score"`
	XPEarned  int                `gorm:"not null" json:"xp_earned"`
	CreatedAt time.Time          `json:"created_at"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

// AttemptListItem は受験履歴一覧の1件（クイズタイトル付き）
type AttemptListItem struct {
	AttemptID uuid.UUID `json:"attempt_id"`
	QuizID    uuid.UUID `json:"quiz_id"`
	QuizTitle string    `json:"quiz_title"`
	Score     int       `json:"score"`
	XPEarned  int       `json:"xp_earned"`
	CreatedAt time.Time `json:"created_at"`
}
