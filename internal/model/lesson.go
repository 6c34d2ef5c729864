// internal/model/lesson.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lesson は教材（レッスン）を表します
type Lesson struct {
	LessonID    uuid.UUID      `gorm:"type:uuid;primaryKey" json:"lesson_id"`
	Title       string         `gorm:"not null;index" json:"title"`
	Description string         `json:"description"`
	FileURL     string         `json:"file_url"`
	VideoURL    string         `json:"video_url"`
	Language    string         `json:"language"`
	Grade       string         `json:"grade"`
	CreatedBy   uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Lesson) TableName() string {
	return "lessons"
}

// レッスン作成リクエストDTO
type PostLessonRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	FileURL     string `json:"file_url" validate:"omitempty,url"`
	VideoURL    string `json:"video_url" validate:"omitempty,url"`
	Language    string `json:"language"`
	Grade       string `json:"grade"`
}

// LessonSummary は台帳スナップショット内で完了レッスンを表示するための要約
type LessonSummary struct {
	LessonID uuid.UUID `json:"lesson_id"`
	Title    string    `json:"title"`
	FileURL  string    `json:"file_url,omitempty"`
}
