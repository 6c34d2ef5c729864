//go:generate mockery --name LessonRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonRepository interface {
	Create(ctx context.Context, db *gorm.DB, lesson *model.Lesson) error
	FindByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error)
	FindByTitle(ctx context.Context, db *gorm.DB, title string) (*model.Lesson, error)
	FindByIDs(ctx context.Context, db *gorm.DB, lessonIDs []uuid.UUID) ([]*model.Lesson, error)
	List(ctx context.Context, db *gorm.DB) ([]*model.Lesson, error)
	Delete(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) error
}

type gormLessonRepository struct{}

func NewGormLessonRepository() LessonRepository {
	return &gormLessonRepository{}
}

func (r *gormLessonRepository) Create(ctx context.Context, db *gorm.DB, lesson *model.Lesson) error {
	result := db.WithContext(ctx).Create(lesson)
	if result.Error != nil {
		return fmt.Errorf("gormLessonRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormLessonRepository) FindByID(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) (*model.Lesson, error) {
	var lesson model.Lesson
	result := db.WithContext(ctx).Where("lesson_id = ?", lessonID).First(&lesson)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormLessonRepository.FindByID: %w", result.Error)
	}
	return &lesson, nil
}

func (r *gormLessonRepository) FindByTitle(ctx context.Context, db *gorm.DB, title string) (*model.Lesson, error) {
	var lesson model.Lesson
	result := db.WithContext(ctx).Where("title = ?", title).First(&lesson)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormLessonRepository.FindByTitle: %w", result.Error)
	}
	return &lesson, nil
}

// FindByIDs は台帳スナップショットの完了レッスン展開用。存在しないIDは
// 結果から抜けるだけでエラーにはしない（削除済みレッスンを許容）。
func (r *gormLessonRepository) FindByIDs(ctx context.Context, db *gorm.DB, lessonIDs []uuid.UUID) ([]*model.Lesson, error) {
	if len(lessonIDs) == 0 {
		return []*model.Lesson{}, nil
	}
	var lessons []*model.Lesson
	result := db.WithContext(ctx).Where("lesson_id IN ?", lessonIDs).Find(&lessons)
	if result.Error != nil {
		return nil, fmt.Errorf("gormLessonRepository.FindByIDs: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormLessonRepository) List(ctx context.Context, db *gorm.DB) ([]*model.Lesson, error) {
	var lessons []*model.Lesson
	result := db.WithContext(ctx).Order("created_at DESC").Find(&lessons)
	if result.Error != nil {
		return nil, fmt.Errorf("gormLessonRepository.List: %w", result.Error)
	}
	return lessons, nil
}

func (r *gormLessonRepository) Delete(ctx context.Context, db *gorm.DB, lessonID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Delete(&model.Lesson{}, lessonID)
	if result.Error != nil {
		logger.Error("Error deleting lesson in DB", "error", result.Error, "lesson_id", lessonID.String())
		return fmt.Errorf("gormLessonRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
