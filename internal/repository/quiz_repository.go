//go:generate mockery --name QuizRepository --output ./mocks --outpkg mocks --case=underscore
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

type QuizRepository interface {
	Create(ctx context.Context, db *gorm.DB, quiz *model.Quiz) error
	FindByID(ctx context.Context, db *gorm.DB, quizID uuid.UUID) (*model.Quiz, error)
	List(ctx context.Context, db *gorm.DB) ([]*model.Quiz, error)
	Delete(ctx context.Context, db *gorm.DB, quizID uuid.UUID) error
}

type gormQuizRepository struct{}

func NewGormQuizRepository() QuizRepository {
	return &gormQuizRepository{}
}

func (r *gormQuizRepository) Create(ctx context.Context, db *gorm.DB, quiz *model.Quiz) error {
	result := db.WithContext(ctx).Create(quiz)
	if result.Error != nil {
		return fmt.Errorf("gormQuizRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormQuizRepository) FindByID(ctx context.Context, db *gorm.DB, quizID uuid.UUID) (*model.Quiz, error) {
	var quiz model.Quiz
	result := db.WithContext(ctx).Where("quiz_id = ?", quizID).First(&quiz)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormQuizRepository.FindByID: %w", result.Error)
	}
	return &quiz, nil
}

func (r *gormQuizRepository) List(ctx context.Context, db *gorm.DB) ([]*model.Quiz, error) {
	var quizzes []*model.Quiz
	result := db.WithContext(ctx).Order("created_at DESC").Find(&quizzes)
	if result.Error != nil {
		return nil, fmt.Errorf("gormQuizRepository.List: %w", result.Error)
	}
	return quizzes, nil
}

func (r *gormQuizRepository) Delete(ctx context.Context, db *gorm.DB, quizID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Delete(&model.Quiz{}, quizID)
	if result.Error != nil {
		logger.Error("Error deleting quiz in DB", "error", result.Error, "quiz_id", quizID.String())
		return fmt.Errorf("gormQuizRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
