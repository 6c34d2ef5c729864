//go:generate mockery --name AttemptRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type AttemptRepository interface {
	Create(ctx context.Context, db *gorm.DB, attempt *model.QuizAttempt) error
	FindByStudentAndQuiz(ctx context.Context, db *gorm.DB, studentID, quizID uuid.UUID) (*model.QuizAttempt, error)
	ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.QuizAttempt, error)
}

type gormAttemptRepository struct{}

func NewGormAttemptRepository() AttemptRepository {
	return &gormAttemptRepository{}
}

// Create は (student_id, quiz_id) の複合ユニーク制約に依存する。
// 重複時は model.ErrConflict を返し、呼び出し側が既存回答を引き直す。
func (r *gormAttemptRepository) Create(ctx context.Context, db *gorm.DB, attempt *model.QuizAttempt) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(attempt)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			logger.Warn("Duplicate quiz attempt", "student_id", attempt.StudentID.String(), "quiz_id", attempt.QuizID.String())
			return model.ErrConflict
		}
		// sqlite (テスト環境) はpgconnエラーを返さないため文字列でも判定する
		if strings.Contains(result.Error.Error(), "UNIQUE constraint failed") {
			logger.Warn("Duplicate quiz attempt", "student_id", attempt.StudentID.String(), "quiz_id", attempt.QuizID.String())
			return model.ErrConflict
		}
		logger.Error("Error creating quiz attempt in DB", "error", result.Error)
		return fmt.Errorf("gormAttemptRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormAttemptRepository) FindByStudentAndQuiz(ctx context.Context, db *gorm.DB, studentID, quizID uuid.UUID) (*model.QuizAttempt, error) {
	var attempt model.QuizAttempt
	result := db.WithContext(ctx).
		Where("student_id = ? AND quiz_id = ?", studentID, quizID).
		First(&attempt)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormAttemptRepository.FindByStudentAndQuiz: %w", result.Error)
	}
	return &attempt, nil
}

func (r *gormAttemptRepository) ListByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) ([]*model.QuizAttempt, error) {
	var attempts []*model.QuizAttempt
	result := db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Find(&attempts)
	if result.Error != nil {
		return nil, fmt.Errorf("gormAttemptRepository.ListByStudent: %w", result.Error)
	}
	return attempts, nil
}
