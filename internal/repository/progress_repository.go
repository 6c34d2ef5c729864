//go:generate mockery --name ProgressRepository --output ./mocks --outpkg mocks --case=underscore
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

type ProgressRepository interface {
	FindByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*model.Progress, error)
	Create(ctx context.Context, db *gorm.DB, progress *model.Progress) error
	Save(ctx context.Context, db *gorm.DB, progress *model.Progress) error
}

type gormProgressRepository struct{}

func NewGormProgressRepository() ProgressRepository {
	return &gormProgressRepository{}
}

func (r *gormProgressRepository) FindByStudent(ctx context.Context, db *gorm.DB, studentID uuid.UUID) (*model.Progress, error) {
	logger := middleware.GetLogger(ctx)
	var progress model.Progress

	result := db.WithContext(ctx).Where("student_id = ?", studentID).First(&progress)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		logger.Error("Error finding progress in DB", "error", result.Error, "student_id", studentID.String())
		return nil, fmt.Errorf("gormProgressRepository.FindByStudent: %w", result.Error)
	}
	return &progress, nil
}

// Create は student_id のユニーク制約で二重作成を弾く。並行して同じ学生の
// 台帳が作られた場合は ErrConflict を返し、呼び出し側が引き直す。
func (r *gormProgressRepository) Create(ctx context.Context, db *gorm.DB, progress *model.Progress) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(progress)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) && pgErr.Code == "23505" {
			return model.ErrConflict
		}
		if strings.Contains(result.Error.Error(), "UNIQUE constraint failed") {
			return model.ErrConflict
		}
		logger.Error("Error creating progress in DB", "error", result.Error, "student_id", progress.StudentID.String())
		return fmt.Errorf("gormProgressRepository.Create: %w", result.Error)
	}
	return nil
}

// Save は台帳1行を丸ごと書き戻す。呼び出し側はトランザクション内で
// FindByStudent → 変更 → Save の read-modify-write を行うこと。
func (r *gormProgressRepository) Save(ctx context.Context, db *gorm.DB, progress *model.Progress) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Save(progress)
	if result.Error != nil {
		logger.Error("Error saving progress in DB", "error", result.Error, "student_id", progress.StudentID.String())
		return fmt.Errorf("gormProgressRepository.Save: %w", result.Error)
	}
	return nil
}
