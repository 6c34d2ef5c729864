package service

import (
	"context"
	"errors"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LessonService interface {
	CreateLesson(ctx context.Context, creatorID uuid.UUID, req *model.PostLessonRequest) (*model.Lesson, error)
	GetLesson(ctx context.Context, lessonID uuid.UUID) (*model.Lesson, error)
	ListLessons(ctx context.Context) ([]*model.Lesson, error)
	DeleteLesson(ctx context.Context, lessonID uuid.UUID) error
}

type lessonService struct {
	db         *gorm.DB
	lessonRepo repository.LessonRepository
}

func NewLessonService(db *gorm.DB, lessonRepo repository.LessonRepository) LessonService {
	return &lessonService{db: db, lessonRepo: lessonRepo}
}

func (s *lessonService) CreateLesson(ctx context.Context, creatorID uuid.UUID, req *model.PostLessonRequest) (*model.Lesson, error) {
	logger := middleware.GetLogger(ctx)

	lesson := &model.Lesson{
		LessonID:    uuid.New(),
		Title:       req.Title,
		Description: req.Description,
		FileURL:     req.FileURL,
		VideoURL:    req.VideoURL,
		Language:    req.Language,
		Grade:       req.Grade,
		CreatedBy:   creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.lessonRepo.Create(ctx, tx, lesson)
	})
	if err != nil {
		logger.Error("Failed to create lesson", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの作成に失敗しました。", "", err)
	}

	logger.Info("Lesson created", "lesson_id", lesson.LessonID.String(), "title", lesson.Title)
	return lesson, nil
}

func (s *lessonService) GetLesson(ctx context.Context, lessonID uuid.UUID) (*model.Lesson, error) {
	lesson, err := s.lessonRepo.FindByID(ctx, s.db, lessonID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return lesson, nil
}

func (s *lessonService) ListLessons(ctx context.Context) ([]*model.Lesson, error) {
	lessons, err := s.lessonRepo.List(ctx, s.db)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン一覧の取得に失敗しました。", "", err)
	}
	return lessons, nil
}

func (s *lessonService) DeleteLesson(ctx context.Context, lessonID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.lessonRepo.Delete(ctx, tx, lessonID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "", model.ErrNotFound)
		}
		return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの削除に失敗しました。", "", err)
	}
	return nil
}
