// internal/service/progress_service_mock_test.go
//
// リポジトリ層の失敗がAppErrorに変換されることをモックで検証する。
package service

import (
	"context"
	"errors"
	"testing"

	"manabi_quest/internal/model"
	"manabi_quest/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func Test_progressService_Apply_RepositoryErrors(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	newService := func(progressRepo *mocks.ProgressRepository, lessonRepo *mocks.LessonRepository, userRepo *mocks.UserRepository) ProgressService {
		return NewProgressService(
			db,
			progressRepo,
			lessonRepo,
			userRepo,
			new(mocks.BadgeRepository),
			NewBadgeService(new(mocks.NotificationRepository)),
			testConfig(),
		)
	}

	t.Run("異常系: 台帳取得のDBエラーは内部エラーに変換される", func(t *testing.T) {
		progressRepo := new(mocks.ProgressRepository)
		lessonRepo := new(mocks.LessonRepository)
		userRepo := new(mocks.UserRepository)
		svc := newService(progressRepo, lessonRepo, userRepo)

		progressRepo.On("FindByStudent", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("db down")).Once()

		_, err := svc.Apply(ctx, uuid.New(), uuid.New(), nil, "op-err-1")
		require.Error(t, err)

		var appErr *model.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, "INTERNAL_SERVER_ERROR", appErr.Detail.Code)
		progressRepo.AssertExpectations(t)
	})

	t.Run("異常系: レッスン取得のDBエラーで台帳は保存されない", func(t *testing.T) {
		progressRepo := new(mocks.ProgressRepository)
		lessonRepo := new(mocks.LessonRepository)
		userRepo := new(mocks.UserRepository)
		svc := newService(progressRepo, lessonRepo, userRepo)

		studentID := uuid.New()
		progressRepo.On("FindByStudent", mock.Anything, mock.Anything, studentID).
			Return(&model.Progress{ProgressID: uuid.New(), StudentID: studentID, Level: 1}, nil).Once()
		lessonRepo.On("FindByID", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("db down")).Once()

		_, err := svc.Apply(ctx, studentID, uuid.New(), nil, "op-err-2")
		require.Error(t, err)
		progressRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
		userRepo.AssertNotCalled(t, "UpdateXPLevel", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
