// internal/service/badge_service_test.go
package service

import (
	"context"
	"testing"

	"manabi_quest/internal/model"
	"manabi_quest/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func lessonIDs(n int) []uuid.UUID {
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	return ids
}

func Test_badgeService_Evaluate(t *testing.T) {
	svc := NewBadgeService(new(mocks.NotificationRepository))

	tests := []struct {
		name     string
		progress *model.Progress
		quiz     *QuizContext
		want     []string
	}{
		{
			name:     "正常系: 初期状態では何も付与されない",
			progress: &model.Progress{Level: 1},
			want:     []string{},
		},
		{
			name:     "正常系: レベル2でBeginner",
			progress: &model.Progress{Level: 2},
			want:     []string{"Beginner"},
		},
		{
			name:     "正常系: レベル20で全レベル系バッジが同時付与",
			progress: &model.Progress{Level: 20},
			want:     []string{"Beginner", "Intermediate", "Advanced", "Master"},
		},
		{
			name:     "正常系: レッスン1件でFirst Lesson",
			progress: &model.Progress{Level: 1, LessonsCompleted: lessonIDs(1)},
			want:     []string{"First Lesson"},
		},
		{
			name:     "正常系: レッスン10件でレッスン系が全て揃う",
			progress: &model.Progress{Level: 1, LessonsCompleted: lessonIDs(10)},
			want:     []string{"First Lesson", "Fast Learner", "Dedicated Learner"},
		},
		{
			name:     "正常系: 獲得済みバッジは再付与されない",
			progress: &model.Progress{Level: 2, Badges: []string{"Beginner"}},
			want:     []string{},
		},
		{
			name:     "正常系: クイズ正答率80%でQuiz Rookie",
			progress: &model.Progress{Level: 1},
			quiz:     &QuizContext{Score: 8, TotalMarks: 10},
			want:     []string{"Quiz Rookie"},
		},
		{
			name:     "正常系: クイズ正答率90%でRookieとProが同時付与",
			progress: &model.Progress{Level: 1},
			quiz:     &QuizContext{Score: 9, TotalMarks: 10},
			want:     []string{"Quiz Rookie", "Quiz Pro"},
		},
		{
			name:     "境界系: クイズコンテキスト無しではクイズ系は評価されない",
			progress: &model.Progress{Level: 1},
			quiz:     nil,
			want:     []string{},
		},
		{
			name:     "境界系: スコア0はクイズ系の対象外",
			progress: &model.Progress{Level: 1},
			quiz:     &QuizContext{Score: 0, TotalMarks: 10},
			want:     []string{},
		},
		{
			name:     "正常系: レベルとレッスンとクイズの複合はルール順で返る",
			progress: &model.Progress{Level: 2, LessonsCompleted: lessonIDs(5)},
			quiz:     &QuizContext{Score: 10, TotalMarks: 10},
			want:     []string{"Beginner", "First Lesson", "Fast Learner", "Quiz Rookie", "Quiz Pro"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := svc.Evaluate(tt.progress, tt.quiz)
			assert.Equal(t, tt.want, got)
		})
	}
}

func Test_badgeService_GrantNewBadges(t *testing.T) {
	ctx := context.Background()

	t.Run("正常系: 新規バッジは台帳に追記され1件ずつ通知が作られる", func(t *testing.T) {
		mockNotifRepo := new(mocks.NotificationRepository)
		svc := NewBadgeService(mockNotifRepo)

		progress := &model.Progress{
			ProgressID: uuid.New(),
			StudentID:  uuid.New(),
			Level:      2,
			Badges:     []string{},
		}
		mockNotifRepo.On("Create", ctx, mock.Anything, mock.MatchedBy(func(n *model.Notification) bool {
			return n.UserID == progress.StudentID && n.Type == model.NotificationTypeBadge
		})).Return(nil).Once()

		newBadges, err := svc.GrantNewBadges(ctx, nil, progress, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"Beginner"}, newBadges)
		assert.Equal(t, []string{"Beginner"}, progress.Badges)
		mockNotifRepo.AssertExpectations(t)
	})

	t.Run("正常系: 付与対象が無ければ通知も作られない", func(t *testing.T) {
		mockNotifRepo := new(mocks.NotificationRepository)
		svc := NewBadgeService(mockNotifRepo)

		progress := &model.Progress{ProgressID: uuid.New(), StudentID: uuid.New(), Level: 1}
		newBadges, err := svc.GrantNewBadges(ctx, nil, progress, nil)
		require.NoError(t, err)
		assert.Empty(t, newBadges)
		mockNotifRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})
}
