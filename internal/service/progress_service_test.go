// internal/service/progress_service_test.go
package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_progressService_GetProgress(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newProgressServiceForTest(db)

	t.Run("正常系: 台帳が無ければ作成して空のスナップショットを返す", func(t *testing.T) {
		student := createTestStudent(t, db)

		snapshot, err := svc.GetProgress(ctx, student.UserID)
		require.NoError(t, err)
		assert.Equal(t, student.UserID, snapshot.StudentID)
		assert.Equal(t, 0, snapshot.XP)
		assert.Equal(t, 1, snapshot.Level)
		assert.Empty(t, snapshot.LessonsCompleted)
		assert.Empty(t, snapshot.Badges)

		// 2回目の参照でも台帳は1件のまま
		_, err = svc.GetProgress(ctx, student.UserID)
		require.NoError(t, err)
		var count int64
		db.Model(&model.Progress{}).Where("student_id = ?", student.UserID).Count(&count)
		assert.Equal(t, int64(1), count)
	})
}

func Test_progressService_CompleteLesson(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newProgressServiceForTest(db)

	t.Run("正常系: レッスン完了で標準XPとFirst Lessonバッジ", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "分数の基礎")

		result, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: lesson.LessonID,
			OpID:     "op-complete-1",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, result.XPEarned)
		assert.Equal(t, lesson.Title, result.Lesson.Title)
		assert.Equal(t, []string{"First Lesson"}, result.NewBadges)
		assert.Equal(t, 10, result.Progress.XP)
		assert.Equal(t, 1, result.Progress.Level)
		require.Len(t, result.Progress.LessonsCompleted, 1)
		assert.Equal(t, lesson.LessonID, result.Progress.LessonsCompleted[0].LessonID)

		// バッジ通知が1件作られている
		var notifCount int64
		db.Model(&model.Notification{}).Where("user_id = ?", student.UserID).Count(&notifCount)
		assert.Equal(t, int64(1), notifCount)

		// ユーザー側のミラーも更新されている
		var user model.User
		require.NoError(t, db.Where("user_id = ?", student.UserID).First(&user).Error)
		assert.Equal(t, 10, user.XP)
		assert.Equal(t, 1, user.Level)
	})

	t.Run("正常系: 同一opIdの再送は二重加算しない", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "かけ算の基礎")

		first, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: lesson.LessonID,
			OpID:     "op-replay",
		})
		require.NoError(t, err)
		assert.Equal(t, 10, first.XPEarned)

		replay, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: lesson.LessonID,
			OpID:     "op-replay",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, replay.XPEarned)
		assert.Empty(t, replay.NewBadges)
		assert.Equal(t, 10, replay.Progress.XP)
	})

	t.Run("正常系: 完了済みレッスンは別opIdでも加算しない", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "わり算の基礎")

		_, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: lesson.LessonID,
			OpID:     "op-a",
		})
		require.NoError(t, err)

		second, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: lesson.LessonID,
			OpID:     "op-b",
		})
		require.NoError(t, err)
		assert.Equal(t, 0, second.XPEarned)
		assert.Equal(t, 10, second.Progress.XP)
		assert.Len(t, second.Progress.LessonsCompleted, 1)
	})

	t.Run("異常系: 存在しないレッスンはNotFound", func(t *testing.T) {
		student := createTestStudent(t, db)

		_, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: uuid.New(),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("正常系: 10レッスン完了でレベル2とレッスン系バッジが揃う", func(t *testing.T) {
		student := createTestStudent(t, db)

		var last *model.CompleteLessonResult
		for i := 0; i < 10; i++ {
			lesson := createTestLesson(t, db, fmt.Sprintf("連続レッスン%d", i))
			result, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
				LessonID: lesson.LessonID,
				OpID:     fmt.Sprintf("op-seq-%d", i),
			})
			require.NoError(t, err)
			last = result
		}

		assert.Equal(t, 100, last.Progress.XP)
		assert.Equal(t, 2, last.Progress.Level)
		assert.ElementsMatch(t,
			[]string{"First Lesson", "Fast Learner", "Dedicated Learner", "Beginner"},
			last.Progress.Badges,
		)
		// 10件目ではDedicated LearnerとBeginnerが同時に付く
		assert.Equal(t, []string{"Beginner", "Dedicated Learner"}, last.NewBadges)
	})
}

func Test_progressService_AwardManual(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newProgressServiceForTest(db)

	t.Run("正常系: 指定XPでの手動付与", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "特別課題")
		xp := 50

		result, err := svc.AwardManual(ctx, &model.ManualAwardRequest{
			StudentID: student.UserID,
			LessonID:  lesson.LessonID,
			XPEarned:  &xp,
			OpID:      "op-manual-1",
		})
		require.NoError(t, err)
		assert.Equal(t, 50, result.Progress.XP)
		assert.Contains(t, result.NewBadges, "First Lesson")
	})

	t.Run("正常系: XP省略時は標準レッスンXP", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "通常課題")

		result, err := svc.AwardManual(ctx, &model.ManualAwardRequest{
			StudentID: student.UserID,
			LessonID:  lesson.LessonID,
		})
		require.NoError(t, err)
		assert.Equal(t, 10, result.Progress.XP)
	})
}

func Test_progressService_AwardByEmail(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newProgressServiceForTest(db)

	t.Run("正常系: メールアドレスとレッスンタイトルで付与", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "メール付与用レッスン")
		xp := 30

		result, err := svc.AwardByEmail(ctx, &model.AddXPByEmailRequest{
			StudentEmail: student.Email,
			LessonTitle:  lesson.Title,
			XPEarned:     &xp,
		})
		require.NoError(t, err)
		assert.Equal(t, student.Name, result.Student)
		assert.Equal(t, 30, result.XP)
		assert.Equal(t, 1, result.Level)
	})

	t.Run("異常系: 存在しないメールアドレスはNotFound", func(t *testing.T) {
		lesson := createTestLesson(t, db, "誰も居ないレッスン")

		_, err := svc.AwardByEmail(ctx, &model.AddXPByEmailRequest{
			StudentEmail: "nobody@example.com",
			LessonTitle:  lesson.Title,
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})

	t.Run("正常系: レッスンタイトル未指定でもXPは加算される", func(t *testing.T) {
		student := createTestStudent(t, db)
		xp := 30

		result, err := svc.AwardByEmail(ctx, &model.AddXPByEmailRequest{
			StudentEmail: student.Email,
			XPEarned:     &xp,
		})
		require.NoError(t, err)
		assert.Equal(t, 30, result.XP)
		assert.Equal(t, 1, result.Level)

		// 完了レッスンには何も追加されない
		var progress model.Progress
		require.NoError(t, db.Where("student_id = ?", student.UserID).First(&progress).Error)
		assert.Empty(t, progress.LessonsCompleted)
	})

	t.Run("正常系: レッスン無し付与でもレベルバッジは評価される", func(t *testing.T) {
		student := createTestStudent(t, db)
		xp := 150

		result, err := svc.AwardByEmail(ctx, &model.AddXPByEmailRequest{
			StudentEmail: student.Email,
			XPEarned:     &xp,
		})
		require.NoError(t, err)
		assert.Equal(t, 150, result.XP)
		assert.Equal(t, 2, result.Level)
		assert.Contains(t, result.NewBadges, "Beginner")
	})
}

func Test_progressService_GetBadges(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newProgressServiceForTest(db)

	t.Run("正常系: カタログ登録済みバッジはメタデータ付きで返る", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "バッジ確認用レッスン")

		require.NoError(t, db.Create(&model.Badge{
			BadgeID:     uuid.New(),
			Name:        "First Lesson",
			Description: "初めてのレッスンを完了",
			IconURL:     "https://cdn.example.com/badges/first-lesson.png",
		}).Error)

		_, err := svc.CompleteLesson(ctx, student.UserID, &model.CompleteLessonRequest{
			LessonID: lesson.LessonID,
		})
		require.NoError(t, err)

		badges, err := svc.GetBadges(ctx, student.UserID)
		require.NoError(t, err)
		require.Len(t, badges, 1)
		assert.Equal(t, "First Lesson", badges[0].Name)
		assert.Equal(t, "初めてのレッスンを完了", badges[0].Description)
		assert.NotEmpty(t, badges[0].IconURL)
	})

	t.Run("正常系: バッジ未獲得なら空スライス", func(t *testing.T) {
		student := createTestStudent(t, db)

		badges, err := svc.GetBadges(ctx, student.UserID)
		require.NoError(t, err)
		assert.Empty(t, badges)
	})
}
