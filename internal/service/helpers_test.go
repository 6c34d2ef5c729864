// internal/service/helpers_test.go
package service

import (
	"fmt"
	"testing"

	"manabi_quest/internal/config"
	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB はテストごとに独立したインメモリDBを用意する。
// 名前付きDSNにしないとGORMのコネクションプールがDBを共有できない。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // テスト中はログを抑制
	})
	require.NoError(t, err, "failed to connect database for testing")

	err = db.AutoMigrate(
		&model.User{},
		&model.Lesson{},
		&model.Quiz{},
		&model.QuizAttempt{},
		&model.Progress{},
		&model.Notification{},
		&model.Badge{},
	)
	require.NoError(t, err, "failed to migrate database for testing")
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:            "Manabi",
			DefaultLessonXP: 10,
			QuizMaxXP:       20,
		},
	}
}

// newProgressServiceForTest は実リポジトリで組んだProgressServiceを返す
func newProgressServiceForTest(db *gorm.DB) ProgressService {
	notifRepo := repository.NewGormNotificationRepository()
	badgeSvc := NewBadgeService(notifRepo)
	return NewProgressService(
		db,
		repository.NewGormProgressRepository(),
		repository.NewGormLessonRepository(),
		repository.NewGormUserRepository(),
		repository.NewGormBadgeRepository(),
		badgeSvc,
		testConfig(),
	)
}

func newQuizServiceForTest(db *gorm.DB) QuizService {
	notifRepo := repository.NewGormNotificationRepository()
	badgeSvc := NewBadgeService(notifRepo)
	return NewQuizService(
		db,
		repository.NewGormQuizRepository(),
		repository.NewGormAttemptRepository(),
		repository.NewGormProgressRepository(),
		repository.NewGormUserRepository(),
		badgeSvc,
		testConfig(),
	)
}

func createTestStudent(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()
	user := &model.User{
		UserID:       uuid.New(),
		Name:         "テスト生徒",
		Email:        fmt.Sprintf("%s@example.com", uuid.NewString()[:8]),
		Role:         model.RoleStudent,
		PasswordHash: "hashed",
		XP:           0,
		Level:        1,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestLesson(t *testing.T, db *gorm.DB, title string) *model.Lesson {
	t.Helper()
	lesson := &model.Lesson{
		LessonID: uuid.New(),
		Title:    title,
		FileURL:  "https://cdn.example.com/" + uuid.NewString(),
	}
	require.NoError(t, db.Create(lesson).Error)
	return lesson
}
