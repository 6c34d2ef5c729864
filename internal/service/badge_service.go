package service

import (
	"context"
	"fmt"
	"time"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QuizContext はクイズ採点直後のバッジ評価にのみ渡される一時情報。
// 台帳には保持されないため、クイズ系バッジはその受験のリクエスト内で
// 獲得できなければ以後のレッスン完了等では付与されない。
type QuizContext struct {
	Score      int
	TotalMarks int
}

// badgeRule は1つのバッジの獲得条件。
type badgeRule struct {
	Name string
	Met  func(p *model.Progress, quiz *QuizContext) bool
}

// badgeRules は評価順そのものが仕様。レベル系→レッスン数系→クイズ成績系の
// 順で評価し、1回の評価で複数のバッジが同時に付与されうる。
var badgeRules = []badgeRule{
	{Name: "Beginner", Met: func(p *model.Progress, _ *QuizContext) bool { return p.Level >= 2 }},
	{Name: "Intermediate", Met: func(p *model.Progress, _ *QuizContext) bool { return p.Level >= 5 }},
	{Name: "Advanced", Met: func(p *model.Progress, _ *QuizContext) bool { return p.Level >= 10 }},
	{Name: "Master", Met: func(p *model.Progress, _ *QuizContext) bool { return p.Level >= 20 }},
	{Name: "First Lesson", Met: func(p *model.Progress, _ *QuizContext) bool { return len(p.LessonsCompleted) >= 1 }},
	{Name: "Fast Learner", Met: func(p *model.Progress, _ *QuizContext) bool { return len(p.LessonsCompleted) >= 5 }},
	{Name: "Dedicated Learner", Met: func(p *model.Progress, _ *QuizContext) bool { return len(p.LessonsCompleted) >= 10 }},
	{Name: "Quiz Rookie", Met: quizPercentAtLeast(80)},
	{Name: "Quiz Pro", Met: quizPercentAtLeast(90)},
}

func quizPercentAtLeast(threshold float64) func(*model.Progress, *QuizContext) bool {
	return func(_ *model.Progress, quiz *QuizContext) bool {
		if quiz == nil || quiz.Score <= 0 || quiz.TotalMarks <= 0 {
			return false
		}
		percent := float64(quiz.Score) / float64(quiz.TotalMarks) * 100
		return percent >= threshold
	}
}

type BadgeService interface {
	// Evaluate は獲得済み集合に含まれない達成済みバッジ名をルール順に返す純関数。
	Evaluate(progress *model.Progress, quiz *QuizContext) []string
	// GrantNewBadges は達成済みバッジを台帳に追記し、1件ごとに通知を作成する。
	// 台帳の保存は呼び出し側のトランザクションに委ねる。
	GrantNewBadges(ctx context.Context, tx *gorm.DB, progress *model.Progress, quiz *QuizContext) ([]string, error)
}

type badgeService struct {
	notifRepo repository.NotificationRepository
}

func NewBadgeService(notifRepo repository.NotificationRepository) BadgeService {
	return &badgeService{notifRepo: notifRepo}
}

func (s *badgeService) Evaluate(progress *model.Progress, quiz *QuizContext) []string {
	newBadges := []string{}
	for _, rule := range badgeRules {
		if progress.HasBadge(rule.Name) {
			continue
		}
		if rule.Met(progress, quiz) {
			newBadges = append(newBadges, rule.Name)
		}
	}
	return newBadges
}

func (s *badgeService) GrantNewBadges(ctx context.Context, tx *gorm.DB, progress *model.Progress, quiz *QuizContext) ([]string, error) {
	logger := middleware.GetLogger(ctx)

	newBadges := s.Evaluate(progress, quiz)
	for _, name := range newBadges {
		progress.Badges = append(progress.Badges, name)

		notification := &model.Notification{
			NotificationID: uuid.New(),
			UserID:         progress.StudentID,
			Type:           model.NotificationTypeBadge,
			Title:          "新しいバッジを獲得しました",
			Body:           fmt.Sprintf("バッジ「%s」を獲得しました！", name),
			SentAt:         time.Now(),
		}
		if err := s.notifRepo.Create(ctx, tx, notification); err != nil {
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "通知の作成に失敗しました。", "", err)
		}
		logger.Info("Badge awarded", "student_id", progress.StudentID.String(), "badge", name)
	}
	return newBadges, nil
}
