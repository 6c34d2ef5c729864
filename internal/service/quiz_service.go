package service

import (
	"context"
	"errors"
	"math"

	"manabi_quest/internal/config"
	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"
	"manabi_quest/internal/xputil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizService interface {
	CreateQuiz(ctx context.Context, creatorID uuid.UUID, req *model.PostQuizRequest) (*model.Quiz, error)
	GetQuiz(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error)
	ListQuizzes(ctx context.Context) ([]*model.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID uuid.UUID) error
	AttemptQuiz(ctx context.Context, studentID, quizID uuid.UUID, req *model.AttemptQuizRequest) (*model.AttemptResult, error)
	ListAttempts(ctx context.Context, studentID uuid.UUID) ([]model.AttemptListItem, error)
}

type quizService struct {
	db           *gorm.DB
	quizRepo     repository.QuizRepository
	attemptRepo  repository.AttemptRepository
	progressRepo repository.ProgressRepository
	userRepo     repository.UserRepository
	badgeSvc     BadgeService
	cfg          *config.Config
}

func NewQuizService(
	db *gorm.DB,
	quizRepo repository.QuizRepository,
	attemptRepo repository.AttemptRepository,
	progressRepo repository.ProgressRepository,
	userRepo repository.UserRepository,
	badgeSvc BadgeService,
	cfg *config.Config,
) QuizService {
	return &quizService{
		db:           db,
		quizRepo:     quizRepo,
		attemptRepo:  attemptRepo,
		progressRepo: progressRepo,
		userRepo:     userRepo,
		badgeSvc:     badgeSvc,
		cfg:          cfg,
	}
}

func (s *quizService) CreateQuiz(ctx context.Context, creatorID uuid.UUID, req *model.PostQuizRequest) (*model.Quiz, error) {
	logger := middleware.GetLogger(ctx)

	questions := make([]model.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		qType := q.Type
		if qType == "" {
			qType = model.QuestionTypeMCQ
		}
		marks := q.Marks
		if marks < 1 {
			marks = 1
		}
		questions = append(questions, model.Question{
			QuestionID:  uuid.New(),
			Text:        q.Text,
			Type:        qType,
			Options:     q.Options,
			AnswerIndex: q.AnswerIndex,
			Marks:       marks,
		})
	}

	quiz := &model.Quiz{
		QuizID:    uuid.New(),
		Title:     req.Title,
		Questions: questions,
		CreatedBy: creatorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.quizRepo.Create(ctx, tx, quiz)
	})
	if err != nil {
		logger.Error("Failed to create quiz", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "クイズの作成に失敗しました。", "", err)
	}

	logger.Info("Quiz created", "quiz_id", quiz.QuizID.String(), "title", quiz.Title)
	return quiz, nil
}

func (s *quizService) GetQuiz(ctx context.Context, quizID uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizRepo.FindByID(ctx, s.db, quizID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("QUIZ_NOT_FOUND", "クイズが見つかりません。", "", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}
	return quiz, nil
}

func (s *quizService) ListQuizzes(ctx context.Context) ([]*model.Quiz, error) {
	quizzes, err := s.quizRepo.List(ctx, s.db)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "クイズ一覧の取得に失敗しました。", "", err)
	}
	return quizzes, nil
}

func (s *quizService) DeleteQuiz(ctx context.Context, quizID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.quizRepo.Delete(ctx, tx, quizID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("QUIZ_NOT_FOUND", "クイズが見つかりません。", "", model.ErrNotFound)
		}
		return model.NewAppError("INTERNAL_SERVER_ERROR", "クイズの削除に失敗しました。", "", err)
	}
	return nil
}

// scoreAttempt は回答を採点する。設問に存在しないquestion_idの回答は
// 無視される（total_marksにも入らない）。正解判定はmcqのみで、
// 記述式(short)は配点が分母に乗るだけで自動採点では得点にならない。
func scoreAttempt(quiz *model.Quiz, answers []model.AnswerSubmission) (score, totalMarks int) {
	byID := make(map[uuid.UUID]*model.Question, len(quiz.Questions))
	for i := range quiz.Questions {
		byID[quiz.Questions[i].QuestionID] = &quiz.Questions[i]
	}

	for _, ans := range answers {
		q, ok := byID[ans.QuestionID]
		if !ok {
			continue
		}
		marks := q.Marks
		if marks < 1 {
			marks = 1
		}
		totalMarks += marks
		if q.Type == model.QuestionTypeMCQ && ans.Answer == q.AnswerIndex {
			score += marks
		}
	}
	return score, totalMarks
}

// AttemptQuiz はクイズを採点し、XPを付与して結果を返す。
// 1学生1クイズ1回の制約に違反した場合は初回結果を載せた
// DuplicateAttemptError を返し、今回のスコアは破棄される。
func (s *quizService) AttemptQuiz(ctx context.Context, studentID, quizID uuid.UUID, req *model.AttemptQuizRequest) (*model.AttemptResult, error) {
	logger := middleware.GetLogger(ctx)

	mu := lockStudent(studentID)
	mu.Lock()
	defer mu.Unlock()

	var result *model.AttemptResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quiz, err := s.quizRepo.FindByID(ctx, tx, quizID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("QUIZ_NOT_FOUND", "クイズが見つかりません。", "", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "クイズの取得に失敗しました。", "", err)
		}

		score, totalMarks := scoreAttempt(quiz, req.Answers)

		xpEarned := 0
		if totalMarks > 0 {
			xpEarned = int(math.Round(float64(score) / float64(totalMarks) * float64(s.cfg.App.QuizMaxXP)))
		}

		attempt := &model.QuizAttempt{
			AttemptID: uuid.New(),
			StudentID: studentID,
			QuizID:    quizID,
			Answers:   req.Answers,
			Score:     score,
			XPEarned:  xpEarned,
		}
		if err := s.attemptRepo.Create(ctx, tx, attempt); err != nil {
			if errors.Is(err, model.ErrConflict) {
				// 既存の受験記録を引いて初回結果を返す
				prev, findErr := s.attemptRepo.FindByStudentAndQuiz(ctx, tx, studentID, quizID)
				if findErr != nil {
					return model.NewAppError("INTERNAL_SERVER_ERROR", "受験記録の取得に失敗しました。", "", findErr)
				}
				logger.Warn("Quiz already attempted", "student_id", studentID.String(), "quiz_id", quizID.String())
				return &model.DuplicateAttemptError{
					AttemptID: prev.AttemptID,
					Score:     prev.Score,
					XPEarned:  prev.XPEarned,
				}
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "受験記録の保存に失敗しました。", "", err)
		}

		progress, err := s.getOrCreateProgress(ctx, tx, studentID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の取得に失敗しました。", "", err)
		}

		progress.XP, progress.Level = xputil.Add(progress.XP, xpEarned)

		newBadges, err := s.badgeSvc.GrantNewBadges(ctx, tx, progress, &QuizContext{Score: score, TotalMarks: totalMarks})
		if err != nil {
			return err
		}

		if err := s.progressRepo.Save(ctx, tx, progress); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の保存に失敗しました。", "", err)
		}
		if err := s.userRepo.UpdateXPLevel(ctx, tx, studentID, progress.XP, progress.Level); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー情報の更新に失敗しました。", "", err)
		}

		result = &model.AttemptResult{
			AttemptID:  attempt.AttemptID,
			Score:      score,
			TotalMarks: totalMarks,
			XPEarned:   xpEarned,
			NewXP:      progress.XP,
			NewLevel:   progress.Level,
			NewBadges:  newBadges,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Quiz attempt recorded",
		"student_id", studentID.String(),
		"quiz_id", quizID.String(),
		"score", result.Score,
		"total_marks", result.TotalMarks,
		"xp_earned", result.XPEarned,
	)
	return result, nil
}

// getOrCreateProgress はProgressServiceと同じget-or-createセマンティクス
func (s *quizService) getOrCreateProgress(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*model.Progress, error) {
	progress, err := s.progressRepo.FindByStudent(ctx, tx, studentID)
	if err == nil {
		return progress, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	progress = &model.Progress{
		ProgressID:       uuid.New(),
		StudentID:        studentID,
		XP:               0,
		Level:            1,
		LessonsCompleted: []uuid.UUID{},
		Badges:           []string{},
		ProcessedOpIDs:   []string{},
	}
	if err := s.progressRepo.Create(ctx, tx, progress); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return s.progressRepo.FindByStudent(ctx, tx, studentID)
		}
		return nil, err
	}
	return progress, nil
}

// ListAttempts は学生の受験履歴をクイズタイトル付きで新しい順に返す
func (s *quizService) ListAttempts(ctx context.Context, studentID uuid.UUID) ([]model.AttemptListItem, error) {
	attempts, err := s.attemptRepo.ListByStudent(ctx, s.db, studentID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "受験履歴の取得に失敗しました。", "", err)
	}

	items := make([]model.AttemptListItem, 0, len(attempts))
	for _, a := range attempts {
		item := model.AttemptListItem{
			AttemptID: a.AttemptID,
			QuizID:    a.QuizID,
			Score:     a.Score,
			XPEarned:  a.XPEarned,
			CreatedAt: a.CreatedAt,
		}
		// 削除済みクイズはタイトル無しで返す
		if quiz, err := s.quizRepo.FindByID(ctx, s.db, a.QuizID); err == nil {
			item.QuizTitle = quiz.Title
		}
		items = append(items, item)
	}
	return items, nil
}
