package service

import (
	"context"
	"errors"
	"sync"

	"manabi_quest/internal/config"
	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"
	"manabi_quest/internal/xputil"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// studentLocks は学生IDごとの直列化ロック。トランザクション内で台帳1行の
// read-modify-write を行うため、同一学生への並行適用をプロセス内で排他する。
// 前提として1学生の書き込みは単一プロセスに到達する構成で運用する。
var studentLocks sync.Map

func lockStudent(studentID uuid.UUID) *sync.Mutex {
	mu, _ := studentLocks.LoadOrStore(studentID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// applyOutcome は進捗イベント1件の適用結果。再送(opId重複)の場合は
// AlreadyProcessed=true かつ XPEarned=0 で、台帳は現在値のまま返る。
type applyOutcome struct {
	Progress         *model.Progress
	Lesson           *model.Lesson
	XPEarned         int
	NewBadges        []string
	AlreadyProcessed bool
}

type ProgressService interface {
	GetProgress(ctx context.Context, studentID uuid.UUID) (*model.ProgressSnapshot, error)
	CompleteLesson(ctx context.Context, studentID uuid.UUID, req *model.CompleteLessonRequest) (*model.CompleteLessonResult, error)
	AwardManual(ctx context.Context, req *model.ManualAwardRequest) (*model.ManualAwardResult, error)
	AwardByEmail(ctx context.Context, req *model.AddXPByEmailRequest) (*model.AddXPByEmailResult, error)
	GetBadges(ctx context.Context, studentID uuid.UUID) ([]model.BadgeResponse, error)

	// Apply は進捗イベント適用の共通経路。手動付与・レッスン完了・バッチ同期の
	// すべてがここを通る。
	Apply(ctx context.Context, studentID, lessonID uuid.UUID, xpEarned *int, opID string) (*applyOutcome, error)
	// Snapshot は台帳を表示用スナップショットに展開する。
	Snapshot(ctx context.Context, db *gorm.DB, progress *model.Progress) (*model.ProgressSnapshot, error)
}

type progressService struct {
	db           *gorm.DB
	progressRepo repository.ProgressRepository
	lessonRepo   repository.LessonRepository
	userRepo     repository.UserRepository
	badgeRepo    repository.BadgeRepository
	badgeSvc     BadgeService
	cfg          *config.Config
}

func NewProgressService(
	db *gorm.DB,
	progressRepo repository.ProgressRepository,
	lessonRepo repository.LessonRepository,
	userRepo repository.UserRepository,
	badgeRepo repository.BadgeRepository,
	badgeSvc BadgeService,
	cfg *config.Config,
) ProgressService {
	return &progressService{
		db:           db,
		progressRepo: progressRepo,
		lessonRepo:   lessonRepo,
		userRepo:     userRepo,
		badgeRepo:    badgeRepo,
		badgeSvc:     badgeSvc,
		cfg:          cfg,
	}
}

// getOrCreateProgress は台帳を取得し、無ければXP=0/レベル1で作成する。
// 並行作成でユニーク制約に弾かれた場合は勝った方の行を引き直す。
func (s *progressService) getOrCreateProgress(ctx context.Context, tx *gorm.DB, studentID uuid.UUID) (*model.Progress, error) {
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

// Apply は進捗イベントを冪等に適用する。
//
//  1. opIdが処理済みなら何も変えず成功として現在の台帳を返す
//  2. レッスンの存在を検証する（存在しなければ適用自体が失敗）
//  3. 未完了レッスンのときだけ完了集合への追加とXP加算を行う
//     （完了済みレッスンへの再適用は、opIdが異なっていても加算しない）
//  4. バッジを評価し、opIdを処理済みに追記して保存する
//  5. ユーザー側のxp/levelミラーを更新する
func (s *progressService) Apply(ctx context.Context, studentID, lessonID uuid.UUID, xpEarned *int, opID string) (*applyOutcome, error) {
	logger := middleware.GetLogger(ctx)

	mu := lockStudent(studentID)
	mu.Lock()
	defer mu.Unlock()

	var outcome *applyOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.getOrCreateProgress(ctx, tx, studentID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の取得に失敗しました。", "", err)
		}

		// 冪等化ガード: 再送は副作用なしの成功
		if progress.HasProcessedOp(opID) {
			logger.Info("Operation already processed, skipping", "op_id", opID, "student_id", studentID.String())
			outcome = &applyOutcome{Progress: progress, AlreadyProcessed: true, NewBadges: []string{}}
			return nil
		}

		lesson, err := s.lessonRepo.FindByID(ctx, tx, lessonID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "lesson_id", model.ErrNotFound)
			}
			return model.NewAppError("INTERNAL_SERVER_ERROR", "レッスンの取得に失敗しました。", "", err)
		}

		earned := 0
		if !progress.HasLesson(lessonID) {
			earned = s.cfg.App.DefaultLessonXP
			if xpEarned != nil && *xpEarned > 0 {
				earned = *xpEarned
			}
			progress.LessonsCompleted = append(progress.LessonsCompleted, lessonID)
			progress.XP, progress.Level = xputil.Add(progress.XP, earned)
		}

		newBadges, err := s.badgeSvc.GrantNewBadges(ctx, tx, progress, nil)
		if err != nil {
			return err
		}

		if opID != "" {
			progress.ProcessedOpIDs = append(progress.ProcessedOpIDs, opID)
		}

		if err := s.progressRepo.Save(ctx, tx, progress); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の保存に失敗しました。", "", err)
		}

		if err := s.userRepo.UpdateXPLevel(ctx, tx, studentID, progress.XP, progress.Level); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー情報の更新に失敗しました。", "", err)
		}

		outcome = &applyOutcome{
			Progress:  progress,
			Lesson:    lesson,
			XPEarned:  earned,
			NewBadges: newBadges,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !outcome.AlreadyProcessed {
		logger.Info("Progress event applied",
			"student_id", studentID.String(),
			"lesson_id", lessonID.String(),
			"xp_earned", outcome.XPEarned,
			"new_badges", outcome.NewBadges,
		)
	}
	return outcome, nil
}

// Snapshot は完了レッスンIDをタイトル付きの要約に展開して返す。
// 削除済みレッスンは一覧から抜ける（台帳上のIDは保持されたまま）。
func (s *progressService) Snapshot(ctx context.Context, db *gorm.DB, progress *model.Progress) (*model.ProgressSnapshot, error) {
	lessons, err := s.lessonRepo.FindByIDs(ctx, db, progress.LessonsCompleted)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "レッスン情報の取得に失敗しました。", "", err)
	}

	byID := make(map[uuid.UUID]*model.Lesson, len(lessons))
	for _, l := range lessons {
		byID[l.LessonID] = l
	}

	summaries := []model.LessonSummary{}
	for _, id := range progress.LessonsCompleted {
		if l, ok := byID[id]; ok {
			summaries = append(summaries, model.LessonSummary{
				LessonID: l.LessonID,
				Title:    l.Title,
				FileURL:  l.FileURL,
			})
		}
	}

	badges := progress.Badges
	if badges == nil {
		badges = []string{}
	}

	return &model.ProgressSnapshot{
		StudentID:        progress.StudentID,
		XP:               progress.XP,
		Level:            progress.Level,
		LessonsCompleted: summaries,
		Badges:           badges,
	}, nil
}

// GetProgress は台帳スナップショットを返す。台帳が無ければ作成して返す
// (get-or-create)。参照だけでも台帳が実体化される点は書き込みと同じ。
func (s *progressService) GetProgress(ctx context.Context, studentID uuid.UUID) (*model.ProgressSnapshot, error) {
	var snapshot *model.ProgressSnapshot
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.getOrCreateProgress(ctx, tx, studentID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の取得に失敗しました。", "", err)
		}
		snapshot, err = s.Snapshot(ctx, tx, progress)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}

// CompleteLesson は学生自身のレッスン完了報告
func (s *progressService) CompleteLesson(ctx context.Context, studentID uuid.UUID, req *model.CompleteLessonRequest) (*model.CompleteLessonResult, error) {
	outcome, err := s.Apply(ctx, studentID, req.LessonID, nil, req.OpID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshotOf(ctx, outcome.Progress)
	if err != nil {
		return nil, err
	}

	result := &model.CompleteLessonResult{
		XPEarned:  outcome.XPEarned,
		NewBadges: outcome.NewBadges,
		Progress:  snapshot,
	}
	if outcome.Lesson != nil {
		result.Lesson = model.LessonSummary{
			LessonID: outcome.Lesson.LessonID,
			Title:    outcome.Lesson.Title,
			FileURL:  outcome.Lesson.FileURL,
		}
	}
	return result, nil
}

// AwardManual は教師・管理者による任意XPの手動付与
func (s *progressService) AwardManual(ctx context.Context, req *model.ManualAwardRequest) (*model.ManualAwardResult, error) {
	outcome, err := s.Apply(ctx, req.StudentID, req.LessonID, req.XPEarned, req.OpID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshotOf(ctx, outcome.Progress)
	if err != nil {
		return nil, err
	}
	return &model.ManualAwardResult{
		NewBadges: outcome.NewBadges,
		Progress:  snapshot,
	}, nil
}

// AwardByEmail はメールアドレス指定の付与（管理ツール向け）。レッスンタイトルは
// 任意で、指定があればそのレッスンの完了扱い、無ければレッスンに紐付かない
// 純粋なXP加算になる。opIdを持たないため、再実行の冪等性はレッスン指定時の
// 完了集合の重複排除のみに依る。
func (s *progressService) AwardByEmail(ctx context.Context, req *model.AddXPByEmailRequest) (*model.AddXPByEmailResult, error) {
	logger := middleware.GetLogger(ctx)

	user, err := s.userRepo.FindByEmail(ctx, s.db, req.StudentEmail)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			logger.Warn("Student not found for xp award", "email", req.StudentEmail)
			return nil, model.NewAppError("STUDENT_NOT_FOUND", "指定されたメールアドレスの生徒が見つかりません。", "student_email", model.ErrNotFound)
		}
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
	}

	var outcome *applyOutcome
	if req.LessonTitle != "" {
		lesson, err := s.lessonRepo.FindByTitle(ctx, s.db, req.LessonTitle)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, model.NewAppError("LESSON_NOT_FOUND", "レッスンが見つかりません。", "lesson_title", model.ErrNotFound)
			}
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "サーバー内部エラー", "", err)
		}
		outcome, err = s.Apply(ctx, user.UserID, lesson.LessonID, req.XPEarned, "")
		if err != nil {
			return nil, err
		}
	} else {
		outcome, err = s.awardXP(ctx, user.UserID, req.XPEarned)
		if err != nil {
			return nil, err
		}
	}

	return &model.AddXPByEmailResult{
		Student:   user.Name,
		XP:        outcome.Progress.XP,
		Level:     outcome.Progress.Level,
		NewBadges: outcome.NewBadges,
	}, nil
}

// awardXP はレッスンに紐付かないXP加算。完了集合もopId集合も変更しないため、
// 呼び出すたびに加算される。レベル・レッスン数のバッジ評価は通常どおり行う。
func (s *progressService) awardXP(ctx context.Context, studentID uuid.UUID, xpEarned *int) (*applyOutcome, error) {
	logger := middleware.GetLogger(ctx)

	mu := lockStudent(studentID)
	mu.Lock()
	defer mu.Unlock()

	var outcome *applyOutcome
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.getOrCreateProgress(ctx, tx, studentID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の取得に失敗しました。", "", err)
		}

		earned := s.cfg.App.DefaultLessonXP
		if xpEarned != nil && *xpEarned > 0 {
			earned = *xpEarned
		}
		progress.XP, progress.Level = xputil.Add(progress.XP, earned)

		newBadges, err := s.badgeSvc.GrantNewBadges(ctx, tx, progress, nil)
		if err != nil {
			return err
		}

		if err := s.progressRepo.Save(ctx, tx, progress); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の保存に失敗しました。", "", err)
		}
		if err := s.userRepo.UpdateXPLevel(ctx, tx, studentID, progress.XP, progress.Level); err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "ユーザー情報の更新に失敗しました。", "", err)
		}

		outcome = &applyOutcome{
			Progress:  progress,
			XPEarned:  earned,
			NewBadges: newBadges,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("XP awarded without lesson",
		"student_id", studentID.String(),
		"xp_earned", outcome.XPEarned,
		"new_badges", outcome.NewBadges,
	)
	return outcome, nil
}

// GetBadges は獲得済みバッジをカタログのメタデータ付きで返す。
// カタログ未登録のバッジ名は名前のみで返る。
func (s *progressService) GetBadges(ctx context.Context, studentID uuid.UUID) ([]model.BadgeResponse, error) {
	var responses []model.BadgeResponse
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		progress, err := s.getOrCreateProgress(ctx, tx, studentID)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "進捗台帳の取得に失敗しました。", "", err)
		}

		catalog, err := s.badgeRepo.FindByNames(ctx, tx, progress.Badges)
		if err != nil {
			return model.NewAppError("INTERNAL_SERVER_ERROR", "バッジ情報の取得に失敗しました。", "", err)
		}
		byName := make(map[string]*model.Badge, len(catalog))
		for _, b := range catalog {
			byName[b.Name] = b
		}

		responses = []model.BadgeResponse{}
		for _, name := range progress.Badges {
			resp := model.BadgeResponse{Name: name}
			if b, ok := byName[name]; ok {
				resp.Description = b.Description
				resp.IconURL = b.IconURL
			}
			responses = append(responses, resp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *progressService) snapshotOf(ctx context.Context, progress *model.Progress) (*model.ProgressSnapshot, error) {
	return s.Snapshot(ctx, s.db, progress)
}
