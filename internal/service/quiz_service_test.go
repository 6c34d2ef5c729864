// internal/service/quiz_service_test.go
package service

import (
	"context"
	"errors"
	"testing"

	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_quizService_CreateQuiz(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newQuizServiceForTest(db)

	t.Run("正常系: 設問のデフォルト値が補完される", func(t *testing.T) {
		creator := createTestStudent(t, db)

		quiz, err := svc.CreateQuiz(ctx, creator.UserID, &model.PostQuizRequest{
			Title: "算数クイズ",
			Questions: []model.PostQuestionRequest{
				{Text: "1+1は？", Options: []string{"1", "2"}, AnswerIndex: 1},
				{Text: "説明せよ", Type: model.QuestionTypeShort, Marks: 3},
			},
		})
		require.NoError(t, err)
		require.Len(t, quiz.Questions, 2)
		assert.Equal(t, model.QuestionTypeMCQ, quiz.Questions[0].Type)
		assert.Equal(t, 1, quiz.Questions[0].Marks)
		assert.Equal(t, model.QuestionTypeShort, quiz.Questions[1].Type)
		assert.Equal(t, 3, quiz.Questions[1].Marks)
		assert.NotEqual(t, uuid.Nil, quiz.Questions[0].QuestionID)
	})
}

func Test_quizService_AttemptQuiz(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newQuizServiceForTest(db)

	newQuiz := func(t *testing.T, questions []model.Question) *model.Quiz {
		t.Helper()
		quiz := &model.Quiz{
			QuizID:    uuid.New(),
			Title:     "テストクイズ",
			Questions: questions,
		}
		require.NoError(t, db.Create(quiz).Error)
		return quiz
	}

	t.Run("正常系: 部分正解の採点とXP換算", func(t *testing.T) {
		student := createTestStudent(t, db)
		q1 := uuid.New()
		q2 := uuid.New()
		quiz := newQuiz(t, []model.Question{
			{QuestionID: q1, Text: "Q1", Type: model.QuestionTypeMCQ, AnswerIndex: 0, Marks: 1},
			{QuestionID: q2, Text: "Q2", Type: model.QuestionTypeMCQ, AnswerIndex: 2, Marks: 2},
		})

		// Q1は誤答、Q2は正答 → score=2, totalMarks=3
		result, err := svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{
				{QuestionID: q1, Answer: 1},
				{QuestionID: q2, Answer: 2},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, result.Score)
		assert.Equal(t, 3, result.TotalMarks)
		assert.Equal(t, 13, result.XPEarned) // round(2/3*20)
		assert.Equal(t, 13, result.NewXP)
		assert.Equal(t, 1, result.NewLevel)
	})

	t.Run("正常系: 存在しない設問への回答は無視される", func(t *testing.T) {
		student := createTestStudent(t, db)
		q1 := uuid.New()
		quiz := newQuiz(t, []model.Question{
			{QuestionID: q1, Text: "Q1", Type: model.QuestionTypeMCQ, AnswerIndex: 0, Marks: 1},
		})

		result, err := svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{
				{QuestionID: q1, Answer: 0},
				{QuestionID: uuid.New(), Answer: 0}, // 未知の設問
			},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, result.Score)
		assert.Equal(t, 1, result.TotalMarks)
		assert.Equal(t, 20, result.XPEarned)
	})

	t.Run("境界系: 回答なしはXP0", func(t *testing.T) {
		student := createTestStudent(t, db)
		quiz := newQuiz(t, []model.Question{
			{QuestionID: uuid.New(), Text: "Q1", Type: model.QuestionTypeMCQ, AnswerIndex: 0, Marks: 1},
		})

		result, err := svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{},
		})
		require.NoError(t, err)
		assert.Equal(t, 0, result.Score)
		assert.Equal(t, 0, result.TotalMarks)
		assert.Equal(t, 0, result.XPEarned)
	})

	t.Run("正常系: 満点でクイズ系バッジが付与される", func(t *testing.T) {
		student := createTestStudent(t, db)
		q1 := uuid.New()
		quiz := newQuiz(t, []model.Question{
			{QuestionID: q1, Text: "Q1", Type: model.QuestionTypeMCQ, AnswerIndex: 0, Marks: 1},
		})

		result, err := svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{{QuestionID: q1, Answer: 0}},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"Quiz Rookie", "Quiz Pro"}, result.NewBadges)
	})

	t.Run("異常系: 再受験は初回結果付きで拒否される", func(t *testing.T) {
		student := createTestStudent(t, db)
		q1 := uuid.New()
		quiz := newQuiz(t, []model.Question{
			{QuestionID: q1, Text: "Q1", Type: model.QuestionTypeMCQ, AnswerIndex: 0, Marks: 1},
		})

		first, err := svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{{QuestionID: q1, Answer: 0}},
		})
		require.NoError(t, err)

		_, err = svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{{QuestionID: q1, Answer: 1}},
		})
		require.Error(t, err)

		var dupErr *model.DuplicateAttemptError
		require.True(t, errors.As(err, &dupErr))
		assert.Equal(t, first.AttemptID, dupErr.AttemptID)
		assert.Equal(t, first.Score, dupErr.Score)
		assert.Equal(t, first.XPEarned, dupErr.XPEarned)
		assert.True(t, errors.Is(err, model.ErrConflict))

		// 2回目のXPは加算されていない
		var progress model.Progress
		require.NoError(t, db.Where("student_id = ?", student.UserID).First(&progress).Error)
		assert.Equal(t, first.XPEarned, progress.XP)
	})

	t.Run("異常系: 存在しないクイズはNotFound", func(t *testing.T) {
		student := createTestStudent(t, db)

		_, err := svc.AttemptQuiz(ctx, student.UserID, uuid.New(), &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, model.ErrNotFound))
	})
}

func Test_quizService_ListAttempts(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newQuizServiceForTest(db)

	t.Run("正常系: 受験履歴はクイズタイトル付きで返る", func(t *testing.T) {
		student := createTestStudent(t, db)
		q1 := uuid.New()
		quiz := &model.Quiz{
			QuizID: uuid.New(),
			Title:  "履歴確認クイズ",
			Questions: []model.Question{
				{QuestionID: q1, Text: "Q1", Type: model.QuestionTypeMCQ, AnswerIndex: 0, Marks: 1},
			},
		}
		require.NoError(t, db.Create(quiz).Error)

		_, err := svc.AttemptQuiz(ctx, student.UserID, quiz.QuizID, &model.AttemptQuizRequest{
			Answers: []model.AnswerSubmission{{QuestionID: q1, Answer: 0}},
		})
		require.NoError(t, err)

		attempts, err := svc.ListAttempts(ctx, student.UserID)
		require.NoError(t, err)
		require.Len(t, attempts, 1)
		assert.Equal(t, "履歴確認クイズ", attempts[0].QuizTitle)
		assert.Equal(t, 1, attempts[0].Score)
	})
}
