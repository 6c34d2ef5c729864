// internal/service/sync_service_test.go
package service

import (
	"context"
	"testing"

	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_syncService_Sync(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	progressSvc := newProgressServiceForTest(db)
	svc := NewSyncService(db, progressSvc)

	t.Run("正常系: 失敗した操作はconflictに隔離されバッチは続行する", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson1 := createTestLesson(t, db, "同期レッスン1")
		lesson3 := createTestLesson(t, db, "同期レッスン3")

		resp, err := svc.Sync(ctx, student.UserID, &model.SyncRequest{
			Ops: []model.SyncOperation{
				{OpID: "op-1", Type: model.SyncOpProgress, Payload: model.SyncProgressPayload{LessonID: lesson1.LessonID}},
				{OpID: "op-2", Type: model.SyncOpProgress, Payload: model.SyncProgressPayload{LessonID: uuid.New()}}, // 存在しないレッスン
				{OpID: "op-3", Type: model.SyncOpProgress, Payload: model.SyncProgressPayload{LessonID: lesson3.LessonID}},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"op-1", "op-3"}, resp.Results.Synced)
		require.Len(t, resp.Results.Conflicts, 1)
		assert.Equal(t, "op-2", resp.Results.Conflicts[0].OpID)
		assert.NotEmpty(t, resp.Results.Conflicts[0].Error)

		// 成功した2件分のXPが反映された最新状態が返る
		state, ok := resp.State[student.UserID.String()]
		require.True(t, ok)
		assert.Equal(t, 20, state.XP)
		assert.Len(t, state.LessonsCompleted, 2)
	})

	t.Run("正常系: 未知のop typeはconflictになる", func(t *testing.T) {
		student := createTestStudent(t, db)

		resp, err := svc.Sync(ctx, student.UserID, &model.SyncRequest{
			Ops: []model.SyncOperation{
				{OpID: "op-x", Type: "unknown", Payload: model.SyncProgressPayload{LessonID: uuid.New()}},
			},
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Results.Synced)
		require.Len(t, resp.Results.Conflicts, 1)
		assert.Equal(t, "Unknown op type", resp.Results.Conflicts[0].Error)
		assert.Empty(t, resp.State)
	})

	t.Run("正常系: バッチ全体の再送は冪等", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "再送レッスン")

		req := &model.SyncRequest{
			Ops: []model.SyncOperation{
				{OpID: "op-idem", Type: model.SyncOpProgress, Payload: model.SyncProgressPayload{LessonID: lesson.LessonID}},
			},
		}

		first, err := svc.Sync(ctx, student.UserID, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"op-idem"}, first.Results.Synced)
		assert.Equal(t, 10, first.State[student.UserID.String()].XP)

		// 再送も成功として報告されるが、XPは増えない
		second, err := svc.Sync(ctx, student.UserID, req)
		require.NoError(t, err)
		assert.Equal(t, []string{"op-idem"}, second.Results.Synced)
		assert.Empty(t, second.Results.Conflicts)
		assert.Equal(t, 10, second.State[student.UserID.String()].XP)
	})

	t.Run("正常系: payloadのstudent_idで他学生への適用ができる", func(t *testing.T) {
		caller := createTestStudent(t, db)
		target := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "代理同期レッスン")
		xp := 25

		resp, err := svc.Sync(ctx, caller.UserID, &model.SyncRequest{
			Ops: []model.SyncOperation{
				{OpID: "op-proxy", Type: model.SyncOpProgress, Payload: model.SyncProgressPayload{
					StudentID: target.UserID,
					LessonID:  lesson.LessonID,
					XPEarned:  &xp,
				}},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"op-proxy"}, resp.Results.Synced)

		state, ok := resp.State[target.UserID.String()]
		require.True(t, ok)
		assert.Equal(t, 25, state.XP)
		_, callerTouched := resp.State[caller.UserID.String()]
		assert.False(t, callerTouched)
	})

	t.Run("境界系: op_id無しの操作は適用されるがsyncedには載らない", func(t *testing.T) {
		student := createTestStudent(t, db)
		lesson := createTestLesson(t, db, "op_id無しレッスン")

		resp, err := svc.Sync(ctx, student.UserID, &model.SyncRequest{
			Ops: []model.SyncOperation{
				{Type: model.SyncOpProgress, Payload: model.SyncProgressPayload{LessonID: lesson.LessonID}},
			},
		})
		require.NoError(t, err)
		assert.Empty(t, resp.Results.Synced)
		assert.Empty(t, resp.Results.Conflicts)

		// XP加算自体は行われている
		state, ok := resp.State[student.UserID.String()]
		require.True(t, ok)
		assert.Equal(t, 10, state.XP)
	})

	t.Run("境界系: 空のバッチは空の結果を返す", func(t *testing.T) {
		student := createTestStudent(t, db)

		resp, err := svc.Sync(ctx, student.UserID, &model.SyncRequest{Ops: []model.SyncOperation{}})
		require.NoError(t, err)
		assert.NotNil(t, resp.Results.Synced)
		assert.Empty(t, resp.Results.Synced)
		assert.Empty(t, resp.Results.Conflicts)
		assert.Empty(t, resp.State)
	})
}
