package service

import (
	"context"
	"errors"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncService interface {
	// Sync はオフラインキューのオペレーション列を受信順に適用する。
	// 1件の失敗はその操作のconflict記録に留まり、バッチ全体は中断しない。
	Sync(ctx context.Context, callerID uuid.UUID, req *model.SyncRequest) (*model.SyncResponse, error)
}

type syncService struct {
	db          *gorm.DB
	progressSvc ProgressService
}

func NewSyncService(db *gorm.DB, progressSvc ProgressService) SyncService {
	return &syncService{db: db, progressSvc: progressSvc}
}

func (s *syncService) Sync(ctx context.Context, callerID uuid.UUID, req *model.SyncRequest) (*model.SyncResponse, error) {
	logger := middleware.GetLogger(ctx)

	response := &model.SyncResponse{
		Results: model.SyncResults{
			Synced:    []string{},
			Conflicts: []model.SyncConflict{},
		},
		State: map[string]*model.ProgressSnapshot{},
	}

	// 影響を受けた学生の集合。重複なく、最後にまとめてスナップショットを取る。
	affected := map[uuid.UUID]bool{}

	for _, op := range req.Ops {
		if op.Type != model.SyncOpProgress {
			logger.Warn("Unknown sync op type", "op_id", op.OpID, "type", string(op.Type))
			response.Results.Conflicts = append(response.Results.Conflicts, model.SyncConflict{
				OpID:  op.OpID,
				Error: "Unknown op type",
			})
			continue
		}

		studentID := op.Payload.StudentID
		if studentID == uuid.Nil {
			studentID = callerID
		}

		_, err := s.progressSvc.Apply(ctx, studentID, op.Payload.LessonID, op.Payload.XPEarned, op.OpID)
		if err != nil {
			logger.Warn("Sync op failed", "op_id", op.OpID, "error", err)
			response.Results.Conflicts = append(response.Results.Conflicts, model.SyncConflict{
				OpID:  op.OpID,
				Error: conflictMessage(err),
			})
			continue
		}

		// 再送(処理済みopId)も成功として報告する。opId無しの操作は適用は
		// されるが、クライアントが照合できないためsyncedには載せない。
		if op.OpID != "" {
			response.Results.Synced = append(response.Results.Synced, op.OpID)
		}
		affected[studentID] = true
	}

	for studentID := range affected {
		snapshot, err := s.progressSvc.GetProgress(ctx, studentID)
		if err != nil {
			logger.Error("Failed to snapshot progress after sync", "student_id", studentID.String(), "error", err)
			continue
		}
		response.State[studentID.String()] = snapshot
	}

	logger.Info("Sync batch processed",
		"ops", len(req.Ops),
		"synced", len(response.Results.Synced),
		"conflicts", len(response.Results.Conflicts),
	)
	return response, nil
}

// conflictMessage は失敗した操作のconflict記録に載せるメッセージ
func conflictMessage(err error) string {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		return appErr.Detail.Message
	}
	return err.Error()
}
