package service

import (
	"context"
	"errors"

	"manabi_quest/internal/model"
	"manabi_quest/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationService interface {
	ListNotifications(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

type notificationService struct {
	db        *gorm.DB
	notifRepo repository.NotificationRepository
}

func NewNotificationService(db *gorm.DB, notifRepo repository.NotificationRepository) NotificationService {
	return &notificationService{db: db, notifRepo: notifRepo}
}

func (s *notificationService) ListNotifications(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	notifications, err := s.notifRepo.ListByUser(ctx, s.db, userID)
	if err != nil {
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "通知一覧の取得に失敗しました。", "", err)
	}
	return notifications, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.notifRepo.MarkRead(ctx, tx, userID, notificationID)
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.NewAppError("NOTIFICATION_NOT_FOUND", "通知が見つかりません。", "", model.ErrNotFound)
		}
		return model.NewAppError("INTERNAL_SERVER_ERROR", "通知の更新に失敗しました。", "", err)
	}
	return nil
}
