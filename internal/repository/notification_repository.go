//go:generate mockery --name NotificationRepository --output ./mocks --outpkg mocks --case=underscore
package repository

import (
	"context"
	"errors"
	"fmt"

	"manabi_quest/internal/middleware"
	"manabi_quest/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(ctx context.Context, db *gorm.DB, notification *model.Notification) error
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Notification, error)
	MarkRead(ctx context.Context, db *gorm.DB, userID, notificationID uuid.UUID) error
}

type gormNotificationRepository struct{}

func NewGormNotificationRepository() NotificationRepository {
	return &gormNotificationRepository{}
}

func (r *gormNotificationRepository) Create(ctx context.Context, db *gorm.DB, notification *model.Notification) error {
	logger := middleware.GetLogger(ctx)

	result := db.WithContext(ctx).Create(notification)
	if result.Error != nil {
		logger.Error("Error creating notification in DB", "error", result.Error, "user_id", notification.UserID.String())
		return fmt.Errorf("gormNotificationRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormNotificationRepository) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Notification, error) {
	var notifications []*model.Notification
	result := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sent_at DESC").
		Find(&notifications)
	if result.Error != nil {
		return nil, fmt.Errorf("gormNotificationRepository.ListByUser: %w", result.Error)
	}
	return notifications, nil
}

// MarkRead は本人の通知のみ既読化できる。他人の通知IDを指定しても
// RowsAffected=0 となり NotFound を返す。
func (r *gormNotificationRepository) MarkRead(ctx context.Context, db *gorm.DB, userID, notificationID uuid.UUID) error {
	result := db.WithContext(ctx).Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("read", true)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return model.ErrNotFound
		}
		return fmt.Errorf("gormNotificationRepository.MarkRead: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
