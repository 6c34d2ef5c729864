// internal/model/notification.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification はユーザー宛の通知。バッジ付与1件につき1通作成される。
type Notification struct {
	NotificationID uuid.UUID `gorm:"type:uuid;primaryKey" json:"notification_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type           string    `gorm:"not null" json:"type"`
	Title          string    `gorm:"not null" json:"title"`
	Body           string    `json:"body"`
	Read           bool      `gorm:"not null;default:false" json:"read"`
	SentAt         time.Time `json:"sent_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

const NotificationTypeBadge = "badge"
