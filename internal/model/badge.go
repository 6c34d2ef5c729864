// internal/model/badge.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Badge はバッジカタログ（表示用メタデータ）。台帳側はバッジ名の文字列集合
// だけを保持し、このテーブルはアイコン等の解決にのみ使われる。
type Badge struct {
	BadgeID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"badge_id"`
	Name        string    `gorm:"unique;not null" json:"name"`
	Description string    `json:"description"`
	IconURL     string    `json:"icon_url"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Badge) TableName() string {
	return "badges"
}

// BadgeResponse は獲得済みバッジの表示用レスポンス。カタログに
// メタデータが無いバッジは名前のみで返る。
type BadgeResponse struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IconURL     string `json:"icon_url,omitempty"`
}
