// internal/model/progress.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Progress は学生1人につき1件の進捗台帳。
// 元実装が1ドキュメントで保持していた集合フィールド（完了レッスン・バッジ・
// 処理済みopId）はJSONカラムとして同じ1行に保持する。read-modify-writeが
// 常に単一行の更新になることが、§不変条件（XP二重加算の禁止）の前提になる。
type Progress struct {
	ProgressID       uuid.UUID   `gorm:"type:uuid;primaryKey" json:"progress_id"`
	StudentID        uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"student_id"`
	XP               int         `gorm:"not null;default:0" json:"xp"`
	Level            int         `gorm:"not null;default:1" json:"level"`
	LessonsCompleted []uuid.UUID `gorm:"serializer:json" json:"lessons_completed"`
	Badges           []string    `gorm:"serializer:json" json:"badges"`
	ProcessedOpIDs   []string    `gorm:"serializer:json" json:"-"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

// HasLesson は完了レッスン集合への所属判定
func (p *Progress) HasLesson(lessonID uuid.UUID) bool {
	for _, id := range p.LessonsCompleted {
		if id == lessonID {
			return true
		}
	}
	return false
}

// HasProcessedOp は冪等化ガードの判定。opIdが空文字の場合は追跡対象外。
func (p *Progress) HasProcessedOp(opID string) bool {
	if opID == "" {
		return false
	}
	for _, id := range p.ProcessedOpIDs {
		if id == opID {
			return true
		}
	}
	return false
}

// HasBadge はバッジ集合への所属判定
func (p *Progress) HasBadge(name string) bool {
	for _, b := range p.Badges {
		if b == name {
			return true
		}
	}
	return false
}

// ProgressSnapshot はクライアントへ返す台帳スナップショット。
// 完了レッスンは表示用メタデータ付きで展開される。
type ProgressSnapshot struct {
	StudentID        uuid.UUID       `json:"student_id"`
	XP               int             `json:"xp"`
	Level            int             `json:"level"`
	LessonsCompleted []LessonSummary `json:"lessons_completed"`
	Badges           []string        `json:"badges"`
}

// --- 進捗系リクエスト/レスポンスDTO ---

// ManualAwardRequest は教師・管理者による手動XP付与
type ManualAwardRequest struct {
	StudentID uuid.UUID `json:"student_id" validate:"required"`
	LessonID  uuid.UUID `json:"lesson_id" validate:"required"`
	XPEarned  *int      `json:"xp_earned,omitempty" validate:"omitempty,min=1"`
	OpID      string    `json:"op_id,omitempty"`
}

// CompleteLessonRequest は学生自身によるレッスン完了報告
type CompleteLessonRequest struct {
	LessonID uuid.UUID `json:"lesson_id" validate:"required"`
	OpID     string    `json:"op_id,omitempty"`
}

// CompleteLessonResult はレッスン完了のレスポンス
type CompleteLessonResult struct {
	Lesson    LessonSummary     `json:"lesson"`
	XPEarned  int               `json:"xp_earned"`
	NewBadges []string          `json:"new_badges"`
	Progress  *ProgressSnapshot `json:"progress"`
}

// ManualAwardResult は手動付与のレスポンス
type ManualAwardResult struct {
	NewBadges []string          `json:"new_badges"`
	Progress  *ProgressSnapshot `json:"progress"`
}

// AddXPByEmailRequest はメールアドレス＋レッスンタイトル指定のXP付与
type AddXPByEmailRequest struct {
	StudentEmail string `json:"student_email" validate:"required,email"`
	LessonTitle  string `json:"lesson_title,omitempty"`
	XPEarned     *int   `json:"xp_earned,omitempty" validate:"omitempty,min=1"`
}

// AddXPByEmailResult はメール指定XP付与のレスポンス
type AddXPByEmailResult struct {
	Student   string   `json:"student"`
	XP        int      `json:"xp"`
	Level     int      `json:"level"`
	NewBadges []string `json:"new_badges"`
}

// --- バッチ同期 ---

type SyncOpType string

const (
	// SyncOpProgress はオフラインキューに積まれた進捗イベント
	SyncOpProgress SyncOpType = "progress"
)

// SyncProgressPayload は progress 型オペレーションのペイロード。
// StudentIDが省略された場合は呼び出し元自身、XPEarnedが省略された場合は
// 設定された標準レッスンXPが使われる。
type SyncProgressPayload struct {
	StudentID uuid.UUID `json:"student_id,omitempty"`
	LessonID  uuid.UUID `json:"lesson_id"`
	XPEarned  *int      `json:"xp_earned,omitempty"`
}

// SyncOperation はクライアントがオフライン中にキューへ積んだ1操作
type SyncOperation struct {
	OpID    string              `json:"op_id"`
	Type    SyncOpType          `json:"type"`
	Payload SyncProgressPayload `json:"payload"`
}

type SyncRequest struct {
	ClientID string          `json:"client_id,omitempty"`
	Ops      []SyncOperation `json:"ops"`
}

// SyncConflict は適用できなかった操作の記録。バッチ全体は中断しない。
type SyncConflict struct {
	OpID  string `json:"op_id"`
	Error string `json:"error"`
}

type SyncResults struct {
	Synced    []string       `json:"synced"`
	Conflicts []SyncConflict `json:"conflicts"`
}

// SyncResponse は結果一覧と、影響を受けた学生ごとの最新台帳スナップショット
type SyncResponse struct {
	Results SyncResults                  `json:"results"`
	State   map[string]*ProgressSnapshot `json:"state"`
}
