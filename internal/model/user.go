// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleParent  Role = "parent"
	RoleAdmin   Role = "admin"
)

// User はアカウントの基本情報。XP/Levelは台帳(Progress)の非正規化キャッシュで、
// 台帳の更新後に毎回ミラーされる（台帳より最大1書き込み分だけ遅れてよい）。
type User struct {
	UserID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"unique;not null" json:"email"`
	Role         Role           `gorm:"not null;default:student" json:"role"`
	PasswordHash string         `gorm:"not null" json:"-"`
	XP           int            `gorm:"not null;default:0" json:"xp"`
	Level        int            `gorm:"not null;default:1" json:"level"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

type ContextKey string

const (
	UserIDKey   ContextKey = "userID"
	UserRoleKey ContextKey = "userRole"
)

// RegisterRequest は新規登録APIのリクエストボディ (DTO)。ロール省略時はstudent。
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     Role   `json:"role" validate:"omitempty,oneof=student teacher parent admin"`
}

// UserResponse はクライアントに返すユーザー情報
type UserResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	XP        int       `json:"xp"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		UserID:    u.UserID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		XP:        u.XP,
		Level:     u.Level,
		CreatedAt: u.CreatedAt,
	}
}
