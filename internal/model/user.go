// internal/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// テーマ設定として許可する値
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// User はアカウントの基本情報と学習設定を表します
type User struct {
	UserID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"user_id"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"unique;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	DailyLimit   int            `gorm:"not null;default:20" json:"daily_limit"` // 1日の復習上限
	Theme        string         `gorm:"not null;default:system" json:"theme"`
	ProfileURL   *string        `json:"profile_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// GORM用のリレーション (JSONには含めない)
	// ユーザー削除時に配下のレコードをカスケード削除する
	Vocabularies []Vocabulary `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Tags         []Tag        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reviews      []Review     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

type ContextKey string

const (
	UserIDKey ContextKey = "userID"
)

// RegisterRequest は新規登録APIのリクエストボディの構造体 (DTO)
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UpdateSettingsRequest はアカウント設定更新のDTO。
// 各フィールドは省略可能で、指定されたものだけ更新する。
type UpdateSettingsRequest struct {
	Name       *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	DailyLimit *int    `json:"daily_limit,omitempty" validate:"omitempty,gte=1,lte=200"`
	Theme      *string `json:"theme,omitempty" validate:"omitempty,oneof=light dark system"`
	ProfileURL *string `json:"profile_url,omitempty" validate:"omitempty,http_url"`
}

// UserResponse はクライアントに返すユーザー情報の構造体
type UserResponse struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	DailyLimit int       `json:"daily_limit"`
	Theme      string    `json:"theme"`
	ProfileURL *string   `json:"profile_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewUserResponse(u *User) *UserResponse {
	return &UserResponse{
		UserID:     u.UserID,
		Name:       u.Name,
		Email:      u.Email,
		DailyLimit: u.DailyLimit,
		Theme:      u.Theme,
		ProfileURL: u.ProfileURL,
		CreatedAt:  u.CreatedAt,
	}
}
