package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordResetToken はパスワード再設定用のワンタイムトークンです
type PasswordResetToken struct {
	Token     string    `gorm:"primaryKey"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	ExpiresAt time.Time `gorm:"not null"`
}

func (PasswordResetToken) TableName() string {
	return "password_reset_tokens"
}
