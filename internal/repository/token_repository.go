// internal/repository/token_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TokenRepository interface {
	Create(ctx context.Context, tx *gorm.DB, token *model.PasswordResetToken) error
	FindByToken(ctx context.Context, db *gorm.DB, token string) (*model.PasswordResetToken, error)
	Delete(ctx context.Context, tx *gorm.DB, token string) error
	DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
}

type gormTokenRepository struct{}

func NewGormTokenRepository() TokenRepository {
	return &gormTokenRepository{}
}

func (r *gormTokenRepository) Create(ctx context.Context, tx *gorm.DB, token *model.PasswordResetToken) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(token)
	if result.Error != nil {
		logger.Error("Error creating password reset token in DB",
			"error", result.Error,
			"user_id", token.UserID.String(),
		)
		return fmt.Errorf("gormTokenRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormTokenRepository) FindByToken(ctx context.Context, db *gorm.DB, token string) (*model.PasswordResetToken, error) {
	var prt model.PasswordResetToken
	result := db.WithContext(ctx).Where("token = ?", token).First(&prt)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormTokenRepository.FindByToken: %w", result.Error)
	}
	return &prt, nil
}

func (r *gormTokenRepository) Delete(ctx context.Context, tx *gorm.DB, token string) error {
	result := tx.WithContext(ctx).Where("token = ?", token).Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		return fmt.Errorf("gormTokenRepository.Delete: %w", result.Error)
	}
	return nil
}

// DeleteByUser は指定ユーザーの発行済みトークンをすべて削除します (パスワード変更時の無効化用)。
func (r *gormTokenRepository) DeleteByUser(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	result := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PasswordResetToken{})
	if result.Error != nil {
		return fmt.Errorf("gormTokenRepository.DeleteByUser: %w", result.Error)
	}
	return nil
}
