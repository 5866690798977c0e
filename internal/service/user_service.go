package service

import (
	"context"
	"errors"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"
	"vocab_trainer/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserService interface {
	GetMe(ctx context.Context, userID uuid.UUID) (*model.User, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req *model.UpdateSettingsRequest) (*model.User, error)
	DeleteAccount(ctx context.Context, userID uuid.UUID) error
	GetUsage(ctx context.Context, userID uuid.UUID, from, to string) ([]*model.APIUsage, error)
}

type userService struct {
	db        *gorm.DB
	userRepo  repository.UserRepository
	usageRepo repository.UsageRepository
	tokenRepo repository.TokenRepository
}

func NewUserService(db *gorm.DB, userRepo repository.UserRepository, usageRepo repository.UsageRepository, tokenRepo repository.TokenRepository) UserService {
	return &userService{
		db:        db,
		userRepo:  userRepo,
		usageRepo: usageRepo,
		tokenRepo: tokenRepo,
	}
}

func (s *userService) GetMe(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err != nil {
		// エラーはリポジトリで変換済みのはず
		return nil, err
	}
	return user, nil
}

// UpdateSettings は指定されたフィールドだけを更新します
func (s *userService) UpdateSettings(ctx context.Context, userID uuid.UUID, req *model.UpdateSettingsRequest) (*model.User, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	updates := make(map[string]interface{})
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.DailyLimit != nil {
		updates["daily_limit"] = *req.DailyLimit
	}
	if req.Theme != nil {
		updates["theme"] = *req.Theme
	}
	if req.ProfileURL != nil {
		updates["profile_url"] = *req.ProfileURL
	}

	var updated *model.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.Update(ctx, tx, userID, updates); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Failed to update user settings", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "設定の更新に失敗しました。", "", err)
		}

		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			logger.Error("Failed to reload user after update", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "設定の更新に失敗しました。", "", err)
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User settings updated", "fields", len(updates))
	return updated, nil
}

// DeleteAccount はユーザーと配下の全データ (単語・タグ・復習状態・使用量・トークン) を
// 1トランザクションで削除します
func (s *userService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 外部キーのカスケードに頼らず、子テーブルから順に消す
		if err := tx.Where("user_id = ?", userID).Delete(&model.Review{}).Error; err != nil {
			logger.Error("Failed to delete reviews for account deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}
		if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&model.Vocabulary{}).Error; err != nil {
			logger.Error("Failed to delete vocabularies for account deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}
		// 多対多の割り当て行には user_id がないので、タグ経由で明示的に掃除する
		if err := tx.Exec(
			"DELETE FROM vocabulary_tags WHERE tag_tag_id IN (SELECT tag_id FROM tags WHERE user_id = ?)", userID,
		).Error; err != nil {
			logger.Error("Failed to delete tag assignments for account deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.Tag{}).Error; err != nil {
			logger.Error("Failed to delete tags for account deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}
		if err := tx.Where("user_id = ?", userID).Delete(&model.APIUsage{}).Error; err != nil {
			logger.Error("Failed to delete usage records for account deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}
		if err := s.tokenRepo.DeleteByUser(ctx, tx, userID); err != nil {
			logger.Error("Failed to delete reset tokens for account deletion", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}

		if err := s.userRepo.Delete(ctx, tx, userID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "ユーザーが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Failed to delete user", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "アカウントの削除に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Account deleted")
	return nil
}

func (s *userService) GetUsage(ctx context.Context, userID uuid.UUID, from, to string) ([]*model.APIUsage, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	usages, err := s.usageRepo.ListByUser(ctx, s.db, userID, from, to)
	if err != nil {
		logger.Error("Failed to list API usage", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "使用量の取得に失敗しました。", "", err)
	}
	return usages, nil
}
