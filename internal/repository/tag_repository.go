// internal/repository/tag_repository.go
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

type TagRepository interface {
	Create(ctx context.Context, tx *gorm.DB, tag *model.Tag) error
	FindByID(ctx context.Context, db *gorm.DB, userID, tagID uuid.UUID) (*model.Tag, error)
	FindByIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, tagIDs []uuid.UUID) ([]model.Tag, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Tag, error)
	Update(ctx context.Context, tx *gorm.DB, userID, tagID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, userID, tagID uuid.UUID) error
}

type gormTagRepository struct{}

func NewGormTagRepository() TagRepository {
	return &gormTagRepository{}
}

func (r *gormTagRepository) Create(ctx context.Context, tx *gorm.DB, tag *model.Tag) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(tag)
	if result.Error != nil {
		// (user_id, name) の一意制約違反
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating tag in DB",
			"error", result.Error,
			"user_id", tag.UserID.String(),
			"name", tag.Name,
		)
		return fmt.Errorf("gormTagRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormTagRepository) FindByID(ctx context.Context, db *gorm.DB, userID, tagID uuid.UUID) (*model.Tag, error) {
	var tag model.Tag
	result := db.WithContext(ctx).Where("user_id = ? AND tag_id = ?", userID, tagID).First(&tag)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormTagRepository.FindByID: %w", result.Error)
	}
	return &tag, nil
}

func (r *gormTagRepository) FindByIDs(ctx context.Context, db *gorm.DB, userID uuid.UUID, tagIDs []uuid.UUID) ([]model.Tag, error) {
	if len(tagIDs) == 0 {
		return []model.Tag{}, nil
	}
	var tags []model.Tag
	result := db.WithContext(ctx).Where("user_id = ? AND tag_id IN ?", userID, tagIDs).Find(&tags)
	if result.Error != nil {
		return nil, fmt.Errorf("gormTagRepository.FindByIDs: %w", result.Error)
	}
	return tags, nil
}

func (r *gormTagRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Tag, error) {
	var tags []*model.Tag
	result := db.WithContext(ctx).Where("user_id = ?", userID).Order("name ASC").Find(&tags)
	if result.Error != nil {
		return nil, fmt.Errorf("gormTagRepository.FindByUser: %w", result.Error)
	}
	return tags, nil
}

func (r *gormTagRepository) Update(ctx context.Context, tx *gorm.DB, userID, tagID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Tag{}).
		Where("user_id = ? AND tag_id = ?", userID, tagID).Updates(updates)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error updating tag in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"tag_id", tagID.String(),
		)
		return fmt.Errorf("gormTagRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormTagRepository) Delete(ctx context.Context, tx *gorm.DB, userID, tagID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Tag{}, tagID)
	if result.Error != nil {
		logger.Error("Error deleting tag in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"tag_id", tagID.String(),
		)
		return fmt.Errorf("gormTagRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}
