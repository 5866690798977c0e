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

type TagService interface {
	CreateTag(ctx context.Context, userID uuid.UUID, req *model.PostTagRequest) (*model.Tag, error)
	ListTags(ctx context.Context, userID uuid.UUID) ([]*model.Tag, error)
	UpdateTag(ctx context.Context, userID, tagID uuid.UUID, req *model.PostTagRequest) (*model.Tag, error)
	DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error
}

type tagService struct {
	db      *gorm.DB
	tagRepo repository.TagRepository
}

func NewTagService(db *gorm.DB, tagRepo repository.TagRepository) TagService {
	return &tagService{
		db:      db,
		tagRepo: tagRepo,
	}
}

func (s *tagService) CreateTag(ctx context.Context, userID uuid.UUID, req *model.PostTagRequest) (*model.Tag, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	tag := &model.Tag{
		TagID:  uuid.New(),
		UserID: userID,
		Name:   req.Name,
		Color:  req.Color,
	}

	if err := s.tagRepo.Create(ctx, s.db, tag); err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, model.NewAppError("DUPLICATE_TAG", "同じ名前のタグが既に存在します。", "name", model.ErrConflict)
		}
		logger.Error("Failed to create tag", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "タグの作成に失敗しました。", "", err)
	}

	logger.Info("Tag created", "tag_id", tag.TagID, "name", tag.Name)
	return tag, nil
}

func (s *tagService) ListTags(ctx context.Context, userID uuid.UUID) ([]*model.Tag, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	tags, err := s.tagRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Failed to list tags", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "タグ一覧の取得に失敗しました。", "", err)
	}
	return tags, nil
}

func (s *tagService) UpdateTag(ctx context.Context, userID, tagID uuid.UUID, req *model.PostTagRequest) (*model.Tag, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "tag_id", tagID)
	var updated *model.Tag

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":  req.Name,
			"color": req.Color,
		}
		if err := s.tagRepo.Update(ctx, tx, userID, tagID, updates); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "タグが見つかりません。", "", model.ErrNotFound)
			}
			if errors.Is(err, model.ErrConflict) {
				return model.NewAppError("DUPLICATE_TAG", "同じ名前のタグが既に存在します。", "name", model.ErrConflict)
			}
			logger.Error("Failed to update tag", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの更新に失敗しました。", "", err)
		}

		tag, err := s.tagRepo.FindByID(ctx, tx, userID, tagID)
		if err != nil {
			logger.Error("Failed to reload tag after update", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの更新に失敗しました。", "", err)
		}
		updated = tag
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *tagService) DeleteTag(ctx context.Context, userID, tagID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "tag_id", tagID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 中間テーブルの割り当ても一緒に消す
		if err := tx.Exec("DELETE FROM vocabulary_tags WHERE tag_tag_id = ?", tagID).Error; err != nil {
			logger.Error("Failed to delete tag assignments", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの削除に失敗しました。", "", err)
		}

		if err := s.tagRepo.Delete(ctx, tx, userID, tagID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "タグが見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Failed to delete tag", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの削除に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Tag deleted")
	return nil
}
