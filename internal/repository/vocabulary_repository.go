// internal/repository/vocabulary_repository.go
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

type VocabularyRepository interface {
	Create(ctx context.Context, tx *gorm.DB, vocab *model.Vocabulary) error
	FindByID(ctx context.Context, db *gorm.DB, userID, vocabID uuid.UUID) (*model.Vocabulary, error)
	FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Vocabulary, error)
	Update(ctx context.Context, tx *gorm.DB, userID, vocabID uuid.UUID, updates map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, userID, vocabID uuid.UUID) error
	CheckTermExists(ctx context.Context, db *gorm.DB, userID uuid.UUID, term string, excludeVocabID *uuid.UUID) (bool, error)
	ReplaceTags(ctx context.Context, tx *gorm.DB, vocab *model.Vocabulary, tags []model.Tag) error
}

type gormVocabularyRepository struct{}

func NewGormVocabularyRepository() VocabularyRepository {
	return &gormVocabularyRepository{}
}

func (r *gormVocabularyRepository) Create(ctx context.Context, tx *gorm.DB, vocab *model.Vocabulary) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(vocab)
	if result.Error != nil {
		logger.Error("Error creating vocabulary in DB",
			"error", result.Error,
			"user_id", vocab.UserID.String(),
			"term", vocab.Term,
		)
		return fmt.Errorf("gormVocabularyRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormVocabularyRepository) FindByID(ctx context.Context, db *gorm.DB, userID, vocabID uuid.UUID) (*model.Vocabulary, error) {
	var vocab model.Vocabulary
	result := db.WithContext(ctx).Preload("Tags").
		Where("user_id = ? AND vocabulary_id = ?", userID, vocabID).First(&vocab)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormVocabularyRepository.FindByID: %w", result.Error)
	}
	return &vocab, nil
}

func (r *gormVocabularyRepository) FindByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID) ([]*model.Vocabulary, error) {
	var vocabs []*model.Vocabulary
	result := db.WithContext(ctx).Preload("Tags").
		Where("user_id = ?", userID).Order("created_at DESC").Find(&vocabs)
	if result.Error != nil {
		return nil, fmt.Errorf("gormVocabularyRepository.FindByUser: %w", result.Error)
	}
	return vocabs, nil
}

func (r *gormVocabularyRepository) Update(ctx context.Context, tx *gorm.DB, userID, vocabID uuid.UUID, updates map[string]interface{}) error {
	logger := middleware.GetLogger(ctx)
	if len(updates) == 0 {
		return nil
	}
	result := tx.WithContext(ctx).Model(&model.Vocabulary{}).
		Where("user_id = ? AND vocabulary_id = ?", userID, vocabID).Updates(updates)
	if result.Error != nil {
		logger.Error("Error updating vocabulary in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"vocabulary_id", vocabID.String(),
		)
		return fmt.Errorf("gormVocabularyRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormVocabularyRepository) Delete(ctx context.Context, tx *gorm.DB, userID, vocabID uuid.UUID) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.Vocabulary{}, vocabID)
	if result.Error != nil {
		logger.Error("Error deleting vocabulary in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"vocabulary_id", vocabID.String(),
		)
		return fmt.Errorf("gormVocabularyRepository.Delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *gormVocabularyRepository) CheckTermExists(ctx context.Context, db *gorm.DB, userID uuid.UUID, term string, excludeVocabID *uuid.UUID) (bool, error) {
	var count int64
	query := db.WithContext(ctx).Model(&model.Vocabulary{}).Where("user_id = ? AND term = ?", userID, term)
	if excludeVocabID != nil {
		query = query.Where("vocabulary_id != ?", *excludeVocabID)
	}
	result := query.Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("gormVocabularyRepository.CheckTermExists: %w", result.Error)
	}
	return count > 0, nil
}

// ReplaceTags は単語のタグ割り当てを指定されたリストで全置換します
func (r *gormVocabularyRepository) ReplaceTags(ctx context.Context, tx *gorm.DB, vocab *model.Vocabulary, tags []model.Tag) error {
	logger := middleware.GetLogger(ctx)
	if err := tx.WithContext(ctx).Model(vocab).Association("Tags").Replace(tags); err != nil {
		logger.Error("Error replacing vocabulary tags in DB",
			"error", err,
			"vocabulary_id", vocab.VocabularyID.String(),
		)
		return fmt.Errorf("gormVocabularyRepository.ReplaceTags: %w", err)
	}
	return nil
}
