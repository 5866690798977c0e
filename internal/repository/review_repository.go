// internal/repository/review_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository interface {
	Create(ctx context.Context, tx *gorm.DB, review *model.Review) error
	FindByUserAndVocabulary(ctx context.Context, db *gorm.DB, userID, vocabID uuid.UUID) (*model.Review, error)
	Update(ctx context.Context, tx *gorm.DB, review *model.Review) error
	FindDueByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time, limit int) ([]*model.Review, error)
}

type gormReviewRepository struct{}

func NewGormReviewRepository() ReviewRepository {
	return &gormReviewRepository{}
}

func (r *gormReviewRepository) Create(ctx context.Context, tx *gorm.DB, review *model.Review) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Create(review)
	if result.Error != nil {
		// (user_id, vocabulary_id) の一意制約違反 (同時送信など)
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return model.ErrConflict
		}
		logger.Error("Error creating review in DB",
			"error", result.Error,
			"user_id", review.UserID.String(),
			"vocabulary_id", review.VocabularyID.String(),
		)
		return fmt.Errorf("gormReviewRepository.Create: %w", result.Error)
	}
	return nil
}

func (r *gormReviewRepository) FindByUserAndVocabulary(ctx context.Context, db *gorm.DB, userID, vocabID uuid.UUID) (*model.Review, error) {
	var review model.Review
	result := db.WithContext(ctx).
		Where("user_id = ? AND vocabulary_id = ?", userID, vocabID).First(&review)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("gormReviewRepository.FindByUserAndVocabulary: %w", result.Error)
	}
	return &review, nil
}

func (r *gormReviewRepository) Update(ctx context.Context, tx *gorm.DB, review *model.Review) error {
	logger := middleware.GetLogger(ctx)
	result := tx.WithContext(ctx).Model(&model.Review{}).
		Where("review_id = ?", review.ReviewID).
		Updates(map[string]interface{}{
			"ease_factor":   review.EaseFactor,
			"interval":      review.Interval,
			"repetitions":   review.Repetitions,
			"next_review":   review.NextReview,
			"last_reviewed": review.LastReviewed,
			"quality":       review.Quality,
		})
	if result.Error != nil {
		logger.Error("Error updating review in DB",
			"error", result.Error,
			"review_id", review.ReviewID.String(),
		)
		return fmt.Errorf("gormReviewRepository.Update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

// FindDueByUser は next_review が now 以前の復習対象を、期限の古い順に取得します。
// 削除済みの単語に紐づく行は除外する。
func (r *gormReviewRepository) FindDueByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, now time.Time, limit int) ([]*model.Review, error) {
	var reviews []*model.Review
	result := db.WithContext(ctx).
		Preload("Vocabulary").
		Joins("JOIN vocabularies ON vocabularies.vocabulary_id = reviews.vocabulary_id AND vocabularies.deleted_at IS NULL").
		Where("reviews.user_id = ? AND reviews.next_review <= ?", userID, now).
		Order("reviews.next_review ASC").
		Limit(limit).
		Find(&reviews)
	if result.Error != nil {
		return nil, fmt.Errorf("gormReviewRepository.FindDueByUser: %w", result.Error)
	}
	return reviews, nil
}
