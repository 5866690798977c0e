// internal/repository/usage_repository.go
package repository

import (
	"context"
	"fmt"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsageRepository interface {
	Increment(ctx context.Context, db *gorm.DB, userID uuid.UUID, date, endpoint string) error
	ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, from, to string) ([]*model.APIUsage, error)
}

type gormUsageRepository struct{}

func NewGormUsageRepository() UsageRepository {
	return &gormUsageRepository{}
}

// Increment は (user_id, date, endpoint) の行を1件upsertします。
// 既存行があれば count をインクリメント、なければ count=1 で作成する。
func (r *gormUsageRepository) Increment(ctx context.Context, db *gorm.DB, userID uuid.UUID, date, endpoint string) error {
	logger := middleware.GetLogger(ctx)
	usage := model.APIUsage{
		UsageID:  uuid.New(),
		UserID:   userID,
		Date:     date,
		Endpoint: endpoint,
		Count:    1,
	}
	result := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "date"}, {Name: "endpoint"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("api_usage.count + 1"),
		}),
	}).Create(&usage)
	if result.Error != nil {
		logger.Error("Error incrementing API usage in DB",
			"error", result.Error,
			"user_id", userID.String(),
			"endpoint", endpoint,
		)
		return fmt.Errorf("gormUsageRepository.Increment: %w", result.Error)
	}
	return nil
}

func (r *gormUsageRepository) ListByUser(ctx context.Context, db *gorm.DB, userID uuid.UUID, from, to string) ([]*model.APIUsage, error) {
	var usages []*model.APIUsage
	query := db.WithContext(ctx).Where("user_id = ?", userID)
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}
	result := query.Order("date DESC, endpoint ASC").Find(&usages)
	if result.Error != nil {
		return nil, fmt.Errorf("gormUsageRepository.ListByUser: %w", result.Error)
	}
	return usages, nil
}
