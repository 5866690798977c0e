// internal/repository/usage_repository_test.go
package repository

import (
	"context"
	"fmt"
	"testing"

	"vocab_trainer/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupUsageTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.APIUsage{}))
	return db
}

func TestGormUsageRepository_Increment(t *testing.T) {
	ctx := context.Background()
	db := setupUsageTestDB(t)
	repo := NewGormUsageRepository()

	userID := uuid.New()
	endpoint := "POST /api/v1/reviews"
	date := "2025-06-01"

	// 初回は count=1 の行が作られる
	require.NoError(t, repo.Increment(ctx, db, userID, date, endpoint))

	var usage model.APIUsage
	require.NoError(t, db.Where("user_id = ? AND date = ? AND endpoint = ?", userID, date, endpoint).First(&usage).Error)
	assert.Equal(t, int64(1), usage.Count)

	// 同じキーへの2回目以降は加算される
	require.NoError(t, repo.Increment(ctx, db, userID, date, endpoint))
	require.NoError(t, repo.Increment(ctx, db, userID, date, endpoint))

	require.NoError(t, db.Where("user_id = ? AND date = ? AND endpoint = ?", userID, date, endpoint).First(&usage).Error)
	assert.Equal(t, int64(3), usage.Count)

	// 行は増えない
	var count int64
	db.Model(&model.APIUsage{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGormUsageRepository_Increment_SeparateKeys(t *testing.T) {
	ctx := context.Background()
	db := setupUsageTestDB(t)
	repo := NewGormUsageRepository()

	userID := uuid.New()

	// 日付・エンドポイント・ユーザーが違えば別の行になる
	require.NoError(t, repo.Increment(ctx, db, userID, "2025-06-01", "GET /api/v1/reviews/due"))
	require.NoError(t, repo.Increment(ctx, db, userID, "2025-06-02", "GET /api/v1/reviews/due"))
	require.NoError(t, repo.Increment(ctx, db, userID, "2025-06-01", "POST /api/v1/reviews"))
	require.NoError(t, repo.Increment(ctx, db, uuid.New(), "2025-06-01", "GET /api/v1/reviews/due"))

	var count int64
	db.Model(&model.APIUsage{}).Count(&count)
	assert.Equal(t, int64(4), count)
}

func TestGormUsageRepository_ListByUser(t *testing.T) {
	ctx := context.Background()
	db := setupUsageTestDB(t)
	repo := NewGormUsageRepository()

	userID := uuid.New()
	otherID := uuid.New()

	require.NoError(t, repo.Increment(ctx, db, userID, "2025-06-01", "GET /api/v1/me"))
	require.NoError(t, repo.Increment(ctx, db, userID, "2025-06-03", "GET /api/v1/me"))
	require.NoError(t, repo.Increment(ctx, db, userID, "2025-06-05", "GET /api/v1/me"))
	require.NoError(t, repo.Increment(ctx, db, otherID, "2025-06-03", "GET /api/v1/me"))

	t.Run("正常系: 全期間", func(t *testing.T) {
		usages, err := repo.ListByUser(ctx, db, userID, "", "")
		require.NoError(t, err)
		assert.Len(t, usages, 3)
	})

	t.Run("正常系: 日付範囲で絞り込み", func(t *testing.T) {
		usages, err := repo.ListByUser(ctx, db, userID, "2025-06-02", "2025-06-04")
		require.NoError(t, err)
		require.Len(t, usages, 1)
		assert.Equal(t, "2025-06-03", usages[0].Date)
	})

	t.Run("正常系: 他ユーザーの行は返らない", func(t *testing.T) {
		usages, err := repo.ListByUser(ctx, db, otherID, "", "")
		require.NoError(t, err)
		assert.Len(t, usages, 1)
	})
}
