// internal/service/user_service_test.go
package service

import (
	"context"
	"testing"

	"vocab_trainer/internal/model"
	"vocab_trainer/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestUserService(db *gorm.DB) UserService {
	return NewUserService(
		db,
		repository.NewGormUserRepository(),
		repository.NewGormUsageRepository(),
		repository.NewGormTokenRepository(),
	)
}

func TestUserService_GetMe(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestUserService(db)

	user := createTestUser(t, db)

	t.Run("正常系: 自分の情報を取得できる", func(t *testing.T) {
		got, err := svc.GetMe(ctx, user.UserID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, 20, got.DailyLimit)
	})

	t.Run("異常系: 存在しないユーザー", func(t *testing.T) {
		_, err := svc.GetMe(ctx, uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestUserService_UpdateSettings(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestUserService(db)

	user := createTestUser(t, db)

	theme := model.ThemeDark
	limit := 100
	updated, err := svc.UpdateSettings(ctx, user.UserID, &model.UpdateSettingsRequest{
		Theme:      &theme,
		DailyLimit: &limit,
	})
	require.NoError(t, err)

	assert.Equal(t, model.ThemeDark, updated.Theme)
	assert.Equal(t, 100, updated.DailyLimit)
	// 指定しなかったフィールドはそのまま
	assert.Equal(t, user.Name, updated.Name)
}

func TestUserService_DeleteAccount_Cascades(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestUserService(db)

	user := createTestUser(t, db)
	survivor := createTestUser(t, db)

	// 削除対象ユーザーの配下データ一式
	vocab := createTestVocabulary(t, db, user.UserID, "doomed")
	tag := &model.Tag{TagID: uuid.New(), UserID: user.UserID, Name: "nouns"}
	require.NoError(t, db.Create(tag).Error)
	require.NoError(t, db.Model(vocab).Association("Tags").Replace(tag))
	require.NoError(t, db.Create(&model.Review{
		ReviewID: uuid.New(), UserID: user.UserID, VocabularyID: vocab.VocabularyID,
		EaseFactor: 2.5, NextReview: vocab.CreatedAt,
	}).Error)
	require.NoError(t, db.Create(&model.APIUsage{
		UsageID: uuid.New(), UserID: user.UserID, Date: "2025-06-01", Endpoint: "GET /api/v1/me", Count: 3,
	}).Error)
	require.NoError(t, db.Create(&model.PasswordResetToken{
		Token: "pending-token", UserID: user.UserID, ExpiresAt: vocab.CreatedAt,
	}).Error)

	// 別ユーザーのデータは巻き込まれないことの確認用
	survivorVocab := createTestVocabulary(t, db, survivor.UserID, "alive")

	require.NoError(t, svc.DeleteAccount(ctx, user.UserID))

	countWhere := func(m interface{}) int64 {
		var n int64
		db.Model(m).Where("user_id = ?", user.UserID).Count(&n)
		return n
	}
	assert.Equal(t, int64(0), countWhere(&model.Review{}))
	assert.Equal(t, int64(0), countWhere(&model.Tag{}))
	assert.Equal(t, int64(0), countWhere(&model.APIUsage{}))
	assert.Equal(t, int64(0), countWhere(&model.PasswordResetToken{}))

	// 多対多の割り当て行も残らないこと
	var joinRows int64
	db.Table("vocabulary_tags").Where("tag_tag_id = ?", tag.TagID).Count(&joinRows)
	assert.Equal(t, int64(0), joinRows)

	var vocabCount int64
	db.Unscoped().Model(&model.Vocabulary{}).Where("user_id = ?", user.UserID).Count(&vocabCount)
	assert.Equal(t, int64(0), vocabCount)

	var userCount int64
	db.Unscoped().Model(&model.User{}).Where("user_id = ?", user.UserID).Count(&userCount)
	assert.Equal(t, int64(0), userCount)

	// 他ユーザーは無傷
	var alive model.Vocabulary
	assert.NoError(t, db.First(&alive, "vocabulary_id = ?", survivorVocab.VocabularyID).Error)
	_, err := svc.GetMe(ctx, survivor.UserID)
	assert.NoError(t, err)
}

func TestUserService_DeleteAccount_NotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestUserService(db)

	err := svc.DeleteAccount(ctx, uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrNotFound)
}
