// internal/service/vocabulary_service_test.go
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

func newTestVocabularyService(db *gorm.DB) VocabularyService {
	return NewVocabularyService(db, repository.NewGormVocabularyRepository(), repository.NewGormTagRepository())
}

func strPtr(s string) *string { return &s }

func TestVocabularyService_CreateVocabulary(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestVocabularyService(db)

	user := createTestUser(t, db)

	t.Run("正常系: 作成できる", func(t *testing.T) {
		lang := "en"
		vocab, err := svc.CreateVocabulary(ctx, user.UserID, &model.PostVocabularyRequest{
			Term:       "ubiquitous",
			Definition: "present everywhere",
			Example:    strPtr("Smartphones are ubiquitous these days."),
			Language:   &lang,
		})
		require.NoError(t, err)
		assert.Equal(t, "ubiquitous", vocab.Term)
		assert.NotEqual(t, uuid.Nil, vocab.VocabularyID)
	})

	t.Run("異常系: 同一ユーザー内の単語重複は409", func(t *testing.T) {
		_, err := svc.CreateVocabulary(ctx, user.UserID, &model.PostVocabularyRequest{
			Term:       "ubiquitous",
			Definition: "another definition",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("正常系: 別ユーザーなら同じ単語を登録できる", func(t *testing.T) {
		other := createTestUser(t, db)
		_, err := svc.CreateVocabulary(ctx, other.UserID, &model.PostVocabularyRequest{
			Term:       "ubiquitous",
			Definition: "present everywhere",
		})
		assert.NoError(t, err)
	})
}

func TestVocabularyService_UpdateVocabulary(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestVocabularyService(db)

	user := createTestUser(t, db)
	vocab := createTestVocabulary(t, db, user.UserID, "mutable")
	createTestVocabulary(t, db, user.UserID, "occupied")

	t.Run("正常系: 部分更新は指定フィールドだけ変える", func(t *testing.T) {
		updated, err := svc.UpdateVocabulary(ctx, user.UserID, vocab.VocabularyID, &model.PatchVocabularyRequest{
			Definition: strPtr("changed definition"),
		})
		require.NoError(t, err)
		assert.Equal(t, "mutable", updated.Term)
		assert.Equal(t, "changed definition", updated.Definition)
	})

	t.Run("異常系: 既存の単語名への変更は409", func(t *testing.T) {
		_, err := svc.UpdateVocabulary(ctx, user.UserID, vocab.VocabularyID, &model.PatchVocabularyRequest{
			Term: strPtr("occupied"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("正常系: 自分自身と同じ単語名への更新は許される", func(t *testing.T) {
		_, err := svc.ReplaceVocabulary(ctx, user.UserID, vocab.VocabularyID, &model.PutVocabularyRequest{
			Term:       "mutable",
			Definition: "replaced definition",
		})
		assert.NoError(t, err)
	})

	t.Run("異常系: 存在しない単語は404", func(t *testing.T) {
		_, err := svc.UpdateVocabulary(ctx, user.UserID, uuid.New(), &model.PatchVocabularyRequest{
			Definition: strPtr("whatever"),
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestVocabularyService_DeleteVocabulary(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestVocabularyService(db)

	user := createTestUser(t, db)
	vocab := createTestVocabulary(t, db, user.UserID, "deletable")
	require.NoError(t, db.Create(&model.Review{
		ReviewID: uuid.New(), UserID: user.UserID, VocabularyID: vocab.VocabularyID,
		EaseFactor: 2.5, NextReview: vocab.CreatedAt,
	}).Error)

	require.NoError(t, svc.DeleteVocabulary(ctx, user.UserID, vocab.VocabularyID))

	// 単語は論理削除、復習状態は物理削除される
	var gone model.Vocabulary
	err := db.First(&gone, "vocabulary_id = ?", vocab.VocabularyID).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var reviewCount int64
	db.Model(&model.Review{}).Where("vocabulary_id = ?", vocab.VocabularyID).Count(&reviewCount)
	assert.Equal(t, int64(0), reviewCount)

	t.Run("異常系: 二重削除は404", func(t *testing.T) {
		err := svc.DeleteVocabulary(ctx, user.UserID, vocab.VocabularyID)
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})
}

func TestVocabularyService_SetTags(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	svc := newTestVocabularyService(db)

	user := createTestUser(t, db)
	vocab := createTestVocabulary(t, db, user.UserID, "taggable")

	tag1 := &model.Tag{TagID: uuid.New(), UserID: user.UserID, Name: "verbs"}
	tag2 := &model.Tag{TagID: uuid.New(), UserID: user.UserID, Name: "formal"}
	require.NoError(t, db.Create(tag1).Error)
	require.NoError(t, db.Create(tag2).Error)

	t.Run("正常系: タグを割り当てられる", func(t *testing.T) {
		updated, err := svc.SetTags(ctx, user.UserID, vocab.VocabularyID, []uuid.UUID{tag1.TagID, tag2.TagID})
		require.NoError(t, err)
		assert.Len(t, updated.Tags, 2)
	})

	t.Run("正常系: 再割り当ては全置換になる", func(t *testing.T) {
		updated, err := svc.SetTags(ctx, user.UserID, vocab.VocabularyID, []uuid.UUID{tag2.TagID})
		require.NoError(t, err)
		require.Len(t, updated.Tags, 1)
		assert.Equal(t, "formal", updated.Tags[0].Name)
	})

	t.Run("異常系: 他人のタグは割り当てられない", func(t *testing.T) {
		other := createTestUser(t, db)
		foreign := &model.Tag{TagID: uuid.New(), UserID: other.UserID, Name: "private"}
		require.NoError(t, db.Create(foreign).Error)

		_, err := svc.SetTags(ctx, user.UserID, vocab.VocabularyID, []uuid.UUID{foreign.TagID})
		require.Error(t, err)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})
}
