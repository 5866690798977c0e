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

type VocabularyService interface {
	CreateVocabulary(ctx context.Context, userID uuid.UUID, req *model.PostVocabularyRequest) (*model.Vocabulary, error)
	GetVocabulary(ctx context.Context, userID, vocabID uuid.UUID) (*model.Vocabulary, error)
	ListVocabularies(ctx context.Context, userID uuid.UUID) ([]*model.Vocabulary, error)
	ReplaceVocabulary(ctx context.Context, userID, vocabID uuid.UUID, req *model.PutVocabularyRequest) (*model.Vocabulary, error)
	UpdateVocabulary(ctx context.Context, userID, vocabID uuid.UUID, req *model.PatchVocabularyRequest) (*model.Vocabulary, error)
	DeleteVocabulary(ctx context.Context, userID, vocabID uuid.UUID) error
	SetTags(ctx context.Context, userID, vocabID uuid.UUID, tagIDs []uuid.UUID) (*model.Vocabulary, error)
}

type vocabularyService struct {
	db        *gorm.DB
	vocabRepo repository.VocabularyRepository
	tagRepo   repository.TagRepository
}

func NewVocabularyService(db *gorm.DB, vocabRepo repository.VocabularyRepository, tagRepo repository.TagRepository) VocabularyService {
	return &vocabularyService{
		db:        db,
		vocabRepo: vocabRepo,
		tagRepo:   tagRepo,
	}
}

func (s *vocabularyService) CreateVocabulary(ctx context.Context, userID uuid.UUID, req *model.PostVocabularyRequest) (*model.Vocabulary, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)
	var created *model.Vocabulary

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. 同一ユーザー内での単語の重複チェック
		exists, err := s.vocabRepo.CheckTermExists(ctx, tx, userID, req.Term, nil)
		if err != nil {
			logger.Error("Error checking term existence in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の作成に失敗しました。", "", err)
		}
		if exists {
			return model.NewAppError("DUPLICATE_TERM", "この単語は既に登録されています。", "term", model.ErrConflict)
		}

		// 2. 単語を作成
		vocab := &model.Vocabulary{
			VocabularyID: uuid.New(),
			UserID:       userID,
			Term:         req.Term,
			Definition:   req.Definition,
			Example:      req.Example,
			Language:     req.Language,
		}
		if err := s.vocabRepo.Create(ctx, tx, vocab); err != nil {
			logger.Error("Error creating vocabulary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の作成に失敗しました。", "", err)
		}

		created = vocab
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Vocabulary created", "vocabulary_id", created.VocabularyID, "term", created.Term)
	return created, nil
}

func (s *vocabularyService) GetVocabulary(ctx context.Context, userID, vocabID uuid.UUID) (*model.Vocabulary, error) {
	vocab, err := s.vocabRepo.FindByID(ctx, s.db, userID, vocabID)
	if err != nil {
		// エラーはリポジトリで変換済みのはず
		return nil, err
	}
	return vocab, nil
}

func (s *vocabularyService) ListVocabularies(ctx context.Context, userID uuid.UUID) ([]*model.Vocabulary, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	vocabs, err := s.vocabRepo.FindByUser(ctx, s.db, userID)
	if err != nil {
		logger.Error("Error listing vocabularies", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "単語一覧の取得に失敗しました。", "", err)
	}
	return vocabs, nil
}

// ReplaceVocabulary は単語の全フィールドを置き換えます (PUT)
func (s *vocabularyService) ReplaceVocabulary(ctx context.Context, userID, vocabID uuid.UUID, req *model.PutVocabularyRequest) (*model.Vocabulary, error) {
	updates := map[string]interface{}{
		"term":       req.Term,
		"definition": req.Definition,
		"example":    req.Example,
		"language":   req.Language,
	}
	return s.applyUpdates(ctx, userID, vocabID, req.Term, updates)
}

// UpdateVocabulary は指定されたフィールドだけを更新します (PATCH)
func (s *vocabularyService) UpdateVocabulary(ctx context.Context, userID, vocabID uuid.UUID, req *model.PatchVocabularyRequest) (*model.Vocabulary, error) {
	updates := make(map[string]interface{})
	var newTerm string
	if req.Term != nil {
		updates["term"] = *req.Term
		newTerm = *req.Term
	}
	if req.Definition != nil {
		updates["definition"] = *req.Definition
	}
	if req.Example != nil {
		updates["example"] = *req.Example
	}
	if req.Language != nil {
		updates["language"] = *req.Language
	}
	return s.applyUpdates(ctx, userID, vocabID, newTerm, updates)
}

func (s *vocabularyService) applyUpdates(ctx context.Context, userID, vocabID uuid.UUID, newTerm string, updates map[string]interface{}) (*model.Vocabulary, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "vocabulary_id", vocabID)
	var updated *model.Vocabulary

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// termを変更する場合は、自分以外との重複をチェック
		if newTerm != "" {
			exists, err := s.vocabRepo.CheckTermExists(ctx, tx, userID, newTerm, &vocabID)
			if err != nil {
				logger.Error("Error checking term existence in transaction", "error", err)
				return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の更新に失敗しました。", "", err)
			}
			if exists {
				return model.NewAppError("DUPLICATE_TERM", "この単語は既に登録されています。", "term", model.ErrConflict)
			}
		}

		if err := s.vocabRepo.Update(ctx, tx, userID, vocabID, updates); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error updating vocabulary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の更新に失敗しました。", "", err)
		}

		vocab, err := s.vocabRepo.FindByID(ctx, tx, userID, vocabID)
		if err != nil {
			logger.Error("Error reloading vocabulary after update", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の更新に失敗しました。", "", err)
		}
		updated = vocab
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *vocabularyService) DeleteVocabulary(ctx context.Context, userID, vocabID uuid.UUID) error {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "vocabulary_id", vocabID)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 単語を消したら復習状態も一緒に消す (孤児レコードを残さない)
		if err := tx.Where("user_id = ? AND vocabulary_id = ?", userID, vocabID).Delete(&model.Review{}).Error; err != nil {
			logger.Error("Error deleting review for vocabulary", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の削除に失敗しました。", "", err)
		}

		if err := s.vocabRepo.Delete(ctx, tx, userID, vocabID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error deleting vocabulary in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "単語の削除に失敗しました。", "", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("Vocabulary deleted")
	return nil
}

// SetTags は単語のタグ割り当てを指定されたIDリストで全置換します。
// 他人のタグや存在しないタグが混ざっていたらエラー。
func (s *vocabularyService) SetTags(ctx context.Context, userID, vocabID uuid.UUID, tagIDs []uuid.UUID) (*model.Vocabulary, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "vocabulary_id", vocabID)
	var updated *model.Vocabulary

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		vocab, err := s.vocabRepo.FindByID(ctx, tx, userID, vocabID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return model.NewAppError("NOT_FOUND", "単語が見つかりません。", "", model.ErrNotFound)
			}
			logger.Error("Error finding vocabulary for tag assignment", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの設定に失敗しました。", "", err)
		}

		tags, err := s.tagRepo.FindByIDs(ctx, tx, userID, tagIDs)
		if err != nil {
			logger.Error("Error finding tags for assignment", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの設定に失敗しました。", "", err)
		}
		if len(tags) != len(tagIDs) {
			return model.NewAppError("TAG_NOT_FOUND", "指定されたタグの一部が見つかりません。", "tag_ids", model.ErrInvalidInput)
		}

		if err := s.vocabRepo.ReplaceTags(ctx, tx, vocab, tags); err != nil {
			logger.Error("Error replacing tags in transaction", "error", err)
			return model.NewAppError("INTERNAL_SERVER_ERROR", "タグの設定に失敗しました。", "", err)
		}

		vocab.Tags = tags
		updated = vocab
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Vocabulary tags replaced", "tag_count", len(tagIDs))
	return updated, nil
}
