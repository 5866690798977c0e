package service

import (
	"context"
	"errors"
	"time"

	"vocab_trainer/internal/config"
	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"
	"vocab_trainer/internal/repository"
	"vocab_trainer/internal/sm2"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewService interface {
	GetDueReviews(ctx context.Context, userID uuid.UUID) ([]*model.DueReviewResponse, error)
	SubmitReview(ctx context.Context, userID uuid.UUID, req *model.SubmitReviewRequest) (*model.SubmitReviewResponse, error)
	SubmitReviewBatch(ctx context.Context, userID uuid.UUID, req *model.SubmitReviewBatchRequest) ([]*model.SubmitReviewResponse, error)
}

type reviewService struct {
	db         *gorm.DB
	reviewRepo repository.ReviewRepository
	vocabRepo  repository.VocabularyRepository
	userRepo   repository.UserRepository
	cfg        *config.Config
}

func NewReviewService(db *gorm.DB, reviewRepo repository.ReviewRepository, vocabRepo repository.VocabularyRepository, userRepo repository.UserRepository, cfg *config.Config) ReviewService {
	return &reviewService{
		db:         db,
		reviewRepo: reviewRepo,
		vocabRepo:  vocabRepo,
		userRepo:   userRepo,
		cfg:        cfg,
	}
}

// GetDueReviews は next_review が現在時刻以前の単語を、ユーザー設定の上限件数まで返します
func (s *reviewService) GetDueReviews(ctx context.Context, userID uuid.UUID) ([]*model.DueReviewResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	// 1回あたりの件数はユーザー設定 (daily_limit) を優先し、なければアプリ既定値
	limit := s.cfg.App.ReviewLimit
	user, err := s.userRepo.FindByID(ctx, s.db, userID)
	if err == nil && user.DailyLimit > 0 {
		limit = user.DailyLimit
	}

	reviews, err := s.reviewRepo.FindDueByUser(ctx, s.db, userID, time.Now(), limit)
	if err != nil {
		logger.Error("Failed to find due reviews from repository", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "復習対象の取得に失敗しました。", "", err)
	}

	responses := make([]*model.DueReviewResponse, 0, len(reviews))
	for _, rv := range reviews {
		if rv.Vocabulary == nil {
			logger.Warn("Found review with nil Vocabulary, skipping", "review_id", rv.ReviewID)
			continue
		}
		responses = append(responses, &model.DueReviewResponse{
			VocabularyID: rv.VocabularyID,
			Term:         rv.Vocabulary.Term,
			Definition:   rv.Vocabulary.Definition,
			EaseFactor:   rv.EaseFactor,
			Interval:     rv.Interval,
			Repetitions:  rv.Repetitions,
			NextReview:   rv.NextReview,
		})
	}

	logger.Info("Successfully retrieved due reviews", "count", len(responses))
	return responses, nil
}

// SubmitReview は1件の復習結果を反映します。
// (user_id, vocabulary_id) のレコードがなければ作成、あれば更新する。
func (s *reviewService) SubmitReview(ctx context.Context, userID uuid.UUID, req *model.SubmitReviewRequest) (*model.SubmitReviewResponse, error) {
	var resp *model.SubmitReviewResponse

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result, err := s.applySubmission(ctx, tx, userID, req, time.Now())
		if err != nil {
			return err
		}
		resp = result
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// SubmitReviewBatch は1〜50件の復習結果をまとめて反映します。
// 全件を1トランザクションで処理し、1件でも失敗したら全体をロールバックする。
func (s *reviewService) SubmitReviewBatch(ctx context.Context, userID uuid.UUID, req *model.SubmitReviewBatchRequest) ([]*model.SubmitReviewResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID)

	responses := make([]*model.SubmitReviewResponse, 0, len(req.Reviews))
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for i := range req.Reviews {
			result, err := s.applySubmission(ctx, tx, userID, &req.Reviews[i], now)
			if err != nil {
				return err
			}
			responses = append(responses, result)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Review batch applied", "count", len(responses))
	return responses, nil
}

// applySubmission は単語の存在確認からSM-2の再計算・保存までを1件分行います。
// 呼び出し側のトランザクション内で実行されることを前提とする。
func (s *reviewService) applySubmission(ctx context.Context, tx *gorm.DB, userID uuid.UUID, req *model.SubmitReviewRequest, now time.Time) (*model.SubmitReviewResponse, error) {
	logger := middleware.GetLogger(ctx).With("user_id", userID, "vocabulary_id", req.VocabularyID)

	// vocabulary_id はバリデーション済み (uuid4) なのでパースは失敗しないはず
	vocabID, err := uuid.Parse(req.VocabularyID)
	if err != nil {
		return nil, model.NewAppError("VALIDATION_ERROR", "単語IDの形式が不正です。", "vocabulary_id", model.ErrInvalidInput)
	}
	quality := *req.Quality

	// 単語が存在し、自分のものであることを確認
	if _, err := s.vocabRepo.FindByID(ctx, tx, userID, vocabID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.NewAppError("NOT_FOUND", "単語が見つかりません。", "vocabulary_id", model.ErrNotFound)
		}
		logger.Error("Error finding vocabulary for review", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "復習結果の保存に失敗しました。", "", err)
	}

	review, err := s.reviewRepo.FindByUserAndVocabulary(ctx, tx, userID, vocabID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		logger.Error("Error finding review in transaction", "error", err)
		return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "復習結果の保存に失敗しました。", "", err)
	}
	isFound := !errors.Is(err, model.ErrNotFound)

	if !isFound {
		// --- 新規作成: 初期状態からSM-2を1回適用する ---
		next := sm2.Next(model.DefaultEaseFactor, 0, 0, quality, now)
		newReview := &model.Review{
			ReviewID:     uuid.New(),
			UserID:       userID,
			VocabularyID: vocabID,
			EaseFactor:   next.EaseFactor,
			Interval:     next.Interval,
			Repetitions:  next.Repetitions,
			NextReview:   next.NextReview,
			LastReviewed: &now,
			Quality:      &quality,
		}
		if createErr := s.reviewRepo.Create(ctx, tx, newReview); createErr != nil {
			// 同時送信で先を越された場合は一意制約違反になる
			if errors.Is(createErr, model.ErrConflict) {
				logger.Warn("Conflict during review creation (race condition)")
				return nil, model.NewAppError("DUPLICATE_REVIEW", "この単語の復習結果は同時に送信されています。再度お試しください。", "vocabulary_id", model.ErrConflict)
			}
			logger.Error("Error creating review", "error", createErr)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "復習結果の保存に失敗しました。", "", createErr)
		}
		review = newReview
	} else {
		// --- 更新: 既存の状態にSM-2を適用する ---
		next := sm2.Next(review.EaseFactor, review.Interval, review.Repetitions, quality, now)
		review.EaseFactor = next.EaseFactor
		review.Interval = next.Interval
		review.Repetitions = next.Repetitions
		review.NextReview = next.NextReview
		review.LastReviewed = &now
		review.Quality = &quality

		if updateErr := s.reviewRepo.Update(ctx, tx, review); updateErr != nil {
			logger.Error("Error updating review", "error", updateErr)
			return nil, model.NewAppError("INTERNAL_SERVER_ERROR", "復習結果の保存に失敗しました。", "", updateErr)
		}
	}

	return &model.SubmitReviewResponse{
		VocabularyID: review.VocabularyID,
		EaseFactor:   review.EaseFactor,
		Interval:     review.Interval,
		Repetitions:  review.Repetitions,
		NextReview:   review.NextReview,
		Quality:      quality,
	}, nil
}
