// internal/model/review.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// 復習品質スコアの定義域 (SM-2)。0=完全に忘却、5=完璧な想起。
const (
	QualityMin = 0
	QualityMax = 5
)

// DefaultEaseFactor は新規レコードのease factor初期値です
const DefaultEaseFactor = 2.5

// Review は (user_id, vocabulary_id) の組ごとに1件だけ存在する
// 間隔反復の学習状態です。初回の復習送信でレコードが作られ、
// 以降の送信はすべて更新になります。
type Review struct {
	ReviewID     uuid.UUID  `gorm:"type:uuid;primaryKey" json:"review_id"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_vocabulary,unique" json:"-"`
	VocabularyID uuid.UUID  `gorm:"type:uuid;not null;index:idx_user_vocabulary,unique" json:"vocabulary_id"`
	EaseFactor   float64    `gorm:"not null;default:2.5" json:"ease_factor"`
	Interval     int        `gorm:"not null;default:0" json:"interval"`    // 次回復習までの日数
	Repetitions  int        `gorm:"not null;default:0" json:"repetitions"` // 連続正解回数
	NextReview   time.Time  `gorm:"not null;index" json:"next_review"`     // 期限判定用にインデックスを張る
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	Quality      *int       `json:"quality,omitempty"` // 直近の品質スコア (0-5)
	CreatedAt    time.Time  `json:"created_at"`

	// 関連 (Preload用)
	Vocabulary *Vocabulary `gorm:"foreignKey:VocabularyID;references:VocabularyID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}

// SubmitReviewRequest は復習結果送信リクエストのDTO。
// quality は整数以外のJSON値を弾くためポインタのintで受ける
// (0も有効値なので required はnilチェックとしてのみ働く)。
type SubmitReviewRequest struct {
	VocabularyID string `json:"vocabulary_id" validate:"required,uuid4"`
	Quality      *int   `json:"quality" validate:"required,gte=0,lte=5"`
}

// SubmitReviewBatchRequest は一括送信のDTO。1〜50件を受け付け、
// 各要素には単体送信と同一のルールを適用する。
type SubmitReviewBatchRequest struct {
	Reviews []SubmitReviewRequest `json:"reviews" validate:"required,min=1,max=50,dive"`
}

// DueReviewResponse は復習期限が来た単語リストのレスポンスDTO
type DueReviewResponse struct {
	VocabularyID uuid.UUID `json:"vocabulary_id"`
	Term         string    `json:"term"`
	Definition   string    `json:"definition"` // 正解表示用に含める
	EaseFactor   float64   `json:"ease_factor"`
	Interval     int       `json:"interval"`
	Repetitions  int       `json:"repetitions"`
	NextReview   time.Time `json:"next_review"`
}

// SubmitReviewResponse は送信後のスケジュール状態を返すDTO
type SubmitReviewResponse struct {
	VocabularyID uuid.UUID `json:"vocabulary_id"`
	EaseFactor   float64   `json:"ease_factor"`
	Interval     int       `json:"interval"`
	Repetitions  int       `json:"repetitions"`
	NextReview   time.Time `json:"next_review"`
	Quality      int       `json:"quality"`
}
