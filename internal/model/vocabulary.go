// internal/model/vocabulary.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Vocabulary は単語とその定義を表します
type Vocabulary struct {
	VocabularyID uuid.UUID      `gorm:"type:uuid;primaryKey" json:"vocabulary_id"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"-"`
	Term         string         `gorm:"not null" json:"term"`       // 単語
	Definition   string         `gorm:"not null" json:"definition"` // 単語の定義
	Example      *string        `json:"example,omitempty"`          // 例文 (任意)
	Language     *string        `gorm:"type:varchar(2)" json:"language,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"` // 論理削除用

	// 関連 (Preload用)
	Tags   []Tag   `gorm:"many2many:vocabulary_tags;constraint:OnDelete:CASCADE" json:"tags,omitempty"`
	Review *Review `gorm:"foreignKey:VocabularyID;references:VocabularyID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Vocabulary) TableName() string {
	return "vocabularies"
}

// 単語作成リクエストDTO
type PostVocabularyRequest struct {
	Term       string  `json:"term" validate:"required,min=1,max=100"`
	Definition string  `json:"definition" validate:"required,min=1,max=500"`
	Example    *string `json:"example,omitempty" validate:"omitempty,max=500"`
	Language   *string `json:"language,omitempty" validate:"omitempty,len=2,lowercase,alpha"`
}

// 単語更新（全体）リクエストDTO
type PutVocabularyRequest struct {
	Term       string  `json:"term" validate:"required,min=1,max=100"`
	Definition string  `json:"definition" validate:"required,min=1,max=500"`
	Example    *string `json:"example,omitempty" validate:"omitempty,max=500"`
	Language   *string `json:"language,omitempty" validate:"omitempty,len=2,lowercase,alpha"`
}

// 単語更新（部分）リクエストDTO
type PatchVocabularyRequest struct {
	Term       *string `json:"term,omitempty" validate:"omitempty,min=1,max=100"`
	Definition *string `json:"definition,omitempty" validate:"omitempty,min=1,max=500"`
	Example    *string `json:"example,omitempty" validate:"omitempty,max=500"`
	Language   *string `json:"language,omitempty" validate:"omitempty,len=2,lowercase,alpha"`
}

// タグ付け替えリクエストDTO (指定されたタグIDで全置換する)
type PutVocabularyTagsRequest struct {
	TagIDs []string `json:"tag_ids" validate:"required,max=20,dive,uuid4"`
}
