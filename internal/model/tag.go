// internal/model/tag.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// Tag は単語を分類するためのユーザー定義ラベルです。
// (user_id, name) の組で一意。
type Tag struct {
	TagID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"tag_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index:idx_user_tag_name,unique" json:"-"`
	Name      string    `gorm:"not null;index:idx_user_tag_name,unique" json:"name"`
	Color     *string   `gorm:"type:varchar(7)" json:"color,omitempty"` // #RRGGBB
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// タグ作成リクエストDTO
type PostTagRequest struct {
	Name  string  `json:"name" validate:"required,min=1,max=50,tagname"`
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
}
