// internal/model/usage.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// APIUsage はユーザーごと・日ごと・エンドポイントごとのAPI呼び出し回数です。
// (user_id, date, endpoint) の組で一意とし、ミドルウェアがUPSERTで加算する。
type APIUsage struct {
	UsageID   uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_usage_user_date_endpoint" json:"-"`
	Date      string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_usage_user_date_endpoint" json:"date"` // YYYY-MM-DD
	Endpoint  string    `gorm:"not null;uniqueIndex:idx_usage_user_date_endpoint" json:"endpoint"`              // 例: "POST /api/v1/reviews"
	Count     int64     `gorm:"not null;default:0" json:"count"`
	UpdatedAt time.Time `json:"-"`
}

func (APIUsage) TableName() string {
	return "api_usage"
}

// UsageQuery は使用量取得のクエリパラメータ (from/to、どちらも省略可)
type UsageQuery struct {
	From string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to" validate:"omitempty,datetime=2006-01-02"`
}

// UsageDate は集計キーとして使う日付文字列を返します
func UsageDate(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
