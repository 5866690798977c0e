// internal/config/constants.go
package config

import "time"

// アプリケーション情報
const (
	AppName    = "VocabTrainer"
	AppVersion = "1.0.0"
)

// デフォルト設定値
const (
	DefaultServerPort     = ":8080"
	DefaultLogLevel       = "info"
	DefaultReviewLimit    = 20
	DefaultAccessTokenTTL = 24 * time.Hour
)

// 一括送信で受け付ける復習結果の上限件数
const MaxReviewBatchSize = 50
