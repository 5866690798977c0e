package middleware

import (
	"context"
	"net/http"
	"time"

	"vocab_trainer/internal/model"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// UsageRecorder はAPI使用量を1回分計上する関数です。
// リポジトリへの直接依存を避けるため、呼び出し側がクロージャで渡す。
type UsageRecorder func(ctx context.Context, userID uuid.UUID, date, endpoint string) error

// UsageTrackingMiddleware は認証済みリクエストをユーザー・日付・エンドポイント単位で計上します。
// 記録の失敗はログに残すだけで、リクエスト自体は失敗させない。
func UsageTrackingMiddleware(record UsageRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)

			userID, err := GetUserIDFromContext(r.Context())
			if err != nil {
				// 未認証ルートでは計上しない
				return
			}

			// chiのルートパターン ("/api/v1/vocabularies/{vocabulary_id}" など) をキーにする。
			// 生のパスを使うとIDごとに行が分かれてしまう。
			routePattern := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				routePattern = rctx.RoutePattern()
			}
			endpoint := r.Method + " " + routePattern

			logger := GetLogger(r.Context())
			if err := record(r.Context(), userID, model.UsageDate(time.Now()), endpoint); err != nil {
				logger.Warn("Failed to record API usage", "error", err, "endpoint", endpoint)
			}
		})
	}
}
