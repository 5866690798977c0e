// internal/handlers/review_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"
	"vocab_trainer/internal/service"
	"vocab_trainer/internal/webutil"
)

type ReviewHandler struct {
	service service.ReviewService
	logger  *slog.Logger
}

func NewReviewHandler(s service.ReviewService, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewHandler{
		service: s,
		logger:  logger,
	}
}

// GetDueReviews は復習期限が来た単語の一覧を取得するハンドラ
func (h *ReviewHandler) GetDueReviews(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetDueReviews"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	reviews, err := h.service.GetDueReviews(r.Context(), userID)
	if err != nil {
		logger.Error("Error getting due reviews in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, reviews, logger)
}

// PostReview は1件の復習結果を受け付けるハンドラ
func (h *ReviewHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostReview"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.SubmitReviewRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		// quality に整数以外が入っていた場合もここで弾かれる
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	if appErr := webutil.Validate(&req, model.LocationBody); appErr != nil {
		logger.Warn("Validation failed", slog.Any("details", appErr.Detail.Details))
		webutil.HandleError(w, logger, appErr)
		return
	}

	resp, err := h.service.SubmitReview(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error submitting review in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review submitted successfully", slog.String("vocabulary_id", req.VocabularyID))
	webutil.RespondWithJSON(w, http.StatusOK, resp, logger)
}

// PostReviewBatch は1〜50件の復習結果をまとめて受け付けるハンドラ
func (h *ReviewHandler) PostReviewBatch(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostReviewBatch"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.SubmitReviewBatchRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
		logger.Warn("Failed to decode request body", slog.String("error", err.Error()))
		appErr := model.NewAppError("INVALID_REQUEST_BODY", "リクエストボディの形式が正しくありません。", "", model.ErrInvalidInput)
		webutil.HandleError(w, logger, appErr)
		return
	}

	// 件数制限(1〜50)と各要素の個別ルールをまとめて検証する
	if appErr := webutil.Validate(&req, model.LocationBody); appErr != nil {
		logger.Warn("Validation failed", slog.Any("details", appErr.Detail.Details))
		webutil.HandleError(w, logger, appErr)
		return
	}

	results, err := h.service.SubmitReviewBatch(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error submitting review batch in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Review batch submitted successfully", slog.Int("count", len(results)))
	webutil.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"results": results}, logger)
}
