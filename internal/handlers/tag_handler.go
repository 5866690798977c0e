// internal/handlers/tag_handler.go
package handlers

import (
	"log/slog"
	"net/http"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"
	"vocab_trainer/internal/service"
	"vocab_trainer/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type TagHandler struct {
	service service.TagService
	logger  *slog.Logger
}

func NewTagHandler(s service.TagService, logger *slog.Logger) *TagHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagHandler{
		service: s,
		logger:  logger,
	}
}

// PostTag は新しいタグを作成するハンドラ
func (h *TagHandler) PostTag(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostTag"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PostTagRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
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

	tag, err := h.service.CreateTag(r.Context(), userID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Tag posted successfully", slog.String("tag_id", tag.TagID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, tag, logger)
}

// GetTags はタグ一覧を取得するハンドラ
func (h *TagHandler) GetTags(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetTags"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	tags, err := h.service.ListTags(r.Context(), userID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, tags, logger)
}

// PutTag はタグの名前と色を更新するハンドラ
func (h *TagHandler) PutTag(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutTag"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	rawID := chi.URLParam(r, "tag_id")
	tagID, err := uuid.Parse(rawID)
	if err != nil {
		webutil.HandleError(w, logger, webutil.NewPathParamError("tag_id", rawID))
		return
	}

	var req model.PostTagRequest
	if err := webutil.DecodeJSONBody(r, &req); err != nil {
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

	tag, err := h.service.UpdateTag(r.Context(), userID, tagID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, tag, logger)
}

// DeleteTag はタグを削除するハンドラ
func (h *TagHandler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteTag"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	rawID := chi.URLParam(r, "tag_id")
	tagID, err := uuid.Parse(rawID)
	if err != nil {
		webutil.HandleError(w, logger, webutil.NewPathParamError("tag_id", rawID))
		return
	}

	if err := h.service.DeleteTag(r.Context(), userID, tagID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
