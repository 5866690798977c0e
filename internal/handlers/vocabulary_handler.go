// internal/handlers/vocabulary_handler.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"vocab_trainer/internal/middleware"
	"vocab_trainer/internal/model"
	"vocab_trainer/internal/service"
	"vocab_trainer/internal/webutil"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type VocabularyHandler struct {
	service service.VocabularyService
	logger  *slog.Logger
}

func NewVocabularyHandler(s service.VocabularyService, logger *slog.Logger) *VocabularyHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &VocabularyHandler{
		service: s,
		logger:  logger,
	}
}

// vocabIDFromPath はパスパラメータの単語IDを検証付きで取り出します
func vocabIDFromPath(r *http.Request) (uuid.UUID, *model.AppError) {
	raw := chi.URLParam(r, "vocabulary_id")
	vocabID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, webutil.NewPathParamError("vocabulary_id", raw)
	}
	return vocabID, nil
}

// PostVocabulary は新しい単語を登録するハンドラ
func (h *VocabularyHandler) PostVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PostVocabulary"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}
	logger = logger.With(slog.String("user_id", userID.String()))

	var req model.PostVocabularyRequest
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

	vocab, err := h.service.CreateVocabulary(r.Context(), userID, &req)
	if err != nil {
		logger.Error("Error creating vocabulary in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	logger.Info("Vocabulary posted successfully", slog.String("vocabulary_id", vocab.VocabularyID.String()))
	webutil.RespondWithJSON(w, http.StatusCreated, vocab, logger)
}

// GetVocabularies は単語一覧を取得するハンドラ
func (h *VocabularyHandler) GetVocabularies(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetVocabularies"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocabs, err := h.service.ListVocabularies(r.Context(), userID)
	if err != nil {
		logger.Error("Error listing vocabularies in service", slog.Any("error", err))
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, vocabs, logger)
}

// GetVocabulary は単語1件を取得するハンドラ
func (h *VocabularyHandler) GetVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "GetVocabulary"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocabID, appErr := vocabIDFromPath(r)
	if appErr != nil {
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocab, err := h.service.GetVocabulary(r.Context(), userID, vocabID)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, vocab, logger)
}

// PutVocabulary は単語の全フィールドを置き換えるハンドラ
func (h *VocabularyHandler) PutVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutVocabulary"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocabID, appErr := vocabIDFromPath(r)
	if appErr != nil {
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PutVocabularyRequest
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

	vocab, err := h.service.ReplaceVocabulary(r.Context(), userID, vocabID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, vocab, logger)
}

// PatchVocabulary は単語を部分更新するハンドラ
func (h *VocabularyHandler) PatchVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PatchVocabulary"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocabID, appErr := vocabIDFromPath(r)
	if appErr != nil {
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PatchVocabularyRequest
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

	vocab, err := h.service.UpdateVocabulary(r.Context(), userID, vocabID, &req)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, vocab, logger)
}

// DeleteVocabulary は単語を削除するハンドラ
func (h *VocabularyHandler) DeleteVocabulary(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "DeleteVocabulary"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocabID, appErr := vocabIDFromPath(r)
	if appErr != nil {
		webutil.HandleError(w, logger, appErr)
		return
	}

	if err := h.service.DeleteVocabulary(r.Context(), userID, vocabID); err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// PutVocabularyTags は単語のタグ割り当てを全置換するハンドラ
func (h *VocabularyHandler) PutVocabularyTags(w http.ResponseWriter, r *http.Request) {
	logger := h.logger.With(slog.String("handler", "PutVocabularyTags"))

	userID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		logger.Warn("Unauthorized access attempt", slog.String("error", err.Error()))
		appErr := model.NewAppError("UNAUTHORIZED", "認証情報が見つかりません。", "", model.ErrForbidden)
		webutil.HandleError(w, logger, appErr)
		return
	}

	vocabID, appErr := vocabIDFromPath(r)
	if appErr != nil {
		webutil.HandleError(w, logger, appErr)
		return
	}

	var req model.PutVocabularyTagsRequest
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

	// バリデーション済みなのでここでのパース失敗はない
	tagIDs := make([]uuid.UUID, 0, len(req.TagIDs))
	for i, raw := range req.TagIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			webutil.HandleError(w, logger, webutil.NewUUIDFormatError(fmt.Sprintf("tag_ids[%d]", i), raw, model.LocationBody))
			return
		}
		tagIDs = append(tagIDs, id)
	}

	vocab, err := h.service.SetTags(r.Context(), userID, vocabID, tagIDs)
	if err != nil {
		webutil.HandleError(w, logger, err)
		return
	}

	webutil.RespondWithJSON(w, http.StatusOK, vocab, logger)
}
