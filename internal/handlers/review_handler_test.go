// internal/handlers/review_handler_test.go
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vocab_trainer/internal/handlers"
	"vocab_trainer/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- モックReviewService ---
type mockReviewService struct {
	mock.Mock
}

func (m *mockReviewService) GetDueReviews(ctx context.Context, userID uuid.UUID) ([]*model.DueReviewResponse, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.DueReviewResponse), args.Error(1)
}

func (m *mockReviewService) SubmitReview(ctx context.Context, userID uuid.UUID, req *model.SubmitReviewRequest) (*model.SubmitReviewResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SubmitReviewResponse), args.Error(1)
}

func (m *mockReviewService) SubmitReviewBatch(ctx context.Context, userID uuid.UUID, req *model.SubmitReviewBatchRequest) ([]*model.SubmitReviewResponse, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.SubmitReviewResponse), args.Error(1)
}

// --- ヘルパー ---

func newTestReviewHandler(svc *mockReviewService) *handlers.ReviewHandler {
	testLogger := slog.New(slog.NewTextHandler(io.Discard, nil)) // ログ出力を抑制
	return handlers.NewReviewHandler(svc, testLogger)
}

// 認証ミドルウェア通過後の状態を再現する
func authedRequest(t *testing.T, method, target string, body interface{}, userID uuid.UUID) *http.Request {
	t.Helper()
	var reqBody io.Reader
	if body != nil {
		if bodyStr, ok := body.(string); ok {
			reqBody = strings.NewReader(bodyStr)
		} else {
			jsonData, err := json.Marshal(body)
			require.NoError(t, err)
			reqBody = bytes.NewBuffer(jsonData)
		}
	}
	req := httptest.NewRequest(method, target, reqBody)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	ctx := context.WithValue(req.Context(), model.UserIDKey, userID)
	return req.WithContext(ctx)
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) model.APIErrorResponse {
	t.Helper()
	var errResp model.APIErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
	return errResp
}

// --- Test PostReview ---

func TestReviewHandler_PostReview(t *testing.T) {
	userID := uuid.New()
	vocabID := uuid.New()

	t.Run("正常系: 送信成功で200とスケジュール状態が返る", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		expected := &model.SubmitReviewResponse{
			VocabularyID: vocabID,
			EaseFactor:   2.6,
			Interval:     1,
			Repetitions:  1,
			NextReview:   time.Now().Add(24 * time.Hour),
			Quality:      5,
		}
		mockService.On("SubmitReview", mock.Anything, userID, mock.AnythingOfType("*model.SubmitReviewRequest")).
			Return(expected, nil).Once()

		body := map[string]interface{}{"vocabulary_id": vocabID.String(), "quality": 5}
		req := authedRequest(t, http.MethodPost, "/api/v1/reviews", body, userID)
		rec := httptest.NewRecorder()

		handler.PostReview(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp model.SubmitReviewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, vocabID, resp.VocabularyID)
		assert.Equal(t, 1, resp.Interval)
		mockService.AssertExpectations(t)
	})

	t.Run("異常系: qualityが範囲外なら400で全違反が返る", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		body := map[string]interface{}{"vocabulary_id": "not-a-uuid", "quality": 6}
		req := authedRequest(t, http.MethodPost, "/api/v1/reviews", body, userID)
		rec := httptest.NewRecorder()

		handler.PostReview(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errResp := decodeErrorResponse(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
		require.Len(t, errResp.Error.Details, 2)
		assert.Equal(t, "vocabulary_id", errResp.Error.Details[0].Field)
		assert.Equal(t, "quality", errResp.Error.Details[1].Field)
		assert.Equal(t, model.LocationBody, errResp.Error.Details[0].Location)
		// サービスは呼ばれない
		mockService.AssertNotCalled(t, "SubmitReview", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: qualityが小数なら400", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		req := authedRequest(t, http.MethodPost, "/api/v1/reviews",
			`{"vocabulary_id":"`+vocabID.String()+`","quality":3.5}`, userID)
		rec := httptest.NewRecorder()

		handler.PostReview(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errResp := decodeErrorResponse(t, rec)
		assert.Equal(t, "INVALID_REQUEST_BODY", errResp.Error.Code)
	})

	t.Run("異常系: 未認証なら403", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		body := map[string]interface{}{"vocabulary_id": vocabID.String(), "quality": 5}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reviews", bytes.NewBufferString(mustJSON(t, body)))
		rec := httptest.NewRecorder()

		handler.PostReview(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("異常系: 単語が存在しないなら404", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		mockService.On("SubmitReview", mock.Anything, userID, mock.Anything).
			Return(nil, model.NewAppError("NOT_FOUND", "単語が見つかりません。", "vocabulary_id", model.ErrNotFound)).Once()

		body := map[string]interface{}{"vocabulary_id": vocabID.String(), "quality": 3}
		req := authedRequest(t, http.MethodPost, "/api/v1/reviews", body, userID)
		rec := httptest.NewRecorder()

		handler.PostReview(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

// --- Test PostReviewBatch ---

func TestReviewHandler_PostReviewBatch(t *testing.T) {
	userID := uuid.New()

	makeBatchBody := func(n int) map[string]interface{} {
		reviews := make([]map[string]interface{}, n)
		for i := range reviews {
			reviews[i] = map[string]interface{}{"vocabulary_id": uuid.NewString(), "quality": 4}
		}
		return map[string]interface{}{"reviews": reviews}
	}

	t.Run("正常系: 2件の送信", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		results := []*model.SubmitReviewResponse{
			{VocabularyID: uuid.New(), Interval: 1, Repetitions: 1},
			{VocabularyID: uuid.New(), Interval: 6, Repetitions: 2},
		}
		mockService.On("SubmitReviewBatch", mock.Anything, userID, mock.AnythingOfType("*model.SubmitReviewBatchRequest")).
			Return(results, nil).Once()

		req := authedRequest(t, http.MethodPost, "/api/v1/reviews/batch", makeBatchBody(2), userID)
		rec := httptest.NewRecorder()

		handler.PostReviewBatch(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("異常系: 空のバッチは400", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		req := authedRequest(t, http.MethodPost, "/api/v1/reviews/batch", makeBatchBody(0), userID)
		rec := httptest.NewRecorder()

		handler.PostReviewBatch(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errResp := decodeErrorResponse(t, rec)
		assert.Equal(t, "VALIDATION_ERROR", errResp.Error.Code)
		mockService.AssertNotCalled(t, "SubmitReviewBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: 51件のバッチは400", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		req := authedRequest(t, http.MethodPost, "/api/v1/reviews/batch", makeBatchBody(51), userID)
		rec := httptest.NewRecorder()

		handler.PostReviewBatch(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		mockService.AssertNotCalled(t, "SubmitReviewBatch", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("異常系: 要素の違反は位置付きで報告される", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		body := makeBatchBody(3)
		body["reviews"].([]map[string]interface{})[2]["quality"] = 9

		req := authedRequest(t, http.MethodPost, "/api/v1/reviews/batch", body, userID)
		rec := httptest.NewRecorder()

		handler.PostReviewBatch(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errResp := decodeErrorResponse(t, rec)
		require.Len(t, errResp.Error.Details, 1)
		assert.Equal(t, "reviews[2].quality", errResp.Error.Details[0].Field)
	})
}

// --- Test GetDueReviews ---

func TestReviewHandler_GetDueReviews(t *testing.T) {
	userID := uuid.New()

	t.Run("正常系: 期限到来リストが返る", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		due := []*model.DueReviewResponse{
			{VocabularyID: uuid.New(), Term: "alpha", Definition: "first"},
			{VocabularyID: uuid.New(), Term: "beta", Definition: "second"},
		}
		mockService.On("GetDueReviews", mock.Anything, userID).Return(due, nil).Once()

		req := authedRequest(t, http.MethodGet, "/api/v1/reviews/due", nil, userID)
		rec := httptest.NewRecorder()

		handler.GetDueReviews(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp []*model.DueReviewResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp, 2)
		assert.Equal(t, "alpha", resp[0].Term)
		mockService.AssertExpectations(t)
	})

	t.Run("正常系: 0件でも空配列で200", func(t *testing.T) {
		mockService := new(mockReviewService)
		handler := newTestReviewHandler(mockService)

		mockService.On("GetDueReviews", mock.Anything, userID).
			Return([]*model.DueReviewResponse{}, nil).Once()

		req := authedRequest(t, http.MethodGet, "/api/v1/reviews/due", nil, userID)
		rec := httptest.NewRecorder()

		handler.GetDueReviews(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})
}
