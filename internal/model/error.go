// internal/model/error.go
package model

import "errors"

// アプリケーション固有のエラー
var (
	ErrNotFound       = errors.New("resource not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInternalServer = errors.New("internal server error")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("resource conflict") // 重複エラー用
)

// ValidationLocation はバリデーション対象の値がリクエストのどこにあったかを表します
type ValidationLocation string

const (
	LocationBody  ValidationLocation = "body"
	LocationQuery ValidationLocation = "query"
	LocationPath  ValidationLocation = "path"
)

// ValidationError は1つのフィールド違反の詳細です。
// fail-fastにせず、全フィールドの違反をまとめてスライスで返します。
type ValidationError struct {
	Field    string             `json:"field"`
	Message  string             `json:"message"`
	Value    interface{}        `json:"value"`
	Location ValidationLocation `json:"location"`
}

// ErrorDetail はAPIエラーレスポンスのボディ部分
type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
	Details []ValidationError `json:"details,omitempty"`
}

// APIErrorResponse はクライアントに返すエラーレスポンスの構造体
type APIErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// AppError はエラーコード・メッセージ・発生フィールドを保持するカスタムエラー型。
// Err にはステータスコード判定用のセンチネルエラー(ErrNotFoundなど)をラップします。
type AppError struct {
	Detail ErrorDetail
	Err    error
}

func NewAppError(code, message, field string, err error) *AppError {
	return &AppError{
		Detail: ErrorDetail{Code: code, Message: message, Field: field},
		Err:    err,
	}
}

// NewValidationAppError はフィールド単位の違反リストを持つAppErrorを生成します
func NewValidationAppError(details []ValidationError) *AppError {
	return &AppError{
		Detail: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "入力内容に誤りがあります。",
			Details: details,
		},
		Err: ErrInvalidInput,
	}
}

func (e *AppError) Error() string {
	return e.Detail.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}
