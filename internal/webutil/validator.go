// internal/webutil/validator.go
package webutil

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"vocab_trainer/internal/model"

	"github.com/go-playground/validator/v10"
)

// Validator はアプリケーション全体で共有されるバリデータインスタンスです。
// DTOのstructタグに宣言されたルールを全フィールドについて評価し、
// 違反は最初の1件で打ち切らず全件をまとめて報告します。
var Validator *validator.Validate

// タグ名に許可する文字種 (英数字・空白・ハイフン・アンダースコア)
var tagNamePattern = regexp.MustCompile(`^[\p{L}\p{N} _-]+$`)

// フィールド名の日本語表示用マップ
var fieldNameTranslations = map[string]string{
	"name":          "名前",
	"term":          "単語",
	"definition":    "意味",
	"example":       "例文",
	"language":      "言語コード",
	"email":         "メールアドレス",
	"password":      "パスワード",
	"quality":       "品質スコア",
	"vocabulary_id": "単語ID",
	"reviews":       "復習結果リスト",
	"tag_ids":       "タグIDリスト",
	"daily_limit":   "1日の復習上限",
	"theme":         "テーマ",
	"profile_url":   "プロフィールURL",
	"color":         "色",
	"token":         "トークン",
	"from":          "開始日",
	"to":            "終了日",
}

// ルールごとのメッセージテンプレート。{0}=フィールド名, {1}=パラメータ。
var messageTemplates = map[string]string{
	"required":  "{0}は必須項目です。",
	"email":     "{0}は有効なメールアドレス形式ではありません。",
	"min":       "{0}は{1}以上で入力してください。",
	"max":       "{0}は{1}以下で入力してください。",
	"gte":       "{0}は{1}以上の値を指定してください。",
	"lte":       "{0}は{1}以下の値を指定してください。",
	"len":       "{0}は{1}文字で入力してください。",
	"uuid4":     "{0}はUUID(v4)形式で指定してください。",
	"oneof":     "{0}に指定できる値は {1} のいずれかです。",
	"http_url":  "{0}は有効なURLではありません。",
	"hexcolor":  "{0}は #RRGGBB 形式で指定してください。",
	"alpha":     "{0}に使用できるのは英字のみです。",
	"lowercase": "{0}は小文字で入力してください。",
	"tagname":   "{0}に使用できるのは英数字・空白・ハイフン・アンダースコアのみです。",
	"datetime":  "{0}はYYYY-MM-DD形式で指定してください。",
}

func init() {
	Validator = validator.New()

	// JSONタグからフィールド名を取得するように設定
	Validator.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// タグ名の文字種チェック (カスタムルール)
	Validator.RegisterValidation("tagname", func(fl validator.FieldLevel) bool {
		return tagNamePattern.MatchString(fl.Field().String())
	})
}

// formatMessage は違反したルールから人間可読なメッセージを組み立てます
func formatMessage(fe validator.FieldError) string {
	fieldName := fe.Field()
	if translated, ok := fieldNameTranslations[fieldName]; ok {
		fieldName = translated
	}

	template, ok := messageTemplates[fe.Tag()]
	if !ok {
		return fmt.Sprintf("%sの値が正しくありません。", fieldName)
	}
	msg := strings.ReplaceAll(template, "{0}", fieldName)
	msg = strings.ReplaceAll(msg, "{1}", fe.Param())
	return msg
}

// fieldPath はネストしたDTOのフィールド位置を "reviews[3].quality" 形式に整形します
func fieldPath(fe validator.FieldError) string {
	// Namespace は "SubmitReviewBatchRequest.reviews[3].quality" の形式で返る。
	// 先頭のstruct名を落としてクライアント視点のパスにする。
	ns := fe.Namespace()
	if idx := strings.Index(ns, "."); idx >= 0 {
		return ns[idx+1:]
	}
	return fe.Field()
}

// Validate はDTOの全ルールを評価し、違反をまとめて返します。
// 違反がない場合はnil。バリデーション自体は純粋で、ストレージには一切触れない。
func Validate(dst interface{}, location model.ValidationLocation) *model.AppError {
	err := Validator.Struct(dst)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		// バリデーションライブラリ自体のエラー (ルール定義ミスなど)
		return model.NewAppError("INTERNAL_SERVER_ERROR", "入力チェック中にエラーが発生しました。", "", err)
	}

	details := make([]model.ValidationError, 0, len(validationErrors))
	for _, fe := range validationErrors {
		details = append(details, model.ValidationError{
			Field:    fieldPath(fe),
			Message:  formatMessage(fe),
			Value:    fe.Value(),
			Location: location,
		})
	}
	return model.NewValidationAppError(details)
}

// NewUUIDFormatError は単一フィールドのUUID形式エラーを組み立てます
func NewUUIDFormatError(field, value string, location model.ValidationLocation) *model.AppError {
	name := field
	if translated, ok := fieldNameTranslations[field]; ok {
		name = translated
	}
	return model.NewValidationAppError([]model.ValidationError{
		{
			Field:    field,
			Message:  fmt.Sprintf("%sはUUID(v4)形式で指定してください。", name),
			Value:    value,
			Location: location,
		},
	})
}

// NewPathParamError はURLパラメータの形式エラーを単一の違反として組み立てます
func NewPathParamError(field, value string) *model.AppError {
	return NewUUIDFormatError(field, value, model.LocationPath)
}
