package webutil

import (
	"encoding/json"
	"net/http"

	"vocab_trainer/internal/model"
)

// DecodeJSONBody はリクエストボディをデコードします。
// 未知のフィールドは拒否する。型不一致(qualityに文字列など)もここで弾かれる。
func DecodeJSONBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return model.ErrInvalidInput
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return model.ErrInvalidInput
	}
	return nil
}
