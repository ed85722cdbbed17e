package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/taskflow/internal/model"
)

// ErrorDetail はエラーレスポンスに含める原因カテゴリと対処方法。
type ErrorDetail struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// 成功レスポンスと同じく success フィールドを持つエンベロープ形式。
type ErrorResponseBody struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Success: false,
		Message: apiErr.Message,
		Error: ErrorDetail{
			Code:     apiErr.Code,
			Category: apiErr.Category,
			Action:   apiErr.Action,
		},
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
