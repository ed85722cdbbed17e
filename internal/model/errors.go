// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// クライアントに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, board, todo, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed  = "VALIDATION_FAILED"
	ErrCodeInvalidRequest    = "INVALID_REQUEST"
	ErrCodeBoardNotFound     = "BOARD_NOT_FOUND"
	ErrCodeTodoNotFound      = "TODO_NOT_FOUND"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
	ErrCodeEmailAlreadyInUse = "EMAIL_ALREADY_IN_USE"
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeRateLimitExceeded = "RATE_LIMIT_EXCEEDED"
	ErrCodeRouteNotFound     = "ROUTE_NOT_FOUND"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeInternal          = "INTERNAL_ERROR"
)

// NewValidationError は入力値検証エラーを生成する。
// messageはそのままクライアントに返されるため、内部情報を含めないこと。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  message,
		Category: "validation",
		Action:   "Check the request fields and try again.",
	}
}

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "Request body could not be parsed",
		Category: "validation",
		Action:   "Send a valid JSON body.",
	}
}

// NewBoardNotFoundError はボードが存在しない、または所有者でない場合のエラーを生成する。
// 両者は呼び出し元から区別できない。
func NewBoardNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBoardNotFound,
		Message:  "Board not found or unauthorized",
		Category: "board",
		Action:   "Reload your boards and try again.",
	}
}

// NewTodoNotFoundError はTodoが見つからない場合のエラーを生成する。
func NewTodoNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeTodoNotFound,
		Message:  "Todo not found",
		Category: "todo",
		Action:   "Reload the board and try again.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "user",
		Action:   "Sign in again to register your account.",
	}
}

// NewEmailAlreadyInUseError は他のアカウントが同じメールアドレスを使用している場合のエラーを生成する。
func NewEmailAlreadyInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyInUse,
		Message:  "Email is already in use by another account",
		Category: "user",
		Action:   "Sign in with the account that owns this email.",
	}
}

// NewUnauthorizedError は認証失敗エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required",
		Category: "auth",
		Action:   "Sign in and retry with a valid ID token.",
	}
}

// NewRateLimitExceededError はレート制限超過エラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
		Action:   "Please wait and retry after the specified time.",
	}
}

// NewRouteNotFoundError は未定義ルートへのアクセスエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  "Route not found",
		Category: "system",
		Action:   "Check the request path.",
	}
}

// NewMethodNotAllowedError は許可されていないHTTPメソッドのエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "Method not allowed",
		Category: "system",
		Action:   "Check the request method.",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
		Action:   "Please try again later.",
	}
}
