// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// フロー境界で発生したエラーをHTTPステータスと原因カテゴリに対応付ける。
type APIError struct {
	Status   int      // HTTPステータスコード
	Code     string   // エラーコード
	Message  string   // クライアントに返す詳細メッセージ
	Category string   // カテゴリ: auth, validation, session, upstream, system
	Errors   []string // 検証エラー時の違反ルール一覧
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodeUnsupportedGrantType   = "UNSUPPORTED_GRANT_TYPE"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken           = "INVALID_TOKEN"
	ErrCodeInvalidTokenFormat     = "INVALID_TOKEN_FORMAT"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeSessionNotFound        = "SESSION_NOT_FOUND"
	ErrCodeUpstreamFailure        = "UPSTREAM_FAILURE"
	ErrCodeRateLimitExceeded      = "RATE_LIMIT_EXCEEDED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewValidationError は入力検証エラーを生成する。
// violationsには違反したすべてのルールを渡す。
func NewValidationError(message string, violations []string) *APIError {
	return &APIError{
		Status:   http.StatusUnprocessableEntity,
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Errors:   violations,
	}
}

// NewEmailAlreadyRegisteredError は登録済みメールアドレスでの再登録エラーを生成する。
// 重複は検証エラーと同じ422として扱う。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Status:   http.StatusUnprocessableEntity,
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "Email already registered",
		Category: "validation",
	}
}

// NewUnsupportedGrantTypeError はpassword以外のgrant_typeが指定された場合のエラーを生成する。
func NewUnsupportedGrantTypeError() *APIError {
	return &APIError{
		Status:   http.StatusBadRequest,
		Code:     ErrCodeUnsupportedGrantType,
		Message:  "Unsupported grant type",
		Category: "auth",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メールアドレスの存在有無を推測されないよう、原因によらず同一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Status:   http.StatusUnauthorized,
		Code:     ErrCodeInvalidCredentials,
		Message:  "Incorrect email or password",
		Category: "auth",
	}
}

// NewInvalidTokenError は欠落・不正・期限切れトークンのエラーを生成する。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Status:   http.StatusUnauthorized,
		Code:     ErrCodeInvalidToken,
		Message:  "Invalid authentication credentials",
		Category: "auth",
	}
}

// NewInvalidTokenFormatError は署名は正しいがsubjectの形式が不正なトークンのエラーを生成する。
func NewInvalidTokenFormatError() *APIError {
	return &APIError{
		Status:   http.StatusUnprocessableEntity,
		Code:     ErrCodeInvalidTokenFormat,
		Message:  "Invalid token format",
		Category: "auth",
	}
}

// NewUserNotFoundError はトークンのユーザーが存在しない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Status:   http.StatusNotFound,
		Code:     ErrCodeUserNotFound,
		Message:  "User not found",
		Category: "auth",
	}
}

// NewSessionNotFoundError はトークンのセッションが存在しない場合のエラーを生成する。
func NewSessionNotFoundError() *APIError {
	return &APIError{
		Status:   http.StatusNotFound,
		Code:     ErrCodeSessionNotFound,
		Message:  "Session not found",
		Category: "session",
	}
}

// NewUpstreamFailureError はエージェント呼び出し失敗のエラーを生成する。
// エージェントのエラーメッセージをそのまま詳細として返す。
func NewUpstreamFailureError(message string) *APIError {
	return &APIError{
		Status:   http.StatusInternalServerError,
		Code:     ErrCodeUpstreamFailure,
		Message:  message,
		Category: "upstream",
	}
}

// NewRateLimitExceededError はレート制限超過のエラーを生成する。
func NewRateLimitExceededError() *APIError {
	return &APIError{
		Status:   http.StatusTooManyRequests,
		Code:     ErrCodeRateLimitExceeded,
		Message:  "Too many requests. Please try again later.",
		Category: "system",
	}
}

// NewInvalidRequestError はリクエストボディを解釈できない場合のエラーを生成する。
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Status:   http.StatusBadRequest,
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Status:   http.StatusInternalServerError,
		Code:     ErrCodeInternal,
		Message:  "Internal server error",
		Category: "system",
	}
}
