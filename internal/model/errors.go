// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// MessageはそのままレスポンスJSONの"message"フィールドになるため、
// ワイヤー上の文言はここで固定する。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ（レスポンスに露出する）
	Category string // カテゴリ: auth, validation, provider, system
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthenticated         = "UNAUTHENTICATED"
	ErrCodeProviderNotLinked       = "PROVIDER_NOT_LINKED"
	ErrCodeInvalidOAuthRequest     = "INVALID_OAUTH_REQUEST"
	ErrCodeUpstreamProviderFailure = "UPSTREAM_PROVIDER_FAILURE"
	ErrCodeInvalidRequest          = "INVALID_REQUEST"
)

// NewUnauthenticatedError は認証失敗エラーを生成する。
// トークン欠落・復号失敗・改ざんのいずれでも同一の文言を返し、
// どの検査で失敗したかを漏らさない。
func NewUnauthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthenticated,
		Message:  "Unauthenticated",
		Category: "auth",
	}
}

// NewProviderNotLinkedError は未リンクのプロバイダーに対する
// インジェスト要求のエラーを生成する。
func NewProviderNotLinkedError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeProviderNotLinked,
		Message:  fmt.Sprintf("%s provider not found", titleCase(provider)),
		Category: "provider",
	}
}

// NewUpstreamProviderFailureError はプロバイダーAPI呼び出し失敗のエラーを生成する。
// 部分的なマージは行わない前提なので、呼び出し元はそのまま要求全体を失敗させる。
func NewUpstreamProviderFailureError(provider string) *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamProviderFailure,
		Message:  fmt.Sprintf("failed to fetch data from %s", provider),
		Category: "provider",
	}
}

// NewInvalidRequestError はリクエストボディ不正のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("invalid request: %s", reason),
		Category: "validation",
	}
}

// titleCase は先頭1文字のみを大文字化する。
// "facebook" -> "Facebook"。エラーメッセージの文言合わせ用。
func titleCase(s string) string {
	if s == "" {
		return s
	}
	if s[0] >= 'a' && s[0] <= 'z' {
		return string(s[0]-('a'-'A')) + s[1:]
	}
	return s
}
