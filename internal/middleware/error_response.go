package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/offapi/internal/model"
)

// ErrorResponseBody はAPIエラーレスポンスの統一フォーマット。
// messageフィールドの文言はクライアントが照合するワイヤー契約の一部。
type ErrorResponseBody struct {
	Message string `json:"message"`
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
// すべてのAPIエンドポイントで一貫したエラーレスポンスを提供する。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponseBody{
		Message: apiErr.Message,
	})
}

// WriteAPIError はエラーコードからHTTPステータスを導出してレスポンスを書き込む。
func WriteAPIError(w http.ResponseWriter, apiErr *model.APIError) {
	WriteErrorResponse(w, StatusFromAPIError(apiErr), apiErr)
}

// StatusFromAPIError はエラーコードをHTTPステータスコードにマッピングする。
func StatusFromAPIError(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthenticated:
		return http.StatusUnauthorized
	case model.ErrCodeProviderNotLinked:
		return http.StatusNotFound
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidOAuthRequest:
		return http.StatusBadRequest
	case model.ErrCodeUpstreamProviderFailure:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "internal server error",
		Category: "system",
	})
}
