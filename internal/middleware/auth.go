// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/offapi/internal/model"
)

// SessionCookieName はブラウザフロー用にセッショントークンを保持するCookieの名前。
const SessionCookieName = "off_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userContextKey はリクエストコンテキストに認証済みユーザーを格納するためのキー。
var userContextKey = contextKey("user")

// TokenVerifier はセッショントークンの検証インターフェース。
// session.Codecの部分集合として定義する。
type TokenVerifier interface {
	Verify(rawToken string) (model.SessionClaim, error)
}

// UserResolver はクレームからユーザーを解決するインターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserResolver interface {
	FindOrCreateByClaim(ctx context.Context, claim model.AuthClaim) (*model.User, error)
}

// AuthFailureRecorder は認証失敗をメトリクスに記録するインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure()
}

// NewAuthMiddleware はAuthorizationヘッダー（またはセッションCookie）の
// トークンを検証し、クレームからユーザーを解決するミドルウェアを返す。
//
// 同一クレームの初回リクエストではユーザーを新規作成する。トークン欠落・
// 復号失敗・クレーム不正のいずれも同一の401レスポンスで拒否し、
// どの検査で失敗したかを漏らさない。
func NewAuthMiddleware(verifier TokenVerifier, users UserResolver, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" {
				// ブラウザフロー（OAuthコールバック等）はCookieで認証する
				if cookie, err := r.Cookie(SessionCookieName); err == nil {
					raw = cookie.Value
				}
			}

			claim, err := verifier.Verify(raw)
			if err != nil {
				if recorder != nil {
					recorder.RecordAuthFailure()
				}
				WriteAPIError(w, model.NewUnauthenticatedError())
				return
			}

			user, err := users.FindOrCreateByClaim(r.Context(), model.AuthClaim(claim))
			if err != nil {
				slog.Error("ユーザーの解決に失敗しました",
					slog.String("provider", string(claim.Provider)),
					slog.String("error", err.Error()),
				)
				WriteInternalServerError(w)
				return
			}

			// 外側のロギングミドルウェアがホルダーを植えている場合は
			// 解決したユーザーのuuidを伝える
			if holder, ok := r.Context().Value(logUserKey).(*logUserHolder); ok {
				holder.uuid = user.UUID
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserFromContext(ctx context.Context) (*model.User, error) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	if !ok || user == nil {
		return nil, fmt.Errorf("user not found in context")
	}
	return user, nil
}

// ContextWithUser はコンテキストにユーザーを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
