package handler

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/offapi/internal/auth"
	"github.com/hitoshi/offapi/internal/middleware"
	"github.com/hitoshi/offapi/internal/model"
)

const (
	// oauthStateCookie はOAuth開始時に発行するCSRF対策stateのCookie名。
	oauthStateCookie = "oauth_state"

	// oauthStateMaxAge はstate Cookieの有効期間（秒）。
	oauthStateMaxAge = 600

	// sessionTTL は発行するセッショントークンの有効期間。
	sessionTTL = 30 * 24 * time.Hour
)

// OAuthRouterInterface はOAuthハンドラーが必要とするストラテジーレジストリの
// インターフェース。
type OAuthRouterInterface interface {
	Validate(provider, scope string) error
	StartURL(provider, scope, state string) (string, error)
	CompleteIdentity(ctx context.Context, provider, code string) (auth.IdentityResult, error)
	CompleteLink(ctx context.Context, provider, code string) (auth.LinkResult, error)
}

// TokenSealer はセッショントークンの発行インターフェース。
// session.Codecの部分集合として定義する。
type TokenSealer interface {
	Seal(claim model.SessionClaim, ttl time.Duration) (string, error)
}

// OAuthHandlerConfig はOAuthハンドラーの設定。
type OAuthHandlerConfig struct {
	HomeURL      string // 成功時のリダイレクト先（フロントエンド）
	NotFoundURL  string // 不正な組み合わせのリダイレクト先
	CookieDomain string
	CookieSecure bool
}

// OAuthHandler はOAuthフローのHTTPハンドラー。
//
// identityスコープのコールバックはセッショントークンを発行し、
// linkスコープのコールバックは既存セッションにプロバイダーを紐付ける。
// 両スコープは別々のコールバックルートを持ち、成功ペイロードの形も
// 共有しないため、コールバックの取り違えは型レベルで起きない。
type OAuthHandler struct {
	oauth    OAuthRouterInterface
	sealer   TokenSealer
	verifier middleware.TokenVerifier
	users    middleware.UserResolver
	linker   UserServiceInterface
	config   OAuthHandlerConfig
}

// NewOAuthHandler はOAuthHandlerを生成する。
func NewOAuthHandler(
	oauth OAuthRouterInterface,
	sealer TokenSealer,
	verifier middleware.TokenVerifier,
	users middleware.UserResolver,
	linker UserServiceInterface,
	config OAuthHandlerConfig,
) *OAuthHandler {
	return &OAuthHandler{
		oauth:    oauth,
		sealer:   sealer,
		verifier: verifier,
		users:    users,
		linker:   linker,
		config:   config,
	}
}

// Start はOAuthフローを開始する。
// 未知の{provider, scope}の組み合わせはnot-foundへリダイレクトする。
// GET /{provider}/{scope}
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	scope := chi.URLParam(r, "scope")

	if err := h.oauth.Validate(provider, scope); err != nil {
		slog.Warn("rejected oauth start",
			slog.String("provider", provider),
			slog.String("scope", scope),
		)
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}

	state, err := generateState()
	if err != nil {
		slog.Error("failed to generate oauth state", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	// stateをCookieに保存（CSRF対策）
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   oauthStateMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	url, err := h.oauth.StartURL(provider, scope, state)
	if err != nil {
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// Callback はOAuthコールバックを処理する。
// GET /{provider}/{scope}/callback?code=xxx&state=yyy
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	scope := chi.URLParam(r, "scope")

	if err := h.oauth.Validate(provider, scope); err != nil {
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}

	// stateの検証（CSRF対策）
	state := r.URL.Query().Get("state")
	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		slog.Warn("oauth state mismatch",
			slog.String("provider", provider),
			slog.String("scope", scope),
		)
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}
	h.clearStateCookie(w)

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}

	switch auth.Scope(scope) {
	case auth.ScopeAuth:
		h.completeIdentity(w, r, provider, code)
	case auth.ScopeAdapter:
		h.completeLink(w, r, provider, code)
	default:
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
	}
}

// completeIdentity はidentityスコープのコールバックを処理し、
// セッショントークンをCookieで発行する。
func (h *OAuthHandler) completeIdentity(w http.ResponseWriter, r *http.Request, provider, code string) {
	result, err := h.oauth.CompleteIdentity(r.Context(), provider, code)
	if err != nil {
		slog.Error("identity callback failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}

	// クレームに対応するユーザーを作成しておく（初回ログイン）
	claim := result.Claim()
	if _, err := h.users.FindOrCreateByClaim(r.Context(), model.AuthClaim(claim)); err != nil {
		slog.Error("failed to resolve user for identity callback",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	token, err := h.sealer.Seal(claim, sessionTTL)
	if err != nil {
		slog.Error("failed to seal session token", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.config.HomeURL, http.StatusTemporaryRedirect)
}

// completeLink はlinkスコープのコールバックを処理し、取得したアクセストークンを
// 既存セッションのユーザーに紐付ける。成功ペイロードはアクセストークンのみで、
// identity側のクレームは決して含まない。
func (h *OAuthHandler) completeLink(w http.ResponseWriter, r *http.Request, provider, code string) {
	// linkスコープはセッションCookieによる認証を必須とする
	cookie, err := r.Cookie(middleware.SessionCookieName)
	if err != nil || cookie.Value == "" {
		middleware.WriteAPIError(w, model.NewUnauthenticatedError())
		return
	}
	claim, err := h.verifier.Verify(cookie.Value)
	if err != nil {
		middleware.WriteAPIError(w, model.NewUnauthenticatedError())
		return
	}
	user, err := h.users.FindOrCreateByClaim(r.Context(), model.AuthClaim(claim))
	if err != nil {
		slog.Error("failed to resolve user for link callback",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		middleware.WriteInternalServerError(w)
		return
	}

	result, err := h.oauth.CompleteLink(r.Context(), provider, code)
	if err != nil {
		slog.Error("link callback failed",
			slog.String("provider", provider),
			slog.String("error", err.Error()),
		)
		http.Redirect(w, r, h.config.NotFoundURL, http.StatusTemporaryRedirect)
		return
	}

	if err := h.linker.LinkProvider(r.Context(), user, provider, result.AccessToken); err != nil {
		handleServiceError(w, err)
		return
	}

	http.Redirect(w, r, h.config.HomeURL, http.StatusTemporaryRedirect)
}

// clearStateCookie はstate Cookieを破棄する。
func (h *OAuthHandler) clearStateCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// generateState はCSRF対策のランダムなstateパラメータを生成する。
func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
