package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/offapi/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Verifier          middleware.TokenVerifier
	Users             middleware.UserResolver
	AuthRecorder      middleware.AuthFailureRecorder
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string

	// OAuth
	OAuth       OAuthRouterInterface
	Sealer      TokenSealer
	OAuthConfig OAuthHandlerConfig

	// ドメインサービス
	UserService   UserServiceInterface
	IngestService IngestServiceInterface
	SocialService SocialServiceInterface

	// Prometheusスクレイプ用ハンドラー（nilの場合は/metricsを公開しない）
	MetricsHandler http.Handler

	// リクエストログ用ロガー（nilの場合はslog.Default()を使う）
	Logger *slog.Logger
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging → SecurityHeaders → AuthMiddleware → RateLimit(General)
//
// Recoveryはロギングを含む全ミドルウェアのpanicを拾えるよう最外周に置く。
// OAuthルート（/{provider}/{scope}とそのコールバック）と/healthは
// 認証チェーンの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewSecurityHeadersMiddleware())

	userHandler := NewUserHandler(deps.UserService)
	adapterHandler := NewAdapterHandler(deps.UserService)
	ingestHandler := NewIngestHandler(deps.IngestService)
	followHandler := NewFollowHandler(deps.SocialService)
	oauthHandler := NewOAuthHandler(deps.OAuth, deps.Sealer, deps.Verifier, deps.Users, deps.UserService, deps.OAuthConfig)

	// --- 認証不要のルート ---

	// ヘルスチェック
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Prometheusスクレイプ
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// OAuthフロー。スコープごとに別のコールバックルートを持つ。
	r.Get("/{provider}/{scope}", oauthHandler.Start)
	r.Get("/{provider}/{scope}/callback", oauthHandler.Callback)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.Verifier, deps.Users, deps.AuthRecorder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// ユーザードキュメント
		r.Get("/", userHandler.GetDocument)

		// プロバイダーリンク
		r.Post("/adapter", adapterHandler.LinkProvider)

		// インジェスト（外部API呼び出しを伴うため専用レート制限を追加）
		r.With(deps.RateLimiter.IngestMiddleware()).Post("/facebook-api", ingestHandler.PullFacebook)
		r.With(deps.RateLimiter.IngestMiddleware()).Post("/github-api", ingestHandler.PullGithub)

		// フォローグラフ
		r.Get("/users-to-follow", followHandler.ListFollowable)
		r.Post("/users-to-follow", followHandler.Follow)
	})

	return r
}
