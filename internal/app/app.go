// Package app はアプリケーションの初期化と起動を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/offapi/internal/auth"
	"github.com/hitoshi/offapi/internal/config"
	"github.com/hitoshi/offapi/internal/database"
	"github.com/hitoshi/offapi/internal/handler"
	"github.com/hitoshi/offapi/internal/ingest"
	"github.com/hitoshi/offapi/internal/logger"
	"github.com/hitoshi/offapi/internal/metrics"
	"github.com/hitoshi/offapi/internal/middleware"
	"github.com/hitoshi/offapi/internal/repository"
	"github.com/hitoshi/offapi/internal/security"
	"github.com/hitoshi/offapi/internal/session"
	"github.com/hitoshi/offapi/internal/social"
	"github.com/hitoshi/offapi/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	linkRepo := repository.NewPostgresProviderLinkRepo(db)
	postRepo := repository.NewPostgresPostRepo(db)
	followRepo := repository.NewPostgresFollowRepo(db)

	// 3. セッショントークンコーデックの初期化
	// 鍵はAPP_SECRETからHKDFで導出する。生のシークレットは
	// IDサービスとの共有値であり、ワイヤー上を流れることはない。
	codec, err := session.NewCodec(cfg.AppSecret)
	if err != nil {
		return fmt.Errorf("failed to initialize session codec: %w", err)
	}

	// 4. メトリクスの初期化
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)

	// 5. OAuthストラテジーレジストリの初期化
	// プロバイダーAPIへの外向きリクエストにはSSRF防止付きクライアントを使う。
	// ベースURLは設定で差し替え可能なため、起動時に静的検証も行う。
	guard := security.NewSSRFGuard()
	for _, baseURL := range []string{cfg.FacebookAPIBaseURL, cfg.GithubAPIBaseURL} {
		if err := guard.ValidateURL(baseURL); err != nil {
			return fmt.Errorf("unsafe provider API base URL %q: %w", baseURL, err)
		}
	}
	ingestClient := guard.NewSafeClient(cfg.IngestTimeout)
	resolvers := map[string]auth.SubjectResolver{
		"facebook": auth.NewFacebookSubjectResolver(ingestClient, cfg.FacebookAPIBaseURL),
		"github":   auth.NewGithubSubjectResolver(ingestClient, cfg.GithubAPIBaseURL),
	}
	oauthRouter := auth.NewRouter(auth.RouterConfig{
		BaseURL:  cfg.BaseURL,
		Facebook: auth.Credentials{ClientID: cfg.FacebookAppID, ClientSecret: cfg.FacebookAppSecret},
		Github:   auth.Credentials{ClientID: cfg.GithubAppID, ClientSecret: cfg.GithubAppSecret},
	}, resolvers)

	// 6. ドメインサービスの初期化
	userService := user.NewService(userRepo, linkRepo, security.NewPostSanitizer())
	socialService := social.NewService(followRepo)
	ingestService := ingest.NewService(
		linkRepo, postRepo, collector, slog.Default(),
		ingest.NewFacebookAdapter(ingestClient, cfg.FacebookAPIBaseURL, collector),
		ingest.NewGithubAdapter(ingestClient, cfg.GithubAPIBaseURL, collector),
	)

	// 7. ルーターの構築
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitIngest),
	)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		Verifier:          codec,
		Users:             userRepo,
		AuthRecorder:      collector,
		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,

		OAuth:  oauthRouter,
		Sealer: codec,
		OAuthConfig: handler.OAuthHandlerConfig{
			HomeURL:      cfg.CORSAllowedOrigin,
			NotFoundURL:  cfg.CORSAllowedOrigin + "/404",
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},

		UserService:   userService,
		IngestService: ingestService,
		SocialService: socialService,

		MetricsHandler: metrics.Handler(reg),
		Logger:         slog.Default(),
	}

	router := handler.NewRouter(deps)

	// 8. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
