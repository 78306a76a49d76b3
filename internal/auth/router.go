package auth

import (
	"context"
	"fmt"

	"github.com/hitoshi/offapi/internal/model"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/facebook"
	"golang.org/x/oauth2/github"
)

// ErrInvalidOAuthRequest は未知の{scope, provider}の組に対して返すエラー。
// 呼び出し元はこれをnot-foundへのリダイレクト（Reject終端状態）として扱う。
var ErrInvalidOAuthRequest = &model.APIError{
	Code:     model.ErrCodeInvalidOAuthRequest,
	Message:  "unknown oauth scope/provider combination",
	Category: "validation",
}

// Credentials はプロバイダーのOAuthクライアント資格情報。
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// RouterConfig はRouterの設定。
type RouterConfig struct {
	// コールバックURLの組み立てに使用するこのサービスの外部URL
	BaseURL string

	Facebook Credentials
	Github   Credentials

	// テスト用にオーバーライド可能なエンドポイント。
	// ゼロ値の場合は各プロバイダーの本番エンドポイントを使用する。
	FacebookEndpoint oauth2.Endpoint
	GithubEndpoint   oauth2.Endpoint
}

// identityStrategy は"auth"スコープ用のプロバイダーストラテジー。
type identityStrategy struct {
	oauth   *oauth2.Config
	subject SubjectResolver
}

// linkStrategy は"adapter"スコープ用のプロバイダーストラテジー。
// トークン交換のみを行い、ユーザー情報には一切触れない。
type linkStrategy struct {
	oauth *oauth2.Config
}

// Router は{scope, provider}の組から正しいストラテジーを選択する。
// 2つのレジストリは独立しており、コールバックルートを共有しない。
type Router struct {
	identity map[string]identityStrategy
	link     map[string]linkStrategy
}

// NewRouter は全プロバイダーのストラテジーを両レジストリに登録したRouterを生成する。
// resolversはプロバイダー名からSubjectResolverへのマップ（"auth"スコープ用）。
func NewRouter(cfg RouterConfig, resolvers map[string]SubjectResolver) *Router {
	fbEndpoint := cfg.FacebookEndpoint
	if fbEndpoint.AuthURL == "" {
		fbEndpoint = facebook.Endpoint
	}
	ghEndpoint := cfg.GithubEndpoint
	if ghEndpoint.AuthURL == "" {
		ghEndpoint = github.Endpoint
	}

	// 同じ資格情報でもRedirectURLはスコープごとに異なる。
	// プロバイダー側に登録されたコールバックURLと一致している必要がある。
	newConfig := func(creds Credentials, endpoint oauth2.Endpoint, provider string, scope Scope) *oauth2.Config {
		return &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     endpoint,
			RedirectURL:  fmt.Sprintf("%s/%s/%s/callback", cfg.BaseURL, provider, scope),
		}
	}

	r := &Router{
		identity: make(map[string]identityStrategy),
		link:     make(map[string]linkStrategy),
	}

	r.identity[string(model.ProviderFacebook)] = identityStrategy{
		oauth:   newConfig(cfg.Facebook, fbEndpoint, string(model.ProviderFacebook), ScopeAuth),
		subject: resolvers[string(model.ProviderFacebook)],
	}
	r.identity[string(model.ProviderGithub)] = identityStrategy{
		oauth:   newConfig(cfg.Github, ghEndpoint, string(model.ProviderGithub), ScopeAuth),
		subject: resolvers[string(model.ProviderGithub)],
	}

	r.link[string(model.ProviderFacebook)] = linkStrategy{
		oauth: newConfig(cfg.Facebook, fbEndpoint, string(model.ProviderFacebook), ScopeAdapter),
	}
	r.link[string(model.ProviderGithub)] = linkStrategy{
		oauth: newConfig(cfg.Github, ghEndpoint, string(model.ProviderGithub), ScopeAdapter),
	}

	return r
}

// Validate は{scope, provider}の組が宣言済みの直積に含まれるかを検証する。
// 含まれない場合はErrInvalidOAuthRequestを返し、部分的な状態は一切作らない。
func (r *Router) Validate(provider, scope string) error {
	switch Scope(scope) {
	case ScopeAuth:
		if _, ok := r.identity[provider]; ok {
			return nil
		}
	case ScopeAdapter:
		if _, ok := r.link[provider]; ok {
			return nil
		}
	}
	return ErrInvalidOAuthRequest
}

// StartURL は選択されたストラテジーの外部認可エンドポイントURLを返す。
// stateはCSRF対策のパラメータで、コールバック時に照合される。
func (r *Router) StartURL(provider, scope, state string) (string, error) {
	if err := r.Validate(provider, scope); err != nil {
		return "", err
	}

	switch Scope(scope) {
	case ScopeAuth:
		return r.identity[provider].oauth.AuthCodeURL(state), nil
	default:
		return r.link[provider].oauth.AuthCodeURL(state), nil
	}
}

// CompleteIdentity は"auth"スコープのコールバックを完了し、認可コードを
// 交換してプロバイダー上のユーザー識別子を解決する。
// "adapter"スコープのストラテジーではこの操作は存在しない。
func (r *Router) CompleteIdentity(ctx context.Context, provider, code string) (IdentityResult, error) {
	strategy, ok := r.identity[provider]
	if !ok {
		return IdentityResult{}, ErrInvalidOAuthRequest
	}

	token, err := strategy.oauth.Exchange(ctx, code)
	if err != nil {
		return IdentityResult{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	subjectID, err := strategy.subject.ResolveSubject(ctx, token.AccessToken)
	if err != nil {
		return IdentityResult{}, fmt.Errorf("failed to resolve provider subject: %w", err)
	}

	return IdentityResult{ProviderSubjectID: subjectID, Provider: provider}, nil
}

// CompleteLink は"adapter"スコープのコールバックを完了し、認可コードを
// アクセストークンに交換する。アイデンティティ情報は取得しない。
func (r *Router) CompleteLink(ctx context.Context, provider, code string) (LinkResult, error) {
	strategy, ok := r.link[provider]
	if !ok {
		return LinkResult{}, ErrInvalidOAuthRequest
	}

	token, err := strategy.oauth.Exchange(ctx, code)
	if err != nil {
		return LinkResult{}, fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	return LinkResult{AccessToken: token.AccessToken}, nil
}
