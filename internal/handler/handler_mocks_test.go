package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/offapi/internal/auth"
	"github.com/hitoshi/offapi/internal/middleware"
	"github.com/hitoshi/offapi/internal/model"
)

// --- テスト用モック ---

type mockUserService struct {
	getDocumentFn  func(ctx context.Context, u *model.User) (*model.User, error)
	linkProviderFn func(ctx context.Context, u *model.User, provider, accessToken string) error
}

func (m *mockUserService) GetDocument(ctx context.Context, u *model.User) (*model.User, error) {
	return m.getDocumentFn(ctx, u)
}

func (m *mockUserService) LinkProvider(ctx context.Context, u *model.User, provider, accessToken string) error {
	return m.linkProviderFn(ctx, u, provider, accessToken)
}

type mockIngestService struct {
	pullFn func(ctx context.Context, user *model.User, provider string) (int, error)
}

func (m *mockIngestService) Pull(ctx context.Context, user *model.User, provider string) (int, error) {
	return m.pullFn(ctx, user, provider)
}

type mockSocialService struct {
	listFollowableFn func(ctx context.Context, u *model.User) ([]model.Followable, error)
	followFn         func(ctx context.Context, u *model.User, targetUUID string) error
}

func (m *mockSocialService) ListFollowable(ctx context.Context, u *model.User) ([]model.Followable, error) {
	return m.listFollowableFn(ctx, u)
}

func (m *mockSocialService) Follow(ctx context.Context, u *model.User, targetUUID string) error {
	return m.followFn(ctx, u, targetUUID)
}

type mockOAuthRouter struct {
	validateFn         func(provider, scope string) error
	startURLFn         func(provider, scope, state string) (string, error)
	completeIdentityFn func(ctx context.Context, provider, code string) (auth.IdentityResult, error)
	completeLinkFn     func(ctx context.Context, provider, code string) (auth.LinkResult, error)
}

func (m *mockOAuthRouter) Validate(provider, scope string) error {
	return m.validateFn(provider, scope)
}

func (m *mockOAuthRouter) StartURL(provider, scope, state string) (string, error) {
	return m.startURLFn(provider, scope, state)
}

func (m *mockOAuthRouter) CompleteIdentity(ctx context.Context, provider, code string) (auth.IdentityResult, error) {
	return m.completeIdentityFn(ctx, provider, code)
}

func (m *mockOAuthRouter) CompleteLink(ctx context.Context, provider, code string) (auth.LinkResult, error) {
	return m.completeLinkFn(ctx, provider, code)
}

type mockSealer struct {
	sealFn func(claim model.SessionClaim, ttl time.Duration) (string, error)
}

func (m *mockSealer) Seal(claim model.SessionClaim, ttl time.Duration) (string, error) {
	return m.sealFn(claim, ttl)
}

type mockTokenVerifier struct {
	verifyFn func(rawToken string) (model.SessionClaim, error)
}

func (m *mockTokenVerifier) Verify(rawToken string) (model.SessionClaim, error) {
	return m.verifyFn(rawToken)
}

type mockUserResolver struct {
	findOrCreateFn func(ctx context.Context, claim model.AuthClaim) (*model.User, error)
}

func (m *mockUserResolver) FindOrCreateByClaim(ctx context.Context, claim model.AuthClaim) (*model.User, error) {
	return m.findOrCreateFn(ctx, claim)
}

// withUser はリクエストにテストユーザーを注入する。
func withUser(req *http.Request, u *model.User) *http.Request {
	return req.WithContext(middleware.ContextWithUser(req.Context(), u))
}
