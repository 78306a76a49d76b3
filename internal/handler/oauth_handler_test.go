package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/offapi/internal/auth"
	"github.com/hitoshi/offapi/internal/middleware"
	"github.com/hitoshi/offapi/internal/model"
)

var testOAuthConfig = OAuthHandlerConfig{
	HomeURL:     "http://localhost:3000",
	NotFoundURL: "http://localhost:3000/404",
}

// validatePair は本番のRouterと同じ{provider, scope}の組み合わせ検証。
func validatePair(provider, scope string) error {
	if (provider == "facebook" || provider == "github") && (scope == "auth" || scope == "adapter") {
		return nil
	}
	return auth.ErrInvalidOAuthRequest
}

func newOAuthTestRouter(h *OAuthHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/{provider}/{scope}", h.Start)
	r.Get("/{provider}/{scope}/callback", h.Callback)
	return r
}

func stateCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookie {
			return c
		}
	}
	t.Fatal("oauth state cookie not set")
	return nil
}

// TestOAuthHandler_Start_RedirectsToProvider は有効な組み合わせで
// プロバイダーへリダイレクトされることを検証する。
func TestOAuthHandler_Start_RedirectsToProvider(t *testing.T) {
	oauth := &mockOAuthRouter{
		validateFn: validatePair,
		startURLFn: func(provider, scope, state string) (string, error) {
			return fmt.Sprintf("https://provider.example/authorize?state=%s", state), nil
		},
	}
	h := NewOAuthHandler(oauth, nil, nil, nil, nil, testOAuthConfig)
	router := newOAuthTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/facebook/auth", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}

	cookie := stateCookieFrom(t, w)
	if cookie.Value == "" {
		t.Fatal("state cookie value should not be empty")
	}
	loc := w.Header().Get("Location")
	if !strings.Contains(loc, "state="+cookie.Value) {
		t.Errorf("redirect %q should carry the state cookie value", loc)
	}
}

// TestOAuthHandler_Start_UnknownPairRedirectsToNotFound は未知の組み合わせが
// not-foundへリダイレクトされることを検証する。
func TestOAuthHandler_Start_UnknownPairRedirectsToNotFound(t *testing.T) {
	oauth := &mockOAuthRouter{validateFn: validatePair}
	h := NewOAuthHandler(oauth, nil, nil, nil, nil, testOAuthConfig)
	router := newOAuthTestRouter(h)

	for _, path := range []string{"/facebook/admin", "/twitter/auth", "/google/adapter"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		if w.Code != http.StatusTemporaryRedirect {
			t.Errorf("%s: status = %d, want redirect", path, w.Code)
			continue
		}
		if loc := w.Header().Get("Location"); loc != testOAuthConfig.NotFoundURL {
			t.Errorf("%s: Location = %q, want %q", path, loc, testOAuthConfig.NotFoundURL)
		}
	}
}

// TestOAuthHandler_Callback_IdentitySetsSessionCookie はidentityスコープの
// コールバックがセッションCookieを発行してホームへリダイレクトすることを検証する。
func TestOAuthHandler_Callback_IdentitySetsSessionCookie(t *testing.T) {
	oauth := &mockOAuthRouter{
		validateFn: validatePair,
		completeIdentityFn: func(_ context.Context, provider, code string) (auth.IdentityResult, error) {
			if code != "code-1" {
				t.Errorf("code = %q, want code-1", code)
			}
			return auth.IdentityResult{ProviderSubjectID: "fb123", Provider: provider}, nil
		},
	}
	sealer := &mockSealer{
		sealFn: func(claim model.SessionClaim, _ time.Duration) (string, error) {
			if claim.ProviderSubjectID != "fb123" {
				t.Errorf("claim.ProviderSubjectID = %q", claim.ProviderSubjectID)
			}
			return "sealed-token", nil
		},
	}
	resolver := &mockUserResolver{
		findOrCreateFn: func(_ context.Context, claim model.AuthClaim) (*model.User, error) {
			return &model.User{ID: 1, UUID: "uuid-1", Auth: claim}, nil
		},
	}
	h := NewOAuthHandler(oauth, sealer, nil, resolver, nil, testOAuthConfig)
	router := newOAuthTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/facebook/auth/callback?code=code-1&state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if loc := w.Header().Get("Location"); loc != testOAuthConfig.HomeURL {
		t.Errorf("Location = %q, want %q", loc, testOAuthConfig.HomeURL)
	}

	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	if sessionCookie == nil || sessionCookie.Value != "sealed-token" {
		t.Errorf("session cookie = %+v, want sealed-token", sessionCookie)
	}
}

// TestOAuthHandler_Callback_StateMismatch はstate不一致でnot-foundへ
// リダイレクトされることを検証する。
func TestOAuthHandler_Callback_StateMismatch(t *testing.T) {
	oauth := &mockOAuthRouter{
		validateFn: validatePair,
		completeIdentityFn: func(_ context.Context, _, _ string) (auth.IdentityResult, error) {
			t.Fatal("exchange should not run on state mismatch")
			return auth.IdentityResult{}, nil
		},
	}
	h := NewOAuthHandler(oauth, nil, nil, nil, nil, testOAuthConfig)
	router := newOAuthTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/facebook/auth/callback?code=code-1&state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "other"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if loc := w.Header().Get("Location"); loc != testOAuthConfig.NotFoundURL {
		t.Errorf("Location = %q, want %q", loc, testOAuthConfig.NotFoundURL)
	}
}

// TestOAuthHandler_Callback_LinkRequiresSession はlinkスコープのコールバックが
// セッションなしで401になることを検証する。
func TestOAuthHandler_Callback_LinkRequiresSession(t *testing.T) {
	oauth := &mockOAuthRouter{
		validateFn: validatePair,
		completeLinkFn: func(_ context.Context, _, _ string) (auth.LinkResult, error) {
			t.Fatal("exchange should not run without a session")
			return auth.LinkResult{}, nil
		},
	}
	h := NewOAuthHandler(oauth, nil, &mockTokenVerifier{}, nil, nil, testOAuthConfig)
	router := newOAuthTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/facebook/adapter/callback?code=code-1&state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestOAuthHandler_Callback_LinkStoresAccessToken はlinkスコープのコールバックが
// アクセストークンのみを保存することを検証する。
func TestOAuthHandler_Callback_LinkStoresAccessToken(t *testing.T) {
	oauth := &mockOAuthRouter{
		validateFn: validatePair,
		completeLinkFn: func(_ context.Context, provider, code string) (auth.LinkResult, error) {
			return auth.LinkResult{AccessToken: "link-tok"}, nil
		},
	}
	verifier := &mockTokenVerifier{
		verifyFn: func(rawToken string) (model.SessionClaim, error) {
			if rawToken != "session-token" {
				t.Errorf("rawToken = %q", rawToken)
			}
			return model.SessionClaim{ProviderSubjectID: "fb123", Provider: string(model.ProviderFacebook)}, nil
		},
	}
	resolver := &mockUserResolver{
		findOrCreateFn: func(_ context.Context, claim model.AuthClaim) (*model.User, error) {
			return &model.User{ID: 1, UUID: "uuid-1", Auth: claim}, nil
		},
	}
	var gotProvider, gotToken string
	linker := &mockUserService{
		linkProviderFn: func(_ context.Context, _ *model.User, provider, accessToken string) error {
			gotProvider = provider
			gotToken = accessToken
			return nil
		},
	}
	h := NewOAuthHandler(oauth, nil, verifier, resolver, linker, testOAuthConfig)
	router := newOAuthTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/github/adapter/callback?code=code-1&state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: "session-token"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusTemporaryRedirect {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTemporaryRedirect)
	}
	if gotProvider != "github" || gotToken != "link-tok" {
		t.Errorf("link = (%q, %q), want (github, link-tok)", gotProvider, gotToken)
	}
}

// TestOAuthHandler_Callback_MissingCode はcode欠落でnot-foundへ
// リダイレクトされることを検証する。
func TestOAuthHandler_Callback_MissingCode(t *testing.T) {
	oauth := &mockOAuthRouter{validateFn: validatePair}
	h := NewOAuthHandler(oauth, nil, nil, nil, nil, testOAuthConfig)
	router := newOAuthTestRouter(h)

	req := httptest.NewRequest(http.MethodGet, "/facebook/auth/callback?state=st-1", nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st-1"})
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if loc := w.Header().Get("Location"); loc != testOAuthConfig.NotFoundURL {
		t.Errorf("Location = %q, want %q", loc, testOAuthConfig.NotFoundURL)
	}
}
