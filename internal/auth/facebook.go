package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// FacebookSubjectResolver はFacebook Graph APIでユーザー識別子を解決する。
type FacebookSubjectResolver struct {
	httpClient *http.Client
	baseURL    string
}

// NewFacebookSubjectResolver はFacebookSubjectResolverを生成する。
// baseURLが空の場合は本番のGraph APIエンドポイントを使用する。
func NewFacebookSubjectResolver(httpClient *http.Client, baseURL string) *FacebookSubjectResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	return &FacebookSubjectResolver{httpClient: httpClient, baseURL: baseURL}
}

// facebookMe は/meエンドポイントのレスポンス。
type facebookMe struct {
	ID string `json:"id"`
}

// ResolveSubject は/me?fields=idを呼び出してFacebookユーザーIDを返す。
func (r *FacebookSubjectResolver) ResolveSubject(ctx context.Context, accessToken string) (string, error) {
	reqURL := fmt.Sprintf("%s/me?%s", r.baseURL, url.Values{
		"fields":       {"id"},
		"access_token": {accessToken},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("facebook user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read facebook user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("facebook user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var me facebookMe
	if err := json.Unmarshal(body, &me); err != nil {
		return "", fmt.Errorf("failed to parse facebook user info response: %w", err)
	}

	if me.ID == "" {
		return "", fmt.Errorf("empty id in facebook user info response")
	}

	return me.ID, nil
}

// compile-time interface check
var _ SubjectResolver = (*FacebookSubjectResolver)(nil)
