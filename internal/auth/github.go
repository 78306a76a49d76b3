package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// GithubSubjectResolver はGitHub APIでユーザー識別子を解決する。
type GithubSubjectResolver struct {
	httpClient *http.Client
	baseURL    string
}

// NewGithubSubjectResolver はGithubSubjectResolverを生成する。
// baseURLが空の場合は本番のGitHub APIエンドポイントを使用する。
func NewGithubSubjectResolver(httpClient *http.Client, baseURL string) *GithubSubjectResolver {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GithubSubjectResolver{httpClient: httpClient, baseURL: baseURL}
}

// githubUser は/userエンドポイントのレスポンス。
type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
}

// ResolveSubject は/userを呼び出してGitHubの数値ユーザーIDを文字列で返す。
func (r *GithubSubjectResolver) ResolveSubject(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/user", nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("github user info request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read github user info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("github user info fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("failed to parse github user info response: %w", err)
	}

	if user.ID == 0 {
		return "", fmt.Errorf("empty id in github user info response")
	}

	return strconv.FormatInt(user.ID, 10), nil
}

// compile-time interface check
var _ SubjectResolver = (*GithubSubjectResolver)(nil)
