package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hitoshi/offapi/internal/model"
)

// GithubAdapter はGitHubのパブリックイベントフィードのインジェストアダプター。
type GithubAdapter struct {
	httpClient *http.Client
	baseURL    string
	statuses   ProviderStatusRecorder
}

// NewGithubAdapter はGithubAdapterを生成する。
// baseURLが空の場合は本番のGitHub APIエンドポイントを使用する。
// statusesがnilでない場合、API応答のHTTPステータスコードを記録する。
func NewGithubAdapter(httpClient *http.Client, baseURL string, statuses ProviderStatusRecorder) *GithubAdapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = "https://api.github.com"
	}
	return &GithubAdapter{httpClient: httpClient, baseURL: baseURL, statuses: statuses}
}

// Provider はプロバイダー名を返す。
func (a *GithubAdapter) Provider() string {
	return string(model.ProviderGithub)
}

// githubEventEnvelope は正規化に必要な最小フィールドのみ取り出す。
type githubEventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Fetch は2段階のAPI呼び出しを行う。
// まず認証ユーザーのloginを解決し、次にそのloginのパブリックイベント
// フィードを取得する。イベント配列はそのまま正規化する。
func (a *GithubAdapter) Fetch(ctx context.Context, accessToken string) ([]model.Post, error) {
	login, err := a.fetchLogin(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	body, err := a.get(ctx, fmt.Sprintf("%s/users/%s/events", a.baseURL, url.PathEscape(login)), accessToken)
	if err != nil {
		return nil, err
	}

	var events []json.RawMessage
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to parse github events response: %w", err)
	}

	posts := make([]model.Post, 0, len(events))
	for _, raw := range events {
		var env githubEventEnvelope
		_ = json.Unmarshal(raw, &env)

		posts = append(posts, model.Post{
			Provider: a.Provider(),
			ID:       env.ID,
			Type:     env.Type,
			Data:     raw,
		})
	}

	return posts, nil
}

// fetchLogin は/userから認証ユーザーのloginを解決する。
func (a *GithubAdapter) fetchLogin(ctx context.Context, accessToken string) (string, error) {
	body, err := a.get(ctx, a.baseURL+"/user", accessToken)
	if err != nil {
		return "", err
	}

	var user struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(body, &user); err != nil {
		return "", fmt.Errorf("failed to parse github user response: %w", err)
	}
	if user.Login == "" {
		return "", fmt.Errorf("empty login in github user response")
	}

	return user.Login, nil
}

// get はBearer認証付きのGETリクエストを実行し、2xx以外はエラーを返す。
func (a *GithubAdapter) get(ctx context.Context, reqURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("github request failed: %w", err)
	}
	defer resp.Body.Close()

	if a.statuses != nil {
		a.statuses.RecordProviderStatus(a.Provider(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read github response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// compile-time interface check
var _ Adapter = (*GithubAdapter)(nil)
