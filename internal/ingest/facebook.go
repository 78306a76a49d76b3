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

// facebookFields は/me/postsに要求する固定フィールドセット。
const facebookFields = "id,message,created_time,type,full_picture,permalink_url"

// FacebookAdapter はFacebook Graph APIのフィードインジェストアダプター。
type FacebookAdapter struct {
	httpClient *http.Client
	baseURL    string
	statuses   ProviderStatusRecorder
}

// NewFacebookAdapter はFacebookAdapterを生成する。
// baseURLが空の場合は本番のGraph APIエンドポイントを使用する。
// statusesがnilでない場合、API応答のHTTPステータスコードを記録する。
func NewFacebookAdapter(httpClient *http.Client, baseURL string, statuses ProviderStatusRecorder) *FacebookAdapter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if baseURL == "" {
		baseURL = "https://graph.facebook.com"
	}
	return &FacebookAdapter{httpClient: httpClient, baseURL: baseURL, statuses: statuses}
}

// Provider はプロバイダー名を返す。
func (a *FacebookAdapter) Provider() string {
	return string(model.ProviderFacebook)
}

// facebookFeed は/me/postsのレスポンスエンベロープ。
// 各アイテムはidとtypeのみ覗き見し、全体はそのまま保持する。
type facebookFeed struct {
	Data []json.RawMessage `json:"data"`
}

// facebookPostEnvelope は正規化に必要な最小フィールドのみ取り出す。
type facebookPostEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Fetch は/me/postsを1回呼び出し、返ってきたページをそのまま正規化する。
func (a *FacebookAdapter) Fetch(ctx context.Context, accessToken string) ([]model.Post, error) {
	reqURL := fmt.Sprintf("%s/me/posts?%s", a.baseURL, url.Values{
		"fields":       {facebookFields},
		"access_token": {accessToken},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("facebook feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if a.statuses != nil {
		a.statuses.RecordProviderStatus(a.Provider(), resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read facebook feed response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("facebook feed fetch failed with status %d: %s", resp.StatusCode, string(body))
	}

	var feed facebookFeed
	if err := json.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse facebook feed response: %w", err)
	}

	posts := make([]model.Post, 0, len(feed.Data))
	for _, raw := range feed.Data {
		// id/typeが欠けていても拒否しない。dataは意図的に不透明。
		var env facebookPostEnvelope
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

// compile-time interface check
var _ Adapter = (*FacebookAdapter)(nil)
