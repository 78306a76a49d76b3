// Package ingest はプロバイダーのネイティブフィードを取得し、
// 内部の正規化ポスト形に変換してユーザーのポスト一覧にマージする。
// インジェストは厳密にプル・オン・デマンドで、バックグラウンドタスクは持たない。
package ingest

import (
	"context"

	"github.com/hitoshi/offapi/internal/model"
)

// ProviderStatusRecorder はプロバイダーAPI応答のHTTPステータスコードを
// 記録するインターフェース。metrics.MetricsCollectorの部分集合として定義する。
type ProviderStatusRecorder interface {
	RecordProviderStatus(provider string, statusCode int)
}

// Adapter はプロバイダーごとのインジェストアダプターのインターフェース。
// 各アダプターは保存済みアクセストークンを使ってプロバイダーの
// 読み取りエンドポイントを呼び出す。
type Adapter interface {
	// Provider はこのアダプターが対応するプロバイダー名を返す。
	Provider() string

	// Fetch はプロバイダーのフィードを取得し、正規化ポストの列を返す。
	// ペイロードの検証は行わず、各アイテムはそのままPost.Dataに保持される。
	Fetch(ctx context.Context, accessToken string) ([]model.Post, error)
}
