package model

import "encoding/json"

// Post は正規化されたフィードアイテムを表す。
// IDはプロバイダーネイティブのID、Typeは粗いカテゴリタグ。
// Dataはプロバイダー固有のペイロードで、後段のレンダリングのために
// 検証せずそのまま保持する。
type Post struct {
	Provider string          `json:"provider"`
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
}
