// Package repository はデータ永続化のインターフェースを定義する。
//
// Userレコードへの全ての変更（identity upsert、プロバイダーリンク、ポストマージ、
// フォロー追加）は単一のアトミックなストア操作として表現する。リクエスト間の
// 競合はUNIQUE制約とINSERT ... ON CONFLICTで解決し、アプリケーション側の
// ロックは導入しない。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/offapi/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindOrCreateByClaim はAuthClaimに一致するユーザーを取得し、
	// 存在しない場合は新規UUIDを付与して作成する（アトミックupsert）。
	// 同一クレームの初回リクエストが並行しても作成されるレコードは1件。
	FindOrCreateByClaim(ctx context.Context, claim model.AuthClaim) (*model.User, error)

	// LoadDocument はユーザーの関連データ（follows、providers、posts）を
	// 読み込んで返す。
	LoadDocument(ctx context.Context, user *model.User) (*model.User, error)
}

// ProviderLinkRepository はプロバイダーリンクの永続化インターフェース。
type ProviderLinkRepository interface {
	// Upsert はユーザーとプロバイダーの組に対してアクセストークンを保存する。
	// 再リンク時は既存エントリを置き換える（last-writer-wins）。
	Upsert(ctx context.Context, userID int64, provider, accessToken string) error

	// FindByUserAndProvider はユーザーの指定プロバイダーのリンクを取得する。
	// 見つからない場合はnilを返す。
	FindByUserAndProvider(ctx context.Context, userID int64, provider string) (*model.ProviderLink, error)

	// UpdateLastFetch はリンクの最終フェッチ日時を更新する。
	UpdateLastFetch(ctx context.Context, userID int64, provider string, fetchedAt time.Time) error

	// ListByUserID はユーザーの全リンクを作成順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]model.ProviderLink, error)
}

// PostRepository は正規化済みポストの永続化インターフェース。
type PostRepository interface {
	// AppendBatch は取得済みバッチをユーザーのポスト一覧に単一ステートメントで
	// 追記する。既存エントリに対する重複排除は行わない。
	AppendBatch(ctx context.Context, userID int64, posts []model.Post) error

	// ListByUserID はユーザーのポスト一覧を追記順で返す。
	ListByUserID(ctx context.Context, userID int64) ([]model.Post, error)
}

// FollowRepository はフォローエッジの永続化インターフェース。
type FollowRepository interface {
	// Create はフォローエッジを追加する。既に存在する場合は何もしない（冪等）。
	// フォロー先UUIDの存在検証は行わない。
	Create(ctx context.Context, userID int64, targetUUID string) error

	// ListTargetUUIDs はユーザーがフォローしているUUID一覧を返す。
	ListTargetUUIDs(ctx context.Context, userID int64) ([]string, error)

	// ListFollowable は呼び出しユーザー自身を除く全ユーザーのUUIDを、
	// フォロー済みかどうかの注釈付きで返す。順序はストアネイティブ順。
	ListFollowable(ctx context.Context, userID int64) ([]model.Followable, error)
}
