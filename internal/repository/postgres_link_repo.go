package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/offapi/internal/model"
)

// PostgresProviderLinkRepo はPostgreSQLを使用したプロバイダーリンクリポジトリ。
type PostgresProviderLinkRepo struct {
	db *sql.DB
}

// NewPostgresProviderLinkRepo はPostgresProviderLinkRepoを生成する。
func NewPostgresProviderLinkRepo(db *sql.DB) *PostgresProviderLinkRepo {
	return &PostgresProviderLinkRepo{db: db}
}

// Upsert はユーザーとプロバイダーの組に対してアクセストークンを保存する。
// UNIQUE(user_id, provider)により同一プロバイダーの再リンクは既存エントリを
// 置き換える（last-writer-wins）。置き換え時はlast_fetchもリセットする。
func (r *PostgresProviderLinkRepo) Upsert(ctx context.Context, userID int64, provider, accessToken string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO provider_links (user_id, provider, access_token, last_fetch, created_at)
		 VALUES ($1, $2, $3, NULL, now())
		 ON CONFLICT (user_id, provider)
		 DO UPDATE SET access_token = EXCLUDED.access_token, last_fetch = NULL`,
		userID, provider, accessToken,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert provider link: %w", err)
	}
	return nil
}

// FindByUserAndProvider はユーザーの指定プロバイダーのリンクを取得する。
// 見つからない場合はnilを返す。
func (r *PostgresProviderLinkRepo) FindByUserAndProvider(ctx context.Context, userID int64, provider string) (*model.ProviderLink, error) {
	link := &model.ProviderLink{}
	var lastFetch sql.NullTime

	err := r.db.QueryRowContext(ctx,
		`SELECT provider, access_token, last_fetch
		 FROM provider_links
		 WHERE user_id = $1 AND provider = $2`,
		userID, provider,
	).Scan(&link.Provider, &link.AccessToken, &lastFetch)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find provider link: %w", err)
	}

	if lastFetch.Valid {
		link.LastFetch = &lastFetch.Time
	}
	return link, nil
}

// UpdateLastFetch はリンクの最終フェッチ日時を更新する。
func (r *PostgresProviderLinkRepo) UpdateLastFetch(ctx context.Context, userID int64, provider string, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE provider_links SET last_fetch = $3
		 WHERE user_id = $1 AND provider = $2`,
		userID, provider, fetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update last fetch: %w", err)
	}
	return nil
}

// ListByUserID はユーザーの全リンクを作成順で返す。
func (r *PostgresProviderLinkRepo) ListByUserID(ctx context.Context, userID int64) ([]model.ProviderLink, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT provider, access_token, last_fetch
		 FROM provider_links
		 WHERE user_id = $1
		 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list provider links: %w", err)
	}
	defer rows.Close()

	links := []model.ProviderLink{}
	for rows.Next() {
		var link model.ProviderLink
		var lastFetch sql.NullTime
		if err := rows.Scan(&link.Provider, &link.AccessToken, &lastFetch); err != nil {
			return nil, fmt.Errorf("failed to scan provider link: %w", err)
		}
		if lastFetch.Valid {
			link.LastFetch = &lastFetch.Time
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate provider links: %w", err)
	}

	return links, nil
}

// compile-time interface check
var _ ProviderLinkRepository = (*PostgresProviderLinkRepo)(nil)
