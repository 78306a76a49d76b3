package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/offapi/internal/model"
)

// PostgresFollowRepo はPostgreSQLを使用したフォローエッジリポジトリ。
type PostgresFollowRepo struct {
	db *sql.DB
}

// NewPostgresFollowRepo はPostgresFollowRepoを生成する。
func NewPostgresFollowRepo(db *sql.DB) *PostgresFollowRepo {
	return &PostgresFollowRepo{db: db}
}

// Create はフォローエッジを追加する。
// UNIQUE(user_id, target_uuid)により重複したフォローは冪等に無視される。
// フォロー先UUIDの存在検証は行わない（エッジは一方向で相互参照を持たない）。
func (r *PostgresFollowRepo) Create(ctx context.Context, userID int64, targetUUID string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO follows (user_id, target_uuid, created_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (user_id, target_uuid) DO NOTHING`,
		userID, targetUUID,
	)
	if err != nil {
		return fmt.Errorf("failed to create follow edge: %w", err)
	}
	return nil
}

// ListTargetUUIDs はユーザーがフォローしているUUID一覧を返す。
func (r *PostgresFollowRepo) ListTargetUUIDs(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT target_uuid FROM follows WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	defer rows.Close()

	uuids := []string{}
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan follow: %w", err)
		}
		uuids = append(uuids, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate follows: %w", err)
	}

	return uuids, nil
}

// ListFollowable は呼び出しユーザー自身を除く全ユーザーのUUIDを、
// フォロー済みかどうかの注釈付きで返す。
func (r *PostgresFollowRepo) ListFollowable(ctx context.Context, userID int64) ([]model.Followable, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT u.uuid,
		        EXISTS (
		            SELECT 1 FROM follows f
		            WHERE f.user_id = $1 AND f.target_uuid = u.uuid
		        ) AS following
		 FROM users u
		 WHERE u.id <> $1`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list followable users: %w", err)
	}
	defer rows.Close()

	result := []model.Followable{}
	for rows.Next() {
		var f model.Followable
		if err := rows.Scan(&f.UUID, &f.Following); err != nil {
			return nil, fmt.Errorf("failed to scan followable user: %w", err)
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate followable users: %w", err)
	}

	return result, nil
}

// compile-time interface check
var _ FollowRepository = (*PostgresFollowRepo)(nil)
