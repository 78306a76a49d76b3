package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/offapi/internal/model"
)

// PostgresPostRepo はPostgreSQLを使用したポストリポジトリ。
// ポストは追記専用で、このリポジトリは削除・更新を提供しない。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// AppendBatch は取得済みバッチをユーザーのポスト一覧に追記する。
// バッチ全体を単一のマルチバリューINSERTで書き込み、部分的なマージが
// 起きないようにする。既存エントリとの重複排除は行わない。
func (r *PostgresPostRepo) AppendBatch(ctx context.Context, userID int64, posts []model.Post) error {
	if len(posts) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO posts (user_id, provider, post_id, type, data, created_at) VALUES `)

	args := make([]any, 0, len(posts)*4+1)
	args = append(args, userID)
	for i, p := range posts {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := len(args)
		// dataが空の場合はJSONBとして有効なnullを入れる
		data := p.Data
		if len(data) == 0 {
			data = []byte("null")
		}
		fmt.Fprintf(&sb, "($1, $%d, $%d, $%d, $%d, now())", base+1, base+2, base+3, base+4)
		args = append(args, p.Provider, p.ID, p.Type, []byte(data))
	}

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("failed to append posts: %w", err)
	}
	return nil
}

// ListByUserID はユーザーのポスト一覧を追記順で返す。
func (r *PostgresPostRepo) ListByUserID(ctx context.Context, userID int64) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT provider, post_id, type, data
		 FROM posts
		 WHERE user_id = $1
		 ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		var data []byte
		if err := rows.Scan(&p.Provider, &p.ID, &p.Type, &data); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		p.Data = data
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate posts: %w", err)
	}

	return posts, nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
