package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/offapi/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db    *sql.DB
	links *PostgresProviderLinkRepo
	posts *PostgresPostRepo
	flws  *PostgresFollowRepo
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{
		db:    db,
		links: NewPostgresProviderLinkRepo(db),
		posts: NewPostgresPostRepo(db),
		flws:  NewPostgresFollowRepo(db),
	}
}

// FindOrCreateByClaim はAuthClaimに一致するユーザーを取得し、
// 存在しない場合は新規UUIDを付与して作成する。
// INSERT ... ON CONFLICT ... DO UPDATE ... RETURNINGにより、既存行でも
// 新規行でも単一ステートメントで結果行が返る。並行する初回リクエストでも
// UNIQUE(provider, provider_subject_id)により作成されるレコードは1件。
func (r *PostgresUserRepo) FindOrCreateByClaim(ctx context.Context, claim model.AuthClaim) (*model.User, error) {
	user := &model.User{}
	newUUID := uuid.New().String()

	// DO UPDATEは既存行に対してRETURNINGを成立させるための実質no-op。
	// uuidは挿入時のみ設定され、以後変更されない。
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (uuid, provider, provider_subject_id, created_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (provider, provider_subject_id)
		 DO UPDATE SET provider = EXCLUDED.provider
		 RETURNING id, uuid, provider, provider_subject_id, created_at`,
		newUUID, claim.Provider, claim.ProviderSubjectID,
	).Scan(&user.ID, &user.UUID, &user.Auth.Provider, &user.Auth.ProviderSubjectID, &user.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	return user, nil
}

// LoadDocument はユーザーの関連データ（follows、providers、posts）を読み込んで返す。
func (r *PostgresUserRepo) LoadDocument(ctx context.Context, user *model.User) (*model.User, error) {
	follows, err := r.flws.ListTargetUUIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	links, err := r.links.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	posts, err := r.posts.ListByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	user.Follows = follows
	user.Providers = links
	user.Posts = posts
	return user, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
