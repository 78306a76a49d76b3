// Package social はフォローグラフのドメインロジックを提供する。
package social

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/offapi/internal/model"
	"github.com/hitoshi/offapi/internal/repository"
)

// Service はフォローグラフのサービス層。
type Service struct {
	followRepo repository.FollowRepository
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(followRepo repository.FollowRepository) *Service {
	return &Service{followRepo: followRepo}
}

// ListFollowable は呼び出しユーザー自身を除く全ユーザーのUUIDを、
// フォロー済みフラグ付きで返す。
func (s *Service) ListFollowable(ctx context.Context, u *model.User) ([]model.Followable, error) {
	list, err := s.followRepo.ListFollowable(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("フォロー候補の取得に失敗しました: %w", err)
	}
	return list, nil
}

// Follow はフォローエッジを追加する。既にフォロー済みの場合は何もしない。
// フォロー先UUIDの存在検証は行わないが、UUID構文の検証は行う。
// 構文不正のままDBに渡すとUUID列へのキャストエラーが500として漏れるため。
func (s *Service) Follow(ctx context.Context, u *model.User, targetUUID string) error {
	if targetUUID == "" {
		return model.NewInvalidRequestError("uuid is required")
	}
	if _, err := uuid.Parse(targetUUID); err != nil {
		return model.NewInvalidRequestError("uuid is invalid")
	}
	if err := s.followRepo.Create(ctx, u.ID, targetUUID); err != nil {
		return fmt.Errorf("フォローの追加に失敗しました: %w", err)
	}
	return nil
}
