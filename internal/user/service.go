// Package user はユーザードキュメントのドメインロジックを提供する。
package user

import (
	"context"
	"fmt"

	"github.com/hitoshi/offapi/internal/model"
	"github.com/hitoshi/offapi/internal/repository"
	"github.com/hitoshi/offapi/internal/security"
)

// Service はユーザードキュメント組み立てのサービス層。
type Service struct {
	userRepo  repository.UserRepository
	linkRepo  repository.ProviderLinkRepository
	sanitizer security.PostSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, linkRepo repository.ProviderLinkRepository, sanitizer security.PostSanitizerService) *Service {
	return &Service{
		userRepo:  userRepo,
		linkRepo:  linkRepo,
		sanitizer: sanitizer,
	}
}

// GetDocument は認証済みユーザーの完全なドキュメント
// （follows、posts、providers）を読み込んで返す。
// 投稿のテキストフィールドは応答組み立て時にサニタイズされる。
// 保存されている生データは変更しない。
func (s *Service) GetDocument(ctx context.Context, u *model.User) (*model.User, error) {
	doc, err := s.userRepo.LoadDocument(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("ユーザードキュメントの読み込みに失敗しました: %w", err)
	}
	if s.sanitizer != nil {
		for i := range doc.Posts {
			doc.Posts[i].Data = s.sanitizer.SanitizePostData(doc.Posts[i].Data)
		}
	}
	return doc, nil
}

// LinkProvider はプロバイダーのアクセストークンをユーザーに紐付ける。
// 再リンク時は既存エントリを置き換える。
func (s *Service) LinkProvider(ctx context.Context, u *model.User, provider, accessToken string) error {
	if err := s.linkRepo.Upsert(ctx, u.ID, provider, accessToken); err != nil {
		return fmt.Errorf("プロバイダーリンクの保存に失敗しました: %w", err)
	}
	return nil
}
