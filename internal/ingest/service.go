package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/offapi/internal/metrics"
	"github.com/hitoshi/offapi/internal/model"
	"github.com/hitoshi/offapi/internal/repository"
)

// Service はプロバイダーからのオンデマンド取り込みを統括するサービス層。
// フロー: リンク確認 → アダプターでフェッチ → ポスト追記 → 最終フェッチ日時更新
type Service struct {
	linkRepo  repository.ProviderLinkRepository
	postRepo  repository.PostRepository
	adapters  map[string]Adapter
	collector metrics.MetricsCollector
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	linkRepo repository.ProviderLinkRepository,
	postRepo repository.PostRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	adapters ...Adapter,
) *Service {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Provider()] = a
	}
	return &Service{
		linkRepo:  linkRepo,
		postRepo:  postRepo,
		adapters:  m,
		collector: collector,
		logger:    logger,
	}
}

// Pull は指定プロバイダーの保存済みアクセストークンで最新データを取得し、
// ユーザーのポスト一覧に追記する。
//
// リンクが存在しない場合はPROVIDER_NOT_LINKEDエラーを返す。フェッチに
// 失敗した場合は部分的なマージを行わずUPSTREAM_PROVIDER_FAILUREを返す。
// 成功時は追記した件数を返す。
func (s *Service) Pull(ctx context.Context, user *model.User, provider string) (int, error) {
	adapter, ok := s.adapters[provider]
	if !ok {
		return 0, model.NewProviderNotLinkedError(provider)
	}

	link, err := s.linkRepo.FindByUserAndProvider(ctx, user.ID, provider)
	if err != nil {
		return 0, fmt.Errorf("プロバイダーリンクの取得に失敗しました: %w", err)
	}
	if link == nil {
		s.collector.RecordIngestFailure(provider, "not_linked")
		return 0, model.NewProviderNotLinkedError(provider)
	}

	start := time.Now()
	posts, err := adapter.Fetch(ctx, link.AccessToken)
	s.collector.RecordIngestLatency(provider, time.Since(start))
	if err != nil {
		s.logger.Error("プロバイダーからの取得に失敗しました",
			slog.String("provider", provider),
			slog.String("user_uuid", user.UUID),
			slog.String("error", err.Error()),
		)
		s.collector.RecordIngestFailure(provider, "upstream")
		return 0, model.NewUpstreamProviderFailureError(provider)
	}

	if len(posts) > 0 {
		if err := s.postRepo.AppendBatch(ctx, user.ID, posts); err != nil {
			s.collector.RecordIngestFailure(provider, "store")
			return 0, fmt.Errorf("ポストの保存に失敗しました: %w", err)
		}
	}

	if err := s.linkRepo.UpdateLastFetch(ctx, user.ID, provider, time.Now()); err != nil {
		// 追記自体は完了しているため、ここでの失敗はログのみに留める。
		s.logger.Error("最終フェッチ日時の更新に失敗しました",
			slog.String("provider", provider),
			slog.String("user_uuid", user.UUID),
			slog.String("error", err.Error()),
		)
	}

	s.collector.RecordIngestSuccess(provider)
	s.collector.RecordPostsMerged(provider, len(posts))
	s.logger.Info("プロバイダーからの取り込みが完了しました",
		slog.String("provider", provider),
		slog.String("user_uuid", user.UUID),
		slog.Int("merged", len(posts)),
	)

	return len(posts), nil
}
