package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/offapi/internal/model"
)

// IngestServiceInterface はインジェストハンドラーが必要とするサービスインターフェース。
type IngestServiceInterface interface {
	// Pull は指定プロバイダーの最新データを取得してユーザーのポストに追記する。
	Pull(ctx context.Context, user *model.User, provider string) (int, error)
}

// IngestHandler はオンデマンドインジェストのHTTPハンドラー。
type IngestHandler struct {
	service IngestServiceInterface
}

// NewIngestHandler はIngestHandlerを生成する。
func NewIngestHandler(service IngestServiceInterface) *IngestHandler {
	return &IngestHandler{service: service}
}

// PullFacebook はFacebookの投稿を取り込む。
// POST /facebook-api
func (h *IngestHandler) PullFacebook(w http.ResponseWriter, r *http.Request) {
	h.pull(w, r, string(model.ProviderFacebook))
}

// PullGithub はGitHubのイベントを取り込む。
// POST /github-api
func (h *IngestHandler) PullGithub(w http.ResponseWriter, r *http.Request) {
	h.pull(w, r, string(model.ProviderGithub))
}

func (h *IngestHandler) pull(w http.ResponseWriter, r *http.Request, provider string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Pull(r.Context(), user, provider); err != nil {
		handleServiceError(w, err)
		return
	}

	writeOK(w)
}
