package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/offapi/internal/model"
)

// SocialServiceInterface はフォローハンドラーが必要とするサービスインターフェース。
type SocialServiceInterface interface {
	// ListFollowable は呼び出しユーザー自身を除く全ユーザーの一覧を返す。
	ListFollowable(ctx context.Context, u *model.User) ([]model.Followable, error)

	// Follow はフォローエッジを追加する（冪等）。
	Follow(ctx context.Context, u *model.User, targetUUID string) error
}

// followRequest はPOST /users-to-followのリクエストボディ。
type followRequest struct {
	UUID string `json:"uuid"`
}

// FollowHandler はフォローグラフのHTTPハンドラー。
type FollowHandler struct {
	service SocialServiceInterface
}

// NewFollowHandler はFollowHandlerを生成する。
func NewFollowHandler(service SocialServiceInterface) *FollowHandler {
	return &FollowHandler{service: service}
}

// ListFollowable はフォロー候補の一覧を返す。
// GET /users-to-follow
func (h *FollowHandler) ListFollowable(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.service.ListFollowable(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if list == nil {
		list = []model.Followable{}
	}

	writeJSON(w, http.StatusOK, list)
}

// Follow はフォローエッジを追加する。
// POST /users-to-follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("invalid JSON body"))
		return
	}

	if err := h.service.Follow(r.Context(), user, req.UUID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeOK(w)
}
