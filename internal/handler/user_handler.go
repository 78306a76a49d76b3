package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/offapi/internal/model"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// GetDocument は認証済みユーザーの完全なドキュメントを返す。
	GetDocument(ctx context.Context, u *model.User) (*model.User, error)

	// LinkProvider はプロバイダーのアクセストークンをユーザーに紐付ける。
	LinkProvider(ctx context.Context, u *model.User, provider, accessToken string) error
}

// UserHandler はユーザードキュメントのHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// GetDocument は認証済みユーザーのドキュメントを返す。
// GET /
func (h *UserHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	doc, err := h.service.GetDocument(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}
