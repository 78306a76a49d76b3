package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/offapi/internal/model"
)

// TestUserHandler_GetDocument はユーザードキュメントが返ることを検証する。
func TestUserHandler_GetDocument(t *testing.T) {
	svc := &mockUserService{
		getDocumentFn: func(_ context.Context, u *model.User) (*model.User, error) {
			u.Follows = []string{"22222222-2222-2222-2222-222222222222"}
			u.Posts = []model.Post{{Provider: "facebook", ID: "p1"}}
			u.Providers = []model.ProviderLink{{Provider: "facebook", AccessToken: "tok"}}
			return u, nil
		},
	}
	h := NewUserHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &model.User{ID: 1, UUID: "uuid-1"})
	w := httptest.NewRecorder()

	h.GetDocument(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["uuid"] != "uuid-1" {
		t.Errorf("uuid = %v, want uuid-1", body["uuid"])
	}
	if follows, ok := body["follows"].([]any); !ok || len(follows) != 1 {
		t.Errorf("follows = %v, want 1 entry", body["follows"])
	}
	if posts, ok := body["posts"].([]any); !ok || len(posts) != 1 {
		t.Errorf("posts = %v, want 1 entry", body["posts"])
	}
}

// TestUserHandler_GetDocument_NoUser はコンテキスト未認証で401が返ることを検証する。
func TestUserHandler_GetDocument_NoUser(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	w := httptest.NewRecorder()
	h.GetDocument(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestUserHandler_GetDocument_ServiceError はサービスエラーで500が返ることを検証する。
func TestUserHandler_GetDocument_ServiceError(t *testing.T) {
	svc := &mockUserService{
		getDocumentFn: func(_ context.Context, _ *model.User) (*model.User, error) {
			return nil, errors.New("db down")
		},
	}
	h := NewUserHandler(svc)

	req := withUser(httptest.NewRequest(http.MethodGet, "/", nil), &model.User{ID: 1, UUID: "uuid-1"})
	w := httptest.NewRecorder()

	h.GetDocument(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}
