package handler

import (
	"encoding/json"
	"net/http"

	"github.com/hitoshi/offapi/internal/model"
)

// adapterRequest はPOST /adapterのリクエストボディ。
type adapterRequest struct {
	AccessToken string `json:"accessToken"`
	Provider    string `json:"provider"`
}

// AdapterHandler はプロバイダーリンクのHTTPハンドラー。
type AdapterHandler struct {
	service UserServiceInterface
}

// NewAdapterHandler はAdapterHandlerを生成する。
func NewAdapterHandler(service UserServiceInterface) *AdapterHandler {
	return &AdapterHandler{service: service}
}

// LinkProvider はアクセストークンを認証済みユーザーに紐付ける。
// 同一プロバイダーの再リンクは既存エントリを置き換える。
// POST /adapter
func (h *AdapterHandler) LinkProvider(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req adapterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleServiceError(w, model.NewInvalidRequestError("invalid JSON body"))
		return
	}
	if req.AccessToken == "" {
		handleServiceError(w, model.NewInvalidRequestError("accessToken is required"))
		return
	}
	if !model.ValidProvider(req.Provider) {
		handleServiceError(w, model.NewInvalidRequestError("unknown provider"))
		return
	}

	if err := h.service.LinkProvider(r.Context(), user, req.Provider, req.AccessToken); err != nil {
		handleServiceError(w, err)
		return
	}

	writeOK(w)
}
