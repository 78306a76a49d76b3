package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"log/slog"

	"github.com/hitoshi/offapi/internal/model"
)

// TestLoggingMiddleware_LogsRequest はリクエストの構造化ログを検証する。
func TestLoggingMiddleware_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := NewLoggingMiddleware(logger)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/users-to-follow", nil)
	req = req.WithContext(ContextWithUser(req.Context(), &model.User{ID: 1, UUID: "uuid-1"}))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["method"] != "GET" {
		t.Errorf("method = %v, want GET", entry["method"])
	}
	if entry["path"] != "/users-to-follow" {
		t.Errorf("path = %v, want /users-to-follow", entry["path"])
	}
	if entry["status"] != float64(200) {
		t.Errorf("status = %v, want 200", entry["status"])
	}
	if entry["user_uuid"] != "uuid-1" {
		t.Errorf("user_uuid = %v, want uuid-1", entry["user_uuid"])
	}
	if _, ok := entry["duration_ms"]; !ok {
		t.Error("duration_ms should be logged")
	}
}

// TestLoggingMiddleware_UserUUIDFromInnerAuth はロギングの内側で認証ミドルウェアが
// 解決したユーザーのuuidが、ホルダー経由でログに載ることを検証する。
// 内側のミドルウェアが差し替えたコンテキストは外側からは見えないため、
// チェーン順のまま検証する。
func TestLoggingMiddleware_UserUUIDFromInnerAuth(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	resolver := &mockUserResolver{
		findOrCreateFn: func(_ context.Context, claim model.AuthClaim) (*model.User, error) {
			return &model.User{ID: 1, UUID: "uuid-1", Auth: claim}, nil
		},
	}
	auth := NewAuthMiddleware(validVerifier(t, ""), resolver, nil)
	logging := NewLoggingMiddleware(logger)

	handler := logging(auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["user_uuid"] != "uuid-1" {
		t.Errorf("user_uuid = %v, want uuid-1", entry["user_uuid"])
	}
}

// TestLoggingMiddleware_ErrorLevelFor5xx は5xxレスポンスがERRORレベルで
// 記録されることを検証する。
func TestLoggingMiddleware_ErrorLevelFor5xx(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	mw := NewLoggingMiddleware(logger)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log entry: %v", err)
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
}

// TestStatusRecorder_DefaultsTo200 はWriteHeader未呼び出し時に200を記録することを検証する。
func TestStatusRecorder_DefaultsTo200(t *testing.T) {
	rec := &statusRecorder{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}

	rec.Write([]byte("ok"))

	if rec.statusCode != http.StatusOK {
		t.Errorf("statusCode = %d, want 200", rec.statusCode)
	}
}
