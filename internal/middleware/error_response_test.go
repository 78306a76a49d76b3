package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/offapi/internal/model"
)

// TestWriteErrorResponse_WritesMessageJSON はワイヤーフォーマットを検証する。
func TestWriteErrorResponse_WritesMessageJSON(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, model.NewProviderNotLinkedError("facebook"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["message"] != "Facebook provider not found" {
		t.Errorf(`message = %q, want "Facebook provider not found"`, body["message"])
	}
	if len(body) != 1 {
		t.Errorf("body should contain only the message field, got %v", body)
	}
}

// TestStatusFromAPIError_Mapping はエラーコードとHTTPステータスの対応を検証する。
func TestStatusFromAPIError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  *model.APIError
		want int
	}{
		{"unauthenticated", model.NewUnauthenticatedError(), http.StatusUnauthorized},
		{"provider not linked", model.NewProviderNotLinkedError("github"), http.StatusNotFound},
		{"invalid request", model.NewInvalidRequestError("uuid is required"), http.StatusBadRequest},
		{"upstream failure", model.NewUpstreamProviderFailureError("facebook"), http.StatusBadGateway},
		{"unknown code", &model.APIError{Code: "SOMETHING_ELSE"}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusFromAPIError(tt.err); got != tt.want {
				t.Errorf("StatusFromAPIError() = %d, want %d", got, tt.want)
			}
		})
	}
}

// TestWriteAPIError_DerivesStatus はWriteAPIErrorがステータスを導出することを検証する。
func TestWriteAPIError_DerivesStatus(t *testing.T) {
	w := httptest.NewRecorder()

	WriteAPIError(w, model.NewUnauthenticatedError())

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// TestWriteInternalServerError_GenericMessage は内部エラーの詳細が
// 露出しないことを検証する。
func TestWriteInternalServerError_GenericMessage(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse body: %v", err)
	}
	if body["message"] != "internal server error" {
		t.Errorf("message = %q", body["message"])
	}
}
