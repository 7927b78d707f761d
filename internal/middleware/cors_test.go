package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// CORSヘッダーが付与され、指定オリジンのみが許可されることを検証
func TestCORSMiddleware_SetsHeaders(t *testing.T) {
	mw := NewCORSMiddleware("https://webapp.example.net")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://webapp.example.net" {
		t.Errorf("Allow-Origin = %q, want the configured origin", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
	// トークンヘッダーがプリフライトで許可される
	if got := rec.Header().Get("Access-Control-Allow-Headers"); !strings.Contains(got, AppTokenHeader) {
		t.Errorf("Allow-Headers = %q, should contain %q", got, AppTokenHeader)
	}
}

// OPTIONSプリフライトが204で応答し、ハンドラーに到達しないことを検証
func TestCORSMiddleware_Preflight(t *testing.T) {
	handlerCalled := false
	mw := NewCORSMiddleware("https://webapp.example.net")
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/user/fromtoken", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if handlerCalled {
		t.Error("handler should not be called for preflight")
	}
}
