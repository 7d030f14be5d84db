package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/propscrape/config"
	"github.com/use-agent/propscrape/validator"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:    config.ServerConfig{Mode: gin.TestMode},
		Auth:      config.AuthConfig{Enabled: true, APIKeys: []string{"k-123"}},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2},
		Batch:     config.BatchConfig{MaxURLs: 10},
	}
}

func send(r http.Handler, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(`{"url":"https://www.property24.com/for-sale/a/b/c/1/114567890"}`))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_Auth(t *testing.T) {
	r := NewRouter(testConfig(), Services{Validation: validator.DefaultOptions()}, time.Now())

	tests := []struct {
		name    string
		method  string
		path    string
		headers map[string]string
		want    int
	}{
		{"health is public", http.MethodGet, "/api/v1/health", nil, http.StatusOK},
		{"missing key", http.MethodPost, "/api/v1/urls/check", nil, http.StatusUnauthorized},
		{"wrong key", http.MethodPost, "/api/v1/urls/check", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"x-api-key", http.MethodPost, "/api/v1/urls/check", map[string]string{"X-API-Key": "k-123"}, http.StatusOK},
		{"bearer", http.MethodPost, "/api/v1/urls/check", map[string]string{"Authorization": "Bearer k-123"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if w := send(r, tt.method, tt.path, tt.headers); w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestRouter_RateLimit(t *testing.T) {
	r := NewRouter(testConfig(), Services{}, time.Now())
	key := map[string]string{"X-API-Key": "k-123"}

	for i := 0; i < 2; i++ {
		if w := send(r, http.MethodPost, "/api/v1/urls/check", key); w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
	w := send(r, http.MethodPost, "/api/v1/urls/check", key)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
	if !strings.Contains(w.Body.String(), `"RATE_LIMITED"`) {
		t.Errorf("body = %s", w.Body.String())
	}
}
