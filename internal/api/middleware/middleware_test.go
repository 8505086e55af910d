package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/topalbums/internal/auth"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, GetSubject(c)) })
	r.POST("/ping", func(c *gin.Context) { c.String(http.StatusOK, "posted") })
	return r
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	m := auth.NewJWTManager("0123456789abcdef0123456789abcdef", time.Hour)
	token, _, err := m.GenerateToken("ops")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	r := newEngine(AuthMiddleware(m))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + token, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-token", http.StatusUnauthorized},
		{"valid", "Bearer " + token, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := map[string]string{}
			if tt.header != "" {
				header["Authorization"] = tt.header
			}
			rec := do(r, http.MethodGet, "/ping", header)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusOK && rec.Body.String() != "ops" {
				t.Errorf("subject = %q", rec.Body.String())
			}
		})
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	r := newEngine(AuthMiddleware(nil))
	if rec := do(r, http.MethodGet, "/ping", nil); rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterBurst(t *testing.T) {
	rl := NewRateLimiter(60, 3)
	defer rl.Stop()
	r := newEngine(rl.Middleware())

	for i := 0; i < 3; i++ {
		if rec := do(r, http.MethodGet, "/ping", nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, rec.Code)
		}
	}

	rec := do(r, http.MethodGet, "/ping", nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestRateLimiterPerClient(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	defer rl.Stop()

	if !rl.Allow("10.0.0.1") {
		t.Fatal("first request from 10.0.0.1 rejected")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("second request from 10.0.0.1 allowed")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other client was limited")
	}
}

func TestRateLimiterStop(t *testing.T) {
	rl := NewRateLimiter(60, 1)
	rl.Stop()

	select {
	case <-rl.Done():
	default:
		t.Fatal("cleanup goroutine still running after Stop")
	}

	// a second Stop must not panic or block
	rl.Stop()
}

func TestCORSMiddleware(t *testing.T) {
	r := newEngine(CORSMiddleware([]string{"https://charts.example.com"}))

	rec := do(r, http.MethodGet, "/ping", map[string]string{"Origin": "https://charts.example.com"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://charts.example.com" {
		t.Errorf("allow origin = %q", got)
	}

	rec = do(r, http.MethodGet, "/ping", map[string]string{"Origin": "https://evil.example.com"})
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}

	rec = do(r, http.MethodOptions, "/ping", map[string]string{"Origin": "https://charts.example.com"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rec.Code)
	}
}

func TestLoggerMiddlewarePassesThrough(t *testing.T) {
	r := newEngine(LoggerMiddleware(logger.NewNop()))
	if rec := do(r, http.MethodPost, "/ping", nil); rec.Code != http.StatusOK || rec.Body.String() != "posted" {
		t.Fatalf("status = %d body = %q", rec.Code, rec.Body.String())
	}
}

func TestLoggerMiddlewareRequestID(t *testing.T) {
	r := newEngine(LoggerMiddleware(logger.NewNop()))

	rec := do(r, http.MethodGet, "/ping", nil)
	if id := rec.Header().Get(RequestIDHeader); len(id) != 36 {
		t.Errorf("generated request id = %q", id)
	}

	rec = do(r, http.MethodGet, "/ping", map[string]string{RequestIDHeader: "abc-123"})
	if id := rec.Header().Get(RequestIDHeader); id != "abc-123" {
		t.Errorf("request id = %q, want the incoming one", id)
	}
}
