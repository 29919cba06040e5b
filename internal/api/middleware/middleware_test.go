package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/transdesk/backend/internal/auth"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	h := rl.Handler(okHandler)

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = ip
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := hit("1.1.1.1"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := hit("1.1.1.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if rec := hit("2.2.2.2"); rec.Code != http.StatusOK {
		t.Errorf("other ip status = %d", rec.Code)
	}

	now = now.Add(time.Minute + time.Second)
	if rec := hit("1.1.1.1"); rec.Code != http.StatusOK {
		t.Errorf("after window status = %d", rec.Code)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	h := NewRateLimiter(0, time.Minute).Handler(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	jwtService := auth.NewJWTService("secret", time.Hour)
	token, err := jwtService.GenerateToken(7, "alice")
	if err != nil {
		t.Fatal(err)
	}

	var got *auth.Claims
	h := AuthMiddleware(jwtService)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetClaims(r)
	}))

	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
	}{
		{"none", func(r *http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"garbage", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = nil
			req := httptest.NewRequest("GET", "/", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			if tt.status == http.StatusOK && (got == nil || got.Username != "alice" || got.UserID != 7) {
				t.Errorf("claims = %+v", got)
			}
		})
	}
}

func TestCORSOptionsCredentials(t *testing.T) {
	if CORSOptions(nil).AllowCredentials {
		t.Error("wildcard origin must not allow credentials")
	}
	if !CORSOptions([]string{"https://console.example.com"}).AllowCredentials {
		t.Error("explicit origin should allow credentials")
	}
}

func TestQuietPaths(t *testing.T) {
	tests := []struct {
		method, path string
		want         bool
	}{
		{"GET", "/api/health", true},
		{"GET", "/api/projects/p1/tasks/t1", true},
		{"PUT", "/api/projects/p1/tasks/t1", false},
		{"GET", "/api/projects", false},
	}
	for _, tt := range tests {
		if got := quiet(httptest.NewRequest(tt.method, tt.path, nil)); got != tt.want {
			t.Errorf("quiet(%s %s) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}
