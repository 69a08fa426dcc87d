package chi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewRateLimiter_Invalid(t *testing.T) {
	if _, err := NewRateLimiter(0, 1); err == nil {
		t.Error("expected error for zero rps")
	}
	if _, err := NewRateLimiter(1, 0); err == nil {
		t.Error("expected error for zero burst")
	}
}

func TestRateLimiter_PerClient(t *testing.T) {
	l, err := NewRateLimiter(0.001, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !l.Allow("a") || !l.Allow("a") {
		t.Fatal("burst of 2 should pass")
	}
	if l.Allow("a") {
		t.Error("third request should be limited")
	}
	if !l.Allow("b") {
		t.Error("other clients have their own bucket")
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	l, err := NewRateLimiter(0.001, 1)
	if err != nil {
		t.Fatal(err)
	}
	h := l.Middleware(true)(okHandler)

	send := func(path, remote, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = remote
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	if rec := send("/api/v1/schema", "10.0.0.1:1234", ""); rec.Code != http.StatusOK {
		t.Fatalf("first: status = %d", rec.Code)
	}
	rec := send("/api/v1/schema", "10.0.0.1:5678", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second from same IP: status = %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if resp := decodeError(t, rec); resp.Code != CodeRateLimited {
		t.Errorf("code = %q", resp.Code)
	}

	if rec := send("/api/v1/schema", "10.0.0.1:1", "Bearer k1"); rec.Code != http.StatusOK {
		t.Errorf("token client from same IP: status = %d", rec.Code)
	}
	if rec := send("/health", "10.0.0.1:1", ""); rec.Code != http.StatusOK {
		t.Errorf("health must be exempt: status = %d", rec.Code)
	}
}

func TestRateLimiter_NilPassesThrough(t *testing.T) {
	var l *RateLimiter
	h := l.Middleware(false)(okHandler)
	for range 5 {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
}

func TestClientKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:4000"
	if got := clientKey(req, true); got != "ip:192.168.1.5" {
		t.Errorf("clientKey = %q", got)
	}
	req.Header.Set("Authorization", "Bearer abc")
	if got := clientKey(req, true); got != "key:abc" {
		t.Errorf("clientKey = %q", got)
	}
	if got := clientKey(req, false); got != "ip:192.168.1.5" {
		t.Errorf("unverified token must not key the bucket, got %q", got)
	}
}

func TestRouter_RateLimitIgnoresTokensWithoutAuth(t *testing.T) {
	l, err := NewRateLimiter(0.001, 1)
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, RouterConfig{RateLimiter: l})

	codes := make([]int, 0, 3)
	for _, token := range []string{"made-up-1", "made-up-2", "made-up-3"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}

func TestRouter_RateLimitKeysByVerifiedToken(t *testing.T) {
	l, err := NewRateLimiter(0.001, 1)
	if err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, RouterConfig{RateLimiter: l, APIKeys: []string{"k1", "k2"}})

	for _, token := range []string{"k1", "k2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/schema", nil)
		req.RemoteAddr = "10.0.0.9:1000"
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("token %s: status = %d", token, rec.Code)
		}
	}
}
