package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/hitoshi/taskflow/internal/model"
)

func testRateLimiterConfig(generalBurst, createBurst int) RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     1,
		GeneralBurst:    generalBurst,
		CreateRate:      1,
		CreateBurst:     createBurst,
		CleanupInterval: 1 * time.Minute,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// serveAs はユーザーIDを注入したリクエストを処理し、ステータスコードを返す。
func serveAs(handler http.Handler, userID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/boards", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), userID))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

// --- API全般 ---

func TestRateLimitMiddleware_AllowsRequestsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(5, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 5; i++ {
		if w := serveAs(handler, "user-1"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Code, http.StatusOK)
		}
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfter(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	serveAs(handler, "user-retry-after")
	w := serveAs(handler, "user-retry-after")

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}

	retrySeconds, err := strconv.Atoi(w.Header().Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After should be a number, got %q", w.Header().Get("Retry-After"))
	}
	if retrySeconds < 1 {
		t.Errorf("Retry-After = %d, should be at least 1", retrySeconds)
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Error.Code != model.ErrCodeRateLimitExceeded {
		t.Errorf("error.code = %q, want %q", body.Error.Code, model.ErrCodeRateLimitExceeded)
	}
	if body.Error.Category != "system" {
		t.Errorf("error.category = %q, want system", body.Error.Category)
	}
}

func TestRateLimitMiddleware_IsolatesUsers(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(1, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	serveAs(handler, "user-a")
	if w := serveAs(handler, "user-a"); w.Code != http.StatusTooManyRequests {
		t.Errorf("user-a second request: status = %d, want 429", w.Code)
	}
	if w := serveAs(handler, "user-b"); w.Code != http.StatusOK {
		t.Errorf("user-b first request: status = %d, want 200", w.Code)
	}
}

func TestRateLimitMiddleware_NoUserID_Returns401(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(5, 10))
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/boards", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- 作成 ---

func TestCreateRateLimit_Returns429WhenExceeded(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 2))
	defer rl.Stop()

	handler := rl.CreateMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		if w := serveAs(handler, "creator"); w.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want 200", i, w.Code)
		}
	}
	if w := serveAs(handler, "creator"); w.Code != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", w.Code)
	}
}

func TestCreateRateLimit_IndependentFromGeneral(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig(100, 1))
	defer rl.Stop()

	create := rl.CreateMiddleware()(okHandler())
	general := rl.GeneralMiddleware()(okHandler())

	serveAs(create, "user-x")
	if w := serveAs(create, "user-x"); w.Code != http.StatusTooManyRequests {
		t.Errorf("create limit: status = %d, want 429", w.Code)
	}
	if w := serveAs(general, "user-x"); w.Code != http.StatusOK {
		t.Errorf("general limit should be unaffected, status = %d", w.Code)
	}
	if rl.GeneralLimiterCount() != 1 || rl.CreateLimiterCount() != 1 {
		t.Errorf("limiter counts = %d/%d, want 1/1", rl.GeneralLimiterCount(), rl.CreateLimiterCount())
	}
}

// --- クリーンアップ ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	cfg := testRateLimiterConfig(5, 5)
	cfg.CleanupInterval = 50 * time.Millisecond

	rl := NewRateLimiter(cfg)
	defer rl.Stop()

	serveAs(rl.GeneralMiddleware()(okHandler()), "user-cleanup")
	serveAs(rl.CreateMiddleware()(okHandler()), "user-cleanup")

	if rl.GeneralLimiterCount() == 0 || rl.CreateLimiterCount() == 0 {
		t.Fatal("expected limiter entries")
	}

	// TTLはCleanupIntervalの2倍（100ms）
	time.Sleep(250 * time.Millisecond)

	if count := rl.GeneralLimiterCount(); count != 0 {
		t.Errorf("general entries after cleanup = %d, want 0", count)
	}
	if count := rl.CreateLimiterCount(); count != 0 {
		t.Errorf("create entries after cleanup = %d, want 0", count)
	}
}

// --- 設定 ---

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()

	if cfg.GeneralRate != 2.0 {
		t.Errorf("GeneralRate = %f, want 2.0", cfg.GeneralRate)
	}
	if cfg.GeneralBurst != 120 {
		t.Errorf("GeneralBurst = %d, want 120", cfg.GeneralBurst)
	}
	if cfg.CreateRate != 0.5 {
		t.Errorf("CreateRate = %f, want 0.5", cfg.CreateRate)
	}
	if cfg.CreateBurst != 30 {
		t.Errorf("CreateBurst = %d, want 30", cfg.CreateBurst)
	}
}
