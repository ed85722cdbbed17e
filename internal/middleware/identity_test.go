package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/taskflow/internal/auth"
	"github.com/hitoshi/taskflow/internal/metrics"
)

// mockVerifier は固定トークンのみを受け付けるVerifier。
type mockVerifier struct {
	validToken string
	uid        string
	err        error
}

func (m *mockVerifier) Verify(ctx context.Context, rawToken string) (*auth.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	if rawToken != m.validToken {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return &auth.Identity{UID: m.uid}, nil
}

type rejectRecorder struct {
	metrics.Noop
	reasons []string
}

func (r *rejectRecorder) RecordTokenRejected(reason string) {
	r.reasons = append(r.reasons, reason)
}

func TestIdentityMiddleware_ValidToken_InjectsUserID(t *testing.T) {
	mw := NewIdentityMiddleware(&mockVerifier{validToken: "good", uid: "uid-1"}, nil)

	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext failed: %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "uid-1" {
		t.Errorf("user ID = %q, want %q", gotUserID, "uid-1")
	}
}

func TestIdentityMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name          string
		authorization string
		verifierErr   error
		reason        string
	}{
		{"no header", "", nil, "missing"},
		{"wrong scheme", "Basic dXNlcjpwYXNz", nil, "missing"},
		{"empty bearer", "Bearer   ", nil, "missing"},
		{"bad signature", "Bearer forged", nil, "signature"},
		{"expired", "Bearer good", jwt.ErrTokenExpired, "expired"},
		{"no subject", "Bearer good", auth.ErrMissingSubject, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &rejectRecorder{}
			mw := NewIdentityMiddleware(&mockVerifier{validToken: "good", uid: "uid-1", err: tt.verifierErr}, rec)

			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
			if tt.authorization != "" {
				req.Header.Set("Authorization", tt.authorization)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Success || body.Error.Code != "UNAUTHORIZED" {
				t.Errorf("body = %+v", body)
			}
			if len(rec.reasons) != 1 || rec.reasons[0] != tt.reason {
				t.Errorf("reasons = %v, want [%s]", rec.reasons, tt.reason)
			}
		})
	}
}

func TestIdentityMiddleware_CaseInsensitiveScheme(t *testing.T) {
	mw := NewIdentityMiddleware(&mockVerifier{validToken: "good", uid: "uid-1"}, nil)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/boards", nil)
	req.Header.Set("Authorization", "bearer good")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestUserIDFromContext_NoValue_ReturnsError(t *testing.T) {
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}

func TestContextWithUserID_RoundTrip(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "uid-9")
	got, err := UserIDFromContext(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "uid-9" {
		t.Errorf("user ID = %q, want %q", got, "uid-9")
	}
}

