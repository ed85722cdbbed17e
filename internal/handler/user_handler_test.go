package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/taskflow/internal/model"
	"github.com/hitoshi/taskflow/internal/user"
)

type mockUserService struct {
	syncFn func(ctx context.Context, callerUID string, in user.SyncInput) (*model.User, bool, error)
	getFn  func(ctx context.Context, callerUID, firebaseUID string) (*model.User, error)
}

func (m *mockUserService) Sync(ctx context.Context, callerUID string, in user.SyncInput) (*model.User, bool, error) {
	return m.syncFn(ctx, callerUID, in)
}
func (m *mockUserService) Get(ctx context.Context, callerUID, firebaseUID string) (*model.User, error) {
	return m.getFn(ctx, callerUID, firebaseUID)
}

func TestSync_CreatedAndUpdated(t *testing.T) {
	tests := []struct {
		name        string
		created     bool
		wantStatus  int
		wantMessage string
	}{
		{"new user", true, http.StatusCreated, "User created successfully"},
		{"existing user", false, http.StatusOK, "User updated successfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(&mockUserService{
				syncFn: func(ctx context.Context, callerUID string, in user.SyncInput) (*model.User, bool, error) {
					if callerUID != "uid-1" || in.FirebaseUID != "uid-1" {
						t.Errorf("callerUID, FirebaseUID = %q, %q", callerUID, in.FirebaseUID)
					}
					if !in.EmailVerified {
						t.Error("EmailVerified = false, want true")
					}
					return &model.User{ID: "u1", FirebaseUID: in.FirebaseUID, Email: in.Email, CreatedAt: testTime}, tt.created, nil
				},
			})

			body := strings.NewReader(`{"firebaseUid":"uid-1","email":"a@example.com","emailVerified":true}`)
			req := withUserID(httptest.NewRequest(http.MethodPost, "/api/users/sync", body), "uid-1")
			w := httptest.NewRecorder()
			h.Sync(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			env := decodeEnvelope(t, w)
			if env.Message != tt.wantMessage {
				t.Errorf("message = %q, want %q", env.Message, tt.wantMessage)
			}
			if !strings.Contains(string(env.Data), `"firebaseUid":"uid-1"`) {
				t.Errorf("data = %s", env.Data)
			}
		})
	}
}

func TestSync_EmailConflict_Returns409(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		syncFn: func(ctx context.Context, callerUID string, in user.SyncInput) (*model.User, bool, error) {
			return nil, false, model.NewEmailAlreadyInUseError()
		},
	})

	body := strings.NewReader(`{"firebaseUid":"uid-1","email":"taken@example.com"}`)
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/users/sync", body), "uid-1")
	w := httptest.NewRecorder()
	h.Sync(w, req)

	assertErrorCode(t, w, http.StatusConflict, model.ErrCodeEmailAlreadyInUse)
}

func TestGetUser_OtherUID_Returns404(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		getFn: func(ctx context.Context, callerUID, firebaseUID string) (*model.User, error) {
			if firebaseUID != "uid-2" {
				t.Errorf("firebaseUID = %q, want uid-2", firebaseUID)
			}
			return nil, model.NewUserNotFoundError()
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/uid-2", nil)
	req = withUserID(withChiURLParams(req, "firebaseUid", "uid-2"), "uid-1")
	w := httptest.NewRecorder()
	h.GetUser(w, req)

	assertErrorCode(t, w, http.StatusNotFound, model.ErrCodeUserNotFound)
}

func TestGetUser_Self(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		getFn: func(ctx context.Context, callerUID, firebaseUID string) (*model.User, error) {
			return &model.User{ID: "u1", FirebaseUID: firebaseUID, Email: "a@example.com"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users/uid-1", nil)
	req = withUserID(withChiURLParams(req, "firebaseUid", "uid-1"), "uid-1")
	w := httptest.NewRecorder()
	h.GetUser(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
