package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskflow/internal/model"
	"github.com/hitoshi/taskflow/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// Sync はユーザーを作成または更新する。新規作成時はcreatedがtrueになる。
	Sync(ctx context.Context, callerUID string, in user.SyncInput) (u *model.User, created bool, err error)
	// Get は呼び出し元本人のユーザー情報を返す。
	Get(ctx context.Context, callerUID, firebaseUID string) (*model.User, error)
}

// UserHandler はユーザー同期のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// userResponse はユーザーのAPIレスポンス。
type userResponse struct {
	ID            string    `json:"id"`
	FirebaseUID   string    `json:"firebaseUid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName"`
	PhotoURL      string    `json:"photoURL"`
	EmailVerified bool      `json:"emailVerified"`
	LastLoginAt   time.Time `json:"lastLoginAt"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:            u.ID,
		FirebaseUID:   u.FirebaseUID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		LastLoginAt:   u.LastLoginAt,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// syncRequest はユーザー同期リクエストのボディ。
type syncRequest struct {
	FirebaseUID   string `json:"firebaseUid"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoURL"`
	EmailVerified bool   `json:"emailVerified"`
}

// Sync はサインイン直後のユーザー情報を同期する。
// POST /api/users/sync
func (h *UserHandler) Sync(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req syncRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, created, err := h.service.Sync(r.Context(), userID, user.SyncInput{
		FirebaseUID:   req.FirebaseUID,
		Email:         req.Email,
		DisplayName:   req.DisplayName,
		PhotoURL:      req.PhotoURL,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if created {
		writeJSON(w, http.StatusCreated, envelope{
			Success: true,
			Message: "User created successfully",
			Data:    toUserResponse(u),
		})
		return
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Message: "User updated successfully",
		Data:    toUserResponse(u),
	})
}

// GetUser は外部IdPのUIDでユーザーを取得する。
// GET /api/users/{firebaseUid}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), userID, chi.URLParam(r, "firebaseUid"))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toUserResponse(u))
}
