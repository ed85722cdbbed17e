// Package user はユーザー同期のドメインロジックを提供する。
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskflow/internal/model"
	"github.com/hitoshi/taskflow/internal/repository"
)

// URLValidator はアバターURLの静的検証インターフェース。
type URLValidator interface {
	ValidatePublicURL(rawURL string) error
}

// SyncInput はサインイン直後にクライアントから送られるユーザー情報。
type SyncInput struct {
	FirebaseUID   string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
}

// Service はユーザー同期のサービス層。
type Service struct {
	repo      repository.UserRepository
	validator URLValidator
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.UserRepository, validator URLValidator) *Service {
	return &Service{
		repo:      repo,
		validator: validator,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Sync は検証済みのIDトークンのsubjectをキーにユーザーを作成または更新する。
// 新規作成した場合はcreatedにtrueを返す。
func (s *Service) Sync(ctx context.Context, callerUID string, in SyncInput) (*model.User, bool, error) {
	if in.FirebaseUID != "" && in.FirebaseUID != callerUID {
		return nil, false, model.NewValidationError("firebaseUid does not match the authenticated user")
	}

	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, false, model.NewValidationError("Email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, false, model.NewValidationError("Email is invalid")
	}

	photoURL := strings.TrimSpace(in.PhotoURL)
	if photoURL != "" {
		if err := s.validator.ValidatePublicURL(photoURL); err != nil {
			slog.Warn("アバターURLを拒否しました",
				slog.String("firebase_uid", callerUID),
				slog.String("error", err.Error()),
			)
			return nil, false, model.NewValidationError("photoURL must be a public http(s) URL")
		}
	}
	displayName := strings.TrimSpace(in.DisplayName)

	existing, err := s.repo.FindByFirebaseUID(ctx, callerUID)
	if err != nil {
		return nil, false, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}

	now := s.now()

	if existing != nil {
		if err := s.update(ctx, existing, email, displayName, photoURL, in.EmailVerified, now); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}

	u := &model.User{
		ID:            s.newID(),
		FirebaseUID:   callerUID,
		Email:         email,
		DisplayName:   displayName,
		PhotoURL:      photoURL,
		EmailVerified: in.EmailVerified,
		LastLoginAt:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, false, fmt.Errorf("ユーザーの作成に失敗しました: %w", err)
		}

		// 同じUIDの同期が並行して先に作成した場合は更新として扱う
		raced, findErr := s.repo.FindByFirebaseUID(ctx, callerUID)
		if findErr != nil {
			return nil, false, fmt.Errorf("ユーザーの再取得に失敗しました: %w", findErr)
		}
		if raced == nil {
			return nil, false, model.NewEmailAlreadyInUseError()
		}
		if err := s.update(ctx, raced, email, displayName, photoURL, in.EmailVerified, now); err != nil {
			return nil, false, err
		}
		return raced, false, nil
	}

	slog.Info("ユーザーを作成しました",
		slog.String("user_id", u.ID),
		slog.String("firebase_uid", callerUID),
	)
	return u, true, nil
}

// update は既存ユーザーにサインイン時の情報を反映して保存する。
func (s *Service) update(ctx context.Context, u *model.User, email, displayName, photoURL string, emailVerified bool, now time.Time) error {
	u.Email = email
	if displayName != "" {
		u.DisplayName = displayName
	}
	if photoURL != "" {
		u.PhotoURL = photoURL
	}
	// 一度確認済みになったメールアドレスは未確認に戻さない
	u.EmailVerified = u.EmailVerified || emailVerified
	u.LastLoginAt = now
	u.UpdatedAt = now

	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.NewEmailAlreadyInUseError()
		}
		return fmt.Errorf("ユーザーの更新に失敗しました: %w", err)
	}
	return nil
}

// Get は外部IdPのUIDでユーザーを取得する。
// 呼び出し元本人以外のUIDは存在しない場合と同じくUSER_NOT_FOUNDを返す。
func (s *Service) Get(ctx context.Context, callerUID, firebaseUID string) (*model.User, error) {
	if firebaseUID != callerUID {
		return nil, model.NewUserNotFoundError()
	}
	u, err := s.repo.FindByFirebaseUID(ctx, firebaseUID)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if u == nil {
		return nil, model.NewUserNotFoundError()
	}
	return u, nil
}
