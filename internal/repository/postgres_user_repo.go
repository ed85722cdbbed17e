package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/taskflow/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByFirebaseUID は外部IdPのUIDでユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, firebase_uid, email, display_name, photo_url, email_verified,
		        last_login_at, created_at, updated_at
		 FROM users WHERE firebase_uid = $1`,
		firebaseUID,
	).Scan(
		&user.ID, &user.FirebaseUID, &user.Email, &user.DisplayName, &user.PhotoURL,
		&user.EmailVerified, &user.LastLoginAt, &user.CreatedAt, &user.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by firebase uid: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, firebase_uid, email, display_name, photo_url, email_verified,
		                    last_login_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		user.ID, user.FirebaseUID, user.Email, user.DisplayName, user.PhotoURL,
		user.EmailVerified, user.LastLoginAt, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", translatePQError(err))
	}
	return nil
}

// Update はユーザーの可変フィールドを上書きする。
func (r *PostgresUserRepo) Update(ctx context.Context, user *model.User) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET email = $2, display_name = $3, photo_url = $4, email_verified = $5,
		     last_login_at = $6, updated_at = $7
		 WHERE id = $1`,
		user.ID, user.Email, user.DisplayName, user.PhotoURL, user.EmailVerified,
		user.LastLoginAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", translatePQError(err))
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("user not found: %s", user.ID)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
