// Package auth はIDトークンの検証を提供する。
package auth

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Identity は検証済みIDトークンから取り出した呼び出し元の情報。
type Identity struct {
	UID           string // トークンのsubject。所有者IDとして使う
	Email         string
	EmailVerified bool
}

// Verifier はBearerトークンを検証するインターフェース。
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}

// ErrMissingSubject はsubjectが空のトークンを表す。
var ErrMissingSubject = errors.New("token has no subject")

// ErrUnknownKey はトークンのkidに対応する公開鍵が見つからないことを表す。
var ErrUnknownKey = errors.New("signing key not found")

// tokenClaims はIDトークンのクレーム。
type tokenClaims struct {
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	jwt.RegisteredClaims
}

func (c *tokenClaims) identity() (*Identity, error) {
	if c.Subject == "" {
		return nil, ErrMissingSubject
	}
	return &Identity{
		UID:           c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
	}, nil
}

// RejectReason は検証エラーをメトリクスのラベル値に変換する。
func RejectReason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, ErrUnknownKey):
		return "signature"
	case errors.Is(err, jwt.ErrTokenInvalidIssuer), errors.Is(err, jwt.ErrTokenInvalidAudience):
		return "claims"
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	default:
		return "invalid"
	}
}
