package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// HMACVerifier は共有シークレットで署名されたHS256トークンを検証する。
// IdPを使わないローカル開発用。
type HMACVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewHMACVerifier はHMACVerifierを生成する。
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Verify はトークンの署名と有効期限を検証する。
func (v *HMACVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(
		rawToken,
		claims,
		func(token *jwt.Token) (any, error) {
			return v.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify hmac token: %w", err)
	}
	return claims.identity()
}

// SignHMAC はローカル開発用のHS256トークンを発行する。
func SignHMAC(secret, uid, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// compile-time interface check
var _ Verifier = (*HMACVerifier)(nil)
