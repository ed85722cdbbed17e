package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/sync/singleflight"
)

const (
	defaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"
	firebaseIssuerPrefix    = "https://securetoken.google.com/"
	defaultCertsTTL         = time.Hour
	maxCertsBodySize        = 1 << 20

	// キャッシュが有効な間、未知のkidによる再取得はこの間隔に1回まで
	minRefreshInterval = 5 * time.Minute
	// キャッシュが期限切れで取得に失敗し続ける場合の再試行間隔
	refreshRetryInterval = 10 * time.Second
)

// FirebaseConfig はFirebase IDトークン検証の設定。
type FirebaseConfig struct {
	ProjectID string

	// テスト用にオーバーライド可能
	CertsURL   string
	HTTPClient *http.Client
}

// FirebaseVerifier はFirebase AuthenticationのIDトークン（RS256）を検証する。
// 公開鍵はGoogleのx509エンドポイントから取得し、Cache-Controlのmax-ageの間キャッシュする。
type FirebaseVerifier struct {
	config FirebaseConfig
	now    func() time.Time

	group singleflight.Group

	mu          sync.RWMutex
	keys        map[string]*rsa.PublicKey
	expiresAt   time.Time
	lastAttempt time.Time
}

// NewFirebaseVerifier はFirebaseVerifierを生成する。
// HTTPClientには security.OutboundGuard.NewSafeClient で生成したクライアントを渡すこと。
func NewFirebaseVerifier(config FirebaseConfig) *FirebaseVerifier {
	if config.CertsURL == "" {
		config.CertsURL = defaultFirebaseCertsURL
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &FirebaseVerifier{
		config: config,
		now:    time.Now,
	}
}

// Verify はトークンの署名、発行者、audience、有効期限を検証する。
func (v *FirebaseVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	claims := &tokenClaims{}
	_, err := jwt.ParseWithClaims(
		rawToken,
		claims,
		func(token *jwt.Token) (any, error) {
			kid, _ := token.Header["kid"].(string)
			if kid == "" {
				return nil, fmt.Errorf("%w: kid header is empty", ErrUnknownKey)
			}
			return v.publicKey(ctx, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(firebaseIssuerPrefix+v.config.ProjectID),
		jwt.WithAudience(v.config.ProjectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to verify firebase token: %w", err)
	}
	return claims.identity()
}

// publicKey はkidに対応する公開鍵を返す。
// キャッシュにないkidは鍵のローテーションとみなして再取得するが、
// 再取得は最小間隔で制限し、同時に発生した再取得は1回にまとめる。
func (v *FirebaseVerifier) publicKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	key, ok, canRefresh := v.lookup(kid)
	if ok {
		return key, nil
	}
	if !canRefresh {
		return nil, fmt.Errorf("%w: kid=%s", ErrUnknownKey, kid)
	}

	_, err, _ := v.group.Do("certs", func() (any, error) {
		// 待機中に他のリクエストが取得を終えていれば再取得しない
		if _, _, canRefresh := v.lookup(kid); !canRefresh {
			return nil, nil
		}
		return nil, v.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	key, ok, _ = v.lookup(kid)
	if !ok {
		return nil, fmt.Errorf("%w: kid=%s", ErrUnknownKey, kid)
	}
	return key, nil
}

// lookup はキャッシュからkidの鍵を探し、見つからない場合に再取得してよいかを返す。
func (v *FirebaseVerifier) lookup(kid string) (key *rsa.PublicKey, ok bool, canRefresh bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()

	now := v.now()
	fresh := now.Before(v.expiresAt)
	if key, ok := v.keys[kid]; ok && fresh {
		return key, true, false
	}

	interval := refreshRetryInterval
	if fresh {
		interval = minRefreshInterval
	}
	return nil, false, v.lastAttempt.IsZero() || now.Sub(v.lastAttempt) >= interval
}

// refresh は公開鍵証明書を取得してキャッシュを置き換える。
func (v *FirebaseVerifier) refresh(ctx context.Context) error {
	v.mu.Lock()
	v.lastAttempt = v.now()
	v.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.config.CertsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create certs request: %w", err)
	}

	resp, err := v.config.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("certs request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxCertsBodySize))
	if err != nil {
		return fmt.Errorf("failed to read certs response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("certs fetch failed with status %d", resp.StatusCode)
	}

	var certs map[string]string
	if err := json.Unmarshal(body, &certs); err != nil {
		return fmt.Errorf("failed to parse certs response: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(certs))
	for kid, certPEM := range certs {
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(certPEM))
		if err != nil {
			slog.Warn("公開鍵証明書の解析に失敗しました",
				slog.String("kid", kid),
				slog.String("error", err.Error()),
			)
			continue
		}
		keys[kid] = key
	}
	if len(keys) == 0 {
		return fmt.Errorf("no usable keys in certs response")
	}

	v.mu.Lock()
	v.keys = keys
	v.expiresAt = v.now().Add(cacheMaxAge(resp.Header.Get("Cache-Control")))
	v.mu.Unlock()

	slog.Info("公開鍵を更新しました", slog.Int("key_count", len(keys)))
	return nil
}

// cacheMaxAge はCache-Controlヘッダーからmax-ageを取り出す。
func cacheMaxAge(header string) time.Duration {
	for _, directive := range strings.Split(header, ",") {
		directive = strings.TrimSpace(directive)
		value, ok := strings.CutPrefix(directive, "max-age=")
		if !ok {
			continue
		}
		seconds, err := strconv.Atoi(value)
		if err != nil || seconds <= 0 {
			break
		}
		return time.Duration(seconds) * time.Second
	}
	return defaultCertsTTL
}

// compile-time interface check
var _ Verifier = (*FirebaseVerifier)(nil)
