// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ストアドライバ
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMongo    = "mongo"
)

// 認証モード
const (
	AuthModeFirebase = "firebase"
	AuthModeHMAC     = "hmac"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	// Auth
	AuthMode          string
	FirebaseProjectID string
	FirebaseCertsURL  string // 空の場合は検証器の既定URLを使う
	AuthHMACSecret    string

	// Rate Limit（1分あたり・ユーザーごと）
	RateLimitGeneral int
	RateLimitCreate  int

	// Worker
	OrphanSweepInterval time.Duration

	// Logging
	LogLevel string

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigins []string
}

// Load は環境変数からConfigを読み込む。
// カレントディレクトリに.envがあれば先に読み込む。既に設定済みの環境変数は上書きしない。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	// .envがないのは正常
	_ = godotenv.Load()

	cfg := &Config{
		StoreDriver:         strings.ToLower(getEnvString("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		MongoURI:            os.Getenv("MONGO_URI"),
		MongoDatabase:       getEnvString("MONGO_DATABASE", "taskflow"),
		AuthMode:            strings.ToLower(getEnvString("AUTH_MODE", AuthModeFirebase)),
		FirebaseProjectID:   os.Getenv("FIREBASE_PROJECT_ID"),
		FirebaseCertsURL:    os.Getenv("FIREBASE_CERTS_URL"),
		AuthHMACSecret:      os.Getenv("AUTH_HMAC_SECRET"),
		RateLimitGeneral:    getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitCreate:     getEnvInt("RATE_LIMIT_CREATE", 30),
		OrphanSweepInterval: getEnvDuration("ORPHAN_SWEEP_INTERVAL", time.Hour),
		LogLevel:            getEnvString("LOG_LEVEL", "info"),
		ServerPort:          getEnvString("SERVER_PORT", "8080"),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"}),
	}

	// Required fields
	var missing []string

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case StoreDriverMongo:
		if cfg.MongoURI == "" {
			missing = append(missing, "MONGO_URI")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q (want %q or %q)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMongo)
	}

	switch cfg.AuthMode {
	case AuthModeFirebase:
		if cfg.FirebaseProjectID == "" {
			missing = append(missing, "FIREBASE_PROJECT_ID")
		}
	case AuthModeHMAC:
		if cfg.AuthHMACSecret == "" {
			missing = append(missing, "AUTH_HMAC_SECRET")
		}
	default:
		return nil, fmt.Errorf("unsupported AUTH_MODE %q (want %q or %q)", cfg.AuthMode, AuthModeFirebase, AuthModeHMAC)
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// getEnvList はカンマ区切りの値を空要素を除いて返す。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
