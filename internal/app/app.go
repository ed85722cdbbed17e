// Package app はサブコマンドの解析と依存関係の組み立てを行うエントリーポイント。
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/taskflow/internal/auth"
	"github.com/hitoshi/taskflow/internal/config"
	"github.com/hitoshi/taskflow/internal/database"
	"github.com/hitoshi/taskflow/internal/handler"
	"github.com/hitoshi/taskflow/internal/logger"
	"github.com/hitoshi/taskflow/internal/metrics"
	"github.com/hitoshi/taskflow/internal/middleware"
	"github.com/hitoshi/taskflow/internal/worker/orphan"
)

// Version はビルド時に -ldflags "-X github.com/hitoshi/taskflow/internal/app.Version=..." で上書きされる。
var Version = "dev"

// devTokenTTL はtokenサブコマンドで発行するトークンの有効期間。
const devTokenTTL = 24 * time.Hour

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, os.Getenv("LOG_LEVEL"))

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// .envでLOG_LEVELが指定されている場合に備えて再設定する
	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// サーバー設定を必要としないサブコマンドはフル初期化をスキップする
	switch cmd {
	case CommandHealthcheck:
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	case CommandToken:
		return runToken(w, os.Getenv("AUTH_HMAC_SECRET"), args[1:])
	case CommandHabit:
		return runHabit(w, habitsFile(), time.Now(), args[1:])
	case CommandBoards:
		return runBoards(context.Background(), w, boardsEnvFromOS(), args[1:])
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("version", Version),
		slog.String("store_driver", cfg.StoreDriver),
		slog.String("auth_mode", cfg.AuthMode),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// ストアに接続し、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. 検証器（設定誤りは接続前に検出する）
	verifier, err := newVerifier(cfg)
	if err != nil {
		return err
	}

	// 2. ストア接続
	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	// 3. メトリクスとレート制限
	reg, collector := newMetrics()
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitCreate))
	defer rl.Stop()

	// 4. ルーターの構築
	router := buildRouter(cfg, st, verifier, rl, reg, collector)

	// 5. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return serveUntilSignal(server, "API server")
}

// runWorker はワーカーモードで起動する。
// 孤立Todoスイープを定期実行し、/health と /metrics を公開する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	st, err := openStore(context.Background(), cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	reg, collector := newMetrics()
	job := orphan.NewSweepJob(st.todos, slog.Default(), collector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		job.Start(ctx, cfg.OrphanSweepInterval)
	}()

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      workerRouter(st.health, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	err = serveUntilSignal(server, "worker")
	cancel()
	<-done

	slog.Info("worker stopped gracefully")
	return err
}

// workerRouter はワーカープロセスのヘルスチェックとメトリクスのルートを返す。
func workerRouter(checker handler.HealthChecker, gatherer prometheus.Gatherer) http.Handler {
	system := handler.NewSystemHandler(checker, Version)
	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(slog.Default()))
	r.Get("/health", system.Health)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(gatherer))
	r.NotFound(handler.NotFound)
	return r
}

// serveUntilSignal はserverを起動し、SIGINT/SIGTERMまたは起動失敗まで待機する。
func serveUntilSignal(server *http.Server, name string) error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	errCh := make(chan error, 1)
	go func() {
		slog.Info(name+" starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s listen error: %w", name, err)
	case <-stop:
	}

	slog.Info("shutting down " + name + "...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("%s shutdown failed: %w", name, err)
	}

	slog.Info(name + " stopped gracefully")
	return nil
}

// runMigrate はスキーマを最新にする。
// PostgreSQLでは埋め込みマイグレーションを適用し、MongoDBではインデックスを作成する。
func runMigrate(cfg *config.Config) error {
	if cfg.StoreDriver == config.StoreDriverMongo {
		ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
		defer cancel()

		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		defer disconnectMongo(client)

		if err := database.EnsureMongoIndexes(ctx, client.Database(cfg.MongoDatabase)); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("mongodb indexes ensured", slog.String("database", cfg.MongoDatabase))
		return nil
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	version, err := database.RunMigrations(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully", slog.Uint64("version", uint64(version)))
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// runToken はAUTH_HMAC_SECRETで署名した開発用トークンをwに出力する。
// 使い方: taskflow token <uid> [email]
func runToken(w io.Writer, secret string, args []string) error {
	if secret == "" {
		return errors.New("AUTH_HMAC_SECRET is not set")
	}
	if len(args) == 0 || args[0] == "" {
		return errors.New("usage: taskflow token <uid> [email]")
	}

	uid := args[0]
	email := ""
	if len(args) > 1 {
		email = args[1]
	}

	token, err := auth.SignHMAC(secret, uid, email, devTokenTTL)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, token)
	return err
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
