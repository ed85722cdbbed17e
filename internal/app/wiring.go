package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/hitoshi/taskflow/internal/auth"
	"github.com/hitoshi/taskflow/internal/board"
	"github.com/hitoshi/taskflow/internal/config"
	"github.com/hitoshi/taskflow/internal/database"
	"github.com/hitoshi/taskflow/internal/handler"
	"github.com/hitoshi/taskflow/internal/metrics"
	"github.com/hitoshi/taskflow/internal/middleware"
	"github.com/hitoshi/taskflow/internal/repository"
	"github.com/hitoshi/taskflow/internal/security"
	"github.com/hitoshi/taskflow/internal/todo"
	"github.com/hitoshi/taskflow/internal/user"
)

// startupTimeout はストア接続やインデックス作成のタイムアウト。
const startupTimeout = 15 * time.Second

// store は選択されたドライバのリポジトリとヘルスチェックをまとめたもの。
type store struct {
	boards repository.BoardRepository
	todos  repository.TodoRepository
	users  repository.UserRepository
	health handler.HealthChecker
	close  func()
}

// newPostgresStore は*sql.DB上のリポジトリを構築する。
func newPostgresStore(db *sql.DB) *store {
	return &store{
		boards: repository.NewPostgresBoardRepo(db),
		todos:  repository.NewPostgresTodoRepo(db),
		users:  repository.NewPostgresUserRepo(db),
		health: db,
		close:  func() { db.Close() },
	}
}

// mongoDisconnecter は*mongo.Clientの切断操作。
type mongoDisconnecter interface {
	Disconnect(ctx context.Context) error
}

// disconnectMongo はタイムアウト付きで切断し、失敗した場合は警告を記録する。
func disconnectMongo(client mongoDisconnecter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		slog.Warn("MongoDBの切断に失敗しました", slog.String("error", err.Error()))
	}
}

// newMongoStore は*mongo.Database上のリポジトリを構築する。
func newMongoStore(client *mongo.Client, db *mongo.Database) *store {
	return &store{
		boards: repository.NewMongoBoardRepo(db),
		todos:  repository.NewMongoTodoRepo(db),
		users:  repository.NewMongoUserRepo(db),
		health: database.MongoPinger{Client: client},
		close:  func() { disconnectMongo(client) },
	}
}

// openStore は設定されたドライバでストアに接続する。
// 到達できない場合はエラーを返す。
func openStore(ctx context.Context, cfg *config.Config) (*store, error) {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := database.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.MongoDatabase)
		if err := database.EnsureMongoIndexes(ctx, db); err != nil {
			disconnectMongo(client)
			return nil, err
		}
		slog.Info("mongodb connection established", slog.String("database", cfg.MongoDatabase))
		return newMongoStore(client, db), nil
	default:
		db, err := database.Connect(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		slog.Info("database connection established")
		return newPostgresStore(db), nil
	}
}

// newVerifier はAUTH_MODEに応じたIDトークン検証器を返す。
func newVerifier(cfg *config.Config) (auth.Verifier, error) {
	switch cfg.AuthMode {
	case config.AuthModeFirebase:
		return auth.NewFirebaseVerifier(auth.FirebaseConfig{
			ProjectID:  cfg.FirebaseProjectID,
			CertsURL:   cfg.FirebaseCertsURL,
			HTTPClient: security.NewOutboundGuard().NewSafeClient(10 * time.Second),
		}), nil
	case config.AuthModeHMAC:
		slog.Warn("HS256の開発用トークン検証で起動しています。本番環境では使用しないでください")
		return auth.NewHMACVerifier(cfg.AuthHMACSecret), nil
	default:
		return nil, fmt.Errorf("unsupported auth mode: %s", cfg.AuthMode)
	}
}

// newMetrics はプロセス用のレジストリとCollectorを生成する。
func newMetrics() (*prometheus.Registry, *metrics.Collector) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg, metrics.NewCollector(reg)
}

// buildRouter はサービスを組み立ててルーターを返す。
func buildRouter(cfg *config.Config, st *store, verifier auth.Verifier, rl *middleware.RateLimiter, reg *prometheus.Registry, recorder metrics.Recorder) http.Handler {
	sanitizer := security.NewTextSanitizer()

	boardService := board.NewService(st.boards, sanitizer, recorder)
	todoService := todo.NewService(st.todos, boardService, sanitizer, recorder)
	userService := user.NewService(st.users, security.NewOutboundGuard())

	return handler.NewRouter(&handler.RouterDeps{
		Logger:             slog.Default(),
		Verifier:           verifier,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimiter:        rl,
		Recorder:           recorder,

		BoardService: boardService,
		TodoService:  todoService,
		UserService:  userService,

		HealthChecker:  st.health,
		MetricsHandler: metrics.Handler(reg),
		Version:        Version,
	})
}
