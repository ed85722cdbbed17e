package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hitoshi/taskflow/internal/auth"
	"github.com/hitoshi/taskflow/internal/metrics"
	"github.com/hitoshi/taskflow/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger             *slog.Logger
	Verifier           auth.Verifier
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter
	Recorder           metrics.Recorder

	// サービス
	BoardService BoardServiceInterface
	TodoService  TodoServiceInterface
	UserService  UserServiceInterface

	// システム
	HealthChecker  HealthChecker
	MetricsHandler http.Handler
	Version        string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → Recovery → Logging → Metrics → SecurityHeaders → CORS → Identity → RateLimit(General)
//
// /、/health、/metrics は認証の外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Noop{}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware(logger))
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(recorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	// サブルーターにも引き継がれるよう、ルート定義より前に設定する
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	systemHandler := NewSystemHandler(deps.HealthChecker, deps.Version)
	boardHandler := NewBoardHandler(deps.BoardService)
	todoHandler := NewTodoHandler(deps.TodoService)
	userHandler := NewUserHandler(deps.UserService)

	// --- 認証不要のルート ---
	r.Get("/", systemHandler.Root)
	r.Get("/health", systemHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Identity → RateLimit(General)
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewIdentityMiddleware(deps.Verifier, recorder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		createLimit := deps.RateLimiter.CreateMiddleware()

		r.Route("/boards", func(r chi.Router) {
			r.Get("/", boardHandler.ListBoards)
			r.With(createLimit).Post("/", boardHandler.CreateBoard)
			r.Put("/{id}", boardHandler.UpdateBoard)
			r.Delete("/{id}", boardHandler.DeleteBoard)

			r.Get("/{boardId}/todos", todoHandler.ListTodos)
			r.With(createLimit).Post("/{boardId}/todos", todoHandler.CreateTodo)
			r.Put("/{boardId}/todos/{id}", todoHandler.UpdateTodo)
			r.Delete("/{boardId}/todos/{id}", todoHandler.DeleteTodo)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/sync", userHandler.Sync)
			r.Get("/{firebaseUid}", userHandler.GetUser)
		})
	})

	return r
}
