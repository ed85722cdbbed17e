package boardstate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/taskflow/internal/client"
)

// ErrNoActiveBoard はボード未選択のままTodoを操作しようとした場合のエラー。
var ErrNoActiveBoard = errors.New("ボードが選択されていません")

// ErrTodoNotLoaded は状態に存在しないTodoを操作しようとした場合のエラー。
var ErrTodoNotLoaded = errors.New("Todoが読み込まれていません")

// 利用者向け通知メッセージ
const (
	msgLoadBoardsFailed  = "Failed to load boards"
	msgCreateBoardFailed = "Failed to create board"
	msgUpdateBoardFailed = "Failed to update board"
	msgDeleteBoardFailed = "Failed to delete board"
	msgLoadTodosFailed   = "Failed to load tasks"
	msgCreateTodoFailed  = "Failed to create task"
	msgUpdateTodoFailed  = "Failed to update task"
	msgDeleteTodoFailed  = "Failed to delete task"

	msgBoardUpdated = "Board updated successfully!"
	msgBoardDeleted = "Board deleted successfully!"
)

// API はStoreが利用するAPI操作。
type API interface {
	ListBoards(ctx context.Context) ([]client.Board, error)
	CreateBoard(ctx context.Context, in client.BoardInput) (*client.Board, error)
	UpdateBoard(ctx context.Context, id string, in client.BoardInput) (*client.Board, error)
	DeleteBoard(ctx context.Context, id string) error
	ListTodos(ctx context.Context, boardID string) ([]client.Todo, error)
	CreateTodo(ctx context.Context, boardID string, in client.TodoInput) (*client.Todo, error)
	UpdateTodo(ctx context.Context, boardID, id string, in client.TodoInput) (*client.Todo, error)
	DeleteTodo(ctx context.Context, boardID, id string) error
}

// コンパイル時にインターフェースの実装を検証する
var _ API = (*client.Client)(nil)

// Notifier は一時的な利用者向け通知を表示する。
type Notifier interface {
	Success(message string)
	Error(message string, err error)
}

// LogNotifier は通知をログに出力するNotifier。
type LogNotifier struct {
	Logger *slog.Logger
}

// Success は成功通知をInfoで出力する。
func (n LogNotifier) Success(message string) {
	n.logger().Info(message)
}

// Error は失敗通知をWarnで出力する。
func (n LogNotifier) Error(message string, err error) {
	n.logger().Warn(message, slog.String("error", err.Error()))
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// Store はAPI呼び出しの結果をStateに反映する。
// 失敗時は状態を変えずに通知する。再試行は行わない。
type Store struct {
	api      API
	notifier Notifier

	mu    sync.Mutex
	state State
}

// NewStore はStoreの新しいインスタンスを生成する。
func NewStore(api API, notifier Notifier) *Store {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Store{api: api, notifier: notifier}
}

// State は現在の状態を返す。
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) apply(reduce func(State) State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = reduce(s.state)
}

func (s *Store) fail(message string, err error) error {
	s.notifier.Error(message, err)
	return fmt.Errorf("%s: %w", message, err)
}

// LoadBoards はボード一覧を取得し、選択中のボードのTodoも読み込む。
func (s *Store) LoadBoards(ctx context.Context) error {
	boards, err := s.api.ListBoards(ctx)
	if err != nil {
		return s.fail(msgLoadBoardsFailed, err)
	}
	s.apply(func(st State) State { return BoardsLoaded(st, boards) })
	return s.reloadTodos(ctx)
}

// Select はボードを選択し、そのTodoを読み込む。
func (s *Store) Select(ctx context.Context, boardID string) error {
	s.apply(func(st State) State { return SelectBoard(st, boardID) })
	return s.reloadTodos(ctx)
}

func (s *Store) reloadTodos(ctx context.Context) error {
	active := s.State().Active
	if active == nil {
		return nil
	}
	todos, err := s.api.ListTodos(ctx, active.ID)
	if err != nil {
		return s.fail(msgLoadTodosFailed, err)
	}
	s.apply(func(st State) State { return TodosLoaded(st, active.ID, todos) })
	return nil
}

// CreateBoard はボードを作成し、一覧の先頭に追加して選択する。
func (s *Store) CreateBoard(ctx context.Context, in client.BoardInput) (*client.Board, error) {
	b, err := s.api.CreateBoard(ctx, in)
	if err != nil {
		return nil, s.fail(msgCreateBoardFailed, err)
	}
	s.apply(func(st State) State { return BoardCreated(st, *b) })
	return b, nil
}

// UpdateBoard はボードを更新し、一覧と選択を置き換える。
func (s *Store) UpdateBoard(ctx context.Context, id string, in client.BoardInput) (*client.Board, error) {
	b, err := s.api.UpdateBoard(ctx, id, in)
	if err != nil {
		return nil, s.fail(msgUpdateBoardFailed, err)
	}
	s.apply(func(st State) State { return BoardUpdated(st, *b) })
	s.notifier.Success(msgBoardUpdated)
	return b, nil
}

// DeleteBoard はボードを削除する。選択中だった場合は次のボードのTodoを読み込む。
func (s *Store) DeleteBoard(ctx context.Context, id string) error {
	if err := s.api.DeleteBoard(ctx, id); err != nil {
		return s.fail(msgDeleteBoardFailed, err)
	}

	var selectionChanged bool
	s.apply(func(st State) State {
		selectionChanged = st.Active != nil && st.Active.ID == id
		return BoardDeleted(st, id)
	})
	s.notifier.Success(msgBoardDeleted)

	if selectionChanged {
		return s.reloadTodos(ctx)
	}
	return nil
}

// CreateTodo は選択中のボードにTodoを作成し、末尾に追加する。
func (s *Store) CreateTodo(ctx context.Context, in client.TodoInput) (*client.Todo, error) {
	active := s.State().Active
	if active == nil {
		return nil, ErrNoActiveBoard
	}
	t, err := s.api.CreateTodo(ctx, active.ID, in)
	if err != nil {
		return nil, s.fail(msgCreateTodoFailed, err)
	}
	s.apply(func(st State) State { return TodoCreated(st, *t) })
	return t, nil
}

// UpdateTodo は選択中のボードのTodoを更新する。
func (s *Store) UpdateTodo(ctx context.Context, id string, in client.TodoInput) (*client.Todo, error) {
	active := s.State().Active
	if active == nil {
		return nil, ErrNoActiveBoard
	}
	t, err := s.api.UpdateTodo(ctx, active.ID, id, in)
	if err != nil {
		return nil, s.fail(msgUpdateTodoFailed, err)
	}
	s.apply(func(st State) State { return TodoUpdated(st, *t) })
	return t, nil
}

// AdvanceStatus はTodoのステータスを次の段階に進める。
func (s *Store) AdvanceStatus(ctx context.Context, id string) (*client.Todo, error) {
	current, ok := findTodo(s.State().Todos, id)
	if !ok {
		return nil, ErrTodoNotLoaded
	}
	return s.UpdateTodo(ctx, id, client.TodoInput{Status: client.String(NextStatus(current.Status))})
}

// DeleteTodo は選択中のボードのTodoを削除する。
func (s *Store) DeleteTodo(ctx context.Context, id string) error {
	active := s.State().Active
	if active == nil {
		return ErrNoActiveBoard
	}
	if err := s.api.DeleteTodo(ctx, active.ID, id); err != nil {
		return s.fail(msgDeleteTodoFailed, err)
	}
	s.apply(func(st State) State { return TodoDeleted(st, id) })
	return nil
}
