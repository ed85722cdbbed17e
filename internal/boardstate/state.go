// Package boardstate はクライアント側で保持するボードとTodoの状態を管理する。
// サーバーの応答を受け取るたびに一覧を再取得せず、局所的に反映する。
package boardstate

import (
	"strings"

	"github.com/hitoshi/taskflow/internal/client"
)

// Todoのステータス
const (
	StatusTodo       = "todo"
	StatusInProgress = "in-progress"
	StatusDone       = "done"
)

// State はある時点のクライアント状態。
// リデューサーは受け取ったStateを変更せず、新しいStateを返す。
type State struct {
	Boards []client.Board
	Active *client.Board
	Todos  []client.Todo
}

// NextStatus はステータスを todo → in-progress → done → todo の順に進める。
// 未知の値はtodoに戻す。
func NextStatus(status string) string {
	switch status {
	case StatusTodo:
		return StatusInProgress
	case StatusInProgress:
		return StatusDone
	default:
		return StatusTodo
	}
}

// BoardsLoaded はボード一覧を置き換える。
// 選択中のボードが一覧に残っていれば最新の内容に更新し、なければ先頭を選択する。
func BoardsLoaded(s State, boards []client.Board) State {
	next := State{Boards: append([]client.Board(nil), boards...)}
	if s.Active != nil {
		if b, ok := findBoard(next.Boards, s.Active.ID); ok {
			next.Active = &b
			next.Todos = s.Todos
			return next
		}
	}
	if len(next.Boards) > 0 {
		first := next.Boards[0]
		next.Active = &first
	}
	return next
}

// SelectBoard はidのボードを選択する。選択が変わるとTodo一覧は空になる。
// 一覧にないidの場合は状態を変えない。
func SelectBoard(s State, id string) State {
	b, ok := findBoard(s.Boards, id)
	if !ok {
		return s
	}
	if s.Active != nil && s.Active.ID == id {
		s.Active = &b
		return s
	}
	return State{Boards: s.Boards, Active: &b}
}

// BoardCreated は作成されたボードを先頭に追加して選択する。
func BoardCreated(s State, b client.Board) State {
	boards := make([]client.Board, 0, len(s.Boards)+1)
	boards = append(boards, b)
	boards = append(boards, s.Boards...)
	return State{Boards: boards, Active: &b}
}

// BoardUpdated はidが一致するボードを置き換える。選択中であれば選択も更新する。
func BoardUpdated(s State, b client.Board) State {
	boards := make([]client.Board, len(s.Boards))
	for i, existing := range s.Boards {
		if existing.ID == b.ID {
			boards[i] = b
			continue
		}
		boards[i] = existing
	}
	next := State{Boards: boards, Active: s.Active, Todos: s.Todos}
	if s.Active != nil && s.Active.ID == b.ID {
		next.Active = &b
	}
	return next
}

// BoardDeleted はボードを一覧から取り除く。
// 選択中のボードだった場合は残りの先頭を選択し、残りがなければ選択を外す。
func BoardDeleted(s State, id string) State {
	boards := make([]client.Board, 0, len(s.Boards))
	for _, b := range s.Boards {
		if b.ID != id {
			boards = append(boards, b)
		}
	}
	if s.Active == nil || s.Active.ID != id {
		return State{Boards: boards, Active: s.Active, Todos: s.Todos}
	}
	next := State{Boards: boards}
	if len(boards) > 0 {
		first := boards[0]
		next.Active = &first
	}
	return next
}

// TodosLoaded はboardIDのTodo一覧を反映する。
// 応答待ちの間に選択が変わっていた場合は破棄する。
func TodosLoaded(s State, boardID string, todos []client.Todo) State {
	if s.Active == nil || s.Active.ID != boardID {
		return s
	}
	return State{Boards: s.Boards, Active: s.Active, Todos: append([]client.Todo(nil), todos...)}
}

// TodoCreated は作成されたTodoを末尾に追加する。選択中以外のボードのTodoは無視する。
func TodoCreated(s State, t client.Todo) State {
	if s.Active == nil || s.Active.ID != t.BoardID {
		return s
	}
	todos := make([]client.Todo, 0, len(s.Todos)+1)
	todos = append(todos, s.Todos...)
	todos = append(todos, t)
	return State{Boards: s.Boards, Active: s.Active, Todos: todos}
}

// TodoUpdated はidが一致するTodoを置き換える。
func TodoUpdated(s State, t client.Todo) State {
	todos := make([]client.Todo, len(s.Todos))
	for i, existing := range s.Todos {
		if existing.ID == t.ID {
			todos[i] = t
			continue
		}
		todos[i] = existing
	}
	return State{Boards: s.Boards, Active: s.Active, Todos: todos}
}

// TodoDeleted はTodoを一覧から取り除く。
func TodoDeleted(s State, id string) State {
	todos := make([]client.Todo, 0, len(s.Todos))
	for _, t := range s.Todos {
		if t.ID != id {
			todos = append(todos, t)
		}
	}
	return State{Boards: s.Boards, Active: s.Active, Todos: todos}
}

// FilterBoards はタイトルまたは説明に検索語を含むボードを返す。大文字小文字は区別しない。
func FilterBoards(boards []client.Board, query string) []client.Board {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return boards
	}
	var matched []client.Board
	for _, b := range boards {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Description), q) {
			matched = append(matched, b)
		}
	}
	return matched
}

func findBoard(boards []client.Board, id string) (client.Board, bool) {
	for _, b := range boards {
		if b.ID == id {
			return b, true
		}
	}
	return client.Board{}, false
}

func findTodo(todos []client.Todo, id string) (client.Todo, bool) {
	for _, t := range todos {
		if t.ID == id {
			return t, true
		}
	}
	return client.Todo{}, false
}
