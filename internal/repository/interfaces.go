// Package repository はデータ永続化のインターフェースと、PostgreSQL/MongoDBによる実装を提供する。
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hitoshi/taskflow/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// usersのfirebase_uid、emailの重複で返される。
var ErrDuplicate = errors.New("duplicate key")

// ErrCascadeIncomplete はボードの削除には成功したが、配下のTodoの削除に失敗したことを表す。
// 残ったTodoは孤児スイープで回収される。
var ErrCascadeIncomplete = errors.New("board deleted but child todos remain")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByFirebaseUID は外部IdPのUIDでユーザーを取得する。見つからない場合はnilを返す。
	FindByFirebaseUID(ctx context.Context, firebaseUID string) (*model.User, error)

	// Create はユーザーを作成する。一意制約違反の場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// Update はIDで指定したユーザーの可変フィールドを上書きする。
	// 一意制約違反の場合はErrDuplicateを返す。
	Update(ctx context.Context, user *model.User) error
}

// BoardRepository はボードデータの永続化インターフェース。
// 更新・削除は常にIDと所有者IDの両方で絞り込む。
type BoardRepository interface {
	// ListByOwner は所有者のボードを作成日時の降順で返す。
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Board, error)

	// Create はボードを作成する。
	Create(ctx context.Context, board *model.Board) error

	// FindByIDAndOwner はIDと所有者が一致するボードを返す。見つからない場合はnilを返す。
	FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Board, error)

	// UpdateByIDAndOwner はIDと所有者が一致するボードにパッチを適用し、更新後のボードを返す。
	// 一致するボードがない場合はnilを返す。
	UpdateByIDAndOwner(ctx context.Context, id, ownerID string, patch model.BoardPatch, updatedAt time.Time) (*model.Board, error)

	// DeleteWithTodos はIDと所有者が一致するボードと配下のTodoを削除する。
	// 一致するボードがない場合はfalseを返す。
	DeleteWithTodos(ctx context.Context, id, ownerID string) (bool, error)
}

// TodoRepository はTodoデータの永続化インターフェース。
type TodoRepository interface {
	// ListByBoard はボード配下のTodoを作成日時の昇順で返す。
	ListByBoard(ctx context.Context, boardID string) ([]*model.Todo, error)

	// Create はTodoを作成する。
	Create(ctx context.Context, todo *model.Todo) error

	// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Todo, error)

	// Update はTodoにパッチを適用し、更新後のTodoを返す。見つからない場合はnilを返す。
	Update(ctx context.Context, id string, patch model.TodoPatch, updatedAt time.Time) (*model.Todo, error)

	// Delete は指定IDのTodoを削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, id string) (bool, error)

	// DeleteOrphans は親ボードが存在しないTodoを削除し、削除件数を返す。
	DeleteOrphans(ctx context.Context) (int64, error)
}
