package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/taskflow/internal/model"
)

const todoColumns = `id, board_id, title, description, status, priority, due_date, created_at, updated_at`

// PostgresTodoRepo はPostgreSQLを使用したTodoリポジトリ。
type PostgresTodoRepo struct {
	db *sql.DB
}

// NewPostgresTodoRepo はPostgresTodoRepoを生成する。
func NewPostgresTodoRepo(db *sql.DB) *PostgresTodoRepo {
	return &PostgresTodoRepo{db: db}
}

func scanTodo(s rowScanner) (*model.Todo, error) {
	t := &model.Todo{}
	var status, priority string
	var dueDate sql.NullTime
	if err := s.Scan(
		&t.ID, &t.BoardID, &t.Title, &t.Description, &status, &priority,
		&dueDate, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	t.Status = model.TodoStatus(status)
	t.Priority = model.TodoPriority(priority)
	t.DueDate = nullTimePtr(dueDate)
	return t, nil
}

// ListByBoard はボード配下のTodoを作成日時の昇順で返す。
func (r *PostgresTodoRepo) ListByBoard(ctx context.Context, boardID string) ([]*model.Todo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE board_id = $1 ORDER BY created_at ASC, id ASC`,
		boardID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}
	return todos, nil
}

// Create はTodoを作成する。
func (r *PostgresTodoRepo) Create(ctx context.Context, todo *model.Todo) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO todos (`+todoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		todo.ID, todo.BoardID, todo.Title, todo.Description, string(todo.Status), string(todo.Priority),
		todo.DueDate, todo.CreatedAt, todo.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert todo: %w", err)
	}
	return nil
}

// FindByID は指定IDのTodoを取得する。見つからない場合はnilを返す。
func (r *PostgresTodoRepo) FindByID(ctx context.Context, id string) (*model.Todo, error) {
	t, err := scanTodo(r.db.QueryRowContext(ctx,
		`SELECT `+todoColumns+` FROM todos WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find todo: %w", err)
	}
	return t, nil
}

// Update は指定されたフィールドのみをSETするUPDATE文を組み立てて実行する。
func (r *PostgresTodoRepo) Update(ctx context.Context, id string, patch model.TodoPatch, updatedAt time.Time) (*model.Todo, error) {
	args := []any{id, updatedAt}
	sets := []string{"updated_at = $2"}
	set := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.Status != nil {
		set("status", string(*patch.Status))
	}
	if patch.Priority != nil {
		set("priority", string(*patch.Priority))
	}
	if patch.DueDateSet {
		set("due_date", patch.DueDate)
	}

	query := `UPDATE todos SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + todoColumns

	t, err := scanTodo(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return t, nil
}

// Delete は指定IDのTodoを削除する。
func (r *PostgresTodoRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM todos WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete todo: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// DeleteOrphans は親ボードが存在しないTodoを削除する。
// 外部キー制約があるため通常は0件になる。
func (r *PostgresTodoRepo) DeleteOrphans(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM todos t WHERE NOT EXISTS (SELECT 1 FROM boards b WHERE b.id = t.board_id)`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan todos: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// compile-time interface check
var _ TodoRepository = (*PostgresTodoRepo)(nil)
