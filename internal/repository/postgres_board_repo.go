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

const boardColumns = `id, title, description, owner_id, created_at, updated_at`

// PostgresBoardRepo はPostgreSQLを使用したボードリポジトリ。
type PostgresBoardRepo struct {
	db *sql.DB
}

// NewPostgresBoardRepo はPostgresBoardRepoを生成する。
func NewPostgresBoardRepo(db *sql.DB) *PostgresBoardRepo {
	return &PostgresBoardRepo{db: db}
}

func scanBoard(s rowScanner) (*model.Board, error) {
	b := &model.Board{}
	if err := s.Scan(&b.ID, &b.Title, &b.Description, &b.OwnerID, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return b, nil
}

// ListByOwner は所有者のボードを作成日時の降順で返す。
func (r *PostgresBoardRepo) ListByOwner(ctx context.Context, ownerID string) ([]*model.Board, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE owner_id = $1 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	boards := make([]*model.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate boards: %w", err)
	}
	return boards, nil
}

// Create はボードを作成する。
func (r *PostgresBoardRepo) Create(ctx context.Context, board *model.Board) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO boards (`+boardColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		board.ID, board.Title, board.Description, board.OwnerID, board.CreatedAt, board.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}
	return nil
}

// FindByIDAndOwner はIDと所有者が一致するボードを返す。
func (r *PostgresBoardRepo) FindByIDAndOwner(ctx context.Context, id, ownerID string) (*model.Board, error) {
	b, err := scanBoard(r.db.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find board: %w", err)
	}
	return b, nil
}

// UpdateByIDAndOwner は1回のUPDATE ... RETURNINGで所有者確認と更新を行う。
func (r *PostgresBoardRepo) UpdateByIDAndOwner(ctx context.Context, id, ownerID string, patch model.BoardPatch, updatedAt time.Time) (*model.Board, error) {
	sets := []string{"updated_at = $3"}
	args := []any{id, ownerID, updatedAt}
	if patch.Title != nil {
		args = append(args, *patch.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("description = $%d", len(args)))
	}

	query := `UPDATE boards SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 AND owner_id = $2 RETURNING ` + boardColumns

	b, err := scanBoard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return b, nil
}

// DeleteWithTodos はボードと配下のTodoを同一トランザクションで削除する。
// todos.board_idのON DELETE CASCADEに頼らず明示的に削除する。
func (r *PostgresBoardRepo) DeleteWithTodos(ctx context.Context, id, ownerID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID string
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM boards WHERE id = $1 AND owner_id = $2 FOR UPDATE`,
		id, ownerID,
	).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to lock board: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM todos WHERE board_id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete todos of board: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id); err != nil {
		return false, fmt.Errorf("failed to delete board: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return true, nil
}

// compile-time interface check
var _ BoardRepository = (*PostgresBoardRepo)(nil)
