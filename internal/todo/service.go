// Package todo はボード配下のTodo管理のドメインロジックを提供する。
package todo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskflow/internal/metrics"
	"github.com/hitoshi/taskflow/internal/model"
	"github.com/hitoshi/taskflow/internal/repository"
	"github.com/hitoshi/taskflow/internal/security"
)

// BoardFinder は親ボードの所有者確認に使うインターフェース。
// 見つからない場合や所有者が異なる場合はBOARD_NOT_FOUNDのAPIErrorを返すこと。
type BoardFinder interface {
	FindOwned(ctx context.Context, boardID, ownerID string) (*model.Board, error)
}

// CreateInput はTodo作成の入力値。nilのフィールドは既定値になる。
type CreateInput struct {
	Title       string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *time.Time
}

// UpdateInput はTodo更新の入力値。
// DueDateSetがfalseの場合は期限を変更せず、trueかつDueDateがnilの場合は期限を解除する。
type UpdateInput struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDateSet  bool
	DueDate     *time.Time
}

// Service はTodo管理のサービス層。
type Service struct {
	repo      repository.TodoRepository
	boards    BoardFinder
	sanitizer security.TextSanitizer
	recorder  metrics.Recorder
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	repo repository.TodoRepository,
	boards BoardFinder,
	sanitizer security.TextSanitizer,
	recorder metrics.Recorder,
) *Service {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Service{
		repo:      repo,
		boards:    boards,
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// List はボード配下のTodoを作成順に返す。
func (s *Service) List(ctx context.Context, boardID, ownerID string) ([]*model.Todo, error) {
	if _, err := s.boards.FindOwned(ctx, boardID, ownerID); err != nil {
		return nil, err
	}
	todos, err := s.repo.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, fmt.Errorf("Todo一覧の取得に失敗しました: %w", err)
	}
	return todos, nil
}

// Create はボード配下にTodoを作成する。
func (s *Service) Create(ctx context.Context, boardID, ownerID string, in CreateInput) (*model.Todo, error) {
	if _, err := s.boards.FindOwned(ctx, boardID, ownerID); err != nil {
		return nil, err
	}

	title, err := s.cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}

	t := &model.Todo{
		BoardID:  boardID,
		Title:    title,
		Status:   model.TodoStatusTodo,
		Priority: model.TodoPriorityMedium,
		DueDate:  in.DueDate,
	}
	if in.Description != nil {
		if t.Description, err = s.cleanDescription(*in.Description); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if t.Status, err = parseStatus(*in.Status); err != nil {
			return nil, err
		}
	}
	if in.Priority != nil {
		if t.Priority, err = parsePriority(*in.Priority); err != nil {
			return nil, err
		}
	}

	now := s.now()
	t.ID = s.newID()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("Todoの作成に失敗しました: %w", err)
	}
	s.recorder.RecordTodoCreated()

	slog.Info("Todoを作成しました",
		slog.String("todo_id", t.ID),
		slog.String("board_id", boardID),
	)
	return t, nil
}

// Update はTodoを部分更新する。
// Todoが存在しない場合と、パスのボードIDとTodoの所属ボードが異なる場合はTODO_NOT_FOUNDを返す。
func (s *Service) Update(ctx context.Context, boardID, todoID, ownerID string, in UpdateInput) (*model.Todo, error) {
	if _, err := s.boards.FindOwned(ctx, boardID, ownerID); err != nil {
		return nil, err
	}

	patch, err := s.buildPatch(in)
	if err != nil {
		return nil, err
	}

	if err := s.ensureInBoard(ctx, boardID, todoID); err != nil {
		return nil, err
	}

	t, err := s.repo.Update(ctx, todoID, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("Todoの更新に失敗しました: %w", err)
	}
	if t == nil {
		return nil, model.NewTodoNotFoundError()
	}
	return t, nil
}

// Delete はTodoを削除する。
func (s *Service) Delete(ctx context.Context, boardID, todoID, ownerID string) error {
	if _, err := s.boards.FindOwned(ctx, boardID, ownerID); err != nil {
		return err
	}
	if err := s.ensureInBoard(ctx, boardID, todoID); err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, todoID)
	if err != nil {
		return fmt.Errorf("Todoの削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewTodoNotFoundError()
	}

	slog.Info("Todoを削除しました",
		slog.String("todo_id", todoID),
		slog.String("board_id", boardID),
	)
	return nil
}

func (s *Service) ensureInBoard(ctx context.Context, boardID, todoID string) error {
	if _, err := uuid.Parse(todoID); err != nil {
		return model.NewTodoNotFoundError()
	}
	t, err := s.repo.FindByID(ctx, todoID)
	if err != nil {
		return fmt.Errorf("Todoの取得に失敗しました: %w", err)
	}
	if t == nil || t.BoardID != boardID {
		return model.NewTodoNotFoundError()
	}
	return nil
}

func (s *Service) buildPatch(in UpdateInput) (model.TodoPatch, error) {
	var patch model.TodoPatch
	if in.Title != nil {
		title, err := s.cleanTitle(*in.Title)
		if err != nil {
			return patch, err
		}
		patch.Title = &title
	}
	if in.Description != nil {
		description, err := s.cleanDescription(*in.Description)
		if err != nil {
			return patch, err
		}
		patch.Description = &description
	}
	if in.Status != nil {
		status, err := parseStatus(*in.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if in.Priority != nil {
		priority, err := parsePriority(*in.Priority)
		if err != nil {
			return patch, err
		}
		patch.Priority = &priority
	}
	patch.DueDateSet = in.DueDateSet
	patch.DueDate = in.DueDate
	return patch, nil
}

func (s *Service) cleanTitle(raw string) (string, error) {
	title := s.sanitizer.Clean(raw)
	if title == "" {
		return "", model.NewValidationError("Todo title is required")
	}
	if model.ExceedsLength(title, model.TodoTitleMaxLength) {
		return "", model.NewValidationError(fmt.Sprintf("Todo title must be at most %d characters", model.TodoTitleMaxLength))
	}
	return title, nil
}

func (s *Service) cleanDescription(raw string) (string, error) {
	description := s.sanitizer.Clean(raw)
	if model.ExceedsLength(description, model.TodoDescriptionMaxLength) {
		return "", model.NewValidationError(fmt.Sprintf("Todo description must be at most %d characters", model.TodoDescriptionMaxLength))
	}
	return description, nil
}

func parseStatus(raw string) (model.TodoStatus, error) {
	status := model.TodoStatus(raw)
	if !status.IsValid() {
		return "", model.NewValidationError("Status must be one of todo, in-progress, done")
	}
	return status, nil
}

func parsePriority(raw string) (model.TodoPriority, error) {
	priority := model.TodoPriority(raw)
	if !priority.IsValid() {
		return "", model.NewValidationError("Priority must be one of low, medium, high")
	}
	return priority, nil
}
