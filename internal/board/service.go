// Package board はボード管理のドメインロジックを提供する。
package board

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskflow/internal/metrics"
	"github.com/hitoshi/taskflow/internal/model"
	"github.com/hitoshi/taskflow/internal/repository"
	"github.com/hitoshi/taskflow/internal/security"
)

// CreateInput はボード作成の入力値。
type CreateInput struct {
	Title       string
	Description *string
}

// UpdateInput はボード更新の入力値。nilのフィールドは変更しない。
type UpdateInput struct {
	Title       *string
	Description *string
}

// Service はボード管理のサービス層。
// すべての操作は呼び出し元のユーザーIDで所有者を絞り込む。
type Service struct {
	repo      repository.BoardRepository
	sanitizer security.TextSanitizer
	recorder  metrics.Recorder
	now       func() time.Time
	newID     func() string
}

// NewService はServiceの新しいインスタンスを生成する。
// recorderがnilの場合はメトリクスを記録しない。
func NewService(repo repository.BoardRepository, sanitizer security.TextSanitizer, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// List は所有者のボードを新しい順に返す。
func (s *Service) List(ctx context.Context, ownerID string) ([]*model.Board, error) {
	boards, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ボード一覧の取得に失敗しました: %w", err)
	}
	return boards, nil
}

// FindOwned はIDと所有者が一致するボードを返す。
// 存在しない場合と所有者が異なる場合はどちらもBOARD_NOT_FOUNDを返す。
func (s *Service) FindOwned(ctx context.Context, boardID, ownerID string) (*model.Board, error) {
	if !isValidID(boardID) {
		return nil, model.NewBoardNotFoundError()
	}
	b, err := s.repo.FindByIDAndOwner(ctx, boardID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("ボードの取得に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewBoardNotFoundError()
	}
	return b, nil
}

// Create はボードを作成する。
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*model.Board, error) {
	title, err := s.cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	description := ""
	if in.Description != nil {
		description, err = s.cleanDescription(*in.Description)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	b := &model.Board{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("ボードの作成に失敗しました: %w", err)
	}
	s.recorder.RecordBoardCreated()

	slog.Info("ボードを作成しました",
		slog.String("board_id", b.ID),
		slog.String("owner_id", ownerID),
	)
	return b, nil
}

// Update はボードを部分更新する。
func (s *Service) Update(ctx context.Context, boardID, ownerID string, in UpdateInput) (*model.Board, error) {
	if !isValidID(boardID) {
		return nil, model.NewBoardNotFoundError()
	}

	var patch model.BoardPatch
	if in.Title != nil {
		title, err := s.cleanTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		patch.Title = &title
	}
	if in.Description != nil {
		description, err := s.cleanDescription(*in.Description)
		if err != nil {
			return nil, err
		}
		patch.Description = &description
	}

	b, err := s.repo.UpdateByIDAndOwner(ctx, boardID, ownerID, patch, s.now())
	if err != nil {
		return nil, fmt.Errorf("ボードの更新に失敗しました: %w", err)
	}
	if b == nil {
		return nil, model.NewBoardNotFoundError()
	}
	return b, nil
}

// Delete はボードと配下のTodoを削除する。
// 配下のTodoの削除だけが失敗した場合は、ボード削除は成功として扱い孤児スイープに回収を任せる。
func (s *Service) Delete(ctx context.Context, boardID, ownerID string) error {
	if !isValidID(boardID) {
		return model.NewBoardNotFoundError()
	}

	deleted, err := s.repo.DeleteWithTodos(ctx, boardID, ownerID)
	if err != nil {
		if !errors.Is(err, repository.ErrCascadeIncomplete) {
			return fmt.Errorf("ボードの削除に失敗しました: %w", err)
		}
		s.recorder.RecordCascadeFailure()
		slog.Warn("ボード配下のTodoの削除に失敗しました。孤児スイープで回収されます",
			slog.String("board_id", boardID),
			slog.String("error", err.Error()),
		)
	}
	if !deleted {
		return model.NewBoardNotFoundError()
	}

	slog.Info("ボードを削除しました",
		slog.String("board_id", boardID),
		slog.String("owner_id", ownerID),
	)
	return nil
}

func (s *Service) cleanTitle(raw string) (string, error) {
	title := s.sanitizer.Clean(raw)
	if title == "" {
		return "", model.NewValidationError("Board title is required")
	}
	if model.ExceedsLength(title, model.BoardTitleMaxLength) {
		return "", model.NewValidationError(fmt.Sprintf("Board title must be at most %d characters", model.BoardTitleMaxLength))
	}
	return title, nil
}

func (s *Service) cleanDescription(raw string) (string, error) {
	description := s.sanitizer.Clean(raw)
	if model.ExceedsLength(description, model.BoardDescriptionMaxLength) {
		return "", model.NewValidationError(fmt.Sprintf("Board description must be at most %d characters", model.BoardDescriptionMaxLength))
	}
	return description, nil
}

// isValidID はUUID形式でないIDを存在しないものとして扱うために使う。
func isValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
