package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskflow/internal/board"
	"github.com/hitoshi/taskflow/internal/model"
)

// BoardServiceInterface はボードハンドラーが必要とするサービスインターフェース。
type BoardServiceInterface interface {
	List(ctx context.Context, ownerID string) ([]*model.Board, error)
	Create(ctx context.Context, ownerID string, in board.CreateInput) (*model.Board, error)
	Update(ctx context.Context, boardID, ownerID string, in board.UpdateInput) (*model.Board, error)
	Delete(ctx context.Context, boardID, ownerID string) error
}

// BoardHandler はボード管理のHTTPハンドラー。
type BoardHandler struct {
	service BoardServiceInterface
}

// NewBoardHandler はBoardHandlerを生成する。
func NewBoardHandler(service BoardServiceInterface) *BoardHandler {
	return &BoardHandler{service: service}
}

// boardResponse はボードのAPIレスポンス。
type boardResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toBoardResponse(b *model.Board) boardResponse {
	return boardResponse{
		ID:          b.ID,
		Title:       b.Title,
		Description: b.Description,
		OwnerID:     b.OwnerID,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
}

// boardRequest はボード作成・更新リクエストのボディ。
// 更新時はnilのフィールドを変更しない。
type boardRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

// ListBoards は呼び出し元のボード一覧を取得する。
// GET /api/boards
func (h *BoardHandler) ListBoards(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	boards, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]boardResponse, len(boards))
	for i, b := range boards {
		resp[i] = toBoardResponse(b)
	}
	writeList(w, resp, len(resp))
}

// CreateBoard はボードを作成する。
// POST /api/boards
func (h *BoardHandler) CreateBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req boardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := board.CreateInput{Description: req.Description}
	if req.Title != nil {
		in.Title = *req.Title
	}

	b, err := h.service.Create(r.Context(), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toBoardResponse(b))
}

// UpdateBoard はボードを部分更新する。
// PUT /api/boards/{id}
func (h *BoardHandler) UpdateBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req boardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), userID, board.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toBoardResponse(b))
}

// DeleteBoard はボードと配下のTodoを削除する。
// DELETE /api/boards/{id}
func (h *BoardHandler) DeleteBoard(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
