package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskflow/internal/model"
	"github.com/hitoshi/taskflow/internal/todo"
)

// dueDateLayout は日付のみで指定された期限の書式。
const dueDateLayout = "2006-01-02"

// TodoServiceInterface はTodoハンドラーが必要とするサービスインターフェース。
type TodoServiceInterface interface {
	List(ctx context.Context, boardID, ownerID string) ([]*model.Todo, error)
	Create(ctx context.Context, boardID, ownerID string, in todo.CreateInput) (*model.Todo, error)
	Update(ctx context.Context, boardID, todoID, ownerID string, in todo.UpdateInput) (*model.Todo, error)
	Delete(ctx context.Context, boardID, todoID, ownerID string) error
}

// TodoHandler はTodo管理のHTTPハンドラー。
type TodoHandler struct {
	service TodoServiceInterface
}

// NewTodoHandler はTodoHandlerを生成する。
func NewTodoHandler(service TodoServiceInterface) *TodoHandler {
	return &TodoHandler{service: service}
}

// todoResponse はTodoのAPIレスポンス。
type todoResponse struct {
	ID          string     `json:"id"`
	BoardID     string     `json:"boardId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toTodoResponse(t *model.Todo) todoResponse {
	return todoResponse{
		ID:          t.ID,
		BoardID:     t.BoardID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

// todoRequest はTodo作成・更新リクエストのボディ。
// dueDateは「未指定」「null」「日付」を区別するためRawMessageで受ける。
type todoRequest struct {
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	DueDate     json.RawMessage `json:"dueDate"`
}

// parseDueDate はdueDateの値を解釈する。
// setはフィールドがボディに含まれていたかを表す。nullと空文字は期限なしとして扱う。
func parseDueDate(raw json.RawMessage) (due *time.Time, set bool, err error) {
	if len(raw) == 0 {
		return nil, false, nil
	}
	if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true, nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, true, model.NewValidationError("dueDate must be a date string or null")
	}
	if s == "" {
		return nil, true, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		t = t.UTC()
		return &t, true, nil
	}
	if t, err := time.Parse(dueDateLayout, s); err == nil {
		return &t, true, nil
	}
	return nil, true, model.NewValidationError("dueDate must be YYYY-MM-DD or RFC 3339")
}

// ListTodos はボード配下のTodo一覧を取得する。
// GET /api/boards/{boardId}/todos
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	todos, err := h.service.List(r.Context(), chi.URLParam(r, "boardId"), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]todoResponse, len(todos))
	for i, t := range todos {
		resp[i] = toTodoResponse(t)
	}
	writeList(w, resp, len(resp))
}

// CreateTodo はボード配下にTodoを作成する。
// POST /api/boards/{boardId}/todos
func (h *TodoHandler) CreateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dueDate, _, err := parseDueDate(req.DueDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	in := todo.CreateInput{
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     dueDate,
	}
	if req.Title != nil {
		in.Title = *req.Title
	}

	t, err := h.service.Create(r.Context(), chi.URLParam(r, "boardId"), userID, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusCreated, toTodoResponse(t))
}

// UpdateTodo はTodoを部分更新する。
// PUT /api/boards/{boardId}/todos/{id}
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req todoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dueDate, dueDateSet, err := parseDueDate(req.DueDate)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	t, err := h.service.Update(r.Context(), chi.URLParam(r, "boardId"), chi.URLParam(r, "id"), userID, todo.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDateSet:  dueDateSet,
		DueDate:     dueDate,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeData(w, http.StatusOK, toTodoResponse(t))
}

// DeleteTodo はTodoを削除する。
// DELETE /api/boards/{boardId}/todos/{id}
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), chi.URLParam(r, "boardId"), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
