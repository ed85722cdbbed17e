// Package client はTaskFlow REST APIのHTTPクライアントを提供する。
// 全リクエストにBearerトークンを付与し、統一エンベロープを解釈する。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// maxResponseSize はレスポンスボディの読み取り上限（1MB）。
const maxResponseSize = 1 << 20

// TokenSource はリクエストに付与するIDトークンを供給する。
// 期限切れのトークンの更新は実装側の責務。
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken は固定のトークンを返すTokenSource。
type StaticToken string

// Token はトークンを返す。
func (s StaticToken) Token(ctx context.Context) (string, error) {
	return string(s), nil
}

// APIError は2xx以外のレスポンスを表す。
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Category   string
	Action     string
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("taskflow api: status %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("taskflow api: status %d: [%s] %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound はerrが404のAPIErrorかどうかを返す。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// responseEnvelope はAPIレスポンスの統一フォーマット。
type responseEnvelope struct {
	Success bool            `json:"success"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *struct {
		Code     string `json:"code"`
		Category string `json:"category"`
		Action   string `json:"action"`
	} `json:"error"`
}

// Client はTaskFlow APIのクライアント。
type Client struct {
	httpClient *http.Client
	tokens     TokenSource
	logger     *slog.Logger
	baseURL    string
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLはスキームとホストまで（例: http://localhost:8080）を指定する。
func NewClient(baseURL string, httpClient *http.Client, tokens TokenSource, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// ListBoards は呼び出し元のボードを新しい順に返す。
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var boards []Board
	if _, err := c.do(ctx, http.MethodGet, "/api/boards", nil, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// CreateBoard はボードを作成する。
func (c *Client) CreateBoard(ctx context.Context, in BoardInput) (*Board, error) {
	var b Board
	if _, err := c.do(ctx, http.MethodPost, "/api/boards", in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBoard はボードを部分更新する。
func (c *Client) UpdateBoard(ctx context.Context, id string, in BoardInput) (*Board, error) {
	var b Board
	if _, err := c.do(ctx, http.MethodPut, "/api/boards/"+url.PathEscape(id), in, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBoard はボードと配下のTodoを削除する。
func (c *Client) DeleteBoard(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/api/boards/"+url.PathEscape(id), nil, nil)
	return err
}

// ListTodos はボード配下のTodoを作成順に返す。
func (c *Client) ListTodos(ctx context.Context, boardID string) ([]Todo, error) {
	var todos []Todo
	if _, err := c.do(ctx, http.MethodGet, todosPath(boardID), nil, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// CreateTodo はボード配下にTodoを作成する。
func (c *Client) CreateTodo(ctx context.Context, boardID string, in TodoInput) (*Todo, error) {
	var t Todo
	if _, err := c.do(ctx, http.MethodPost, todosPath(boardID), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// UpdateTodo はTodoを部分更新する。
func (c *Client) UpdateTodo(ctx context.Context, boardID, id string, in TodoInput) (*Todo, error) {
	var t Todo
	if _, err := c.do(ctx, http.MethodPut, todosPath(boardID)+"/"+url.PathEscape(id), in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTodo はTodoを削除する。
func (c *Client) DeleteTodo(ctx context.Context, boardID, id string) error {
	_, err := c.do(ctx, http.MethodDelete, todosPath(boardID)+"/"+url.PathEscape(id), nil, nil)
	return err
}

// SyncUser はサインイン直後のユーザー情報を同期する。新規作成時はcreatedがtrueになる。
func (c *Client) SyncUser(ctx context.Context, in SyncInput) (u *User, created bool, err error) {
	var user User
	status, err := c.do(ctx, http.MethodPost, "/api/users/sync", in, &user)
	if err != nil {
		return nil, false, err
	}
	return &user, status == http.StatusCreated, nil
}

// GetUser は外部IdPのUIDでユーザーを取得する。
func (c *Client) GetUser(ctx context.Context, firebaseUID string) (*User, error) {
	var u User
	if _, err := c.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(firebaseUID), nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func todosPath(boardID string) string {
	return "/api/boards/" + url.PathEscape(boardID) + "/todos"
}

// do はリクエストを送信し、成功時はエンベロープのdataをoutにデコードする。
// 2xx以外は*APIErrorを返す。
func (c *Client) do(ctx context.Context, method, path string, in, out any) (int, error) {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return 0, fmt.Errorf("IDトークンの取得に失敗しました: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("APIの呼び出しに失敗しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeAPIError(resp.StatusCode, raw)
		c.logger.Warn("APIがエラーステータスを返しました",
			slog.String("method", method),
			slog.String("path", path),
			slog.Int("http_status", resp.StatusCode),
			slog.String("code", apiErr.Code),
		)
		return resp.StatusCode, apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent || len(raw) == 0 {
		return resp.StatusCode, nil
	}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return resp.StatusCode, fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}
	if len(env.Data) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("レスポンスdataのパースに失敗しました: %w", err)
	}
	return resp.StatusCode, nil
}

// decodeAPIError はエラーレスポンスをAPIErrorに変換する。
// エンベロープ形式でない場合はステータスの説明文を使う。
func decodeAPIError(status int, raw []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Message: http.StatusText(status)}

	var env responseEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apiErr
	}
	if env.Message != "" {
		apiErr.Message = env.Message
	}
	if env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Category = env.Error.Category
		apiErr.Action = env.Error.Action
	}
	return apiErr
}
