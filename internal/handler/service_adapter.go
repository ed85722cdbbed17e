package handler

import (
	"context"

	"github.com/hitoshi/taskflow/internal/board"
	"github.com/hitoshi/taskflow/internal/todo"
	"github.com/hitoshi/taskflow/internal/user"
)

// HealthCheckFunc は関数をHealthCheckerに適合させるアダプタ。
type HealthCheckFunc func(ctx context.Context) error

// PingContext はfを呼び出す。
func (f HealthCheckFunc) PingContext(ctx context.Context) error {
	return f(ctx)
}

// --- compile-time interface checks ---

var _ BoardServiceInterface = (*board.Service)(nil)
var _ TodoServiceInterface = (*todo.Service)(nil)
var _ UserServiceInterface = (*user.Service)(nil)
var _ HealthChecker = HealthCheckFunc(nil)
