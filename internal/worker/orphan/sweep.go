// Package orphan は親ボードを失ったTodoの定期削除ジョブを提供する。
// ボード削除時のカスケードが途中で失敗した場合の取りこぼしを回収する。
package orphan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/taskflow/internal/metrics"
)

// DefaultInterval はスイープの既定の実行間隔。
const DefaultInterval = time.Hour

// OrphanDeleter は孤立Todoの削除を抽象化するインターフェース。
// repository.TodoRepository が満たす。
type OrphanDeleter interface {
	DeleteOrphans(ctx context.Context) (int64, error)
}

// SweepJob は孤立Todoの削除ジョブ。
// 削除対象がない場合も成功として扱い、何度実行しても結果は変わらない。
type SweepJob struct {
	todos    OrphanDeleter
	logger   *slog.Logger
	recorder metrics.Recorder
}

// NewSweepJob は新しいSweepJobを生成する。
func NewSweepJob(todos OrphanDeleter, logger *slog.Logger, recorder metrics.Recorder) *SweepJob {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &SweepJob{
		todos:    todos,
		logger:   logger,
		recorder: recorder,
	}
}

// Run は孤立Todoを1回削除する。
func (j *SweepJob) Run(ctx context.Context) error {
	start := time.Now()

	deleted, err := j.todos.DeleteOrphans(ctx)
	if err != nil {
		j.logger.Error("孤立Todoの削除に失敗しました",
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("孤立Todoの削除に失敗: %w", err)
	}

	j.recorder.RecordOrphansSwept(deleted)

	j.logger.Info("孤立Todoスイープが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回実行し、その後interval間隔でRunを繰り返す。
// コンテキストがキャンセルされるまで戻らない。
func (j *SweepJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("孤立Todoスイープを開始しました",
		slog.Duration("interval", interval),
	)

	// エラーはRun内でログ済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("孤立Todoスイープを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
