// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス記録のインターフェース。
// サービス層、ミドルウェア、ワーカーから利用する。
type Recorder interface {
	RecordBoardCreated()
	RecordTodoCreated()
	RecordCascadeFailure()
	RecordOrphansSwept(count int64)
	RecordTokenRejected(reason string)
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	boardsCreated   prometheus.Counter
	todosCreated    prometheus.Counter
	cascadeFailures prometheus.Counter
	orphansSwept    prometheus.Counter
	tokenRejected   *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
	requestLatency  prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		boardsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_boards_created_total",
			Help: "作成されたボードの合計数",
		}),
		todosCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_todos_created_total",
			Help: "作成されたTodoの合計数",
		}),
		cascadeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_board_cascade_failures_total",
			Help: "ボード削除後の配下Todo削除に失敗した回数",
		}),
		orphansSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskflow_orphan_todos_swept_total",
			Help: "孤児スイープで削除されたTodoの合計数",
		}),
		tokenRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_token_rejected_total",
			Help: "検証に失敗したIDトークンの数",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "taskflow_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "taskflow_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.boardsCreated,
		c.todosCreated,
		c.cascadeFailures,
		c.orphansSwept,
		c.tokenRejected,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordBoardCreated はボード作成を記録する。
func (c *Collector) RecordBoardCreated() {
	c.boardsCreated.Inc()
}

// RecordTodoCreated はTodo作成を記録する。
func (c *Collector) RecordTodoCreated() {
	c.todosCreated.Inc()
}

// RecordCascadeFailure は配下Todoの削除失敗を記録する。
func (c *Collector) RecordCascadeFailure() {
	c.cascadeFailures.Inc()
}

// RecordOrphansSwept は孤児スイープの削除件数を記録する。
func (c *Collector) RecordOrphansSwept(count int64) {
	c.orphansSwept.Add(float64(count))
}

// RecordTokenRejected はIDトークンの検証失敗を理由別に記録する。
func (c *Collector) RecordTokenRejected(reason string) {
	c.tokenRejected.WithLabelValues(reason).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエストの処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Noop は何も記録しないRecorder。メトリクスを使わないテストやワーカーで使用する。
type Noop struct{}

func (Noop) RecordBoardCreated() {}
func (Noop) RecordTodoCreated() {}
func (Noop) RecordCascadeFailure() {}
func (Noop) RecordOrphansSwept(int64) {}
func (Noop) RecordTokenRejected(string) {}
func (Noop) RecordHTTPStatus(int) {}
func (Noop) RecordRequestLatency(time.Duration) {}

var (
	_ Recorder = (*Collector)(nil)
	_ Recorder = Noop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
