// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// HTTPミドルウェアとサービス層から利用する。
type MetricsCollector interface {
	ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration)
	RecordAuthEvent(event, outcome string)
	ObserveAgentLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	agentLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatbridge_http_requests_total",
			Help: "HTTPリクエストの合計数",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chatbridge_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chatbridge_auth_events_total",
			Help: "認証イベント（登録・ログイン・セッション作成）の合計数",
		}, []string{"event", "outcome"}),
		agentLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chatbridge_agent_latency_seconds",
			Help:    "エージェント呼び出しのレイテンシ（秒）",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpDuration,
		c.authEvents,
		c.agentLatency,
	)

	return c
}

// ObserveHTTPRequest はHTTPリクエストの件数と処理時間を記録する。
// endpointにはルートパターンを渡し、ラベルのカーディナリティを抑える。
func (c *Collector) ObserveHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAuthEvent は認証イベントを記録する。
func (c *Collector) RecordAuthEvent(event, outcome string) {
	c.authEvents.WithLabelValues(event, outcome).Inc()
}

// ObserveAgentLatency はエージェント呼び出しのレイテンシを記録する。
func (c *Collector) ObserveAgentLatency(duration time.Duration) {
	c.agentLatency.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
