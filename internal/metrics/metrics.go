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
// サービス層とミドルウェアから利用する。
type MetricsCollector interface {
	RecordIngestSuccess(provider string)
	RecordIngestFailure(provider string, reason string)
	RecordProviderStatus(provider string, statusCode int)
	RecordIngestLatency(provider string, duration time.Duration)
	RecordPostsMerged(provider string, count int)
	RecordAuthFailure()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	ingestSuccess  *prometheus.CounterVec
	ingestFail     *prometheus.CounterVec
	providerStatus *prometheus.CounterVec
	ingestLatency  *prometheus.HistogramVec
	postsMerged    *prometheus.CounterVec
	authFailures   prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		ingestSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offapi_ingest_success_total",
			Help: "インジェスト成功の合計数",
		}, []string{"provider"}),
		ingestFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offapi_ingest_fail_total",
			Help: "インジェスト失敗の合計数",
		}, []string{"provider", "reason"}),
		providerStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offapi_provider_status_total",
			Help: "プロバイダーAPIのHTTPステータスコード別レスポンス数",
		}, []string{"provider", "status_code"}),
		ingestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "offapi_ingest_latency_seconds",
			Help:    "インジェストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		postsMerged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "offapi_posts_merged_total",
			Help: "マージされた投稿の合計数",
		}, []string{"provider"}),
		authFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "offapi_auth_fail_total",
			Help: "認証失敗の合計数",
		}),
	}

	reg.MustRegister(
		c.ingestSuccess,
		c.ingestFail,
		c.providerStatus,
		c.ingestLatency,
		c.postsMerged,
		c.authFailures,
	)

	return c
}

// RecordIngestSuccess はインジェスト成功を記録する。
func (c *Collector) RecordIngestSuccess(provider string) {
	c.ingestSuccess.WithLabelValues(provider).Inc()
}

// RecordIngestFailure はインジェスト失敗を記録する。
func (c *Collector) RecordIngestFailure(provider string, reason string) {
	c.ingestFail.WithLabelValues(provider, reason).Inc()
}

// RecordProviderStatus はプロバイダーAPIのHTTPステータスコードを記録する。
func (c *Collector) RecordProviderStatus(provider string, statusCode int) {
	c.providerStatus.WithLabelValues(provider, strconv.Itoa(statusCode)).Inc()
}

// RecordIngestLatency はインジェストのレイテンシを記録する。
func (c *Collector) RecordIngestLatency(provider string, duration time.Duration) {
	c.ingestLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordPostsMerged はマージされた投稿数を記録する。
func (c *Collector) RecordPostsMerged(provider string, count int) {
	c.postsMerged.WithLabelValues(provider).Add(float64(count))
}

// RecordAuthFailure は認証失敗を記録する。
func (c *Collector) RecordAuthFailure() {
	c.authFailures.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(gatherer))
	return mux
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
