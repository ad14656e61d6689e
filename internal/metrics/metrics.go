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
// サービス層とHTTPミドルウェアから利用する。
type MetricsCollector interface {
	RecordDashboardRequest()
	RecordNotesFetch(duration time.Duration, err error)
	RecordNoteCreated()
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	dashboardRequests prometheus.Counter
	fetchFailures     prometheus.Counter
	fetchLatency      prometheus.Histogram
	notesCreated      prometheus.Counter
	httpStatus        *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		dashboardRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodjournal_dashboard_requests_total",
			Help: "ダッシュボード取得リクエストの合計数",
		}),
		fetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodjournal_notes_fetch_failures_total",
			Help: "ノート取得失敗の合計数",
		}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodjournal_notes_fetch_latency_seconds",
			Help:    "ノート取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		notesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodjournal_notes_created_total",
			Help: "作成されたノートの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodjournal_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.dashboardRequests,
		c.fetchFailures,
		c.fetchLatency,
		c.notesCreated,
		c.httpStatus,
	)

	return c
}

// RecordDashboardRequest はダッシュボード取得を記録する。
func (c *Collector) RecordDashboardRequest() {
	c.dashboardRequests.Inc()
}

// RecordNotesFetch はノート取得のレイテンシを記録し、失敗時は失敗数を加算する。
func (c *Collector) RecordNotesFetch(duration time.Duration, err error) {
	c.fetchLatency.Observe(duration.Seconds())
	if err != nil {
		c.fetchFailures.Inc()
	}
}

// RecordNoteCreated はノート作成を記録する。
func (c *Collector) RecordNoteCreated() {
	c.notesCreated.Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// statusRecorder はレスポンスのステータスコードを記録するResponseWriter。
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// StatusMiddleware はレスポンスのステータスコードをcollectorに記録するミドルウェアを返す。
func StatusMiddleware(collector MetricsCollector) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			collector.RecordHTTPStatus(rec.status)
		})
	}
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)
