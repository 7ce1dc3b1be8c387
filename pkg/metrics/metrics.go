// Package metrics はHTTPサーバーのPrometheusメトリクスを提供する。
//
// リクエスト数とレイテンシーのメトリクスを収集し、/metricsエンドポイント
// 向けのハンドラを公開する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ServerMetrics はHTTPサーバーのメトリクス一式を保持する。
type ServerMetrics struct {
	// registry はこのインスタンス専用のPrometheusレジストリ。
	registry *prometheus.Registry
	// Requests はハンドラ・ステータス別のリクエスト数カウンター。
	Requests *prometheus.CounterVec
	// LatencyMS はハンドラ別のリクエストレイテンシー（ミリ秒）。
	LatencyMS *prometheus.HistogramVec
}

// NewServerMetrics は指定サービス名のServerMetricsを生成する。
// レジストリはインスタンスごとに独立している。
func NewServerMetrics(service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "bundle",
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "bundle",
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	registry := prometheus.NewRegistry()
	registry.MustRegister(requests, latency)

	return &ServerMetrics{
		registry:  registry,
		Requests:  requests,
		LatencyMS: latency,
	}
}

// Middleware はリクエスト数とレイテンシーを記録するGinミドルウェアを返す。
func (m *ServerMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		handler := c.FullPath()
		if handler == "" {
			handler = "unmatched"
		}
		m.Requests.WithLabelValues(handler, strconv.Itoa(c.Writer.Status())).Inc()
		m.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}
}

// Handler はこのインスタンスのレジストリを公開するHTTPハンドラを返す。
func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
