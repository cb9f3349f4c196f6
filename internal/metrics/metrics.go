// Package metrics holds the Prometheus collectors of cursor-keeper.
package metrics

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manifest sources
const (
	SourceCache  = "cache"
	SourceRemote = "remote"
	SourceStale  = "stale"
	SourceNone   = "none"
)

var (
	manifestResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursor_keeper_manifest_resolutions_total",
			Help: "Manifest resolutions by source tier",
		},
		[]string{"source"},
	)

	downloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursor_keeper_downloads_total",
			Help: "Artifact downloads by result",
		},
		[]string{"result"},
	)

	downloadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cursor_keeper_download_bytes_total",
			Help: "Bytes written to downloaded artifacts",
		},
	)

	activationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursor_keeper_activations_total",
			Help: "Activations by result",
		},
		[]string{"result"},
	)

	updatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursor_keeper_updates_total",
			Help: "Update-to-latest runs by result",
		},
		[]string{"result"},
	)

	updateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cursor_keeper_update_duration_seconds",
			Help:    "Duration of update-to-latest runs",
			Buckets: prometheus.DefBuckets,
		},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cursor_keeper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cursor_keeper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// 本地计数器，健康检查使用
var totalRequests, errorRequests atomic.Int64

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

func ObserveManifest(source string) {
	manifestResolutions.WithLabelValues(source).Inc()
}

// ObserveDownload records a download attempt; skipped downloads count as "cached".
func ObserveDownload(ok, cached bool, bytes int64) {
	label := result(ok)
	if cached {
		label = "cached"
	}
	downloadsTotal.WithLabelValues(label).Inc()
	if bytes > 0 {
		downloadBytes.Add(float64(bytes))
	}
}

func ObserveActivation(ok bool) {
	activationsTotal.WithLabelValues(result(ok)).Inc()
}

func ObserveUpdate(ok bool, d time.Duration) {
	updatesTotal.WithLabelValues(result(ok)).Inc()
	updateDuration.Observe(d.Seconds())
}

/**
 * Record one HTTP request
 * @description
 * - Status codes >= 400 also count as error requests for the health report
 */
func ObserveHTTP(method, path string, status int, d time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
	totalRequests.Add(1)
	if status >= 400 {
		errorRequests.Add(1)
	}
}

// RequestCounts returns the total and failed request counts since start.
func RequestCounts() (total, failed int64) {
	return totalRequests.Load(), errorRequests.Load()
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
