// Package metrics 定义服务的 Prometheus 指标。
//
// 指标全部注册在默认 Registry 上，由 server 在 /metrics 暴露：
//   - HTTP 请求数量与耗时（按路由）
//   - 预测结果分布（ok / empty / unavailable / invalid / error）
//   - Pipeline 各 Node 耗时
//   - 制品加载状态与耗时
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 预测结果标签取值
const (
	OutcomeOK          = "ok"
	OutcomeEmpty       = "empty"
	OutcomeUnavailable = "unavailable"
	OutcomeInvalid     = "invalid"
	OutcomeError       = "error"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reorder_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reorder_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)

	// Prediction Metrics
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reorder_predictions_total",
			Help: "Total number of prediction requests by outcome",
		},
		[]string{"outcome"},
	)

	PredictionCandidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reorder_prediction_candidates",
			Help:    "Number of feature rows scored per prediction",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	PredictedProducts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reorder_predicted_products",
			Help:    "Number of products returned per prediction",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	NodeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reorder_pipeline_node_duration_seconds",
			Help:    "Duration of pipeline node execution in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
		[]string{"node", "kind"},
	)

	NodeErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reorder_pipeline_node_errors_total",
			Help: "Total number of pipeline node errors",
		},
		[]string{"node", "kind"},
	)

	// Artifact Metrics
	ArtifactsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reorder_artifacts_loaded",
			Help: "1 if model, feature table and product lookup loaded successfully, 0 otherwise",
		},
	)

	ArtifactLoadDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reorder_artifact_load_duration_seconds",
			Help:    "Duration of artifact loading in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
		[]string{"artifact", "status"},
	)

	ArtifactRows = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "reorder_artifact_rows",
			Help: "Number of rows loaded per tabular artifact",
		},
		[]string{"artifact"},
	)
)

// RecordAPIRequest 记录一次 HTTP 请求
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPrediction 记录预测结果；candidates/products 仅在成功（含空结果）时观测
func RecordPrediction(outcome string, candidates, products int) {
	PredictionsTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK || outcome == OutcomeEmpty {
		PredictionCandidates.Observe(float64(candidates))
		PredictedProducts.Observe(float64(products))
	}
}

// RecordNode 记录 Pipeline Node 执行耗时与错误
func RecordNode(node, kind string, duration time.Duration, err error) {
	NodeDuration.WithLabelValues(node, kind).Observe(duration.Seconds())
	if err != nil {
		NodeErrors.WithLabelValues(node, kind).Inc()
	}
}

// RecordArtifactLoad 记录单个制品的加载耗时
func RecordArtifactLoad(artifact string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ArtifactLoadDuration.WithLabelValues(artifact, status).Observe(duration.Seconds())
}

func SetArtifactsLoaded(loaded bool) {
	if loaded {
		ArtifactsLoaded.Set(1)
		return
	}
	ArtifactsLoaded.Set(0)
}
