// Package metrics 定义推荐服务的 Prometheus 指标。
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SourceFetches 统计上游拉取次数，result: ok / error
	SourceFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_source_fetches_total",
			Help: "Total number of upstream media source fetches",
		},
		[]string{"source", "result"},
	)

	// SourceFetchDuration 统计上游拉取耗时
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "animerec_source_fetch_duration_seconds",
			Help:    "Duration of upstream media source fetches in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"source"},
	)

	// BatchesDegraded 统计降级为空的召回批次
	BatchesDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_batches_degraded_total",
			Help: "Total number of recall batches degraded to empty after a fetch failure",
		},
		[]string{"source"},
	)

	// Candidates 统计每次请求聚合后的候选数
	Candidates = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_candidates",
			Help:    "Number of deduplicated candidates per request",
			Buckets: prometheus.ExponentialBuckets(10, 2, 8),
		},
	)

	// Recommendations 统计推荐请求，result: ok / empty / error
	Recommendations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_recommendations_total",
			Help: "Total number of recommendation requests",
		},
		[]string{"result"},
	)

	// RecommendDuration 统计推荐请求耗时
	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "animerec_recommend_duration_seconds",
			Help:    "Duration of recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// CacheLookups 统计上游响应缓存命中，result: hit / miss / error
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_cache_lookups_total",
			Help: "Total number of upstream response cache lookups",
		},
		[]string{"result"},
	)

	// CircuitBreakerState 0=closed 1=half-open 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "animerec_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// HTTPRequests 统计 HTTP 请求
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "animerec_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "status_code"},
	)
)
