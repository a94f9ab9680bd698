// Package metrics 推荐流程与 HTTP 接口的 Prometheus 指标
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// 推荐流程指标
	RecommendationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_recommendations_total",
			Help: "Total number of recommendation runs by outcome",
		},
		[]string{"outcome"}, // llm / fallback / empty / error
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policy_recommendation_duration_seconds",
			Help:    "End-to-end duration of a recommendation run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	EligiblePolicies = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policy_eligible_count",
			Help:    "Number of policies left after eligibility filtering",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
	)

	CandidateViewSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "policy_candidate_view_size",
			Help:    "Number of candidates handed to the selection step",
			Buckets: prometheus.LinearBuckets(0, 5, 12),
		},
	)

	// LLM 指标
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_llm_requests_total",
			Help: "Total number of chat completion calls",
		},
		[]string{"operation", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policy_llm_request_duration_seconds",
			Help:    "Duration of chat completion calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// 缓存指标
	CachePurgedRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "policy_recommendation_cache_purged_total",
			Help: "Total number of expired recommendation cache rows deleted",
		},
	)

	// API 指标
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "policy_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "policy_api_request_duration_seconds",
			Help:    "API request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)
)

// RecordRecommendation 记录一次推荐的结果
func RecordRecommendation(outcome string, duration time.Duration) {
	RecommendationsTotal.WithLabelValues(outcome).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordLLMRequest 记录 LLM 调用
func RecordLLMRequest(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LLMRequestsTotal.WithLabelValues(operation, status).Inc()
	LLMRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordAPIRequest 记录 API 请求指标
func RecordAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
