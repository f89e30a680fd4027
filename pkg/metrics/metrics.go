package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 指标命名规范：
// - Counter以_total结尾
// - Histogram以_seconds结尾（单位：秒）
// - 标签取值必须是有限集合（不要把product_id放进标签）

var (
	initOnce sync.Once

	// =========================================
	// HTTP指标
	// =========================================

	// HTTPRequestsTotal HTTP请求总数（method, path, status）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPRequestDuration HTTP请求耗时（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// HTTPRequestsInProgress 正在处理的HTTP请求数
	HTTPRequestsInProgress prometheus.Gauge

	// =========================================
	// 百度图片搜索指标
	// =========================================

	// VendorRequestsTotal 百度接口调用次数（operation=add|search|delete, result=success|failure）
	VendorRequestsTotal *prometheus.CounterVec

	// VendorRequestDuration 百度接口调用耗时（operation）
	VendorRequestDuration *prometheus.HistogramVec

	// TokenRefreshesTotal Access Token刷新次数（result）
	TokenRefreshesTotal *prometheus.CounterVec

	// BatchItemsTotal 批量入库/删除的单项结果（operation=index|remove, result=success|failure）
	BatchItemsTotal *prometheus.CounterVec

	// SearchHitsSkippedTotal 检索结果中被跳过的命中（reason=unparsable|missing）
	SearchHitsSkippedTotal *prometheus.CounterVec

	// =========================================
	// Saga指标
	// =========================================

	SagaExecutionsTotal    *prometheus.CounterVec
	SagaExecutionDuration  prometheus.Histogram
	SagaCompensationsTotal prometheus.Counter

	// =========================================
	// 消息队列指标
	// =========================================

	MessagesPublishedTotal *prometheus.CounterVec
	MessagesConsumedTotal  *prometheus.CounterVec
)

// InitMetrics 注册所有指标（可重复调用，只会注册一次）
func InitMetrics() {
	initOnce.Do(func() {
		HTTPRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP请求总数",
			},
			[]string{"method", "path", "status"},
		)

		HTTPRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP请求耗时（秒）",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"method", "path"},
		)

		HTTPRequestsInProgress = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_progress",
				Help: "正在处理的HTTP请求数",
			},
		)

		VendorRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "baidu_image_requests_total",
				Help: "百度图片搜索接口调用次数",
			},
			[]string{"operation", "result"},
		)

		VendorRequestDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "baidu_image_request_duration_seconds",
				Help:    "百度图片搜索接口耗时（秒）",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"operation"},
		)

		TokenRefreshesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "baidu_token_refreshes_total",
				Help: "百度Access Token刷新次数",
			},
			[]string{"result"},
		)

		BatchItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_index_batch_items_total",
				Help: "批量入库/删除单项处理结果",
			},
			[]string{"operation", "result"},
		)

		SearchHitsSkippedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "image_search_hits_skipped_total",
				Help: "以图搜图结果中被跳过的命中数",
			},
			[]string{"reason"},
		)

		SagaExecutionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "saga_executions_total",
				Help: "Saga执行总数",
			},
			[]string{"result"},
		)

		SagaExecutionDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "saga_execution_duration_seconds",
				Help:    "Saga执行耗时（秒）",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30},
			},
		)

		SagaCompensationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "saga_compensations_total",
				Help: "Saga补偿执行总数",
			},
		)

		MessagesPublishedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_published_total",
				Help: "消息发布总数",
			},
			[]string{"exchange", "routing_key"},
		)

		MessagesConsumedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "messages_consumed_total",
				Help: "消息消费总数",
			},
			[]string{"queue", "result"},
		)
	})
}

// =========================================
// 辅助函数
// =========================================
// 未调用InitMetrics时指标为nil，以下函数直接忽略（单元测试无需注册全局指标）

// IncCounter 递增Counter
func IncCounter(counter prometheus.Counter) {
	if counter == nil {
		return
	}
	counter.Inc()
}

// IncCounterVec 递增带标签的Counter
func IncCounterVec(counter *prometheus.CounterVec, labels map[string]string) {
	if counter == nil {
		return
	}
	counter.With(labels).Inc()
}

// IncGauge 递增Gauge
func IncGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Inc()
}

// DecGauge 递减Gauge
func DecGauge(gauge prometheus.Gauge) {
	if gauge == nil {
		return
	}
	gauge.Dec()
}

// ObserveHistogram 记录Histogram
func ObserveHistogram(histogram prometheus.Histogram, value float64) {
	if histogram == nil {
		return
	}
	histogram.Observe(value)
}

// ObserveHistogramVec 记录带标签的Histogram
func ObserveHistogramVec(histogram *prometheus.HistogramVec, labels map[string]string, value float64) {
	if histogram == nil {
		return
	}
	histogram.With(labels).Observe(value)
}

// Result 将error转换为result标签值
func Result(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
