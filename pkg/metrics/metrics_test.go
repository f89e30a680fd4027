package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInitMetrics 测试指标初始化（重复调用不应重复注册导致panic）
func TestInitMetrics(t *testing.T) {
	require.NotPanics(t, func() {
		InitMetrics()
		InitMetrics()
	})

	assert.NotNil(t, HTTPRequestsTotal)
	assert.NotNil(t, VendorRequestsTotal)
	assert.NotNil(t, TokenRefreshesTotal)
	assert.NotNil(t, BatchItemsTotal)
	assert.NotNil(t, SagaCompensationsTotal)
}

func TestCounterVec(t *testing.T) {
	InitMetrics()

	labels := map[string]string{"operation": "add", "result": "success"}
	before := getCounterVecValue(t, VendorRequestsTotal, labels)

	IncCounterVec(VendorRequestsTotal, labels)
	IncCounterVec(VendorRequestsTotal, labels)
	IncCounterVec(VendorRequestsTotal, map[string]string{"operation": "add", "result": "failure"})

	assert.Equal(t, before+2, getCounterVecValue(t, VendorRequestsTotal, labels))
}

func TestCounter(t *testing.T) {
	InitMetrics()

	before := getCounterValue(t, SagaCompensationsTotal)
	IncCounter(SagaCompensationsTotal)
	assert.Equal(t, before+1, getCounterValue(t, SagaCompensationsTotal))
}

func TestGauge(t *testing.T) {
	InitMetrics()

	before := getGaugeValue(t, HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	IncGauge(HTTPRequestsInProgress)
	DecGauge(HTTPRequestsInProgress)
	assert.Equal(t, before+1, getGaugeValue(t, HTTPRequestsInProgress))
}

func TestHistogramVec(t *testing.T) {
	InitMetrics()

	labels := map[string]string{"operation": "search"}
	before := getHistogramVecCount(t, VendorRequestDuration, labels)

	ObserveHistogramVec(VendorRequestDuration, labels, 0.2)
	ObserveHistogramVec(VendorRequestDuration, labels, 1.5)

	assert.Equal(t, before+2, getHistogramVecCount(t, VendorRequestDuration, labels))
}

// TestNilSafe 未初始化的指标不应panic
func TestNilSafe(t *testing.T) {
	var counter *prometheus.CounterVec
	var histogram *prometheus.HistogramVec
	var gauge prometheus.Gauge

	assert.NotPanics(t, func() {
		IncCounterVec(counter, map[string]string{"result": "success"})
		ObserveHistogramVec(histogram, map[string]string{"operation": "add"}, 1)
		IncGauge(gauge)
		IncCounter(nil)
		ObserveHistogram(nil, 1)
	})
}

func TestResult(t *testing.T) {
	assert.Equal(t, "success", Result(nil))
	assert.Equal(t, "failure", Result(errors.New("x")))
}

// =========================================
// 辅助函数：读取指标值
// =========================================

func getCounterValue(t *testing.T, counter prometheus.Counter) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, counter.Write(m))
	return m.GetCounter().GetValue()
}

func getCounterVecValue(t *testing.T, counterVec *prometheus.CounterVec, labels map[string]string) float64 {
	t.Helper()
	return getCounterValue(t, counterVec.With(labels))
}

func getGaugeValue(t *testing.T, gauge prometheus.Gauge) float64 {
	t.Helper()
	m := &dto.Metric{}
	require.NoError(t, gauge.Write(m))
	return m.GetGauge().GetValue()
}

func getHistogramVecCount(t *testing.T, histogramVec *prometheus.HistogramVec, labels map[string]string) uint64 {
	t.Helper()
	m := &dto.Metric{}
	observer := histogramVec.With(labels)
	require.NoError(t, observer.(prometheus.Histogram).Write(m))
	return m.GetHistogram().GetSampleCount()
}
