// Package metrics Prometheus 指标
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hihitutor"

// Metrics 包含所有指标
// 方法对 nil 接收者安全，测试中可以不创建
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	RegistrationsTotal   *prometheus.CounterVec
	VerificationAttempts *prometheus.CounterVec
	ProfileReviewsTotal  *prometheus.CounterVec
	CaseTransitionsTotal *prometheus.CounterVec
}

var (
	once     sync.Once
	instance *Metrics
)

// Default 返回进程内唯一的指标实例（promauto 注册到默认 Registry，只能创建一次）
func Default() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RegistrationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "registrations_total",
				Help:      "Registrations by user type and outcome",
			},
			[]string{"user_type", "outcome"},
		),
		VerificationAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "verification_attempts_total",
				Help:      "Phone verification attempts by result",
			},
			[]string{"result"},
		),
		ProfileReviewsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "profile_reviews_total",
				Help:      "Profile reviews by decision",
			},
			[]string{"decision"},
		),
		CaseTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "case_transitions_total",
				Help:      "Case lifecycle transitions by action",
			},
			[]string{"action"},
		),
	}
}

// Handler /metrics 处理器
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest 记录一次 HTTP 请求
func (m *Metrics) ObserveRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(seconds)
}

// Registration 记录注册结果（created / reactivated / rejected）
func (m *Metrics) Registration(userType, outcome string) {
	if m == nil {
		return
	}
	m.RegistrationsTotal.WithLabelValues(userType, outcome).Inc()
}

// Verification 记录验证码校验结果
func (m *Metrics) Verification(result string) {
	if m == nil {
		return
	}
	m.VerificationAttempts.WithLabelValues(result).Inc()
}

// ProfileReview 记录资料审批
func (m *Metrics) ProfileReview(decision string) {
	if m == nil {
		return
	}
	m.ProfileReviewsTotal.WithLabelValues(decision).Inc()
}

// CaseTransition 记录个案状态变化
func (m *Metrics) CaseTransition(action string) {
	if m == nil {
		return
	}
	m.CaseTransitionsTotal.WithLabelValues(action).Inc()
}
