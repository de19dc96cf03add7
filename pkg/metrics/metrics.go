// Package metrics Prometheus 指标采集。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "trazor"

// Collector 实现 prometheus.Collector，汇总 HTTP 与业务指标
// 所有记录方法对 nil 接收者安全，单元测试可直接传 nil
type Collector struct {
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	logbookSubmitted prometheus.Counter
	pdfGenerated     *prometheus.CounterVec
	pushSent         *prometheus.CounterVec
	mailSent         *prometheus.CounterVec
}

// NewCollector 创建 Collector
func NewCollector() *Collector {
	return &Collector{
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "The number of HTTP requests handled.",
			}, []string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "The time taken to handle an HTTP request.",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			}, []string{"method", "route"},
		),
		logbookSubmitted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "logbook_entries_submitted_total",
				Help:      "The number of logbook entries accepted.",
			},
		),
		pdfGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "logbook_pdf_generated_total",
				Help:      "The number of weekly logbook PDF generation attempts.",
			}, []string{"result"},
		),
		pushSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "push_notifications_total",
				Help:      "The number of push notification attempts.",
			}, []string{"result"},
		),
		mailSent: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "emails_total",
				Help:      "The number of outbound email attempts.",
			}, []string{"result"},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.httpRequests.Describe(ch)
	c.httpDuration.Describe(ch)
	c.logbookSubmitted.Describe(ch)
	c.pdfGenerated.Describe(ch)
	c.pushSent.Describe(ch)
	c.mailSent.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.httpRequests.Collect(ch)
	c.httpDuration.Collect(ch)
	c.logbookSubmitted.Collect(ch)
	c.pdfGenerated.Collect(ch)
	c.pushSent.Collect(ch)
	c.mailSent.Collect(ch)
}

// ObserveHTTP 记录一次 HTTP 请求
func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// LogbookSubmitted 日志提交成功
func (c *Collector) LogbookSubmitted() {
	if c == nil {
		return
	}
	c.logbookSubmitted.Inc()
}

// PDFGenerated 记录周表生成结果
func (c *Collector) PDFGenerated(err error) {
	if c == nil {
		return
	}
	c.pdfGenerated.WithLabelValues(result(err)).Inc()
}

// PushSent 记录推送结果
func (c *Collector) PushSent(err error) {
	if c == nil {
		return
	}
	c.pushSent.WithLabelValues(result(err)).Inc()
}

// MailSent 记录邮件发送结果
func (c *Collector) MailSent(err error) {
	if c == nil {
		return
	}
	c.mailSent.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// NewRegistry 创建注册了进程、Go 运行时与业务指标的 Registry
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c,
	)
	return reg
}

// Handler /metrics 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
