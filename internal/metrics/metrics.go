package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "aptbot"

// Collector is a prometheus.Collector for chat, tool and session activity.
// It satisfies both chatbot.Observer and session.Metrics.
type Collector struct {
	chatTurns       *prometheus.CounterVec
	toolCalls       *prometheus.CounterVec
	llmDuration     *prometheus.HistogramVec
	activeSessions  prometheus.Gauge
	sessionsExpired prometheus.Counter
}

func NewCollector() *Collector {
	return &Collector{
		chatTurns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "chat_turns_total",
				Help:      "Chat turns handled, by result.",
			}, []string{"result"},
		),
		toolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "tool_calls_total",
				Help:      "Function calls executed for the model, by function and result.",
			}, []string{"function", "result"},
		),
		llmDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "llm_request_duration_seconds",
				Help:      "Latency of model generate requests.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30, 60},
			}, []string{"result"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_sessions",
				Help:      "Chat sessions held in memory.",
			},
		),
		sessionsExpired: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "sessions_expired_total",
				Help:      "Sessions removed by the idle janitor.",
			},
		),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.chatTurns.Describe(ch)
	c.toolCalls.Describe(ch)
	c.llmDuration.Describe(ch)
	c.activeSessions.Describe(ch)
	c.sessionsExpired.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.chatTurns.Collect(ch)
	c.toolCalls.Collect(ch)
	c.llmDuration.Collect(ch)
	c.activeSessions.Collect(ch)
	c.sessionsExpired.Collect(ch)
}

func (c *Collector) ObserveGenerate(d time.Duration, err error) {
	c.llmDuration.WithLabelValues(result(err == nil)).Observe(d.Seconds())
}

func (c *Collector) ObserveToolCall(function string, success bool) {
	c.toolCalls.WithLabelValues(function, result(success)).Inc()
}

func (c *Collector) SessionsActive(n int) {
	c.activeSessions.Set(float64(n))
}

func (c *Collector) ChatTurn(res string) {
	c.chatTurns.WithLabelValues(res).Inc()
}

func (c *Collector) SessionsExpired(n int) {
	c.sessionsExpired.Add(float64(n))
}

func result(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// NewRegistry returns a registry holding c plus the Go and process
// collectors.
func NewRegistry(c *Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	for _, col := range []prometheus.Collector{
		c,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
