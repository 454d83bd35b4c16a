package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/krishivue/agri-api/internal/model"
)

type Metrics struct {
	registry          *prometheus.Registry
	RequestCount      *prometheus.CounterVec
	RequestDuration   *prometheus.HistogramVec
	InferenceDuration *prometheus.HistogramVec
	InferenceErrors   *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			}, []string{"path", "method", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"path"},
		),
		InferenceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inference_duration_seconds",
				Help:    "Duration of model forward passes in seconds",
				Buckets: prometheus.DefBuckets,
			}, []string{"model"},
		),
		InferenceErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inference_errors_total",
				Help: "Total number of failed model invocations",
			}, []string{"model"},
		),
	}
	m.registry.MustRegister(m.RequestCount, m.RequestDuration, m.InferenceDuration, m.InferenceErrors)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

type invoker interface {
	Invoke(ctx context.Context, batch *model.Batch) ([]float32, error)
}

type classifier interface {
	Classify(ctx context.Context, batch *model.Batch) (int64, error)
}

// TimedInvoker records duration and failures of every Invoke under name.
type TimedInvoker struct {
	next    invoker
	name    string
	metrics *Metrics
}

func (m *Metrics) WrapInvoker(name string, next invoker) *TimedInvoker {
	return &TimedInvoker{next: next, name: name, metrics: m}
}

func (t *TimedInvoker) Invoke(ctx context.Context, batch *model.Batch) ([]float32, error) {
	start := time.Now()
	scores, err := t.next.Invoke(ctx, batch)
	t.metrics.observe(t.name, start, err)
	return scores, err
}

type TimedClassifier struct {
	next    classifier
	name    string
	metrics *Metrics
}

func (m *Metrics) WrapClassifier(name string, next classifier) *TimedClassifier {
	return &TimedClassifier{next: next, name: name, metrics: m}
}

func (t *TimedClassifier) Classify(ctx context.Context, batch *model.Batch) (int64, error) {
	start := time.Now()
	idx, err := t.next.Classify(ctx, batch)
	t.metrics.observe(t.name, start, err)
	return idx, err
}

func (m *Metrics) observe(name string, start time.Time, err error) {
	m.InferenceDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		m.InferenceErrors.WithLabelValues(name).Inc()
	}
}
