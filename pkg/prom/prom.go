// Package prom registers the service metrics and exposes small helpers that
// are no-ops until Create has run.
package prom

import (
	"sync"

	xhttp "github.com/nimasrn/service-reminders/pkg/http"
	"github.com/nimasrn/service-reminders/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

const (
	SystemReminder = "reminder"
	SystemImport   = "import"
	SystemDispatch = "dispatch"
)

const (
	MetricReminderQueued             = "queued_total"
	MetricReminderEvaluationSkipped  = "evaluation_skipped_total"
	MetricReminderEvaluationDuration = "evaluation_duration_seconds"
	MetricImportRows                 = "rows_total"
	MetricDispatch                   = "messages_total"
)

var (
	mu        sync.RWMutex
	enabled   bool
	counters  = map[string]prometheus.Counter{}
	counterVs = map[string]*prometheus.CounterVec{}
	histos    = map[string]prometheus.Histogram{}
)

func metricKey(subsystem, name string) string {
	return subsystem + "_" + name
}

// Create registers every collector on the default registry with env and
// instance as constant labels. It may only succeed once per process.
func Create(host, env, namespace string) error {
	mu.Lock()
	defer mu.Unlock()

	labels := prometheus.Labels{"env": env, "instance": host}
	opts := func(subsystem, name, help string) prometheus.Opts {
		return prometheus.Opts{Namespace: namespace, Subsystem: subsystem, Name: name, Help: help, ConstLabels: labels}
	}

	queued := prometheus.NewCounter(prometheus.CounterOpts(opts(SystemReminder, MetricReminderQueued, "Reminder messages queued by evaluation runs.")))
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts(opts(SystemReminder, MetricReminderEvaluationSkipped, "Evaluation runs skipped by a precondition.")), []string{"reason"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace:   namespace,
		Subsystem:   SystemReminder,
		Name:        MetricReminderEvaluationDuration,
		Help:        "Duration of one organization evaluation.",
		ConstLabels: labels,
		Buckets:     prometheus.DefBuckets,
	})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts(opts(SystemImport, MetricImportRows, "CSV import rows by outcome.")), []string{"outcome"})
	dispatch := prometheus.NewCounterVec(prometheus.CounterOpts(opts(SystemDispatch, MetricDispatch, "Dispatch attempts by result.")), []string{"status"})

	for _, c := range []prometheus.Collector{queued, skipped, duration, rows, dispatch} {
		if err := prometheus.Register(c); err != nil {
			return err
		}
	}

	counters[metricKey(SystemReminder, MetricReminderQueued)] = queued
	counterVs[metricKey(SystemReminder, MetricReminderEvaluationSkipped)] = skipped
	counterVs[metricKey(SystemImport, MetricImportRows)] = rows
	counterVs[metricKey(SystemDispatch, MetricDispatch)] = dispatch
	histos[metricKey(SystemReminder, MetricReminderEvaluationDuration)] = duration
	enabled = true
	return nil
}

// ListenAndServer serves the default registry on url and panics when the
// listener fails.
func ListenAndServer(addr string, url string) {
	s := xhttp.CreateServer()
	s.GET(url, fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler()))
	logger.Info("[metrics-server] listening...", "addr", addr, "url", url)
	if err := s.ListenAndServe(addr); err != nil {
		logger.Panic("[metrics-server] http listen error", "error", err)
	}
}

func AddCounter(subsystem, name string, n float64) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	if c, ok := counters[metricKey(subsystem, name)]; ok {
		c.Add(n)
		return
	}
	logger.Warn("[metrics-server] counter not found", "subsystem", subsystem, "name", name)
}

func AddCounterVec(subsystem, name string, n float64, labelValues ...string) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	if c, ok := counterVs[metricKey(subsystem, name)]; ok {
		c.WithLabelValues(labelValues...).Add(n)
		return
	}
	logger.Warn("[metrics-server] counter vec not found", "subsystem", subsystem, "name", name)
}

func Observe(subsystem, name string, v float64) {
	mu.RLock()
	defer mu.RUnlock()
	if !enabled {
		return
	}
	if h, ok := histos[metricKey(subsystem, name)]; ok {
		h.Observe(v)
		return
	}
	logger.Warn("[metrics-server] histogram not found", "subsystem", subsystem, "name", name)
}

func AddReminderQueued(n int) {
	AddCounter(SystemReminder, MetricReminderQueued, float64(n))
}

func IncReminderSkipped(reason string) {
	AddCounterVec(SystemReminder, MetricReminderEvaluationSkipped, 1, reason)
}

func AddReminderEvaluationDuration(seconds float64) {
	Observe(SystemReminder, MetricReminderEvaluationDuration, seconds)
}

// AddImportRows counts import rows by outcome: success, duplicate or error.
func AddImportRows(outcome string, n int) {
	AddCounterVec(SystemImport, MetricImportRows, float64(n), outcome)
}

func IncDispatch(status string) {
	AddCounterVec(SystemDispatch, MetricDispatch, 1, status)
}
