package metric

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yndnr/roster-go/internal/storage/snapshot"
)

const namespace = "roster"

// Registry holds all application metrics.
type Registry struct {
	reg *prometheus.Registry

	// Snapshot scheduler
	SnapshotsTotal   *prometheus.CounterVec
	SnapshotDuration prometheus.Histogram
	SnapshotOverlaps prometheus.Counter
	SnapshotTimeouts prometheus.Counter
	SchedulerRunning prometheus.Gauge
	LastSuccess      prometheus.Gauge

	// Snapshot report
	ReportFiles   prometheus.Gauge
	ReportSkipped prometheus.Gauge

	// Admin API
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewRegistry creates and registers all metrics, plus the Go runtime and
// process collectors.
func NewRegistry() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		SnapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "total",
			Help:      "Snapshot operations by result",
		}, []string{"result"}),
		SnapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "duration_seconds",
			Help:      "Duration of finished snapshot operations",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		SnapshotOverlaps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "overlaps_total",
			Help:      "Ticks skipped because a snapshot was still in flight",
		}),
		SnapshotTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "timeouts_total",
			Help:      "Forced scheduler shutdowns after reaching the overlap ceiling",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "scheduler_running",
			Help:      "1 while the snapshot schedule is armed",
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "snapshot",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed snapshot",
		}),
		ReportFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "files",
			Help:      "Snapshot files read by the last report",
		}),
		ReportSkipped: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "skipped_files",
			Help:      "Snapshot files skipped by the last report",
		}),
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Admin API requests",
		}, []string{"method", "route", "code"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Admin API request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.SnapshotsTotal,
		r.SnapshotDuration,
		r.SnapshotOverlaps,
		r.SnapshotTimeouts,
		r.SchedulerRunning,
		r.LastSuccess,
		r.ReportFiles,
		r.ReportSkipped,
		r.RequestsTotal,
		r.RequestDuration,
	)
	return r
}

// Registerer exposes the underlying registry for components that own
// their own collectors.
func (r *Registry) Registerer() prometheus.Registerer {
	return r.reg
}

// Observe records a snapshot scheduler event.
func (r *Registry) Observe(ev snapshot.Event) {
	switch ev.Kind {
	case snapshot.EventStarted:
		r.SchedulerRunning.Set(1)
	case snapshot.EventStopped:
		r.SchedulerRunning.Set(0)
	case snapshot.EventCompleted:
		r.SnapshotsTotal.WithLabelValues("completed").Inc()
		r.SnapshotDuration.Observe(ev.Duration.Seconds())
		r.LastSuccess.Set(float64(ev.Time.Unix()))
	case snapshot.EventFailed:
		r.SnapshotsTotal.WithLabelValues("failed").Inc()
		r.SnapshotDuration.Observe(ev.Duration.Seconds())
	case snapshot.EventOverlap:
		r.SnapshotOverlaps.Inc()
	case snapshot.EventTimeout:
		r.SnapshotTimeouts.Inc()
		r.SchedulerRunning.Set(0)
	}
}

// ObserveReport records the outcome of a report.
func (r *Registry) ObserveReport(rep *snapshot.Report) {
	r.ReportFiles.Set(float64(rep.FileCount))
	r.ReportSkipped.Set(float64(rep.Skipped))
}

// ObserveRequest records one admin API request.
func (r *Registry) ObserveRequest(method, route string, code int, elapsed time.Duration) {
	r.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// Handler returns the /metrics handler.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
