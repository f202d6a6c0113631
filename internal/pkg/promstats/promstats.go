// Package promstats exposes Prometheus metrics for ingestion, caching and
// uploads. A nil *Metrics is valid and records nothing.
package promstats

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Rows kept after date filtering, by source file type
	RowsIngested *prometheus.CounterVec

	// Files skipped during a load, by folder and reason
	FilesSkipped *prometheus.CounterVec

	// Cache lookups by view and result ("hit", "stale", "miss", "error")
	CacheLookups *prometheus.CounterVec

	// Uploads by file type and outcome ("accepted", "rejected")
	Uploads *prometheus.CounterVec

	// Time to load and compute one view
	RecomputeDuration *prometheus.HistogramVec
}

// New registers the metrics on reg. Pass prometheus.DefaultRegisterer in
// the server and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RowsIngested: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connect_metrics_rows_ingested_total",
			Help: "Rows loaded from storage after date filtering, by source",
		}, []string{"source"}),

		FilesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connect_metrics_files_skipped_total",
			Help: "Files skipped while loading a folder",
		}, []string{"folder", "reason"}),

		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connect_metrics_cache_lookups_total",
			Help: "Metrics cache lookups by view and result",
		}, []string{"view", "result"}),

		Uploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "connect_metrics_uploads_total",
			Help: "CSV uploads by file type and outcome",
		}, []string{"file_type", "outcome"}),

		RecomputeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "connect_metrics_recompute_duration_seconds",
			Help:    "Duration of loading source files and computing a view",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"view"}),
	}
}

func (m *Metrics) AddRows(source string, n int) {
	if m != nil {
		m.RowsIngested.WithLabelValues(source).Add(float64(n))
	}
}

func (m *Metrics) SkipFile(folder, reason string) {
	if m != nil {
		m.FilesSkipped.WithLabelValues(folder, reason).Inc()
	}
}

func (m *Metrics) CacheLookup(view, result string) {
	if m != nil {
		m.CacheLookups.WithLabelValues(view, result).Inc()
	}
}

func (m *Metrics) Upload(fileType, outcome string) {
	if m != nil {
		m.Uploads.WithLabelValues(fileType, outcome).Inc()
	}
}

func (m *Metrics) ObserveRecompute(view string, d time.Duration) {
	if m != nil {
		m.RecomputeDuration.WithLabelValues(view).Observe(d.Seconds())
	}
}
