package metrics

import (
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	resolutions     *prom.CounterVec
	diagnostics     *prom.CounterVec
	watchRecomputes prom.Counter
	watchHits       prom.Counter
	changeChecks    *prom.HistogramVec
	resolveDuration prom.Histogram
	filesResolved   prom.Gauge
	activity        prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.resolutions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfx",
			Name:      "moniker_resolutions_total",
			Help:      "Moniker resolutions by level and whether any moniker applied",
		}, []string{"level", "result"})
		pr.diagnostics = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "docfx",
			Name:      "moniker_diagnostics_total",
			Help:      "Moniker diagnostics by code",
		}, []string{"code"})
		pr.watchRecomputes = prom.NewCounter(prom.CounterOpts{
			Namespace: "docfx",
			Name:      "watch_recomputes_total",
			Help:      "Watched values recomputed because a dependency changed",
		})
		pr.watchHits = prom.NewCounter(prom.CounterOpts{
			Namespace: "docfx",
			Name:      "watch_cache_hits_total",
			Help:      "Watched values served from cache",
		})
		pr.changeChecks = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "docfx",
			Name:      "change_check_duration_seconds",
			Help:      "Duration of dependency graph change checks",
			Buckets:   prom.DefBuckets,
		}, []string{"changed"})
		pr.resolveDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "docfx",
			Name:      "resolve_duration_seconds",
			Help:      "Duration of a full docset moniker resolution pass",
			Buckets:   prom.DefBuckets,
		})
		pr.filesResolved = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docfx",
			Name:      "files_resolved",
			Help:      "Files resolved in the last pass",
		})
		pr.activity = prom.NewGauge(prom.GaugeOpts{
			Namespace: "docfx",
			Name:      "activity_id",
			Help:      "Current change-tracking activity id",
		})
		reg.MustRegister(pr.resolutions, pr.diagnostics, pr.watchRecomputes, pr.watchHits,
			pr.changeChecks, pr.resolveDuration, pr.filesResolved, pr.activity)
	})
	return pr
}

// HTTPHandler returns an http.Handler that serves the metrics of reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) IncMonikerResolution(level ResolutionLevel, resolved bool) {
	if p == nil || p.resolutions == nil {
		return
	}
	res := "empty"
	if resolved {
		res = "resolved"
	}
	p.resolutions.WithLabelValues(string(level), res).Inc()
}

func (p *PrometheusRecorder) IncDiagnostic(code string) {
	if p == nil || p.diagnostics == nil {
		return
	}
	p.diagnostics.WithLabelValues(code).Inc()
}

func (p *PrometheusRecorder) IncWatchRecompute() {
	if p == nil || p.watchRecomputes == nil {
		return
	}
	p.watchRecomputes.Inc()
}

func (p *PrometheusRecorder) IncWatchCacheHit() {
	if p == nil || p.watchHits == nil {
		return
	}
	p.watchHits.Inc()
}

func (p *PrometheusRecorder) ObserveChangeCheck(d time.Duration, changed bool) {
	if p == nil || p.changeChecks == nil {
		return
	}
	label := "false"
	if changed {
		label = "true"
	}
	p.changeChecks.WithLabelValues(label).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveResolveDuration(d time.Duration) {
	if p == nil || p.resolveDuration == nil {
		return
	}
	p.resolveDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetFilesResolved(n int) {
	if p == nil || p.filesResolved == nil {
		return
	}
	p.filesResolved.Set(float64(n))
}

func (p *PrometheusRecorder) SetActivity(id int64) {
	if p == nil || p.activity == nil {
		return
	}
	p.activity.Set(float64(id))
}
