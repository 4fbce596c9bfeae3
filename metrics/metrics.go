// Package metrics records what a generation run produced, for scraping
// through the node exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360studio/hggcard/analysis"
	"github.com/c360studio/hggcard/datacard"
	"github.com/c360studio/hggcard/yields"
)

const namespace = "hggcard"

// Recorder holds the metrics of one run in a private registry.
type Recorder struct {
	registry *prometheus.Registry

	nuisances      *prometheus.GaugeVec
	categories     prometheus.Gauge
	processes      prometheus.Gauge
	columns        prometheus.Gauge
	lookups        prometheus.Counter
	lookupFailures prometheus.Counter
	duration       prometheus.Gauge
	lastSuccess    prometheus.Gauge
}

// New creates a recorder with all metrics registered.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		nuisances: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "card",
			Name:      "nuisances",
			Help:      "Nuisance lines written, by kind.",
		}, []string{"kind"}),
		categories: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "card",
			Name:      "categories",
			Help:      "Analysis categories in the card.",
		}),
		processes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "card",
			Name:      "processes",
			Help:      "Processes in the card, background included.",
		}),
		columns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "card",
			Name:      "columns",
			Help:      "Rate columns after skipped cells are removed.",
		}),
		lookups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "yield",
			Name:      "lookups_total",
			Help:      "Template integrals requested from the yield source.",
		}),
		lookupFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "yield",
			Name:      "lookup_failures_total",
			Help:      "Template integral requests that failed.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Wall time of the last generation.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful generation.",
		}),
	}

	r.registry.MustRegister(
		r.nuisances,
		r.categories,
		r.processes,
		r.columns,
		r.lookups,
		r.lookupFailures,
		r.duration,
		r.lastSuccess,
	)
	return r
}

// ObserveCard records the shape of a generated card.
func (r *Recorder) ObserveCard(setup *analysis.Setup, card *datacard.Card) {
	counts := map[string]int{
		datacard.KindLnN:      0,
		datacard.KindShape:    0,
		datacard.KindParam:    0,
		datacard.KindDiscrete: 0,
	}
	for _, row := range card.Rows() {
		counts[row.Kind]++
	}
	for kind, n := range counts {
		r.nuisances.WithLabelValues(kind).Set(float64(n))
	}

	r.categories.Set(float64(setup.NCats))
	r.processes.Set(float64(len(setup.Procs)))
	r.columns.Set(float64(len(card.Columns)))
}

// ObserveRun records a finished generation.
func (r *Recorder) ObserveRun(d time.Duration, err error) {
	r.duration.Set(d.Seconds())
	if err == nil {
		r.lastSuccess.SetToCurrentTime()
	}
}

// WriteFile writes the registry in the Prometheus text format, atomically.
func (r *Recorder) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// Source wraps src so every integral lookup is counted.
func (r *Recorder) Source(src yields.Source) yields.Source {
	return &countingSource{Source: src, r: r}
}

type countingSource struct {
	yields.Source
	r *Recorder
}

func (s *countingSource) Integral(name string) (float64, error) {
	s.r.lookups.Inc()
	v, err := s.Source.Integral(name)
	if err != nil {
		s.r.lookupFailures.Inc()
	}
	return v, err
}

// IntLumi forwards to the wrapped source so the luminosity fallback still works.
func (s *countingSource) IntLumi() (float64, bool) {
	if ls, ok := s.Source.(yields.LumiSource); ok {
		return ls.IntLumi()
	}
	return 0, false
}
