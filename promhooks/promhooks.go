// Package promhooks exports level and checkpoint events as Prometheus
// metrics. Labels are limited to level id, factory name and fixed reasons,
// so cardinality follows the size of the factory graph.
package promhooks

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/mglevel"
	"github.com/unkn0wn-root/mglevel/checkpoint"
)

type Options struct {
	Namespace string    // metric prefix; "" => "mglevel"
	Buckets   []float64 // build duration buckets; nil => prometheus.DefBuckets
}

// Hooks implements mglevel.Hooks and checkpoint.Hooks.
type Hooks struct {
	Builds        *prometheus.CounterVec
	BuildDuration *prometheus.HistogramVec
	Evictions     *prometheus.CounterVec
	Deletes       *prometheus.CounterVec
	Misuse        *prometheus.CounterVec

	SelfHeals         *prometheus.CounterVec
	SetRejected       *prometheus.CounterVec
	InvalidateOutages prometheus.Counter
}

var (
	_ mglevel.Hooks    = (*Hooks)(nil)
	_ checkpoint.Hooks = (*Hooks)(nil)
)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, opts Options) (*Hooks, error) {
	ns := opts.Namespace
	if ns == "" {
		ns = "mglevel"
	}
	buckets := opts.Buckets
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}

	h := &Hooks{
		Builds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "factory",
				Name:      "builds_total",
				Help:      "Factory Build calls by outcome (ok, error)",
			},
			[]string{"level", "factory", "status"},
		),

		BuildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: ns,
				Subsystem: "factory",
				Name:      "build_duration_seconds",
				Help:      "Factory Build duration in seconds",
				Buckets:   buckets,
			},
			[]string{"factory"},
		),

		Evictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "level",
				Name:      "evictions_total",
				Help:      "Produced values dropped by their last release",
			},
			[]string{"level"},
		),

		Deletes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "level",
				Name:      "deletes_total",
				Help:      "Entries removed with Delete",
			},
			[]string{"level"},
		),

		Misuse: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "level",
				Name:      "misuse_total",
				Help:      "Rejected calls (over_release, unrequested_get)",
			},
			[]string{"level", "kind"},
		),

		SelfHeals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "checkpoint",
				Name:      "self_heals_total",
				Help:      "Checkpoint frames dropped on restore, by reason",
			},
			[]string{"reason"},
		),

		SetRejected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "checkpoint",
				Name:      "set_rejected_total",
				Help:      "Checkpoint writes refused by the provider (single, bulk)",
			},
			[]string{"kind"},
		),

		InvalidateOutages: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: ns,
				Subsystem: "checkpoint",
				Name:      "invalidate_outages_total",
				Help:      "Invalidate calls that failed to bump or delete",
			},
		),
	}

	for _, c := range []prometheus.Collector{
		h.Builds, h.BuildDuration, h.Evictions, h.Deletes, h.Misuse,
		h.SelfHeals, h.SetRejected, h.InvalidateOutages,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func lv(level int) string { return strconv.Itoa(level) }

func (h *Hooks) FactoryBuilt(level int, factory string, took time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	h.Builds.WithLabelValues(lv(level), factory, status).Inc()
	h.BuildDuration.WithLabelValues(factory).Observe(took.Seconds())
}

func (h *Hooks) Evicted(level int, _, _ string) {
	h.Evictions.WithLabelValues(lv(level)).Inc()
}

func (h *Hooks) Deleted(level int, _, _ string) {
	h.Deletes.WithLabelValues(lv(level)).Inc()
}

func (h *Hooks) OverReleased(level int, _, _ string) {
	h.Misuse.WithLabelValues(lv(level), "over_release").Inc()
}

func (h *Hooks) UnrequestedGet(level int, _, _ string) {
	h.Misuse.WithLabelValues(lv(level), "unrequested_get").Inc()
}

func (h *Hooks) SelfHeal(_, reason string) {
	h.SelfHeals.WithLabelValues(reason).Inc()
}

func (h *Hooks) ProviderSetRejected(_ string, isBulk bool) {
	kind := "single"
	if isBulk {
		kind = "bulk"
	}
	h.SetRejected.WithLabelValues(kind).Inc()
}

func (h *Hooks) InvalidateOutage(string, error, error) {
	h.InvalidateOutages.Inc()
}
