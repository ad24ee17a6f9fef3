package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stepsDispatched   prometheus.Counter
	shortfallSteps    *prometheus.CounterVec
	missedEnergy      *prometheus.CounterVec
	commitmentEntries prometheus.Gauge
	unitReplacements  *prometheus.CounterVec
	runDuration       prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Counter, *prometheus.CounterVec, *prometheus.CounterVec, prometheus.Gauge, *prometheus.CounterVec, prometheus.Histogram) {
	steps := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "microgrid_dispatch_steps_total",
			Help: "Number of timesteps dispatched",
		},
	)
	short := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microgrid_shortfall_steps_total",
			Help: "Number of timesteps with a residual above tolerance",
		},
		[]string{"kind"},
	)
	missed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microgrid_missed_energy_kwh_total",
			Help: "Energy not served, by requirement",
		},
		[]string{"kind"},
	)
	entries := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "microgrid_commitment_table_entries",
			Help: "Distinct capacities in the unit commitment table",
		},
	)
	repl := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "microgrid_unit_replacements_total",
			Help: "Hydrogen sub-unit replacements",
		},
		[]string{"storage", "unit"},
	)
	dur := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "microgrid_dispatch_run_duration_seconds",
			Help:    "Wall time of a dispatch run",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		},
	)
	return steps, short, missed, entries, repl, dur
}

func init() {
	stepsDispatched, shortfallSteps, missedEnergy, commitmentEntries, unitReplacements, runDuration = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers dispatch metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(stepsDispatched, shortfallSteps, missedEnergy, commitmentEntries, unitReplacements, runDuration)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	stepsDispatched, shortfallSteps, missedEnergy, commitmentEntries, unitReplacements, runDuration = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
