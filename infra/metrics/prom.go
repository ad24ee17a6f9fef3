package metrics

import (
	coremetrics "github.com/kilianp07/microgrid/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink exposes the latest dispatch step and run summaries as Prometheus
// metrics.
type PromSink struct {
	power    *prometheus.GaugeVec
	online   prometheus.Gauge
	energy   *prometheus.CounterVec
	summary  *prometheus.GaugeVec
	replaced *prometheus.CounterVec
	timestep prometheus.Gauge
}

// NewPromSink registers the sink metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer. Collectors
// already registered by an earlier sink are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	power := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "microgrid_step_power_kw",
		Help: "Power of the last dispatched timestep by flow",
	}, []string{"flow"})
	online := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "microgrid_step_units_online",
		Help: "Combustion generators online in the last dispatched timestep",
	})
	energy := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "microgrid_energy_kwh_total",
		Help: "Energy integrated over dispatched timesteps by flow",
	}, []string{"flow"})
	summary := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "microgrid_run_summary",
		Help: "Aggregates of finished runs",
	}, []string{"run_id", "field"})
	replaced := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "microgrid_sink_replacements_total",
		Help: "Hydrogen sub-unit replacements received by the sink",
	}, []string{"run_id", "unit"})
	timestep := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "microgrid_step_timestep",
		Help: "Index of the last dispatched timestep",
	})

	var err error
	if power, err = register(reg, power); err != nil {
		return nil, err
	}
	if online, err = register(reg, online); err != nil {
		return nil, err
	}
	if energy, err = register(reg, energy); err != nil {
		return nil, err
	}
	if summary, err = register(reg, summary); err != nil {
		return nil, err
	}
	if replaced, err = register(reg, replaced); err != nil {
		return nil, err
	}
	if timestep, err = register(reg, timestep); err != nil {
		return nil, err
	}
	return &PromSink{power: power, online: online, energy: energy, summary: summary, replaced: replaced, timestep: timestep}, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordStep sets the power gauges and accumulates the step energies.
func (s *PromSink) RecordStep(rec coremetrics.StepRecord) error {
	flows := map[string]float64{
		"load":              rec.LoadKW,
		"net_load":          rec.NetLoadKW,
		"combustion":        rec.CombustionKW,
		"noncombustion":     rec.NoncombustionKW,
		"renewable":         rec.RenewableKW,
		"storage_discharge": rec.StorageDischargeKW,
		"storage_charge":    rec.StorageChargeKW,
		"curtailment":       rec.CurtailmentKW,
		"allocated":         rec.AllocatedKW,
		"missed_load":       rec.MissedLoadKW,
		"missed_firm":       rec.MissedFirmKW,
		"missed_reserve":    rec.MissedReserveKW,
	}
	for flow, kW := range flows {
		s.power.WithLabelValues(flow).Set(kW)
		if flow != "allocated" && kW > 0 && rec.DtHrs > 0 {
			s.energy.WithLabelValues(flow).Add(kW * rec.DtHrs)
		}
	}
	s.online.Set(float64(rec.UnitsOnline))
	s.timestep.Set(float64(rec.Timestep))
	return nil
}

// RecordRunSummary exports the run aggregates labelled by run id.
func (s *PromSink) RecordRunSummary(sum coremetrics.RunSummary) error {
	fields := map[string]float64{
		"steps":              float64(sum.Steps),
		"duration_seconds":   sum.Duration.Seconds(),
		"served_kwh":         sum.ServedKWh,
		"missed_load_kwh":    sum.MissedLoadKWh,
		"missed_firm_kwh":    sum.MissedFirmKWh,
		"missed_reserve_kwh": sum.MissedReserveKWh,
		"curtailed_kwh":      sum.CurtailedKWh,
		"shortfall_steps":    float64(sum.ShortfallSteps),
		"mean_net_load_kw":   sum.MeanNetLoadKW,
		"peak_net_load_kw":   sum.PeakNetLoadKW,
		"std_net_load_kw":    sum.StdNetLoadKW,
		"replacements":       float64(sum.Replacements),
		"commitment_entries": float64(sum.CommitmentEntries),
	}
	for field, v := range fields {
		s.summary.WithLabelValues(sum.RunID, field).Set(v)
	}
	return nil
}

// RecordReplacement counts hydrogen sub-unit replacements.
func (s *PromSink) RecordReplacement(ev coremetrics.ReplacementEvent) error {
	s.replaced.WithLabelValues(ev.RunID, ev.Unit).Inc()
	return nil
}
