// Package dispatch runs the per-timestep allocation of load, firm dispatch
// and spinning reserve across non-dispatchable generators, storage,
// dispatchable generators and renewables.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kilianp07/microgrid/core/asset"
	"github.com/kilianp07/microgrid/core/commitment"
	"github.com/kilianp07/microgrid/core/dispatch/logging"
	"github.com/kilianp07/microgrid/core/events"
	"github.com/kilianp07/microgrid/core/logger"
	"github.com/kilianp07/microgrid/core/metrics"
	"github.com/kilianp07/microgrid/core/model"
	"github.com/kilianp07/microgrid/core/storage"
	"github.com/kilianp07/microgrid/core/thermal"
	"github.com/kilianp07/microgrid/internal/eventbus"
)

// shortfallTolerance is the residual below which a requirement counts as met.
const shortfallTolerance = 1e-6

var (
	ErrNotInitialized  = errors.New("dispatcher not initialized")
	ErrLengthMismatch  = errors.New("time series length mismatch")
	ErrMissingResource = errors.New("missing resource series")
)

// Fleet holds the assets of one run. Index positions are the asset
// identities for the lifetime of the run.
type Fleet struct {
	Combustion    []asset.Combustion
	Noncombustion []asset.Noncombustion
	Renewables    []asset.Renewable
	Storage       []storage.Storage
}

// Dispatcher is the time series dispatch controller. One instance serves one
// run at a time.
type Dispatcher struct {
	cfg   Config
	mode  model.ControlMode
	log   logger.Logger
	sink  metrics.MetricsSink
	bus   eventbus.EventBus
	store logging.LogStore
	runID string

	table       *commitment.Table
	nPoints     int
	initialized bool

	netLoadKW      []float64
	missedLoadKW   []float64
	missedFirmKW   []float64
	missedReserve  []float64
	allocatedKW    []float64
	combustionKW   []float64
	dtHrs          []float64
	discharging    []bool
	servedKWh      float64
	curtailedKWh   float64
	sinkFailures   int
	replacements   int
	lastRunElapsed time.Duration

	// per-step scratch
	ncAvailable []float64
	ncResource  []float64
	sources     []asset.Asset
	accepted    []float64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMetricsSink records every timestep on s.
func WithMetricsSink(s metrics.MetricsSink) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.sink = s
		}
	}
}

// WithBus publishes run, shortfall and replacement events on b.
func WithBus(b eventbus.EventBus) Option {
	return func(d *Dispatcher) { d.bus = b }
}

// WithLogStore persists shortfall timesteps in s.
func WithLogStore(s logging.LogStore) Option {
	return func(d *Dispatcher) { d.store = s }
}

// WithRunID tags records and events with id.
func WithRunID(id string) Option {
	return func(d *Dispatcher) { d.runID = id }
}

// New validates cfg and returns a Dispatcher.
func New(cfg Config, log logger.Logger, opts ...Option) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mode, err := model.ParseControlMode(cfg.ControlMode)
	if err != nil {
		return nil, err
	}
	d := &Dispatcher{
		cfg:  cfg,
		mode: mode,
		log:  logger.OrNop(log),
		sink: metrics.NopSink{},
	}
	for _, o := range opts {
		o(d)
	}
	return d, nil
}

// Init computes every renewable's production over the horizon, the net load
// and the unit commitment table.
func (d *Dispatcher) Init(load model.LoadProvider, res model.ResourceProvider, fleet Fleet) error {
	n := load.NPoints()
	d.nPoints = n
	d.netLoadKW = make([]float64, n)
	d.missedLoadKW = make([]float64, n)
	d.missedFirmKW = make([]float64, n)
	d.missedReserve = make([]float64, n)
	d.allocatedKW = make([]float64, n)
	d.combustionKW = make([]float64, n)
	d.dtHrs = make([]float64, n)
	d.discharging = make([]bool, len(fleet.Storage))
	d.ncAvailable = make([]float64, len(fleet.Noncombustion))
	d.ncResource = make([]float64, len(fleet.Noncombustion))
	d.initialized = false

	if err := d.computeRenewableProduction(load, res, fleet.Renewables); err != nil {
		return err
	}

	capacities := make([]float64, len(fleet.Combustion))
	for i, g := range fleet.Combustion {
		capacities[i] = g.CapacityKW()
	}
	table, err := commitment.Build(capacities,
		commitment.WithLogger(d.log),
		commitment.WithProgressThreshold(d.cfg.CommitmentProgressThreshold))
	if err != nil {
		return err
	}
	d.table = table
	commitmentEntries.Set(float64(table.Len()))
	d.initialized = true
	d.log.Debugw("dispatcher initialized", map[string]any{
		"run_id":            d.runID,
		"points":            n,
		"combustion":        len(fleet.Combustion),
		"noncombustion":     len(fleet.Noncombustion),
		"renewables":        len(fleet.Renewables),
		"storage":           len(fleet.Storage),
		"commitment_states": table.Len(),
	})
	return nil
}

func (d *Dispatcher) computeRenewableProduction(load model.LoadProvider, res model.ResourceProvider, renewables []asset.Renewable) error {
	for t := 0; t < d.nPoints; t++ {
		dt := load.DtHrs(t)
		total := 0.0
		for _, r := range renewables {
			sample, err := renewableSample(res, r, t)
			if err != nil {
				return err
			}
			kW := r.ComputeProductionKW(t, dt, sample)
			r.SetProductionKW(t, kW)
			total += kW
		}
		d.netLoadKW[t] = load.LoadKW(t) - total
	}
	return nil
}

func renewableSample(res model.ResourceProvider, r asset.Renewable, t int) (asset.Sample, error) {
	if r.NormalizedSeriesGiven() {
		return asset.Sample{}, nil
	}
	key := r.ResourceKey()
	switch kind := r.Kind(); kind {
	case model.Solar, model.Tidal, model.Wind:
		v, ok := res.Resource1D(key, t)
		if !ok {
			return asset.Sample{}, fmt.Errorf("%w: %s %q key %d at timestep %d", ErrMissingResource, kind, r.Name(), key, t)
		}
		return asset.Sample{Value: v}, nil
	case model.Wave:
		w, ok := res.Resource2D(key, t)
		if !ok {
			return asset.Sample{}, fmt.Errorf("%w: %s %q key %d at timestep %d", ErrMissingResource, kind, r.Name(), key, t)
		}
		return asset.Sample{Wave: w}, nil
	default:
		return asset.Sample{}, fmt.Errorf("%w: %d for %q", model.ErrUnknownRenewableKind, int(kind), r.Name())
	}
}

// ApplyDispatchControl dispatches every timestep in order. It must follow a
// successful Init over the same load. th may be nil.
func (d *Dispatcher) ApplyDispatchControl(load model.LoadProvider, res model.ResourceProvider, fleet Fleet, th thermal.Model) error {
	if !d.initialized {
		return ErrNotInitialized
	}
	if load.NPoints() != d.nPoints {
		return fmt.Errorf("%w: load has %d points, initialized with %d", ErrLengthMismatch, load.NPoints(), d.nPoints)
	}
	if len(fleet.Storage) != len(d.discharging) || len(fleet.Noncombustion) != len(d.ncAvailable) {
		return fmt.Errorf("%w: fleet changed since Init", ErrLengthMismatch)
	}

	start := time.Now()
	d.publish(events.RunEvent{RunID: d.runID, Phase: events.RunStarted, Steps: d.nPoints})
	err := d.run(load, res, fleet, th)
	d.lastRunElapsed = time.Since(start)
	runDuration.Observe(d.lastRunElapsed.Seconds())
	d.publish(events.RunEvent{RunID: d.runID, Phase: events.RunFinished, Steps: d.nPoints, Duration: d.lastRunElapsed, Err: err})
	return err
}

func (d *Dispatcher) run(load model.LoadProvider, res model.ResourceProvider, fleet Fleet, th thermal.Model) error {
	for i := range d.discharging {
		d.discharging[i] = false
	}
	d.servedKWh, d.curtailedKWh = 0, 0
	d.sinkFailures, d.replacements = 0, 0
	d.sources = curtailers(fleet)
	d.accepted = make([]float64, len(d.sources))
	for t := 0; t < d.nPoints; t++ {
		if err := d.step(t, load, res, fleet, th); err != nil {
			return fmt.Errorf("timestep %d: %w", t, err)
		}
	}
	return nil
}

func (d *Dispatcher) step(t int, load model.LoadProvider, res model.ResourceProvider, fleet Fleet, th thermal.Model) error {
	dt := load.DtHrs(t)
	loadKW := load.LoadKW(t) + d.hydrogenPreCommitment(t, dt, fleet.Storage)
	ls := d.requirements(t, loadKW, fleet.Renewables)
	rec := metrics.StepRecord{
		RunID:       d.runID,
		Timestep:    t,
		DtHrs:       dt,
		LoadKW:      loadKW,
		NetLoadKW:   d.netLoadKW[t],
		RenewableKW: ls.TotalRenewableProductionKW,
	}
	if lp, ok := load.(interface{ TimeAt(int) float64 }); ok {
		rec.TimeHrs = lp.TimeAt(t)
	}

	var err error
	if rec.NoncombustionKW, err = d.dispatchNoncombustion(t, dt, &ls, fleet.Noncombustion, res); err != nil {
		return err
	}
	rec.StorageDischargeKW = d.dispatchStorageDischarge(t, dt, &ls, fleet.Storage)

	var cycleCharging bool
	switch d.mode {
	case model.LoadFollowing:
	case model.CycleCharging:
		for _, on := range d.discharging {
			if !on {
				cycleCharging = true
				break
			}
		}
	default:
		return fmt.Errorf("%w: %d", model.ErrUnknownControlMode, int(d.mode))
	}
	rec.CombustionKW, rec.AllocatedKW, rec.UnitsOnline = d.dispatchCombustion(t, dt, &ls, fleet.Combustion, cycleCharging)
	ls.LoadKW = d.dispatchRenewables(t, dt, ls.LoadKW, fleet.Renewables)
	rec.StorageChargeKW = d.dispatchStorageCharge(t, dt, fleet.Storage)

	if th != nil {
		th.CommitH2ThermalTracking(t, dt, fleet.Storage)
		th.CommitLiIonThermalTracking(t, dt, fleet.Storage)
		th.CommitThermalBalance(t, dt, fleet.Storage)
	}

	rec.CurtailmentKW = d.totalCurtailment(t)
	d.recordResiduals(t, dt, ls, &rec)
	for i := range d.discharging {
		d.discharging[i] = false
	}
	return nil
}

// requirements builds the firm dispatch and spinning reserve targets of
// timestep t.
func (d *Dispatcher) requirements(t int, loadKW float64, renewables []asset.Renewable) model.LoadStruct {
	ls := model.LoadStruct{
		LoadKW:                 loadKW,
		RequiredFirmDispatchKW: d.cfg.FirmDispatchRatio * loadKW,
	}
	reserve := d.cfg.LoadReserveRatio * loadKW
	for _, r := range renewables {
		p := r.ProductionKW(t)
		ls.TotalRenewableProductionKW += p
		reserve += (1 - r.FirmnessFactor()) * p
	}
	if reserve > loadKW {
		reserve = loadKW
	}
	ls.RequiredSpinningReserveKW = reserve
	ls.ClampRequirements()
	return ls
}

func (d *Dispatcher) recordResiduals(t int, dt float64, ls model.LoadStruct, rec *metrics.StepRecord) {
	d.missedLoadKW[t] = residual(ls.LoadKW)
	d.missedFirmKW[t] = residual(ls.RequiredFirmDispatchKW)
	d.missedReserve[t] = residual(ls.RequiredSpinningReserveKW)
	rec.MissedLoadKW = d.missedLoadKW[t]
	rec.MissedFirmKW = d.missedFirmKW[t]
	rec.MissedReserveKW = d.missedReserve[t]
	d.allocatedKW[t] = rec.AllocatedKW
	d.combustionKW[t] = rec.CombustionKW
	d.dtHrs[t] = dt
	d.servedKWh += (rec.LoadKW - rec.MissedLoadKW) * dt
	d.curtailedKWh += rec.CurtailmentKW * dt

	stepsDispatched.Inc()
	if err := d.sink.RecordStep(*rec); err != nil {
		if d.sinkFailures == 0 {
			d.log.Errorf("metrics sink: %v", err)
		}
		d.sinkFailures++
	}
	if !rec.Shortfall() {
		return
	}
	for kind, v := range map[string]float64{"load": rec.MissedLoadKW, "firm": rec.MissedFirmKW, "reserve": rec.MissedReserveKW} {
		if v > 0 {
			shortfallSteps.WithLabelValues(kind).Inc()
			missedEnergy.WithLabelValues(kind).Add(v * dt)
		}
	}
	d.publish(events.ShortfallEvent{
		RunID:           d.runID,
		Timestep:        t,
		TimeHrs:         rec.TimeHrs,
		MissedLoadKW:    rec.MissedLoadKW,
		MissedFirmKW:    rec.MissedFirmKW,
		MissedReserveKW: rec.MissedReserveKW,
	})
	if d.store != nil {
		err := d.store.Append(context.Background(), logging.LogRecord{
			RunID:           d.runID,
			Timestep:        t,
			TimeHrs:         rec.TimeHrs,
			LoadKW:          rec.LoadKW,
			NetLoadKW:       rec.NetLoadKW,
			MissedLoadKW:    rec.MissedLoadKW,
			MissedFirmKW:    rec.MissedFirmKW,
			MissedReserveKW: rec.MissedReserveKW,
			Recorded:        time.Now(),
		})
		if err != nil {
			d.log.Warnf("shortfall log store: %v", err)
		}
	}
}

// NotifyReplacement reports a hydrogen sub-unit replacement raised during
// the run.
func (d *Dispatcher) NotifyReplacement(storageName, unit string, t, count int) {
	d.replacements++
	unitReplacements.WithLabelValues(storageName, unit).Inc()
	if r, ok := d.sink.(metrics.ReplacementRecorder); ok {
		if err := r.RecordReplacement(metrics.ReplacementEvent{
			RunID: d.runID, Storage: storageName, Unit: unit, Timestep: t, Count: count, Time: time.Now(),
		}); err != nil {
			d.log.Warnf("record replacement: %v", err)
		}
	}
	d.publish(events.ReplacementEvent{RunID: d.runID, Storage: storageName, Unit: unit, Timestep: t, Count: count})
}

func residual(kW float64) float64 {
	if kW > shortfallTolerance {
		return kW
	}
	return 0
}

func (d *Dispatcher) publish(ev eventbus.Event) {
	if d.bus != nil {
		d.bus.Publish(ev)
	}
}

// RunID returns the identifier attached to records and events.
func (d *Dispatcher) RunID() string { return d.runID }

// Table returns the unit commitment table built by Init.
func (d *Dispatcher) Table() *commitment.Table { return d.table }

// NetLoadKW is load minus renewable production per timestep.
func (d *Dispatcher) NetLoadKW() []float64 { return d.netLoadKW }

// MissedLoadKW is the unserved load per timestep.
func (d *Dispatcher) MissedLoadKW() []float64 { return d.missedLoadKW }

// MissedFirmDispatchKW is the unmet firm dispatch requirement per timestep.
func (d *Dispatcher) MissedFirmDispatchKW() []float64 { return d.missedFirmKW }

// MissedSpinningReserveKW is the unmet spinning reserve per timestep.
func (d *Dispatcher) MissedSpinningReserveKW() []float64 { return d.missedReserve }

// AllocatedCapacityKW is the commitment table capacity selected per timestep.
func (d *Dispatcher) AllocatedCapacityKW() []float64 { return d.allocatedKW }

// CombustionProductionKW is the total dispatchable production per timestep.
func (d *Dispatcher) CombustionProductionKW() []float64 { return d.combustionKW }
