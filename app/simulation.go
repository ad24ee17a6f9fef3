// Package app wires a scenario configuration into a dispatch run: it builds
// the assets, attaches the metrics, log store and event adapters, runs the
// dispatcher and exports the results.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/microgrid/app/plugins"
	"github.com/kilianp07/microgrid/config"
	"github.com/kilianp07/microgrid/core/asset"
	"github.com/kilianp07/microgrid/core/dispatch"
	dispatchlog "github.com/kilianp07/microgrid/core/dispatch/logging"
	coremetrics "github.com/kilianp07/microgrid/core/metrics"
	"github.com/kilianp07/microgrid/core/model"
	"github.com/kilianp07/microgrid/core/storage/hydrogen"
	"github.com/kilianp07/microgrid/core/thermal"
	"github.com/kilianp07/microgrid/infra/logger"
	inframetrics "github.com/kilianp07/microgrid/infra/metrics"
	"github.com/kilianp07/microgrid/internal/eventbus"
	"github.com/kilianp07/microgrid/pkg/export"
)

// eventBuffer sizes the bus so a collector keeps up with bursts of
// shortfall events.
const eventBuffer = 1024

// Output file names under config.OutputConfig.Dir.
const (
	TimeSeriesFile = "timeseries.csv"
	SummaryFile    = "summary.json"
	CommitmentFile = "commitment.csv"
)

// StorageReport describes a storage asset at the end of a run.
type StorageReport struct {
	Name     string            `json:"name"`
	Kind     string            `json:"kind"`
	Hydrogen *hydrogen.Summary `json:"hydrogen,omitempty"`
}

// Report is the outcome of a simulation run.
type Report struct {
	RunID         string                 `json:"run_id"`
	Summary       coremetrics.RunSummary `json:"summary"`
	Storage       []StorageReport        `json:"storage"`
	H2TempC       *float64               `json:"h2_temp_c,omitempty"`
	LiIonTempC    *float64               `json:"liion_temp_c,omitempty"`
	DroppedEvents uint64                 `json:"dropped_events"`
	Files         []string               `json:"files,omitempty"`
}

// Simulation owns every collaborator of one dispatch run.
type Simulation struct {
	cfg   *config.Config
	log   logger.Logger
	runID string

	load    *model.ElectricalLoad
	res     *model.Resources
	fleet   dispatch.Fleet
	ledger  *thermal.HeatLedger
	sink    coremetrics.MetricsSink
	store   dispatchlog.LogStore
	bus     *eventbus.Bus
	disp    *dispatch.Dispatcher
	started time.Time

	collector *inframetrics.EventCollector
}

// New builds the assets and adapters described by cfg.
func New(cfg *config.Config) (*Simulation, error) {
	s := &Simulation{cfg: cfg, log: logger.New("simulation"), runID: uuid.NewString()}
	var err error
	if s.load, err = buildLoad(cfg.Load); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	n := s.load.NPoints()
	if s.res, err = buildResources(cfg.Resources); err != nil {
		return nil, fmt.Errorf("resources: %w", err)
	}
	if err := s.buildFleet(n); err != nil {
		return nil, err
	}
	if cfg.Thermal != nil {
		if s.ledger, err = thermal.NewHeatLedger(n, *cfg.Thermal); err != nil {
			return nil, err
		}
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, err
	}
	s.sink = coremetrics.NewSampledSink(sink, cfg.Metrics)
	if cfg.Logging.Backend != "none" {
		if s.store, err = plugins.NewLogStore(cfg.Logging); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("log store: %w", err)
		}
	}
	s.bus = eventbus.New(eventbus.WithBuffer(eventBuffer))

	s.disp, err = dispatch.New(cfg.Dispatch, logger.New("dispatcher"),
		dispatch.WithMetricsSink(s.sink),
		dispatch.WithBus(s.bus),
		dispatch.WithLogStore(s.store),
		dispatch.WithRunID(s.runID),
	)
	if err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Simulation) buildFleet(n int) error {
	for _, c := range s.cfg.Combustion {
		g, err := asset.NewDiesel(n, c)
		if err != nil {
			return err
		}
		s.fleet.Combustion = append(s.fleet.Combustion, g)
	}
	for _, c := range s.cfg.Noncombustion {
		h, err := asset.NewHydro(n, c)
		if err != nil {
			return err
		}
		s.fleet.Noncombustion = append(s.fleet.Noncombustion, h)
	}
	for _, c := range s.cfg.Renewables {
		if len(c.Normalized) == 0 && c.NormalizedPath != "" {
			series, err := readNormalized(c.NormalizedPath)
			if err != nil {
				return fmt.Errorf("renewable %q: %w", c.Name, err)
			}
			c.Normalized = series
		}
		r, err := asset.NewRenewable(n, c)
		if err != nil {
			return err
		}
		s.fleet.Renewables = append(s.fleet.Renewables, r)
	}
	deps := plugins.StorageDeps{
		Log:           logger.New("storage"),
		OnReplacement: s.onReplacement,
	}
	for i, m := range s.cfg.Storage {
		name, _ := m.Conf["name"].(string)
		if name == "" {
			name = fmt.Sprintf("%s_%d", m.Type, i)
		}
		st, err := plugins.NewStorage(m.Type, name, n, m.Conf, deps)
		if err != nil {
			return err
		}
		s.fleet.Storage = append(s.fleet.Storage, st)
	}
	return nil
}

func (s *Simulation) onReplacement(r hydrogen.Replacement) {
	if s.disp != nil {
		s.disp.NotifyReplacement(r.System, r.Unit, r.Timestep, r.Count)
	}
}

// RunID identifies the run in records, events and output files.
func (s *Simulation) RunID() string { return s.runID }

// Events returns the collector of the last run, nil before Run.
func (s *Simulation) Events() *inframetrics.EventCollector { return s.collector }

// Dispatcher exposes the dispatcher for result inspection.
func (s *Simulation) Dispatcher() *dispatch.Dispatcher { return s.disp }

// Run dispatches the whole horizon and writes the configured outputs.
func (s *Simulation) Run(ctx context.Context) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.collector = inframetrics.StartEventCollector(ctx, s.bus, logger.New("events"))
	if port := s.cfg.Metrics.PrometheusPort; port > 0 {
		go func() {
			if err := inframetrics.StartPromServer(runCtx, fmt.Sprintf(":%d", port), nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	s.started = time.Now()
	s.log.Infof("run %s: %d timesteps, %d generators, %d storage assets", s.runID, s.load.NPoints(), len(s.fleet.Combustion), len(s.fleet.Storage))
	if err := s.disp.Init(s.load, s.res, s.fleet); err != nil {
		return nil, fmt.Errorf("init: %w", err)
	}
	var th thermal.Model
	if s.ledger != nil {
		th = s.ledger
	}
	if err := s.disp.ApplyDispatchControl(s.load, s.res, s.fleet, th); err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	rep := s.report()
	if r, ok := s.sink.(coremetrics.RunSummaryRecorder); ok {
		if err := r.RecordRunSummary(rep.Summary); err != nil {
			s.log.Warnf("record run summary: %v", err)
		}
	}
	if err := s.writeOutputs(rep); err != nil {
		return rep, err
	}
	s.log.Infof("run %s done in %s: served %.1f kWh, missed %.1f kWh over %d steps",
		s.runID, time.Since(s.started).Round(time.Millisecond), rep.Summary.ServedKWh, rep.Summary.MissedLoadKWh, rep.Summary.ShortfallSteps)
	return rep, nil
}

func (s *Simulation) report() *Report {
	rep := &Report{RunID: s.runID, Summary: s.disp.Summary(), DroppedEvents: s.bus.Dropped()}
	for _, st := range s.fleet.Storage {
		sr := StorageReport{Name: st.Name(), Kind: st.Kind().String()}
		if h, ok := st.(*hydrogen.System); ok {
			sum := h.Summary()
			sr.Hydrogen = &sum
		}
		rep.Storage = append(rep.Storage, sr)
	}
	if s.ledger != nil {
		h2, li := s.ledger.H2TempC(), s.ledger.LiIonTempC()
		rep.H2TempC, rep.LiIonTempC = &h2, &li
	}
	return rep
}

func (s *Simulation) writeOutputs(rep *Report) error {
	dir := s.cfg.Output.Dir
	if s.cfg.Output.Disabled || dir == "" {
		return nil
	}
	d := s.disp
	series := []export.Series{
		{Name: "load_kw", Values: s.load.Load},
		{Name: "net_load_kw", Values: d.NetLoadKW()},
		{Name: "allocated_kw", Values: d.AllocatedCapacityKW()},
		{Name: "combustion_kw", Values: d.CombustionProductionKW()},
		{Name: "missed_load_kw", Values: d.MissedLoadKW()},
		{Name: "missed_firm_kw", Values: d.MissedFirmDispatchKW()},
		{Name: "missed_reserve_kw", Values: d.MissedSpinningReserveKW()},
	}
	for _, st := range s.fleet.Storage {
		if h, ok := st.(*hydrogen.System); ok {
			series = append(series, export.Series{Name: st.Name() + "_tank_kg", Values: h.TankLevelVecKg})
		}
	}
	files := map[string]func(io.Writer) error{
		TimeSeriesFile: func(w io.Writer) error { return export.WriteTimeSeriesCSV(w, s.load.TimeHrs, series...) },
	}
	if s.cfg.Output.Commitment && d.Table() != nil {
		files[CommitmentFile] = func(w io.Writer) error { return export.WriteCommitmentCSV(w, d.Table().Entries()) }
	}
	for _, name := range []string{TimeSeriesFile, CommitmentFile} {
		write, ok := files[name]
		if !ok {
			continue
		}
		path := filepath.Join(dir, name)
		if err := export.WriteFile(path, write); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		rep.Files = append(rep.Files, path)
	}
	path := filepath.Join(dir, SummaryFile)
	rep.Files = append(rep.Files, path)
	if err := export.WriteFile(path, func(w io.Writer) error { return export.WriteSummaryJSON(w, rep) }); err != nil {
		return fmt.Errorf("write %s: %w", SummaryFile, err)
	}
	return nil
}

// Close releases the metrics sink and the log store, then closes the event
// bus and waits for the collector to drain it.
func (s *Simulation) Close() error {
	var errs []error
	if c, ok := s.sink.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	if s.bus != nil {
		s.bus.Close()
	}
	if s.collector != nil {
		<-s.collector.Done()
	}
	return errors.Join(errs...)
}
