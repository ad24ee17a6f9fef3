package dispatch

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/microgrid/core/asset"
	"github.com/kilianp07/microgrid/core/dispatch/logging"
	"github.com/kilianp07/microgrid/core/events"
	"github.com/kilianp07/microgrid/core/logger"
	"github.com/kilianp07/microgrid/core/metrics"
	"github.com/kilianp07/microgrid/core/model"
	"github.com/kilianp07/microgrid/core/storage"
	"github.com/kilianp07/microgrid/core/storage/hydrogen"
	"github.com/kilianp07/microgrid/core/storage/liion"
	"github.com/kilianp07/microgrid/core/thermal"
	"github.com/kilianp07/microgrid/internal/eventbus"
)

type recordingSink struct {
	steps        []metrics.StepRecord
	replacements []metrics.ReplacementEvent
}

func (s *recordingSink) RecordStep(r metrics.StepRecord) error {
	s.steps = append(s.steps, r)
	return nil
}

func (s *recordingSink) RecordReplacement(ev metrics.ReplacementEvent) error {
	s.replacements = append(s.replacements, ev)
	return nil
}

type failingSink struct{ calls int }

func (s *failingSink) RecordStep(metrics.StepRecord) error {
	s.calls++
	return errors.New("sink down")
}

type countLogger struct {
	logger.Nop
	errors int
}

func (l *countLogger) Errorf(string, ...any) { l.errors++ }

// oddRenewable reports a kind outside the known set.
type oddRenewable struct{ *asset.RenewablePlant }

func (oddRenewable) Kind() model.RenewableKind { return model.RenewableKind(42) }

func newDispatcher(t *testing.T, mutate func(*Config), opts ...Option) *Dispatcher {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	d, err := New(cfg, nil, opts...)
	require.NoError(t, err)
	return d
}

func run(t *testing.T, d *Dispatcher, load model.LoadProvider, res model.ResourceProvider, fleet Fleet, th thermal.Model) {
	t.Helper()
	require.NoError(t, d.Init(load, res, fleet))
	require.NoError(t, d.ApplyDispatchControl(load, res, fleet, th))
}

func newDiesel(t *testing.T, n int, name string, kW float64) *asset.Diesel {
	t.Helper()
	g, err := asset.NewDiesel(n, asset.DieselConfig{Name: name, CapacityKW: kW})
	require.NoError(t, err)
	return g
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(Config{ControlMode: "PEAK_SHAVING"}, nil)
	assert.ErrorIs(t, err, model.ErrUnknownControlMode)

	_, err = New(Config{FirmDispatchRatio: 1.5}, nil)
	assert.Error(t, err)
}

func TestHydrogenFuelCellServesConstantLoad(t *testing.T) {
	const n = 10
	h2, err := hydrogen.New(n, hydrogen.DefaultInputs())
	require.NoError(t, err)
	ledger, err := thermal.NewHeatLedger(n, thermal.Config{})
	require.NoError(t, err)

	load := model.ConstantLoad(n, 1, 50)
	fleet := Fleet{Storage: []storage.Storage{h2}}
	d := newDispatcher(t, nil)
	run(t, d, load, model.NewResources(), fleet, ledger)

	prev := 100.0
	for i := 0; i < n; i++ {
		assert.InDelta(t, 50, h2.DischargingVecKW[i], 1e-9, "step %d", i)
		assert.Less(t, h2.TankLevelVecKg[i], prev, "step %d", i)
		prev = h2.TankLevelVecKg[i]
		assert.Zero(t, d.MissedLoadKW()[i])
		assert.Zero(t, d.MissedFirmDispatchKW()[i])
		assert.Zero(t, d.MissedSpinningReserveKW()[i])
	}
	assert.Zero(t, h2.EL.TotalRuntimeHrs)
	assert.Greater(t, ledger.TotalHeatKWh, 0.0)
}

func TestFuelCellMinimumRuntimeHoldsUnitOn(t *testing.T) {
	in := hydrogen.DefaultInputs()
	in.FuelCell.MinRuntimeHrs = 0.5
	h2, err := hydrogen.New(4, in)
	require.NoError(t, err)

	load, err := model.NewElectricalLoad([]float64{0, 0.25, 0.5, 0.75}, []float64{50, 0, 0, 0})
	require.NoError(t, err)
	fleet := Fleet{Storage: []storage.Storage{h2}}
	run(t, newDispatcher(t, nil), load, model.NewResources(), fleet, nil)

	assert.InDelta(t, 50, h2.DischargingVecKW[0], 1e-9)
	assert.InDelta(t, h2.MinFCCapacityKW(), h2.DischargingVecKW[1], 1e-9)
	assert.Zero(t, h2.DischargingVecKW[2])
	assert.Zero(t, h2.DischargingVecKW[3])
	assert.Equal(t, 1, h2.FC.EnforcedRuntimes)
}

func TestCombustionNeverExceedsAllocation(t *testing.T) {
	load, err := model.NewElectricalLoad([]float64{0, 1, 2, 3, 4}, []float64{10, 60, 100, 130, 200})
	require.NoError(t, err)
	fleet := Fleet{Combustion: []asset.Combustion{
		newDiesel(t, 5, "g1", 50),
		newDiesel(t, 5, "g2", 80),
	}}
	d := newDispatcher(t, nil)
	run(t, d, load, model.NewResources(), fleet, nil)

	assert.Equal(t, 4, d.Table().Len())
	for i := range load.Load {
		assert.LessOrEqual(t, d.CombustionProductionKW()[i], d.AllocatedCapacityKW()[i]+1e-9, "step %d", i)
	}
	assert.Equal(t, 50.0, d.AllocatedCapacityKW()[0])
	assert.InDelta(t, 10, d.CombustionProductionKW()[0], 1e-9)

	// 200 kW exceeds the whole fleet
	assert.Equal(t, 130.0, d.AllocatedCapacityKW()[4])
	assert.InDelta(t, 70, d.MissedLoadKW()[4], 1e-9)
	assert.Zero(t, d.MissedFirmDispatchKW()[4])
	assert.InDelta(t, 20, d.MissedSpinningReserveKW()[4], 1e-9)
}

func TestCycleChargingFloor(t *testing.T) {
	tests := []struct {
		mode       string
		production float64
		charge     float64
	}{
		{"LOAD_FOLLOWING", 20, 0},
		{"CYCLE_CHARGING", 85, 65},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			g := newDiesel(t, 1, "g", 100)
			in := liion.DefaultInputs()
			in.InitSOC = in.MinSOC
			b, err := liion.New(1, in)
			require.NoError(t, err)
			require.True(t, b.IsDepleted())

			fleet := Fleet{Combustion: []asset.Combustion{g}, Storage: []storage.Storage{b}}
			d := newDispatcher(t, func(c *Config) { c.ControlMode = tt.mode })
			run(t, d, model.ConstantLoad(1, 1, 20), model.NewResources(), fleet, nil)

			assert.InDelta(t, tt.production, g.ProductionVecKW[0], 1e-9)
			assert.InDelta(t, 20, g.DispatchVecKW[0], 1e-9)
			assert.InDelta(t, tt.charge, b.ChargingVecKW[0], 1e-9)
			assert.InDelta(t, tt.charge, g.StorageVecKW[0], 1e-9)
			assert.Zero(t, g.CurtailmentVecKW[0])
		})
	}
}

func TestForceStartCarriesReserve(t *testing.T) {
	solar, err := asset.NewRenewable(1, asset.RenewableConfig{
		Name: "pv", Kind: "solar", CapacityKW: 10, Normalized: []float64{1},
	})
	require.NoError(t, err)
	g := newDiesel(t, 1, "g", 50)
	fleet := Fleet{
		Combustion: []asset.Combustion{g},
		Renewables: []asset.Renewable{solar},
	}
	d := newDispatcher(t, func(c *Config) { c.FirmDispatchRatio = 0 })
	run(t, d, model.ConstantLoad(1, 1, 10), model.NewResources(), fleet, nil)

	assert.Zero(t, d.NetLoadKW()[0])
	assert.Equal(t, 50.0, d.AllocatedCapacityKW()[0])
	assert.True(t, g.IsRunning())
	assert.True(t, g.RunningVec[0])
	assert.Equal(t, 1, g.Starts)
	assert.Zero(t, g.ProductionVecKW[0])
	assert.InDelta(t, 10, solar.DispatchVecKW[0], 1e-9)
	assert.Zero(t, d.MissedLoadKW()[0])
	assert.Zero(t, d.MissedSpinningReserveKW()[0])
}

func TestNoncombustionSharesByAvailability(t *testing.T) {
	h1, err := asset.NewHydro(1, asset.HydroConfig{Name: "h1", CapacityKW: 30})
	require.NoError(t, err)
	h2, err := asset.NewHydro(1, asset.HydroConfig{Name: "h2", CapacityKW: 10})
	require.NoError(t, err)
	fleet := Fleet{Noncombustion: []asset.Noncombustion{h1, h2}}
	d := newDispatcher(t, nil)
	run(t, d, model.ConstantLoad(1, 1, 20), model.NewResources(), fleet, nil)

	assert.InDelta(t, 15, h1.ProductionVecKW[0], 1e-9)
	assert.InDelta(t, 5, h2.ProductionVecKW[0], 1e-9)
	assert.Zero(t, d.MissedLoadKW()[0])
	assert.Zero(t, d.MissedSpinningReserveKW()[0])
}

func TestCurtailmentChargesHydrogen(t *testing.T) {
	wind, err := asset.NewRenewable(1, asset.RenewableConfig{
		Name: "wt", Kind: "wind", CapacityKW: 300, ResourceKey: 1,
	})
	require.NoError(t, err)
	h2, err := hydrogen.New(1, hydrogen.DefaultInputs())
	require.NoError(t, err)
	res := model.NewResources()
	res.Add1D(1, []float64{15})

	fleet := Fleet{Renewables: []asset.Renewable{wind}, Storage: []storage.Storage{h2}}
	sink := &recordingSink{}
	d := newDispatcher(t, nil, WithMetricsSink(sink))
	run(t, d, model.ConstantLoad(1, 1, 50), res, fleet, nil)

	accepted := h2.EL.RatedKW() + h2.CompressionKW()
	assert.InDelta(t, 300, wind.ProductionVecKW[0], 1e-9)
	assert.InDelta(t, accepted, wind.StorageVecKW[0], 1e-9)
	assert.InDelta(t, 250-accepted, wind.CurtailmentVecKW[0], 1e-9)
	assert.Greater(t, h2.TankLevelVecKg[0], 100.0)
	require.Len(t, sink.steps, 1)
	assert.InDelta(t, accepted, sink.steps[0].StorageChargeKW, 1e-9)
	assert.InDelta(t, 250-accepted, sink.steps[0].CurtailmentKW, 1e-9)
}

func TestInitRejectsUnknownRenewableKind(t *testing.T) {
	plant, err := asset.NewRenewable(2, asset.RenewableConfig{Name: "x", Kind: "wind", CapacityKW: 10})
	require.NoError(t, err)
	fleet := Fleet{Renewables: []asset.Renewable{oddRenewable{plant}}}
	err = newDispatcher(t, nil).Init(model.ConstantLoad(2, 1, 10), model.NewResources(), fleet)
	assert.ErrorIs(t, err, model.ErrUnknownRenewableKind)
}

func TestMissingResourceSeries(t *testing.T) {
	wind, err := asset.NewRenewable(2, asset.RenewableConfig{Name: "wt", Kind: "wind", CapacityKW: 10, ResourceKey: 3})
	require.NoError(t, err)
	err = newDispatcher(t, nil).Init(model.ConstantLoad(2, 1, 10), model.NewResources(), Fleet{Renewables: []asset.Renewable{wind}})
	assert.ErrorIs(t, err, ErrMissingResource)

	key := 4
	hydro, err := asset.NewHydro(2, asset.HydroConfig{Name: "h", CapacityKW: 10, ResourceKey: &key})
	require.NoError(t, err)
	fleet := Fleet{Noncombustion: []asset.Noncombustion{hydro}}
	load := model.ConstantLoad(2, 1, 10)
	d := newDispatcher(t, nil)
	require.NoError(t, d.Init(load, model.NewResources(), fleet))
	err = d.ApplyDispatchControl(load, model.NewResources(), fleet, nil)
	assert.ErrorIs(t, err, ErrMissingResource)
}

func TestApplyDispatchControlPreconditions(t *testing.T) {
	d := newDispatcher(t, nil)
	load := model.ConstantLoad(3, 1, 10)
	err := d.ApplyDispatchControl(load, model.NewResources(), Fleet{}, nil)
	assert.ErrorIs(t, err, ErrNotInitialized)

	require.NoError(t, d.Init(load, model.NewResources(), Fleet{}))
	err = d.ApplyDispatchControl(model.ConstantLoad(4, 1, 10), model.NewResources(), Fleet{}, nil)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestShortfallIsReported(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	store, err := logging.NewJSONLStore(filepath.Join(t.TempDir(), "shortfall.jsonl"))
	require.NoError(t, err)
	bus := eventbus.New()
	defer bus.Close()
	ch := bus.Subscribe()
	sink := &recordingSink{}

	d := newDispatcher(t, nil,
		WithRunID("run-1"),
		WithMetricsSink(sink),
		WithBus(bus),
		WithLogStore(store))
	run(t, d, model.ConstantLoad(3, 1, 100), model.NewResources(), Fleet{}, nil)

	for i := 0; i < 3; i++ {
		assert.Equal(t, 100.0, d.MissedLoadKW()[i])
		assert.InDelta(t, 10, d.MissedFirmDispatchKW()[i], 1e-9)
		assert.InDelta(t, 10, d.MissedSpinningReserveKW()[i], 1e-9)
	}
	require.Len(t, sink.steps, 3)
	assert.Equal(t, "run-1", sink.steps[2].RunID)
	assert.Equal(t, 2.0, sink.steps[2].TimeHrs)
	assert.True(t, sink.steps[2].Shortfall())

	recs, err := store.Query(context.Background(), logging.LogQuery{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, 1, recs[1].Timestep)
	assert.Equal(t, 100.0, recs[1].MissedLoadKW)

	var got []eventbus.Event
loop:
	for {
		select {
		case ev := <-ch:
			got = append(got, ev)
		default:
			break loop
		}
	}
	require.Len(t, got, 5)
	assert.Equal(t, events.RunStarted, got[0].(events.RunEvent).Phase)
	assert.Equal(t, 1, got[2].(events.ShortfallEvent).Timestep)
	finished := got[4].(events.RunEvent)
	assert.Equal(t, events.RunFinished, finished.Phase)
	assert.NoError(t, finished.Err)

	assert.Equal(t, 3.0, testutil.ToFloat64(stepsDispatched))
	assert.Equal(t, 3.0, testutil.ToFloat64(shortfallSteps.WithLabelValues("load")))
	assert.InDelta(t, 300, testutil.ToFloat64(missedEnergy.WithLabelValues("load")), 1e-9)
	assert.InDelta(t, 30, testutil.ToFloat64(missedEnergy.WithLabelValues("reserve")), 1e-9)
	assert.Equal(t, 1.0, testutil.ToFloat64(commitmentEntries))

	s := d.Summary()
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 3, s.Steps)
	assert.Equal(t, 3, s.ShortfallSteps)
	assert.InDelta(t, 300, s.MissedLoadKWh, 1e-9)
	assert.InDelta(t, 30, s.MissedFirmKWh, 1e-9)
	assert.Zero(t, s.ServedKWh)
	assert.Equal(t, 100.0, s.MeanNetLoadKW)
	assert.Equal(t, 100.0, s.PeakNetLoadKW)
	assert.Zero(t, s.StdNetLoadKW)
	assert.Equal(t, 1, s.CommitmentEntries)
}

func TestSinkFailureIsLoggedOnce(t *testing.T) {
	log := &countLogger{}
	sink := &failingSink{}
	d, err := New(DefaultConfig(), log, WithMetricsSink(sink))
	require.NoError(t, err)
	g := newDiesel(t, 4, "g", 100)
	fleet := Fleet{Combustion: []asset.Combustion{g}}
	run(t, d, model.ConstantLoad(4, 1, 20), model.NewResources(), fleet, nil)

	assert.Equal(t, 4, sink.calls)
	assert.Equal(t, 1, log.errors)
}

func TestNotifyReplacement(t *testing.T) {
	reg := prometheus.NewRegistry()
	ResetMetrics(reg)
	t.Cleanup(func() { ResetMetrics(nil) })

	bus := eventbus.New()
	defer bus.Close()
	ch := bus.Subscribe()
	sink := &recordingSink{}
	d := newDispatcher(t, nil, WithRunID("r"), WithMetricsSink(sink), WithBus(bus))

	d.NotifyReplacement("h2", "electrolyzer", 12, 1)

	require.Len(t, sink.replacements, 1)
	assert.Equal(t, "electrolyzer", sink.replacements[0].Unit)
	assert.Equal(t, 12, sink.replacements[0].Timestep)
	ev := (<-ch).(events.ReplacementEvent)
	assert.Equal(t, "h2", ev.Storage)
	assert.Equal(t, 1, ev.Count)
	assert.Equal(t, 1.0, testutil.ToFloat64(unitReplacements.WithLabelValues("h2", "electrolyzer")))
	assert.Equal(t, 1, d.Summary().Replacements)
}

func newWind(t *testing.T, n int, speeds ...float64) (*asset.RenewablePlant, model.ResourceProvider) {
	t.Helper()
	wind, err := asset.NewRenewable(n, asset.RenewableConfig{
		Name: "wt", Kind: "wind", CapacityKW: 300, ResourceKey: 1,
	})
	require.NoError(t, err)
	res := model.NewResources()
	res.Add1D(1, speeds)
	return wind, res
}

func TestExternalHydrogenLoadAddsElectrolyzerDraw(t *testing.T) {
	in := hydrogen.DefaultInputs()
	in.InitSOC = 0.01
	in.ExternalLoadEnabled = true
	in.ExternalLoadKg = []float64{3, 0}
	in.Electrolyzer.MinRuntimeHrs = 2
	h2, err := hydrogen.New(2, in)
	require.NoError(t, err)
	wind, res := newWind(t, 2, 15, 0)

	load, err := model.NewElectricalLoad([]float64{0, 1}, []float64{50, 0})
	require.NoError(t, err)
	fleet := Fleet{Renewables: []asset.Renewable{wind}, Storage: []storage.Storage{h2}}
	sink := &recordingSink{}
	d := newDispatcher(t, nil, WithMetricsSink(sink))
	run(t, d, load, res, fleet, nil)

	require.Len(t, sink.steps, 2)
	// 3 kg at 60 kWh/kg over one hour
	assert.InDelta(t, 50+180, sink.steps[0].LoadKW, 1e-9)
	assert.InDelta(t, 180, h2.EL.PowerVecKW[0], 1e-9)
	assert.Zero(t, d.MissedLoadKW()[0])

	// the charge stage leaves a system busy with the external load alone
	assert.Zero(t, sink.steps[0].StorageChargeKW)
	assert.Zero(t, h2.ChargingVecKW[0])
	assert.Zero(t, wind.StorageVecKW[0])
	assert.InDelta(t, 300-230, wind.CurtailmentVecKW[0], 1e-9)

	assert.Zero(t, sink.steps[1].LoadKW, "external production does not hold the electrolyzer on")
	assert.Zero(t, h2.EL.EnforcedRuntimes)
}

func TestElectrolyzerMinimumRuntimeAddsLoadAndCharges(t *testing.T) {
	in := hydrogen.DefaultInputs()
	in.Electrolyzer.MinRuntimeHrs = 0.5
	h2, err := hydrogen.New(2, in)
	require.NoError(t, err)
	wind, res := newWind(t, 2, 15, 0)

	load, err := model.NewElectricalLoad([]float64{0, 0.25}, []float64{50, 50})
	require.NoError(t, err)
	fleet := Fleet{Renewables: []asset.Renewable{wind}, Storage: []storage.Storage{h2}}
	sink := &recordingSink{}
	d := newDispatcher(t, nil, WithMetricsSink(sink))
	run(t, d, load, res, fleet, nil)

	require.Len(t, sink.steps, 2)
	assert.InDelta(t, 50, sink.steps[0].LoadKW, 1e-9)
	require.Greater(t, h2.ChargingVecKW[0], 0.0)

	minEL := h2.MinELCapacityKW()
	assert.InDelta(t, 50+minEL, sink.steps[1].LoadKW, 1e-9)
	// the fuel cell serves the load and the electrolyzer still runs
	assert.InDelta(t, 50+minEL, h2.DischargingVecKW[1], 1e-9)
	assert.InDelta(t, minEL, sink.steps[1].StorageChargeKW, 1e-9)
	assert.InDelta(t, h2.EL.RatedKW()*in.Electrolyzer.MinLoadRatio, h2.ChargingVecKW[1], 1e-9)
	assert.Zero(t, d.MissedLoadKW()[1])
	assert.Equal(t, 1, h2.EL.EnforcedRuntimes)
}

func TestCurtailmentHydrogenLeavesElectrolyzerFree(t *testing.T) {
	in := hydrogen.DefaultInputs()
	in.InitSOC = 1
	in.ExcessHydrogenPotential = true
	in.Electrolyzer.MinRuntimeHrs = 0.5
	h2, err := hydrogen.New(2, in)
	require.NoError(t, err)
	wind, res := newWind(t, 2, 15, 0)

	load, err := model.NewElectricalLoad([]float64{0, 0.25}, []float64{50, 50})
	require.NoError(t, err)
	fleet := Fleet{Renewables: []asset.Renewable{wind}, Storage: []storage.Storage{h2}}
	sink := &recordingSink{}
	d := newDispatcher(t, nil, WithMetricsSink(sink))
	run(t, d, load, res, fleet, nil)

	require.Len(t, sink.steps, 2)
	assert.Greater(t, h2.CurtailedHydrogenVecKg[0], 0.0)
	assert.Zero(t, h2.ChargingVecKW[0])

	assert.InDelta(t, 50, sink.steps[1].LoadKW, 1e-9)
	assert.Zero(t, h2.EL.PowerVecKW[1])
	assert.Zero(t, sink.steps[1].StorageChargeKW)
	assert.Zero(t, h2.EL.EnforcedRuntimes)
	assert.Zero(t, h2.TotalVentedKg)
	assert.Zero(t, d.MissedLoadKW()[1])
}

func TestStorageDischargeOffsetsFirmAndReserve(t *testing.T) {
	cases := []struct {
		name                 string
		loadKW               float64
		allocated, combusted float64
	}{
		// 60 kW committed clears the 6 kW firm target and 40 kW of unused
		// fuel cell capacity covers the reserve
		{name: "fuel cell covers all", loadKW: 60, allocated: 0, combusted: 0},
		// 100 kW committed clears the 30 kW firm target; the diesel carries
		// the rest plus the full 30 kW reserve
		{name: "fuel cell saturated", loadKW: 300, allocated: 250, combusted: 200},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h2, err := hydrogen.New(1, hydrogen.DefaultInputs())
			require.NoError(t, err)
			fleet := Fleet{
				Combustion: []asset.Combustion{newDiesel(t, 1, "g1", 250)},
				Storage:    []storage.Storage{h2},
			}
			d := newDispatcher(t, nil)
			run(t, d, model.ConstantLoad(1, 1, tc.loadKW), model.NewResources(), fleet, nil)

			assert.InDelta(t, math.Min(tc.loadKW, 100), h2.DischargingVecKW[0], 1e-9)
			assert.InDelta(t, tc.allocated, d.AllocatedCapacityKW()[0], 1e-9)
			assert.InDelta(t, tc.combusted, d.CombustionProductionKW()[0], 1e-9)
			assert.Zero(t, d.MissedLoadKW()[0])
			assert.Zero(t, d.MissedFirmDispatchKW()[0])
			assert.Zero(t, d.MissedSpinningReserveKW()[0])
		})
	}
}
