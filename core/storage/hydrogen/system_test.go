package hydrogen

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSystem(t *testing.T, n int, mutate func(*Inputs), opts ...Option) *System {
	t.Helper()
	in := DefaultInputs()
	if mutate != nil {
		mutate(&in)
	}
	s, err := New(n, in, opts...)
	require.NoError(t, err)
	return s
}

func TestNewRejectsSOCOutsideUnitInterval(t *testing.T) {
	fields := map[string]func(*Inputs, float64){
		"init":       func(in *Inputs, v float64) { in.InitSOC = v },
		"min":        func(in *Inputs, v float64) { in.MinSOC = v },
		"hysteresis": func(in *Inputs, v float64) { in.HysteresisSOC = v },
		"max":        func(in *Inputs, v float64) { in.MaxSOC = v },
	}
	for name, set := range fields {
		for _, v := range []float64{-1, 1.5} {
			in := DefaultInputs()
			set(&in, v)
			_, err := New(10, in)
			assert.ErrorIs(t, err, ErrInvalidInputs, "%s=%g", name, v)
		}
	}
}

func TestConstructionState(t *testing.T) {
	s := newSystem(t, 4, nil)
	assert.InDelta(t, 200/0.055, s.EnergyCapacityKWh(), 1e-6)
	assert.InDelta(t, 100, s.PowerCapacityKW(), 1e-9)
	assert.InDelta(t, 100, s.TankLevelKg(), 1e-9)
	assert.InDelta(t, 100/0.055, s.ChargeKWh(), 1e-6)
	assert.InDelta(t, 2.5*200/60.0, s.CompressionKW(), 1e-9)
	assert.InDelta(t, 20+2.5*200/60.0, s.MinELCapacityKW(), 1e-9)
	assert.InDelta(t, 25, s.MinFCCapacityKW(), 1e-9)
	assert.False(t, s.IsDepleted())
}

func TestCapitalCostGenericRoundTrip(t *testing.T) {
	s := newSystem(t, 1, func(in *Inputs) { in.CapitalCost = -1 })
	assert.InDelta(t, GenericCapitalCost(s.in), s.CapitalCost(), 1e-6)
	assert.InDelta(t, 240000+320000+200000+540000+40000, s.CapitalCost(), 1e-6)

	bare := newSystem(t, 1, func(in *Inputs) {
		in.CompressionIncluded = false
		in.WaterTreatmentIncluded = false
	})
	assert.InDelta(t, 240000+320000+200000, bare.CapitalCost(), 1e-6)

	fixed := newSystem(t, 1, func(in *Inputs) { in.CapitalCost = 5 })
	assert.InDelta(t, 5, fixed.CapitalCost(), 1e-9)
	assert.InDelta(t, 0.06, fixed.OMCostPerKWh(), 1e-9)
}

func TestAvailableAndAcceptable(t *testing.T) {
	s := newSystem(t, 2, nil)
	assert.InDelta(t, 100, s.AvailableKW(0, 1), 1e-9)
	s.AddPowerKW(30)
	assert.InDelta(t, 70, s.AvailableKW(0, 1), 1e-9)
	assert.InDelta(t, 200+s.CompressionKW()-30, s.AcceptableKW(0, 1), 1e-9)
	assert.Zero(t, s.AvailableKW(0, 0))

	full := newSystem(t, 2, func(in *Inputs) { in.InitSOC = 1 })
	assert.Zero(t, full.AcceptableKW(0, 1))

	empty := newSystem(t, 2, func(in *Inputs) { in.InitSOC = 0.01 })
	assert.True(t, empty.IsDepleted())
	assert.InDelta(t, 0, empty.AvailableKW(0, 1), 1e-9)
}

func TestFuelCellDischargeDrainsTank(t *testing.T) {
	s := newSystem(t, 3, nil)
	left := s.CommitFuelCell(0, 1, 50, 50)
	assert.InDelta(t, 0, left, 1e-9)
	want := 100 - 0.055*50/(1+0.1*0.5)
	assert.InDelta(t, want, s.TankLevelKg(), 1e-9)
	assert.InDelta(t, want, s.TankLevelVecKg[0], 1e-9)
	assert.InDelta(t, 50, s.DischargingVecKW[0], 1e-9)
	assert.Zero(t, s.PowerKW())
	assert.Greater(t, s.FC.EfficiencyVec[0], s.FC.NominalEfficiency())
}

func TestTankStaysWithinBounds(t *testing.T) {
	low := newSystem(t, 2, func(in *Inputs) { in.InitSOC = 0.01 })
	low.CommitFuelCell(0, 1, 100, 100)
	assert.GreaterOrEqual(t, low.TankLevelKg(), 0.0)
	assert.InDelta(t, 0, low.TankLevelKg(), 1e-9)
	assert.True(t, low.IsDepleted())

	high := newSystem(t, 20, func(in *Inputs) { in.InitSOC = 0.99 })
	for step := 0; step < 20; step++ {
		high.CommitElectrolysis(step, 1, 210)
		assert.LessOrEqual(t, high.TankLevelKg(), 200.0)
		assert.GreaterOrEqual(t, high.TankLevelKg(), 0.0)
	}
}

func TestElectrolysisRampLossAndCompression(t *testing.T) {
	s := newSystem(t, 3, nil)
	comp := s.CompressionKW()
	s.CommitElectrolysis(0, 1, 100+comp)
	assert.InDelta(t, comp, s.CompressionVecKW[0], 1e-9)
	// first step ramps from zero: 100 kW loses 0.1 * 100/200 of itself
	assert.InDelta(t, 100*(1-0.1*0.5), s.ChargingVecKW[0], 1e-9)

	prev := s.ChargingVecKW[0]
	s.CommitElectrolysis(1, 1, 50+comp)
	assert.InDelta(t, 50, s.ChargingVecKW[1], 1e-9, "no ramp loss when power decreases")
	assert.Less(t, s.ChargingVecKW[1], prev)
	assert.Greater(t, s.WaterDemandVecL[1], 0.0)
	assert.Greater(t, s.OMCostVec[1], 0.0)
}

func TestMinimumRuntimeKeepsElectrolyzerCommitted(t *testing.T) {
	s := newSystem(t, 4, func(in *Inputs) { in.Electrolyzer.MinRuntimeHrs = 0.5 })
	dt := 0.25

	assert.False(t, s.ELMinRuntime(0))
	s.CommitElectrolysis(0, dt, 100)
	require.Greater(t, s.EL.PowerVecKW[0], 0.0)

	enforced := s.ELMinRuntime(1)
	require.True(t, enforced)
	s.CommitElectrolysis(1, dt, s.MinELCapacityKW())
	assert.Greater(t, s.EL.PowerVecKW[1], 0.0)

	assert.False(t, s.ELMinRuntime(2))
	s.CommitElectrolysis(2, dt, 0)
	assert.Zero(t, s.EL.PowerVecKW[2])
	assert.Equal(t, 1, s.EL.EnforcedRuntimes)

	assert.False(t, s.ELMinRuntime(3))
	assert.False(t, s.EL.Running)
	assert.Zero(t, s.EL.CurrentRuntimeHrs)
}

func TestFuelCellMinimumRuntime(t *testing.T) {
	s := newSystem(t, 3, func(in *Inputs) { in.FuelCell.MinRuntimeHrs = 2 })
	s.CommitFuelCell(0, 1, 40, 40)
	assert.True(t, s.FCMinRuntime(1))
	assert.Equal(t, 1, s.FC.EnforcedRuntimes)
}

func TestReplacementResetsUnitAndTank(t *testing.T) {
	var events []Replacement
	var sohAtReplace, streakAtReplace float64
	var s *System
	s = newSystem(t, 3, func(in *Inputs) {
		in.Electrolyzer.Degradation.K1 = 0.05
	}, WithReplacementHook(func(r Replacement) {
		events = append(events, r)
		sohAtReplace = s.EL.SOH()
		streakAtReplace = s.EL.CurrentRuntimeHrs
	}))
	full := 200 + s.CompressionKW()

	s.CommitElectrolysis(0, 1, full)
	first := s.EL.SOH()
	assert.Less(t, first, 1.0)
	assert.Greater(t, first, 0.9)

	s.CommitElectrolysis(1, 1, full)
	require.Len(t, events, 1)
	assert.Equal(t, Replacement{System: "h2", Unit: "electrolyzer", Timestep: 1, Count: 1}, events[0])
	assert.Equal(t, 1.0, sohAtReplace)
	assert.Zero(t, streakAtReplace)
	assert.Equal(t, 1.0, s.EL.SOH())
	assert.Equal(t, 1, s.EL.Replacements)
	assert.InDelta(t, 100+s.EL.OutputVecKg[1], s.TankLevelKg(), 1e-9, "tank restored to initial state of charge")
}

func TestSOHNonIncreasingWhileActiveAndHeldWhileIdle(t *testing.T) {
	s := newSystem(t, 12, nil)
	prev := s.FC.SOH()
	for step := 0; step < 12; step++ {
		kW := 60.0
		if step%3 == 2 {
			kW = 0
		}
		s.CommitFuelCell(step, 1, kW, kW)
		if kW > 0 {
			assert.LessOrEqual(t, s.FC.SOH(), prev)
		} else {
			assert.Equal(t, prev, s.FC.SOH())
		}
		prev = s.FC.SOH()
	}
	assert.Equal(t, 4, s.FC.StartStops())
}

func TestExternalHydrogenLoad(t *testing.T) {
	s := newSystem(t, 3, func(in *Inputs) {
		in.InitSOC = 0.01
		in.ExternalLoadEnabled = true
		in.ExternalLoadKg = []float64{1, 3, 100}
	})
	assert.Zero(t, s.CommitExternalHydrogenLoadKg(0, 1))
	assert.InDelta(t, 1, s.TankLevelKg(), 1e-9)
	assert.False(t, s.MakingHydrogenForExternalLoad())

	assert.InDelta(t, 180, s.CommitExternalHydrogenLoadKg(1, 1), 1e-9)
	assert.True(t, s.MakingHydrogenForExternalLoad())

	assert.Zero(t, s.CommitExternalHydrogenLoadKg(2, 1), "demand above electrolyzer capacity is dropped")
	assert.False(t, s.MakingHydrogenForExternalLoad())
	assert.InDelta(t, 4, s.TotalExternalLoadMetKg, 1e-9)
}

func TestExternalHydrogenLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h2_load.csv")
	data := ExternalLoadTimeHeader + "," + ExternalLoadHeader + "\n0,2\n1,0\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	s := newSystem(t, 2, func(in *Inputs) {
		in.ExternalLoadEnabled = true
		in.ExternalLoadPath = path
	})
	s.CommitExternalHydrogenLoadKg(0, 1)
	assert.InDelta(t, 98, s.TankLevelKg(), 1e-9)

	in := DefaultInputs()
	in.ExternalLoadEnabled = true
	in.ExternalLoadPath = path
	_, err := New(5, in)
	assert.ErrorIs(t, err, ErrInvalidInputs, "series shorter than the horizon")
}

func TestCurtailmentHydrogen(t *testing.T) {
	s := newSystem(t, 2, func(in *Inputs) {
		in.InitSOC = 1
		in.ExcessHydrogenPotential = true
	})
	s.CommitCurtailmentHydrogen(0, 1, 10)
	assert.Zero(t, s.CurtailedHydrogenVecKg[0], "below minimum electrolyzer load")

	s.CommitCurtailmentHydrogen(1, 1, 500)
	assert.InDelta(t, 200/60.0, s.CurtailedHydrogenVecKg[1], 1e-9)
	assert.InDelta(t, 200, s.TankLevelKg(), 1e-9, "curtailment hydrogen bypasses the tank")

	off := newSystem(t, 1, func(in *Inputs) { in.InitSOC = 1 })
	off.CommitCurtailmentHydrogen(0, 1, 500)
	assert.Zero(t, off.TotalCurtailedHydrogenKg)
}

func TestDepletionHysteresis(t *testing.T) {
	full := 200 + 2.5*200/60.0

	legacy := newSystem(t, 1, func(in *Inputs) { in.InitSOC = 0.01 })
	require.True(t, legacy.IsDepleted())
	legacy.CommitElectrolysis(0, 1, full)
	assert.False(t, legacy.IsDepleted())

	banded := newSystem(t, 1, func(in *Inputs) {
		in.InitSOC = 0.01
		in.DepletionHysteresis = true
	})
	require.True(t, banded.IsDepleted())
	banded.CommitElectrolysis(0, 1, full)
	assert.True(t, banded.IsDepleted(), "stays gated below min_soc + hysteresis_soc")
}

func TestThermalOutput(t *testing.T) {
	s := newSystem(t, 2, nil)
	assert.InDelta(t, 2*200*800+2*100*800, s.McpJPerK(), 1e-9)
	assert.Zero(t, s.ThermalOutputKW(0))
	s.CommitElectrolysis(0, 1, 100)
	assert.Greater(t, s.ThermalOutputKW(0), s.CompressionKW()*0.3-1e-9)
}

func TestSummary(t *testing.T) {
	s := newSystem(t, 2, nil)
	s.CommitElectrolysis(0, 1, 100)
	s.CommitFuelCell(1, 1, 50, 50)
	sum := s.Summary()
	assert.Equal(t, "h2", sum.Name)
	assert.Greater(t, sum.HydrogenProducedKg, 0.0)
	assert.Greater(t, sum.HydrogenConsumedKg, 0.0)
	assert.InDelta(t, 1, sum.ELRuntimeHrs, 1e-9)
	assert.InDelta(t, 1, sum.FCRuntimeHrs, 1e-9)
}

func TestMinimumRuntimeCountedOncePerStep(t *testing.T) {
	s := newSystem(t, 2, func(in *Inputs) { in.Electrolyzer.MinRuntimeHrs = 0.5 })
	s.CommitElectrolysis(0, 0.25, 100)
	assert.True(t, s.ELMinRuntime(1))
	assert.True(t, s.ELMinRuntime(1))
	assert.Equal(t, 1, s.EL.EnforcedRuntimes)
}

func TestCurtailmentHydrogenDoesNotHoldElectrolyzer(t *testing.T) {
	s := newSystem(t, 2, func(in *Inputs) {
		in.InitSOC = 1
		in.ExcessHydrogenPotential = true
		in.Electrolyzer.MinRuntimeHrs = 0.5
	})
	dt := 0.25
	s.CommitElectrolysis(0, dt, 0)
	s.CommitCurtailmentHydrogen(0, dt, 300)
	require.Greater(t, s.CurtailedHydrogenVecKg[0], 0.0)
	require.Greater(t, s.EL.PowerVecKW[0], 0.0)

	assert.False(t, s.ELMinRuntime(1), "a full tank must not pull the electrolyzer back on")
	assert.Zero(t, s.EL.EnforcedRuntimes)
	assert.Zero(t, s.TotalVentedKg)
}

func TestExternalHydrogenDoesNotHoldElectrolyzer(t *testing.T) {
	s := newSystem(t, 2, func(in *Inputs) {
		in.InitSOC = 0.01
		in.ExternalLoadEnabled = true
		in.ExternalLoadKg = []float64{3, 0}
		in.Electrolyzer.MinRuntimeHrs = 2
	})
	require.InDelta(t, 180, s.CommitExternalHydrogenLoadKg(0, 1), 1e-9)
	require.Greater(t, s.EL.PowerVecKW[0], 0.0)

	assert.False(t, s.ELMinRuntime(1))
	assert.Zero(t, s.EL.EnforcedRuntimes)
}

func TestAcceptableKWFillsTankExactly(t *testing.T) {
	s := newSystem(t, 1, func(in *Inputs) {
		in.InitSOC = 0.995
		in.Electrolyzer.RampLoss = 0
	})
	accepted := s.AcceptableKW(0, 1)
	s.CommitElectrolysis(0, 1, accepted)

	// one kg of room at 60 kWh/kg, made cheaper by the part-load factor
	assert.Less(t, s.ChargingVecKW[0], 60.0)
	assert.InDelta(t, 1, s.EL.OutputVecKg[0], 1e-6)
	assert.InDelta(t, 200, s.TankLevelKg(), 1e-6)
	assert.InDelta(t, 0, s.TotalVentedKg, 1e-6)
}

func TestOverfillIsVented(t *testing.T) {
	s := newSystem(t, 1, func(in *Inputs) { in.InitSOC = 1 })
	s.CommitElectrolysis(0, 1, 200+s.CompressionKW())
	require.Greater(t, s.EL.OutputVecKg[0], 0.0)

	assert.InDelta(t, 200, s.TankLevelKg(), 1e-9)
	assert.InDelta(t, s.EL.OutputVecKg[0], s.VentedVecKg[0], 1e-9)
	assert.InDelta(t, s.EL.OutputVecKg[0], s.Summary().VentedHydrogenKg, 1e-9)
}

func TestFuelCellRampLoss(t *testing.T) {
	s := newSystem(t, 2, func(in *Inputs) { in.FuelCell.RampLoss = 0.2 })
	s.CommitFuelCell(0, 1, 50, 50)
	// ramping from zero to half load burns 0.2 * 0.5 more
	assert.InDelta(t, 0.055*50/(1+0.1*0.5)*(1+0.2*0.5), s.FC.ConsumptionVecKg[0], 1e-9)

	spec := s.FC.SpecConsumptionKgPerKWh()
	s.CommitFuelCell(1, 1, 40, 40)
	assert.InDelta(t, spec*40/(1+0.1*0.6), s.FC.ConsumptionVecKg[1], 1e-9, "no ramp loss when output decreases")
	assert.InDelta(t, s.FC.ConsumptionVecKg[0]+s.FC.ConsumptionVecKg[1], s.FC.TotalConsumptionKg, 1e-9)
}
