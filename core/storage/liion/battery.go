// Package liion provides a lithium-ion battery storage asset with a
// depletion hysteresis band, round-trip losses and idle self-discharge.
package liion

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/microgrid/core/storage"
)

// ErrInvalidInputs is returned when a battery cannot be built.
var ErrInvalidInputs = errors.New("invalid battery inputs")

// Inputs configures a Battery.
type Inputs struct {
	Name                  string  `json:"name"`
	PowerCapacityKW       float64 `json:"power_capacity_kw"`
	EnergyCapacityKWh     float64 `json:"energy_capacity_kwh"`
	InitSOC               float64 `json:"init_soc"`
	MinSOC                float64 `json:"min_soc"`
	HysteresisSOC         float64 `json:"hysteresis_soc"`
	MaxSOC                float64 `json:"max_soc"`
	ChargingEfficiency    float64 `json:"charging_efficiency"`
	DischargingEfficiency float64 `json:"discharging_efficiency"`
	SelfDischargePerHr    float64 `json:"self_discharge_rate_per_hr"`
}

// DefaultInputs returns a 100 kW / 1000 kWh battery.
func DefaultInputs() Inputs {
	return Inputs{
		Name:                  "liion",
		PowerCapacityKW:       100,
		EnergyCapacityKWh:     1000,
		InitSOC:               0.5,
		MinSOC:                0.15,
		HysteresisSOC:         0.5,
		MaxSOC:                0.9,
		ChargingEfficiency:    0.9,
		DischargingEfficiency: 0.9,
		SelfDischargePerHr:    1.5e-5,
	}
}

// Validate checks bounds.
func (in Inputs) Validate() error {
	for name, v := range map[string]float64{
		"init_soc":                   in.InitSOC,
		"min_soc":                    in.MinSOC,
		"hysteresis_soc":             in.HysteresisSOC,
		"max_soc":                    in.MaxSOC,
		"self_discharge_rate_per_hr": in.SelfDischargePerHr,
	} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in [0, 1], got %g", ErrInvalidInputs, name, v)
		}
	}
	for name, v := range map[string]float64{
		"charging_efficiency":    in.ChargingEfficiency,
		"discharging_efficiency": in.DischargingEfficiency,
	} {
		if v <= 0 || v > 1 {
			return fmt.Errorf("%w: %s must be in (0, 1], got %g", ErrInvalidInputs, name, v)
		}
	}
	if in.PowerCapacityKW <= 0 || in.EnergyCapacityKWh <= 0 {
		return fmt.Errorf("%w: capacities must be positive", ErrInvalidInputs)
	}
	if in.MinSOC > in.MaxSOC {
		return fmt.Errorf("%w: min_soc above max_soc", ErrInvalidInputs)
	}
	return nil
}

// Battery implements storage.Storage.
type Battery struct {
	in Inputs

	chargeKWh float64
	depleted  bool
	powerKW   float64

	ChargeVecKWh     []float64
	ChargingVecKW    []float64
	DischargingVecKW []float64
	LossVecKW        []float64

	TotalChargedKWh    float64
	TotalDischargedKWh float64
}

var (
	_ storage.Storage        = (*Battery)(nil)
	_ storage.SelfDischarger = (*Battery)(nil)
	_ storage.ThermalSource  = (*Battery)(nil)
)

// New validates inputs and returns a battery sized for nPoints timesteps.
func New(nPoints int, in Inputs) (*Battery, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	b := &Battery{
		in:               in,
		chargeKWh:        in.InitSOC * in.EnergyCapacityKWh,
		ChargeVecKWh:     make([]float64, nPoints),
		ChargingVecKW:    make([]float64, nPoints),
		DischargingVecKW: make([]float64, nPoints),
		LossVecKW:        make([]float64, nPoints),
	}
	b.toggleDepleted()
	return b, nil
}

func (b *Battery) Kind() storage.Kind    { return storage.LiIon }
func (b *Battery) Name() string          { return b.in.Name }
func (b *Battery) IsDepleted() bool      { return b.depleted }
func (b *Battery) PowerKW() float64      { return b.powerKW }
func (b *Battery) AddPowerKW(kW float64) { b.powerKW += kW }

// ChargeKWh is the energy currently stored.
func (b *Battery) ChargeKWh() float64 { return b.chargeKWh }

// SOC is the state of charge.
func (b *Battery) SOC() float64 { return b.chargeKWh / b.in.EnergyCapacityKWh }

func (b *Battery) toggleDepleted() {
	soc := b.SOC()
	if b.depleted {
		b.depleted = soc < b.in.MinSOC+b.in.HysteresisSOC
		return
	}
	b.depleted = soc <= b.in.MinSOC
}

func (b *Battery) AvailableKW(_ int, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	kW := (b.chargeKWh - b.in.MinSOC*b.in.EnergyCapacityKWh) * b.in.DischargingEfficiency / dt
	kW = math.Min(kW, b.in.PowerCapacityKW)
	return math.Max(kW-b.powerKW, 0)
}

func (b *Battery) AcceptableKW(_ int, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	kW := (b.in.MaxSOC*b.in.EnergyCapacityKWh - b.chargeKWh) / b.in.ChargingEfficiency / dt
	kW = math.Min(kW, b.in.PowerCapacityKW)
	return math.Max(kW-b.powerKW, 0)
}

func (b *Battery) CommitDischarge(t int, dt, kW, loadKW float64) float64 {
	kW = math.Max(kW, 0)
	drawn := kW * dt / b.in.DischargingEfficiency
	b.chargeKWh = math.Max(b.chargeKWh-drawn, 0)
	b.DischargingVecKW[t] = kW
	b.LossVecKW[t] += kW * (1/b.in.DischargingEfficiency - 1)
	b.TotalDischargedKWh += kW * dt
	b.finish(t)
	return loadKW - kW
}

func (b *Battery) CommitCharge(t int, dt, kW float64) {
	kW = math.Max(kW, 0)
	stored := kW * dt * b.in.ChargingEfficiency
	b.chargeKWh = math.Min(b.chargeKWh+stored, b.in.EnergyCapacityKWh)
	b.ChargingVecKW[t] = kW
	b.LossVecKW[t] += kW * (1 - b.in.ChargingEfficiency)
	b.TotalChargedKWh += kW * dt
	b.finish(t)
}

// CommitSelfDischarge leaks charge over an idle timestep.
func (b *Battery) CommitSelfDischarge(t int, dt float64) {
	b.chargeKWh *= math.Pow(1-b.in.SelfDischargePerHr, dt)
	b.finish(t)
}

// ThermalOutputKW is the conversion loss dissipated as heat.
func (b *Battery) ThermalOutputKW(t int) float64 { return b.LossVecKW[t] }

func (b *Battery) finish(t int) {
	b.ChargeVecKWh[t] = b.chargeKWh
	b.toggleDepleted()
	b.powerKW = 0
}
