package hydrogen

import (
	"errors"
	"fmt"
)

// ErrInvalidInputs is returned when a hydrogen system cannot be built from
// its inputs.
var ErrInvalidInputs = errors.New("invalid hydrogen inputs")

// DegradationParams are the state-of-health coefficients of one unit.
type DegradationParams struct {
	// K1 weighs runtime hours, K2 start-stop events and K3 the shortfall of
	// the average operating ratio from full load.
	K1 float64 `json:"k1"`
	K2 float64 `json:"k2"`
	K3 float64 `json:"k3"`
	// K4 is read from existing scenario files and has no effect.
	K4 float64 `json:"k4"`
}

// ElectrolyzerInputs configures the electrolyzer stack.
type ElectrolyzerInputs struct {
	CapacityKW              float64           `json:"capacity_kw"`
	Quantity                int               `json:"quantity"`
	SpecConsumptionKWhPerKg float64           `json:"spec_consumption_kwh_kg"`
	MinLoadRatio            float64           `json:"min_load_ratio"`
	MinRuntimeHrs           float64           `json:"min_runtime_hrs"`
	// RampLoss is the share of the draw lost per unit of ramp-up ratio.
	RampLoss                float64           `json:"ramp_loss"`
	ReplaceSOH              float64           `json:"replace_soh"`
	CapitalCostPerKW        float64           `json:"capital_cost_kw"`
	// OMCostPerKWh is informational. Throughput is charged at the system rate.
	OMCostPerKWh            float64           `json:"om_cost_kwh"`
	CapacityFactorB         float64           `json:"capacity_factor_b"`
	Degradation             DegradationParams `json:"degradation"`
}

// FuelCellInputs configures the fuel cell stack.
type FuelCellInputs struct {
	CapacityKW              float64           `json:"capacity_kw"`
	Quantity                int               `json:"quantity"`
	SpecConsumptionKgPerKWh float64           `json:"spec_consumption_kg_kwh"`
	MinLoadRatio            float64           `json:"min_load_ratio"`
	MinRuntimeHrs           float64           `json:"min_runtime_hrs"`
	// RampLoss is the extra hydrogen burnt per unit of ramp-up ratio.
	RampLoss                float64           `json:"ramp_loss"`
	ReplaceSOH              float64           `json:"replace_soh"`
	CapitalCostPerKW        float64           `json:"capital_cost_kw"`
	// OMCostPerKWh is informational. Throughput is charged at the system rate.
	OMCostPerKWh            float64           `json:"om_cost_kwh"`
	CapacityFactorB         float64           `json:"capacity_factor_b"`
	Degradation             DegradationParams `json:"degradation"`
}

// ThermalInputs describe the stack thermal mass.
type ThermalInputs struct {
	CpElectrolyzer float64 `json:"cp_el"`
	CpFuelCell     float64 `json:"cp_fc"`
	// Mass per kW of rated capacity.
	DensityElectrolyzer float64 `json:"p_el"`
	DensityFuelCell     float64 `json:"p_fc"`
}

// Inputs configures a System. Cost fields set to -1 select the generic
// formulas.
type Inputs struct {
	Name string `json:"name"`

	InitSOC       float64 `json:"init_soc"`
	MinSOC        float64 `json:"min_soc"`
	HysteresisSOC float64 `json:"hysteresis_soc"`
	MaxSOC        float64 `json:"max_soc"`
	// DepletionHysteresis keeps a depleted tank gated until it refills past
	// min_soc + hysteresis_soc.
	DepletionHysteresis bool `json:"depletion_hysteresis"`
	// ResetTankOnReplacement restores the tank to init_soc whenever either
	// unit is replaced.
	ResetTankOnReplacement bool `json:"reset_tank_on_replacement"`

	KWhPerKg       float64 `json:"kwh_kg_conversion"`
	TankCapacityKg float64 `json:"tank_capacity_kg"`
	TankCostPerKg  float64 `json:"tank_cost_kg"`

	CompressionIncluded               bool    `json:"compression_included"`
	CompressorSpecConsumptionKWhPerKg float64 `json:"compressor_spec_consumption_kwh_kg"`
	CompressorEfficiency              float64 `json:"compressor_efficiency"`
	CompressorCapitalCostPerKW        float64 `json:"compressor_capital_cost_kw"`

	WaterTreatmentIncluded         bool    `json:"water_treatment_included"`
	WaterTreatmentCapitalCostPerKW float64 `json:"water_treatment_capital_cost_kw"`
	WaterDemandLPerKg              float64 `json:"water_demand_l_kg"`

	ExternalLoadEnabled bool      `json:"external_load"`
	ExternalLoadPath    string    `json:"external_load_path"`
	ExternalLoadKg      []float64 `json:"external_load_kg"`

	ExcessHydrogenPotential bool `json:"excess_hydrogen_potential"`

	SystemOMCostPerKWh float64 `json:"system_om_cost_kwh"`
	CapitalCost        float64 `json:"capital_cost"`
	OMCostPerKWh       float64 `json:"operation_maintenance_cost_kwh"`

	Electrolyzer ElectrolyzerInputs `json:"electrolyzer"`
	FuelCell     FuelCellInputs     `json:"fuel_cell"`
	Thermal      ThermalInputs      `json:"thermal"`
}

func defaultDegradation() DegradationParams {
	return DegradationParams{K1: 1e-5, K2: 2.07e-5, K3: 1e-5, K4: 0}
}

// DefaultInputs returns the reference 200 kW electrolyzer, 100 kW fuel cell
// and 200 kg tank system.
func DefaultInputs() Inputs {
	return Inputs{
		Name:                   "h2",
		InitSOC:                0.5,
		MinSOC:                 0.01,
		HysteresisSOC:          0.1,
		MaxSOC:                 1,
		ResetTankOnReplacement: true,

		KWhPerKg:       33.3,
		TankCapacityKg: 200,
		TankCostPerKg:  1200,

		CompressionIncluded:               true,
		CompressorSpecConsumptionKWhPerKg: 2.5,
		CompressorEfficiency:              0.7,
		CompressorCapitalCostPerKW:        2700,

		WaterTreatmentIncluded:         true,
		WaterTreatmentCapitalCostPerKW: 200,
		WaterDemandLPerKg:              17.2,

		SystemOMCostPerKWh: 0.06,
		CapitalCost:        -1,
		OMCostPerKWh:       -1,

		Electrolyzer: ElectrolyzerInputs{
			CapacityKW:              200,
			Quantity:                1,
			SpecConsumptionKWhPerKg: 60,
			MinLoadRatio:            0.1,
			MinRuntimeHrs:           0.1,
			RampLoss:                0.1,
			ReplaceSOH:              0.9,
			CapitalCostPerKW:        1600,
			OMCostPerKWh:            0.06,
			CapacityFactorB:         0.1,
			Degradation:             defaultDegradation(),
		},
		FuelCell: FuelCellInputs{
			CapacityKW:              100,
			Quantity:                1,
			SpecConsumptionKgPerKWh: 0.055,
			MinLoadRatio:            0.25,
			MinRuntimeHrs:           0.1,
			RampLoss:                0,
			ReplaceSOH:              0.9,
			CapitalCostPerKW:        2000,
			OMCostPerKWh:            0.06,
			CapacityFactorB:         0.1,
			Degradation:             defaultDegradation(),
		},
		Thermal: ThermalInputs{
			CpElectrolyzer:      800,
			CpFuelCell:          800,
			DensityElectrolyzer: 2,
			DensityFuelCell:     2,
		},
	}
}

func unitInterval(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be in [0, 1], got %g", ErrInvalidInputs, name, v)
	}
	return nil
}

func positive(name string, v float64) error {
	if v <= 0 {
		return fmt.Errorf("%w: %s must be positive, got %g", ErrInvalidInputs, name, v)
	}
	return nil
}

// Validate checks state-of-charge bounds and physical sizes.
func (in Inputs) Validate() error {
	checks := []error{
		unitInterval("init_soc", in.InitSOC),
		unitInterval("min_soc", in.MinSOC),
		unitInterval("hysteresis_soc", in.HysteresisSOC),
		unitInterval("max_soc", in.MaxSOC),
		unitInterval("electrolyzer.replace_soh", in.Electrolyzer.ReplaceSOH),
		unitInterval("fuel_cell.replace_soh", in.FuelCell.ReplaceSOH),
		unitInterval("electrolyzer.min_load_ratio", in.Electrolyzer.MinLoadRatio),
		unitInterval("fuel_cell.min_load_ratio", in.FuelCell.MinLoadRatio),
		positive("kwh_kg_conversion", in.KWhPerKg),
		positive("tank_capacity_kg", in.TankCapacityKg),
		positive("electrolyzer.capacity_kw", in.Electrolyzer.CapacityKW),
		positive("electrolyzer.spec_consumption_kwh_kg", in.Electrolyzer.SpecConsumptionKWhPerKg),
		positive("fuel_cell.capacity_kw", in.FuelCell.CapacityKW),
		positive("fuel_cell.spec_consumption_kg_kwh", in.FuelCell.SpecConsumptionKgPerKWh),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}
	if in.MinSOC > in.MaxSOC {
		return fmt.Errorf("%w: min_soc %g above max_soc %g", ErrInvalidInputs, in.MinSOC, in.MaxSOC)
	}
	if in.Electrolyzer.Quantity < 1 || in.FuelCell.Quantity < 1 {
		return fmt.Errorf("%w: unit quantity must be at least 1", ErrInvalidInputs)
	}
	if in.CompressionIncluded {
		if err := unitInterval("compressor_efficiency", in.CompressorEfficiency); err != nil {
			return err
		}
	}
	return nil
}

// GenericCapitalCost prices the tank, both stacks and the optional
// compressor and water treatment plant.
func GenericCapitalCost(in Inputs) float64 {
	elKW := in.Electrolyzer.CapacityKW * float64(in.Electrolyzer.Quantity)
	fcKW := in.FuelCell.CapacityKW * float64(in.FuelCell.Quantity)
	cost := in.TankCapacityKg*in.TankCostPerKg +
		elKW*in.Electrolyzer.CapitalCostPerKW +
		fcKW*in.FuelCell.CapitalCostPerKW
	if in.CompressionIncluded {
		cost += elKW * in.CompressorCapitalCostPerKW
	}
	if in.WaterTreatmentIncluded {
		cost += elKW * in.WaterTreatmentCapitalCostPerKW
	}
	return cost
}

// GenericOMCostPerKWh is the system operation and maintenance rate.
func GenericOMCostPerKWh(in Inputs) float64 {
	return in.SystemOMCostPerKWh
}
