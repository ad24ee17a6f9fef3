package hydrogen

// FuelCell converts hydrogen back into electricity.
type FuelCell struct {
	unit

	kWhPerKg     float64
	initialSpec  float64
	specKgPerKWh float64

	ConsumptionVecKg   []float64
	TotalConsumptionKg float64
}

func newFuelCell(nPoints int, in FuelCellInputs, kWhPerKg float64) *FuelCell {
	rated := in.CapacityKW * float64(in.Quantity)
	return &FuelCell{
		unit:             newUnit("fuel_cell", nPoints, rated, in.MinLoadRatio, in.MinRuntimeHrs, in.ReplaceSOH, in.CapacityFactorB, in.Degradation),
		kWhPerKg:         kWhPerKg,
		initialSpec:      in.SpecConsumptionKgPerKWh,
		specKgPerKWh:     in.SpecConsumptionKgPerKWh,
		ConsumptionVecKg: make([]float64, nPoints),
	}
}

// SpecConsumptionKgPerKWh is the current hydrogen demand per kWh delivered.
func (f *FuelCell) SpecConsumptionKgPerKWh() float64 { return f.specKgPerKWh }

// NominalEfficiency is the full-load conversion efficiency.
func (f *FuelCell) NominalEfficiency() float64 {
	if f.kWhPerKg <= 0 || f.specKgPerKWh <= 0 {
		return 0
	}
	return 1 / (f.kWhPerKg * f.specKgPerKWh)
}

// consume records an output of kW over dt and returns the hydrogen burnt.
func (f *FuelCell) consume(t int, dt, kW float64) float64 {
	if kW <= 0 {
		f.PowerVecKW[t] = 0
		f.OperatingRatios[t] = 0
		f.EfficiencyVec[t] = 0
		f.HeatVecKW[t] = 0
		f.ConsumptionVecKg[t] = 0
		return 0
	}
	ratio := f.ratio(kW)
	factor := f.efficiencyFactor(ratio)
	kg := f.specKgPerKWh * kW * dt / factor

	f.PowerVecKW[t] = kW
	f.OperatingRatios[t] = ratio
	f.EfficiencyVec[t] = f.NominalEfficiency() * factor
	f.HeatVecKW[t] = heat(kW, f.EfficiencyVec[t])
	f.ConsumptionVecKg[t] = kg
	return kg
}

func (f *FuelCell) degrade(t int) bool {
	replaced := f.unit.degrade(t)
	f.specKgPerKWh = f.initialSpec * (1 + (1 - f.SOH()))
	return replaced
}
