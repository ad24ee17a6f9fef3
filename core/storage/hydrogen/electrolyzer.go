package hydrogen

import "math"

// Electrolyzer converts electrical draw into hydrogen. Its specific
// consumption rises as the stack degrades.
type Electrolyzer struct {
	unit

	kWhPerKg     float64
	initialSpec  float64
	specKWhPerKg float64

	OutputVecKg   []float64
	TotalOutputKg float64
}

func newElectrolyzer(nPoints int, in ElectrolyzerInputs, kWhPerKg float64) *Electrolyzer {
	rated := in.CapacityKW * float64(in.Quantity)
	return &Electrolyzer{
		unit:         newUnit("electrolyzer", nPoints, rated, in.MinLoadRatio, in.MinRuntimeHrs, in.ReplaceSOH, in.CapacityFactorB, in.Degradation),
		kWhPerKg:     kWhPerKg,
		initialSpec:  in.SpecConsumptionKWhPerKg,
		specKWhPerKg: in.SpecConsumptionKWhPerKg,
		OutputVecKg:  make([]float64, nPoints),
	}
}

// SpecConsumptionKWhPerKg is the current electricity demand per kg produced.
func (e *Electrolyzer) SpecConsumptionKWhPerKg() float64 { return e.specKWhPerKg }

// NominalEfficiency is the full-load conversion efficiency.
func (e *Electrolyzer) NominalEfficiency() float64 {
	if e.specKWhPerKg <= 0 {
		return 0
	}
	return e.kWhPerKg / e.specKWhPerKg
}

// produce records a draw of kW over dt and returns the hydrogen produced.
func (e *Electrolyzer) produce(t int, dt, kW float64) float64 {
	if kW <= 0 || e.specKWhPerKg <= 0 {
		e.PowerVecKW[t] = 0
		e.OperatingRatios[t] = 0
		e.EfficiencyVec[t] = 0
		e.HeatVecKW[t] = 0
		e.OutputVecKg[t] = 0
		return 0
	}
	ratio := e.ratio(kW)
	factor := e.efficiencyFactor(ratio)
	kg := kW / e.specKWhPerKg * factor * dt

	e.PowerVecKW[t] = kW
	e.OperatingRatios[t] = ratio
	e.EfficiencyVec[t] = e.NominalEfficiency() * factor
	e.HeatVecKW[t] = heat(kW, e.EfficiencyVec[t])
	e.OutputVecKg[t] = kg
	e.TotalOutputKg += kg
	return kg
}

// degrade updates health and drifts the specific consumption.
func (e *Electrolyzer) degrade(t int) bool {
	replaced := e.unit.degrade(t)
	e.specKWhPerKg = e.initialSpec * (1 + (1 - e.SOH()))
	return replaced
}

// drawForKg is the draw that produces kg over dt, capped at the rated
// capacity. It inverts produce, whose output is quadratic in the draw once
// the capacity factor adjustment applies.
func (e *Electrolyzer) drawForKg(kg, dt float64) float64 {
	if kg <= 0 || dt <= 0 || e.specKWhPerKg <= 0 || e.ratedKW <= 0 {
		return 0
	}
	a := dt / e.specKWhPerKg
	if kg >= a*e.ratedKW {
		return e.ratedKW
	}
	if e.b == 0 {
		return kg / a
	}
	// kg = a(1+b)kW - (ab/R)kW^2, taking the root below the rated draw.
	lin := a * (1 + e.b)
	quad := a * e.b / e.ratedKW
	disc := lin*lin - 4*quad*kg
	if disc < 0 {
		return e.ratedKW
	}
	return math.Min((lin-math.Sqrt(disc))/(2*quad), e.ratedKW)
}
