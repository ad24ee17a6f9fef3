package hydrogen

// Degradation converts runtime, start-stop events and the average operating
// ratio of a unit into a state of health. Its accumulators live as long as
// the unit and are cleared only by Reset.
type Degradation struct {
	params DegradationParams

	soh        float64
	ratioSum   float64
	samples    int
	startStops int
}

func newDegradation(p DegradationParams) Degradation {
	return Degradation{params: p, soh: 1}
}

// SOH returns the current state of health.
func (d *Degradation) SOH() float64 { return d.soh }

// StartStops returns the start events counted since the last reset.
func (d *Degradation) StartStops() int { return d.startStops }

// AverageRatio returns the mean operating ratio since the last reset.
func (d *Degradation) AverageRatio() float64 {
	if d.samples == 0 {
		return 0
	}
	return d.ratioSum / float64(d.samples)
}

// Update records one timestep. Idle timesteps leave the state untouched.
// runtimeHrs is the runtime accumulated before this timestep.
func (d *Degradation) Update(active, wasActive bool, ratio, runtimeHrs float64) float64 {
	if !active {
		return d.soh
	}
	if !wasActive {
		d.startStops++
	}
	d.ratioSum += ratio
	d.samples++
	soh := 1 - ((runtimeHrs+1)*d.params.K1 +
		float64(d.startStops)*d.params.K2 +
		(1-d.AverageRatio())*d.params.K3)
	if soh < 0 {
		soh = 0
	}
	if soh < d.soh {
		d.soh = soh
	}
	return d.soh
}

// Reset restores a fresh unit.
func (d *Degradation) Reset() {
	*d = newDegradation(d.params)
}
