package hydrogen

// unit holds the state shared by the electrolyzer and the fuel cell.
type unit struct {
	name          string
	ratedKW       float64
	minLoadRatio  float64
	minRuntimeHrs float64
	replaceSOH    float64
	b             float64

	deg Degradation

	Running           bool
	CurrentRuntimeHrs float64
	// RuntimeHrs counts hours since the last replacement, TotalRuntimeHrs
	// hours over the whole run.
	RuntimeHrs       float64
	TotalRuntimeHrs  float64
	Replacements     int
	EnforcedRuntimes int

	// PowerVecKW is draw for the electrolyzer and output for the fuel cell.
	PowerVecKW      []float64
	// CommittedVecKW is the share of PowerVecKW committed by storage
	// dispatch. Minimum runtime only holds a unit that dispatch started.
	CommittedVecKW  []float64
	EfficiencyVec   []float64
	HeatVecKW       []float64
	SOHVec          []float64
	OperatingRatios []float64

	streakStep   int
	enforcedStep int
}

func newUnit(name string, nPoints int, ratedKW, minLoad, minRuntime, replaceSOH, b float64, p DegradationParams) unit {
	return unit{
		name:            name,
		ratedKW:         ratedKW,
		minLoadRatio:    minLoad,
		minRuntimeHrs:   minRuntime,
		replaceSOH:      replaceSOH,
		b:               b,
		deg:             newDegradation(p),
		PowerVecKW:      make([]float64, nPoints),
		CommittedVecKW:  make([]float64, nPoints),
		EfficiencyVec:   make([]float64, nPoints),
		HeatVecKW:       make([]float64, nPoints),
		SOHVec:          make([]float64, nPoints),
		OperatingRatios: make([]float64, nPoints),
		streakStep:      -1,
		enforcedStep:    -1,
	}
}

// RatedKW is the combined capacity of all stacks.
func (u *unit) RatedKW() float64 { return u.ratedKW }

// SOH is the current state of health.
func (u *unit) SOH() float64 { return u.deg.SOH() }

// StartStops is the number of starts since the last replacement.
func (u *unit) StartStops() int { return u.deg.StartStops() }

func (u *unit) ratio(kW float64) float64 {
	if u.ratedKW <= 0 {
		return 0
	}
	return kW / u.ratedKW
}

// efficiencyFactor is the capacity factor adjustment applied to the nominal
// efficiency at a given operating ratio.
func (u *unit) efficiencyFactor(ratio float64) float64 {
	return 1 + u.b*(1-ratio)
}

func (u *unit) wasActive(t int) bool {
	return t > 0 && u.PowerVecKW[t-1] > 0
}

func (u *unit) wasCommitted(t int) bool {
	return t > 0 && u.CommittedVecKW[t-1] > 0
}

func (u *unit) commit(t int, kW float64) {
	u.CommittedVecKW[t] = kW
}

// minRuntime refreshes the running state from timestep t-1 and reports
// whether the unit must stay committed. Repeated calls for the same timestep
// count one enforcement.
func (u *unit) minRuntime(t int) bool {
	if t == 0 {
		return false
	}
	if u.wasCommitted(t) {
		u.Running = true
	} else {
		u.Running = false
		u.CurrentRuntimeHrs = 0
	}
	if u.Running && u.CurrentRuntimeHrs < u.minRuntimeHrs {
		if u.enforcedStep != t {
			u.EnforcedRuntimes++
			u.enforcedStep = t
		}
		return true
	}
	return false
}

// degrade updates the state of health for timestep t and reports whether
// the unit crossed its replacement threshold and was reset.
func (u *unit) degrade(t int) bool {
	kW := u.PowerVecKW[t]
	soh := u.deg.Update(kW > 0, u.wasActive(t), u.ratio(kW), u.RuntimeHrs)
	u.SOHVec[t] = soh
	if kW > 0 && soh <= u.replaceSOH {
		u.replace()
		u.SOHVec[t] = u.deg.SOH()
		return true
	}
	return false
}

func (u *unit) replace() {
	u.deg.Reset()
	u.Replacements++
	u.RuntimeHrs = 0
	u.CurrentRuntimeHrs = 0
	u.Running = false
}

// run advances the runtime counters. The running streak grows at most once
// per timestep.
func (u *unit) run(t int, dt float64, active bool) {
	if active {
		u.RuntimeHrs += dt
		u.TotalRuntimeHrs += dt
		u.Running = true
	}
	if u.Running && u.streakStep != t {
		u.CurrentRuntimeHrs += dt
		u.streakStep = t
	}
}

func heat(kW, efficiency float64) float64 {
	if kW <= 0 {
		return 0
	}
	if efficiency > 1 {
		efficiency = 1
	}
	return kW * (1 - efficiency)
}
