package daily

// HoursPerDay sets the day boundaries on the simulation clock.
const HoursPerDay = 24.0

// Record aggregates the energy flows of one simulated day.
type Record struct {
	RunID        string  `json:"run_id"`
	Day          int     `json:"day"`
	LoadKWh      float64 `json:"load_kwh"`
	RenewableKWh float64 `json:"renewable_kwh"`
	CurtailedKWh float64 `json:"curtailed_kwh"`
	MissedKWh    float64 `json:"missed_kwh"`
}

// ServedFraction returns the share of load that was met.
func (r Record) ServedFraction() float64 {
	if r.LoadKWh <= 0 {
		return 1
	}
	return 1 - r.MissedKWh/r.LoadKWh
}

// RenewablePenetration returns renewable energy over load.
func (r Record) RenewablePenetration() float64 {
	if r.LoadKWh <= 0 {
		return 0
	}
	return r.RenewableKWh / r.LoadKWh
}

// DayOf maps a simulation time in hours to its day index.
func DayOf(timeHrs float64) int {
	if timeHrs < 0 {
		return 0
	}
	return int(timeHrs / HoursPerDay)
}
