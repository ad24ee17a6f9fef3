package model

import "fmt"

// LoadStruct carries the targets that shrink as each dispatch stage commits
// production within a single timestep.
type LoadStruct struct {
	LoadKW                     float64
	TotalRenewableProductionKW float64
	RequiredFirmDispatchKW     float64
	RequiredSpinningReserveKW  float64
}

// NetKW returns the load left after renewable production.
func (l LoadStruct) NetKW() float64 {
	return l.LoadKW - l.TotalRenewableProductionKW
}

// ClampRequirements floors the firm dispatch and spinning reserve
// requirements at zero.
func (l *LoadStruct) ClampRequirements() {
	if l.RequiredFirmDispatchKW < 0 {
		l.RequiredFirmDispatchKW = 0
	}
	if l.RequiredSpinningReserveKW < 0 {
		l.RequiredSpinningReserveKW = 0
	}
}

// LoadProvider exposes the electrical load time series.
type LoadProvider interface {
	NPoints() int
	DtHrs(i int) float64
	LoadKW(i int) float64
}

// ElectricalLoad is an in-memory load time series.
type ElectricalLoad struct {
	TimeHrs []float64 `json:"time_hrs"`
	Dt      []float64 `json:"dt_hrs"`
	Load    []float64 `json:"load_kw"`
}

// NewElectricalLoad builds a load series from timestamps (hours since start)
// and loads. The last timestep reuses the previous dt.
func NewElectricalLoad(timeHrs, loadKW []float64) (*ElectricalLoad, error) {
	if len(timeHrs) != len(loadKW) {
		return nil, fmt.Errorf("load series length mismatch: %d timestamps, %d values", len(timeHrs), len(loadKW))
	}
	dt := make([]float64, len(timeHrs))
	for i := range timeHrs {
		switch {
		case i+1 < len(timeHrs):
			dt[i] = timeHrs[i+1] - timeHrs[i]
		case i > 0:
			dt[i] = dt[i-1]
		default:
			dt[i] = 1
		}
		if dt[i] <= 0 {
			return nil, fmt.Errorf("load series not increasing at row %d", i)
		}
	}
	return &ElectricalLoad{TimeHrs: timeHrs, Dt: dt, Load: loadKW}, nil
}

// ConstantLoad returns n points of the same load with a fixed dt.
func ConstantLoad(n int, dtHrs, loadKW float64) *ElectricalLoad {
	l := &ElectricalLoad{
		TimeHrs: make([]float64, n),
		Dt:      make([]float64, n),
		Load:    make([]float64, n),
	}
	for i := 0; i < n; i++ {
		l.TimeHrs[i] = float64(i) * dtHrs
		l.Dt[i] = dtHrs
		l.Load[i] = loadKW
	}
	return l
}

func (l *ElectricalLoad) NPoints() int         { return len(l.Load) }
func (l *ElectricalLoad) DtHrs(i int) float64  { return l.Dt[i] }
func (l *ElectricalLoad) LoadKW(i int) float64 { return l.Load[i] }

// TimeAt returns the hours elapsed since the start of the series.
func (l *ElectricalLoad) TimeAt(i int) float64 {
	if i < len(l.TimeHrs) {
		return l.TimeHrs[i]
	}
	return 0
}
