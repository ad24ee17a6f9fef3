package dispatch

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/microgrid/core/metrics"
)

// Summary aggregates the last run. Energies integrate each residual over
// the timestep it was recorded in.
func (d *Dispatcher) Summary() metrics.RunSummary {
	s := metrics.RunSummary{
		RunID:        d.runID,
		Steps:        d.nPoints,
		Duration:     d.lastRunElapsed,
		ServedKWh:    d.servedKWh,
		CurtailedKWh: d.curtailedKWh,
		Replacements: d.replacements,
		Time:         time.Now(),
	}
	if d.table != nil {
		s.CommitmentEntries = d.table.Len()
	}
	if d.nPoints == 0 {
		return s
	}
	s.MissedLoadKWh = floats.Dot(d.missedLoadKW, d.dtHrs)
	s.MissedFirmKWh = floats.Dot(d.missedFirmKW, d.dtHrs)
	s.MissedReserveKWh = floats.Dot(d.missedReserve, d.dtHrs)
	for t := range d.missedLoadKW {
		if d.missedLoadKW[t] > 0 || d.missedFirmKW[t] > 0 || d.missedReserve[t] > 0 {
			s.ShortfallSteps++
		}
	}
	s.MeanNetLoadKW = stat.Mean(d.netLoadKW, nil)
	if d.nPoints > 1 {
		s.StdNetLoadKW = stat.StdDev(d.netLoadKW, nil)
	}
	s.PeakNetLoadKW = floats.Max(d.netLoadKW)
	return s
}
