package daily

import "github.com/kilianp07/microgrid/core/metrics"

// Sink converts step records into daily energy totals.
type Sink struct {
	Store Store
}

// NewSink returns a Sink writing to store, or to a fresh MemoryStore when nil.
func NewSink(store Store) *Sink {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Sink{Store: store}
}

func (s *Sink) RecordStep(rec metrics.StepRecord) error {
	dt := rec.DtHrs
	return s.Store.Add(Record{
		RunID:        rec.RunID,
		Day:          DayOf(rec.TimeHrs),
		LoadKWh:      rec.LoadKW * dt,
		RenewableKWh: rec.RenewableKW * dt,
		CurtailedKWh: rec.CurtailmentKW * dt,
		MissedKWh:    rec.MissedLoadKW * dt,
	})
}
