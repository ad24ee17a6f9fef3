package metrics

import "time"

// StepRecord is the dispatch outcome of one timestep.
type StepRecord struct {
	RunID              string  `json:"run_id"`
	Timestep           int     `json:"timestep"`
	TimeHrs            float64 `json:"time_hrs"`
	DtHrs              float64 `json:"dt_hrs"`
	LoadKW             float64 `json:"load_kw"`
	NetLoadKW          float64 `json:"net_load_kw"`
	CombustionKW       float64 `json:"combustion_kw"`
	NoncombustionKW    float64 `json:"noncombustion_kw"`
	RenewableKW        float64 `json:"renewable_kw"`
	StorageDischargeKW float64 `json:"storage_discharge_kw"`
	StorageChargeKW    float64 `json:"storage_charge_kw"`
	CurtailmentKW      float64 `json:"curtailment_kw"`
	AllocatedKW        float64 `json:"allocated_kw"`
	UnitsOnline        int     `json:"units_online"`
	MissedLoadKW       float64 `json:"missed_load_kw"`
	MissedFirmKW       float64 `json:"missed_firm_kw"`
	MissedReserveKW    float64 `json:"missed_reserve_kw"`
}

// Shortfall reports whether any residual was recorded for the step.
func (r StepRecord) Shortfall() bool {
	return r.MissedLoadKW > 0 || r.MissedFirmKW > 0 || r.MissedReserveKW > 0
}

// MetricsSink records dispatch steps for observability purposes.
type MetricsSink interface {
	RecordStep(rec StepRecord) error
}

// RunSummary aggregates a finished run.
type RunSummary struct {
	RunID             string        `json:"run_id"`
	Steps             int           `json:"steps"`
	Duration          time.Duration `json:"duration"`
	ServedKWh         float64       `json:"served_kwh"`
	MissedLoadKWh     float64       `json:"missed_load_kwh"`
	MissedFirmKWh     float64       `json:"missed_firm_kwh"`
	MissedReserveKWh  float64       `json:"missed_reserve_kwh"`
	CurtailedKWh      float64       `json:"curtailed_kwh"`
	ShortfallSteps    int           `json:"shortfall_steps"`
	MeanNetLoadKW     float64       `json:"mean_net_load_kw"`
	PeakNetLoadKW     float64       `json:"peak_net_load_kw"`
	StdNetLoadKW      float64       `json:"std_net_load_kw"`
	Replacements      int           `json:"replacements"`
	CommitmentEntries int           `json:"commitment_entries"`
	Time              time.Time     `json:"time"`
}

// RunSummaryRecorder records the summary of a finished run.
type RunSummaryRecorder interface {
	RecordRunSummary(s RunSummary) error
}

// ReplacementEvent captures a hydrogen sub-unit replacement.
type ReplacementEvent struct {
	RunID    string    `json:"run_id"`
	Storage  string    `json:"storage"`
	Unit     string    `json:"unit"`
	Timestep int       `json:"timestep"`
	Count    int       `json:"count"`
	Time     time.Time `json:"time"`
}

// ReplacementRecorder records unit replacements.
type ReplacementRecorder interface {
	RecordReplacement(ev ReplacementEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordStep(StepRecord) error              { return nil }
func (NopSink) RecordRunSummary(RunSummary) error        { return nil }
func (NopSink) RecordReplacement(ReplacementEvent) error { return nil }
