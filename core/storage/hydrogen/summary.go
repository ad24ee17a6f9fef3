package hydrogen

// Summary aggregates a run for reporting.
type Summary struct {
	Name                     string  `json:"name"`
	TankLevelKg              float64 `json:"tank_level_kg"`
	HydrogenProducedKg       float64 `json:"hydrogen_produced_kg"`
	HydrogenConsumedKg       float64 `json:"hydrogen_consumed_kg"`
	ExternalLoadMetKg        float64 `json:"external_load_met_kg"`
	CurtailedHydrogenKg      float64 `json:"curtailed_hydrogen_kg"`
	VentedHydrogenKg         float64 `json:"vented_hydrogen_kg"`
	WaterDemandL             float64 `json:"water_demand_l"`
	CompressionKWh           float64 `json:"compression_kwh"`
	ChargedKWh               float64 `json:"charged_kwh"`
	DischargedKWh            float64 `json:"discharged_kwh"`
	ELRuntimeHrs             float64 `json:"el_runtime_hrs"`
	FCRuntimeHrs             float64 `json:"fc_runtime_hrs"`
	ELEnforcedRuntimes       int     `json:"el_enforced_runtimes"`
	FCEnforcedRuntimes       int     `json:"fc_enforced_runtimes"`
	ELReplacements           int     `json:"el_replacements"`
	FCReplacements           int     `json:"fc_replacements"`
	SOHElectrolyzer          float64 `json:"soh_el"`
	SOHFuelCell              float64 `json:"soh_fc"`
	CapitalCost              float64 `json:"capital_cost"`
	OperationMaintenanceCost float64 `json:"operation_maintenance_cost"`
}

// Summary returns the totals accumulated so far.
func (s *System) Summary() Summary {
	return Summary{
		Name:                     s.in.Name,
		TankLevelKg:              s.tankLevelKg,
		HydrogenProducedKg:       s.EL.TotalOutputKg,
		HydrogenConsumedKg:       s.FC.TotalConsumptionKg,
		ExternalLoadMetKg:        s.TotalExternalLoadMetKg,
		CurtailedHydrogenKg:      s.TotalCurtailedHydrogenKg,
		VentedHydrogenKg:         s.TotalVentedKg,
		WaterDemandL:             s.TotalWaterDemandL,
		CompressionKWh:           s.TotalCompressionKWh,
		ChargedKWh:               s.TotalChargedKWh,
		DischargedKWh:            s.TotalDischargedKWh,
		ELRuntimeHrs:             s.EL.TotalRuntimeHrs,
		FCRuntimeHrs:             s.FC.TotalRuntimeHrs,
		ELEnforcedRuntimes:       s.EL.EnforcedRuntimes,
		FCEnforcedRuntimes:       s.FC.EnforcedRuntimes,
		ELReplacements:           s.EL.Replacements,
		FCReplacements:           s.FC.Replacements,
		SOHElectrolyzer:          s.EL.SOH(),
		SOHFuelCell:              s.FC.SOH(),
		CapitalCost:              s.capitalCost,
		OperationMaintenanceCost: s.TotalOMCost,
	}
}
