// Package hydrogen models a green hydrogen storage system: an electrolyzer
// fills a compressed tank and a fuel cell draws it down. Both units enforce
// minimum load and minimum runtime, lose efficiency at partial load and
// degrade until they are replaced.
package hydrogen

import (
	"fmt"
	"math"

	"github.com/kilianp07/microgrid/core/logger"
	"github.com/kilianp07/microgrid/core/storage"
	"github.com/kilianp07/microgrid/core/timeseries"
)

const (
	// ExternalLoadTimeHeader and ExternalLoadHeader name the columns of the
	// external hydrogen load file.
	ExternalLoadTimeHeader = "Time (since start of data) [hrs]"
	ExternalLoadHeader     = "Hydrogen Load [kg]"

	tolerance = 1e-9
)

// Replacement describes a unit reaching its end of life.
type Replacement struct {
	System   string
	Unit     string
	Timestep int
	Count    int
}

// Option customises a System.
type Option func(*System)

// WithLogger attaches a logger for soft constraint warnings.
func WithLogger(l logger.Logger) Option {
	return func(s *System) { s.log = logger.OrNop(l) }
}

// WithReplacementHook is called on every unit replacement.
func WithReplacementHook(f func(Replacement)) Option {
	return func(s *System) { s.onReplacement = f }
}

// System is the hydrogen storage asset.
type System struct {
	in  Inputs
	log logger.Logger

	EL *Electrolyzer
	FC *FuelCell

	energyCapacityKWh float64
	powerCapacityKW   float64
	compressionKW     float64
	omRate            float64
	capitalCost       float64

	tankLevelKg    float64
	chargeKWh      float64
	depleted       bool
	powerKW        float64
	makingExternal bool
	externalLoadKg []float64

	TankLevelVecKg         []float64
	ChargeVecKWh           []float64
	ChargingVecKW          []float64
	DischargingVecKW       []float64
	CompressionVecKW       []float64
	WaterDemandVecL        []float64
	HydrogenLoadVecKg      []float64
	CurtailedHydrogenVecKg []float64
	VentedVecKg            []float64
	OMCostVec              []float64

	TotalExternalLoadMetKg   float64
	TotalCurtailedHydrogenKg float64
	TotalVentedKg            float64
	TotalWaterDemandL        float64
	TotalCompressionKWh      float64
	TotalChargedKWh          float64
	TotalDischargedKWh       float64
	TotalOMCost              float64

	onReplacement func(Replacement)
}

var _ storage.Hydrogen = (*System)(nil)

// New validates inputs and returns a system sized for nPoints timesteps.
func New(nPoints int, in Inputs, opts ...Option) (*System, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s := &System{
		in:  in,
		log: logger.Nop{},
		EL:  newElectrolyzer(nPoints, in.Electrolyzer, in.KWhPerKg),
		FC:  newFuelCell(nPoints, in.FuelCell, in.KWhPerKg),

		TankLevelVecKg:         make([]float64, nPoints),
		ChargeVecKWh:           make([]float64, nPoints),
		ChargingVecKW:          make([]float64, nPoints),
		DischargingVecKW:       make([]float64, nPoints),
		CompressionVecKW:       make([]float64, nPoints),
		WaterDemandVecL:        make([]float64, nPoints),
		HydrogenLoadVecKg:      make([]float64, nPoints),
		CurtailedHydrogenVecKg: make([]float64, nPoints),
		VentedVecKg:            make([]float64, nPoints),
		OMCostVec:              make([]float64, nPoints),
	}
	for _, o := range opts {
		o(s)
	}

	s.energyCapacityKWh = in.TankCapacityKg * in.KWhPerKg * s.FC.NominalEfficiency()
	s.powerCapacityKW = s.FC.RatedKW()
	if in.CompressionIncluded {
		s.compressionKW = in.CompressorSpecConsumptionKWhPerKg * (s.EL.RatedKW() / in.Electrolyzer.SpecConsumptionKWhPerKg)
	}
	s.capitalCost = in.CapitalCost
	if s.capitalCost < 0 {
		s.capitalCost = GenericCapitalCost(in)
	}
	s.omRate = in.OMCostPerKWh
	if s.omRate < 0 {
		s.omRate = GenericOMCostPerKWh(in)
	}

	if in.ExternalLoadEnabled {
		load, err := loadExternal(nPoints, in)
		if err != nil {
			return nil, err
		}
		s.externalLoadKg = load
	}

	s.resetTank()
	return s, nil
}

func loadExternal(nPoints int, in Inputs) ([]float64, error) {
	load := in.ExternalLoadKg
	if len(load) == 0 && in.ExternalLoadPath != "" {
		cols, err := timeseries.ReadFile(in.ExternalLoadPath, ExternalLoadTimeHeader, ExternalLoadHeader)
		if err != nil {
			return nil, fmt.Errorf("external hydrogen load: %w", err)
		}
		load = cols[1]
	}
	if len(load) < nPoints {
		return nil, fmt.Errorf("%w: external hydrogen load has %d points, need %d", ErrInvalidInputs, len(load), nPoints)
	}
	return load, nil
}

func (s *System) resetTank() {
	s.tankLevelKg = s.in.InitSOC * s.in.TankCapacityKg
	s.updateCharge()
	s.depleted = false
	s.toggleDepleted()
}

func (s *System) updateCharge() {
	s.chargeKWh = s.tankLevelKg * s.in.KWhPerKg * s.FC.NominalEfficiency()
}

func (s *System) toggleDepleted() {
	floor := s.in.MinSOC * s.in.TankCapacityKg
	if s.in.DepletionHysteresis && s.depleted {
		s.depleted = s.tankLevelKg < (s.in.MinSOC+s.in.HysteresisSOC)*s.in.TankCapacityKg
		return
	}
	s.depleted = s.tankLevelKg <= floor
}

func (s *System) record(t int) {
	s.TankLevelVecKg[t] = s.tankLevelKg
	s.ChargeVecKWh[t] = s.chargeKWh
}

func (s *System) Kind() storage.Kind { return storage.H2 }
func (s *System) Name() string       { return s.in.Name }
func (s *System) IsDepleted() bool   { return s.depleted }
func (s *System) PowerKW() float64   { return s.powerKW }
func (s *System) AddPowerKW(kW float64) {
	s.powerKW += kW
}

// TankLevelKg is the hydrogen currently stored.
func (s *System) TankLevelKg() float64 { return s.tankLevelKg }

// ChargeKWh is the electricity the stored hydrogen can deliver.
func (s *System) ChargeKWh() float64 { return s.chargeKWh }

// EnergyCapacityKWh is the electricity a full tank can deliver.
func (s *System) EnergyCapacityKWh() float64 { return s.energyCapacityKWh }

// PowerCapacityKW is the fuel cell rating.
func (s *System) PowerCapacityKW() float64 { return s.powerCapacityKW }

// CompressionKW is the compressor draw while the electrolyzer runs.
func (s *System) CompressionKW() float64 { return s.compressionKW }

// CapitalCost is the configured cost or, when unset, the generic estimate.
func (s *System) CapitalCost() float64 { return s.capitalCost }

// OMCostPerKWh is the operation and maintenance rate applied to throughput.
func (s *System) OMCostPerKWh() float64 { return s.omRate }

func (s *System) MinELCapacityKW() float64 {
	return s.EL.RatedKW()*s.EL.minLoadRatio + s.compressionKW
}

func (s *System) MinFCCapacityKW() float64 {
	return s.powerCapacityKW * s.FC.minLoadRatio
}

func (s *System) ELMinRuntime(t int) bool { return s.EL.minRuntime(t) }
func (s *System) FCMinRuntime(t int) bool { return s.FC.minRuntime(t) }

func (s *System) ExternalLoadEnabled() bool           { return s.in.ExternalLoadEnabled }
func (s *System) MakingHydrogenForExternalLoad() bool { return s.makingExternal }

// AcceptableKW is the electrolyzer draw the tank can still absorb, including
// the compressor.
func (s *System) AcceptableKW(_ int, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	roomKg := s.in.MaxSOC*s.in.TankCapacityKg - s.tankLevelKg
	if roomKg <= 0 {
		return 0
	}
	room := s.EL.drawForKg(roomKg, dt)
	return math.Max(room+s.compressionKW-s.powerKW, 0)
}

// AvailableKW is the fuel cell output the tank can sustain over dt.
func (s *System) AvailableKW(_ int, dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	available := (s.chargeKWh - s.in.MinSOC*s.energyCapacityKWh) / dt
	if available <= 0 {
		return 0
	}
	available = math.Min(available, s.powerCapacityKW)
	if spec := s.FC.SpecConsumptionKgPerKWh(); spec > 0 {
		available = math.Min(available, s.tankLevelKg/spec/dt)
	}
	return math.Max(available-s.powerKW, 0)
}

func (s *System) CommitDischarge(t int, dt, kW, loadKW float64) float64 {
	return s.CommitFuelCell(t, dt, kW, loadKW)
}

func (s *System) CommitCharge(t int, dt, kW float64) {
	s.CommitElectrolysis(t, dt, kW)
}

// CommitElectrolysis runs the electrolyzer at kW (compressor included) for
// timestep t. Hydrogen beyond the tank capacity is vented.
func (s *System) CommitElectrolysis(t int, dt, kW float64) {
	charging := math.Max(kW, 0)
	if charging > 0 && s.compressionKW > 0 {
		s.CompressionVecKW[t] = s.compressionKW
		s.TotalCompressionKWh += s.compressionKW * dt
		charging = math.Max(charging-s.compressionKW, 0)
	}
	prev := 0.0
	if t > 0 {
		prev = s.EL.PowerVecKW[t-1]
	}
	if charging > prev && s.EL.RatedKW() > 0 {
		ratio := (charging - prev) / s.EL.RatedKW()
		charging -= charging * s.in.Electrolyzer.RampLoss * ratio
	}

	kg := s.EL.produce(t, dt, charging)
	s.addWater(t, kg)
	s.handleReplacement(t, s.EL.degrade(t), s.EL.name)
	s.EL.run(t, dt, charging > 0)
	s.EL.commit(t, charging)

	s.ChargingVecKW[t] = charging
	s.TotalChargedKWh += charging * dt
	if over := s.tankLevelKg + kg - s.in.TankCapacityKg; over > 0 {
		s.VentedVecKg[t] += over
		s.TotalVentedKg += over
		kg -= over
	}
	s.tankLevelKg += kg
	s.updateCharge()
	s.toggleDepleted()
	s.addOM(t, charging*dt)
	s.record(t)
	s.powerKW = 0
}

// CommitFuelCell runs the fuel cell at kW for timestep t and returns the
// load left to serve.
func (s *System) CommitFuelCell(t int, dt, kW, loadKW float64) float64 {
	kW = math.Max(kW, 0)
	if kW > 0 && kW < s.MinFCCapacityKW()-tolerance {
		s.log.Warnf("%s: fuel cell output %.3f kW below minimum load %.3f kW at timestep %d", s.in.Name, kW, s.MinFCCapacityKW(), t)
	}
	prev := 0.0
	if t > 0 {
		prev = s.FC.PowerVecKW[t-1]
	}
	kg := s.FC.consume(t, dt, kW)
	if kW > prev && s.FC.RatedKW() > 0 {
		kg *= 1 + s.in.FuelCell.RampLoss*(kW-prev)/s.FC.RatedKW()
	}
	kg = math.Min(kg, s.tankLevelKg)
	s.FC.ConsumptionVecKg[t] = kg
	s.FC.TotalConsumptionKg += kg
	s.handleReplacement(t, s.FC.degrade(t), s.FC.name)
	s.FC.run(t, dt, kW > 0)
	s.FC.commit(t, kW)

	s.tankLevelKg = math.Max(s.tankLevelKg-kg, 0)
	s.updateCharge()
	s.DischargingVecKW[t] = kW
	s.TotalDischargedKWh += kW * dt
	s.toggleDepleted()
	s.addOM(t, kW*dt)
	s.record(t)
	s.powerKW = 0
	return loadKW - kW
}

// CommitExternalHydrogenLoadKg serves the external hydrogen demand of
// timestep t. Demand the tank cannot cover is produced by the electrolyzer
// and its draw is returned so the caller can add it to the electrical load.
func (s *System) CommitExternalHydrogenLoadKg(t int, dt float64) float64 {
	s.makingExternal = false
	if !s.in.ExternalLoadEnabled || t >= len(s.externalLoadKg) {
		return 0
	}
	demand := s.externalLoadKg[t]
	if demand <= 0 {
		return 0
	}
	s.HydrogenLoadVecKg[t] = demand
	if s.tankLevelKg >= demand {
		s.tankLevelKg -= demand
		s.TotalExternalLoadMetKg += demand
		s.updateCharge()
		s.toggleDepleted()
		s.record(t)
		return 0
	}
	if dt <= 0 {
		return 0
	}
	charging := demand * s.EL.SpecConsumptionKWhPerKg() / dt
	if charging > s.EL.RatedKW() {
		s.log.Warnf("%s: hydrogen load %.3f kg at timestep %d needs %.3f kW, above electrolyzer capacity %.3f kW", s.in.Name, demand, t, charging, s.EL.RatedKW())
		return 0
	}
	kg := s.EL.produce(t, dt, charging)
	s.addWater(t, kg)
	s.handleReplacement(t, s.EL.degrade(t), s.EL.name)
	s.EL.run(t, dt, true)
	s.makingExternal = true
	s.TotalExternalLoadMetKg += demand
	s.addOM(t, charging*dt)
	s.record(t)
	return charging
}

// CommitCurtailmentHydrogen turns unused curtailment into hydrogen that
// cannot be stored because the tank is full.
func (s *System) CommitCurtailmentHydrogen(t int, dt, unusedKW float64) {
	if !s.in.ExcessHydrogenPotential || unusedKW <= 0 {
		return
	}
	if s.tankLevelKg < s.in.MaxSOC*s.in.TankCapacityKg-tolerance {
		return
	}
	charging := math.Min(unusedKW, s.EL.RatedKW())
	if charging < s.EL.RatedKW()*s.EL.minLoadRatio {
		return
	}
	kg := s.EL.produce(t, dt, charging)
	s.addWater(t, kg)
	s.handleReplacement(t, s.EL.degrade(t), s.EL.name)
	s.EL.run(t, dt, true)
	s.CurtailedHydrogenVecKg[t] = kg
	s.TotalCurtailedHydrogenKg += kg
}

func (s *System) addWater(t int, kg float64) {
	if !s.in.WaterTreatmentIncluded || kg <= 0 {
		return
	}
	l := kg * s.in.WaterDemandLPerKg
	s.WaterDemandVecL[t] += l
	s.TotalWaterDemandL += l
}

func (s *System) addOM(t int, kWh float64) {
	cost := s.omRate * kWh
	s.OMCostVec[t] += cost
	s.TotalOMCost += cost
}

func (s *System) handleReplacement(t int, replaced bool, unitName string) {
	if !replaced {
		return
	}
	if s.in.ResetTankOnReplacement {
		s.resetTank()
	}
	count := s.EL.Replacements
	if unitName == s.FC.name {
		count = s.FC.Replacements
	}
	s.log.Infof("%s: %s replaced at timestep %d (replacement %d)", s.in.Name, unitName, t, count)
	if s.onReplacement != nil {
		s.onReplacement(Replacement{System: s.in.Name, Unit: unitName, Timestep: t, Count: count})
	}
}
