// Package asset defines the generator contracts consumed by the dispatcher
// together with simple reference implementations. Each asset owns its
// per-timestep production, dispatch, curtailment and storage vectors; the
// index of an asset inside its fleet slice is its identity.
package asset

import "github.com/kilianp07/microgrid/core/model"

// Asset is the bookkeeping surface shared by every generator.
type Asset interface {
	Name() string
	CapacityKW() float64
	CurtailmentKW(t int) float64
	StorageKW(t int) float64
	// StoreCurtailment moves kW from the curtailment vector to the storage
	// vector at timestep t.
	StoreCurtailment(t int, dt, kW float64)
}

// Combustion is a dispatchable generator selected through the unit
// commitment table.
type Combustion interface {
	Asset
	IsRunning() bool
	// ForceStart brings the unit online without production so it can carry
	// spinning reserve.
	ForceStart(t int)
	CycleChargingSetpoint() float64
	RequestProductionKW(t int, dt, targetKW float64) float64
	Commit(t int, dt, productionKW, loadKW float64) float64
}

// Noncombustion is a non-dispatchable, non-intermittent generator such as
// run-of-river hydro.
type Noncombustion interface {
	Asset
	ResourceKey() (int, bool)
	RequestProductionKW(t int, dt, targetKW, resource float64) float64
	Commit(t int, dt, productionKW, loadKW, resource float64) float64
}

// Sample is the resource value handed to a renewable for one timestep.
type Sample struct {
	Value float64
	Wave  model.WaveSample
}

// Renewable is an intermittent generator whose production is computed once
// for the whole horizon during initialisation.
type Renewable interface {
	Asset
	Kind() model.RenewableKind
	ResourceKey() int
	NormalizedSeriesGiven() bool
	FirmnessFactor() float64
	ComputeProductionKW(t int, dt float64, s Sample) float64
	ProductionKW(t int) float64
	SetProductionKW(t int, kW float64)
	Commit(t int, dt, productionKW, loadKW float64) float64
}

// Production implements the shared vectors and is embedded by the concrete
// generators in this package.
type Production struct {
	name     string
	capacity float64

	ProductionVecKW  []float64 `json:"production_kw"`
	DispatchVecKW    []float64 `json:"dispatch_kw"`
	CurtailmentVecKW []float64 `json:"curtailment_kw"`
	StorageVecKW     []float64 `json:"storage_kw"`

	TotalDispatchedKWh float64 `json:"total_dispatched_kwh"`
	TotalCurtailedKWh  float64 `json:"total_curtailed_kwh"`
	TotalStoredKWh     float64 `json:"total_stored_kwh"`
}

func newProduction(name string, nPoints int, capacityKW float64) Production {
	return Production{
		name:             name,
		capacity:         capacityKW,
		ProductionVecKW:  make([]float64, nPoints),
		DispatchVecKW:    make([]float64, nPoints),
		CurtailmentVecKW: make([]float64, nPoints),
		StorageVecKW:     make([]float64, nPoints),
	}
}

func (p *Production) Name() string                { return p.name }
func (p *Production) CapacityKW() float64         { return p.capacity }
func (p *Production) CurtailmentKW(t int) float64 { return p.CurtailmentVecKW[t] }
func (p *Production) StorageKW(t int) float64     { return p.StorageVecKW[t] }
func (p *Production) ProductionKW(t int) float64  { return p.ProductionVecKW[t] }

func (p *Production) SetProductionKW(t int, kW float64) {
	p.ProductionVecKW[t] = kW
}

func (p *Production) StoreCurtailment(t int, dt, kW float64) {
	if kW <= 0 {
		return
	}
	if kW > p.CurtailmentVecKW[t] {
		kW = p.CurtailmentVecKW[t]
	}
	p.CurtailmentVecKW[t] -= kW
	p.StorageVecKW[t] += kW
	p.TotalCurtailedKWh -= kW * dt
	p.TotalStoredKWh += kW * dt
}

// commit records production against the remaining load and returns what is
// left of the load. Production above the load becomes curtailment.
func (p *Production) commit(t int, dt, productionKW, loadKW float64) float64 {
	if productionKW < 0 {
		productionKW = 0
	}
	p.ProductionVecKW[t] = productionKW
	dispatch := productionKW
	if loadKW < dispatch {
		dispatch = loadKW
	}
	if dispatch < 0 {
		dispatch = 0
	}
	p.DispatchVecKW[t] = dispatch
	p.CurtailmentVecKW[t] = productionKW - dispatch
	p.TotalDispatchedKWh += dispatch * dt
	p.TotalCurtailedKWh += p.CurtailmentVecKW[t] * dt
	return loadKW - dispatch
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
