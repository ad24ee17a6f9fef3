// Package storage defines the contract the dispatcher uses to discharge and
// charge storage assets. Hydrogen systems satisfy the Hydrogen extension and
// receive the additional constraint checks.
package storage

// Kind identifies a storage technology.
type Kind int

const (
	LiIon Kind = iota
	H2
)

func (k Kind) String() string {
	switch k {
	case LiIon:
		return "liion"
	case H2:
		return "h2"
	default:
		return "unknown"
	}
}

// Storage is the dispatch interface every storage asset implements.
type Storage interface {
	Kind() Kind
	Name() string
	// IsDepleted gates discharge until the state of charge recovers.
	IsDepleted() bool
	// AvailableKW is the discharge headroom left at timestep t after the
	// power already committed this step.
	AvailableKW(t int, dt float64) float64
	// AcceptableKW is the charge headroom left at timestep t.
	AcceptableKW(t int, dt float64) float64
	// PowerKW is the power already staged for the current timestep.
	PowerKW() float64
	AddPowerKW(kW float64)
	CommitDischarge(t int, dt, kW, loadKW float64) float64
	CommitCharge(t int, dt, kW float64)
}

// Hydrogen is implemented by electrolyzer, fuel cell and tank systems.
type Hydrogen interface {
	Storage
	MinFCCapacityKW() float64
	MinELCapacityKW() float64
	// ELMinRuntime and FCMinRuntime update the running state from the
	// previous timestep and report whether the minimum runtime forces the
	// unit on. Query them once per call site.
	ELMinRuntime(t int) bool
	FCMinRuntime(t int) bool
	CommitElectrolysis(t int, dt, kW float64)
	CommitFuelCell(t int, dt, kW, loadKW float64) float64
	ExternalLoadEnabled() bool
	CommitExternalHydrogenLoadKg(t int, dt float64) float64
	MakingHydrogenForExternalLoad() bool
	CommitCurtailmentHydrogen(t int, dt, unusedKW float64)
}

// SelfDischarger is implemented by storage that leaks charge while idle.
type SelfDischarger interface {
	CommitSelfDischarge(t int, dt float64)
}

// ThermalSource reports the heat released by a storage asset at timestep t.
type ThermalSource interface {
	ThermalOutputKW(t int) float64
}
