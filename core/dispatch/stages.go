package dispatch

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/microgrid/core/asset"
	"github.com/kilianp07/microgrid/core/model"
	"github.com/kilianp07/microgrid/core/storage"
)

// minAllocationKW is the net load below which no dispatchable capacity is
// allocated for load.
const minAllocationKW = 0.001

// hydrogenPreCommitment serves external hydrogen loads and returns the
// electrical draw to add to the load: forced electrolysis for the external
// load plus the minimum electrolyzer load of units held on by their minimum
// runtime.
func (d *Dispatcher) hydrogenPreCommitment(t int, dt float64, storages []storage.Storage) float64 {
	extra := 0.0
	for _, s := range storages {
		h, ok := s.(storage.Hydrogen)
		if !ok {
			continue
		}
		if h.ExternalLoadEnabled() {
			extra += h.CommitExternalHydrogenLoadKg(t, dt)
		}
		if h.ELMinRuntime(t) {
			extra += h.MinELCapacityKW()
		}
	}
	return extra
}

// dispatchNoncombustion shares the committed production across the
// non-dispatchable generators in proportion to what each can deliver.
func (d *Dispatcher) dispatchNoncombustion(t int, dt float64, ls *model.LoadStruct, gens []asset.Noncombustion, res model.ResourceProvider) (float64, error) {
	if len(gens) == 0 {
		return 0, nil
	}
	for i, g := range gens {
		resource := 0.0
		if key, ok := g.ResourceKey(); ok {
			v, found := res.Resource1D(key, t)
			if !found {
				return 0, fmt.Errorf("%w: %q key %d at timestep %d", ErrMissingResource, g.Name(), key, t)
			}
			resource = v
		}
		d.ncResource[i] = resource
		d.ncAvailable[i] = g.RequestProductionKW(t, dt, g.CapacityKW(), resource)
	}
	available := floats.Sum(d.ncAvailable)
	target := clampRange(math.Max(ls.NetKW(), ls.RequiredFirmDispatchKW), 0, available)

	ls.RequiredFirmDispatchKW -= target
	ls.RequiredSpinningReserveKW -= available - target
	ls.ClampRequirements()

	for i, g := range gens {
		share := 0.0
		if available > 0 {
			share = target / available * d.ncAvailable[i]
		}
		ls.LoadKW = g.Commit(t, dt, share, ls.LoadKW, d.ncResource[i])
	}
	return target, nil
}

// dispatchStorageDischarge serves the net load from storage in index order.
// Hydrogen systems below their minimum fuel cell load are skipped unless
// their minimum runtime holds them on.
func (d *Dispatcher) dispatchStorageDischarge(t int, dt float64, ls *model.LoadStruct, storages []storage.Storage) float64 {
	target := math.Max(math.Max(ls.NetKW(), ls.RequiredFirmDispatchKW), 0)
	totalAvailable, committed := 0.0, 0.0
	for i, s := range storages {
		if s.IsDepleted() {
			continue
		}
		available := s.AvailableKW(t, dt)
		kW := math.Min(target, available)
		if h, ok := s.(storage.Hydrogen); ok {
			minFC := h.MinFCCapacityKW()
			enforced := h.FCMinRuntime(t)
			if kW < minFC {
				available, kW = 0, 0
			}
			if enforced && kW == 0 {
				available, kW = minFC, minFC
			}
		}
		target = math.Max(target-kW, 0)
		totalAvailable += available
		committed += kW
		if kW > 0 {
			ls.LoadKW = s.CommitDischarge(t, dt, kW, ls.LoadKW)
			d.discharging[i] = true
		}
	}
	ls.RequiredFirmDispatchKW -= committed
	ls.RequiredSpinningReserveKW -= totalAvailable - committed
	ls.ClampRequirements()
	return committed
}

// dispatchCombustion selects the smallest committed capacity covering the
// net load, firm dispatch and spinning reserve, then shares production
// across the selected generators by capacity. It returns the total
// production, the allocated capacity and the number of units online.
func (d *Dispatcher) dispatchCombustion(t int, dt float64, ls *model.LoadStruct, gens []asset.Combustion, cycleCharging bool) (float64, float64, int) {
	allocation := ls.NetKW()
	if allocation < minAllocationKW {
		allocation = 0
	}
	allocation = math.Max(allocation, ls.RequiredFirmDispatchKW)
	if ls.RequiredSpinningReserveKW > 0 {
		allocation += ls.RequiredSpinningReserveKW
	}
	allocated, state := d.table.Lookup(allocation)

	target := clampRange(math.Max(ls.NetKW(), ls.RequiredFirmDispatchKW), 0, allocated)
	ls.RequiredFirmDispatchKW -= target
	ls.RequiredSpinningReserveKW -= allocated - target
	ls.ClampRequirements()

	produced, online := 0.0, 0
	for i, g := range gens {
		on := i < len(state) && state[i]
		kW := 0.0
		if allocated > 0 && on {
			kW = g.CapacityKW() / allocated * target
			online++
		}
		if cycleCharging && kW > 0 {
			kW = math.Max(kW, g.CycleChargingSetpoint()*g.CapacityKW())
		}
		if allocated > 0 && on && !g.IsRunning() && kW == 0 {
			g.ForceStart(t)
		}
		kW = g.RequestProductionKW(t, dt, kW)
		ls.LoadKW = g.Commit(t, dt, kW, ls.LoadKW)
		produced += kW
	}
	return produced, allocated, online
}

// dispatchRenewables commits the precomputed renewable production against
// the remaining load and returns what is left of it.
func (d *Dispatcher) dispatchRenewables(t int, dt, remainingKW float64, renewables []asset.Renewable) float64 {
	remainingKW = math.Max(remainingKW, 0)
	for _, r := range renewables {
		remainingKW = r.Commit(t, dt, r.ProductionKW(t), remainingKW)
	}
	return remainingKW
}

// dispatchStorageCharge routes curtailment into storage that did not
// discharge this timestep, generators first, then non-dispatchables, then
// renewables. Curtailment is booked as stored only when the storage keeps
// the power. It returns the total charging power.
func (d *Dispatcher) dispatchStorageCharge(t int, dt float64, storages []storage.Storage) float64 {
	total := 0.0
	for i, s := range storages {
		h, isHydrogen := s.(storage.Hydrogen)
		elEnforced := false
		if isHydrogen {
			if h.MakingHydrogenForExternalLoad() {
				continue
			}
			elEnforced = h.ELMinRuntime(t)
			if !elEnforced && d.discharging[i] {
				continue
			}
		} else if d.discharging[i] {
			continue
		}

		unused := 0.0
		for j, a := range d.sources {
			d.accepted[j] = 0
			curtailed := a.CurtailmentKW(t)
			if curtailed <= 0 {
				continue
			}
			accepted := clampRange(s.AcceptableKW(t, dt), 0, curtailed)
			unused += curtailed - accepted
			d.accepted[j] = accepted
			s.AddPowerKW(accepted)
		}

		switch st := s.(type) {
		case storage.Hydrogen:
			minEL := st.MinELCapacityKW()
			kept := true
			if st.PowerKW() < minEL {
				unused += st.PowerKW()
				st.AddPowerKW(-st.PowerKW())
				kept = false
			}
			if elEnforced && st.PowerKW() < minEL {
				st.AddPowerKW(minEL - st.PowerKW())
			}
			if kept {
				d.storeAccepted(t, dt)
			}
			charge := st.PowerKW()
			st.CommitElectrolysis(t, dt, charge)
			if unused > 0 && charge == 0 {
				st.CommitCurtailmentHydrogen(t, dt, unused)
			}
			total += charge
		default:
			d.storeAccepted(t, dt)
			charge := st.PowerKW()
			if sd, ok := st.(storage.SelfDischarger); ok && charge == 0 {
				sd.CommitSelfDischarge(t, dt)
			}
			st.CommitCharge(t, dt, charge)
			total += charge
		}
	}
	return total
}

func (d *Dispatcher) storeAccepted(t int, dt float64) {
	for j, a := range d.sources {
		a.StoreCurtailment(t, dt, d.accepted[j])
	}
}

// curtailers lists the generators in charging priority order.
func curtailers(fleet Fleet) []asset.Asset {
	out := make([]asset.Asset, 0, len(fleet.Combustion)+len(fleet.Noncombustion)+len(fleet.Renewables))
	for _, a := range fleet.Combustion {
		out = append(out, a)
	}
	for _, a := range fleet.Noncombustion {
		out = append(out, a)
	}
	for _, a := range fleet.Renewables {
		out = append(out, a)
	}
	return out
}

func (d *Dispatcher) totalCurtailment(t int) float64 {
	sum := 0.0
	for _, a := range d.sources {
		sum += a.CurtailmentKW(t)
	}
	return sum
}

func clampRange(v, lo, hi float64) float64 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
