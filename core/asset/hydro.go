package asset

import "fmt"

// HydroConfig configures a run-of-river plant.
type HydroConfig struct {
	Name       string  `json:"name"`
	CapacityKW float64 `json:"capacity_kw"`
	// ResourceKey selects a normalised flow series. Without one the full
	// capacity is always available.
	ResourceKey *int `json:"resource_key"`
}

// Hydro is a non-dispatchable generator limited by a normalised flow.
type Hydro struct {
	Production
	key    int
	hasKey bool
}

// NewHydro validates cfg and returns a plant sized for nPoints timesteps.
func NewHydro(nPoints int, cfg HydroConfig) (*Hydro, error) {
	if cfg.CapacityKW <= 0 {
		return nil, fmt.Errorf("hydro %q: capacity_kw must be positive", cfg.Name)
	}
	h := &Hydro{Production: newProduction(cfg.Name, nPoints, cfg.CapacityKW)}
	if cfg.ResourceKey != nil {
		h.key, h.hasKey = *cfg.ResourceKey, true
	}
	return h, nil
}

func (h *Hydro) ResourceKey() (int, bool) { return h.key, h.hasKey }

func (h *Hydro) RequestProductionKW(_ int, _ float64, targetKW, resource float64) float64 {
	available := h.capacity
	if h.hasKey {
		available = h.capacity * clamp(resource, 0, 1)
	}
	return clamp(targetKW, 0, available)
}

func (h *Hydro) Commit(t int, dt, productionKW, loadKW, resource float64) float64 {
	return h.commit(t, dt, h.RequestProductionKW(t, dt, productionKW, resource), loadKW)
}
