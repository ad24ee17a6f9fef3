package asset

import (
	"fmt"
	"math"

	"github.com/kilianp07/microgrid/core/model"
)

// RenewableConfig configures a RenewablePlant. Curve parameters default per
// kind when left at zero.
type RenewableConfig struct {
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	CapacityKW     float64 `json:"capacity_kw"`
	ResourceKey    int     `json:"resource_key"`
	FirmnessFactor float64 `json:"firmness_factor"`
	// Normalized is an optional production series in [0, 1] that replaces
	// the resource conversion.
	Normalized     []float64 `json:"normalized_production"`
	NormalizedPath string    `json:"normalized_production_path"`

	DerateFactor float64 `json:"derate_factor"`
	CutInSpeed   float64 `json:"cut_in_speed"`
	RatedSpeed   float64 `json:"rated_speed"`
	CutOutSpeed  float64 `json:"cut_out_speed"`
	RatedHeightM float64 `json:"rated_height_m"`
	RatedPeriodS float64 `json:"rated_period_s"`
}

// SetDefaults fills the curve parameters for the configured kind.
func (c *RenewableConfig) SetDefaults() {
	kind, err := model.ParseRenewableKind(c.Kind)
	if err != nil {
		return
	}
	switch kind {
	case model.Solar:
		if c.DerateFactor == 0 {
			c.DerateFactor = 0.8
		}
	case model.Wind:
		setSpeeds(c, 3, 12, 25)
	case model.Tidal:
		setSpeeds(c, 0.5, 2.5, 4)
	case model.Wave:
		if c.RatedHeightM == 0 {
			c.RatedHeightM = 3
		}
		if c.RatedPeriodS == 0 {
			c.RatedPeriodS = 10
		}
	}
}

func setSpeeds(c *RenewableConfig, in, rated, out float64) {
	if c.CutInSpeed == 0 {
		c.CutInSpeed = in
	}
	if c.RatedSpeed == 0 {
		c.RatedSpeed = rated
	}
	if c.CutOutSpeed == 0 {
		c.CutOutSpeed = out
	}
}

// RenewablePlant converts a solar, wind, tidal or wave resource to power
// through a simple normalised curve.
type RenewablePlant struct {
	Production
	kind model.RenewableKind
	cfg  RenewableConfig
}

// NewRenewable validates cfg and returns a plant sized for nPoints timesteps.
func NewRenewable(nPoints int, cfg RenewableConfig) (*RenewablePlant, error) {
	kind, err := model.ParseRenewableKind(cfg.Kind)
	if err != nil {
		return nil, fmt.Errorf("renewable %q: %w", cfg.Name, err)
	}
	cfg.SetDefaults()
	if cfg.CapacityKW <= 0 {
		return nil, fmt.Errorf("renewable %q: capacity_kw must be positive", cfg.Name)
	}
	if cfg.FirmnessFactor < 0 || cfg.FirmnessFactor > 1 {
		return nil, fmt.Errorf("renewable %q: firmness_factor must be in [0, 1]", cfg.Name)
	}
	if len(cfg.Normalized) > 0 && len(cfg.Normalized) < nPoints {
		return nil, fmt.Errorf("renewable %q: normalized production has %d points, need %d", cfg.Name, len(cfg.Normalized), nPoints)
	}
	return &RenewablePlant{Production: newProduction(cfg.Name, nPoints, cfg.CapacityKW), kind: kind, cfg: cfg}, nil
}

func (r *RenewablePlant) Kind() model.RenewableKind   { return r.kind }
func (r *RenewablePlant) ResourceKey() int            { return r.cfg.ResourceKey }
func (r *RenewablePlant) NormalizedSeriesGiven() bool { return len(r.cfg.Normalized) > 0 }
func (r *RenewablePlant) FirmnessFactor() float64     { return r.cfg.FirmnessFactor }

func (r *RenewablePlant) ComputeProductionKW(t int, _ float64, s Sample) float64 {
	if r.NormalizedSeriesGiven() {
		return r.capacity * clamp(r.cfg.Normalized[t], 0, 1)
	}
	var ratio float64
	switch r.kind {
	case model.Solar:
		// irradiance in kW/m2, 1 kW/m2 being the rating condition
		ratio = r.cfg.DerateFactor * math.Max(s.Value, 0)
	case model.Wind, model.Tidal:
		ratio = cubicCurve(s.Value, r.cfg.CutInSpeed, r.cfg.RatedSpeed, r.cfg.CutOutSpeed)
	case model.Wave:
		rated := r.cfg.RatedHeightM * r.cfg.RatedHeightM * r.cfg.RatedPeriodS
		if rated > 0 {
			ratio = s.Wave.SignificantHeightM * s.Wave.SignificantHeightM * s.Wave.EnergyPeriodS / rated
		}
	}
	return r.capacity * clamp(ratio, 0, 1)
}

func (r *RenewablePlant) Commit(t int, dt, productionKW, loadKW float64) float64 {
	return r.commit(t, dt, productionKW, loadKW)
}

func cubicCurve(v, in, rated, out float64) float64 {
	switch {
	case v < in || v >= out:
		return 0
	case v >= rated:
		return 1
	}
	den := rated*rated*rated - in*in*in
	if den <= 0 {
		return 0
	}
	return (v*v*v - in*in*in) / den
}
