// Package thermal tracks the heat released by storage housings during a
// dispatch run.
package thermal

import (
	"errors"
	"fmt"
	"math"

	"github.com/kilianp07/microgrid/core/storage"
)

// Model is the thermal collaborator invoked once per timestep after storage
// dispatch. Calls happen in declaration order.
type Model interface {
	CommitH2ThermalTracking(t int, dt float64, storages []storage.Storage)
	CommitLiIonThermalTracking(t int, dt float64, storages []storage.Storage)
	CommitThermalBalance(t int, dt float64, storages []storage.Storage)
}

// HeatCapacity is implemented by storage that knows the thermal mass of its
// own equipment.
type HeatCapacity interface {
	McpJPerK() float64
}

var ErrInvalidConfig = errors.New("invalid thermal config")

// Config describes both housings.
type Config struct {
	AmbientC float64 `json:"ambient_c"`
	// H2LossWPerK and LiIonLossWPerK are the housing heat loss coefficients.
	H2LossWPerK    float64 `json:"h2_loss_w_per_k"`
	LiIonLossWPerK float64 `json:"liion_loss_w_per_k"`
	// LiIonMcpJPerK is the thermal mass of the battery housing.
	LiIonMcpJPerK float64 `json:"liion_mcp_j_per_k"`
	// RecoverableFraction is the share of stored heat counted as recoverable.
	RecoverableFraction float64 `json:"recoverable_fraction"`
}

func (c *Config) SetDefaults() {
	if c.AmbientC == 0 {
		c.AmbientC = 20
	}
	if c.H2LossWPerK == 0 {
		c.H2LossWPerK = 50
	}
	if c.LiIonLossWPerK == 0 {
		c.LiIonLossWPerK = 25
	}
	if c.LiIonMcpJPerK == 0 {
		c.LiIonMcpJPerK = 5e6
	}
	if c.RecoverableFraction == 0 {
		c.RecoverableFraction = 0.5
	}
}

func (c Config) Validate() error {
	switch {
	case c.H2LossWPerK < 0 || c.LiIonLossWPerK < 0:
		return fmt.Errorf("%w: loss coefficients must be >= 0", ErrInvalidConfig)
	case c.LiIonMcpJPerK < 0:
		return fmt.Errorf("%w: liion_mcp_j_per_k must be >= 0", ErrInvalidConfig)
	case c.RecoverableFraction < 0 || c.RecoverableFraction > 1:
		return fmt.Errorf("%w: recoverable_fraction must be in [0, 1]", ErrInvalidConfig)
	}
	return nil
}

// HeatLedger integrates the heat of hydrogen and lithium-ion housings with a
// lumped capacitance model and keeps per-step vectors.
type HeatLedger struct {
	cfg Config

	h2TempC    float64
	liionTempC float64

	H2HeatKW         []float64 `json:"h2_heat_kw"`
	LiIonHeatKW      []float64 `json:"liion_heat_kw"`
	H2TempVecC       []float64 `json:"h2_temp_c"`
	LiIonTempVecC    []float64 `json:"liion_temp_c"`
	RecoverableVecKW []float64 `json:"recoverable_heat_kw"`

	TotalHeatKWh        float64 `json:"total_heat_kwh"`
	TotalRecoverableKWh float64 `json:"total_recoverable_kwh"`
}

var _ Model = (*HeatLedger)(nil)

// NewHeatLedger allocates vectors for nPoints timesteps. Both housings start
// at ambient temperature.
func NewHeatLedger(nPoints int, cfg Config) (*HeatLedger, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HeatLedger{
		cfg:              cfg,
		h2TempC:          cfg.AmbientC,
		liionTempC:       cfg.AmbientC,
		H2HeatKW:         make([]float64, nPoints),
		LiIonHeatKW:      make([]float64, nPoints),
		H2TempVecC:       make([]float64, nPoints),
		LiIonTempVecC:    make([]float64, nPoints),
		RecoverableVecKW: make([]float64, nPoints),
	}, nil
}

func (h *HeatLedger) CommitH2ThermalTracking(t int, dt float64, storages []storage.Storage) {
	q, mcp := sumHeat(t, storages, storage.H2)
	h.H2HeatKW[t] = q
	h.h2TempC = step(h.h2TempC, h.cfg.AmbientC, q, h.cfg.H2LossWPerK, mcp, dt)
	h.H2TempVecC[t] = h.h2TempC
}

func (h *HeatLedger) CommitLiIonThermalTracking(t int, dt float64, storages []storage.Storage) {
	q, _ := sumHeat(t, storages, storage.LiIon)
	h.LiIonHeatKW[t] = q
	h.liionTempC = step(h.liionTempC, h.cfg.AmbientC, q, h.cfg.LiIonLossWPerK, h.cfg.LiIonMcpJPerK, dt)
	h.LiIonTempVecC[t] = h.liionTempC
}

func (h *HeatLedger) CommitThermalBalance(t int, dt float64, _ []storage.Storage) {
	total := h.H2HeatKW[t] + h.LiIonHeatKW[t]
	h.RecoverableVecKW[t] = total * h.cfg.RecoverableFraction
	h.TotalHeatKWh += total * dt
	h.TotalRecoverableKWh += h.RecoverableVecKW[t] * dt
}

// H2TempC and LiIonTempC return the current housing temperatures.
func (h *HeatLedger) H2TempC() float64    { return h.h2TempC }
func (h *HeatLedger) LiIonTempC() float64 { return h.liionTempC }

func sumHeat(t int, storages []storage.Storage, kind storage.Kind) (kW, mcp float64) {
	for _, s := range storages {
		if s.Kind() != kind {
			continue
		}
		src, ok := s.(storage.ThermalSource)
		if !ok {
			continue
		}
		kW += src.ThermalOutputKW(t)
		if hc, ok := s.(HeatCapacity); ok {
			mcp += hc.McpJPerK()
		}
	}
	return kW, mcp
}

// step advances a lumped housing temperature over dt hours using the exact
// solution of mcp dT/dt = Q - UA (T - ambient).
func step(tempC, ambientC, heatKW, lossWPerK, mcpJPerK, dt float64) float64 {
	if mcpJPerK <= 0 {
		return ambientC
	}
	seconds := dt * 3600
	qW := heatKW * 1000
	if lossWPerK <= 0 {
		return tempC + qW*seconds/mcpJPerK
	}
	steady := ambientC + qW/lossWPerK
	return steady + (tempC-steady)*math.Exp(-lossWPerK*seconds/mcpJPerK)
}
