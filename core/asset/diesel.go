package asset

import "fmt"

// DieselConfig configures a Diesel generator.
type DieselConfig struct {
	Name                  string  `json:"name"`
	CapacityKW            float64 `json:"capacity_kw"`
	CycleChargingSetpoint float64 `json:"cycle_charging_setpoint"`
	MinimumRuntimeHrs     float64 `json:"minimum_runtime_hrs"`
}

// SetDefaults fills unset fields.
func (c *DieselConfig) SetDefaults() {
	if c.CycleChargingSetpoint == 0 {
		c.CycleChargingSetpoint = 0.85
	}
	if c.MinimumRuntimeHrs == 0 {
		c.MinimumRuntimeHrs = 4
	}
}

// Validate checks the configuration.
func (c DieselConfig) Validate() error {
	if c.CapacityKW <= 0 {
		return fmt.Errorf("diesel %q: capacity_kw must be positive", c.Name)
	}
	if c.CycleChargingSetpoint < 0 || c.CycleChargingSetpoint > 1 {
		return fmt.Errorf("diesel %q: cycle_charging_setpoint must be in [0, 1]", c.Name)
	}
	return nil
}

// Diesel is a combustion generator with a minimum runtime once started.
type Diesel struct {
	Production
	cfg DieselConfig

	running           bool
	Starts            int     `json:"starts"`
	RunningHrs        float64 `json:"running_hrs"`
	SinceLastStartHrs float64 `json:"since_last_start_hrs"`
	RunningVec        []bool  `json:"running"`
}

// NewDiesel returns a stopped generator sized for nPoints timesteps.
func NewDiesel(nPoints int, cfg DieselConfig) (*Diesel, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Diesel{
		Production: newProduction(cfg.Name, nPoints, cfg.CapacityKW),
		cfg:        cfg,
		RunningVec: make([]bool, nPoints),
	}, nil
}

func (d *Diesel) IsRunning() bool                { return d.running }
func (d *Diesel) CycleChargingSetpoint() float64 { return d.cfg.CycleChargingSetpoint }

func (d *Diesel) ForceStart(int) {
	d.start()
}

func (d *Diesel) start() {
	d.running = true
	d.Starts++
	d.SinceLastStartHrs = 0
}

func (d *Diesel) RequestProductionKW(_ int, _ float64, targetKW float64) float64 {
	return clamp(targetKW, 0, d.capacity)
}

func (d *Diesel) Commit(t int, dt, productionKW, loadKW float64) float64 {
	switch {
	case productionKW > 0 && !d.running:
		d.start()
	case productionKW <= 0 && d.running && d.SinceLastStartHrs >= d.cfg.MinimumRuntimeHrs:
		d.running = false
	}
	if d.running {
		d.RunningHrs += dt
		d.SinceLastStartHrs += dt
	}
	d.RunningVec[t] = d.running
	return d.commit(t, dt, productionKW, loadKW)
}
