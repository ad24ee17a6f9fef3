package config

import "fmt"

// LoadConfig selects the electrical load: a CSV file with a time column in
// hours and a load column in kW, or a constant load over Points timesteps.
type LoadConfig struct {
	Path       string  `json:"path"`
	TimeColumn string  `json:"time_column"`
	LoadColumn string  `json:"load_column"`
	ConstantKW float64 `json:"constant_kw"`
	Points     int     `json:"points"`
	DtHrs      float64 `json:"dt_hrs"`
}

func (c *LoadConfig) SetDefaults() {
	if c.TimeColumn == "" {
		c.TimeColumn = "time_hrs"
	}
	if c.LoadColumn == "" {
		c.LoadColumn = "load_kw"
	}
	if c.Path == "" {
		if c.Points == 0 {
			c.Points = 8760
		}
		if c.DtHrs == 0 {
			c.DtHrs = 1
		}
	}
}

func (c LoadConfig) Validate() error {
	if c.Path != "" {
		return nil
	}
	switch {
	case c.Points <= 0:
		return fmt.Errorf("points must be positive")
	case c.DtHrs <= 0:
		return fmt.Errorf("dt_hrs must be positive")
	case c.ConstantKW < 0:
		return fmt.Errorf("constant_kw must be >= 0")
	}
	return nil
}

// ResourceConfig registers a resource series under Key. The series comes
// from Values or from Column of the CSV at Path. Setting PeriodColumn makes
// it a wave series with Column holding the significant height.
type ResourceConfig struct {
	Key          int       `json:"key"`
	Path         string    `json:"path"`
	Column       string    `json:"column"`
	PeriodColumn string    `json:"period_column"`
	Values       []float64 `json:"values"`
}

// IsWave reports whether the series is two-dimensional.
func (c ResourceConfig) IsWave() bool { return c.PeriodColumn != "" }

func (c ResourceConfig) Validate() error {
	switch {
	case c.Path == "" && len(c.Values) == 0:
		return fmt.Errorf("key %d: path or values required", c.Key)
	case c.Path != "" && c.Column == "":
		return fmt.Errorf("key %d: column required with path", c.Key)
	case c.IsWave() && c.Path == "":
		return fmt.Errorf("key %d: wave series must be read from a file", c.Key)
	}
	return nil
}

// OutputConfig sets where run results are written. An empty Dir disables
// file output.
type OutputConfig struct {
	Dir        string `json:"dir"`
	Disabled   bool   `json:"disabled"`
	Commitment bool   `json:"commitment"`
}

func (c *OutputConfig) SetDefaults() {
	if c.Dir == "" && !c.Disabled {
		c.Dir = "out"
	}
}
