package metrics

import "github.com/kilianp07/microgrid/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort starts a /metrics endpoint when non-zero.
	PrometheusPort int `json:"prometheus_port"`
	// StepInterval records every n-th timestep. Zero or one records all.
	StepInterval int `json:"step_interval"`
}

// Keep reports whether timestep t is recorded under the configured interval.
func (c Config) Keep(t int) bool {
	return c.StepInterval <= 1 || t%c.StepInterval == 0
}
