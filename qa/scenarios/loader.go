// Package scenarios runs acceptance scenarios: a simulation configuration
// paired with bounds the run results must respect.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Expected bounds the outcome of a scenario. Nil pointers are unchecked.
type Expected struct {
	MaxMissedLoadKWh      *float64 `yaml:"max_missed_load_kwh,omitempty"`
	MinMissedLoadKWh      *float64 `yaml:"min_missed_load_kwh,omitempty"`
	MaxShortfallSteps     *int     `yaml:"max_shortfall_steps,omitempty"`
	MinShortfallSteps     *int     `yaml:"min_shortfall_steps,omitempty"`
	MinHydrogenProducedKg *float64 `yaml:"min_hydrogen_produced_kg,omitempty"`
	MinReplacements       *int     `yaml:"min_replacements,omitempty"`
	CommitmentEntries     *int     `yaml:"commitment_entries,omitempty"`
}

type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Config      map[string]any `yaml:"config"`
	Expected    Expected       `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Name == "" {
		return nil, fmt.Errorf("%s: scenario name required", path)
	}
	return &sc, nil
}

// WriteConfig writes the scenario configuration as a YAML file loadable by
// config.Load.
func (sc *Scenario) WriteConfig(path string) error {
	data, err := yaml.Marshal(sc.Config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
