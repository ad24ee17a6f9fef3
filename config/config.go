// Package config loads the simulation scenario: dispatch settings, the load
// and resource series, the generator fleet, storage modules and the output
// adapters.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/microgrid/core/asset"
	"github.com/kilianp07/microgrid/core/commitment"
	"github.com/kilianp07/microgrid/core/dispatch"
	"github.com/kilianp07/microgrid/core/factory"
	"github.com/kilianp07/microgrid/core/metrics"
	"github.com/kilianp07/microgrid/core/thermal"
)

// EnvPrefix marks environment overrides. MG_DISPATCH__CONTROL_MODE sets
// dispatch.control_mode.
const EnvPrefix = "MG_"

type Config struct {
	Dispatch      dispatch.Config         `json:"dispatch"`
	Load          LoadConfig              `json:"load"`
	Resources     []ResourceConfig        `json:"resources"`
	Combustion    []asset.DieselConfig    `json:"combustion"`
	Noncombustion []asset.HydroConfig     `json:"noncombustion"`
	Renewables    []asset.RenewableConfig `json:"renewables"`
	Storage       []factory.ModuleConfig  `json:"storage"`
	Thermal       *thermal.Config         `json:"thermal"`
	Metrics       metrics.Config          `json:"metrics"`
	Logging       LoggingConfig           `json:"logging"`
	Output        OutputConfig            `json:"output"`
}

// Default returns the configuration that unset keys fall back to.
func Default() Config {
	return Config{Dispatch: dispatch.DefaultConfig()}
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	cfg := Default()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Load.SetDefaults()
	for i := range c.Combustion {
		c.Combustion[i].SetDefaults()
		if c.Combustion[i].Name == "" {
			c.Combustion[i].Name = fmt.Sprintf("gen_%d", i)
		}
	}
	for i := range c.Noncombustion {
		if c.Noncombustion[i].Name == "" {
			c.Noncombustion[i].Name = fmt.Sprintf("hydro_%d", i)
		}
	}
	for i := range c.Renewables {
		c.Renewables[i].SetDefaults()
		if c.Renewables[i].Name == "" {
			c.Renewables[i].Name = fmt.Sprintf("%s_%d", strings.ToLower(c.Renewables[i].Kind), i)
		}
	}
	if c.Thermal != nil {
		c.Thermal.SetDefaults()
	}
	c.Logging.SetDefaults()
	c.Output.SetDefaults()
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if err := c.Dispatch.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	if err := c.Load.Validate(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	keys := map[int]bool{}
	for i, r := range c.Resources {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("resources[%d]: %w", i, err)
		}
		if keys[r.Key] {
			return fmt.Errorf("resources[%d]: duplicate key %d", i, r.Key)
		}
		keys[r.Key] = true
	}
	if len(c.Combustion) > commitment.MaxGenerators {
		return fmt.Errorf("combustion: %w: %d", commitment.ErrTooManyGenerators, len(c.Combustion))
	}
	for _, g := range c.Combustion {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	for i, s := range c.Storage {
		if s.Type == "" {
			return fmt.Errorf("storage[%d]: type is required", i)
		}
	}
	if c.Thermal != nil {
		if err := c.Thermal.Validate(); err != nil {
			return fmt.Errorf("thermal: %w", err)
		}
	}
	if c.Metrics.StepInterval < 0 {
		return fmt.Errorf("metrics: step_interval must be >= 0")
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	return nil
}
