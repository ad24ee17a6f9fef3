package dispatch

import (
	"fmt"

	"github.com/kilianp07/microgrid/core/commitment"
	"github.com/kilianp07/microgrid/core/model"
)

// Config defines dispatch-related settings.
type Config struct {
	// ControlMode is LOAD_FOLLOWING or CYCLE_CHARGING.
	ControlMode string `json:"control_mode"`
	// FirmDispatchRatio is the share of load that controllable assets must
	// be able to serve.
	FirmDispatchRatio float64 `json:"firm_dispatch_ratio"`
	// LoadReserveRatio is the spinning reserve held against load swings.
	LoadReserveRatio float64 `json:"load_reserve_ratio"`
	// CommitmentProgressThreshold is the generator count from which
	// building the commitment table logs progress.
	CommitmentProgressThreshold int `json:"commitment_progress_threshold"`
}

// DefaultConfig returns a load following configuration with 10 % firm
// dispatch and 10 % load reserve.
func DefaultConfig() Config {
	return Config{
		ControlMode:                 model.LoadFollowing.String(),
		FirmDispatchRatio:           0.1,
		LoadReserveRatio:            0.1,
		CommitmentProgressThreshold: commitment.DefaultProgressThreshold,
	}
}

// Validate checks ratios and the control mode.
func (c Config) Validate() error {
	if _, err := model.ParseControlMode(c.ControlMode); err != nil {
		return err
	}
	if c.FirmDispatchRatio < 0 || c.FirmDispatchRatio > 1 {
		return fmt.Errorf("firm_dispatch_ratio must be in [0, 1], got %g", c.FirmDispatchRatio)
	}
	if c.LoadReserveRatio < 0 || c.LoadReserveRatio > 1 {
		return fmt.Errorf("load_reserve_ratio must be in [0, 1], got %g", c.LoadReserveRatio)
	}
	return nil
}
