package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownControlMode is returned for a control mode outside the known set.
	ErrUnknownControlMode = errors.New("unknown control mode")
	// ErrUnknownRenewableKind is returned for a renewable type outside the known set.
	ErrUnknownRenewableKind = errors.New("unknown renewable kind")
)

// ControlMode selects how dispatchable generators behave when storage is idle.
type ControlMode int

const (
	LoadFollowing ControlMode = iota
	CycleCharging
)

func (m ControlMode) String() string {
	switch m {
	case LoadFollowing:
		return "LOAD_FOLLOWING"
	case CycleCharging:
		return "CYCLE_CHARGING"
	default:
		return "unknown"
	}
}

// ParseControlMode accepts the upper or lower case mode name.
func ParseControlMode(s string) (ControlMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "LOAD_FOLLOWING":
		return LoadFollowing, nil
	case "CYCLE_CHARGING":
		return CycleCharging, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownControlMode, s)
	}
}

// RenewableKind identifies the resource a renewable converts.
type RenewableKind int

const (
	Solar RenewableKind = iota
	Tidal
	Wave
	Wind
)

func (k RenewableKind) String() string {
	switch k {
	case Solar:
		return "solar"
	case Tidal:
		return "tidal"
	case Wave:
		return "wave"
	case Wind:
		return "wind"
	default:
		return "unknown"
	}
}

// ParseRenewableKind maps a configuration name to a RenewableKind.
func ParseRenewableKind(s string) (RenewableKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "solar":
		return Solar, nil
	case "tidal":
		return Tidal, nil
	case "wave":
		return Wave, nil
	case "wind":
		return Wind, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRenewableKind, s)
	}
}
