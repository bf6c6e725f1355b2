// Package perf measures render frame rate and decides when the pipeline
// should drop to reduced fidelity.
package perf

import (
	"fmt"

	"github.com/ayusman/mudra/internal/config"
)

// Mode is the advisory fidelity mode.
type Mode int32

const (
	// Normal is full fidelity.
	Normal Mode = iota
	// Active means reduced fidelity is in effect.
	Active
)

func (m Mode) String() string {
	if m == Active {
		return "active"
	}
	return "normal"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "normal":
		*m = Normal
	case "active":
		*m = Active
	default:
		return fmt.Errorf("unknown performance mode %q", text)
	}
	return nil
}

// Hysteresis is a two-state Schmitt trigger over a stream of degraded/good
// samples. It enters Active after TriggerCount net degraded samples and
// returns to Normal after RecoveryCount consecutive good ones.
//
// In Normal a good sample moves the counter one step back toward zero,
// never below it. In Active any degraded sample restarts the recovery
// count.
type Hysteresis struct {
	trigger  int
	recovery int

	counter int
	mode    Mode
}

// NewHysteresis returns a Hysteresis in Normal mode.
func NewHysteresis(trigger, recovery int) (*Hysteresis, error) {
	if trigger <= 0 {
		return nil, fmt.Errorf("%w: trigger count must be positive, got %d", config.ErrConfiguration, trigger)
	}
	if recovery <= 0 {
		return nil, fmt.Errorf("%w: recovery count must be positive, got %d", config.ErrConfiguration, recovery)
	}
	return &Hysteresis{trigger: trigger, recovery: recovery}, nil
}

// Step records one sample and reports the mode and whether it just changed.
func (h *Hysteresis) Step(degraded bool) (Mode, bool) {
	switch h.mode {
	case Normal:
		if !degraded {
			h.counter = max(0, h.counter-1)
			return h.mode, false
		}
		h.counter++
		if h.counter >= h.trigger {
			h.mode = Active
			h.counter = 0
			return h.mode, true
		}

	case Active:
		if degraded {
			h.counter = 0
			return h.mode, false
		}
		h.counter--
		if h.counter <= -h.recovery {
			h.mode = Normal
			h.counter = 0
			return h.mode, true
		}
	}

	return h.mode, false
}

// Force pins the mode and clears the counter.
func (h *Hysteresis) Force(m Mode) {
	h.mode = m
	h.counter = 0
}

// Mode returns the current mode.
func (h *Hysteresis) Mode() Mode { return h.mode }

// Counter returns the signed dead-band counter.
func (h *Hysteresis) Counter() int { return h.counter }
