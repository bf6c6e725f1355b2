// Package config loads process settings and detector tuning for mudra.
package config

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrConfiguration is returned when a threshold is missing or out of range.
// Components wrap it so callers can tell bad configuration from bad input.
var ErrConfiguration = errors.New("configuration error")

//go:embed tuning.defaults.json
var defaultTuning []byte

// maxTuningFileSize guards against pointing MUDRA_TUNING at something huge.
const maxTuningFileSize = 1 << 20

// Tuning is the on-disk form of every detector threshold. All fields are
// pointers so a missing key can be told apart from an explicit zero.
type Tuning struct {
	Classifier  *ClassifierTuning  `json:"classifier"`
	Smoothing   *SmoothingTuning   `json:"smoothing"`
	Swipe       *SwipeTuning       `json:"swipe"`
	Click       *ClickTuning       `json:"click"`
	Zoom        *ZoomTuning        `json:"zoom"`
	Performance *PerformanceTuning `json:"performance"`
	Carousel    *CarouselTuning    `json:"carousel"`
}

// ClassifierTuning holds the geometric classifier thresholds.
type ClassifierTuning struct {
	ExtensionRatio *float64 `json:"extension_ratio"`
	PinchDistance  *float64 `json:"pinch_distance"`
	OKDistance     *float64 `json:"ok_distance"`
}

// SmoothingTuning selects the cursor filter. Either Preset or Alpha is set.
type SmoothingTuning struct {
	Preset *string  `json:"preset,omitempty"` // "low_latency" or "low_jitter"
	Alpha  *float64 `json:"alpha,omitempty"`
}

// SwipeTuning holds swipe detector thresholds. Velocities are cursor units per millisecond.
type SwipeTuning struct {
	StartVelocity     *float64 `json:"start_velocity"`
	RecoveryRadius    *float64 `json:"recovery_radius"`
	DistanceThreshold *float64 `json:"distance_threshold"`
	VelocityThreshold *float64 `json:"velocity_threshold"`
	Cooldown          *string  `json:"cooldown"` // duration string like "400ms"
	InvertNavigation  *bool    `json:"invert_navigation,omitempty"`
}

// ClickTuning selects the click variant.
type ClickTuning struct {
	Mode     *string `json:"mode"`                // "press_release" or "rising_edge"
	MaxPress *string `json:"max_press,omitempty"` // required for press_release
}

// ZoomTuning maps two-hand separation to a zoom factor.
type ZoomTuning struct {
	Gain *float64 `json:"gain"`
	Min  *float64 `json:"min"`
	Max  *float64 `json:"max"`
}

// PerformanceTuning configures the FPS estimator and its dead-band.
type PerformanceTuning struct {
	Window        *int     `json:"window"`
	FPSThreshold  *float64 `json:"fps_threshold"`
	TriggerCount  *int     `json:"trigger_count"`
	RecoveryCount *int     `json:"recovery_count"`
}

// CarouselTuning sets how many slides swipe navigation cycles through.
type CarouselTuning struct {
	Slides *int `json:"slides"`
}

// DefaultTuning returns the tuning shipped with the binary.
func DefaultTuning() (*Tuning, error) {
	return ParseTuning(defaultTuning)
}

// LoadTuning reads a tuning file. The file must be JSON, under 1MB and
// complete: every threshold has to be present.
func LoadTuning(path string) (*Tuning, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("%w: tuning file must have .json extension, got %q", ErrConfiguration, ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("stat tuning file: %w", err)
	}
	if info.Size() > maxTuningFileSize {
		return nil, fmt.Errorf("%w: tuning file too large: %d bytes", ErrConfiguration, info.Size())
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read tuning file: %w", err)
	}

	return ParseTuning(data)
}

// ParseTuning decodes and validates tuning JSON.
func ParseTuning(data []byte) (*Tuning, error) {
	t := &Tuning{}
	if err := json.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("%w: parse tuning: %v", ErrConfiguration, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports every missing key at once, then checks values that
// can be checked without knowing the consuming component.
func (t *Tuning) Validate() error {
	var missing []string
	need := func(ok bool, key string) {
		if !ok {
			missing = append(missing, key)
		}
	}

	need(t.Classifier != nil, "classifier")
	if c := t.Classifier; c != nil {
		need(c.ExtensionRatio != nil, "classifier.extension_ratio")
		need(c.PinchDistance != nil, "classifier.pinch_distance")
		need(c.OKDistance != nil, "classifier.ok_distance")
	}

	need(t.Smoothing != nil, "smoothing")
	if s := t.Smoothing; s != nil {
		need(s.Preset != nil || s.Alpha != nil, "smoothing.preset or smoothing.alpha")
	}

	need(t.Swipe != nil, "swipe")
	if s := t.Swipe; s != nil {
		need(s.StartVelocity != nil, "swipe.start_velocity")
		need(s.RecoveryRadius != nil, "swipe.recovery_radius")
		need(s.DistanceThreshold != nil, "swipe.distance_threshold")
		need(s.VelocityThreshold != nil, "swipe.velocity_threshold")
		need(s.Cooldown != nil, "swipe.cooldown")
	}

	need(t.Click != nil, "click")
	if c := t.Click; c != nil {
		need(c.Mode != nil, "click.mode")
		if c.Mode != nil && *c.Mode == "press_release" {
			need(c.MaxPress != nil, "click.max_press")
		}
	}

	need(t.Zoom != nil, "zoom")
	if z := t.Zoom; z != nil {
		need(z.Gain != nil, "zoom.gain")
		need(z.Min != nil, "zoom.min")
		need(z.Max != nil, "zoom.max")
	}

	need(t.Performance != nil, "performance")
	if p := t.Performance; p != nil {
		need(p.Window != nil, "performance.window")
		need(p.FPSThreshold != nil, "performance.fps_threshold")
		need(p.TriggerCount != nil, "performance.trigger_count")
		need(p.RecoveryCount != nil, "performance.recovery_count")
	}

	need(t.Carousel != nil, "carousel")
	if c := t.Carousel; c != nil {
		need(c.Slides != nil, "carousel.slides")
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrConfiguration, strings.Join(missing, ", "))
	}

	if _, err := t.SwipeCooldown(); err != nil {
		return err
	}
	if *t.Click.Mode == "press_release" {
		if _, err := t.ClickMaxPress(); err != nil {
			return err
		}
	}

	return nil
}

// SwipeCooldown parses swipe.cooldown.
func (t *Tuning) SwipeCooldown() (time.Duration, error) {
	d, err := time.ParseDuration(*t.Swipe.Cooldown)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid swipe.cooldown %q: %v", ErrConfiguration, *t.Swipe.Cooldown, err)
	}
	return d, nil
}

// ClickMaxPress parses click.max_press. Returns zero when unset.
func (t *Tuning) ClickMaxPress() (time.Duration, error) {
	if t.Click.MaxPress == nil {
		return 0, nil
	}
	d, err := time.ParseDuration(*t.Click.MaxPress)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid click.max_press %q: %v", ErrConfiguration, *t.Click.MaxPress, err)
	}
	return d, nil
}
