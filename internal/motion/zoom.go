package motion

import (
	"fmt"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
)

// NeutralZoom is reported whenever fewer than two hands are visible.
const NeutralZoom = 1.0

// ZoomConfig maps wrist separation to a zoom factor.
type ZoomConfig struct {
	Gain float64
	Min  float64
	Max  float64
}

// DefaultZoomConfig returns gain 4 clamped to [0.5, 3].
func DefaultZoomConfig() ZoomConfig {
	return ZoomConfig{Gain: 4, Min: 0.5, Max: 3}
}

// Validate checks that the clamp range is usable.
func (c ZoomConfig) Validate() error {
	if c.Gain <= 0 {
		return fmt.Errorf("%w: zoom gain must be positive, got %v", config.ErrConfiguration, c.Gain)
	}
	if c.Min <= 0 || c.Max < c.Min {
		return fmt.Errorf("%w: zoom range [%v, %v] is invalid", config.ErrConfiguration, c.Min, c.Max)
	}
	return nil
}

// ZoomEstimator computes a clamped zoom from two hands. It has no memory:
// losing the second hand snaps back to NeutralZoom.
type ZoomEstimator struct {
	cfg ZoomConfig
}

// NewZoomEstimator validates cfg and returns an estimator.
func NewZoomEstimator(cfg ZoomConfig) (*ZoomEstimator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ZoomEstimator{cfg: cfg}, nil
}

// Estimate returns the zoom for a frame's hands. Only the first two hands
// are considered.
func (z *ZoomEstimator) Estimate(hands []detector.HandLandmarks) float64 {
	if len(hands) < 2 {
		return NeutralZoom
	}
	sep := detector.PlanarDistance(hands[0].Points[detector.Wrist], hands[1].Points[detector.Wrist])
	return z.FromSeparation(sep)
}

// FromSeparation clamps separation×Gain into [Min, Max].
func (z *ZoomEstimator) FromSeparation(sep float64) float64 {
	return min(max(sep*z.cfg.Gain, z.cfg.Min), z.cfg.Max)
}
