package gesture

import (
	"fmt"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
)

// ClassifierConfig holds the geometric thresholds. Distances are in
// normalized image units.
type ClassifierConfig struct {
	// ExtensionRatio: a finger is extended when its tip is farther from
	// the wrist than ExtensionRatio times its base.
	ExtensionRatio float64
	// PinchDistance is the thumb-index tip gap below which the pose is PINCH.
	PinchDistance float64
	// OKDistance is the looser gap used for OK.
	OKDistance float64
}

// DefaultClassifierConfig returns the thresholds tuned for a webcam at arm's length.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		ExtensionRatio: 1.5,
		PinchDistance:  0.05,
		OKDistance:     0.08,
	}
}

// Validate rejects missing or inconsistent thresholds.
func (c ClassifierConfig) Validate() error {
	if c.ExtensionRatio <= 0 {
		return fmt.Errorf("%w: extension ratio must be positive, got %v", config.ErrConfiguration, c.ExtensionRatio)
	}
	if c.PinchDistance <= 0 {
		return fmt.Errorf("%w: pinch distance must be positive, got %v", config.ErrConfiguration, c.PinchDistance)
	}
	if c.OKDistance <= 0 {
		return fmt.Errorf("%w: ok distance must be positive, got %v", config.ErrConfiguration, c.OKDistance)
	}
	return nil
}

// Classifier labels a single hand. It keeps no state between calls.
type Classifier struct {
	cfg ClassifierConfig
}

// NewClassifier creates a Classifier after validating cfg.
func NewClassifier(cfg ClassifierConfig) (*Classifier, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Classifier{cfg: cfg}, nil
}

// Config returns the thresholds in use.
func (c *Classifier) Config() ClassifierConfig {
	return c.cfg
}

// Extended reports, thumb..pinky, which fingers reach past
// ExtensionRatio times their base distance from the wrist.
func (c *Classifier) Extended(hand *detector.HandLandmarks) [5]bool {
	var ext [5]bool
	wrist := hand.Points[detector.Wrist]
	for i := range ext {
		tip := detector.PlanarDistance(hand.Points[detector.FingerTips[i]], wrist)
		base := detector.PlanarDistance(hand.Points[detector.FingerBases[i]], wrist)
		ext[i] = tip > c.cfg.ExtensionRatio*base
	}
	return ext
}

// Classify returns the first matching rule in priority order:
// PINCH, FIST, OPEN_PALM, PEACE, OK, otherwise NONE. A nil hand is NONE.
func (c *Classifier) Classify(hand *detector.HandLandmarks) Gesture {
	if hand == nil {
		return None
	}

	ext := c.Extended(hand)
	thumb, index, middle, ring, pinky := ext[0], ext[1], ext[2], ext[3], ext[4]
	pinch := detector.PlanarDistance(hand.Points[detector.ThumbTip], hand.Points[detector.IndexTip])

	switch {
	case pinch < c.cfg.PinchDistance:
		return Pinch
	case !thumb && !index && !middle && !ring && !pinky:
		return Fist
	case thumb && index && middle && ring && pinky:
		return OpenPalm
	case index && middle && !ring && !pinky:
		return Peace
	case pinch < c.cfg.OKDistance && middle && ring && pinky:
		return OK
	default:
		return None
	}
}
