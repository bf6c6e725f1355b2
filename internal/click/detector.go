// Package click turns pinches into clicks.
//
// Two variants exist. RisingEdge clicks the moment a pinch starts.
// PressRelease waits for the pinch to end and clicks only if it was short
// and no blocking overlay was open when it began. The overlay state is
// captured at press time: an overlay whose close button was hit by this
// same pinch must not suppress the click on release.
package click

import (
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/motion"
)

// Mode selects the click variant.
type Mode string

const (
	PressRelease Mode = "press_release"
	RisingEdge   Mode = "rising_edge"
)

// Config configures a Detector.
type Config struct {
	Mode Mode
	// MaxPress is the longest pinch that still counts as a click in
	// PressRelease mode.
	MaxPress time.Duration
}

// DefaultConfig returns press/release with a 300ms limit.
func DefaultConfig() Config {
	return Config{Mode: PressRelease, MaxPress: 300 * time.Millisecond}
}

// Validate checks the mode and its required duration.
func (c Config) Validate() error {
	switch c.Mode {
	case RisingEdge:
		return nil
	case PressRelease:
		if c.MaxPress <= 0 {
			return fmt.Errorf("%w: click max press must be positive, got %v", config.ErrConfiguration, c.MaxPress)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown click mode %q", config.ErrConfiguration, c.Mode)
	}
}

// Click is a zero-duration click signal.
type Click struct {
	At     time.Time     `json:"at"`
	Cursor motion.Cursor `json:"cursor"`
}

// Detector tracks the previous frame's gesture and fires at most one click
// per pinch. Not safe for concurrent use.
type Detector struct {
	cfg Config

	prev gesture.Gesture

	pressed        bool
	pressAt        time.Time
	overlayAtPress bool
}

// NewDetector validates cfg and returns a Detector.
func NewDetector(cfg Config) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{cfg: cfg}, nil
}

// Mode returns the configured variant.
func (d *Detector) Mode() Mode {
	return d.cfg.Mode
}

// Update feeds one frame. overlayOpen is the current state of the blocking
// overlay; it is only read on the frame a pinch starts.
func (d *Detector) Update(g gesture.Gesture, t time.Time, cursor motion.Cursor, overlayOpen bool) (Click, bool) {
	pinching := g == gesture.Pinch
	wasPinching := d.prev == gesture.Pinch
	d.prev = g

	switch {
	case pinching && !wasPinching:
		if d.cfg.Mode == RisingEdge {
			return Click{At: t, Cursor: cursor}, true
		}
		d.pressed = true
		d.pressAt = t
		d.overlayAtPress = overlayOpen

	case !pinching && wasPinching && d.pressed:
		held := t.Sub(d.pressAt)
		blocked := d.overlayAtPress
		d.pressed = false
		if held < d.cfg.MaxPress && !blocked {
			return Click{At: t, Cursor: cursor}, true
		}
	}

	return Click{}, false
}

// Cancel drops any press in progress without clicking. Called when the
// hand disappears.
func (d *Detector) Cancel() {
	d.prev = gesture.None
	d.pressed = false
}

// Pressed reports whether a press/release pinch is being held.
func (d *Detector) Pressed() bool {
	return d.pressed
}
