package motion

import (
	"fmt"
	"math"
	"time"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
)

// Direction is the horizontal direction of a swipe.
type Direction int

const (
	NoDirection Direction = iota
	Left
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Nav is the navigation step a swipe maps to.
type Nav int

const (
	Next Nav = iota
	Previous
)

func (n Nav) String() string {
	if n == Previous {
		return "previous"
	}
	return "next"
}

// MarshalText implements encoding.TextMarshaler.
func (n Nav) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

// Swipe is a confirmed swipe.
type Swipe struct {
	Direction Direction `json:"direction"`
	Nav       Nav       `json:"nav"`
}

// SwipeState is the detector's state machine position.
type SwipeState int

const (
	// Idle: no baseline.
	Idle SwipeState = iota
	// Tracking: baseline set, armed.
	Tracking
	// Locked: a swipe fired and the detector waits for the cursor to return
	// near the baseline.
	Locked
)

func (s SwipeState) String() string {
	switch s {
	case Tracking:
		return "tracking"
	case Locked:
		return "locked"
	default:
		return "idle"
	}
}

// SwipeConfig holds swipe thresholds. Velocities are cursor units per
// millisecond, distances are cursor units.
type SwipeConfig struct {
	StartVelocity     float64
	RecoveryRadius    float64
	DistanceThreshold float64
	VelocityThreshold float64
	Cooldown          time.Duration
	// InvertNavigation maps rightward swipes to Previous instead of Next.
	InvertNavigation bool
}

// DefaultSwipeConfig returns the thresholds used at 30-60 FPS.
func DefaultSwipeConfig() SwipeConfig {
	return SwipeConfig{
		StartVelocity:     0.003,
		RecoveryRadius:    0.15,
		DistanceThreshold: 0.2,
		VelocityThreshold: 0.006,
		Cooldown:          400 * time.Millisecond,
	}
}

// Validate rejects zero or negative thresholds.
func (c SwipeConfig) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"start velocity", c.StartVelocity},
		{"recovery radius", c.RecoveryRadius},
		{"distance threshold", c.DistanceThreshold},
		{"velocity threshold", c.VelocityThreshold},
	} {
		if !(f.value > 0) {
			return fmt.Errorf("%w: swipe %s must be positive, got %v", config.ErrConfiguration, f.name, f.value)
		}
	}
	if c.Cooldown <= 0 {
		return fmt.Errorf("%w: swipe cooldown must be positive, got %v", config.ErrConfiguration, c.Cooldown)
	}
	return nil
}

type sample struct {
	x float64
	t time.Time
}

// SwipeDetector recognizes horizontal swipes of the smoothed cursor. One
// detector serves one session; it is not safe for concurrent use.
type SwipeDetector struct {
	cfg SwipeConfig

	state    SwipeState
	baseline sample
	locked   Direction

	prev    sample
	hasPrev bool

	lastSwipe time.Time
	swiped    bool
}

// NewSwipeDetector validates cfg and returns an Idle detector.
func NewSwipeDetector(cfg SwipeConfig) (*SwipeDetector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SwipeDetector{cfg: cfg}, nil
}

// State returns the current state.
func (d *SwipeDetector) State() SwipeState {
	return d.state
}

// LockedDirection returns the direction of the swipe that locked the
// detector, or NoDirection outside Locked. Only recovery or hand loss
// re-arms a locked detector, whatever the direction of later motion.
func (d *SwipeDetector) LockedDirection() Direction {
	return d.locked
}

// Update feeds one frame's smoothed x and the frame's gesture. It returns
// the swipe fired on this frame, if any.
func (d *SwipeDetector) Update(x float64, t time.Time, g gesture.Gesture) (Swipe, bool) {
	if !d.hasPrev {
		d.prev, d.hasPrev = sample{x, t}, true
		return Swipe{}, false
	}

	v := velocity(math.Abs(x-d.prev.x), t.Sub(d.prev.t))
	atRest := v <= d.cfg.StartVelocity

	if d.state == Idle && !atRest {
		d.state = Tracking
		d.baseline = d.prev
	}

	var (
		fired Swipe
		ok    bool
	)

	if d.state != Idle {
		dist := math.Abs(x - d.baseline.x)

		switch {
		case dist < d.cfg.RecoveryRadius:
			d.state = Tracking
			d.locked = NoDirection
			d.baseline.t = t
			if atRest {
				d.state = Idle
			}

		case d.state == Tracking:
			fired, ok = d.tryFire(x, t, g, dist)
			if !ok && atRest {
				d.state = Idle
			}
		}
	}

	d.prev = sample{x, t}
	return fired, ok
}

func (d *SwipeDetector) tryFire(x float64, t time.Time, g gesture.Gesture, dist float64) (Swipe, bool) {
	if g != gesture.OpenPalm {
		return Swipe{}, false
	}
	if d.swiped && t.Sub(d.lastSwipe) <= d.cfg.Cooldown {
		return Swipe{}, false
	}
	if dist <= d.cfg.DistanceThreshold {
		return Swipe{}, false
	}
	if velocity(dist, t.Sub(d.baseline.t)) <= d.cfg.VelocityThreshold {
		return Swipe{}, false
	}

	dir := Right
	if x < d.baseline.x {
		dir = Left
	}
	d.state = Locked
	d.locked = dir
	d.lastSwipe, d.swiped = t, true

	return Swipe{Direction: dir, Nav: d.navFor(dir)}, true
}

func (d *SwipeDetector) navFor(dir Direction) Nav {
	next := dir == Right
	if d.cfg.InvertNavigation {
		next = !next
	}
	if next {
		return Next
	}
	return Previous
}

// Reset is called when no hand is present. Baseline, lock and the last
// sample are dropped; the last swipe time is kept so the cooldown spans
// a brief hand loss.
func (d *SwipeDetector) Reset() {
	d.state = Idle
	d.baseline = sample{}
	d.locked = NoDirection
	d.prev, d.hasPrev = sample{}, false
}

// velocity returns dist/dt in units per millisecond. A non-positive dt is
// reported as +Inf so it always exceeds a threshold.
func velocity(dist float64, dt time.Duration) float64 {
	if dt <= 0 {
		return math.Inf(1)
	}
	return dist / (float64(dt) / float64(time.Millisecond))
}
