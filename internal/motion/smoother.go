// Package motion turns the primary hand's movement into a smoothed cursor,
// swipe navigation and a two-hand zoom factor.
package motion

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
)

// Smoothing presets.
const (
	LowLatency = 0.5
	LowJitter  = 0.3
)

// PresetAlpha maps a preset name to its smoothing factor.
func PresetAlpha(name string) (float64, error) {
	switch name {
	case "low_latency":
		return LowLatency, nil
	case "low_jitter":
		return LowJitter, nil
	default:
		return 0, fmt.Errorf("%w: unknown smoothing preset %q", config.ErrConfiguration, name)
	}
}

// Cursor is a pointer position in [-1,1]×[-1,1], x to the right and y up.
type Cursor struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (c Cursor) vec() r2.Vec { return r2.Vec{X: c.X, Y: c.Y} }

func cursorOf(v r2.Vec) Cursor { return Cursor{X: v.X, Y: v.Y} }

// AnchorOf returns the raw cursor for a hand: the centroid of the wrist,
// index knuckle and pinky knuckle, mirrored horizontally so moving the hand
// right in front of the camera moves the cursor right.
func AnchorOf(hand *detector.HandLandmarks) Cursor {
	w := hand.Points[detector.Wrist].Planar()
	i := hand.Points[detector.IndexMCP].Planar()
	p := hand.Points[detector.PinkyMCP].Planar()
	c := r2.Scale(1.0/3, r2.Add(w, r2.Add(i, p)))

	return Cursor{
		X: (1-c.X)*2 - 1,
		Y: -(c.Y*2 - 1),
	}
}

// Smoother is a single-pole exponential filter over the cursor. It starts
// at the origin and holds its last value while no hand is present.
type Smoother struct {
	alpha float64
	value r2.Vec
}

// NewSmoother returns a Smoother with factor alpha in (0,1].
func NewSmoother(alpha float64) (*Smoother, error) {
	if !(alpha > 0 && alpha <= 1) {
		return nil, fmt.Errorf("%w: smoothing alpha must be in (0,1], got %v", config.ErrConfiguration, alpha)
	}
	return &Smoother{alpha: alpha}, nil
}

// Update moves the smoothed value toward raw and returns it.
func (s *Smoother) Update(raw Cursor) Cursor {
	s.value = r2.Add(s.value, r2.Scale(s.alpha, r2.Sub(raw.vec(), s.value)))
	return cursorOf(s.value)
}

// Hold is called on frames without a hand. The value is left as is.
func (s *Smoother) Hold() Cursor {
	return cursorOf(s.value)
}

// Value returns the current smoothed position.
func (s *Smoother) Value() Cursor {
	return cursorOf(s.value)
}

// Alpha returns the smoothing factor.
func (s *Smoother) Alpha() float64 {
	return s.alpha
}
