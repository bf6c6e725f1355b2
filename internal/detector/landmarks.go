// Package detector provides hand landmark types and the detectors that produce them.
package detector

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// MaxHands is the largest number of hands a Frame may carry.
const MaxHands = 2

// ErrMalformedInput marks a frame that must be dropped: wrong landmark
// count, non-finite coordinates, too many hands or a timestamp that went
// backwards.
var ErrMalformedInput = errors.New("malformed input")

// FingerTips and FingerBases list thumb..pinky tip and base joints.
// The thumb base is the CMC joint, the others are MCP knuckles.
var (
	FingerTips  = [5]int{ThumbTip, IndexTip, MiddleTip, RingTip, PinkyTip}
	FingerBases = [5]int{ThumbCMC, IndexMCP, MiddleMCP, RingMCP, PinkyMCP}
)

// Point3D represents a landmark in normalized image coordinates.
// X and Y are in [0,1] relative to the frame; Z is relative depth.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Planar returns the point projected onto the image plane.
func (p Point3D) Planar() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

func (p Point3D) finite() bool {
	for _, v := range [3]float64{p.X, p.Y, p.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// PlanarDistance is the Euclidean distance between two landmarks in the
// image plane. Depth is ignored; MediaPipe's z is on a different scale.
func PlanarDistance(a, b Point3D) float64 {
	return r2.Norm(r2.Sub(a.Planar(), b.Planar()))
}

// HandLandmarks represents the 21 hand landmarks detected by MediaPipe.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness"` // "Left" or "Right"
	Score      float64               `json:"score"`
}

// NewHand builds a HandLandmarks from a variable-length point list, which
// is how landmarks arrive over the wire. Anything but exactly 21 points is
// malformed.
func NewHand(points []Point3D, handedness string, score float64) (HandLandmarks, error) {
	if len(points) != NumLandmarks {
		return HandLandmarks{}, fmt.Errorf("%w: hand has %d landmarks, want %d", ErrMalformedInput, len(points), NumLandmarks)
	}

	h := HandLandmarks{Handedness: handedness, Score: score}
	copy(h.Points[:], points)

	if err := h.Validate(); err != nil {
		return HandLandmarks{}, err
	}
	return h, nil
}

// Validate rejects NaN or infinite coordinates.
func (h *HandLandmarks) Validate() error {
	for i, p := range h.Points {
		if !p.finite() {
			return fmt.Errorf("%w: landmark %d is not finite", ErrMalformedInput, i)
		}
	}
	return nil
}

// Frame is one delivery from the pose estimator: up to two hands and the
// capture time.
//
// Hands are not identity-tracked. Hands[0] is whichever hand the estimator
// listed first this frame and may be a different physical hand than the
// previous frame's Hands[0]. Consumers must not assume continuity.
type Frame struct {
	Hands     []HandLandmarks `json:"hands"`
	Timestamp time.Time       `json:"timestamp"`
}

// Primary returns the first hand of the frame, if any.
func (f *Frame) Primary() (*HandLandmarks, bool) {
	if len(f.Hands) == 0 {
		return nil, false
	}
	return &f.Hands[0], true
}

// Validate checks the hand count and every coordinate.
func (f *Frame) Validate() error {
	if len(f.Hands) > MaxHands {
		return fmt.Errorf("%w: frame has %d hands, at most %d supported", ErrMalformedInput, len(f.Hands), MaxHands)
	}
	for i := range f.Hands {
		if err := f.Hands[i].Validate(); err != nil {
			return fmt.Errorf("hand %d: %w", i, err)
		}
	}
	return nil
}
