package detector

import (
	"time"

	"gonum.org/v1/gonum/spatial/r2"
)

// Pose names a hand shape SyntheticHand can build.
type Pose int

const (
	PoseFist Pose = iota
	PoseOpenPalm
	PosePinch
	PosePeace
	PoseOK
)

// Offsets of the five finger bases from the wrist, thumb..pinky, for a hand
// roughly 0.2 tall in normalized image coordinates. Fingers point up
// (negative y).
var baseOffsets = [5]r2.Vec{
	{X: -0.035, Y: -0.025},
	{X: -0.02, Y: -0.08},
	{X: 0, Y: -0.085},
	{X: 0.02, Y: -0.08},
	{X: 0.04, Y: -0.07},
}

const (
	extendedReach = 2.2
	curledReach   = 1.1
	bentReach     = 1.3
)

// SyntheticHand builds a landmark set for pose with the wrist at (x, y).
// Used by the mock detector, the HTTP examples and tests across packages.
func SyntheticHand(pose Pose, x, y float64) HandLandmarks {
	reach := [5]float64{curledReach, curledReach, curledReach, curledReach, curledReach}
	var thumbTip *r2.Vec

	switch pose {
	case PoseOpenPalm:
		reach = [5]float64{extendedReach, extendedReach, extendedReach, extendedReach, extendedReach}
	case PosePeace:
		reach[1], reach[2] = extendedReach, extendedReach
	case PosePinch, PoseOK:
		reach = [5]float64{extendedReach, bentReach, extendedReach, extendedReach, extendedReach}
		offset := r2.Vec{X: 0.008, Y: 0.006}
		if pose == PoseOK {
			offset = r2.Vec{X: -0.05, Y: 0.03}
		}
		tip := r2.Add(r2.Scale(bentReach, baseOffsets[1]), offset)
		thumbTip = &tip
	}

	wrist := r2.Vec{X: x, Y: y}
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: x, Y: y}

	for f := range 5 {
		base := baseOffsets[f]
		tip := r2.Scale(reach[f], base)
		if f == 0 && thumbTip != nil {
			tip = *thumbTip
		}
		first := FingerBases[f]
		for j := range 4 {
			p := r2.Add(wrist, r2.Add(base, r2.Scale(float64(j)/3, r2.Sub(tip, base))))
			h.Points[first+j] = Point3D{X: p.X, Y: p.Y}
		}
	}

	return h
}

// SyntheticFrame wraps hands into a Frame stamped ms milliseconds after
// the Unix epoch.
func SyntheticFrame(ms int64, hands ...HandLandmarks) Frame {
	return Frame{Hands: hands, Timestamp: time.UnixMilli(ms)}
}
