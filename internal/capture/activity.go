package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

// Activity detection works on a small grayscale copy of each frame.
const (
	activityWidth  = 160
	activityHeight = 120
	blurKernel     = 9
	pixelDelta     = 25
)

// ActivityDetector reports whether a frame differs noticeably from the
// previous one. The capture loop uses it to skip hand detection while the
// scene is empty and still.
type ActivityDetector struct {
	mu sync.Mutex
	// threshold is the percentage of changed pixels that counts as activity.
	threshold float64
	prev      gocv.Mat
	primed    bool
}

// NewActivityDetector creates a detector; threshold is a percentage of
// pixels, e.g. 1.0 for 1%.
func NewActivityDetector(threshold float64) *ActivityDetector {
	if threshold <= 0 {
		threshold = 1.0
	}
	return &ActivityDetector{
		threshold: threshold,
		prev:      gocv.NewMat(),
	}
}

// Changed compares frame with the last one seen and returns whether the
// change exceeds the threshold, and the changed percentage. The first frame
// after creation or Reset always counts as changed.
func (a *ActivityDetector) Changed(frame *gocv.Mat) (bool, float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	small := gocv.NewMat()
	defer small.Close()
	gocv.Resize(*frame, &small, image.Point{X: activityWidth, Y: activityHeight}, 0, 0, gocv.InterpolationArea)

	gray := gocv.NewMat()
	defer gray.Close()
	if small.Channels() > 1 {
		gocv.CvtColor(small, &gray, gocv.ColorBGRToGray)
	} else {
		small.CopyTo(&gray)
	}
	gocv.GaussianBlur(gray, &gray, image.Point{X: blurKernel, Y: blurKernel}, 0, 0, gocv.BorderDefault)

	if !a.primed {
		gray.CopyTo(&a.prev)
		a.primed = true
		return true, 100
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(gray, a.prev, &diff)
	gocv.Threshold(diff, &diff, pixelDelta, 255, gocv.ThresholdBinary)

	changed := float64(gocv.CountNonZero(diff)) / float64(diff.Rows()*diff.Cols()) * 100
	gray.CopyTo(&a.prev)

	return changed > a.threshold, changed
}

// Reset forgets the previous frame.
func (a *ActivityDetector) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.primed = false
}

// Close releases the stored frame. The detector may be used again after
// Close; it starts over as if new.
func (a *ActivityDetector) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.prev.Close()
	a.prev = gocv.NewMat()
	a.primed = false
}
