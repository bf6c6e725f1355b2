package interaction

import (
	"time"

	"github.com/ayusman/mudra/internal/click"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/motion"
)

// Event is the engine's output for one frame.
type Event struct {
	Seq         uint64          `json:"seq"`
	Timestamp   time.Time       `json:"timestamp"`
	HandPresent bool            `json:"hand_present"`
	Hands       int             `json:"hands"`
	Gesture     gesture.Gesture `json:"gesture"`
	// GestureChanged is set on the first frame of a new gesture.
	GestureChanged bool          `json:"gesture_changed,omitempty"`
	Cursor         motion.Cursor `json:"cursor"`
	Zoom           float64       `json:"zoom"`
	Swipe          *motion.Swipe `json:"swipe,omitempty"`
	Click          *click.Click  `json:"click,omitempty"`
	Slide          int           `json:"slide"`
}

// Notable reports whether the event carries a discrete action worth
// recording: a swipe, a click or a gesture change.
func (e Event) Notable() bool {
	return e.Swipe != nil || e.Click != nil || e.GestureChanged
}
