// Package interaction combines the gesture, motion and click detectors
// into one event per landmark frame.
package interaction

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/click"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/motion"
)

// Config carries every detector's configuration.
type Config struct {
	Classifier     gesture.ClassifierConfig
	SmoothingAlpha float64
	Swipe          motion.SwipeConfig
	Click          click.Config
	Zoom           motion.ZoomConfig
	Slides         int
}

// DefaultConfig returns the default tuning for every detector.
func DefaultConfig() Config {
	return Config{
		Classifier:     gesture.DefaultClassifierConfig(),
		SmoothingAlpha: motion.LowLatency,
		Swipe:          motion.DefaultSwipeConfig(),
		Click:          click.DefaultConfig(),
		Zoom:           motion.DefaultZoomConfig(),
		Slides:         3,
	}
}

// Engine owns one session's detector state. Process calls are serialized;
// SetOverlayOpen may be called from any goroutine.
type Engine struct {
	mu sync.Mutex

	classifier *gesture.Classifier
	smoother   *motion.Smoother
	swipe      *motion.SwipeDetector
	click      *click.Detector
	zoom       *motion.ZoomEstimator
	carousel   *Carousel

	overlayOpen atomic.Bool

	last    Event
	lastTS  time.Time
	started bool
	seq     uint64
}

// NewEngine builds every detector from cfg. Any invalid threshold fails
// with config.ErrConfiguration.
func NewEngine(cfg Config) (*Engine, error) {
	classifier, err := gesture.NewClassifier(cfg.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}
	smoother, err := motion.NewSmoother(cfg.SmoothingAlpha)
	if err != nil {
		return nil, fmt.Errorf("smoother: %w", err)
	}
	swipe, err := motion.NewSwipeDetector(cfg.Swipe)
	if err != nil {
		return nil, fmt.Errorf("swipe: %w", err)
	}
	clicks, err := click.NewDetector(cfg.Click)
	if err != nil {
		return nil, fmt.Errorf("click: %w", err)
	}
	zoom, err := motion.NewZoomEstimator(cfg.Zoom)
	if err != nil {
		return nil, fmt.Errorf("zoom: %w", err)
	}
	carousel, err := NewCarousel(cfg.Slides)
	if err != nil {
		return nil, err
	}

	return &Engine{
		classifier: classifier,
		smoother:   smoother,
		swipe:      swipe,
		click:      clicks,
		zoom:       zoom,
		carousel:   carousel,
		last:       Event{Zoom: motion.NeutralZoom},
	}, nil
}

// Process runs one frame through the detectors.
//
// A malformed frame is dropped: the previous event is returned unchanged
// together with an error wrapping detector.ErrMalformedInput, and no
// detector state moves.
func (e *Engine) Process(frame detector.Frame) (Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := frame.Validate(); err != nil {
		return e.last, fmt.Errorf("process frame: %w", err)
	}
	if e.started && frame.Timestamp.Before(e.lastTS) {
		return e.last, fmt.Errorf("process frame: %w: timestamp %s before %s",
			detector.ErrMalformedInput, frame.Timestamp.Format(time.RFC3339Nano), e.lastTS.Format(time.RFC3339Nano))
	}
	e.lastTS, e.started = frame.Timestamp, true

	ts := frame.Timestamp
	ev := Event{
		Timestamp: ts,
		Hands:     len(frame.Hands),
		Gesture:   gesture.None,
		Zoom:      motion.NeutralZoom,
	}

	primary, ok := frame.Primary()
	if !ok {
		ev.Cursor = e.smoother.Hold()
		e.swipe.Reset()
		e.click.Cancel()
	} else {
		g := e.classifier.Classify(primary)
		if len(frame.Hands) >= 2 {
			g = gesture.Zoom
			ev.Zoom = e.zoom.Estimate(frame.Hands)
		}

		ev.HandPresent = true
		ev.Gesture = g
		ev.Cursor = e.smoother.Update(motion.AnchorOf(primary))

		if sw, fired := e.swipe.Update(ev.Cursor.X, ts, g); fired {
			ev.Swipe = &sw
			e.carousel.Apply(sw.Nav)
		}
		if c, fired := e.click.Update(g, ts, ev.Cursor, e.overlayOpen.Load()); fired {
			ev.Click = &c
		}
	}

	e.seq++
	ev.Seq = e.seq
	ev.Slide = e.carousel.Index()
	ev.GestureChanged = ev.Gesture != e.last.Gesture
	e.last = ev

	return ev, nil
}

// SetOverlayOpen records whether a blocking overlay is showing. The click
// detector samples it when a pinch starts.
func (e *Engine) SetOverlayOpen(open bool) {
	e.overlayOpen.Store(open)
}

// OverlayOpen returns the flag last set by SetOverlayOpen.
func (e *Engine) OverlayOpen() bool {
	return e.overlayOpen.Load()
}

// Last returns the most recent event.
func (e *Engine) Last() Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Slide returns the carousel position.
func (e *Engine) Slide() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.carousel.Index()
}

// SwipeState exposes the swipe detector's state for diagnostics.
func (e *Engine) SwipeState() motion.SwipeState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.swipe.State()
}
