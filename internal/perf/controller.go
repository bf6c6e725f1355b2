package perf

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/ayusman/mudra/internal/config"
)

// Toggle selects whether the controller decides the mode or is pinned.
type Toggle int32

const (
	Auto Toggle = iota
	ForceHigh
	ForceLow
)

func (t Toggle) String() string {
	switch t {
	case ForceHigh:
		return "high"
	case ForceLow:
		return "low"
	default:
		return "auto"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t Toggle) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Toggle) UnmarshalText(text []byte) error {
	parsed, err := ParseToggle(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseToggle accepts "auto", "high" or "low".
func ParseToggle(s string) (Toggle, error) {
	switch s {
	case "auto":
		return Auto, nil
	case "high":
		return ForceHigh, nil
	case "low":
		return ForceLow, nil
	default:
		return Auto, fmt.Errorf("unknown performance toggle %q", s)
	}
}

// Config configures a Controller.
type Config struct {
	// Window is the number of instantaneous FPS samples averaged.
	Window int
	// FPSThreshold: a window mean below this is degraded.
	FPSThreshold  float64
	TriggerCount  int
	RecoveryCount int
	Toggle        Toggle

	// OnChange is called after the mode changes, outside the controller's
	// lock. It may call back into the controller.
	OnChange func(Mode)
	Logger   *slog.Logger
}

// DefaultConfig returns a 30-frame window at 30 FPS with a +90/-150 dead-band.
func DefaultConfig() Config {
	return Config{
		Window:        30,
		FPSThreshold:  30,
		TriggerCount:  90,
		RecoveryCount: 150,
	}
}

// Validate checks the estimator settings. Counts are checked by NewHysteresis.
func (c Config) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: fps window must be positive, got %d", config.ErrConfiguration, c.Window)
	}
	if !(c.FPSThreshold > 0) {
		return fmt.Errorf("%w: fps threshold must be positive, got %v", config.ErrConfiguration, c.FPSThreshold)
	}
	return nil
}

// Status is a point-in-time view for display.
type Status struct {
	Mode   Mode    `json:"mode"`
	FPS    float64 `json:"fps"`
	Toggle Toggle  `json:"toggle"`
}

// Controller estimates render FPS from frame timestamps and drives a
// Hysteresis. Renderers report through Sources; Mode and FPS are lock-free
// and safe to call from any goroutine.
//
// Each Source has its own clock and sample window. Only the primary source,
// the oldest one still open, steps the Hysteresis and sets FPS.
type Controller struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	sources []*Source
	local   *Source
	hyst    *Hysteresis

	mode   atomic.Int32
	fps    atomic.Uint64
	toggle atomic.Int32
}

// NewController validates cfg and returns a Controller in Normal mode, or
// pinned according to cfg.Toggle.
func NewController(cfg Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	hyst, err := NewHysteresis(cfg.TriggerCount, cfg.RecoveryCount)
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		cfg:    cfg,
		logger: logger.With("component", "perf"),
		hyst:   hyst,
	}
	c.applyToggle(cfg.Toggle)
	return c, nil
}

// Source is one renderer's frame clock. Timestamps from different sources
// are never compared.
type Source struct {
	c       *Controller
	samples []float64
	next    int
	last    time.Time
	hasLast bool
	closed  bool
}

// NewSource registers a renderer. The first open source is primary; when it
// closes, the next oldest takes over.
func (c *Controller) NewSource() *Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.newSourceLocked()
}

func (c *Controller) newSourceLocked() *Source {
	s := &Source{c: c, samples: make([]float64, 0, c.cfg.Window)}
	c.sources = append(c.sources, s)
	return s
}

// Sources returns the number of open sources.
func (c *Controller) Sources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sources)
}

// RecordFrame records a frame on the controller's own source, registered on
// first use. For a single renderer.
func (c *Controller) RecordFrame(t time.Time) Mode {
	c.mu.Lock()
	if c.local == nil {
		c.local = c.newSourceLocked()
	}
	s := c.local
	c.mu.Unlock()
	return s.RecordFrame(t)
}

// RecordFrame records a frame this source drew at t and returns the
// resulting mode. Samples with a non-positive interval are dropped, as are
// frames recorded after Close.
func (s *Source) RecordFrame(t time.Time) Mode {
	c := s.c
	c.mu.Lock()

	if s.closed {
		c.mu.Unlock()
		return c.Mode()
	}
	if !s.hasLast {
		s.last, s.hasLast = t, true
		c.mu.Unlock()
		return c.Mode()
	}

	dt := t.Sub(s.last)
	if dt <= 0 {
		c.mu.Unlock()
		return c.Mode()
	}
	s.last = t

	s.push(1000 / (float64(dt) / float64(time.Millisecond)))
	if c.sources[0] != s {
		c.mu.Unlock()
		return c.Mode()
	}

	mean := s.mean()
	c.fps.Store(math.Float64bits(mean))

	var (
		mode    = c.hyst.Mode()
		changed bool
	)
	if Toggle(c.toggle.Load()) == Auto {
		mode, changed = c.hyst.Step(mean < c.cfg.FPSThreshold)
		if changed {
			c.mode.Store(int32(mode))
		}
	}
	c.mu.Unlock()

	if changed {
		c.logger.Info("performance mode changed", "mode", mode, "fps", mean)
		if c.cfg.OnChange != nil {
			c.cfg.OnChange(mode)
		}
	}
	return mode
}

// Close unregisters the source. Closing twice is a no-op.
func (s *Source) Close() {
	c := s.c
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	for i, o := range c.sources {
		if o == s {
			c.sources = append(c.sources[:i], c.sources[i+1:]...)
			break
		}
	}
	if c.local == s {
		c.local = nil
	}
	if len(c.sources) > 0 {
		if p := c.sources[0]; len(p.samples) > 0 {
			c.fps.Store(math.Float64bits(p.mean()))
		}
	}
}

func (s *Source) push(fps float64) {
	window := s.c.cfg.Window
	if len(s.samples) < window {
		s.samples = append(s.samples, fps)
		return
	}
	s.samples[s.next] = fps
	s.next = (s.next + 1) % window
}

func (s *Source) mean() float64 {
	return stat.Mean(s.samples, nil)
}

// SetToggle switches between automatic and pinned operation. Pinning sets
// the mode immediately; returning to Auto keeps the current mode and starts
// counting from zero.
func (c *Controller) SetToggle(t Toggle) {
	c.mu.Lock()
	before := c.Mode()
	c.applyToggle(t)
	after := c.Mode()
	c.mu.Unlock()

	c.logger.Info("performance toggle set", "toggle", t, "mode", after)
	if after != before && c.cfg.OnChange != nil {
		c.cfg.OnChange(after)
	}
}

func (c *Controller) applyToggle(t Toggle) {
	c.toggle.Store(int32(t))
	switch t {
	case ForceHigh:
		c.hyst.Force(Normal)
	case ForceLow:
		c.hyst.Force(Active)
	default:
		c.hyst.Force(c.hyst.Mode())
	}
	c.mode.Store(int32(c.hyst.Mode()))
}

// Mode returns the current advisory mode.
func (c *Controller) Mode() Mode {
	return Mode(c.mode.Load())
}

// FPS returns the mean of the primary source's sample window, or zero
// before it has two frames.
func (c *Controller) FPS() float64 {
	return math.Float64frombits(c.fps.Load())
}

// Toggle returns the current toggle.
func (c *Controller) Toggle() Toggle {
	return Toggle(c.toggle.Load())
}

// Status returns mode, FPS and toggle. The three reads are not a single
// atomic snapshot.
func (c *Controller) Status() Status {
	return Status{Mode: c.Mode(), FPS: c.FPS(), Toggle: c.Toggle()}
}
