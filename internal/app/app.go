// Package app wires the camera, hand detector, interaction engine and
// performance controller together and fans events out to subscribers, the
// journal and plugins.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/interaction"
	"github.com/ayusman/mudra/internal/perf"
	"github.com/ayusman/mudra/internal/plugin"
	"github.com/ayusman/mudra/internal/store"
)

// ErrCaptureActive is returned by PushFrame while the camera loop owns the
// engine.
var ErrCaptureActive = errors.New("camera capture is running")

// Defaults applied by New when the corresponding Config field is zero.
const (
	DefaultActivityThreshold = 1.0 // percent of changed pixels
	DefaultPluginTimeout     = 5 * time.Second
	DefaultJournalKeep       = 10000
)

// Config holds configuration options for the application.
type Config struct {
	// Store enables the journal and plugin bindings. Optional.
	Store     *store.Store
	PluginDir string

	// Capture runs the camera loop. Without it frames arrive only through
	// HandleFrame.
	Capture  bool
	CameraID int
	// Camera and Detector override the real device and MediaPipe service.
	Camera   capture.Camera
	Detector detector.Detector

	Engine interaction.Config
	Perf   perf.Config

	ActivityThreshold float64
	PluginTimeout     time.Duration
	JournalKeep       int

	Logger *slog.Logger
}

// App is the running interaction pipeline. An App is started once; after
// Stop it cannot be restarted.
type App struct {
	cfg    Config
	logger *slog.Logger

	camera   capture.Camera
	activity *capture.ActivityDetector
	detector detector.Detector
	engine   *interaction.Engine
	perf     *perf.Controller

	plugins    *plugin.Manager
	dispatcher *plugin.Dispatcher
	journalCh  chan []*store.Entry

	updates   *broadcaster
	enabled   atomic.Bool
	capturing atomic.Bool

	previewMu     sync.RWMutex
	preview       []byte
	previewSeq    uint64
	previewWanted atomic.Int32

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
	wg      sync.WaitGroup
}

// New validates cfg and builds every component. Detection starts enabled.
func New(cfg Config) (*App, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ActivityThreshold <= 0 {
		cfg.ActivityThreshold = DefaultActivityThreshold
	}
	if cfg.PluginTimeout <= 0 {
		cfg.PluginTimeout = DefaultPluginTimeout
	}
	if cfg.JournalKeep <= 0 {
		cfg.JournalKeep = DefaultJournalKeep
	}

	engine, err := interaction.NewEngine(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}

	a := &App{
		cfg:      cfg,
		logger:   cfg.Logger.With("component", "app"),
		camera:   cfg.Camera,
		activity: capture.NewActivityDetector(cfg.ActivityThreshold),
		detector: cfg.Detector,
		engine:   engine,
		plugins:  plugin.NewManager(cfg.PluginDir, cfg.Logger),
		updates:  newBroadcaster(),
	}
	a.enabled.Store(true)

	perfCfg := cfg.Perf
	perfCfg.Logger = cfg.Logger
	perfCfg.OnChange = a.onPerformanceChange
	if a.perf, err = perf.NewController(perfCfg); err != nil {
		return nil, fmt.Errorf("build performance controller: %w", err)
	}

	if cfg.Store != nil {
		a.journalCh = make(chan []*store.Entry, journalQueueSize)
		a.dispatcher = plugin.NewDispatcher(
			cfg.Store.Bindings(),
			a.plugins,
			plugin.NewExecutor(cfg.PluginTimeout),
			plugin.DispatcherConfig{Logger: cfg.Logger},
		)
	}

	if cfg.Capture {
		if a.camera == nil {
			a.camera = capture.NewCamera(cfg.CameraID)
		}
		if a.detector == nil {
			if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), cfg.Logger); err == nil {
				a.detector = mp
				a.logger.Info("using MediaPipe hand detection")
			} else {
				a.logger.Warn("MediaPipe not available, using mock detector", "error", err)
				a.detector = detector.NewMockDetector()
			}
		}
	}

	return a, nil
}

// Start launches the journal writer, the plugin dispatcher and, when
// capture is configured, the camera loop.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return fmt.Errorf("app already stopped")
	}
	if a.cancel != nil {
		return nil
	}

	if a.cfg.Capture {
		if err := a.camera.Open(); err != nil {
			return fmt.Errorf("open camera: %w", err)
		}
		a.camera.SetProfile(profileFor(a.perf.Mode()))
	}

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	if a.dispatcher != nil {
		a.dispatcher.Start(ctx)
	}
	if a.journalCh != nil {
		a.wg.Add(1)
		go a.runJournal(ctx, a.cfg.Store.Journal())
	}
	if a.cfg.Capture {
		a.capturing.Store(true)
		a.wg.Add(1)
		go a.runCapture(ctx)
	}

	a.logger.Info("pipeline started", "capture", a.cfg.Capture)
	return nil
}

// Stop halts every goroutine and releases the camera and detector.
func (a *App) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	a.stopped = true

	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if a.dispatcher != nil {
		a.dispatcher.Close()
	}
	if a.camera != nil {
		if err := a.camera.Close(); err != nil {
			a.logger.Error("closing camera", "error", err)
		}
	}
	a.activity.Close()
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.logger.Error("closing detector", "error", err)
		}
	}

	a.logger.Info("pipeline stopped")
}

// HandleFrame runs one landmark frame through the engine and publishes the
// resulting event. Malformed frames return the previous event and an error
// wrapping detector.ErrMalformedInput; nothing is published for them.
func (a *App) HandleFrame(frame detector.Frame) (interaction.Event, error) {
	ev, err := a.engine.Process(frame)
	if err != nil {
		return ev, err
	}

	a.updates.publish(Update{Type: UpdateEvent, Event: &ev})
	if ev.Notable() {
		a.enqueueJournal(eventEntries(ev)...)
		if a.dispatcher != nil {
			a.dispatcher.Dispatch(ev)
		}
		a.logger.Debug("interaction",
			"seq", ev.Seq,
			"gesture", ev.Gesture.String(),
			"swipe", ev.Swipe != nil,
			"click", ev.Click != nil,
			"slide", ev.Slide,
		)
	}
	return ev, nil
}

// PushFrame accepts a frame from an external tracker. While the camera loop
// runs, the engine is on the capture clock, so pushed frames are refused
// with ErrCaptureActive instead of being judged against it.
func (a *App) PushFrame(frame detector.Frame) (interaction.Event, error) {
	if a.capturing.Load() {
		return a.engine.Last(), ErrCaptureActive
	}
	return a.HandleFrame(frame)
}

// Capturing reports whether the camera loop is running.
func (a *App) Capturing() bool {
	return a.capturing.Load()
}

// RecordRenderFrame records a frame drawn at t by the app's single
// in-process renderer. Remote renderers use NewRenderSource.
func (a *App) RecordRenderFrame(t time.Time) perf.Mode {
	return a.perf.RecordFrame(t)
}

// NewRenderSource registers a renderer with its own frame clock. The caller
// must Close it when the renderer goes away.
func (a *App) NewRenderSource() *perf.Source {
	return a.perf.NewSource()
}

func (a *App) onPerformanceChange(mode perf.Mode) {
	status := a.perf.Status()
	a.logger.Debug("publishing performance change", "mode", mode.String(), "toggle", status.Toggle.String())

	a.updates.publish(Update{Type: UpdatePerformance, Performance: &status})
	a.enqueueJournal(performanceEntry(status, time.Now(), a.engine.Slide()))
}

// SetToggle sets the manual performance override.
func (a *App) SetToggle(t perf.Toggle) {
	a.perf.SetToggle(t)
}

// Performance returns the current performance status.
func (a *App) Performance() perf.Status {
	return a.perf.Status()
}

// SetOverlayOpen records whether a blocking overlay is showing.
func (a *App) SetOverlayOpen(open bool) {
	a.engine.SetOverlayOpen(open)
}

// OverlayOpen reports the overlay flag.
func (a *App) OverlayOpen() bool {
	return a.engine.OverlayOpen()
}

// LastEvent returns the most recent event.
func (a *App) LastEvent() interaction.Event {
	return a.engine.Last()
}

// Subscribe returns a channel of updates and a function that cancels the
// subscription. Updates are dropped for a subscriber whose buffer is full.
func (a *App) Subscribe(buffer int) (<-chan Update, func()) {
	return a.updates.subscribe(buffer)
}

// SetEnabled pauses or resumes the camera loop. Frames passed to
// HandleFrame are processed either way.
func (a *App) SetEnabled(enabled bool) {
	if a.enabled.Swap(enabled) != enabled {
		a.logger.Info("detection toggled", "enabled", enabled)
	}
}

// IsEnabled returns whether the camera loop is processing frames.
func (a *App) IsEnabled() bool {
	return a.enabled.Load()
}

// DiscoverPlugins scans the plugin directory and loads available plugins.
func (a *App) DiscoverPlugins() error {
	return a.plugins.Discover()
}

// PluginManager returns the plugin manager.
func (a *App) PluginManager() *plugin.Manager {
	return a.plugins
}

// Camera returns the camera, or nil when capture is off.
func (a *App) Camera() capture.Camera {
	return a.camera
}

// Detector returns the hand detector, or nil when capture is off.
func (a *App) Detector() detector.Detector {
	return a.detector
}

// WatchPreview asks the camera loop to keep a JPEG of the latest frame.
// Call the returned function when done watching.
func (a *App) WatchPreview() func() {
	a.previewWanted.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { a.previewWanted.Add(-1) })
	}
}

// Preview returns the latest JPEG frame and its sequence number. The
// sequence is zero until a frame has been captured.
func (a *App) Preview() ([]byte, uint64) {
	a.previewMu.RLock()
	defer a.previewMu.RUnlock()
	return a.preview, a.previewSeq
}
