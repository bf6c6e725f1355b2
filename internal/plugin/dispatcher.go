package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/interaction"
	"github.com/ayusman/mudra/internal/store"
)

// Trigger names bound to plugin actions.
const (
	TriggerSwipeNext     = "swipe:next"
	TriggerSwipePrevious = "swipe:previous"
	TriggerClick         = "click"
	gesturePrefix        = "gesture:"
)

// ErrInvalidTrigger is returned by ValidateTrigger.
var ErrInvalidTrigger = errors.New("invalid trigger")

// GestureTrigger returns the trigger fired when g becomes the current
// gesture.
func GestureTrigger(g gesture.Gesture) string {
	return gesturePrefix + g.String()
}

// ValidateTrigger checks that trigger is one the dispatcher can fire.
func ValidateTrigger(trigger string) error {
	switch trigger {
	case TriggerSwipeNext, TriggerSwipePrevious, TriggerClick:
		return nil
	}
	if name, ok := strings.CutPrefix(trigger, gesturePrefix); ok {
		g, err := gesture.Parse(name)
		if err == nil && g != gesture.None {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrInvalidTrigger, trigger)
}

// Triggers lists the triggers an event fires, in a stable order.
func Triggers(ev interaction.Event) []string {
	var out []string
	if ev.Swipe != nil {
		out = append(out, "swipe:"+ev.Swipe.Nav.String())
	}
	if ev.Click != nil {
		out = append(out, TriggerClick)
	}
	if ev.GestureChanged && ev.Gesture != gesture.None {
		out = append(out, GestureTrigger(ev.Gesture))
	}
	return out
}

// BindingSource looks up enabled bindings for a trigger.
type BindingSource interface {
	ListByTrigger(trigger string) ([]*store.Binding, error)
}

// Result reports the outcome of one binding invocation.
type Result struct {
	Trigger   string
	BindingID string
	Plugin    string
	Action    string
	Response  *Response
	Err       error
}

// DispatcherConfig configures a Dispatcher.
type DispatcherConfig struct {
	QueueSize int
	Logger    *slog.Logger
	// OnResult, if set, is called from the worker after every invocation.
	OnResult func(Result)
}

// Dispatcher runs bound plugin actions off the frame path. Events are
// queued without blocking; a full queue drops the event.
type Dispatcher struct {
	bindings BindingSource
	plugins  *Manager
	executor *Executor
	logger   *slog.Logger
	onResult func(Result)

	queue   chan interaction.Event
	dropped atomic.Uint64

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Call Start to begin processing.
func NewDispatcher(bindings BindingSource, plugins *Manager, executor *Executor, cfg DispatcherConfig) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 32
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		bindings: bindings,
		plugins:  plugins,
		executor: executor,
		logger:   cfg.Logger.With("component", "dispatcher"),
		onResult: cfg.OnResult,
		queue:    make(chan interaction.Event, cfg.QueueSize),
	}
}

// Start launches the worker. It stops when ctx is done or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-d.queue:
				if !ok {
					return
				}
				d.handle(ctx, ev)
			}
		}
	}()
}

// Dispatch queues ev if it fires any trigger. It reports whether the event
// was queued.
func (d *Dispatcher) Dispatch(ev interaction.Event) bool {
	if len(Triggers(ev)) == 0 {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}

	select {
	case d.queue <- ev:
		return true
	default:
		d.dropped.Add(1)
		d.logger.Warn("dispatch queue full, dropping event", "seq", ev.Seq)
		return false
	}
}

// Dropped returns the number of events dropped because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Close stops accepting events, drains the queue and waits for the worker.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) handle(ctx context.Context, ev interaction.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		d.logger.Error("failed to encode event", "seq", ev.Seq, "error", err)
		return
	}

	for _, trigger := range Triggers(ev) {
		bindings, err := d.bindings.ListByTrigger(trigger)
		if err != nil {
			d.logger.Error("failed to load bindings", "trigger", trigger, "error", err)
			continue
		}
		for _, b := range bindings {
			d.invoke(ctx, trigger, b, ev, payload)
		}
	}
}

func (d *Dispatcher) invoke(ctx context.Context, trigger string, b *store.Binding, ev interaction.Event, payload []byte) {
	res := Result{
		Trigger:   trigger,
		BindingID: b.ID,
		Plugin:    b.PluginName,
		Action:    b.ActionName,
	}
	defer func() {
		if d.onResult != nil {
			d.onResult(res)
		}
	}()

	p, err := d.plugins.Get(b.PluginName)
	if err != nil {
		res.Err = fmt.Errorf("binding %s: %w", b.ID, err)
		d.logger.Warn("binding references unknown plugin", "binding", b.ID, "plugin", b.PluginName)
		return
	}
	if !p.Supports(b.ActionName) {
		res.Err = fmt.Errorf("binding %s: plugin %s has no action %q", b.ID, p.Manifest.Name, b.ActionName)
		d.logger.Warn("binding references unknown action", "binding", b.ID, "plugin", b.PluginName, "action", b.ActionName)
		return
	}

	req := &Request{
		Action:  b.ActionName,
		Trigger: trigger,
		Gesture: ev.Gesture.String(),
		Slide:   ev.Slide,
		Config:  b.Config,
		Params:  b.Config,
		Event:   payload,
	}

	res.Response, res.Err = d.executor.Execute(ctx, p, req)
	switch {
	case res.Err != nil:
		d.logger.Error("plugin failed", "plugin", p.Manifest.Name, "action", b.ActionName, "trigger", trigger, "error", res.Err)
	case !res.Response.Success:
		d.logger.Warn("plugin reported failure", "plugin", p.Manifest.Name, "action", b.ActionName, "error", res.Response.Error)
	default:
		d.logger.Debug("plugin ran", "plugin", p.Manifest.Name, "action", b.ActionName, "trigger", trigger)
	}
}
