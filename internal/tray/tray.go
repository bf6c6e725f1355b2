// Package tray provides a macOS menu bar interface for mudra.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/perf"
)

// Controls is the slice of the app the tray drives.
type Controls interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
	SetToggle(t perf.Toggle)
	Performance() perf.Status
	Subscribe(buffer int) (<-chan app.Update, func())
}

// Tray represents the menu bar application.
type Tray struct {
	controls   Controls
	onSettings func()
	onQuit     func()
	mu         sync.RWMutex

	menuToggle  *systray.MenuItem
	menuGesture *systray.MenuItem
	menuSlide   *systray.MenuItem
	menuMode    *systray.MenuItem
	perfItems   map[perf.Toggle]*systray.MenuItem

	unsubscribe   func()
	ready         bool
	quitRequested bool
}

// New creates a Tray over c.
func New(c Controls) *Tray {
	return &Tray{controls: c}
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the menu bar application. It blocks until Quit is called and
// must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit stops the menu bar loop. Called before the loop is ready, it takes
// effect as soon as the menu is built.
func (t *Tray) Quit() {
	t.mu.Lock()
	if !t.ready {
		t.quitRequested = true
		t.mu.Unlock()
		return
	}
	t.mu.Unlock()
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand gesture control")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(enabledTitle(t.controls.IsEnabled()), "Toggle the camera pipeline")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem(gestureTitle(gesture.None), "Current gesture")
	t.menuGesture.Disable()
	t.menuSlide = systray.AddMenuItem(slideTitle(0), "Carousel position")
	t.menuSlide.Disable()
	status := t.controls.Performance()
	t.menuMode = systray.AddMenuItem(modeTitle(status), "Pipeline fidelity")
	t.menuMode.Disable()
	systray.AddSeparator()

	menuPerf := systray.AddMenuItem("Performance", "Override the fidelity mode")
	t.perfItems = map[perf.Toggle]*systray.MenuItem{
		perf.Auto:      menuPerf.AddSubMenuItemCheckbox("Automatic", "Follow the render frame rate", status.Toggle == perf.Auto),
		perf.ForceHigh: menuPerf.AddSubMenuItemCheckbox("High fidelity", "Always full fidelity", status.Toggle == perf.ForceHigh),
		perf.ForceLow:  menuPerf.AddSubMenuItemCheckbox("Low fidelity", "Always reduced fidelity", status.Toggle == perf.ForceLow),
	}
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")

	updates, unsubscribe := t.controls.Subscribe(16)
	t.unsubscribe = unsubscribe
	perfItems := t.perfItems
	t.ready = true
	quit := t.quitRequested
	t.mu.Unlock()

	if quit {
		systray.Quit()
		return
	}

	go t.watch(updates)

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-perfItems[perf.Auto].ClickedCh:
				t.handlePerformance(perf.Auto)
			case <-perfItems[perf.ForceHigh].ClickedCh:
				t.handlePerformance(perf.ForceHigh)
			case <-perfItems[perf.ForceLow].ClickedCh:
				t.handlePerformance(perf.ForceLow)
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.unsubscribe != nil {
		t.unsubscribe()
		t.unsubscribe = nil
	}
}

// watch mirrors the app's updates into the menu until the subscription
// closes.
func (t *Tray) watch(updates <-chan app.Update) {
	for u := range updates {
		t.mu.RLock()
		switch u.Type {
		case app.UpdateEvent:
			if u.Event.GestureChanged {
				t.menuGesture.SetTitle(gestureTitle(u.Event.Gesture))
			}
			if u.Event.Swipe != nil {
				t.menuSlide.SetTitle(slideTitle(u.Event.Slide))
			}
		case app.UpdatePerformance:
			t.menuMode.SetTitle(modeTitle(*u.Performance))
		}
		t.mu.RUnlock()
	}
}

func (t *Tray) handleToggle() {
	enabled := !t.controls.IsEnabled()
	t.controls.SetEnabled(enabled)

	t.mu.RLock()
	t.menuToggle.SetTitle(enabledTitle(enabled))
	t.mu.RUnlock()
}

func (t *Tray) handlePerformance(toggle perf.Toggle) {
	t.controls.SetToggle(toggle)

	t.mu.RLock()
	defer t.mu.RUnlock()
	for k, item := range t.perfItems {
		if k == toggle {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	t.menuMode.SetTitle(modeTitle(t.controls.Performance()))
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback()
	}

	systray.Quit()
}

func enabledTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func gestureTitle(g gesture.Gesture) string {
	if g == gesture.None {
		return "Gesture: none"
	}
	return "Gesture: " + g.String()
}

func slideTitle(i int) string {
	return fmt.Sprintf("Slide: %d", i+1)
}

func modeTitle(s perf.Status) string {
	return fmt.Sprintf("Mode: %s (%.0f FPS)", s.Mode, s.FPS)
}
