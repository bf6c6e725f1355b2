package tray

import (
	"testing"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/perf"
)

func TestTray_QuitBeforeReady(t *testing.T) {
	tr := New(nil)
	tr.Quit()

	if !tr.quitRequested {
		t.Error("quit before the menu is ready must be deferred")
	}
	if tr.ready {
		t.Error("tray must not be ready before Run")
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{enabledTitle(true), "● Enabled"},
		{enabledTitle(false), "○ Disabled"},
		{gestureTitle(gesture.None), "Gesture: none"},
		{gestureTitle(gesture.Peace), "Gesture: PEACE"},
		{slideTitle(0), "Slide: 1"},
		{modeTitle(perf.Status{Mode: perf.Active, FPS: 24.4}), "Mode: active (24 FPS)"},
	}

	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}
