package gesture

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/detector"
)

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(DefaultClassifierConfig())
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func TestClassifier_Poses(t *testing.T) {
	c := newTestClassifier(t)

	tests := []struct {
		name string
		pose detector.Pose
		want Gesture
	}{
		{"fist", detector.PoseFist, Fist},
		{"open palm", detector.PoseOpenPalm, OpenPalm},
		{"pinch", detector.PosePinch, Pinch},
		{"peace", detector.PosePeace, Peace},
		{"ok", detector.PoseOK, OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, pos := range [][2]float64{{0.5, 0.7}, {0.2, 0.9}, {0.8, 0.4}} {
				hand := detector.SyntheticHand(tt.pose, pos[0], pos[1])
				if got := c.Classify(&hand); got != tt.want {
					t.Errorf("at %v: expected %s, got %s", pos, tt.want, got)
				}
			}
		})
	}
}

func TestClassifier_NilHand(t *testing.T) {
	c := newTestClassifier(t)
	if got := c.Classify(nil); got != None {
		t.Errorf("expected NONE for nil hand, got %s", got)
	}
}

func TestClassifier_NeverZoom(t *testing.T) {
	c := newTestClassifier(t)
	for _, pose := range []detector.Pose{detector.PoseFist, detector.PoseOpenPalm, detector.PosePinch, detector.PosePeace, detector.PoseOK} {
		hand := detector.SyntheticHand(pose, 0.5, 0.5)
		if got := c.Classify(&hand); got == Zoom {
			t.Errorf("pose %d classified as ZOOM", pose)
		}
	}
}

func TestClassifier_PinchBeatsOtherRules(t *testing.T) {
	c := newTestClassifier(t)

	// Open palm with the thumb tip brought onto the index tip.
	hand := detector.SyntheticHand(detector.PoseOpenPalm, 0.5, 0.7)
	hand.Points[detector.ThumbTip] = hand.Points[detector.IndexTip]
	hand.Points[detector.ThumbTip].X += 0.01

	if got := c.Classify(&hand); got != Pinch {
		t.Errorf("expected PINCH to take priority, got %s", got)
	}
}

func TestClassifier_Degenerate(t *testing.T) {
	c := newTestClassifier(t)

	// Every landmark on the wrist: distances are all zero, nothing is
	// extended and the pinch gap is zero.
	var hand detector.HandLandmarks
	if got := c.Classify(&hand); got != Pinch {
		t.Errorf("expected PINCH for collapsed hand, got %s", got)
	}
}

func TestClassifier_Extended(t *testing.T) {
	c := newTestClassifier(t)
	hand := detector.SyntheticHand(detector.PosePeace, 0.5, 0.7)

	want := [5]bool{false, true, true, false, false}
	if got := c.Extended(&hand); got != want {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestClassifierConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ClassifierConfig)
	}{
		{"zero ratio", func(c *ClassifierConfig) { c.ExtensionRatio = 0 }},
		{"negative pinch", func(c *ClassifierConfig) { c.PinchDistance = -0.1 }},
		{"missing ok", func(c *ClassifierConfig) { c.OKDistance = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultClassifierConfig()
			tt.mutate(&cfg)
			_, err := NewClassifier(cfg)
			if !errors.Is(err, config.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestGesture_Text(t *testing.T) {
	for _, g := range All() {
		data, err := json.Marshal(g)
		if err != nil {
			t.Fatalf("marshal %d: %v", g, err)
		}
		var back Gesture
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != g {
			t.Errorf("round trip of %s gave %s", g, back)
		}
	}

	if string(mustMarshal(t, OpenPalm)) != `"OPEN_PALM"` {
		t.Errorf("expected OPEN_PALM wire name")
	}

	if _, err := Parse("WAVE"); err == nil {
		t.Error("expected error for unknown gesture name")
	}
	if s := Gesture(42).String(); s != "Gesture(42)" {
		t.Errorf("unexpected String for out-of-range value: %s", s)
	}
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return data
}
