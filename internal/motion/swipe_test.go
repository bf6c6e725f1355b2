package motion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/gesture"
)

var epoch = time.UnixMilli(1_700_000_000_000)

func at(ms int) time.Time {
	return epoch.Add(time.Duration(ms) * time.Millisecond)
}

// sweepConfig keeps the default distances but lowers the velocity gates so
// a 0.5 sweep over 200ms (0.0025/ms) is a swipe.
func sweepConfig() SwipeConfig {
	cfg := DefaultSwipeConfig()
	cfg.StartVelocity = 0.001
	cfg.VelocityThreshold = 0.002
	return cfg
}

func newSwipe(t *testing.T, cfg SwipeConfig) *SwipeDetector {
	t.Helper()
	d, err := NewSwipeDetector(cfg)
	require.NoError(t, err)
	return d
}

type step struct {
	ms int
	x  float64
	g  gesture.Gesture
}

// run feeds steps and returns every swipe fired, with the step index.
func run(d *SwipeDetector, steps []step) map[int]Swipe {
	fired := make(map[int]Swipe)
	for i, s := range steps {
		if sw, ok := d.Update(s.x, at(s.ms), s.g); ok {
			fired[i] = sw
		}
	}
	return fired
}

// linear moves x from x0 to x1 over durMs starting at startMs, one frame
// every frameMs.
func linear(startMs, durMs, frameMs int, x0, x1 float64, g gesture.Gesture) []step {
	var steps []step
	for ms := 0; ms <= durMs; ms += frameMs {
		frac := float64(ms) / float64(durMs)
		steps = append(steps, step{ms: startMs + ms, x: x0 + (x1-x0)*frac, g: g})
	}
	return steps
}

func hold(startMs, durMs, frameMs int, x float64, g gesture.Gesture) []step {
	return linear(startMs, durMs, frameMs, x, x, g)
}

func TestSwipe_SweepFiresOnce(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	steps := linear(0, 200, 20, 0, 0.5, gesture.OpenPalm)
	// Keep moving right, well past the first swipe.
	steps = append(steps, linear(220, 200, 20, 0.52, 0.9, gesture.OpenPalm)...)

	fired := run(d, steps)
	require.Len(t, fired, 1)
	for _, sw := range fired {
		if diff := cmp.Diff(Swipe{Direction: Right, Nav: Next}, sw); diff != "" {
			t.Errorf("swipe mismatch (-want +got):\n%s", diff)
		}
	}
	assert.Equal(t, Locked, d.State())
}

func TestSwipe_DefaultThresholds(t *testing.T) {
	d := newSwipe(t, DefaultSwipeConfig())

	// 0.005/ms, above the 0.003 start gate.
	fired := run(d, linear(0, 96, 16, 0, 0.48, gesture.OpenPalm))
	require.Len(t, fired, 1)

	// The slower sweep never leaves Idle at default thresholds.
	d = newSwipe(t, DefaultSwipeConfig())
	fired = run(d, linear(0, 200, 20, 0, 0.5, gesture.OpenPalm))
	assert.Empty(t, fired)
	assert.Equal(t, Idle, d.State())
}

func TestSwipe_RequiresOpenPalm(t *testing.T) {
	for _, g := range []gesture.Gesture{gesture.None, gesture.Fist, gesture.Pinch, gesture.Peace, gesture.OK, gesture.Zoom} {
		d := newSwipe(t, sweepConfig())
		fired := run(d, linear(0, 200, 20, 0, 0.5, g))
		assert.Empty(t, fired, "gesture %s", g)
	}
}

func TestSwipe_RecoveryRearms(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	steps := linear(0, 200, 20, 0, 0.5, gesture.OpenPalm)
	// Return to the rest position and pause long enough for the cooldown.
	steps = append(steps, linear(220, 200, 20, 0.5, 0.05, gesture.OpenPalm)...)
	steps = append(steps, hold(440, 500, 20, 0.05, gesture.OpenPalm)...)
	// Swipe left from the same rest position.
	steps = append(steps, linear(960, 200, 20, 0.05, -0.45, gesture.OpenPalm)...)

	fired := run(d, steps)
	var got []Swipe
	for i := range len(steps) {
		if sw, ok := fired[i]; ok {
			got = append(got, sw)
		}
	}

	want := []Swipe{
		{Direction: Right, Nav: Next},
		{Direction: Left, Nav: Previous},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("swipes mismatch (-want +got):\n%s", diff)
	}
}

func TestSwipe_LockedIgnoresOppositeJump(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	fired := run(d, linear(0, 200, 20, 0, 0.5, gesture.OpenPalm))
	require.Len(t, fired, 1)
	require.Equal(t, Locked, d.State())
	assert.Equal(t, Right, d.LockedDirection())

	// One frame leaps past the baseline to the left without landing inside
	// the recovery radius.
	_, ok := d.Update(-0.4, at(700), gesture.OpenPalm)
	assert.False(t, ok)
	assert.Equal(t, Locked, d.State())
	assert.Equal(t, Right, d.LockedDirection())

	// Coming back to rest near the baseline re-arms.
	d.Update(0.05, at(720), gesture.OpenPalm)
	assert.Equal(t, NoDirection, d.LockedDirection())
	assert.NotEqual(t, Locked, d.State())
}

func TestSwipe_BackAndForthWithoutPause(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	steps := linear(0, 200, 20, 0, 0.5, gesture.OpenPalm)
	// Straight back through the baseline and out the other side. Recovery
	// happens in passing; the left swipe waits out the cooldown.
	steps = append(steps, linear(220, 400, 20, 0.48, -0.5, gesture.OpenPalm)...)

	fired := run(d, steps)
	var dirs []Direction
	for i := range len(steps) {
		if sw, ok := fired[i]; ok {
			dirs = append(dirs, sw.Direction)
		}
	}
	assert.Equal(t, []Direction{Right, Left}, dirs)
}

func TestSwipe_Cooldown(t *testing.T) {
	cfg := sweepConfig()
	cfg.Cooldown = 2 * time.Second
	d := newSwipe(t, cfg)

	steps := linear(0, 200, 20, 0, 0.5, gesture.OpenPalm)
	steps = append(steps, linear(220, 200, 20, 0.5, 0, gesture.OpenPalm)...)
	steps = append(steps, linear(440, 200, 20, 0, -0.5, gesture.OpenPalm)...)

	fired := run(d, steps)
	assert.Len(t, fired, 1, "second swipe inside cooldown must not fire")
}

func TestSwipe_ResetKeepsCooldown(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	fired := run(d, linear(0, 200, 20, 0, 0.5, gesture.OpenPalm))
	require.Len(t, fired, 1)

	d.Reset()
	assert.Equal(t, Idle, d.State())

	// Hand reappears 100ms later and sweeps immediately: still cooling down.
	fired = run(d, linear(300, 200, 20, 0, 0.5, gesture.OpenPalm))
	assert.Empty(t, fired)

	d.Reset()
	fired = run(d, linear(1000, 200, 20, 0, 0.5, gesture.OpenPalm))
	assert.Len(t, fired, 1)
}

func TestSwipe_SettlesToIdle(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	// A small twitch starts tracking, then the hand rests.
	run(d, []step{
		{0, 0, gesture.OpenPalm},
		{20, 0.05, gesture.OpenPalm},
	})
	assert.Equal(t, Tracking, d.State())

	run(d, hold(40, 100, 20, 0.05, gesture.OpenPalm))
	assert.Equal(t, Idle, d.State())

	// A slow drift out of the radius with a fist never fires and settles.
	run(d, linear(160, 200, 20, 0.05, 0.4, gesture.Fist))
	run(d, hold(380, 100, 20, 0.4, gesture.Fist))
	assert.Equal(t, Idle, d.State())
}

func TestSwipe_ZeroTimeDelta(t *testing.T) {
	d := newSwipe(t, sweepConfig())

	fired := run(d, []step{
		{0, 0, gesture.OpenPalm},
		{0, 0.1, gesture.OpenPalm},
		{0, 0.3, gesture.OpenPalm},
	})

	// Infinite velocity starts tracking and passes the velocity gate.
	require.Len(t, fired, 1)
	assert.Equal(t, Right, fired[2].Direction)
}

func TestSwipe_InvertNavigation(t *testing.T) {
	cfg := sweepConfig()
	cfg.InvertNavigation = true
	d := newSwipe(t, cfg)

	fired := run(d, linear(0, 200, 20, 0, 0.5, gesture.OpenPalm))
	require.Len(t, fired, 1)
	for _, sw := range fired {
		assert.Equal(t, Right, sw.Direction)
		assert.Equal(t, Previous, sw.Nav)
	}
}

func TestSwipeConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SwipeConfig)
	}{
		{"start velocity", func(c *SwipeConfig) { c.StartVelocity = 0 }},
		{"recovery radius", func(c *SwipeConfig) { c.RecoveryRadius = -1 }},
		{"distance", func(c *SwipeConfig) { c.DistanceThreshold = 0 }},
		{"velocity", func(c *SwipeConfig) { c.VelocityThreshold = 0 }},
		{"cooldown", func(c *SwipeConfig) { c.Cooldown = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSwipeConfig()
			tt.mutate(&cfg)
			_, err := NewSwipeDetector(cfg)
			assert.ErrorIs(t, err, config.ErrConfiguration)
		})
	}
}

func TestSwipe_JSON(t *testing.T) {
	data, err := json.Marshal(Swipe{Direction: Left, Nav: Previous})
	require.NoError(t, err)
	assert.JSONEq(t, `{"direction":"left","nav":"previous"}`, string(data))
}
