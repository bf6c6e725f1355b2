package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTuning(t *testing.T) {
	tuning, err := DefaultTuning()
	require.NoError(t, err)

	assert.Equal(t, 1.5, *tuning.Classifier.ExtensionRatio)
	assert.Equal(t, 0.05, *tuning.Classifier.PinchDistance)
	assert.Equal(t, 0.08, *tuning.Classifier.OKDistance)
	assert.Equal(t, "low_latency", *tuning.Smoothing.Preset)
	assert.Equal(t, 0.15, *tuning.Swipe.RecoveryRadius)
	assert.Equal(t, 90, *tuning.Performance.TriggerCount)
	assert.Equal(t, 150, *tuning.Performance.RecoveryCount)
	assert.Equal(t, 3, *tuning.Carousel.Slides)

	cooldown, err := tuning.SwipeCooldown()
	require.NoError(t, err)
	assert.Equal(t, 400*time.Millisecond, cooldown)

	maxPress, err := tuning.ClickMaxPress()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, maxPress)
}

func TestParseTuning_MissingKeys(t *testing.T) {
	tests := []struct {
		name    string
		json    string
		missing []string
	}{
		{
			name:    "empty document",
			json:    `{}`,
			missing: []string{"classifier", "smoothing", "swipe", "click", "zoom", "performance", "carousel"},
		},
		{
			name: "partial swipe section",
			json: strings.Replace(string(defaultTuning),
				`"distance_threshold": 0.2,`, ``, 1),
			missing: []string{"swipe.distance_threshold"},
		},
		{
			name: "press release without max press",
			json: strings.Replace(string(defaultTuning),
				`"max_press": "300ms"`, `"max_press": null`, 1),
			missing: []string{"click.max_press"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTuning([]byte(tt.json))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfiguration), "expected ErrConfiguration, got %v", err)
			for _, key := range tt.missing {
				assert.Contains(t, err.Error(), key)
			}
		})
	}
}

func TestParseTuning_BadDuration(t *testing.T) {
	data := strings.Replace(string(defaultTuning), `"cooldown": "400ms"`, `"cooldown": "soon"`, 1)

	_, err := ParseTuning([]byte(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Contains(t, err.Error(), "swipe.cooldown")
}

func TestParseTuning_InvalidJSON(t *testing.T) {
	_, err := ParseTuning([]byte(`{"classifier":`))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadTuning(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "tuning.json")
		require.NoError(t, os.WriteFile(path, defaultTuning, 0o644))

		tuning, err := LoadTuning(path)
		require.NoError(t, err)
		assert.Equal(t, 4.0, *tuning.Zoom.Gain)
	})

	t.Run("wrong extension", func(t *testing.T) {
		path := filepath.Join(dir, "tuning.yaml")
		require.NoError(t, os.WriteFile(path, defaultTuning, 0o644))

		_, err := LoadTuning(path)
		assert.ErrorIs(t, err, ErrConfiguration)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTuning(filepath.Join(dir, "absent.json"))
		assert.Error(t, err)
	})
}

func TestParseEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("MUDRA_ADDR", ":9090")
	t.Setenv("MUDRA_DATA_DIR", dir)
	t.Setenv("MUDRA_PERFORMANCE", "low")
	t.Setenv("MUDRA_LOG_LEVEL", "debug")

	e, err := ParseEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", e.Addr)
	assert.Equal(t, dir, e.DataDir)
	assert.Equal(t, filepath.Join(dir, "plugins"), e.PluginDir)
	assert.Equal(t, "low", e.Performance)
	assert.True(t, e.Capture)
	assert.Equal(t, slog.LevelDebug, e.SlogLevel())

	tuning, err := e.Tuning()
	require.NoError(t, err)
	assert.NotNil(t, tuning.Swipe)
}
