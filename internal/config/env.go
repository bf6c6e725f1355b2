package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Env holds process-level settings read from MUDRA_* environment variables.
type Env struct {
	Addr        string `env:"MUDRA_ADDR" envDefault:":8080"`
	CameraID    int    `env:"MUDRA_CAMERA_ID" envDefault:"0"`
	DataDir     string `env:"MUDRA_DATA_DIR"`
	PluginDir   string `env:"MUDRA_PLUGIN_DIR"`
	TuningPath  string `env:"MUDRA_TUNING"`
	Performance string `env:"MUDRA_PERFORMANCE" envDefault:"auto"`
	Headless    bool   `env:"MUDRA_HEADLESS" envDefault:"false"`
	Capture     bool   `env:"MUDRA_CAPTURE" envDefault:"true"`
	LogLevel    string `env:"MUDRA_LOG_LEVEL" envDefault:"info"`
}

// ParseEnv loads Env from the environment and fills in directories that
// default to ~/.mudra.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}

	if e.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Env{}, fmt.Errorf("resolve home directory: %w", err)
		}
		e.DataDir = filepath.Join(home, ".mudra")
	}
	if e.PluginDir == "" {
		e.PluginDir = filepath.Join(e.DataDir, "plugins")
	}

	return e, nil
}

// Tuning loads the tuning file named by MUDRA_TUNING, or the shipped
// defaults when it is unset.
func (e Env) Tuning() (*Tuning, error) {
	if e.TuningPath == "" {
		return DefaultTuning()
	}
	return LoadTuning(e.TuningPath)
}

// SlogLevel maps MUDRA_LOG_LEVEL to a slog level.
func (e Env) SlogLevel() slog.Level {
	switch strings.ToLower(e.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
