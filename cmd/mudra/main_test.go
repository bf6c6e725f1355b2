package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSettingsURL(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{":8080", "http://localhost:8080"},
		{"0.0.0.0:9000", "http://localhost:9000"},
		{"127.0.0.1:8081", "http://127.0.0.1:8081"},
		{"[::]:8080", "http://localhost:8080"},
		{"bogus", "http://localhost:8080"},
	}

	for _, tt := range tests {
		if got := settingsURL(tt.addr); got != tt.want {
			t.Errorf("settingsURL(%q) = %q, want %q", tt.addr, got, tt.want)
		}
	}
}

func TestFindWebDir_DataDir(t *testing.T) {
	dataDir := t.TempDir()
	t.Chdir(t.TempDir())

	if got := findWebDir(dataDir); got != "" {
		t.Errorf("findWebDir() = %q, want empty", got)
	}

	web := filepath.Join(dataDir, "web")
	if err := os.Mkdir(web, 0755); err != nil {
		t.Fatal(err)
	}
	if got := findWebDir(dataDir); got != web {
		t.Errorf("findWebDir() = %q, want %q", got, web)
	}
}

func TestWatchServer(t *testing.T) {
	logger := slog.New(slog.DiscardHandler)

	t.Run("startup failure quits the tray", func(t *testing.T) {
		errCh := make(chan error, 1)
		errCh <- errors.New("listen tcp :8080: bind: address already in use")

		quits := 0
		err := watchServer(context.Background(), errCh, logger, func() { quits++ })

		if err == nil {
			t.Fatal("expected the listen error")
		}
		if quits != 1 {
			t.Errorf("quit called %d times, want 1", quits)
		}
	})

	t.Run("cancel quits and waits for shutdown", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)

		done := make(chan error, 1)
		quit := make(chan struct{}, 1)
		go func() {
			done <- watchServer(ctx, errCh, logger, func() { quit <- struct{}{} })
		}()

		cancel()
		select {
		case <-quit:
		case <-time.After(5 * time.Second):
			t.Fatal("quit not called after cancel")
		}

		errCh <- nil
		if err := <-done; err != nil {
			t.Errorf("watchServer() = %v, want nil", err)
		}
	})
}
