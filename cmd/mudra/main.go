package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/perf"
	"github.com/ayusman/mudra/internal/server"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/internal/tray"
)

func main() {
	if err := run(); err != nil {
		slog.Error("mudra failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := config.ParseEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: env.SlogLevel()}))
	slog.SetDefault(logger)

	tuning, err := env.Tuning()
	if err != nil {
		return err
	}
	engineCfg, err := app.EngineConfig(tuning)
	if err != nil {
		return err
	}
	toggle, err := perf.ParseToggle(env.Performance)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(env.DataDir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(filepath.Join(env.DataDir, "mudra.db"))
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	application, err := app.New(app.Config{
		Store:     st,
		PluginDir: env.PluginDir,
		Capture:   env.Capture,
		CameraID:  env.CameraID,
		Engine:    engineCfg,
		Perf:      app.PerfConfig(tuning, toggle),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	defer application.Stop()

	if err := application.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", "dir", env.PluginDir, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := application.Start(ctx); err != nil {
		return err
	}

	webDir := findWebDir(env.DataDir)
	if webDir != "" {
		logger.Info("serving static files", "dir", webDir)
	}
	srv := server.New(server.Config{
		StaticDir: webDir,
		App:       application,
		Store:     st,
		Logger:    logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe(ctx, env.Addr)
	}()

	if env.Headless {
		return <-errCh
	}

	t := tray.New(application)
	t.OnSettings(func() { openBrowser(settingsURL(env.Addr)) })
	t.OnQuit(stop)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- watchServer(ctx, errCh, logger, t.Quit)
	}()
	t.Run()

	stop()
	return <-serveErr
}

// watchServer waits for the server to exit. A server that fails while ctx
// is live is logged and quit is called so the tray does not outlive it; a
// cancelled ctx also calls quit.
func watchServer(ctx context.Context, errCh <-chan error, logger *slog.Logger, quit func()) error {
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server stopped", "error", err)
		}
		quit()
		return err
	case <-ctx.Done():
		quit()
		return <-errCh
	}
}

// findWebDir checks "web", "../web", "../../web" and dataDir/web in order.
func findWebDir(dataDir string) string {
	for _, p := range []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")} {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func settingsURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		slog.Warn("open browser failed", "url", url, "error", err)
	}
}
