package app

import (
	"context"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/perf"
)

// profileFor maps the advisory performance mode to a capture profile.
func profileFor(m perf.Mode) capture.Profile {
	if m == perf.Active {
		return capture.LowFidelity
	}
	return capture.HighFidelity
}

func frameInterval(p capture.Profile) time.Duration {
	return time.Second / time.Duration(p.FPS)
}

// runCapture is the camera loop. Each tick it:
//
//  1. follows the performance mode, switching camera profile and tick rate
//  2. reads a frame and refreshes the preview if anyone is watching
//  3. skips detection when the scene is still and no hand was visible
//  4. runs hand detection and hands the frame to the engine
func (a *App) runCapture(ctx context.Context) {
	defer a.wg.Done()
	defer a.capturing.Store(false)

	profile := a.camera.Profile()
	ticker := time.NewTicker(frameInterval(profile))
	defer ticker.Stop()

	handsVisible := false

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			if want := profileFor(a.perf.Mode()); want != profile {
				a.camera.SetProfile(want)
				profile = want
				ticker.Reset(frameInterval(profile))
				a.logger.Info("capture profile changed", "fps", profile.FPS, "width", profile.Width, "height", profile.Height)
			}

			handsVisible = a.captureOnce(now, handsVisible)
		}
	}
}

// captureOnce processes one camera frame and reports whether a hand was
// visible in it.
func (a *App) captureOnce(now time.Time, handsVisible bool) bool {
	frame, err := a.camera.ReadFrame()
	if err != nil {
		a.logger.Debug("reading frame", "error", err)
		return handsVisible
	}
	defer frame.Close()

	a.updatePreview(frame)

	changed, _ := a.activity.Changed(frame)
	if !changed && !handsVisible {
		return false
	}

	hands, err := a.detector.Detect(frame)
	if err != nil {
		a.logger.Warn("detecting hands", "error", err)
		return handsVisible
	}

	if _, err := a.HandleFrame(detector.Frame{Hands: hands, Timestamp: now}); err != nil {
		a.logger.Warn("dropping frame", "error", err)
		return handsVisible
	}
	return len(hands) > 0
}

func (a *App) updatePreview(frame *gocv.Mat) {
	if a.previewWanted.Load() <= 0 {
		return
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, *frame)
	if err != nil {
		a.logger.Debug("encoding preview", "error", err)
		return
	}
	jpeg := append([]byte(nil), buf.GetBytes()...)
	buf.Close()

	a.previewMu.Lock()
	a.preview = jpeg
	a.previewSeq++
	a.previewMu.Unlock()
}
