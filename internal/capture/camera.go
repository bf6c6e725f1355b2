// Package capture reads frames from a webcam with GoCV.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Profile is a capture rate and resolution.
type Profile struct {
	FPS    int `json:"fps"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Capture profiles for the two fidelity modes.
var (
	HighFidelity = Profile{FPS: 30, Width: 640, Height: 480}
	LowFidelity  = Profile{FPS: 15, Width: 320, Height: 240}
)

func (p Profile) valid() bool {
	return p.FPS > 0 && p.Width > 0 && p.Height > 0
}

// ErrCameraNotOpen is returned when trying to read from a camera that is not open.
var ErrCameraNotOpen = errors.New("camera is not open")

// Camera defines the interface for camera capture implementations.
type Camera interface {
	Open() error
	Close() error
	// ReadFrame returns the next frame. The caller closes it.
	ReadFrame() (*gocv.Mat, error)
	// SetProfile changes rate and resolution. Invalid profiles are ignored.
	SetProfile(p Profile)
	Profile() Profile
	IsOpen() bool
}

// cameraImpl manages video capture from a camera device using GoCV.
type cameraImpl struct {
	deviceID int

	mu      sync.Mutex
	capture *gocv.VideoCapture
	running bool
	profile Profile
}

// NewCamera creates a Camera for the given device at HighFidelity.
func NewCamera(deviceID int) Camera {
	return &cameraImpl{
		deviceID: deviceID,
		profile:  HighFidelity,
	}
}

// Open opens the camera and applies the current profile.
func (c *cameraImpl) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}

	capture, err := gocv.OpenVideoCapture(c.deviceID)
	if err != nil {
		return fmt.Errorf("open camera %d: %w", c.deviceID, err)
	}

	c.capture = capture
	c.running = true
	c.apply()

	return nil
}

func (c *cameraImpl) apply() {
	if c.capture == nil {
		return
	}
	c.capture.Set(gocv.VideoCaptureFrameWidth, float64(c.profile.Width))
	c.capture.Set(gocv.VideoCaptureFrameHeight, float64(c.profile.Height))
	c.capture.Set(gocv.VideoCaptureFPS, float64(c.profile.FPS))
}

// Close closes the camera and releases resources.
func (c *cameraImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		c.running = false
		return nil
	}

	err := c.capture.Close()
	c.capture = nil
	c.running = false

	return err
}

// ReadFrame reads a single frame from the camera.
func (c *cameraImpl) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running || c.capture == nil {
		return nil, ErrCameraNotOpen
	}

	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, errors.New("failed to read frame from camera")
	}

	if mat.Empty() {
		mat.Close()
		return nil, errors.New("captured frame is empty")
	}

	return &mat, nil
}

func (c *cameraImpl) SetProfile(p Profile) {
	if !p.valid() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.profile = p
	c.apply()
}

func (c *cameraImpl) Profile() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

// IsOpen returns true if the camera is currently open and running.
func (c *cameraImpl) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.running
}
