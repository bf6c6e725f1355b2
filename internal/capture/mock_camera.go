package capture

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// MockCamera hands out blank frames sized to the current profile, or plays
// back a fixed sequence. It records every profile change.
type MockCamera struct {
	mu       sync.Mutex
	frames   []*gocv.Mat
	index    int
	loop     bool
	running  bool
	reads    int
	profile  Profile
	profiles []Profile
}

// NewMockCamera plays frames in order. With no frames it produces blank
// frames forever.
func NewMockCamera(frames []*gocv.Mat, loop bool) *MockCamera {
	return &MockCamera{
		frames:  frames,
		loop:    loop,
		profile: HighFidelity,
	}
}

func (c *MockCamera) Open() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = true
	c.index = 0
	return nil
}

func (c *MockCamera) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	return nil
}

func (c *MockCamera) ReadFrame() (*gocv.Mat, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil, ErrCameraNotOpen
	}
	c.reads++

	if len(c.frames) == 0 {
		blank := gocv.NewMatWithSize(c.profile.Height, c.profile.Width, gocv.MatTypeCV8UC3)
		return &blank, nil
	}

	if c.index >= len(c.frames) {
		if !c.loop {
			return nil, fmt.Errorf("no more frames")
		}
		c.index = 0
	}

	frame := c.frames[c.index].Clone()
	c.index++

	return &frame, nil
}

func (c *MockCamera) SetProfile(p Profile) {
	if !p.valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.profile = p
	c.profiles = append(c.profiles, p)
}

func (c *MockCamera) Profile() Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.profile
}

func (c *MockCamera) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Profiles returns every profile set since creation.
func (c *MockCamera) Profiles() []Profile {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Profile(nil), c.profiles...)
}

// Reads returns how many frames were requested while open.
func (c *MockCamera) Reads() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads
}
