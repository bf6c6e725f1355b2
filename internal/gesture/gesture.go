// Package gesture classifies single-frame hand poses from landmark geometry.
package gesture

import "fmt"

// Gesture is the discrete pose label attached to a frame.
type Gesture int

const (
	None Gesture = iota
	Fist
	OpenPalm
	Pinch
	Peace
	OK
	// Zoom is only ever assigned by the aggregator when two hands are
	// present. The classifier never returns it.
	Zoom
)

var names = [...]string{
	None:     "NONE",
	Fist:     "FIST",
	OpenPalm: "OPEN_PALM",
	Pinch:    "PINCH",
	Peace:    "PEACE",
	OK:       "OK",
	Zoom:     "ZOOM",
}

// All lists every gesture in declaration order.
func All() []Gesture {
	return []Gesture{None, Fist, OpenPalm, Pinch, Peace, OK, Zoom}
}

func (g Gesture) String() string {
	if g < 0 || int(g) >= len(names) {
		return fmt.Sprintf("Gesture(%d)", int(g))
	}
	return names[g]
}

// Parse returns the gesture with the given upper-case name.
func Parse(name string) (Gesture, error) {
	for i, n := range names {
		if n == name {
			return Gesture(i), nil
		}
	}
	return None, fmt.Errorf("unknown gesture %q", name)
}

// MarshalText implements encoding.TextMarshaler.
func (g Gesture) MarshalText() ([]byte, error) {
	if g < 0 || int(g) >= len(names) {
		return nil, fmt.Errorf("invalid gesture %d", int(g))
	}
	return []byte(names[g]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Gesture) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*g = parsed
	return nil
}
