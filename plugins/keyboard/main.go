// Package main provides a keyboard plugin for macOS.
// It turns interaction triggers into keystrokes via AppleScript, so a swipe
// can advance a presentation or a fist can press space.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Request mirrors the JSON document the dispatcher writes to stdin.
type Request struct {
	Action  string          `json:"action"`
	Trigger string          `json:"trigger"`
	Gesture string          `json:"gesture"`
	Slide   int             `json:"slide"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// KeystrokeConfig is the binding config for keystroke and shortcut actions.
type KeystrokeConfig struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// modifierMap maps user-friendly modifier names to AppleScript equivalents.
var modifierMap = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

// arrow key codes
const (
	keyCodeLeft  = 123
	keyCodeRight = 124
)

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	var err error
	switch req.Action {
	case "keystroke", "shortcut":
		err = handleKeystroke(req.Config)
	case "navigate":
		err = handleNavigate(req.Trigger)
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}

	if err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", req.Action, err)})
		return
	}
	writeResponse(Response{Success: true})
}

func handleKeystroke(config json.RawMessage) error {
	var c KeystrokeConfig
	if len(config) > 0 {
		if err := json.Unmarshal(config, &c); err != nil {
			return fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if c.Key == "" {
		return fmt.Errorf("key is required")
	}
	return runAppleScript(buildKeystrokeScript(c.Key, c.Modifiers))
}

// handleNavigate presses the arrow key matching a swipe trigger.
func handleNavigate(trigger string) error {
	var code int
	switch trigger {
	case "swipe:next":
		code = keyCodeRight
	case "swipe:previous":
		code = keyCodeLeft
	default:
		return fmt.Errorf("navigate needs a swipe trigger, got %q", trigger)
	}
	return runAppleScript(fmt.Sprintf(`tell application "System Events" to key code %d`, code))
}

func buildKeystrokeScript(key string, modifiers []string) string {
	var appleModifiers []string
	for _, mod := range modifiers {
		if appleMod, ok := modifierMap[strings.ToLower(mod)]; ok {
			appleModifiers = append(appleModifiers, appleMod)
		}
	}

	if len(appleModifiers) == 0 {
		return fmt.Sprintf(`tell application "System Events" to keystroke "%s"`, key)
	}
	return fmt.Sprintf(`tell application "System Events" to keystroke "%s" using {%s}`,
		key, strings.Join(appleModifiers, ", "))
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}

func runAppleScript(script string) error {
	cmd := exec.Command("osascript", "-e", script)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, string(output))
	}
	return nil
}
