// Package main provides a system control plugin for macOS.
// It drives volume, brightness and media playback via AppleScript.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// Request mirrors the JSON document the dispatcher writes to stdin.
type Request struct {
	Action  string          `json:"action"`
	Trigger string          `json:"trigger"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

var scripts = map[string]string{
	"volume-up":        `set volume output volume ((output volume of (get volume settings)) + 10)`,
	"volume-down":      `set volume output volume ((output volume of (get volume settings)) - 10)`,
	"volume-mute":      `set volume output muted (not (output muted of (get volume settings)))`,
	"brightness-up":    keyCode(144),
	"brightness-down":  keyCode(145),
	"media-play-pause": keyCode(100),
	"media-next":       keyCode(101),
	"media-prev":       keyCode(98),
}

// mediaByTrigger backs the "media" action: swipes skip tracks, a click
// toggles playback.
var mediaByTrigger = map[string]string{
	"swipe:next":     "media-next",
	"swipe:previous": "media-prev",
	"click":          "media-play-pause",
}

func keyCode(code int) string {
	return fmt.Sprintf("tell application \"System Events\"\n\tkey code %d\nend tell", code)
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}

	action := req.Action
	if action == "media" {
		mapped, ok := mediaByTrigger[req.Trigger]
		if !ok {
			writeResponse(Response{Error: fmt.Sprintf("media has no mapping for trigger %q", req.Trigger)})
			return
		}
		action = mapped
	}

	script, ok := scripts[action]
	if !ok {
		writeResponse(Response{Error: fmt.Sprintf("unknown action: %s", req.Action)})
		return
	}

	if err := runAppleScript(script); err != nil {
		writeResponse(Response{Error: fmt.Sprintf("action %s failed: %v", action, err)})
		return
	}

	data, _ := json.Marshal(map[string]string{"ran": action})
	writeResponse(Response{Success: true, Data: data})
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
