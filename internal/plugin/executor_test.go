package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// writeScriptPlugin writes a shell-script plugin into a temp directory and
// returns it with its manifest already populated.
func writeScriptPlugin(t *testing.T, name, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	exe := name + ".sh"
	scriptPath := filepath.Join(dir, exe)
	if err := os.WriteFile(scriptPath, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}

	manifest := Manifest{
		Name:       name,
		Version:    "1.0.0",
		Executable: exe,
		Actions:    actions,
	}
	data, err := json.Marshal(manifest)
	if err != nil {
		t.Fatalf("failed to marshal manifest: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "plugin.json"), data, 0644); err != nil {
		t.Fatalf("failed to write manifest: %v", err)
	}

	return &Plugin{Manifest: manifest, Path: dir, Executable: scriptPath}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := writeScriptPlugin(t, "test-plugin", `cat <<'EOF'
{"success":true,"data":{"message":"hello world"}}
EOF
`, "test-action")

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:  "test-action",
		Trigger: TriggerSwipeNext,
		Config:  json.RawMessage(`{"key":"value"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if !response.Success {
		t.Errorf("expected success=true, got false")
	}
	if response.Error != "" {
		t.Errorf("expected empty error, got %q", response.Error)
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	plugin := writeScriptPlugin(t, "echo-plugin", `INPUT=$(cat)
echo "{\"success\":true,\"data\":{\"received\":$INPUT}}"
`, "echo")

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:  "echo",
		Trigger: "gesture:FIST",
		Gesture: "FIST",
		Slide:   2,
		Event:   json.RawMessage(`{"seq":7}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var data struct {
		Received Request `json:"received"`
	}
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}

	got := data.Received
	if got.Action != "echo" || got.Trigger != "gesture:FIST" || got.Gesture != "FIST" || got.Slide != 2 {
		t.Errorf("plugin received %+v", got)
	}
	if string(got.Event) != `{"seq":7}` {
		t.Errorf("event = %s", got.Event)
	}
}

func TestExecutor_RunsInPluginDir(t *testing.T) {
	plugin := writeScriptPlugin(t, "pwd-plugin", `cat >/dev/null
printf '{"success":true,"data":"%s"}' "$(pwd)"
`, "pwd")

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "pwd"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var dir string
	json.Unmarshal(response.Data, &dir)
	want, _ := filepath.EvalSymlinks(plugin.Path)
	got, _ := filepath.EvalSymlinks(dir)
	if got != want {
		t.Errorf("plugin ran in %q, want %q", got, want)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	plugin := writeScriptPlugin(t, "slow-plugin", `sleep 10
echo '{"success":true}'
`, "slow")

	executor := NewExecutor(100 * time.Millisecond)
	start := time.Now()
	_, err := executor.Execute(context.Background(), plugin, &Request{Action: "slow"})

	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Execute() took %v after timeout", elapsed)
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := writeScriptPlugin(t, "error-plugin", `echo '{"success":false,"error":"something went wrong"}'
`, "fail")

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "fail"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	if response.Success {
		t.Errorf("expected success=false, got true")
	}
	if response.Error != "something went wrong" {
		t.Errorf("expected error 'something went wrong', got %q", response.Error)
	}
}

func TestExecutor_Execute_Failures(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"invalid json", "echo 'not valid json'\n"},
		{"non-zero exit", "echo 'Error: something failed' >&2\nexit 1\n"},
		{"empty output", "exit 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plugin := writeScriptPlugin(t, "bad-plugin", tt.script, "bad")

			_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "bad"})
			if err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestNewExecutor(t *testing.T) {
	executor := NewExecutor(3 * time.Second)
	if executor.Timeout() != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", executor.Timeout())
	}
}
