package system

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type recordingRunner struct {
	calls  []string
	err    error
	stderr string
}

func (r *recordingRunner) Run(ctx context.Context, cmd string, args ...string) (string, string, error) {
	r.calls = append(r.calls, cmd+" "+strings.Join(args, " "))
	return "", r.stderr, r.err
}

func TestSetDiscoverable(t *testing.T) {
	r := &recordingRunner{}
	if err := SetDiscoverable(context.Background(), r, true); err != nil {
		t.Fatalf("SetDiscoverable: %v", err)
	}
	if err := SetPairable(context.Background(), r, false); err != nil {
		t.Fatalf("SetPairable: %v", err)
	}
	want := []string{"bluetoothctl discoverable on", "bluetoothctl pairable off"}
	if strings.Join(r.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %q, want %q", r.calls, want)
	}
}

func TestBluetoothctlFailureCarriesStderr(t *testing.T) {
	exitErr := errors.New("exit 1")
	r := &recordingRunner{err: exitErr, stderr: "No default controller available\n"}
	err := SetAlias(context.Background(), r, "RetroPlayer")
	if !errors.Is(err, exitErr) {
		t.Errorf("err = %v, want it to wrap the runner error", err)
	}
	if !strings.Contains(err.Error(), "No default controller") {
		t.Errorf("err = %v, want stderr included", err)
	}
}

func TestSetAliasRejectsEmpty(t *testing.T) {
	r := &recordingRunner{}
	if err := SetAlias(context.Background(), r, "  "); err == nil {
		t.Error("empty alias accepted")
	}
	if len(r.calls) != 0 {
		t.Errorf("runner called: %v", r.calls)
	}
}
