package system

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

type Runner interface {
	Run(ctx context.Context, cmd string, args ...string) (stdout, stderr string, err error)
}

type NoopRunner struct{}

func (NoopRunner) Run(ctx context.Context, cmd string, args ...string) (string, string, error) {
	return "", "", nil
}

// ExecRunner executes commands resolved from PATH.
// It returns stdout, stderr, and an error if the command exits non-zero.
type ExecRunner struct {
	// Sudo prefixes every command with sudo.
	Sudo bool
}

func (r ExecRunner) Run(ctx context.Context, cmd string, args ...string) (string, string, error) {
	name, fullArgs := cmd, args
	if r.Sudo {
		name, fullArgs = "sudo", append([]string{cmd}, args...)
	}
	c := exec.CommandContext(ctx, name, fullArgs...)
	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf
	if err := c.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return outBuf.String(), errBuf.String(), fmt.Errorf("exit %d: %w", exitErr.ExitCode(), err)
		}
		return outBuf.String(), errBuf.String(), err
	}
	return outBuf.String(), errBuf.String(), nil
}
