package ai

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"time"
)

// CommandRunner runs an external command to completion.
type CommandRunner interface {
	Run(ctx context.Context, name string, args []string) (stdout, stderr string, err error)
}

// ExecRunner runs commands with os/exec in the current directory.
type ExecRunner struct {
	// Echo, if set, receives a copy of the command's stdout as it is
	// produced.
	Echo io.Writer
}

// Run starts the command and waits for it. When ctx is done the process is
// killed and ctx.Err() is returned alongside whatever output was captured.
func (r ExecRunner) Run(ctx context.Context, name string, args []string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	if r.Echo != nil {
		cmd.Stdout = io.MultiWriter(&stdout, r.Echo)
	}
	cmd.Stderr = &stderr
	cmd.WaitDelay = 5 * time.Second

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	return stdout.String(), stderr.String(), err
}

// RunnerFunc adapts a function to CommandRunner.
type RunnerFunc func(ctx context.Context, name string, args []string) (string, string, error)

func (f RunnerFunc) Run(ctx context.Context, name string, args []string) (string, string, error) {
	return f(ctx, name, args)
}
