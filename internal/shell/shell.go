package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

// DefaultPath is the shell used when Bash.Path is empty
const DefaultPath = "/bin/bash"

// Result is what a finished command left behind. Signal is set instead of
// Status when the process was killed by a signal.
type Result struct {
	Status int    `json:"status"`
	Signal string `json:"signal,omitempty"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Runner runs a shell command line in a working directory.
type Runner interface {
	Run(ctx context.Context, command, dir string) (Result, error)
}

// ExitError is returned together with the captured Result when the command
// ran but did not exit zero.
type ExitError struct {
	Command string
	Dir     string
	Status  int
	Signal  string
}

func (e *ExitError) Error() string {
	if e.Signal != "" {
		return fmt.Sprintf("command %q in %s killed by signal %s", e.Command, e.Dir, e.Signal)
	}
	return fmt.Sprintf("command %q in %s exited with status %d", e.Command, e.Dir, e.Status)
}

// Bash runs commands with `bash -c`
type Bash struct {
	Path string
}

func (b Bash) Run(ctx context.Context, command, dir string) (Result, error) {
	path := b.Path
	if path == "" {
		path = DefaultPath
	}

	cmd := exec.CommandContext(ctx, path, "-c", command)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		// never started
		return res, fmt.Errorf("failed to run %q in %s: %w", command, dir, err)
	}

	res.Status = exitErr.ExitCode()
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		res.Signal = ws.Signal().String()
	}
	return res, &ExitError{Command: command, Dir: dir, Status: res.Status, Signal: res.Signal}
}

var _ Runner = Bash{}
