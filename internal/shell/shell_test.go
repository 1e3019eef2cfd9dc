package shell

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func requireBash(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(DefaultPath); err != nil {
		t.Skipf("%s not available: %v", DefaultPath, err)
	}
}

func TestBashRun(t *testing.T) {
	requireBash(t)
	dir := t.TempDir()

	tests := []struct {
		name       string
		command    string
		wantStdout string
		wantStderr string
		wantStatus int
	}{
		{name: "stdout", command: "echo hello", wantStdout: "hello\n"},
		{name: "stderr", command: "echo oops >&2", wantStderr: "oops\n"},
		{name: "runs in dir", command: "basename \"$PWD\"", wantStdout: filepath.Base(dir) + "\n"},
		{name: "non-zero exit", command: "echo partial; exit 3", wantStdout: "partial\n", wantStatus: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Bash{}.Run(context.Background(), tt.command, dir)
			if res.Stdout != tt.wantStdout {
				t.Errorf("Stdout = %q, want %q", res.Stdout, tt.wantStdout)
			}
			if res.Stderr != tt.wantStderr {
				t.Errorf("Stderr = %q, want %q", res.Stderr, tt.wantStderr)
			}
			if res.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", res.Status, tt.wantStatus)
			}

			if tt.wantStatus == 0 {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			var exitErr *ExitError
			if !errors.As(err, &exitErr) {
				t.Fatalf("expected *ExitError, got %v", err)
			}
			if exitErr.Status != tt.wantStatus {
				t.Errorf("ExitError.Status = %d, want %d", exitErr.Status, tt.wantStatus)
			}
		})
	}
}

func TestBashRunMissingDir(t *testing.T) {
	requireBash(t)
	_, err := Bash{}.Run(context.Background(), "true", filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected an error for a missing dir")
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		t.Errorf("a process that never started should not be an *ExitError: %v", err)
	}
}

func TestBashRunSignal(t *testing.T) {
	requireBash(t)
	res, err := Bash{}.Run(context.Background(), "kill -TERM $$", t.TempDir())
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected *ExitError, got %v", err)
	}
	if res.Signal == "" || !strings.Contains(err.Error(), "signal") {
		t.Errorf("expected a signal result, got %+v / %v", res, err)
	}
}
