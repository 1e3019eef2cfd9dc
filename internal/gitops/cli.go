package gitops

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// CLI shells out to the git binary, which picks up the user's own SSH and
// credential helper setup.
type CLI struct {
	// Git is the binary to run, "git" when empty
	Git string
}

func (c CLI) Clone(ctx context.Context, url, dir string) error {
	_, err := c.run(ctx, "clone", "--quiet", url, dir)
	return err
}

func (c CLI) OriginURL(ctx context.Context, dir string) (string, error) {
	out, err := c.run(ctx, "-C", dir, "remote", "get-url", "origin")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c CLI) run(ctx context.Context, args ...string) (string, error) {
	bin := c.Git
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

var _ Cloner = CLI{}
