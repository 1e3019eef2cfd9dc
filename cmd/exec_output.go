package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/stuttgart-things/repofleet/internal/fleet"
	"github.com/stuttgart-things/repofleet/internal/runner"
)

var outputModes = []string{"default", "json", "raw", "table"}

func validOutputMode(mode string) error {
	for _, m := range outputModes {
		if m == mode {
			return nil
		}
	}
	return fmt.Errorf("invalid output mode: %q (one of %s)", mode, strings.Join(outputModes, ", "))
}

// execEvent is the json output record for one repo
type execEvent struct {
	Repo    string     `json:"repo"`
	Dir     string     `json:"dir"`
	Elapsed float64    `json:"elapsed"`
	Skipped bool       `json:"skipped,omitempty"`
	Status  int        `json:"status"`
	Signal  string     `json:"signal,omitempty"`
	Stdout  string     `json:"stdout"`
	Stderr  string     `json:"stderr"`
	Error   *execError `json:"error,omitempty"`
}

type execError struct {
	Message string `json:"message"`
}

// execPrinter writes exec progress in one of the output modes. Events are
// printed as they complete, so repos appear in completion order; table mode
// buffers until finish.
type execPrinter struct {
	mode   string
	stdout io.Writer
	stderr io.Writer

	n    int
	rows pterm.TableData
}

func newExecPrinter(mode string, stdout, stderr io.Writer) *execPrinter {
	return &execPrinter{mode: mode, stdout: stdout, stderr: stderr}
}

func (p *execPrinter) event(ev runner.Progress[fleet.ExecResult]) error {
	res := ev.Result

	switch p.mode {
	case "json":
		rec := execEvent{
			Repo:    ev.Repo.Name,
			Dir:     res.Dir,
			Elapsed: ev.Elapsed.Seconds(),
			Skipped: res.Skipped,
			Status:  res.Status,
			Signal:  res.Signal,
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
		}
		if ev.Err != nil {
			rec.Error = &execError{Message: ev.Err.Error()}
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshalling JSON: %w", err)
		}
		fmt.Fprintln(p.stdout, string(data))
		return nil
	}

	if res.Skipped {
		return nil
	}
	stderr := res.Stderr
	if ev.Err != nil && stderr == "" {
		stderr = ev.Err.Error() + "\n"
	}

	switch p.mode {
	case "raw":
		writeLine(p.stdout, res.Stdout)
		writeLine(p.stderr, stderr)
	case "table":
		p.rows = append(p.rows, []string{ev.Repo.Name, strings.TrimRight(res.Stdout, " \t\r\n")})
	default:
		if p.n > 0 {
			fmt.Fprintln(p.stdout)
		}
		fmt.Fprintln(p.stdout, paint(headerStyle, "# "+ev.Repo.Name))
		fmt.Fprint(p.stdout, res.Stdout)
		fmt.Fprint(p.stderr, paint(errorStyle, stderr))
		p.n++
	}
	return nil
}

// finish flushes buffered output
func (p *execPrinter) finish() error {
	if p.mode != "table" || len(p.rows) == 0 {
		return nil
	}
	table, err := pterm.DefaultTable.WithData(p.rows).Srender()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	fmt.Fprintln(p.stdout, table)
	return nil
}

// writeLine writes s making sure it ends in a newline
func writeLine(w io.Writer, s string) {
	if s == "" {
		return
	}
	fmt.Fprint(w, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(w)
	}
}

// runExec prints batch progress until it completes. The returned error
// aggregates every per-repo failure.
func runExec(p *execPrinter, batch *runner.Batch[fleet.ExecResult]) error {
	var printErr error
	for ev := range batch.Progress() {
		if err := p.event(ev); err != nil && printErr == nil {
			printErr = err
		}
	}
	summary := batch.Wait()
	if err := p.finish(); err != nil && printErr == nil {
		printErr = err
	}
	if err := summary.Err(); err != nil {
		return fmt.Errorf("%d of %d repos failed:\n%w", summary.Failed, summary.Total, err)
	}
	return printErr
}
