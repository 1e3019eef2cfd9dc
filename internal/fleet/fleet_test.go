package fleet

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stuttgart-things/repofleet/internal/config"
	"github.com/stuttgart-things/repofleet/internal/gitops"
	"github.com/stuttgart-things/repofleet/internal/manifest"
	"github.com/stuttgart-things/repofleet/internal/selection"
	"github.com/stuttgart-things/repofleet/internal/shell"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "triton.json")
	content := `{
		"repositories": [
			{"name": "sdc-imgapi", "labels": {"tritonservice": "imgapi"}},
			{"name": "mahi", "labels": {"deprecated": true}},
			{"name": "node-bunyan", "labels": {"triton": false}}
		],
		"defaults": {"labels": {"triton": true}}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return New(&config.Config{Manifests: []manifest.Ref{{Name: "triton", Path: path}}})
}

func repoNames(repos []*manifest.Repository) string {
	var names []string
	for _, r := range repos {
		names = append(names, r.Name)
	}
	return strings.Join(names, ",")
}

func TestManagerListRepos(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	if m.Unconfigured() {
		t.Error("manager with a manifest should be configured")
	}

	all, err := m.ListRepos(ctx, selection.Query{})
	if err != nil {
		t.Fatal(err)
	}
	if got := repoNames(all); got != "mahi,node-bunyan,sdc-imgapi" {
		t.Errorf("ListRepos() = %s", got)
	}

	triton, err := m.ListRepos(ctx, selection.Query{LabelSelectors: []string{"triton", "!deprecated"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := repoNames(triton); got != "sdc-imgapi" {
		t.Errorf("ListRepos(triton,!deprecated) = %s", got)
	}

	repo, err := m.Repo(ctx, "mahi")
	if err != nil || repo.Name != "mahi" {
		t.Fatalf("Repo(mahi) = %v, %v", repo, err)
	}

	_, err = m.Repo(ctx, "mah*")
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Errorf("Repo() should not glob, got %v", err)
	}
}

func TestManagerUnconfigured(t *testing.T) {
	m := New(&config.Config{Manifests: []manifest.Ref{{Name: "x", Path: "x.json", Disabled: true}}})
	if !m.Unconfigured() {
		t.Error("only disabled manifests should count as unconfigured")
	}
	repos, err := m.Repos(context.Background())
	if err != nil || len(repos) != 0 {
		t.Errorf("Repos() = %v, %v", repos, err)
	}
}

// fakeShell fails commands in repos listed in failIn and fails the
// precondition in repos listed in skip
type fakeShell struct {
	mu     sync.Mutex
	ran    map[string][]string
	failIn map[string]bool
	skip   map[string]bool
}

func (f *fakeShell) Run(ctx context.Context, command, dir string) (shell.Result, error) {
	name := filepath.Base(dir)
	f.mu.Lock()
	f.ran[name] = append(f.ran[name], command)
	f.mu.Unlock()

	if command == "test -f Makefile" {
		if f.skip[name] {
			return shell.Result{Status: 1}, &shell.ExitError{Command: command, Dir: dir, Status: 1}
		}
		return shell.Result{}, nil
	}
	if f.failIn[name] {
		return shell.Result{Status: 2, Stderr: "boom\n"}, &shell.ExitError{Command: command, Dir: dir, Status: 2}
	}
	return shell.Result{Stdout: name + "\n"}, nil
}

func testRepos(names ...string) []*manifest.Repository {
	out := make([]*manifest.Repository, len(names))
	for i, n := range names {
		out[i] = &manifest.Repository{Name: n}
	}
	return out
}

func TestExecInClones(t *testing.T) {
	sh := &fakeShell{
		ran:    map[string][]string{},
		failIn: map[string]bool{"mahi": true},
		skip:   map[string]bool{"node-bunyan": true},
	}
	repos := testRepos("sdc-imgapi", "mahi", "node-bunyan")

	batch := ExecInClones(context.Background(), sh, repos, "/base", ExecOptions{
		Command:      "make check",
		Precondition: "test -f Makefile",
		Concurrency:  2,
	})

	results := map[string]ExecResult{}
	for ev := range batch.Progress() {
		results[ev.Repo.Name] = ev.Result
		switch ev.Repo.Name {
		case "mahi":
			var exitErr *shell.ExitError
			if !errors.As(ev.Err, &exitErr) {
				t.Errorf("mahi: expected *shell.ExitError, got %v", ev.Err)
			}
		default:
			if ev.Err != nil {
				t.Errorf("%s: unexpected error %v", ev.Repo.Name, ev.Err)
			}
		}
	}

	if r := results["sdc-imgapi"]; r.Stdout != "sdc-imgapi\n" || r.Dir != "/base/sdc-imgapi" || r.Skipped {
		t.Errorf("unexpected sdc-imgapi result: %+v", r)
	}
	if r := results["mahi"]; r.Status != 2 || r.Stderr != "boom\n" {
		t.Errorf("failed command should keep its output: %+v", r)
	}
	if !results["node-bunyan"].Skipped {
		t.Error("node-bunyan should be skipped")
	}
	if got := sh.ran["node-bunyan"]; len(got) != 1 {
		t.Errorf("skipped repo ran %v", got)
	}

	summary := batch.Wait()
	if summary.Total != 3 || summary.Failed != 1 {
		t.Errorf("unexpected summary: %+v", summary)
	}
}

// killedShell behaves like a command killed when ctx is done
type killedShell struct{}

func (killedShell) Run(ctx context.Context, command, dir string) (shell.Result, error) {
	<-ctx.Done()
	return shell.Result{Status: -1, Signal: "killed"}, &shell.ExitError{Command: command, Dir: dir, Status: -1, Signal: "killed"}
}

func TestExecInClonesCancelledPreconditionFails(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batch := ExecInClones(ctx, killedShell{}, testRepos("mahi", "sdc-imgapi"), "/base", ExecOptions{
		Command:      "make check",
		Precondition: "test -f Makefile",
	})
	for ev := range batch.Progress() {
		if ev.Result.Skipped {
			t.Errorf("%s: cancelled precondition should not skip", ev.Repo.Name)
		}
		if !errors.Is(ev.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", ev.Repo.Name, ev.Err)
		}
	}
	if summary := batch.Wait(); summary.Failed != 2 || summary.Err() == nil {
		t.Errorf("cancelled batch should fail every repo: %+v", summary)
	}
}

func TestExistingClones(t *testing.T) {
	base := t.TempDir()
	for _, d := range []string{"mahi", "sdc-imgapi"} {
		if err := os.Mkdir(filepath.Join(base, d), 0755); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ExistingClones(testRepos("mahi", "node-bunyan", "sdc-imgapi"), base)
	if err != nil {
		t.Fatal(err)
	}
	if repoNames(got) != "mahi,sdc-imgapi" {
		t.Errorf("ExistingClones() = %s", repoNames(got))
	}
}

func TestPullCommand(t *testing.T) {
	tests := []struct {
		submodules bool
		want       string
	}{
		{
			submodules: false,
			want:       "git fetch --tags --force --prune && git rebase --quiet",
		},
		{
			submodules: true,
			want: "git fetch --tags --force --prune && git rebase --quiet" +
				" && git submodule --quiet sync --recursive" +
				" && git submodule --quiet update --init --recursive",
		},
	}
	for _, tt := range tests {
		if got := PullCommand(tt.submodules); got != tt.want {
			t.Errorf("PullCommand(%v) = %q, want %q", tt.submodules, got, tt.want)
		}
	}
	// the shared command list is not modified
	if PullCommand(false) != tests[0].want {
		t.Error("PullCommand(true) changed the base commands")
	}
}

type mkdirCloner struct{}

func (mkdirCloner) Clone(ctx context.Context, url, dir string) error {
	if strings.Contains(url, "broken") {
		return errors.New("repository not found")
	}
	return os.MkdirAll(dir, 0755)
}

func (mkdirCloner) OriginURL(ctx context.Context, dir string) (string, error) {
	return manifest.Hosting{}.SSHCloneURL(filepath.Base(dir)), nil
}

func TestCloneRepos(t *testing.T) {
	base := t.TempDir()
	if err := os.Mkdir(filepath.Join(base, "mahi"), 0755); err != nil {
		t.Fatal(err)
	}

	h := manifest.Hosting{}
	var repos []*manifest.Repository
	for _, n := range []string{"mahi", "sdc-imgapi", "broken"} {
		repos = append(repos, &manifest.Repository{Name: n, SSHCloneURL: h.SSHCloneURL(n), HTTPSCloneURL: h.HTTPSCloneURL(n)})
	}

	batch := CloneRepos(context.Background(), gitops.Checker{Cloner: mkdirCloner{}}, repos, base, 0)
	got := map[string]CloneResult{}
	for ev := range batch.Progress() {
		if ev.Err == nil {
			got[ev.Repo.Name] = ev.Result
		}
	}

	if !got["mahi"].AlreadyCloned {
		t.Error("mahi should already be cloned")
	}
	if r, ok := got["sdc-imgapi"]; !ok || r.AlreadyCloned || r.Dir != filepath.Join(base, "sdc-imgapi") {
		t.Errorf("unexpected sdc-imgapi result: %+v", r)
	}

	summary := batch.Wait()
	var cloneErr *gitops.CloneError
	if summary.Failed != 1 || !errors.As(summary.Err(), &cloneErr) {
		t.Errorf("expected one clone failure, got %+v / %v", summary, summary.Err())
	}
}
