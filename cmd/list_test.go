package cmd

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stuttgart-things/repofleet/internal/labels"
	"github.com/stuttgart-things/repofleet/internal/manifest"
)

func testRepos() []*manifest.Repository {
	h := manifest.Hosting{}
	mk := func(name string, ls labels.Set, manifests ...string) *manifest.Repository {
		return &manifest.Repository{
			Name:          name,
			Labels:        ls,
			Manifests:     manifests,
			HTMLURL:       h.HTMLURL(name),
			SSHCloneURL:   h.SSHCloneURL(name),
			HTTPSCloneURL: h.HTTPSCloneURL(name),
		}
	}
	return []*manifest.Repository{
		mk("sdc-imgapi", labels.Set{"triton": labels.Bool(true), "tritonservice": labels.String("imgapi")}, "triton"),
		mk("mahi", labels.Set{"triton": labels.Bool(true), "check": labels.Number(7)}, "triton", "public"),
	}
}

func TestPrintReposTable(t *testing.T) {
	var buf bytes.Buffer
	if err := printReposTable(&buf, testRepos(), []string{"name", "labels.tritonservice", "manifests"}, true); err != nil {
		t.Fatal(err)
	}
	output := buf.String()

	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got:\n%s", output)
	}
	for _, h := range []string{"NAME", "LABELS.TRITONSERVICE", "MANIFESTS"} {
		if !strings.Contains(lines[0], h) {
			t.Errorf("header should contain %q: %q", h, lines[0])
		}
	}
	if !strings.Contains(lines[1], "imgapi") || !strings.Contains(lines[2], "triton,public") {
		t.Errorf("unexpected rows:\n%s", output)
	}
	// missing label
	if fields := strings.Fields(lines[2]); fields[1] != "-" {
		t.Errorf("missing label should render as '-', got %q", fields[1])
	}
}

func TestPrintReposTableNoHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := printReposTable(&buf, testRepos(), []string{"name"}, false); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "sdc-imgapi\nmahi\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrintReposJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printReposJSON(&buf, testRepos()); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected one JSON object per repo, got %d lines", len(lines))
	}

	var parsed map[string]any
	if err := json.Unmarshal([]byte(lines[1]), &parsed); err != nil {
		t.Fatalf("line is not valid JSON: %v", err)
	}
	if parsed["name"] != "mahi" || parsed["sshCloneUrl"] != "git@github.com:joyent/mahi.git" {
		t.Errorf("unexpected record: %v", parsed)
	}
	ls, ok := parsed["labels"].(map[string]any)
	if !ok || ls["check"] != float64(7) || ls["triton"] != true {
		t.Errorf("labels should keep their types: %v", parsed["labels"])
	}
}

func TestSortRepos(t *testing.T) {
	tests := []struct {
		keys []string
		want string
	}{
		{keys: []string{"name"}, want: "mahi,sdc-imgapi"},
		{keys: []string{"-name"}, want: "sdc-imgapi,mahi"},
		{keys: []string{"labels.triton"}, want: "mahi,sdc-imgapi"},
		{keys: []string{"-labels.tritonservice"}, want: "sdc-imgapi,mahi"},
	}
	for _, tt := range tests {
		repos := testRepos()
		sortRepos(repos, tt.keys)
		got := repos[0].Name + "," + repos[1].Name
		if got != tt.want {
			t.Errorf("sortRepos(%v) = %s, want %s", tt.keys, got, tt.want)
		}
	}
}

func TestValidColumn(t *testing.T) {
	for _, c := range []string{"name", "labels", "tags", "htmlUrl", "labels.release"} {
		if !validColumn(c) {
			t.Errorf("%q should be valid", c)
		}
	}
	for _, c := range []string{"", "state", "labels.", "Name"} {
		if validColumn(c) {
			t.Errorf("%q should be invalid", c)
		}
	}
}
