package v1

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/4thel00z/revlog/internal"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// newTestClient builds a client that never touches the user's config file and
// whose git binary name cannot exist, so history resolution exercises the
// in-process fallback against fixture repositories.
func newTestClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
		WithGitBinary("revlog-test-no-such-git"),
		WithP4Binary("revlog-test-no-such-p4"),
		WithSvnBinary("revlog-test-no-such-svn"),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

func setupFixtureRepo(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("worktree: %v", err)
	}

	path := filepath.Join(dir, "main.go")
	when := time.Now().Add(-time.Hour)
	var last string
	for i, content := range []string{"package main\n", "package main\n\nfunc main() {}\n"} {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := wt.Add("main.go"); err != nil {
			t.Fatalf("add: %v", err)
		}
		msg := "add main"
		if i > 0 {
			msg = "flesh out main"
		}
		hash, err := wt.Commit(msg, &git.CommitOptions{
			Author: &object.Signature{Name: "tester", Email: "tester@local", When: when.Add(time.Duration(i) * time.Minute)},
		})
		if err != nil {
			t.Fatalf("commit: %v", err)
		}
		last = hash.String()
	}
	return path, last
}

func TestClientHistory(t *testing.T) {
	path, head := setupFixtureRepo(t)
	client := newTestClient(t)

	hist, err := client.History(context.Background(), path)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if hist.Provider != ProviderGit {
		t.Fatalf("provider = %q, want %q", hist.Provider, ProviderGit)
	}
	if len(hist.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(hist.Entries))
	}
	if hist.Entries[0].RevisionID != head {
		t.Errorf("newest entry = %s, want %s", hist.Entries[0].RevisionID, head)
	}
	if hist.RelativePath != "main.go" {
		t.Errorf("relative path = %q, want main.go", hist.RelativePath)
	}
}

func TestClientHistoryUntracked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "loose.txt")
	if err := os.WriteFile(path, []byte("nobody tracks me\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	client := newTestClient(t)

	hist, err := client.History(context.Background(), path)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if hist.Provider != ProviderNone {
		t.Errorf("provider = %q, want %q", hist.Provider, ProviderNone)
	}
	if len(hist.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(hist.Entries))
	}
}

func TestClientGitContent(t *testing.T) {
	path, head := setupFixtureRepo(t)
	client := newTestClient(t)

	content, err := client.GitContent(context.Background(), filepath.Dir(path), head, "main.go")
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if content != "package main\n\nfunc main() {}\n" {
		t.Errorf("unexpected content: %q", content)
	}
}

// scriptedRunner answers backend tool calls from a function, standing in for
// the real subprocess launcher.
type scriptedRunner struct {
	fn func(tool string, args []string, opts RunOptions) (string, error)
}

func (r *scriptedRunner) Run(_ context.Context, tool string, args []string, opts RunOptions) (string, error) {
	return r.fn(tool, args, opts)
}

func TestClientWithRunner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var tools []string
	runner := &scriptedRunner{fn: func(tool string, args []string, opts RunOptions) (string, error) {
		tools = append(tools, tool)
		switch args[0] {
		case "rev-parse":
			return dir + "\n", nil
		case "ls-files":
			return "main.go\n", nil
		case "log":
			return "abcd1234abcd1234abcd1234abcd1234abcd1234\t1700000000\tcarol\tadd main\nA\tmain.go\n", nil
		}
		return "", nil
	}}

	client, err := New(
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
		WithRunner(runner),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	hist, err := client.History(context.Background(), path)
	if err != nil {
		t.Fatalf("history: %v", err)
	}

	if hist.Provider != ProviderGit {
		t.Fatalf("provider = %q, want %q", hist.Provider, ProviderGit)
	}
	if len(hist.Entries) != 1 || hist.Entries[0].Author != "carol" {
		t.Fatalf("unexpected entries: %+v", hist.Entries)
	}
	for _, tool := range tools {
		if tool != "git" {
			t.Errorf("unexpected tool invoked: %q", tool)
		}
	}
	if len(tools) == 0 {
		t.Error("injected runner was never invoked")
	}
}

func TestClientWithLogger(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	if err := os.WriteFile(path, []byte("package main\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// Tool runs fine but its output parses to nothing, which must surface as
	// a warning on the injected logger.
	runner := &scriptedRunner{fn: func(tool string, args []string, opts RunOptions) (string, error) {
		switch args[0] {
		case "rev-parse":
			return dir + "\n", nil
		case "ls-files":
			return "main.go\n", nil
		case "log":
			return "garbage the parser cannot place\n", nil
		}
		return "", nil
	}}

	var buf bytes.Buffer
	client, err := New(
		WithConfigFile(filepath.Join(t.TempDir(), "absent.yaml")),
		WithRunner(runner),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() { internal.SetLogger(nil) })

	hist, err := client.History(context.Background(), path)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist.Entries) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(hist.Entries))
	}

	if !strings.Contains(buf.String(), "no entries parsed") {
		t.Errorf("expected parse warning on injected logger, got: %s", buf.String())
	}
}

func TestClientHistoryMissingFile(t *testing.T) {
	client := newTestClient(t)

	_, err := client.History(context.Background(), filepath.Join(t.TempDir(), "absent.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
