package internal

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ztagSample = `... depotFile //depot/project/main.c
... rev0 3
... change0 1052
... action0 edit
... type0 text
... time0 1700000300
... user0 alice
... client0 alice-ws
... desc0 fix null deref in parser
... rev1 2
... change1 1040
... action1 edit
... time1 1700000200
... user1 bob
... desc1 refactor
... rev2 1
... change2 1001
... action2 add
... time2 1700000100
... user2 alice
... desc2 initial add
`

func TestParseZtagFilelog(t *testing.T) {
	entries, depot := parseZtagFilelog(ztagSample, "/work/main.c")

	if depot != "//depot/project/main.c" {
		t.Errorf("depot path = %q", depot)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.RevisionID != "1052" {
		t.Errorf("revision = %q, want 1052", first.RevisionID)
	}
	if first.Timestamp != 1700000300 {
		t.Errorf("timestamp = %d", first.Timestamp)
	}
	if first.Author != "alice" {
		t.Errorf("author = %q", first.Author)
	}
	if first.Summary != "fix null deref in parser" {
		t.Errorf("summary = %q", first.Summary)
	}
	for _, e := range entries {
		if e.Path != "//depot/project/main.c" {
			t.Errorf("entry path = %q", e.Path)
		}
		if e.Provider != ProviderPerforce {
			t.Errorf("provider = %q", e.Provider)
		}
	}
}

func TestParseZtagDeleteAction(t *testing.T) {
	out := strings.Join([]string{
		"... depotFile //depot/x.txt",
		"... change0 200",
		"... action0 move/delete",
		"... change1 100",
		"... action1 add",
	}, "\n")

	entries, _ := parseZtagFilelog(out, "/work/x.txt")
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if !entries[0].Deleted {
		t.Error("delete action should mark entry deleted")
	}
	if entries[1].Deleted {
		t.Error("add action should not mark entry deleted")
	}
}

func TestParseZtagFirstDescriptionWins(t *testing.T) {
	out := strings.Join([]string{
		"... change0 100",
		"... desc0 first message",
		"... desc0 later duplicate",
	}, "\n")

	entries, _ := parseZtagFilelog(out, "/work/x.txt")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Summary != "first message" {
		t.Errorf("summary = %q, want first message", entries[0].Summary)
	}
}

func TestParseZtagNoDepotPathFallsBackToQueried(t *testing.T) {
	out := "... change0 42\n... user0 alice\n"

	entries, depot := parseZtagFilelog(out, "/work/y.txt")
	if depot != "" {
		t.Errorf("depot = %q, want empty", depot)
	}
	if len(entries) != 1 || entries[0].Path != "/work/y.txt" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestParseZtagTruncatedRecord(t *testing.T) {
	// Truncated mid-record output degrades to a partial set, never panics.
	out := "... depotFile //depot/z.txt\n... change0 9\n... us"

	entries, _ := parseZtagFilelog(out, "/work/z.txt")
	if len(entries) != 1 {
		t.Fatalf("expected 1 partial entry, got %d", len(entries))
	}
	if entries[0].RevisionID != "9" {
		t.Errorf("revision = %q", entries[0].RevisionID)
	}
}

func TestParseZtagGarbage(t *testing.T) {
	entries, _ := parseZtagFilelog("random text\nwithout markers\n", "/work/q.txt")
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestP4ConfigEnvUpwardSearch(t *testing.T) {
	t.Setenv("P4CONFIG", "")

	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, ".p4config"), []byte("P4CLIENT=ws\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	env := p4ConfigEnv(nested)
	if len(env) != 1 || env[0] != "P4CONFIG=.p4config" {
		t.Errorf("env = %v, want [P4CONFIG=.p4config]", env)
	}
}

func TestP4ConfigEnvGlobalWins(t *testing.T) {
	t.Setenv("P4CONFIG", ".customp4")

	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, ".p4config"), []byte(""), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if env := p4ConfigEnv(root); env != nil {
		t.Errorf("env = %v, want nil when P4CONFIG already set", env)
	}
}

func TestP4ConfigEnvNoConfig(t *testing.T) {
	t.Setenv("P4CONFIG", "")

	if env := p4ConfigEnv(t.TempDir()); env != nil {
		t.Errorf("env = %v, want nil", env)
	}
}

func TestPerforceHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "main.c", "int main() {}\n")

	backend := NewPerforceBackend("p4", &fakeRunner{fn: func(tool string, args []string, opts RunOptions) (string, error) {
		if args[0] != "-ztag" || args[1] != "filelog" {
			t.Fatalf("unexpected call: %v", args)
		}
		return ztagSample, nil
	}})

	result, err := backend.History(context.Background(), path)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if result.Provider != ProviderPerforce {
		t.Errorf("provider = %q", result.Provider)
	}
	if result.RelativePath != "//depot/project/main.c" {
		t.Errorf("relative path = %q", result.RelativePath)
	}
	if len(result.Entries) != 3 {
		t.Errorf("expected 3 entries, got %d", len(result.Entries))
	}
}

func TestPerforceContentRejectsNonNumericRevision(t *testing.T) {
	backend := NewPerforceBackend("p4", &fakeRunner{fn: func(string, []string, RunOptions) (string, error) {
		t.Fatal("runner should not be called for invalid revision")
		return "", nil
	}})

	_, err := backend.Content(context.Background(), "//depot/x.txt", "abc123", "/work/x.txt")
	if !errors.Is(err, ErrInvalidRevision) {
		t.Errorf("err = %v, want ErrInvalidRevision", err)
	}
}

func TestPerforceContent(t *testing.T) {
	backend := NewPerforceBackend("p4", &fakeRunner{fn: func(tool string, args []string, opts RunOptions) (string, error) {
		if args[0] != "print" || args[1] != "-q" {
			t.Fatalf("unexpected call: %v", args)
		}
		if args[2] != "//depot/x.txt@1052" {
			t.Errorf("spec = %q", args[2])
		}
		return "old content\n", nil
	}})

	out, err := backend.Content(context.Background(), "//depot/x.txt", "1052", "/work/x.txt")
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if out != "old content\n" {
		t.Errorf("content = %q", out)
	}
}
