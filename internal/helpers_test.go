package internal

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// fakeRunner scripts tool invocations for backend tests.
type fakeRunner struct {
	fn func(tool string, args []string, opts RunOptions) (string, error)
}

func (f *fakeRunner) Run(_ context.Context, tool string, args []string, opts RunOptions) (string, error) {
	return f.fn(tool, args, opts)
}

// writeTestFile creates a regular file inside dir and returns its path.
func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
