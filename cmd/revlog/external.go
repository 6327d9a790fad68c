package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

const externalPrefix = "revlog-"

func findExternal(name string) (string, error) {
	binary := externalPrefix + name
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", fmt.Errorf("unknown command %q: %s not found in PATH", name, binary)
	}
	return path, nil
}

// listExternalCommands scans every PATH directory for revlog-* executables
// and returns their subcommand names, deduplicated and sorted.
func listExternalCommands() []string {
	seen := make(map[string]bool)

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if name, ok := externalName(dir, entry); ok {
				seen[name] = true
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// externalName reports the subcommand name behind a PATH directory entry, if
// it is an executable regular file carrying the revlog- prefix.
func externalName(dir string, entry os.DirEntry) (string, bool) {
	name := entry.Name()
	if entry.IsDir() || !strings.HasPrefix(name, externalPrefix) {
		return "", false
	}

	info, err := os.Stat(filepath.Join(dir, name))
	if err != nil || info.Mode()&0111 == 0 {
		return "", false
	}
	return strings.TrimPrefix(name, externalPrefix), true
}

func executeExternal(ctx context.Context, name string, args []string, version string) error {
	binary, err := findExternal(name)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Env = externalEnv(version)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// externalEnv extends the parent environment with the REVLOG_* variables
// child commands use to call back into revlog and locate the invocation.
func externalEnv(version string) []string {
	bin, _ := os.Executable()
	cwd, _ := os.Getwd()

	return append(os.Environ(),
		"REVLOG_VERSION="+version,
		"REVLOG_BIN="+bin,
		"REVLOG_ROOT="+cwd,
	)
}
