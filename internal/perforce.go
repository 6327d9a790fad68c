package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// p4ConfigNames are the config file names recognized during the upward
// search, mirroring what p4 itself accepts for P4CONFIG.
var p4ConfigNames = []string{".p4config", "p4config.txt", ".p4config.txt"}

// PerforceBackend resolves file history through the p4 binary using tagged
// (ztag) filelog output.
type PerforceBackend struct {
	bin    string
	runner Runner
}

func NewPerforceBackend(bin string, runner Runner) *PerforceBackend {
	if bin == "" {
		bin = "p4"
	}
	return &PerforceBackend{bin: bin, runner: runner}
}

func (b *PerforceBackend) Provider() Provider {
	return ProviderPerforce
}

// History returns the changelist log for path. When P4CONFIG is not already
// set, a config file discovered by walking upward from the file's directory
// is injected into the subprocess environment for this call only.
func (b *PerforceBackend) History(ctx context.Context, path string) (*HistoryResult, error) {
	dir, err := checkInputFile(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	out, err := b.runner.Run(ctx, b.bin,
		[]string{"-ztag", "filelog", "-l", "-t", abs},
		RunOptions{Dir: dir, Env: p4ConfigEnv(dir)})
	if err != nil {
		return nil, err
	}

	entries, lastDepotPath := parseZtagFilelog(out, abs)
	if len(entries) == 0 && strings.TrimSpace(out) != "" {
		logParseAnomaly(ProviderPerforce, out)
	}

	rel := lastDepotPath
	if rel == "" {
		rel = abs
	}

	return &HistoryResult{
		Provider:     ProviderPerforce,
		RelativePath: rel,
		Entries:      entries,
	}, nil
}

// Content prints the file content pinned at the given changelist. path is the
// depot or client path taken from a history entry; workingPath locates the
// client workspace for config discovery.
func (b *PerforceBackend) Content(ctx context.Context, path, revision, workingPath string) (string, error) {
	if !isDecimal(revision) {
		return "", fmt.Errorf("%w: %q is not a changelist number", ErrInvalidRevision, revision)
	}

	dir := filepath.Dir(workingPath)
	out, err := b.runner.Run(ctx, b.bin,
		[]string{"print", "-q", path + "@" + revision},
		RunOptions{Dir: dir, Env: p4ConfigEnv(dir)})
	if err != nil {
		return "", fmt.Errorf("print %s@%s: %w", path, revision, err)
	}
	return out, nil
}

// p4ConfigEnv returns the environment override for one subprocess launch.
// A global P4CONFIG always wins; otherwise the directories from dir upward
// are searched for a recognized config file name, first match wins.
func p4ConfigEnv(dir string) []string {
	if os.Getenv("P4CONFIG") != "" {
		return nil
	}

	for {
		for _, name := range p4ConfigNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
				return []string{"P4CONFIG=" + name}
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
}

// parseZtagFilelog walks tagged filelog output. Each line is
// "... key value"; keys may carry a numeric or comma-joined index suffix
// (desc0, file0,1) that maps to the same logical field. A depotFile key
// updates the current depot path, which persists across entries. A change key
// flushes the pending entry and starts a new one stamped with the current
// depot path, or the queried path if none was seen yet. Returns the parsed
// entries and the last depot path seen.
func parseZtagFilelog(out, queriedPath string) ([]HistoryEntry, string) {
	entries := []HistoryEntry{}
	depotPath := ""

	var pending *HistoryEntry

	flush := func() {
		if pending != nil {
			entries = append(entries, *pending)
		}
		pending = nil
	}

	for _, line := range strings.Split(out, "\n") {
		key, value, ok := parseZtagLine(line)
		if !ok {
			continue
		}

		switch key {
		case "depotFile", "file":
			if value != "" {
				depotPath = value
			}
		case "change":
			flush()
			path := depotPath
			if path == "" {
				path = queriedPath
			}
			pending = &HistoryEntry{
				Provider:   ProviderPerforce,
				RevisionID: value,
				Path:       path,
			}
		case "time":
			if pending == nil {
				continue
			}
			if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
				pending.Timestamp = ts
			}
		case "user":
			if pending != nil {
				pending.Author = value
			}
		case "desc":
			if pending != nil && pending.Summary == "" && strings.TrimSpace(value) != "" {
				pending.Summary = strings.TrimSpace(value)
			}
		case "action":
			if pending != nil && strings.Contains(value, "delete") {
				pending.Deleted = true
			}
		}
	}
	flush()

	return entries, depotPath
}

// parseZtagLine splits "... key value" and strips any index suffix from the
// key. Lines without the tag marker are ignored (long-form descriptions
// continue on untagged lines).
func parseZtagLine(line string) (key, value string, ok bool) {
	rest, found := strings.CutPrefix(line, "... ")
	if !found {
		return "", "", false
	}

	key, value, _ = strings.Cut(rest, " ")
	key = strings.TrimRight(key, "0123456789,")
	if key == "" {
		return "", "", false
	}
	return key, strings.TrimRight(value, "\r"), true
}

func isDecimal(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
