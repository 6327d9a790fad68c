package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// gitLogFormat emits one tab-delimited header line per commit:
// hash, unix timestamp, author name, subject.
const gitLogFormat = "%H%x09%ct%x09%an%x09%s"

// GitBackend resolves file history through the git binary. Rename following
// relies on `git log --follow --name-status`; the parser walks the output
// newest-first and rewrites the path of interest backward through renames so
// older entries carry the file's historical name.
type GitBackend struct {
	bin    string
	runner Runner
}

func NewGitBackend(bin string, runner Runner) *GitBackend {
	if bin == "" {
		bin = "git"
	}
	return &GitBackend{bin: bin, runner: runner}
}

func (b *GitBackend) Provider() Provider {
	return ProviderGit
}

// History returns the commit log for path, following renames. Soft failures
// (not a repository, untracked file, missing tool) are wrapped with NoHistory
// so the resolver can try the next backend.
func (b *GitBackend) History(ctx context.Context, path string) (*HistoryResult, error) {
	dir, err := checkInputFile(path)
	if err != nil {
		return nil, err
	}

	root, err := b.repoRoot(ctx, dir)
	if err != nil {
		return nil, NoHistory(ProviderGit, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, NoHistory(ProviderGit, fmt.Errorf("%w: %s not under %s", ErrOutsideRepo, abs, root))
	}
	rel = filepath.ToSlash(rel)

	if err := b.checkTracked(ctx, root, rel); err != nil {
		return nil, NoHistory(ProviderGit, err)
	}

	out, err := b.runner.Run(ctx, b.bin,
		[]string{"log", "--follow", "--name-status", "--format=" + gitLogFormat, "--", rel},
		RunOptions{Dir: root})
	if err != nil {
		return nil, err
	}

	entries := parseGitLog(out, rel)
	if len(entries) == 0 && strings.TrimSpace(out) != "" {
		logParseAnomaly(ProviderGit, out)
	}

	return &HistoryResult{
		Provider:     ProviderGit,
		RepoRoot:     root,
		RelativePath: rel,
		Entries:      entries,
	}, nil
}

// Content returns the file content at revision, where path is relative to
// repoRoot. Separators are normalized so Windows-style paths work too.
func (b *GitBackend) Content(ctx context.Context, repoRoot, revision, path string) (string, error) {
	info, err := os.Stat(repoRoot)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("repository root %q is not a directory", repoRoot)
	}

	spec := revision + ":" + slashPath(path)
	out, err := b.runner.Run(ctx, b.bin, []string{"show", spec}, RunOptions{Dir: repoRoot})
	if err != nil {
		return "", fmt.Errorf("show %s: %w", spec, err)
	}
	return out, nil
}

func (b *GitBackend) repoRoot(ctx context.Context, dir string) (string, error) {
	out, err := b.runner.Run(ctx, b.bin, []string{"rev-parse", "--show-toplevel"}, RunOptions{Dir: dir})
	if err != nil {
		return "", err
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", fmt.Errorf("could not resolve repository root for %s", dir)
	}
	return root, nil
}

func (b *GitBackend) checkTracked(ctx context.Context, root, rel string) error {
	_, err := b.runner.Run(ctx, b.bin, []string{"ls-files", "--error-unmatch", "--", rel}, RunOptions{Dir: root})
	if err != nil {
		return fmt.Errorf("%s is not tracked: %w", rel, err)
	}
	return nil
}

// parseGitLog walks the combined header/name-status output of one log query.
// Header lines are hash\ttimestamp\tauthor\tsummary, recognized only when the
// hash field is non-empty hexadecimal. Status lines belong to the preceding
// header. The walk keeps a current path of interest, starting at rel: a
// rename whose new side matches it rewrites it to the old side, so commits
// before the rename are matched (and stamped) under their historical name.
// Commits whose status lines never touch the path of interest are dropped.
func parseGitLog(out, rel string) []HistoryEntry {
	entries := []HistoryEntry{}
	current := rel

	var pending *HistoryEntry
	touched := false

	flush := func() {
		if pending != nil && touched {
			entries = append(entries, *pending)
		}
		pending = nil
		touched = false
	}

	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}

		if entry, ok := parseGitHeader(line); ok {
			flush()
			entry.Path = current
			pending = entry
			continue
		}
		if pending == nil {
			continue
		}

		fields := strings.Split(line, "\t")
		status := fields[0]
		if status == "" {
			continue
		}

		switch status[0] {
		case 'R', 'C':
			if len(fields) < 3 {
				continue
			}
			oldPath, newPath := fields[1], fields[2]
			if oldPath == current || newPath == current {
				touched = true
			}
			if status[0] == 'R' && newPath == current {
				current = oldPath
			}
		default:
			if len(fields) < 2 {
				continue
			}
			if fields[1] != current {
				continue
			}
			touched = true
			if status[0] == 'D' {
				pending.Deleted = true
			}
		}
	}
	flush()

	return entries
}

func parseGitHeader(line string) (*HistoryEntry, bool) {
	fields := strings.SplitN(line, "\t", 4)
	if len(fields) < 4 {
		return nil, false
	}
	hash := fields[0]
	if hash == "" || !isHex(hash) {
		return nil, false
	}

	ts, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		ts = 0
	}

	return &HistoryEntry{
		Provider:   ProviderGit,
		RevisionID: hash,
		Timestamp:  ts,
		Author:     fields[2],
		Summary:    fields[3],
	}, true
}

// slashPath normalizes separators to forward slashes regardless of host OS,
// since git object paths always use them.
func slashPath(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// checkInputFile validates the queried path: it must be an existing regular
// file with an existing parent directory. These are hard input errors; no
// backend can do anything with such a path.
func checkInputFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s", ErrNotAFile, path)
	}

	dir := filepath.Dir(path)
	if dirInfo, err := os.Stat(dir); err != nil || !dirInfo.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNoParentDir, path)
	}
	return dir, nil
}
