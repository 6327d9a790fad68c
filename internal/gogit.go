package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitLibBackend is an in-process fallback for the git backend, used when the
// git binary is not installed. It resolves history through go-git. Unlike the
// exec backend it does not follow renames: entries are reported under the
// file's current name only.
type GitLibBackend struct{}

func NewGitLibBackend() *GitLibBackend {
	return &GitLibBackend{}
}

func (b *GitLibBackend) Provider() Provider {
	return ProviderGit
}

func (b *GitLibBackend) History(ctx context.Context, path string) (*HistoryResult, error) {
	dir, err := checkInputFile(path)
	if err != nil {
		return nil, err
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, NoHistory(ProviderGit, fmt.Errorf("not a git repository: %s", dir))
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	root := worktree.Filesystem.Root()

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return nil, NoHistory(ProviderGit, fmt.Errorf("%w: %s not under %s", ErrOutsideRepo, abs, root))
	}
	rel = filepath.ToSlash(rel)

	iter, err := repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			// Repository with no commits yet.
			return &HistoryResult{
				Provider:     ProviderGit,
				RepoRoot:     root,
				RelativePath: rel,
				Entries:      []HistoryEntry{},
			}, nil
		}
		return nil, fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	entries := []HistoryEntry{}
	err = iter.ForEach(func(c *object.Commit) error {
		entry := HistoryEntry{
			Provider:   ProviderGit,
			RevisionID: c.Hash.String(),
			Timestamp:  c.Author.When.Unix(),
			Author:     c.Author.Name,
			Summary:    firstLine(c.Message),
			Path:       rel,
		}
		if _, treeErr := c.File(rel); treeErr != nil {
			// Touched by this commit but absent from its tree: deleted here.
			entry.Deleted = true
		}
		entries = append(entries, entry)
		return nil
	})
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("iterate log: %w", err)
	}

	return &HistoryResult{
		Provider:     ProviderGit,
		RepoRoot:     root,
		RelativePath: rel,
		Entries:      entries,
	}, nil
}

// Content returns the file content at revision via go-git.
func (b *GitLibBackend) Content(ctx context.Context, repoRoot, revision, path string) (string, error) {
	repo, err := git.PlainOpen(repoRoot)
	if err != nil {
		return "", fmt.Errorf("open repository: %w", err)
	}

	hash, err := repo.ResolveRevision(plumbing.Revision(revision))
	if err != nil {
		return "", fmt.Errorf("resolve revision %s: %w", revision, err)
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return "", fmt.Errorf("get commit: %w", err)
	}

	file, err := commit.File(slashPath(path))
	if err != nil {
		return "", fmt.Errorf("file %s at %s: %w", path, revision, err)
	}

	return file.Contents()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
