package internal

import (
	"errors"
	"fmt"
)

var (
	ErrNotAFile        = errors.New("path is not a regular file")
	ErrNoParentDir     = errors.New("path has no parent directory")
	ErrInvalidRevision = errors.New("invalid revision identifier")
	ErrOutsideRepo     = errors.New("path lies outside the repository")
)

// Provider identifies which version control system produced a result.
type Provider string

const (
	ProviderGit        Provider = "git"
	ProviderPerforce   Provider = "perforce"
	ProviderSubversion Provider = "subversion"
	ProviderNone       Provider = "none"
)

func (p Provider) String() string {
	return string(p)
}

// HistoryEntry is one revision of a file, normalized across providers.
// RevisionID is opaque and provider-defined: a commit hash for git, a
// changelist number for Perforce, a revision number for Subversion. Path is
// the path as it existed at that revision, which may differ from the queried
// path when the file was renamed.
type HistoryEntry struct {
	Provider   Provider `json:"provider"`
	RevisionID string   `json:"revision_id"`
	Timestamp  int64    `json:"timestamp"`
	Author     string   `json:"author,omitempty"`
	Summary    string   `json:"summary,omitempty"`
	Path       string   `json:"path"`
	Deleted    bool     `json:"deleted,omitempty"`
}

// HistoryResult is the outcome of one resolver invocation. Entries are
// ordered newest first, as emitted by the underlying tool. An empty Entries
// slice is valid and means the path is tracked but has no history, or is not
// tracked anywhere (Provider is ProviderNone in the latter case).
type HistoryResult struct {
	Provider     Provider       `json:"provider"`
	RepoRoot     string         `json:"repo_root,omitempty"`
	RelativePath string         `json:"relative_path"`
	Entries      []HistoryEntry `json:"entries"`
}

// noHistoryError marks a backend failure that means "this backend has no
// usable history for the path" rather than a genuine operational error. The
// resolver falls through to the next backend on these.
type noHistoryError struct {
	provider Provider
	err      error
}

func (e *noHistoryError) Error() string {
	return fmt.Sprintf("%s: %v", e.provider, e.err)
}

func (e *noHistoryError) Unwrap() error {
	return e.err
}

// NoHistory wraps err as a soft, fallback-eligible failure for provider.
func NoHistory(provider Provider, err error) error {
	return &noHistoryError{provider: provider, err: err}
}

// IsNoHistory reports whether err was classified as "no usable history here".
func IsNoHistory(err error) bool {
	var nh *noHistoryError
	return errors.As(err, &nh)
}

// IsInputError reports whether err is a hard input error that invalidates the
// queried path for every backend, so no fallback should be attempted.
func IsInputError(err error) bool {
	return errors.Is(err, ErrNotAFile) || errors.Is(err, ErrNoParentDir)
}
