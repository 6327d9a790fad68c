package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Resolver orchestrates the backends in priority order: git, then Perforce,
// then Subversion. Probing is strictly sequential; most files are tracked by
// at most one system, and a hard input error must short-circuit everything.
type Resolver struct {
	git        *GitBackend
	gitLib     *GitLibBackend
	perforce   *PerforceBackend
	subversion *SubversionBackend
	classify   *classifier
}

func NewResolver(cfg *Config, runner Runner) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Resolver{
		git:        NewGitBackend(cfg.Tools.Git, runner),
		gitLib:     NewGitLibBackend(),
		perforce:   NewPerforceBackend(cfg.Tools.P4, runner),
		subversion: NewSubversionBackend(cfg.Tools.Svn, runner),
		classify:   newClassifier(cfg.Classifiers),
	}
}

// Resolve determines which system tracks path and returns its normalized
// history. A path tracked by no recognized system yields a successful empty
// result with ProviderNone. When every backend fails for reasons other than
// "no history here", the combined error names each backend and its failure.
func (r *Resolver) Resolve(ctx context.Context, path string) (*HistoryResult, error) {
	result, gitErr := r.gitHistory(ctx, path)
	if gitErr == nil {
		return result, nil
	}
	if IsInputError(gitErr) {
		return nil, gitErr
	}
	gitErr = r.classify.classify(ProviderGit, gitErr)

	result, p4Err := r.perforce.History(ctx, path)
	if p4Err == nil {
		return result, nil
	}
	p4Err = r.classify.classify(ProviderPerforce, p4Err)

	result, svnErr := r.subversion.History(ctx, path)
	if svnErr == nil {
		return result, nil
	}
	svnErr = r.classify.classify(ProviderSubversion, svnErr)

	if IsNoHistory(gitErr) && IsNoHistory(p4Err) && IsNoHistory(svnErr) {
		return &HistoryResult{
			Provider:     ProviderNone,
			RelativePath: filepath.Base(path),
			Entries:      []HistoryEntry{},
		}, nil
	}

	return nil, fmt.Errorf("no backend could resolve history: %s", strings.Join([]string{
		"git: " + backendErrText(gitErr),
		"perforce: " + backendErrText(p4Err),
		"subversion: " + backendErrText(svnErr),
	}, "; "))
}

// gitHistory prefers the git binary and falls back to the in-process go-git
// backend when the binary is missing entirely.
func (r *Resolver) gitHistory(ctx context.Context, path string) (*HistoryResult, error) {
	result, err := r.git.History(ctx, path)
	if err != nil && errors.Is(err, ErrToolMissing) {
		return r.gitLib.History(ctx, path)
	}
	return result, err
}

// GitContent retrieves file content at a git revision.
func (r *Resolver) GitContent(ctx context.Context, repoRoot, revision, path string) (string, error) {
	out, err := r.git.Content(ctx, repoRoot, revision, path)
	if err != nil && errors.Is(err, ErrToolMissing) {
		return r.gitLib.Content(ctx, repoRoot, revision, path)
	}
	return out, err
}

// PerforceContent retrieves file content at a Perforce changelist.
func (r *Resolver) PerforceContent(ctx context.Context, path, revision, workingPath string) (string, error) {
	return r.perforce.Content(ctx, path, revision, workingPath)
}

// SubversionContent retrieves file content at a Subversion revision.
func (r *Resolver) SubversionContent(ctx context.Context, revision, workingPath string) (string, error) {
	return r.subversion.Content(ctx, revision, workingPath)
}

func backendErrText(err error) string {
	var nh *noHistoryError
	if errors.As(err, &nh) {
		return nh.err.Error()
	}
	return err.Error()
}
