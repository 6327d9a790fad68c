package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/revlog/internal"
)

// Client provides programmatic access to the history resolver.
type Client struct {
	resolver *internal.Resolver
	content  *internal.ContentService
	diff     *internal.DiffService
}

// New creates a new Client with the given options. Without options the user
// config file is honored and tool binaries are looked up by their default
// names on PATH.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	path := cfg.configFile
	if path == "" {
		var err error
		path, err = internal.ConfigPath()
		if err != nil {
			return nil, err
		}
	}
	conf, err := internal.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if cfg.gitBin != "" {
		conf.Tools.Git = cfg.gitBin
	}
	if cfg.p4Bin != "" {
		conf.Tools.P4 = cfg.p4Bin
	}
	if cfg.svnBin != "" {
		conf.Tools.Svn = cfg.svnBin
	}
	if cfg.logger != nil {
		internal.SetLogger(cfg.logger)
	}

	var runner internal.Runner = internal.NewExecRunner()
	if cfg.runner != nil {
		runner = runnerAdapter{cfg.runner}
	}

	resolver := internal.NewResolver(conf, runner)

	return &Client{
		resolver: resolver,
		content:  internal.NewContentService(resolver),
		diff:     internal.NewDiffService(resolver),
	}, nil
}

// History resolves the change history for the file at path.
func (c *Client) History(ctx context.Context, path string) (*History, error) {
	result, err := c.resolver.Resolve(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}
	return toHistory(result), nil
}

// GitContent returns file content at a git revision. path is relative to
// repoRoot.
func (c *Client) GitContent(ctx context.Context, repoRoot, revision, path string) (string, error) {
	return c.resolver.GitContent(ctx, repoRoot, revision, path)
}

// PerforceContent returns file content pinned at a Perforce changelist.
func (c *Client) PerforceContent(ctx context.Context, path, revision, workingPath string) (string, error) {
	return c.resolver.PerforceContent(ctx, path, revision, workingPath)
}

// SubversionContent returns file content at a Subversion revision.
func (c *Client) SubversionContent(ctx context.Context, revision, workingPath string) (string, error) {
	return c.resolver.SubversionContent(ctx, revision, workingPath)
}

// Diff returns a patch between two revisions of the file at path.
func (c *Client) Diff(ctx context.Context, path, from, to string) (string, error) {
	out, err := c.diff.Execute(ctx, internal.DiffInput{Path: path, From: from, To: to})
	if err != nil {
		return "", err
	}
	return out.Patch, nil
}

// runnerAdapter bridges the public Runner to the internal execution contract.
type runnerAdapter struct {
	r Runner
}

func (a runnerAdapter) Run(ctx context.Context, tool string, args []string, opts internal.RunOptions) (string, error) {
	return a.r.Run(ctx, tool, args, RunOptions{Dir: opts.Dir, Env: opts.Env})
}

func toHistory(result *internal.HistoryResult) *History {
	entries := make([]Entry, 0, len(result.Entries))
	for _, e := range result.Entries {
		entries = append(entries, Entry{
			Provider:   Provider(e.Provider),
			RevisionID: e.RevisionID,
			Timestamp:  e.Timestamp,
			Author:     e.Author,
			Summary:    e.Summary,
			Path:       e.Path,
			Deleted:    e.Deleted,
		})
	}
	return &History{
		Provider:     Provider(result.Provider),
		RepoRoot:     result.RepoRoot,
		RelativePath: result.RelativePath,
		Entries:      entries,
	}
}
