package v1

import (
	"context"
	"log/slog"
)

// Runner executes an external version control tool and returns its stdout.
// Supplying one replaces subprocess execution entirely, which is how tests
// script tool behavior without the binaries installed.
type Runner interface {
	Run(ctx context.Context, tool string, args []string, opts RunOptions) (string, error)
}

// RunOptions carries per-invocation settings for a Runner: the working
// directory and extra environment entries for this single call.
type RunOptions struct {
	Dir string
	Env []string
}

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	gitBin     string
	p4Bin      string
	svnBin     string
	configFile string
	runner     Runner
	logger     *slog.Logger
}

// WithGitBinary overrides the git binary name or path.
func WithGitBinary(bin string) Option {
	return func(c *clientConfig) {
		c.gitBin = bin
	}
}

// WithP4Binary overrides the p4 binary name or path.
func WithP4Binary(bin string) Option {
	return func(c *clientConfig) {
		c.p4Bin = bin
	}
}

// WithSvnBinary overrides the svn binary name or path.
func WithSvnBinary(bin string) Option {
	return func(c *clientConfig) {
		c.svnBin = bin
	}
}

// WithConfigFile loads tool names and classifier extensions from the given
// config file instead of the default user-level location.
func WithConfigFile(path string) Option {
	return func(c *clientConfig) {
		c.configFile = path
	}
}

// WithRunner substitutes r for subprocess execution of the backend tools.
func WithRunner(r Runner) Option {
	return func(c *clientConfig) {
		c.runner = r
	}
}

// WithLogger directs the resolver's diagnostic warnings (parse anomalies,
// unclassified backend errors) to l instead of the process-default slog
// logger. The redirection is process-wide, not per client.
func WithLogger(l *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = l
	}
}
