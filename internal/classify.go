package internal

import (
	"errors"
	"strings"
)

// Built-in "no usable history here" signals per tool. Matched
// case-insensitively as substrings of the tool's error text. These are
// tool-version-dependent allow-lists; ClassifiersConfig can extend them.
var (
	gitNoHistorySignals = []string{
		"not a git repository",
		"not in a git directory",
	}
	perforceNoHistorySignals = []string{
		"is not under client's root",
		"not in client view",
		"no such file",
		"file(s) not in client view",
		"unknown - use 'client' command",
		"client unknown",
	}
	subversionNoHistorySignals = []string{
		"is not a working copy",
		"not under version control",
		"node was not found",
		"e155007",
		"e155010",
		"e200009",
		"w155010",
	}
)

// classifier decides whether a backend error means "no usable history here"
// so the resolver can fall through to the next backend.
type classifier struct {
	signals map[Provider][]string
}

func newClassifier(cfg ClassifiersConfig) *classifier {
	return &classifier{
		signals: map[Provider][]string{
			ProviderGit:        append(append([]string{}, gitNoHistorySignals...), cfg.Git...),
			ProviderPerforce:   append(append([]string{}, perforceNoHistorySignals...), cfg.Perforce...),
			ProviderSubversion: append(append([]string{}, subversionNoHistorySignals...), cfg.Subversion...),
		},
	}
}

// classify wraps err with NoHistory when it matches a known soft signal for
// provider. Tool-missing errors are always soft. Error text that matches
// nothing is left as a hard error and flagged for visibility, rather than
// silently absorbed, so genuine failures do not masquerade as empty history.
func (c *classifier) classify(provider Provider, err error) error {
	if err == nil {
		return nil
	}
	if IsNoHistory(err) {
		return err
	}
	if errors.Is(err, ErrToolMissing) {
		return NoHistory(provider, err)
	}

	text := strings.ToLower(err.Error())
	for _, signal := range c.signals[provider] {
		if strings.Contains(text, strings.ToLower(signal)) {
			return NoHistory(provider, err)
		}
	}

	logWarn("backend error did not match any known no-history signal",
		"provider", provider.String(),
		"error", err.Error())
	return err
}
