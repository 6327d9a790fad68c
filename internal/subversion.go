package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// SubversionBackend resolves file history through the svn binary's verbose
// XML log. The output is shallow, single-attribute-per-tag XML from one tool,
// so it is parsed with a line-oriented scanner rather than a general XML
// parser; the multi-line <msg> accumulation below is the one stateful part.
type SubversionBackend struct {
	bin    string
	runner Runner
}

func NewSubversionBackend(bin string, runner Runner) *SubversionBackend {
	if bin == "" {
		bin = "svn"
	}
	return &SubversionBackend{bin: bin, runner: runner}
}

func (b *SubversionBackend) Provider() Provider {
	return ProviderSubversion
}

func (b *SubversionBackend) History(ctx context.Context, path string) (*HistoryResult, error) {
	dir, err := checkInputFile(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	// Best effort: a missing working copy root is tolerated, the relative
	// path then falls back to the bare filename.
	root := ""
	if out, rootErr := b.runner.Run(ctx, b.bin,
		[]string{"info", "--show-item", "wc-root", abs},
		RunOptions{Dir: dir}); rootErr == nil {
		root = strings.TrimSpace(out)
	}

	rel := filepath.Base(abs)
	if root != "" {
		if r, relErr := filepath.Rel(root, abs); relErr == nil && !strings.HasPrefix(r, "..") {
			rel = filepath.ToSlash(r)
		}
	}

	out, err := b.runner.Run(ctx, b.bin, []string{"log", "--xml", "-v", abs}, RunOptions{Dir: dir})
	if err != nil {
		return nil, err
	}

	entries := parseSvnLogXML(out, rel)
	if len(entries) == 0 && strings.Contains(out, "<logentry") {
		logParseAnomaly(ProviderSubversion, out)
	}

	return &HistoryResult{
		Provider:     ProviderSubversion,
		RepoRoot:     root,
		RelativePath: rel,
		Entries:      entries,
	}, nil
}

// Content returns the file content at revision via svn cat.
func (b *SubversionBackend) Content(ctx context.Context, revision, workingPath string) (string, error) {
	out, err := b.runner.Run(ctx, b.bin,
		[]string{"cat", "-r", revision, workingPath},
		RunOptions{Dir: filepath.Dir(workingPath)})
	if err != nil {
		return "", fmt.Errorf("cat -r %s: %w", revision, err)
	}
	return out, nil
}

// parseSvnLogXML scans verbose XML log output line by line. Entry boundaries
// are <logentry revision="N"> and </logentry>; entries without a parseable
// revision are dropped. Single-line tags are extracted by substring search.
// <msg> is special-cased: when the closing tag is not on the same line the
// scanner collects raw lines until it is, joining them with newline, since
// commit messages may span multiple lines. A <path ... action="D"> marker
// anywhere inside an entry marks it deleted.
func parseSvnLogXML(out, rel string) []HistoryEntry {
	entries := []HistoryEntry{}

	var pending *HistoryEntry
	var msgLines []string
	collectingMsg := false
	awaitingRevision := false

	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)

		if awaitingRevision {
			// svn wraps the revision attribute onto the line after
			// "<logentry"; pick it up here or drop the entry when the tag
			// closes without one.
			if rev := xmlAttr(trimmed, "revision"); rev != "" {
				pending = &HistoryEntry{
					Provider:   ProviderSubversion,
					RevisionID: rev,
					Path:       rel,
				}
				awaitingRevision = false
			} else if strings.Contains(trimmed, ">") {
				awaitingRevision = false
			}
			continue
		}

		if collectingMsg {
			if idx := strings.Index(line, "</msg>"); idx >= 0 {
				msgLines = append(msgLines, line[:idx])
				if pending != nil {
					pending.Summary = xmlUnescape(strings.Join(msgLines, "\n"))
				}
				msgLines = nil
				collectingMsg = false
			} else {
				msgLines = append(msgLines, line)
			}
			continue
		}

		switch {
		case strings.HasPrefix(trimmed, "<logentry"):
			pending = nil
			rev := xmlAttr(trimmed, "revision")
			if rev == "" {
				if !strings.Contains(trimmed, ">") {
					awaitingRevision = true
				}
				continue
			}
			pending = &HistoryEntry{
				Provider:   ProviderSubversion,
				RevisionID: rev,
				Path:       rel,
			}

		case strings.HasPrefix(trimmed, "</logentry>"):
			if pending != nil {
				entries = append(entries, *pending)
			}
			pending = nil

		case pending == nil:
			// Skip anything outside a well-formed entry.

		case strings.Contains(trimmed, "<author>"):
			pending.Author = xmlUnescape(xmlTagValue(trimmed, "author"))

		case strings.Contains(trimmed, "<date>"):
			pending.Timestamp = parseSvnDate(xmlTagValue(trimmed, "date"))

		case strings.Contains(trimmed, "<msg>"):
			start := strings.Index(line, "<msg>") + len("<msg>")
			if end := strings.Index(line, "</msg>"); end >= start {
				pending.Summary = xmlUnescape(line[start:end])
			} else {
				msgLines = append(msgLines, line[start:])
				collectingMsg = true
			}

		case strings.Contains(trimmed, `action="D"`):
			// Only path tags carry action attributes, and svn may wrap them
			// onto their own line.
			pending.Deleted = true
		}
	}

	return entries
}

// parseSvnDate parses the ISO 8601 timestamps svn emits. Unparsable dates
// normalize to 0 rather than failing the entry.
func parseSvnDate(s string) int64 {
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return t.Unix()
}

// xmlTagValue extracts a single-line <tag>value</tag> body, or "" when the
// tags are absent or malformed.
func xmlTagValue(line, tag string) string {
	openTag, closeTag := "<"+tag+">", "</"+tag+">"
	start := strings.Index(line, openTag)
	if start < 0 {
		return ""
	}
	start += len(openTag)
	end := strings.Index(line[start:], closeTag)
	if end < 0 {
		return ""
	}
	return line[start : start+end]
}

// xmlAttr extracts a double-quoted attribute value from a tag line.
func xmlAttr(line, attr string) string {
	marker := attr + `="`
	start := strings.Index(line, marker)
	if start < 0 {
		return ""
	}
	start += len(marker)
	end := strings.Index(line[start:], `"`)
	if end < 0 {
		return ""
	}
	return line[start : start+end]
}

var xmlUnescaper = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&apos;", "'",
	"&amp;", "&",
)

func xmlUnescape(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	return xmlUnescaper.Replace(s)
}
