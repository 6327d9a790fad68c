package internal

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
)

// HistoryService is the resolver behind the CLI and the public client.
type HistoryService struct {
	resolver *Resolver
}

func NewHistoryService(resolver *Resolver) *HistoryService {
	return &HistoryService{resolver: resolver}
}

type ResolveInput struct {
	Path  string
	Limit int
}

func (s *HistoryService) Resolve(ctx context.Context, input ResolveInput) (*HistoryResult, error) {
	result, err := s.resolver.Resolve(ctx, input.Path)
	if err != nil {
		return nil, err
	}
	if input.Limit > 0 && len(result.Entries) > input.Limit {
		result.Entries = result.Entries[:input.Limit]
	}
	return result, nil
}

// ContentService retrieves historical file content per provider. Revision
// identifiers are provider-defined, so callers must pass the provider the
// revision came from.
type ContentService struct {
	resolver *Resolver
}

func NewContentService(resolver *Resolver) *ContentService {
	return &ContentService{resolver: resolver}
}

type ContentInput struct {
	Provider Provider
	Revision string
	Path     string // path within the repository, or the depot path for Perforce
	RepoRoot string // git only; resolved from Path's history when empty
	Working  string // path on disk, used for workspace discovery
}

func (s *ContentService) Fetch(ctx context.Context, input ContentInput) (string, error) {
	switch input.Provider {
	case ProviderGit:
		root := input.RepoRoot
		if root == "" {
			result, err := s.resolver.Resolve(ctx, input.Working)
			if err != nil {
				return "", fmt.Errorf("resolve repository root: %w", err)
			}
			if result.Provider != ProviderGit || result.RepoRoot == "" {
				return "", fmt.Errorf("no git repository root for %s", input.Working)
			}
			root = result.RepoRoot
		}
		path := input.Path
		if filepath.IsAbs(path) {
			if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
				path = rel
			}
		}
		return s.resolver.GitContent(ctx, root, input.Revision, path)
	case ProviderPerforce:
		return s.resolver.PerforceContent(ctx, input.Path, input.Revision, input.Working)
	case ProviderSubversion:
		return s.resolver.SubversionContent(ctx, input.Revision, input.Working)
	default:
		return "", fmt.Errorf("unknown provider %q", input.Provider)
	}
}
