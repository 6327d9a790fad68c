package internal

import (
	"context"
	"fmt"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffService compares the content of one file at two revisions of the same
// provider. The provider is determined by resolving the file's history first,
// so callers only supply the on-disk path and the two revision identifiers.
type DiffService struct {
	resolver *Resolver
	content  *ContentService
}

func NewDiffService(resolver *Resolver) *DiffService {
	return &DiffService{
		resolver: resolver,
		content:  NewContentService(resolver),
	}
}

type DiffInput struct {
	Path string
	From string
	To   string
}

type DiffOutput struct {
	Provider Provider
	Patch    string
}

func (s *DiffService) Execute(ctx context.Context, input DiffInput) (*DiffOutput, error) {
	result, err := s.resolver.Resolve(ctx, input.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve history: %w", err)
	}
	if result.Provider == ProviderNone {
		return nil, fmt.Errorf("%s is not tracked by any recognized system", input.Path)
	}

	from, err := s.fetch(ctx, result, input.Path, input.From)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", input.From, err)
	}
	to, err := s.fetch(ctx, result, input.Path, input.To)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", input.To, err)
	}

	dmp := diffmatchpatch.New()
	patches := dmp.PatchMake(from, to)

	return &DiffOutput{
		Provider: result.Provider,
		Patch:    dmp.PatchToText(patches),
	}, nil
}

func (s *DiffService) fetch(ctx context.Context, result *HistoryResult, path, revision string) (string, error) {
	return s.content.Fetch(ctx, ContentInput{
		Provider: result.Provider,
		Revision: revision,
		Path:     result.RelativePath,
		RepoRoot: result.RepoRoot,
		Working:  path,
	})
}
