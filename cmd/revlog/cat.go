package main

import (
	"fmt"
	"path/filepath"

	"github.com/4thel00z/revlog/internal"
	"github.com/spf13/cobra"
)

func NewCatCmd(contentSvc *internal.ContentService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cat <file>",
		Short: "Print file content at a revision",
		Long:  `Print the content of a file as it existed at a given revision. The revision identifier must come from the same provider that tracks the file.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeCatRunner(contentSvc),
	}

	cmd.Flags().StringP("rev", "r", "", "Revision identifier (required)")
	cmd.Flags().String("provider", "git", "Provider the revision belongs to (git|perforce|subversion)")
	cmd.Flags().String("root", "", "Repository root (git only; resolved automatically when omitted)")
	cmd.Flags().String("path", "", "Path within the repository (defaults to the file argument)")
	_ = cmd.MarkFlagRequired("rev")
	return cmd
}

func makeCatRunner(contentSvc *internal.ContentService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		revision, _ := cmd.Flags().GetString("rev")
		providerName, _ := cmd.Flags().GetString("provider")
		root, _ := cmd.Flags().GetString("root")
		repoPath, _ := cmd.Flags().GetString("path")

		working, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}
		if repoPath == "" {
			repoPath = working
		}

		provider := internal.Provider(providerName)
		switch provider {
		case internal.ProviderGit, internal.ProviderPerforce, internal.ProviderSubversion:
		default:
			return fmt.Errorf("unknown provider %q", providerName)
		}

		content, err := contentSvc.Fetch(cmd.Context(), internal.ContentInput{
			Provider: provider,
			Revision: revision,
			Path:     repoPath,
			RepoRoot: root,
			Working:  working,
		})
		if err != nil {
			return fmt.Errorf("fetch content: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), content)
		return nil
	}
}
