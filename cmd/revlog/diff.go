package main

import (
	"fmt"
	"path/filepath"

	"github.com/4thel00z/revlog/internal"
	"github.com/spf13/cobra"
)

func NewDiffCmd(diffSvc *internal.DiffService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diff <file>",
		Short: "Diff a file between two revisions",
		Long:  `Fetch the content of a file at two revisions of its tracking system and print a patch between them.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeDiffRunner(diffSvc),
	}

	cmd.Flags().String("from", "", "Older revision identifier (required)")
	cmd.Flags().String("to", "", "Newer revision identifier (required)")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func makeDiffRunner(diffSvc *internal.DiffService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}

		out, err := diffSvc.Execute(cmd.Context(), internal.DiffInput{
			Path: path, From: from, To: to,
		})
		if err != nil {
			return fmt.Errorf("diff: %w", err)
		}

		if out.Patch == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes.")
			return nil
		}

		fmt.Fprint(cmd.OutOrStdout(), out.Patch)
		return nil
	}
}
