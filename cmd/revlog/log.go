package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/4thel00z/revlog/internal"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func NewLogCmd(historySvc *internal.HistoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log <file>",
		Short: "Show file history",
		Long:  `Show the change history of a file from whichever version control system tracks it.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeLogRunner(historySvc),
	}

	cmd.Flags().IntP("number", "n", 0, "Limit number of entries (0 = all)")
	cmd.Flags().Bool("oneline", false, "Show each entry on one line")
	return cmd
}

func makeLogRunner(historySvc *internal.HistoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("number")
		oneline, _ := cmd.Flags().GetBool("oneline")
		asJSON, _ := cmd.Flags().GetBool("json")

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}

		result, err := historySvc.Resolve(cmd.Context(), internal.ResolveInput{
			Path: path, Limit: limit,
		})
		if err != nil {
			return fmt.Errorf("resolve history: %w", err)
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		if result.Provider == internal.ProviderNone {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not tracked by any recognized system.\n", result.RelativePath)
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", result.RelativePath, result.Provider)
		for _, entry := range result.Entries {
			printEntry(cmd, entry, oneline)
		}
		return nil
	}
}

var (
	revColor    = color.New(color.FgYellow)
	authorColor = color.New(color.FgCyan)
	delColor    = color.New(color.FgRed)
)

func printEntry(cmd *cobra.Command, entry internal.HistoryEntry, oneline bool) {
	out := cmd.OutOrStdout()
	rev := entry.RevisionID
	if entry.Provider == internal.ProviderGit && len(rev) > 7 {
		rev = rev[:7]
	}

	if oneline {
		fmt.Fprintf(out, "%s %s\n", revColor.Sprint(rev), firstLineOf(entry.Summary))
		return
	}

	fmt.Fprintf(out, "\nrevision %s", revColor.Sprint(entry.RevisionID))
	if entry.Deleted {
		fmt.Fprintf(out, " %s", delColor.Sprint("(deleted)"))
	}
	fmt.Fprintln(out)
	if entry.Author != "" {
		fmt.Fprintf(out, "Author: %s\n", authorColor.Sprint(entry.Author))
	}
	if entry.Timestamp > 0 {
		fmt.Fprintf(out, "Date:   %s\n", time.Unix(entry.Timestamp, 0).Format("Mon Jan 2 15:04:05 2006 -0700"))
	}
	fmt.Fprintf(out, "Path:   %s\n", entry.Path)
	if entry.Summary != "" {
		fmt.Fprintf(out, "\n    %s\n", entry.Summary)
	}
}

func firstLineOf(s string) string {
	for i, c := range s {
		if c == '\n' {
			return s[:i]
		}
	}
	return s
}
