package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/4thel00z/revlog/internal"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func NewWatchCmd(historySvc *internal.HistoryService) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <file>",
		Short: "Watch a file and reprint its history on change",
		Long:  `Watch a file for modifications and re-resolve its history whenever it changes, like a history viewer that follows a file being worked on.`,
		Args:  cobra.ExactArgs(1),
		RunE:  makeWatchRunner(historySvc),
	}

	cmd.Flags().Duration("debounce", 500*time.Millisecond, "Debounce window for batching changes")
	cmd.Flags().IntP("number", "n", 10, "Limit number of entries per refresh")
	return cmd
}

func makeWatchRunner(historySvc *internal.HistoryService) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		debounce, _ := cmd.Flags().GetDuration("debounce")
		limit, _ := cmd.Flags().GetInt("number")

		path, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("resolve path: %w", err)
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the directory: editors often replace files on save, which
		// drops a watch registered on the file itself.
		if err := watcher.Add(filepath.Dir(path)); err != nil {
			return fmt.Errorf("add watch dir: %w", err)
		}

		printHistory := func() {
			result, resolveErr := historySvc.Resolve(cmd.Context(), internal.ResolveInput{
				Path: path, Limit: limit,
			})
			if resolveErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "resolve error: %v\n", resolveErr)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", result.RelativePath, result.Provider)
			for _, entry := range result.Entries {
				printEntry(cmd, entry, true)
			}
		}

		printHistory()
		fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes...\n", path)

		timer := time.NewTimer(0)
		if !timer.Stop() {
			<-timer.C
		}
		pending := false

		for {
			select {
			case <-cmd.Context().Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if event.Name != path {
					continue
				}
				if !pending {
					timer.Reset(debounce)
					pending = true
				}
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "watch error: %v\n", watchErr)
			case <-timer.C:
				pending = false
				printHistory()
			}
		}
	}
}
