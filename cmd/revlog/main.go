package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/4thel00z/revlog/internal"
	"github.com/charmbracelet/fang"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	ctx := context.Background()

	if tryExternalCommand(ctx) {
		return
	}

	setupLogging()

	app, err := newApp()
	if err != nil {
		fmt.Fprintf(os.Stderr, "revlog: %v\n", err)
		os.Exit(1)
	}

	rootCmd := NewRootCmd(version, app)
	if err := fang.Execute(ctx, rootCmd); err != nil {
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelWarn
	if os.Getenv("REVLOG_DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func tryExternalCommand(ctx context.Context) bool {
	if len(os.Args) < 2 {
		return false
	}

	cmd := os.Args[1]
	if cmd == "" || cmd[0] == '-' {
		return false
	}

	if _, err := findExternal(cmd); err != nil {
		return false
	}

	if err := executeExternal(ctx, cmd, os.Args[2:], version); err != nil {
		fmt.Fprintf(os.Stderr, "revlog %s: %v\n", cmd, err)
		os.Exit(1)
	}

	return true
}

type app struct {
	config     *internal.Config
	historySvc *internal.HistoryService
	contentSvc *internal.ContentService
	diffSvc    *internal.DiffService
}

func newApp() (*app, error) {
	configPath, err := internal.ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	resolver := internal.NewResolver(cfg, internal.NewExecRunner())

	return &app{
		config:     cfg,
		historySvc: internal.NewHistoryService(resolver),
		contentSvc: internal.NewContentService(resolver),
		diffSvc:    internal.NewDiffService(resolver),
	}, nil
}
