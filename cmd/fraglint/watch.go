package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/panbanda/fraglint/internal/output"
	"github.com/panbanda/fraglint/pkg/lint"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/watch"
	"github.com/urfave/cli/v2"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-lint host documents as they change",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Value: watch.DefaultDebounce,
				Usage: "Quiet period before a changed file is linted",
			},
		},
		Action: runWatchCmd,
	}
}

func runWatchCmd(c *cli.Context) error {
	e := envFrom(c)
	paths := getPaths(c)

	absPath, err := filepath.Abs(paths[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	l, err := newLinter(e)
	if err != nil {
		return err
	}

	watcher, err := watch.NewWatcher(absPath, e.cfg, c.Duration("debounce"), watch.WithLogger(e.logger))
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()

	watcher.SetCallback(func(ctx context.Context, changed string) {
		rel, err := filepath.Rel(absPath, changed)
		if err != nil {
			rel = changed
		}
		color.New(color.FgYellow).Fprintf(c.App.Writer, "\nFile changed: %s\n", rel)

		content, err := os.ReadFile(changed)
		if err != nil {
			e.logger.Warn("failed to read changed file", "path", changed, "err", err)
			return
		}
		res, err := l.lintFile(ctx, rel, content)
		if err != nil {
			if ctx.Err() == nil {
				color.New(color.FgRed).Fprintf(c.App.Writer, "%v\n", err)
			}
			return
		}
		if err := writeOutput(c, e, output.NewReportView(lint.NewReport([]models.FileResult{res}))); err != nil {
			e.logger.Warn("failed to write report", "err", err)
		}
	})

	color.New(color.FgCyan).Fprintf(c.App.Writer, "Watching for changes in %s...\nPress Ctrl+C to stop\n", absPath)

	err = watcher.Start(c.Context)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(c.App.Writer, "\nStopping watch...")
		return nil
	}
	return err
}
