package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/panbanda/fraglint/internal/cache"
	"github.com/panbanda/fraglint/internal/output"
	"github.com/urfave/cli/v2"
)

func cacheCmd() *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the findings cache",
		Subcommands: []*cli.Command{
			{
				Name:   "clear",
				Usage:  "Remove every cached result",
				Action: runCacheClear,
			},
			{
				Name:   "stats",
				Usage:  "Show cache size and entry ages",
				Action: runCacheStats,
			},
		},
	}
}

func openCache(e *env) (*cache.Cache, error) {
	return cache.New(e.cfg.Cache.Dir, e.cfg.Cache.TTL, true, "")
}

func runCacheClear(c *cli.Context) error {
	e := envFrom(c)
	cc, err := openCache(e)
	if err != nil {
		return err
	}
	if err := cc.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	fmt.Fprintf(c.App.Writer, "Cleared %s\n", e.cfg.Cache.Dir)
	return nil
}

func runCacheStats(c *cli.Context) error {
	e := envFrom(c)
	cc, err := openCache(e)
	if err != nil {
		return err
	}
	stats, err := cc.GetStats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	rows := [][]string{
		{"Directory", stats.Dir},
		{"Entries", strconv.Itoa(stats.Entries)},
		{"Total size", formatBytes(stats.TotalSize)},
	}
	if stats.Entries > 0 {
		rows = append(rows,
			[]string{"Oldest", stats.OldestAge.Round(time.Second).String()},
			[]string{"Newest", stats.NewestAge.Round(time.Second).String()},
		)
	}
	return writeOutput(c, e, output.NewTable("Cache", []string{"Metric", "Value"}, rows, nil, stats))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
