package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/panbanda/fraglint/internal/logging"
	"github.com/panbanda/fraglint/internal/metrics"
	"github.com/panbanda/fraglint/pkg/config"
	"github.com/urfave/cli/v2"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errFailOn is returned by check when a finding reaches the fail_on
// severity. It sets the exit status without printing an error.
var errFailOn = errors.New("findings at or above the fail_on severity")

const envKey = "env"

// env is the per-invocation state shared by every command.
type env struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	metrics *metrics.Collector
	format  string
	output  string
	colored bool
	noCache bool
}

// getPaths returns paths from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().RunContext(ctx, os.Args)
	stop()
	if err != nil {
		if !errors.Is(err, errFailOn) {
			color.Red("Error: %v", err)
		}
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:     "fraglint",
		Usage:    "Static analysis for scripts embedded in JSON and YAML documents",
		Version:  version,
		Metadata: make(map[string]interface{}),
		Description: `fraglint finds the script fragments stored in host documents, parses
them with a tiered parser and reports dead code, unsafe property access,
complexity and code smells against the lines of the host file.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{"FRAGLINT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, json, markdown, toon, yaml (default from config)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the findings cache",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "Log format: text or json (default from config)",
			},
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "Write Prometheus metrics to this file when the command finishes",
			},
		},
		Before: setup,
		After:  teardown,
		Action: runCheck,
		Commands: []*cli.Command{
			checkCmd(),
			parseCmd(),
			watchCmd(),
			rulesCmd(),
			initCmd(),
			cacheCmd(),
		},
	}
}

// setup loads the config and builds the logger and metrics collector.
func setup(c *cli.Context) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if path = c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.LoadOrDefault()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	logFormat := cfg.Log.Format
	if f := c.String("log-format"); f != "" {
		logFormat = f
	}
	logger, err := logging.New(logging.Config{Level: level, Format: logFormat, Writer: c.App.ErrWriter})
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	if path != "" {
		logger.Debug("loaded config", "path", path)
	}

	format := cfg.Output.Format
	if f := c.String("format"); f != "" {
		format = f
	}

	c.App.Metadata[envKey] = &env{
		cfg:     cfg,
		cfgPath: path,
		logger:  logger,
		metrics: metrics.New(),
		format:  format,
		output:  c.String("output"),
		colored: cfg.Output.Color && !color.NoColor,
		noCache: c.Bool("no-cache"),
	}
	return nil
}

// teardown writes the metrics file when one was requested.
func teardown(c *cli.Context) error {
	path := c.String("metrics")
	e, ok := c.App.Metadata[envKey].(*env)
	if path == "" || !ok {
		return nil
	}
	if err := e.metrics.WriteFile(path); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func envFrom(c *cli.Context) *env {
	return c.App.Metadata[envKey].(*env)
}
