package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/panbanda/fraglint/internal/fileproc"
	"github.com/panbanda/fraglint/internal/output"
	"github.com/panbanda/fraglint/internal/progress"
	"github.com/panbanda/fraglint/internal/scanner"
	"github.com/panbanda/fraglint/pkg/lint"
	"github.com/panbanda/fraglint/pkg/models"
	"github.com/panbanda/fraglint/pkg/source"
	"github.com/urfave/cli/v2"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Lint the scripts in host documents (default command)",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "fail-on",
				Usage: "Lowest severity that fails the run: advice, info, warning, severe, action",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files processed in parallel (0 means 2x CPUs)",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide the progress bar",
			},
		},
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	e := envFrom(c)

	failOn := e.cfg.FailOn()
	if s := c.String("fail-on"); s != "" {
		sev, err := models.ParseSeverity(s)
		if err != nil {
			return err
		}
		failOn = sev
	}
	workers := e.cfg.Analysis.Workers
	if c.IsSet("workers") {
		workers = c.Int("workers")
	}

	files, err := scanner.NewScanner(e.cfg).Scan(getPaths(c))
	if err != nil {
		return fmt.Errorf("failed to scan: %w", err)
	}
	if len(files) == 0 {
		color.New(color.FgYellow).Fprintln(c.App.ErrWriter, "No host documents found")
		return nil
	}

	l, err := newLinter(e)
	if err != nil {
		return err
	}

	tracker := progress.NewDisabled()
	if !c.Bool("no-progress") && e.output == "" && len(files) > 1 {
		tracker = progress.NewTrackerTo(c.App.ErrWriter, "Linting...", len(files))
	}

	results, errs := fileproc.MapFiles(c.Context, files, source.NewFilesystem(),
		fileproc.Options{Workers: workers, OnProgress: tracker.Tick}, l.lintFile)
	if errs.HasErrors() {
		tracker.FinishError(errs)
		if err := c.Context.Err(); err != nil {
			return err
		}
		for _, pe := range errs.Errors {
			e.logger.Warn("file skipped", "path", pe.Path, "err", pe.Err)
		}
	} else {
		tracker.FinishSuccess()
	}

	report := lint.NewReport(results)
	if err := writeOutput(c, e, output.NewReportView(report)); err != nil {
		return err
	}

	return checkThreshold(report, failOn)
}

// checkThreshold returns errFailOn when any finding is at least failOn.
func checkThreshold(report *models.Report, failOn models.Severity) error {
	top := models.HighestSeverity(report.AllFindings())
	if top != "" && top.AtLeast(failOn) {
		return fmt.Errorf("%w: highest is %s", errFailOn, top)
	}
	return nil
}

// writeOutput renders data with the configured format and destination.
func writeOutput(c *cli.Context, e *env, data any) error {
	if e.output == "" {
		return output.NewWriterFormatter(output.ParseFormat(e.format), c.App.Writer, e.colored).Output(data)
	}
	f, err := output.NewFormatter(output.ParseFormat(e.format), e.output, false)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	return errors.Join(f.Output(data), f.Close())
}
