package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/scss-unused/internal/output"
	"github.com/panbanda/scss-unused/internal/progress"
	"github.com/panbanda/scss-unused/internal/scanner"
	"github.com/panbanda/scss-unused/pkg/analyzer/unused"
	"github.com/panbanda/scss-unused/pkg/config"
)

func checkCmd() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report unused variables, mixins and functions (default command)",
		ArgsUsage: "[pattern...]",
		Action:    runCheckCmd,
	}
}

func runCheckCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	files, err := discoverFiles(c, cfg, getPaths(c))
	if err != nil {
		return err
	}

	report, err := analyzeFiles(c, cfg, files)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c, cfg)
	if err != nil {
		return err
	}
	defer formatter.Close()

	listing := buildListing(report, cfg.Output.ShowUsed)
	if err := formatter.Output(listing); err != nil {
		return err
	}

	if listing.Problems() > 0 {
		return errUnusedFound
	}
	return nil
}

// newFormatter writes to --output when given, else to the app's writer.
func newFormatter(c *cli.Context, cfg *config.Config) (*output.Formatter, error) {
	format := output.ParseFormat(cfg.Output.Format)
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.NewWriterFormatter(format, c.App.Writer, cfg.Output.Color && !color.NoColor), nil
}

// discoverFiles expands patterns and drops files above the size limit.
func discoverFiles(c *cli.Context, cfg *config.Config, patterns []string) ([]string, error) {
	log := logger(c)

	spinner := progress.Disabled()
	if c.Bool("progress") {
		spinner = progress.NewSpinner("Discovering stylesheets...", progress.WithWriter(c.App.ErrWriter))
	}

	files, err := scanner.NewScanner(cfg).Expand(patterns)
	if err != nil {
		spinner.FinishError(err)
		return nil, err
	}
	spinner.FinishSuccess()

	files, skipped, err := scanner.FilterBySize(files, cfg.Analysis.MaxFileSize)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		log.Warn("skipped files over size limit", "count", skipped, "max_file_size", cfg.Analysis.MaxFileSize)
	}
	log.Debug("discovered files", "patterns", patterns, "count", len(files))
	return files, nil
}

// analyzeFiles runs the analyzer with progress and logging wired from flags.
func analyzeFiles(c *cli.Context, cfg *config.Config, files []string) (*unused.Report, error) {
	log := logger(c)

	tracker := progress.Disabled()
	if c.Bool("progress") {
		tracker = progress.NewTracker("Analyzing stylesheets...", len(files), progress.WithWriter(c.App.ErrWriter))
	}

	a := unused.New(
		unused.WithMaxWorkers(cfg.Analysis.Workers),
		unused.WithProgress(tracker.Tick),
		unused.WithLogger(log),
	)
	defer a.Close()

	start := time.Now()
	report, err := a.Analyze(c.Context, files)
	if err != nil {
		tracker.FinishError(err)
		return nil, err
	}
	tracker.FinishSuccess()

	log.Debug("analysis complete",
		"files", len(files),
		"unused", report.TotalUnused(),
		"elapsed", time.Since(start),
	)
	return report, nil
}

// summaryLine describes the unused counts of a report.
func summaryLine(r *unused.Report) string {
	return fmt.Sprintf("%d unused (%d variables, %d mixins, %d functions) in %d files",
		r.TotalUnused(), len(r.Vars), len(r.Mixins), len(r.Functions), r.Summary.TotalFiles)
}
