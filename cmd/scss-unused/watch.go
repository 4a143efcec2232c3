package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/scss-unused/internal/scanner"
	"github.com/panbanda/scss-unused/pkg/config"
	"github.com/panbanda/scss-unused/pkg/watch"
)

func watchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Re-run the check whenever a stylesheet changes",
		ArgsUsage: "[pattern...]",
		Flags: []cli.Flag{
			&cli.DurationFlag{
				Name:  "debounce",
				Usage: "Quiet period before re-running (default from config)",
			},
		},
		Action: runWatchCmd,
	}
}

// watchSession re-runs the full analysis and prints the report only when
// its fingerprint differs from the last one printed.
type watchSession struct {
	c           *cli.Context
	cfg         *config.Config
	patterns    []string
	fingerprint string
	printed     bool
}

// run analyzes the current file set and reports whether output was printed.
func (s *watchSession) run() (bool, error) {
	files, err := discoverFiles(s.c, s.cfg, s.patterns)
	if err != nil {
		return false, err
	}
	report, err := analyzeFiles(s.c, s.cfg, files)
	if err != nil {
		return false, err
	}

	if s.printed && report.Fingerprint == s.fingerprint {
		logger(s.c).Debug("result unchanged", "fingerprint", report.Fingerprint)
		return false, nil
	}

	formatter, err := newFormatter(s.c, s.cfg)
	if err != nil {
		return false, err
	}
	defer formatter.Close()

	listing := buildListing(report, s.cfg.Output.ShowUsed)
	if err := formatter.Output(listing); err != nil {
		return false, err
	}
	if !formatter.Structured() {
		if listing.Problems() > 0 {
			formatter.Warning("%s", summaryLine(report))
		} else {
			formatter.Success("No unused symbols in %d files", report.Summary.TotalFiles)
		}
	}

	s.fingerprint = report.Fingerprint
	s.printed = true
	return true, nil
}

func runWatchCmd(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	debounce := time.Duration(cfg.Watch.DebounceMS) * time.Millisecond
	if c.IsSet("debounce") {
		debounce = c.Duration("debounce")
	}

	patterns := getPaths(c)
	roots := scanner.Roots(patterns)
	if len(roots) == 0 {
		return fmt.Errorf("nothing to watch: no existing directory matches %v", patterns)
	}

	session := &watchSession{c: c, cfg: cfg, patterns: patterns}
	if _, err := session.run(); err != nil {
		color.New(color.FgRed).Fprintf(c.App.ErrWriter, "Error: %v\n", err)
	}

	watcher, err := watch.NewWatcher(roots, cfg, debounce)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Stop()
	watcher.SetOutput(c.App.ErrWriter)

	watcher.SetCallback(func(changed []string) {
		logger(c).Info("detected changes", "count", len(changed))
		if _, err := session.run(); err != nil {
			color.New(color.FgRed).Fprintf(c.App.ErrWriter, "Error: %v\n", err)
		}
	})

	// Handle Ctrl+C
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := watcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	fmt.Fprintln(c.App.ErrWriter, "\nStopping watch...")
	return nil
}
