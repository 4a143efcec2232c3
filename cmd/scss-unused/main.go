package main

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/panbanda/scss-unused/pkg/config"
)

var (
	version = "dev"
	commit  = "none"    //nolint:unused // set via ldflags at build time
	date    = "unknown" //nolint:unused // set via ldflags at build time
)

// errUnusedFound signals exit status 1 without an error message.
var errUnusedFound = errors.New("unused symbols found")

const loggerKey = "logger"

// getPaths returns patterns from positional args, defaulting to ["."]
func getPaths(c *cli.Context) []string {
	if c.Args().Len() > 0 {
		return c.Args().Slice()
	}
	return []string{"."}
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "scss-unused",
		Usage:     "Find unused SCSS variables, mixins and functions",
		Version:   version,
		ArgsUsage: "[pattern...]",
		Writer:    stdout,
		ErrWriter: stderr,
		Metadata:  make(map[string]interface{}),
		Description: `scss-unused parses every stylesheet matched by the given files, directories
or glob patterns and reports variables, mixins and functions that are declared
but never referenced anywhere in the set. It exits with status 1 when any are
found.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (TOML, YAML, or JSON)",
				EnvVars: []string{config.EnvConfigPath},
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, table, json, yaml, toon, markdown",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"j"},
				Usage:   "Number of parallel workers (0 = 2x CPU count)",
			},
			&cli.BoolFlag{
				Name:  "show-used",
				Value: true,
				Usage: "Also list used variables and mixins",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Usage: "Show a progress bar on stderr",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable verbose output",
			},
		},
		Before: func(c *cli.Context) error {
			level := slog.LevelWarn
			if c.Bool("verbose") {
				level = slog.LevelDebug
			}
			c.App.Metadata[loggerKey] = slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
				Level: level,
			}))
			if c.Bool("no-color") {
				color.NoColor = true
			}
			return nil
		},
		Action: runCheckCmd,
		Commands: []*cli.Command{
			checkCmd(),
			watchCmd(),
			configCmd(),
		},
	}
}

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		if !errors.Is(err, errUnusedFound) {
			color.Red("Error: %v", err)
		}
		os.Exit(1)
	}
}

// logger returns the logger configured in Before.
func logger(c *cli.Context) *slog.Logger {
	if l, ok := c.App.Metadata[loggerKey].(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}

// loadConfig loads the config file and applies flag overrides.
func loadConfig(c *cli.Context) (*config.Config, error) {
	result, err := config.LoadConfig(loadOptions(c)...)
	if err != nil {
		return nil, err
	}
	cfg := result.Config
	if result.Source != "" {
		logger(c).Debug("loaded config", "path", result.Source)
	}

	if c.IsSet("format") {
		cfg.Output.Format = c.String("format")
	}
	if c.IsSet("workers") {
		cfg.Analysis.Workers = c.Int("workers")
	}
	if c.IsSet("show-used") {
		cfg.Output.ShowUsed = c.Bool("show-used")
	}
	if c.Bool("no-color") {
		cfg.Output.Color = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
