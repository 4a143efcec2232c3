package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfigPath names an environment variable holding an explicit config path.
const EnvConfigPath = "SCSS_UNUSED_CONFIG"

// Formats lists the accepted output.format values.
var Formats = []string{"text", "table", "json", "yaml", "toon", "markdown"}

// Config holds all configuration options for scss-unused.
type Config struct {
	// Analysis settings
	Analysis AnalysisConfig `koanf:"analysis" toml:"analysis"`

	// File exclusion patterns
	Exclude ExcludeConfig `koanf:"exclude" toml:"exclude"`

	// Output settings
	Output OutputConfig `koanf:"output" toml:"output"`

	// Watch mode settings
	Watch WatchConfig `koanf:"watch" toml:"watch"`
}

// AnalysisConfig controls which files are analyzed and how.
type AnalysisConfig struct {
	Extensions  []string `koanf:"extensions" toml:"extensions"`
	Workers     int      `koanf:"workers" toml:"workers"`             // 0 = 2x NumCPU
	MaxFileSize int64    `koanf:"max_file_size" toml:"max_file_size"` // bytes, 0 = no limit
}

// ExcludeConfig defines paths skipped while walking directories.
type ExcludeConfig struct {
	Patterns  []string `koanf:"patterns" toml:"patterns"`
	Dirs      []string `koanf:"dirs" toml:"dirs"`
	Gitignore bool     `koanf:"gitignore" toml:"gitignore"`
}

// OutputConfig controls report rendering.
type OutputConfig struct {
	Format   string `koanf:"format" toml:"format"`
	Color    bool   `koanf:"color" toml:"color"`
	ShowUsed bool   `koanf:"show_used" toml:"show_used"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMS int `koanf:"debounce_ms" toml:"debounce_ms"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			Extensions:  []string{".scss"},
			Workers:     0,
			MaxFileSize: 0,
		},
		Exclude: ExcludeConfig{
			Patterns: []string{},
			Dirs: []string{
				"node_modules",
				"vendor",
				".git",
				"dist",
				"build",
			},
			Gitignore: true,
		},
		Output: OutputConfig{
			Format:   "text",
			Color:    true,
			ShowUsed: true,
		},
		Watch: WatchConfig{
			DebounceMS: 500,
		},
	}
}

// Load loads configuration from a file. The parser is picked by extension,
// defaulting to TOML. Keys missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		parser = toml.Parser()
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Analysis.Extensions) == 0 {
		errs = append(errs, errors.New("analysis.extensions must not be empty"))
	}
	for _, ext := range c.Analysis.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("analysis.extensions: %q must start with a dot", ext))
		}
	}
	if c.Analysis.Workers < 0 {
		errs = append(errs, fmt.Errorf("analysis.workers must be >= 0, got %d", c.Analysis.Workers))
	}
	if c.Analysis.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("analysis.max_file_size must be >= 0, got %d", c.Analysis.MaxFileSize))
	}
	if !slices.Contains(Formats, c.Output.Format) {
		errs = append(errs, fmt.Errorf("output.format: unknown format %q (want one of %s)", c.Output.Format, strings.Join(Formats, ", ")))
	}
	if c.Watch.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS))
	}

	return errors.Join(errs...)
}

// LoadResult is a loaded configuration and the file it came from.
// Source is empty when no config file was found.
type LoadResult struct {
	Config *Config
	Source string
}

type loadOptions struct {
	path string
	dirs []string
}

// LoadOption configures LoadConfig.
type LoadOption func(*loadOptions)

// WithPath loads the given file instead of searching the default locations.
func WithPath(path string) LoadOption {
	return func(o *loadOptions) {
		o.path = path
	}
}

// WithSearchDirs overrides the directories searched for a config file.
func WithSearchDirs(dirs ...string) LoadOption {
	return func(o *loadOptions) {
		o.dirs = dirs
	}
}

var configNames = []string{
	"scss-unused.toml",
	"scss-unused.yaml",
	"scss-unused.yml",
	"scss-unused.json",
	".scss-unused.toml",
	".scss-unused.yaml",
	".scss-unused.yml",
	".scss-unused.json",
}

// LoadConfig resolves, loads and validates the configuration. An explicit
// path (WithPath, then $SCSS_UNUSED_CONFIG) must exist; otherwise the search
// directories are tried in order and the defaults apply when nothing is found.
func LoadConfig(opts ...LoadOption) (*LoadResult, error) {
	o := &loadOptions{dirs: []string{".", ".scss-unused"}}
	for _, opt := range opts {
		opt(o)
	}
	if o.path == "" {
		o.path = os.Getenv(EnvConfigPath)
	}

	path := o.path
	if path == "" {
		path = FindConfigFile(o.dirs...)
	}
	if path == "" {
		return &LoadResult{Config: DefaultConfig()}, nil
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Source: path}, nil
}

// FindConfigFile returns the first known config file in dirs, or "".
func FindConfigFile(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && !info.IsDir() {
				return path
			}
		}
	}
	return ""
}

// LoadOrDefault loads config from the default locations or returns defaults.
// Broken config files are ignored.
func LoadOrDefault() *Config {
	result, err := LoadConfig()
	if err != nil {
		return DefaultConfig()
	}
	return result.Config
}

// HasExtension reports whether path has one of the configured extensions.
func (c *Config) HasExtension(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range c.Analysis.Extensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

// ShouldExcludeDir reports whether a directory with this base name is skipped.
func (c *Config) ShouldExcludeDir(name string) bool {
	return slices.Contains(c.Exclude.Dirs, name)
}
