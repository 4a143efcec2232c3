// Package unused finds SCSS variables, mixins and functions that are declared
// but never referenced anywhere in a set of stylesheets.
package unused

import (
	"context"
	"log/slog"

	"github.com/panbanda/scss-unused/internal/fileproc"
	"github.com/panbanda/scss-unused/pkg/analyzer"
	"github.com/panbanda/scss-unused/pkg/source"
)

// Compile-time check that Analyzer implements FileAnalyzer.
var _ analyzer.FileAnalyzer[*Report] = (*Analyzer)(nil)

// Analyzer extracts symbols from every file in parallel and reduces them into
// one report.
type Analyzer struct {
	source     source.ContentSource
	maxWorkers int
	onProgress fileproc.ProgressFunc
	logger     *slog.Logger
}

// Option is a functional option for configuring Analyzer.
type Option func(*Analyzer)

// WithSource sets where file content is read from. Defaults to the filesystem.
func WithSource(src source.ContentSource) Option {
	return func(a *Analyzer) {
		if src != nil {
			a.source = src
		}
	}
}

// WithMaxWorkers sets the number of parallel workers (0 = 2x NumCPU).
func WithMaxWorkers(n int) Option {
	return func(a *Analyzer) {
		a.maxWorkers = n
	}
}

// WithProgress sets a callback invoked once per processed file.
func WithProgress(fn func()) Option {
	return func(a *Analyzer) {
		a.onProgress = fn
	}
}

// WithLogger sets the logger used for per-file debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// New creates a new unused symbol analyzer.
func New(opts ...Option) *Analyzer {
	a := &Analyzer{
		source: source.NewFilesystem(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is a stylesheet supplied directly by the caller.
type Input struct {
	Path    string
	Content string
}

// Analyze reads, parses and extracts every file, then reduces the results.
// Any read, parse or extraction failure aborts the whole run; no partial
// report is returned.
func (a *Analyzer) Analyze(ctx context.Context, files []string) (*Report, error) {
	symbols, err := fileproc.MapFilesFailFast(ctx, files, a.maxWorkers, func(ctx context.Context, path string) (*FileSymbols, error) {
		content, err := source.ReadString(a.source, path)
		if err != nil {
			return nil, err
		}
		return a.extract(path, content)
	}, a.onProgress)
	if err != nil {
		return nil, err
	}
	return a.reduce(len(files), symbols), nil
}

// AnalyzeInputs is Analyze for content already held in memory. Inputs may
// share a path; each is analyzed as a separate file.
func (a *Analyzer) AnalyzeInputs(ctx context.Context, inputs []Input) (*Report, error) {
	symbols, err := fileproc.MapFailFast(ctx, inputs, a.maxWorkers,
		func(in Input) string { return in.Path },
		func(ctx context.Context, in Input) (*FileSymbols, error) {
			return a.extract(in.Path, in.Content)
		}, a.onProgress)
	if err != nil {
		return nil, err
	}
	return a.reduce(len(inputs), symbols), nil
}

// AnalyzeFile extracts the symbols of a single file.
func (a *Analyzer) AnalyzeFile(path string) (*FileSymbols, error) {
	content, err := source.ReadString(a.source, path)
	if err != nil {
		return nil, err
	}
	return a.extract(path, content)
}

func (a *Analyzer) extract(path, content string) (*FileSymbols, error) {
	fs, err := ExtractSource(path, content)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("extracted symbols",
		"path", path,
		"vars", len(fs.DeclaredVars),
		"mixins", len(fs.DeclaredMixins),
		"functions", len(fs.DeclaredFunctions),
	)
	return fs, nil
}

func (a *Analyzer) reduce(files int, symbols []*FileSymbols) *Report {
	report := Reduce(symbols...)
	a.logger.Debug("reduced symbols",
		"files", files,
		"unused", report.TotalUnused(),
		"fingerprint", report.Fingerprint,
	)
	return report
}

// Close releases analyzer resources.
func (a *Analyzer) Close() {}
