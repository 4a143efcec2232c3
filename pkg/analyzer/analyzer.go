package analyzer

import "context"

// FileAnalyzer is implemented by analyzers that consume a list of stylesheet
// paths and produce one result for the whole set.
type FileAnalyzer[T any] interface {
	// Analyze processes every file and returns the combined result. A failure
	// in any file aborts the run.
	Analyze(ctx context.Context, files []string) (T, error)

	// Close releases any resources held by the analyzer.
	Close()
}
